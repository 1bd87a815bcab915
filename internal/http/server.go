package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"costmanager/internal/cache"
	"costmanager/internal/core"
	applog "costmanager/internal/log"
	"costmanager/internal/middleware/ratelimit"
	"costmanager/internal/middleware/security"
	"costmanager/internal/middleware/trace"
	"costmanager/internal/services"
)

// CostAPI is the application surface the handlers depend on.
// *services.CostService implements it.
type CostAPI interface {
	AddCost(ctx context.Context, userID, description, category string, sum float64) (core.CostItem, error)
	Profile(ctx context.Context, id string) (services.Profile, error)
	Report(ctx context.Context, userID, year, month string) (core.Report, error)
	Ready(ctx context.Context) error
}

// CacheStats is implemented by *users.CachedRegistry.
type CacheStats interface {
	Stats() cache.Stats
}

// Options configures NewServer.
type Options struct {
	Logger             *applog.Logger
	Team               []core.TeamMember
	RateLimitPerMinute int
	// UserCache, when set, is reported on /metrics.
	UserCache CacheStats
}

// Server is the JSON API server.
type Server struct {
	http.Server
	api    CostAPI
	team   []core.TeamMember
	logger *applog.Logger

	userCache CacheStats

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	startedAt        time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, api CostAPI, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	s := &Server{
		api:              api,
		team:             append([]core.TeamMember(nil), opts.Team...),
		userCache:        opts.UserCache,
		logger:           logger,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		startedAt:        time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/add", s.handleAdd)
	mux.HandleFunc("GET /api/users/{id}", s.handleUser)
	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.HandleFunc("GET /api/about", s.handleAbout)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("/", s.handleNotFound)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP, s.onRateLimit, http.MethodPost)(handler)
	handler = s.suspiciousRequestLogger(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) suspiciousRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.securityDetector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(),
				"Suspicious request detected",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldClientIP, s.securityDetector.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	ErrorJSON(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
}
