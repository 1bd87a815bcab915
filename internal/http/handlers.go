package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"costmanager/internal/core"
	applog "costmanager/internal/log"
)

type costItemResponse struct {
	UserID      string    `json:"userid"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Sum         float64   `json:"sum"`
	Date        time.Time `json:"date"`
}

type userResponse struct {
	ID        string  `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Total     float64 `json:"total"`
}

type reportItemResponse struct {
	Description string  `json:"description"`
	Sum         float64 `json:"sum"`
	Day         int     `json:"day"`
}

type categoryResponse struct {
	Category string               `json:"category"`
	Items    []reportItemResponse `json:"items"`
}

type reportResponse struct {
	UserID string             `json:"userid"`
	Year   int                `json:"year"`
	Month  int                `json:"month"`
	Costs  []categoryResponse `json:"costs"`
}

type teamMemberResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// handleAdd appends a cost item. Accepts JSON or form bodies with userid,
// description, category and sum.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		if err == errBodyTooLarge {
			ErrorJSON(http.StatusRequestEntityTooLarge, err.Error()).Write(w)
			return
		}
		BadRequestError(err.Error()).Write(w)
		return
	}

	sum, err := core.ParseSum(p.Get("sum"))
	if err != nil {
		s.writeError(w, r, err, applog.OpParse)
		return
	}

	item, err := s.api.AddCost(r.Context(), p.Get("userid"), p.Get("description"), p.Get("category"), sum)
	if err != nil {
		s.writeError(w, r, err, applog.OpCreate)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Body(costItemResponse{
			UserID:      item.UserID,
			Description: item.Description,
			Category:    item.Category,
			Sum:         item.Sum,
			Date:        item.Date,
		}).
		Write(w)
}

// handleUser returns a user's profile with total spend.
func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.PathValue("id"))
	if id == "" {
		s.writeError(w, r, core.NewValidationError("id", "is required"), applog.OpRead)
		return
	}

	profile, err := s.api.Profile(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, applog.OpRead)
		return
	}

	NewJSONResponse().Body(userResponse{
		ID:        profile.User.ID,
		FirstName: profile.User.FirstName,
		LastName:  profile.User.LastName,
		Total:     profile.Total,
	}).Write(w)
}

// handleReport returns the monthly category-grouped report for ?id=&year=&month=.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := sanitizeInput(q.Get("id"))
	if id == "" {
		s.writeError(w, r, core.NewValidationError("id", "is required"), applog.OpReport)
		return
	}

	rep, err := s.api.Report(r.Context(), id, q.Get("year"), q.Get("month"))
	if err != nil {
		s.writeError(w, r, err, applog.OpReport)
		return
	}

	NewJSONResponse().Body(toReportResponse(rep)).Write(w)
}

func toReportResponse(rep core.Report) reportResponse {
	out := reportResponse{
		UserID: rep.UserID,
		Year:   rep.Year,
		Month:  rep.Month,
		Costs:  make([]categoryResponse, 0, len(rep.Costs)),
	}
	for _, g := range rep.Costs {
		items := make([]reportItemResponse, 0, len(g.Items))
		for _, it := range g.Items {
			items = append(items, reportItemResponse{Description: it.Description, Sum: it.Sum, Day: it.Day})
		}
		out.Costs = append(out.Costs, categoryResponse{Category: g.Category, Items: items})
	}
	return out
}

// handleAbout lists the configured team members.
func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	team := make([]teamMemberResponse, 0, len(s.team))
	for _, m := range s.team {
		team = append(team, teamMemberResponse{FirstName: m.FirstName, LastName: m.LastName})
	}
	NewJSONResponse().Body(team).Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	}).Write(w)
}

// handleReady pings the ledger store, including its schema version.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{}
	if err := s.api.Ready(ctx); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err.Error())
		checks["ledger"] = "failed"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["ledger"] = "ok"
	}
	checks["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.ActiveClients()}

	NewJSONResponse().Status(code).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides request, security and user-cache counters in JSON.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.traceMiddleware.GetMetrics()
	rateMetrics := s.rateLimiter.GetMetrics()
	secMetrics := s.securityDetector.GetMetrics()

	body := map[string]any{
		"requests_total":        traceMetrics.TotalRequests,
		"requests_errors_total": traceMetrics.TotalErrors,
		"response_time_avg_us":  traceMetrics.AverageResponseTime,
		"rate_limit_rejections": rateMetrics.TotalHits,
		"rate_limit_clients":    rateMetrics.ClientCount,
		"suspicious_requests":   secMetrics.SuspiciousRequests,
		"uptime_seconds":        int64(time.Since(s.startedAt).Seconds()),
	}
	if s.userCache != nil {
		st := s.userCache.Stats()
		body["user_cache_size"] = st.Size
		body["user_cache_hits"] = st.Hits
		body["user_cache_misses"] = st.Misses
	}

	NewJSONResponse().Body(body).Write(w)
}

// allowedMethods lists the method of every fixed route so unknown methods on
// known paths get 405 instead of 404.
var allowedMethods = map[string]string{
	"/api/add":    http.MethodPost,
	"/api/report": http.MethodGet,
	"/api/about":  http.MethodGet,
	"/healthz":    http.MethodGet,
	"/readyz":     http.MethodGet,
	"/metrics":    http.MethodGet,
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if m, ok := allowedMethods[r.URL.Path]; ok {
		MethodNotAllowedError(m).Write(w)
		return
	}
	if rest, ok := strings.CutPrefix(r.URL.Path, "/api/users/"); ok && rest != "" && !strings.Contains(rest, "/") {
		MethodNotAllowedError(http.MethodGet).Write(w)
		return
	}
	NotFoundError("route not found").Write(w)
}

// writeError logs err and writes the mapped response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	resp := FromError(err)
	ctx := r.Context()
	if resp.statusCode >= http.StatusInternalServerError {
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Request failed", err, applog.ComponentHTTP, op, nil)
	} else {
		applog.FromContext(ctx).DebugContext(ctx, "Request rejected", applog.FieldOperation, op, applog.FieldError, err.Error())
	}
	resp.Write(w)
}
