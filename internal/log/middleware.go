package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// Middleware creates HTTP middleware that adds a logger to the request context
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(IntoContext(r.Context(), logger)))
		})
	}
}

// IntoContext returns a copy of ctx carrying logger.
func IntoContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return newLogger(slog.Default(), "unknown")
}

// RequestIDMiddleware adds request ID to logger context
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).With(FieldRequestID, extractRequestID(r))
			next.ServeHTTP(w, r.WithContext(IntoContext(r.Context(), logger)))
		})
	}
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogHTTPEnd logs the completion of an HTTP request
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, duration time.Duration, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), "").
		WithHTTPResponse(statusCode, duration.Milliseconds(), statusCode < 400).
		WithClientIP(clientIP)

	sl.logger.WithComponent(ComponentHTTP).Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogCostAdded logs a cost item accepted by the ledger
func (sl *StructuredLogger) LogCostAdded(ctx context.Context, userID, desc, category string, sum float64, date time.Time) {
	fields := NewFields().
		WithCost(userID, desc, category, sum).
		WithOperation(OpAppend)
	fields[FieldDate] = date.Format(time.RFC3339Nano)

	sl.logger.WithComponent(ComponentLedger).InfoContext(ctx, "Cost item added", fields.ToSlice()...)
}

// LogReportBuilt logs a monthly report request
func (sl *StructuredLogger) LogReportBuilt(ctx context.Context, userID string, year, month, groups int) {
	fields := NewFields().
		WithPeriod(year, month).
		WithOperation(OpReport)
	fields[FieldUserID] = userID
	fields["groups"] = groups

	sl.logger.WithComponent(ComponentReport).InfoContext(ctx, "Report built", fields.ToSlice()...)
}

// LogCostEvent writes the audit line for a consumed cost.added event
func (sl *StructuredLogger) LogCostEvent(ctx context.Context, messageID, userID, desc, category string, sum float64, date time.Time) {
	fields := NewFields().
		WithCost(userID, desc, category, sum).
		WithOperation(OpConsume)
	fields[FieldMessageID] = messageID
	fields[FieldDate] = date.Format(time.RFC3339Nano)

	sl.logger.WithComponent(ComponentWorker).InfoContext(ctx, "Cost event audited", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation)

	sl.logger.WithComponent(component).ErrorContext(ctx, msg, allFields.ToSlice()...)
}
