package api

import (
	"context"
	"net/http"
	"time"

	"shareit/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ctxKey int

const requestIDKey ctxKey = iota

const requestIDHeader = "X-Request-ID"

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		ev := s.logger.Info()
		if recorder.status >= http.StatusInternalServerError {
			ev = s.logger.Error()
		}
		ev.Str("request_id", requestIDFrom(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// metricsMiddleware labels by route pattern so ids do not explode cardinality.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = r.Method + " " + pattern
			}
		}
		metrics.IncHTTP(endpoint)
	})
}

// rateLimitMiddleware applies the per-user quota. Requests without a valid
// caller header pass through and are rejected by the handler. Limiter errors
// fail open.
func (s *HTTPServer) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Limiter == nil || s.cfg.RateLimit.Disabled {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := s.callerID(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		allowed, err := s.deps.Limiter.CheckRateLimit(r.Context(), userID, s.cfg.RateLimit.Requests, s.cfg.RateLimit.WindowDuration())
		if err != nil {
			s.logger.Error().Err(err).Int64("user_id", userID).Msg("rate limit check failed")
		} else if !allowed {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
