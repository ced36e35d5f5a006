// Package httpapi exposes the engine over HTTP: project CRUD backed by
// internal/store, plus the validate and solve operations spec.md §6 names.
package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"timetable-engine/pkg/apikey"
	"timetable-engine/pkg/metrics"
	"timetable-engine/pkg/response"
)

// statusWriter wraps http.ResponseWriter to capture the status code for
// logging and metrics middleware, the same wrapper shape the platform this
// engine descends from uses.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs method, path, status and latency for every request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := newStatusWriter(w)
		next.ServeHTTP(wrapped, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// MetricsMiddleware records pkg/metrics.HTTPRequestsTotal/HTTPRequestDuration
// for every request.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := newStatusWriter(w)
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(wrapped.status)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

// BodyLimitMiddleware rejects request bodies over limit bytes, guarding
// against oversized problem payloads.
func BodyLimitMiddleware(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// DefaultBodyLimit is the maximum accepted request body size: problem
// payloads are small JSON documents, never file uploads.
const DefaultBodyLimit = 2 * 1024 * 1024

// CORSMiddleware sets permissive CORS headers for the allowed origins. This
// API has no cookie-based session to protect, so credentials are never sent
// and a wildcard is safe when no explicit origin list is configured.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	wildcard := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimSpace(o)] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAPIKey gates every route it wraps (all of /api/v1, reads included)
// behind the bcrypt digest of
// the configured admin API key, read from an "Authorization: Bearer <key>"
// header.
func RequireAPIKey(digest string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			key, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || key == "" {
				response.Unauthorized(w, "missing API key")
				return
			}
			if err := apikey.Verify(key, digest); err != nil {
				response.Error(w, http.StatusUnauthorized, response.ErrCodeInvalidKey, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
