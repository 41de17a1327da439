package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobhunter/internal/apierr"
	"github.com/ternarybob/jobhunter/internal/handlers"
)

// withMiddleware wraps the router with the full middleware chain. Applied
// in reverse order (last applied = first executed), so a request is given
// a correlation id, then logged, then CORS'd, then size-capped, then
// authenticated, then run under panic recovery, before reaching the router.
func (s *Server) withMiddleware(handler http.Handler) http.Handler {
	handler = s.recoveryMiddleware(handler)
	handler = s.bearerAuthMiddleware(handler)
	handler = s.bodySizeLimitMiddleware(handler)
	handler = s.corsMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = s.correlationIDMiddleware(handler)
	return handler
}

// correlationIDMiddleware extracts or generates a correlation id used in
// logs and the error envelope's request_id field.
func (s *Server) correlationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get("X-Request-ID")
		if correlationID == "" {
			correlationID = r.Header.Get("X-Correlation-ID")
		}
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		w.Header().Set("X-Correlation-ID", correlationID)
		ctx := context.WithValue(r.Context(), handlers.RequestIDContextKey, correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs HTTP requests and responses.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		durationMs := time.Since(start).Milliseconds()
		correlationID, _ := r.Context().Value(handlers.RequestIDContextKey).(string)

		var logEvent arbor.ILogEvent
		var logMsg string
		switch {
		case rw.statusCode >= 500:
			logMsg = "HTTP request - server error"
			logEvent = s.app.Logger.Error()
		case rw.statusCode >= 400:
			logMsg = "HTTP request - client error"
			logEvent = s.app.Logger.Warn()
		default:
			logMsg = "HTTP request"
			logEvent = s.app.Logger.Trace()
		}

		logEvent.
			Str("correlation_id", correlationID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Int64("duration_ms", durationMs).
			Int("bytes", rw.bytesWritten).
			Str("remote", r.RemoteAddr)

		if r.URL.RawQuery != "" {
			logEvent.Str("query", r.URL.RawQuery)
		}

		logEvent.Msg(logMsg)
	})
}

// corsMiddleware handles CORS headers for browser-based API consumers.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware recovers from panics and returns a 500 error envelope.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				correlationID, _ := r.Context().Value(handlers.RequestIDContextKey).(string)
				s.app.Logger.Error().
					Str("correlation_id", correlationID).
					Str("error", fmt.Sprintf("%v", err)).
					Str("path", r.URL.Path).
					Msg("panic recovered")

				handlers.WriteError(w, correlationID, apierr.Internal(fmt.Errorf("panic: %v", err)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// bodySizeLimitMiddleware caps request bodies at the configured maximum
// (spec §6, default 10 MiB), protecting the external-from-text endpoint in
// particular from unbounded pasted text.
func (s *Server) bodySizeLimitMiddleware(next http.Handler) http.Handler {
	limit := s.app.Config.Server.MaxRequestBodyBytes
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limit > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}

// bearerAuthMiddleware enforces the single shared bearer token every
// mutating and resource-scoped route requires (spec §5/§6). The health
// check is the only route exempt. The caller's user id is read from the
// X-User-ID header and threaded through the request context; this system
// has no identity-provider integration in scope (spec §1's Non-goals), so
// the bearer token gates API access while X-User-ID scopes which user's
// resources a request touches.
func (s *Server) bearerAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID, _ := r.Context().Value(handlers.RequestIDContextKey).(string)

		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || s.app.Config.Auth.BearerToken == "" || token != s.app.Config.Auth.BearerToken {
			handlers.WriteError(w, correlationID, apierr.Unauthorized("missing or invalid bearer token"))
			return
		}

		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			handlers.WriteError(w, correlationID, apierr.Unauthorized("X-User-ID header is required"))
			return
		}

		ctx := context.WithValue(r.Context(), handlers.UserIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// responseWriter wraps http.ResponseWriter to capture status code and bytes
// written for loggingMiddleware.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// Hijack implements http.Hijacker for handlers that need it.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("responseWriter does not implement http.Hijacker")
}
