package adapthttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tracked/internal/app"
	"tracked/internal/domain"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type contextKey string

const (
	userContextKey   contextKey = "user"
	loggerContextKey contextKey = "logger"
)

func userFromContext(r *http.Request) *domain.User {
	user, _ := r.Context().Value(userContextKey).(*domain.User)
	return user
}

// requestLogger returns the request-scoped logger set by loggingMiddleware.
func requestLogger(r *http.Request, fallback log.FieldLogger) log.FieldLogger {
	if l, ok := r.Context().Value(loggerContextKey).(log.FieldLogger); ok {
		return l
	}
	if fallback == nil {
		return log.StandardLogger()
	}
	return fallback
}

// authMiddleware validates session tokens and forward auth headers.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.disableAuth {
			ctx := context.WithValue(r.Context(), userContextKey, s.fixedUser)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		// Forward auth from a trusted reverse proxy.
		if remoteUser := r.Header.Get("Remote-User"); s.trustForwardAuth && remoteUser != "" {
			user, err := s.authSvc.ValidateForwardAuth(r.Context(), remoteUser)
			if err == nil && user != nil {
				ctx := context.WithValue(r.Context(), userContextKey, user)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		cookie, err := r.Cookie("session")
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}

		user, err := s.authSvc.ValidateSession(r.Context(), cookie.Value, r.UserAgent())
		if errors.Is(err, app.ErrSessionNotFound) || errors.Is(err, app.ErrSessionExpired) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware tags each request with an ID and logs it once served.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	base := s.log
	if base == nil {
		base = log.StandardLogger()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		logger := base.WithField("request_id", requestID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		ctx := context.WithValue(r.Context(), loggerContextKey, log.FieldLogger(logger))
		next.ServeHTTP(rec, r.WithContext(ctx))

		entry := logger.WithFields(log.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if rec.status >= http.StatusInternalServerError {
			entry.Warn("request served")
			return
		}
		entry.Info("request served")
	})
}
