package adapthttp

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"healthmonitor/internal/app"
	"healthmonitor/internal/domain"
)

type contextKey string

const userContextKey contextKey = "user"

func withUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// userFromContext returns the authenticated user. authMiddleware guarantees
// it is set on protected routes.
func userFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userContextKey).(*domain.User)
	return u
}

// authMiddleware accepts, in order: a trusted forward-auth header, a bearer
// access token, then the session cookie.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth if disabled (local development and tests)
		if s.disableAuth {
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), s.localUser)))
			return
		}

		if s.trustForwardAuth {
			if remoteUser := r.Header.Get("Remote-User"); remoteUser != "" {
				user, err := s.authSvc.ValidateForwardAuth(r.Context(), remoteUser, r.Header.Get("Remote-Name"))
				if err == nil && user != nil {
					next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
					return
				}
				s.log.Warn().Err(err).Str("remote_user", remoteUser).Msg("forward auth rejected")
			}
		}

		if raw, ok := bearerToken(r); ok {
			user, err := s.authSvc.ValidateBearer(r.Context(), raw)
			if errors.Is(err, app.ErrInvalidToken) {
				writeError(w, http.StatusUnauthorized, errors.New("unauthorized"))
				return
			}
			if err != nil {
				s.writeServiceError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
			return
		}

		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}

		user, err := s.authSvc.ValidateSession(r.Context(), cookie.Value, r.UserAgent())
		if errors.Is(err, app.ErrSessionNotFound) || errors.Is(err, app.ErrSessionExpired) || errors.Is(err, app.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrade take over the connection.
func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rec.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	rec.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (rec *statusRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// loggingMiddleware logs one line per request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		ev := s.log.Info()
		if rec.status >= http.StatusInternalServerError {
			ev = s.log.Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}
