package portal

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/puresec-ng/banyan-portal/internal/session"
	"github.com/puresec-ng/banyan-portal/internal/upstream"
)

type contextKey int

const sessionKey contextKey = iota

// sessionFrom pulls the authenticated session out of the request context.
func sessionFrom(r *http.Request) *session.Session {
	s, _ := r.Context().Value(sessionKey).(*session.Session)
	return s
}

func credsFor(s *session.Session) *upstream.Credentials {
	return &upstream.Credentials{Token: s.Token, UserType: s.UserType}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// authenticate resolves the session cookie. Inactivity and expiry both force
// a re-login; the response carries a reason so the login page can say why.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "Please log in to continue.", nil)
			return
		}
		sess, err := s.sessions.Resolve(r.Context(), cookie.Value)
		if err != nil {
			http.SetCookie(w, s.sessions.ClearCookie())
			switch {
			case errors.Is(err, session.ErrInactive):
				s.respondError(w, http.StatusUnauthorized, "You were logged out due to inactivity.",
					map[string]string{"reason": "inactivity"})
			case errors.Is(err, session.ErrExpired):
				s.respondError(w, http.StatusUnauthorized, "Your session has expired. Please log in again.",
					map[string]string{"reason": "expired"})
			default:
				s.respondError(w, http.StatusUnauthorized, "Please log in to continue.", nil)
			}
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
