package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionCookie identifies the browser whose cart is being edited.
const SessionCookie = "bakery_session"

const sessionMaxAge = 48 * time.Hour

type sessionKey struct{}

// withSession reads the session cookie, issuing a fresh one when it is
// missing or malformed, and stores the id in the request context.
func (s *Server) withSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(SessionCookie); err == nil {
			if parsed, err := uuid.Parse(c.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
		}
		// Refresh on every request so active carts keep their session.
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   int(sessionMaxAge.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   r.TLS != nil,
		})
		next(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
	})
}

func sessionFrom(r *http.Request) string {
	id, _ := r.Context().Value(sessionKey{}).(string)
	return id
}
