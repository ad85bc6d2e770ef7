package httpapi

import (
	"context"
	"net/http"
	"strings"

	"ssfatpf-backend-go/internal/services"
)

const loginPath = "/auth/login"

type contextKey string

const ctxSession contextKey = "session"

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// WithAuth resolves the bearer token to a session and stores it on the
// request context.
func WithAuth(identity *services.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				denyAccess(w, r, http.StatusUnauthorized, "Authentication failed")
				return
			}
			session, err := identity.Authenticate(r.Context(), token)
			if err != nil {
				status := http.StatusUnauthorized
				if serr, ok := err.(services.ServiceError); ok && serr.Status == http.StatusForbidden {
					status = http.StatusForbidden
				}
				denyAccess(w, r, status, "Authentication failed")
				return
			}
			ctx := context.WithValue(r.Context(), ctxSession, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func CurrentSession(r *http.Request) (services.Session, bool) {
	session, ok := r.Context().Value(ctxSession).(services.Session)
	return session, ok
}

func CurrentUserID(r *http.Request) string {
	if session, ok := CurrentSession(r); ok {
		return session.User.ID
	}
	return ""
}

// RequireWriteAccess admits super_admin, content_admin and content_editor.
func RequireWriteAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := CurrentSession(r)
		if !ok {
			denyAccess(w, r, http.StatusUnauthorized, "Authentication failed")
			return
		}
		if !session.HasWriteAccess {
			denyAccess(w, r, http.StatusForbidden, "Not allowed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := CurrentSession(r)
			if !ok || session.Profile.Role != role {
				denyAccess(w, r, http.StatusForbidden, "Not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// denyAccess redirects browser navigations to the login page and answers API
// calls with JSON that names the same target.
func denyAccess(w http.ResponseWriter, r *http.Request, status int, message string) {
	if wantsHTML(r) {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}
	WriteJSON(w, status, ErrorResponse{Message: message, Redirect: loginPath})
}

func wantsHTML(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html")
}
