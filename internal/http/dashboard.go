package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"ssfatpf-backend-go/internal/services"
)

func welcomeName(session services.Session) string {
	if session.Profile.FullName != nil && strings.TrimSpace(*session.Profile.FullName) != "" {
		return strings.TrimSpace(*session.Profile.FullName)
	}
	return session.User.Email
}

func (s *Server) DashboardOverview(w http.ResponseWriter, r *http.Request) {
	session, _ := CurrentSession(r)
	WriteJSON(w, http.StatusOK, s.Dashboard.Overview(welcomeName(session)))
}

// DashboardSocket streams overview frames. Browsers cannot set headers on a
// websocket handshake, so the access token travels in the query string.
func (s *Server) DashboardSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	session, err := s.Identity.Authenticate(r.Context(), token)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	if !session.HasWriteAccess {
		WriteError(w, http.StatusForbidden, "Not allowed")
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	if err := s.Dashboard.Add(conn); err != nil {
		_ = conn.Close()
		return
	}
	log.Debug().Str("user", session.User.ID).Msg("dashboard client connected")
	defer func() {
		s.Dashboard.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// checkOrigin allows same-host requests and the configured CORS origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.Config.CorsOrigins) == 0 {
		return true
	}
	for _, allowed := range s.Config.CorsOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return strings.HasSuffix(origin, "://"+r.Host)
}
