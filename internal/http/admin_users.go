package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type RoleRequest struct {
	Role string `json:"role"`
}

func (s *Server) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.Identity.Profiles(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Could not load profiles")
		return
	}
	WriteJSON(w, http.StatusOK, items(profiles))
}

// SetProfileRole is restricted to super admins by the router; the service
// repeats the check and refuses self-demotion.
func (s *Server) SetProfileRole(w http.ResponseWriter, r *http.Request) {
	var req RoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	actor, _ := CurrentSession(r)
	session, err := s.Identity.SetRole(r.Context(), actor, chi.URLParam(r, "userId"), req.Role)
	if err != nil {
		writeServiceError(w, r, err, "Could not change the role")
		return
	}
	WriteJSON(w, http.StatusOK, session.Profile)
}
