package httpapi

import (
	"net/http"

	"ssfatpf-backend-go/internal/services"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type TokenResponse struct {
	services.TokenPair
	Session services.Session `json:"session"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	session, pair, err := s.Identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err, "Authentication failed")
		return
	}
	WriteJSON(w, http.StatusOK, TokenResponse{TokenPair: pair, Session: session})
}

func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	session, pair, err := s.Identity.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err, "Authentication failed")
		return
	}
	WriteJSON(w, http.StatusOK, TokenResponse{TokenPair: pair, Session: session})
}

// Logout is stateless; the client discards its tokens.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "redirect": "/"})
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := CurrentSession(r)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	WriteJSON(w, http.StatusOK, session)
}
