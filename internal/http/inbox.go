package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.Forms.List(r.Context(), chi.URLParam(r, "kind"))
	if err != nil {
		writeServiceError(w, r, err, "Could not load applications")
		return
	}
	WriteJSON(w, http.StatusOK, items(apps))
}

func (s *Server) SetApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	kind := chi.URLParam(r, "kind")
	id := chi.URLParam(r, "id")
	if err := s.Forms.SetStatus(r.Context(), kind, id, strings.TrimSpace(req.Status)); err != nil {
		writeServiceError(w, r, err, "Could not update the application")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": strings.TrimSpace(req.Status)})
}

func (s *Server) ListContacts(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.Forms.Contacts(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Could not load messages")
		return
	}
	WriteJSON(w, http.StatusOK, items(msgs))
}

func (s *Server) SetContactStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.Forms.SetContactStatus(r.Context(), id, strings.TrimSpace(req.Status)); err != nil {
		writeServiceError(w, r, err, "Could not update the message")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": strings.TrimSpace(req.Status)})
}
