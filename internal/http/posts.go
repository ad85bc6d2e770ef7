package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ssfatpf-backend-go/internal/services"
)

type StatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) PublicPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.Blog.Published(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Could not load posts")
		return
	}
	WriteJSON(w, http.StatusOK, items(posts))
}

func (s *Server) PublicPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.Blog.PublishedBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err, "Could not load the post")
		return
	}
	WriteJSON(w, http.StatusOK, post)
}

func (s *Server) AdminListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.Blog.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Could not load posts")
		return
	}
	WriteJSON(w, http.StatusOK, items(posts))
}

func (s *Server) AdminGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.Blog.Get(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	WriteJSON(w, http.StatusOK, post)
}

func (s *Server) AdminCreatePost(w http.ResponseWriter, r *http.Request) {
	var input services.PostInput
	if err := decodeJSON(r, &input); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	post, err := s.Blog.Create(r.Context(), input, CurrentUserID(r))
	if err != nil {
		writeServiceError(w, r, err, "Could not create the post")
		return
	}
	WriteJSON(w, http.StatusCreated, post)
}

func (s *Server) AdminUpdatePost(w http.ResponseWriter, r *http.Request) {
	var input services.PostInput
	if err := decodeJSON(r, &input); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	post, err := s.Blog.Update(r.Context(), chi.URLParam(r, "postId"), input)
	if err != nil {
		writeServiceError(w, r, err, "Could not update the post")
		return
	}
	WriteJSON(w, http.StatusOK, post)
}

func (s *Server) AdminSetPostStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	post, err := s.Blog.SetStatus(r.Context(), chi.URLParam(r, "postId"), strings.TrimSpace(req.Status))
	if err != nil {
		writeServiceError(w, r, err, "Could not change the post status")
		return
	}
	WriteJSON(w, http.StatusOK, post)
}

func (s *Server) AdminDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.Blog.Delete(r.Context(), chi.URLParam(r, "postId")); err != nil {
		writeServiceError(w, r, err, "Could not delete the post")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) PostTemplate(w http.ResponseWriter, r *http.Request) {
	eventID := strings.TrimSpace(r.URL.Query().Get("eventId"))
	if eventID == "" {
		WriteError(w, http.StatusBadRequest, "eventId is required")
		return
	}
	tpl, err := s.Blog.Template(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	WriteJSON(w, http.StatusOK, tpl)
}
