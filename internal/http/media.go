package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ssfatpf-backend-go/internal/services"
)

const (
	maxUploadBody   = 512 << 20
	multipartMemory = 32 << 20
	maxUploadFiles  = 20
)

func (s *Server) UploadEventMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "Upload is too large")
			return
		}
		WriteError(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	input, err := eventInputFromForm(r)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) > maxUploadFiles {
		WriteError(w, http.StatusBadRequest, "Too many files in one upload")
		return
	}
	files := make([]services.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, services.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	result, err := s.Media.CreateEventWithMedia(r.Context(), input, files, CurrentUserID(r))
	if err != nil {
		writeServiceError(w, r, err, "Upload failed")
		return
	}
	WriteJSON(w, http.StatusCreated, result)
}

func eventInputFromForm(r *http.Request) (services.EventInput, error) {
	form := func(key string) string {
		return strings.TrimSpace(r.FormValue(key))
	}
	input := services.EventInput{
		Title:         form("title"),
		Description:   form("description"),
		EventDate:     form("event_date"),
		Location:      form("location"),
		EventType:     form("event_type"),
		EventCategory: form("event_category"),
		Organizer:     form("organizer"),
		Outcomes:      form("outcomes"),
	}
	var err error
	if input.Attendees, err = formInt(form("attendees")); err != nil {
		return input, services.ErrBadRequest("attendees must be a whole number")
	}
	if input.PeopleReached, err = formInt(form("people_reached")); err != nil {
		return input, services.ErrBadRequest("people_reached must be a whole number")
	}
	return input, nil
}

func formInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func (s *Server) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	if err := s.Media.Delete(r.Context(), chi.URLParam(r, "mediaId")); err != nil {
		writeServiceError(w, r, err, "Could not delete the media")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
