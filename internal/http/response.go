package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"ssfatpf-backend-go/internal/content"
	"ssfatpf-backend-go/internal/forms"
	"ssfatpf-backend-go/internal/services"
	"ssfatpf-backend-go/internal/store"
)

const maxJSONBody = 1 << 20

type ErrorResponse struct {
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message})
}

// writeServiceError maps domain errors to a status and a client-safe message.
// Anything unrecognised is logged and answered with fallback.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var (
		serr    services.ServiceError
		verr    *forms.ValidationError
		sagaErr *services.SagaError
	)
	switch {
	case errors.As(err, &serr):
		WriteError(w, serr.Status, serr.Message)
	case errors.As(err, &verr):
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{Message: verr.Message, Field: verr.Field})
	case errors.Is(err, forms.ErrUnknownKind):
		WriteError(w, http.StatusNotFound, "Unknown form")
	case errors.Is(err, content.ErrUnknownSection):
		WriteError(w, http.StatusNotFound, "Unknown section")
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, http.StatusNotFound, "Not found")
	case errors.As(err, &sagaErr):
		log.Error().Err(err).Str("path", r.URL.Path).Msg("upload failed")
		msg := fmt.Sprintf("Upload failed at step %q", sagaErr.Step)
		if sagaErr.File != "" {
			msg += " for " + sagaErr.File
		}
		WriteError(w, http.StatusBadGateway, msg)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		WriteError(w, http.StatusInternalServerError, services.BackendMessage(err, fallback))
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		return services.ErrBadRequest("Invalid payload")
	}
	return nil
}

type itemsResponse[T any] struct {
	Items []T `json:"items"`
}

func items[T any](list []T) itemsResponse[T] {
	if list == nil {
		list = []T{}
	}
	return itemsResponse[T]{Items: list}
}
