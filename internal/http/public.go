package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"ssfatpf-backend-go/internal/forms"
	"ssfatpf-backend-go/internal/models"
)

type VisitRequest struct {
	Path     *string `json:"path"`
	Referrer *string `json:"referrer"`
}

type VisitCountResponse struct {
	Total int64 `json:"total"`
}

type SubmissionResponse struct {
	ID           string             `json:"id"`
	Notification forms.Notification `json:"notification"`
}

func (s *Server) SiteContent(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.Catalog)
}

func (s *Server) SiteContentSection(w http.ResponseWriter, r *http.Request) {
	section, err := s.Catalog.Section(chi.URLParam(r, "section"))
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	WriteJSON(w, http.StatusOK, section)
}

// PublicSearch matches the fixed site catalog. A blank term lists every entry.
func (s *Server) PublicSearch(w http.ResponseWriter, r *http.Request) {
	results := s.Catalog.Search(r.URL.Query().Get("q"))
	WriteJSON(w, http.StatusOK, items(results))
}

func (s *Server) DonationImpact(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, items(s.Catalog.DonationAmounts))
}

func (s *Server) FormDefinition(w http.ResponseWriter, r *http.Request) {
	def, err := s.Forms.Get(chi.URLParam(r, "kind"))
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	WriteJSON(w, http.StatusOK, def)
}

func (s *Server) SubmitForm(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if _, err := s.Forms.Get(kind); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	values, err := decodeFormValues(r)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	app, note, err := s.Forms.Submit(r.Context(), kind, values)
	if err != nil {
		writeServiceError(w, r, err, "An error occurred while submitting your application")
		return
	}
	WriteJSON(w, http.StatusCreated, SubmissionResponse{ID: app.ID, Notification: note})
}

// decodeFormValues accepts a flat JSON object whose values are strings, bools
// or numbers and flattens it to strings.
func decodeFormValues(r *http.Request) (map[string]string, error) {
	raw := map[string]interface{}{}
	if err := decodeJSON(r, &raw); err != nil {
		return nil, err
	}
	values := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
		case string:
			values[key] = v
		case bool:
			if v {
				values[key] = "true"
			} else {
				values[key] = "false"
			}
		case float64:
			encoded, _ := json.Marshal(v)
			values[key] = string(encoded)
		default:
			return nil, &forms.ValidationError{Field: key, Message: key + " must be a single value"}
		}
	}
	return values, nil
}

func (s *Server) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req forms.ContactInput
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	msg, note, err := s.Forms.SubmitContact(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "An error occurred while sending your message")
		return
	}
	WriteJSON(w, http.StatusCreated, SubmissionResponse{ID: msg.ID, Notification: note})
}

func (s *Server) TrackVisit(w http.ResponseWriter, r *http.Request) {
	var req VisitRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil && err != io.EOF {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	visit := models.SiteVisit{
		IPAddress: nullIfEmpty(clientIP(r)),
		UserAgent: nullIfEmpty(trimString(r.Header.Get("User-Agent"), 512)),
		Path:      nullIfEmpty(trimString(ptrToString(req.Path), 255)),
		Referrer:  nullIfEmpty(trimString(ptrToString(req.Referrer), 512)),
	}
	if err := s.Visits.InsertVisit(r.Context(), visit); err != nil {
		log.Warn().Err(err).Msg("record visit failed")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) VisitCount(w http.ResponseWriter, r *http.Request) {
	total, err := s.Visits.CountVisits(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, VisitCountResponse{Total: total})
}

// trimString caps value at maxLen bytes without splitting a rune.
func trimString(value string, maxLen int) string {
	trimmed := strings.ToValidUTF8(strings.TrimSpace(value), "")
	if len(trimmed) <= maxLen {
		return trimmed
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(trimmed[cut]) {
		cut--
	}
	return trimmed[:cut]
}

func nullIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func ptrToString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
