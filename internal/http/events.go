package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ssfatpf-backend-go/internal/services"
	"ssfatpf-backend-go/internal/store"
)

func eventFilter(r *http.Request) store.EventFilter {
	q := r.URL.Query()
	return store.EventFilter{
		Type:  strings.TrimSpace(q.Get("type")),
		Query: strings.TrimSpace(q.Get("q")),
		When:  strings.ToLower(strings.TrimSpace(q.Get("when"))),
	}
}

// writeSubmitResult answers 201 on success and 400 with the result body
// otherwise, so clients always get {success, data, error}.
func writeSubmitResult[T any](w http.ResponseWriter, result services.SubmitResult[T]) {
	status := http.StatusCreated
	if !result.Success {
		status = http.StatusBadRequest
	}
	WriteJSON(w, status, result)
}

func (s *Server) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.Events.List(r.Context(), eventFilter(r))
	if err != nil {
		writeServiceError(w, r, err, "Could not load events")
		return
	}
	WriteJSON(w, http.StatusOK, items(events))
}

func (s *Server) EventStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Events.Refresh(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Could not load event stats")
		return
	}
	WriteJSON(w, http.StatusOK, snap.Stats)
}

// SubmitEvent is the public event-report form.
func (s *Server) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	var input services.EventInput
	if err := decodeJSON(r, &input); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeSubmitResult(w, s.Events.SubmitEvent(r.Context(), input, nil))
}

func (s *Server) AdminListEvents(w http.ResponseWriter, r *http.Request) {
	s.ListEvents(w, r)
}

func (s *Server) AdminCreateEvent(w http.ResponseWriter, r *http.Request) {
	var input services.EventInput
	if err := decodeJSON(r, &input); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	userID := CurrentUserID(r)
	writeSubmitResult(w, s.Events.SubmitEvent(r.Context(), input, &userID))
}

func (s *Server) AdminGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.Events.Get(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	WriteJSON(w, http.StatusOK, event)
}

func (s *Server) AdminUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var input services.EventInput
	if err := decodeJSON(r, &input); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	event, err := s.Events.Update(r.Context(), chi.URLParam(r, "eventId"), input)
	if err != nil {
		writeServiceError(w, r, err, "Could not update the event")
		return
	}
	WriteJSON(w, http.StatusOK, event)
}

func (s *Server) AdminDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.Events.Delete(r.Context(), chi.URLParam(r, "eventId")); err != nil {
		writeServiceError(w, r, err, "Could not delete the event")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) EventMedia(w http.ResponseWriter, r *http.Request) {
	media, err := s.Media.ListForEvent(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		writeServiceError(w, r, err, "Could not load media")
		return
	}
	WriteJSON(w, http.StatusOK, items(media))
}

func (s *Server) DonationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Donations.Refresh(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Could not load donation stats")
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

func (s *Server) SubmitDonation(w http.ResponseWriter, r *http.Request) {
	var input services.DonationInput
	if err := decodeJSON(r, &input); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeSubmitResult(w, s.Donations.SubmitDonation(r.Context(), input))
}

func (s *Server) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := s.Donations.Campaigns(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Could not load campaigns")
		return
	}
	WriteJSON(w, http.StatusOK, items(campaigns))
}

func (s *Server) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var input services.CampaignInput
	if err := decodeJSON(r, &input); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	campaign, err := s.Donations.CreateCampaign(r.Context(), input, CurrentUserID(r))
	if err != nil {
		writeServiceError(w, r, err, "Could not create the campaign")
		return
	}
	WriteJSON(w, http.StatusCreated, campaign)
}
