package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"ssfatpf-backend-go/internal/models"
	"ssfatpf-backend-go/internal/store"
)

const eventSubmitFallback = "An error occurred while submitting the event"

type EventInput struct {
	Title         string `json:"title" validate:"required"`
	Description   string `json:"description"`
	EventDate     string `json:"event_date" validate:"required"`
	Location      string `json:"location"`
	EventType     string `json:"event_type" validate:"required,max=64"`
	EventCategory string `json:"event_category"`
	Organizer     string `json:"organizer"`
	Attendees     int    `json:"attendees" validate:"gte=0"`
	PeopleReached int    `json:"people_reached" validate:"gte=0"`
	Outcomes      string `json:"outcomes"`
}

// EventSnapshot is the last fetched listing and aggregate.
type EventSnapshot struct {
	Events []models.Event    `json:"events"`
	Stats  models.EventStats `json:"stats"`
}

// EventTracker keeps the latest events and get_event_stats row and refreshes
// both after every successful write.
type EventTracker struct {
	store store.Events

	mu          sync.RWMutex
	snapshot    EventSnapshot
	started     uint64
	applied     uint64
	subscribers map[int]func(EventSnapshot)
	nextSub     int
}

func NewEventTracker(events store.Events) *EventTracker {
	return &EventTracker{
		store:       events,
		snapshot:    EventSnapshot{Events: []models.Event{}},
		subscribers: map[int]func(EventSnapshot){},
	}
}

// Refresh refetches events ordered by date and the aggregate stats. A refresh
// that started before the currently applied one is discarded and the newer
// snapshot is returned instead.
func (t *EventTracker) Refresh(ctx context.Context) (EventSnapshot, error) {
	t.mu.Lock()
	t.started++
	seq := t.started
	t.mu.Unlock()

	events, err := t.store.ListEvents(ctx, store.EventFilter{})
	if err != nil {
		return EventSnapshot{}, WrapError(err, "list events")
	}
	stats, err := t.store.EventStats(ctx)
	if err != nil {
		return EventSnapshot{}, WrapError(err, "event stats")
	}
	snap := EventSnapshot{Events: events, Stats: stats}
	t.mu.Lock()
	if seq < t.applied {
		t.mu.Unlock()
		return t.Snapshot(), nil
	}
	t.applied = seq
	t.snapshot = snap
	subs := make([]func(EventSnapshot), 0, len(t.subscribers))
	for _, fn := range t.subscribers {
		subs = append(subs, fn)
	}
	t.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
	return snap, nil
}

func (t *EventTracker) Snapshot() EventSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap := t.snapshot
	snap.Events = append([]models.Event(nil), t.snapshot.Events...)
	return snap
}

// Subscribe registers fn for every refresh and returns its cancel func.
func (t *EventTracker) Subscribe(fn func(EventSnapshot)) func() {
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subscribers[id] = fn
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.subscribers, id)
		t.mu.Unlock()
	}
}

// List filters events without touching the snapshot.
func (t *EventTracker) List(ctx context.Context, filter store.EventFilter) ([]models.Event, error) {
	if filter.When != "" && filter.When != store.WhenUpcoming && filter.When != store.WhenPast {
		return nil, ErrBadRequest("when must be upcoming or past")
	}
	if filter.Today.IsZero() {
		filter.Today = time.Now().UTC()
	}
	return t.store.ListEvents(ctx, filter)
}

// SubmitEvent validates, inserts and refreshes. Validation failures never
// reach the store.
func (t *EventTracker) SubmitEvent(ctx context.Context, input EventInput, createdBy *string) SubmitResult[models.Event] {
	event, err := input.toEvent()
	if err != nil {
		return failed[models.Event](err, eventSubmitFallback)
	}
	event.CreatedBy = createdBy
	if err := t.store.InsertEvent(ctx, &event); err != nil {
		log.Error().Err(err).Str("title", event.Title).Msg("insert event failed")
		return failed[models.Event](err, eventSubmitFallback)
	}
	if _, err := t.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("event refresh after submit failed")
	}
	return SubmitResult[models.Event]{Success: true, Data: &event}
}

func (t *EventTracker) Get(ctx context.Context, id string) (models.Event, error) {
	event, err := t.store.GetEvent(ctx, id)
	if err != nil {
		return models.Event{}, notFoundOr(err, "Event not found")
	}
	return event, nil
}

func (t *EventTracker) Update(ctx context.Context, id string, input EventInput) (models.Event, error) {
	event, err := input.toEvent()
	if err != nil {
		return models.Event{}, err
	}
	event.ID = id
	if err := t.store.UpdateEvent(ctx, &event); err != nil {
		return models.Event{}, notFoundOr(err, "Event not found")
	}
	t.refreshQuietly(ctx)
	return event, nil
}

func (t *EventTracker) Delete(ctx context.Context, id string) error {
	if err := t.store.DeleteEvent(ctx, id); err != nil {
		return notFoundOr(err, "Event not found")
	}
	t.refreshQuietly(ctx)
	return nil
}

func (t *EventTracker) refreshQuietly(ctx context.Context) {
	if _, err := t.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("event refresh failed")
	}
}

func (in EventInput) toEvent() (models.Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.EventDate = strings.TrimSpace(in.EventDate)
	in.EventType = strings.TrimSpace(in.EventType)
	if err := validate.Struct(in); err != nil {
		return models.Event{}, validationError(err)
	}
	date, err := ParseDate(in.EventDate)
	if err != nil {
		return models.Event{}, ErrBadRequest("event_date must be a date (YYYY-MM-DD)")
	}
	return models.Event{
		Title:         in.Title,
		Description:   optional(in.Description),
		EventDate:     date,
		Location:      optional(in.Location),
		EventType:     in.EventType,
		EventCategory: optional(in.EventCategory),
		Organizer:     optional(in.Organizer),
		Attendees:     in.Attendees,
		PeopleReached: in.PeopleReached,
		Outcomes:      optional(in.Outcomes),
	}, nil
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the UTC calendar day.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound(msg)
	}
	return err
}
