package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"ssfatpf-backend-go/internal/models"
	"ssfatpf-backend-go/internal/store"
)

// failingStore counts writes and can be told to fail them.
type failingStore struct {
	*store.Memory
	writes  int
	failErr error
}

func (f *failingStore) InsertDonation(ctx context.Context, d *models.Donation) error {
	f.writes++
	if f.failErr != nil {
		return f.failErr
	}
	return f.Memory.InsertDonation(ctx, d)
}

func (f *failingStore) InsertEvent(ctx context.Context, e *models.Event) error {
	f.writes++
	if f.failErr != nil {
		return f.failErr
	}
	return f.Memory.InsertEvent(ctx, e)
}

func TestSubmitDonationIncrementsStats(t *testing.T) {
	ctx := context.Background()
	tracker := NewDonationTracker(store.NewMemory())

	notified := 0
	cancel := tracker.Subscribe(func(models.DonationStats) { notified++ })
	defer cancel()

	first := tracker.SubmitDonation(ctx, DonationInput{Amount: 100, DonorName: "Naledi", DonorEmail: "naledi@example.org", PaymentMethod: "card"})
	if !first.Success || first.Data == nil || first.Data.ID == 0 {
		t.Fatalf("first donation = %+v", first)
	}
	before := tracker.Stats()

	second := tracker.SubmitDonation(ctx, DonationInput{Amount: 250, DonorName: "Sipho", DonorEmail: "sipho@example.org", PaymentMethod: "eft"})
	if !second.Success {
		t.Fatalf("second donation = %+v", second)
	}
	after := tracker.Stats()
	if after.DonationCount != before.DonationCount+1 || after.TotalDonations != before.TotalDonations+250 {
		t.Fatalf("stats before %+v after %+v", before, after)
	}
	if notified != 2 {
		t.Fatalf("notified %d times, want 2", notified)
	}
}

func TestSubmitDonationRejectsBeforeStore(t *testing.T) {
	tests := []struct {
		name  string
		input DonationInput
	}{
		{"zero amount", DonationInput{Amount: 0, DonorName: "A", DonorEmail: "a@x.org", PaymentMethod: "card"}},
		{"negative amount", DonationInput{Amount: -5, DonorName: "A", DonorEmail: "a@x.org", PaymentMethod: "card"}},
		{"missing name", DonationInput{Amount: 50, DonorName: "  ", DonorEmail: "a@x.org", PaymentMethod: "card"}},
		{"bad email", DonationInput{Amount: 50, DonorName: "A", DonorEmail: "nope", PaymentMethod: "card"}},
		{"missing method", DonationInput{Amount: 50, DonorName: "A", DonorEmail: "a@x.org"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &failingStore{Memory: store.NewMemory()}
			res := NewDonationTracker(fs).SubmitDonation(context.Background(), tt.input)
			if res.Success || res.Error == "" {
				t.Fatalf("expected failure, got %+v", res)
			}
			if fs.writes != 0 {
				t.Fatal("store must not be called for invalid input")
			}
		})
	}
}

func TestSubmitDonationFallbackMessage(t *testing.T) {
	fs := &failingStore{Memory: store.NewMemory(), failErr: errors.New("connection reset")}
	res := NewDonationTracker(fs).SubmitDonation(context.Background(), DonationInput{Amount: 50, DonorName: "A", DonorEmail: "a@x.org", PaymentMethod: "card"})
	if res.Success || res.Error != donationSubmitFallback {
		t.Fatalf("result = %+v", res)
	}
}

func TestSubmitEventRefreshesStats(t *testing.T) {
	ctx := context.Background()
	tracker := NewEventTracker(store.NewMemory())

	var seen EventSnapshot
	cancel := tracker.Subscribe(func(s EventSnapshot) { seen = s })
	defer cancel()

	res := tracker.SubmitEvent(ctx, EventInput{
		Title:         "Teen health workshop",
		EventDate:     "2024-08-14",
		EventType:     "workshop",
		Location:      "Mamelodi",
		Attendees:     35,
		PeopleReached: 140,
	}, nil)
	if !res.Success || res.Data == nil {
		t.Fatalf("submit = %+v", res)
	}
	snap := tracker.Snapshot()
	if len(snap.Events) != 1 || snap.Stats.TotalEvents != 1 || snap.Stats.TotalPeopleReached != 140 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if seen.Stats.TotalAttendees != 35 {
		t.Fatalf("subscriber saw %+v", seen.Stats)
	}
}

func TestSubmitEventValidation(t *testing.T) {
	tests := []struct {
		name  string
		input EventInput
	}{
		{"missing title", EventInput{EventDate: "2024-01-01", EventType: "workshop"}},
		{"missing date", EventInput{Title: "X", EventType: "workshop"}},
		{"bad date", EventInput{Title: "X", EventDate: "14/08/2024", EventType: "workshop"}},
		{"missing type", EventInput{Title: "X", EventDate: "2024-01-01", EventType: "   "}},
		{"overlong type", EventInput{Title: "X", EventDate: "2024-01-01", EventType: strings.Repeat("x", 65)}},
		{"negative attendees", EventInput{Title: "X", EventDate: "2024-01-01", EventType: "workshop", Attendees: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &failingStore{Memory: store.NewMemory()}
			res := NewEventTracker(fs).SubmitEvent(context.Background(), tt.input, nil)
			if res.Success || res.Error == "" {
				t.Fatalf("expected failure, got %+v", res)
			}
			if fs.writes != 0 {
				t.Fatal("store must not be called for invalid input")
			}
		})
	}
}

func TestSubmitEventStoreFailure(t *testing.T) {
	fs := &failingStore{Memory: store.NewMemory(), failErr: errors.New("timeout")}
	res := NewEventTracker(fs).SubmitEvent(context.Background(), EventInput{Title: "X", EventDate: "2024-01-01", EventType: "meeting"}, nil)
	if res.Success || res.Error != eventSubmitFallback {
		t.Fatalf("result = %+v", res)
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-03-05T22:30:00+02:00")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Format("2006-01-02") != "2024-03-05" {
		t.Fatalf("got %v", got)
	}
}

func TestSubmitDonationRejectsFractionalCents(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{Memory: store.NewMemory()}
	tracker := NewDonationTracker(fs)

	for _, amount := range []float64{0.004, 10.005} {
		res := tracker.SubmitDonation(ctx, DonationInput{Amount: amount, DonorName: "Lebo", DonorEmail: "lebo@example.org", PaymentMethod: "card"})
		if res.Success || res.Error == "" {
			t.Fatalf("amount %v accepted: %+v", amount, res)
		}
	}
	if fs.writes != 0 {
		t.Fatalf("store saw %d writes", fs.writes)
	}

	ok := tracker.SubmitDonation(ctx, DonationInput{Amount: 19.99, DonorName: "Lebo", DonorEmail: "lebo@example.org", PaymentMethod: "card"})
	if !ok.Success || ok.Data.Amount != 19.99 {
		t.Fatalf("19.99 donation = %+v", ok)
	}
	if got := tracker.Stats().TotalDonations; got != 19.99 {
		t.Fatalf("total = %v, want 19.99", got)
	}
}

func TestSubmitEventAcceptsAdminEventTypes(t *testing.T) {
	ctx := context.Background()
	tracker := NewEventTracker(store.NewMemory())
	for _, kind := range []string{"outreach", "counseling", "partnership", "workshop", "school_visit"} {
		res := tracker.SubmitEvent(ctx, EventInput{Title: "Clinic day", EventDate: "2024-05-01", EventType: kind}, nil)
		if !res.Success || res.Data == nil || res.Data.EventType != kind {
			t.Fatalf("event_type %q: %+v", kind, res)
		}
	}
	if got := tracker.Snapshot().Stats.TotalEvents; got != 5 {
		t.Fatalf("total events = %d, want 5", got)
	}
	if res := tracker.SubmitEvent(ctx, EventInput{Title: "Clinic day", EventDate: "2024-05-01"}, nil); res.Success {
		t.Fatal("missing event_type accepted")
	}
}

// stallingStats holds the first EventStats answer until released, after it
// has already been computed.
type stallingStats struct {
	*store.Memory
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *stallingStats) EventStats(ctx context.Context) (models.EventStats, error) {
	stats, err := s.Memory.EventStats(ctx)
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.entered)
		<-s.release
	}
	return stats, err
}

func TestOverlappingRefreshKeepsNewestStats(t *testing.T) {
	ctx := context.Background()
	backend := &stallingStats{Memory: store.NewMemory(), entered: make(chan struct{}), release: make(chan struct{})}
	tracker := NewEventTracker(backend)

	done := make(chan SubmitResult[models.Event], 1)
	go func() {
		done <- tracker.SubmitEvent(ctx, EventInput{Title: "First", EventDate: "2024-05-01", EventType: "outreach"}, nil)
	}()
	<-backend.entered

	second := tracker.SubmitEvent(ctx, EventInput{Title: "Second", EventDate: "2024-05-02", EventType: "counseling"}, nil)
	close(backend.release)
	first := <-done
	if !first.Success || !second.Success {
		t.Fatalf("submits = %+v, %+v", first, second)
	}

	snap := tracker.Snapshot()
	if snap.Stats.TotalEvents != 2 || len(snap.Events) != 2 {
		t.Fatalf("snapshot stats %+v with %d events, want 2", snap.Stats, len(snap.Events))
	}
}
