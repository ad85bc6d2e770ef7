package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"ssfatpf-backend-go/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func strPtr(s string) *string { return &s }

func TestMemoryEventStatsAndCascade(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	first := &models.Event{Title: "Spring workshop", EventDate: day("2024-03-10"), EventType: "workshop", Attendees: 40, PeopleReached: 120}
	second := &models.Event{Title: "School visit", EventDate: day("2024-05-02"), EventType: "school_visit", Attendees: 25, PeopleReached: 300}
	for _, e := range []*models.Event{first, second} {
		if err := m.InsertEvent(ctx, e); err != nil {
			t.Fatalf("insert event: %v", err)
		}
	}
	if err := m.InsertMedia(ctx, &models.Media{EventID: first.ID, FileName: "a.jpg"}); err != nil {
		t.Fatalf("insert media: %v", err)
	}

	stats, err := m.EventStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalEvents != 2 || stats.TotalAttendees != 65 || stats.TotalPeopleReached != 420 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.LatestEventDate == nil || !stats.LatestEventDate.Equal(day("2024-05-02")) {
		t.Fatalf("latest date = %v", stats.LatestEventDate)
	}

	if err := m.DeleteEvent(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	media, _ := m.ListMedia(ctx, first.ID)
	if len(media) != 0 {
		t.Fatalf("media should cascade, got %d rows", len(media))
	}
	if err := m.DeleteEvent(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestMemoryListEventsFilters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	events := []*models.Event{
		{Title: "Awareness walk", EventDate: day("2024-01-05"), EventType: "awareness", Location: strPtr("Durban")},
		{Title: "Counselor training", EventDate: day("2024-06-20"), EventType: "training"},
		{Title: "Community day", EventDate: day("2024-09-01"), EventType: "community_outreach", Description: strPtr("Outreach in durban north")},
	}
	for _, e := range events {
		if err := m.InsertEvent(ctx, e); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	all, _ := m.ListEvents(ctx, EventFilter{})
	if len(all) != 3 || all[0].Title != "Community day" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	tests := []struct {
		name   string
		filter EventFilter
		want   int
	}{
		{"type", EventFilter{Type: "training"}, 1},
		{"query matches location and description", EventFilter{Query: "DURBAN"}, 2},
		{"upcoming", EventFilter{When: WhenUpcoming, Today: day("2024-06-20")}, 2},
		{"past", EventFilter{When: WhenPast, Today: day("2024-06-20")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ListEvents(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("got %d events, want %d", len(got), tt.want)
			}
		})
	}
}

func TestMemoryDonationsAndCampaigns(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	campaign := &models.Campaign{Title: "Helpline", GoalAmount: 5000, StartDate: day("2024-01-01")}
	if err := m.InsertCampaign(ctx, campaign); err != nil {
		t.Fatalf("insert campaign: %v", err)
	}
	for _, amount := range []float64{100, 250.5} {
		d := &models.Donation{Amount: amount, DonorName: "A", DonorEmail: "a@b.org", PaymentMethod: "card", CampaignID: &campaign.ID}
		if err := m.InsertDonation(ctx, d); err != nil {
			t.Fatalf("insert donation: %v", err)
		}
	}
	stats, _ := m.DonationStats(ctx)
	if stats.DonationCount != 2 || stats.TotalDonations != 350.5 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	campaigns, _ := m.ListCampaigns(ctx)
	if len(campaigns) != 1 || campaigns[0].Raised != 350.5 {
		t.Fatalf("unexpected campaigns %+v", campaigns)
	}
}

func TestMemoryPostSlugUniqueness(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.InsertPost(ctx, &models.BlogPost{Title: "One", Slug: "one", Status: models.PostDraft}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := m.InsertPost(ctx, &models.BlogPost{Title: "One", Slug: "one"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	exists, _ := m.SlugExists(ctx, "one")
	if !exists {
		t.Fatal("slug should exist")
	}
}

func TestMemoryApplicationsRejectUnknownTable(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if _, err := m.InsertApplication(ctx, "users", map[string]string{"email": "x"}); !errors.Is(err, ErrUnknownTable) {
		t.Fatalf("expected unknown table, got %v", err)
	}
	if _, err := m.InsertApplication(ctx, "volunteers", map[string]string{"email; drop": "x"}); err == nil {
		t.Fatal("expected invalid column error")
	}
	app, err := m.InsertApplication(ctx, "volunteers", map[string]string{"full_name": "Lindiwe", "email": "l@x.org"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := m.SetApplicationStatus(ctx, "volunteers", app.ID, models.InboxReviewed); err != nil {
		t.Fatalf("status: %v", err)
	}
	apps, _ := m.ListApplications(ctx, "volunteers")
	if len(apps) != 1 || apps[0].Status != models.InboxReviewed || apps[0].Fields["full_name"] != "Lindiwe" {
		t.Fatalf("unexpected applications %+v", apps)
	}
}

func TestMemoryVisitCount(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, path := range []string{"/", "/events", "/donate"} {
		if err := m.InsertVisit(ctx, models.SiteVisit{Path: strPtr(path)}); err != nil {
			t.Fatalf("insert visit: %v", err)
		}
	}
	count, err := m.CountVisits(ctx)
	if err != nil {
		t.Fatalf("count visits: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 visits, got %d", count)
	}
}

func TestMemoryUpdateEventKeepsCreation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	event := &models.Event{Title: "Clinic day", EventDate: day("2024-05-01"), EventType: "counseling", CreatedBy: strPtr("user-1")}
	if err := m.InsertEvent(ctx, event); err != nil {
		t.Fatalf("insert: %v", err)
	}
	created := event.CreatedAt

	update := &models.Event{ID: event.ID, Title: "Clinic day (rescheduled)", EventDate: day("2024-05-08"), EventType: "counseling"}
	if err := m.UpdateEvent(ctx, update); err != nil {
		t.Fatalf("update: %v", err)
	}
	if update.CreatedBy == nil || *update.CreatedBy != "user-1" || !update.CreatedAt.Equal(created) {
		t.Fatalf("update returned created_by=%v created_at=%v", update.CreatedBy, update.CreatedAt)
	}
	if err := m.UpdateEvent(ctx, &models.Event{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing event: %v", err)
	}
}
