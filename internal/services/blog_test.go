package services

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"ssfatpf-backend-go/internal/models"
	"ssfatpf-backend-go/internal/store"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello, World!":                  "hello-world",
		"  Café Workshop -- Tshwane 2024 ": "cafe-workshop-tshwane-2024",
		"Ñandú & Über":                   "nandu-uber",
		"---Already-a-slug---":           "already-a-slug",
	}
	for in, want := range tests {
		got := Slugify(in)
		if got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
		if again := Slugify(got); again != got {
			t.Errorf("Slugify not idempotent for %q: %q -> %q", in, got, again)
		}
	}
}

func TestCleanTags(t *testing.T) {
	got := CleanTags(" youth, health ,, youth , schools")
	want := []string{"youth", "health", "schools"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CleanTags = %v, want %v", got, want)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		ok       bool
	}{
		{models.PostDraft, models.PostPublished, true},
		{models.PostPublished, models.PostArchived, true},
		{models.PostArchived, models.PostPublished, true},
		{models.PostDraft, models.PostArchived, false},
		{models.PostPublished, models.PostDraft, false},
		{models.PostArchived, models.PostDraft, false},
		{models.PostDraft, "deleted", false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.ok {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}

func TestBlogCreateResolvesSlugAndPublishedAt(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	blog := NewBlogService(mem, mem)

	draft, err := blog.Create(ctx, PostInput{Title: "Our Impact", Content: "Body", Tags: "a, b"}, "author-1")
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if draft.Slug != "our-impact" || draft.PublishedAt != nil || draft.Status != models.PostDraft {
		t.Fatalf("draft = %+v", draft)
	}

	published, err := blog.Create(ctx, PostInput{Title: "Our impact!", Content: "Body", Status: models.PostPublished}, "author-1")
	if err != nil {
		t.Fatalf("create published: %v", err)
	}
	if published.Slug != "our-impact-2" || published.PublishedAt == nil {
		t.Fatalf("published = %+v", published)
	}

	if _, err := blog.Create(ctx, PostInput{Title: "X", Content: "Y", Status: models.PostArchived}, "a"); err == nil {
		t.Fatal("creating an archived post should fail")
	}
}

func TestBlogStatusTransitionsKeepPublishedAt(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	blog := NewBlogService(mem, mem)
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	blog.now = func() time.Time { return clock }

	post, err := blog.Create(ctx, PostInput{Title: "Recap", Content: "Body"}, "author")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := blog.SetStatus(ctx, post.ID, models.PostArchived); err == nil {
		t.Fatal("draft -> archived should be rejected")
	}

	post, err = blog.SetStatus(ctx, post.ID, models.PostPublished)
	if err != nil || post.PublishedAt == nil || !post.PublishedAt.Equal(clock) {
		t.Fatalf("publish = %+v, %v", post, err)
	}
	first := *post.PublishedAt

	clock = clock.Add(48 * time.Hour)
	if _, err := blog.SetStatus(ctx, post.ID, models.PostArchived); err != nil {
		t.Fatalf("archive: %v", err)
	}
	post, err = blog.SetStatus(ctx, post.ID, models.PostPublished)
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	if !post.PublishedAt.Equal(first) {
		t.Fatalf("republish changed published_at to %v", post.PublishedAt)
	}
}

func TestBlogPublicReadHidesDrafts(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	blog := NewBlogService(mem, mem)

	if _, err := blog.Create(ctx, PostInput{Title: "Hidden", Content: "draft"}, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := blog.PublishedBySlug(ctx, "hidden"); err == nil {
		t.Fatal("draft should not be readable publicly")
	}

	if _, err := blog.Create(ctx, PostInput{Title: "Shown", Content: "# Title\n\n<script>alert(1)</script>\n\n**bold**", Status: models.PostPublished}, "a"); err != nil {
		t.Fatal(err)
	}
	post, err := blog.PublishedBySlug(ctx, "shown")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(post.HTML, "<strong>bold</strong>") || strings.Contains(post.HTML, "<script>") {
		t.Fatalf("html = %q", post.HTML)
	}
	list, _ := blog.Published(ctx)
	if len(list) != 1 {
		t.Fatalf("published list = %d", len(list))
	}
}

func TestBlogTemplateFromEvent(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	location := "Soshanguve"
	event := &models.Event{Title: "Youth Dialogue", EventDate: time.Date(2024, 7, 20, 0, 0, 0, 0, time.UTC), EventType: "community_outreach", Location: &location, Attendees: 60, PeopleReached: 200}
	if err := mem.InsertEvent(ctx, event); err != nil {
		t.Fatal(err)
	}
	blog := NewBlogService(mem, mem)
	tpl, err := blog.Template(ctx, event.ID)
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	if tpl.Title != "Reflecting on Youth Dialogue" || tpl.Category != "event" || tpl.EventID != event.ID {
		t.Fatalf("template = %+v", tpl)
	}
	if !strings.Contains(tpl.Content, "People reached: 200") || !strings.Contains(tpl.Content, "Soshanguve") {
		t.Fatalf("content = %q", tpl.Content)
	}
	if _, err := blog.Template(ctx, "missing"); err == nil {
		t.Fatal("expected not found")
	}
}
