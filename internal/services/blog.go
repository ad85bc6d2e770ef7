package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"ssfatpf-backend-go/internal/models"
	"ssfatpf-backend-go/internal/store"
)

// BlogCategories are the accepted post categories.
var BlogCategories = []string{"event", "impact", "education", "announcement", "success_story"}

type PostInput struct {
	Title            string  `json:"title" validate:"required"`
	Excerpt          string  `json:"excerpt"`
	Content          string  `json:"content" validate:"required"`
	Category         string  `json:"category" validate:"omitempty,oneof=event impact education announcement success_story"`
	Tags             string  `json:"tags"`
	FeaturedImageURL string  `json:"featured_image_url" validate:"omitempty,url"`
	Status           string  `json:"status" validate:"omitempty,oneof=draft published"`
	EventID          *string `json:"event_id" validate:"omitempty,uuid"`
}

// PostTemplate is a prefilled draft for writing up an event.
type PostTemplate struct {
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Tags     string `json:"tags"`
	EventID  string `json:"event_id"`
}

// PublicPost is a published post with its body rendered to HTML.
type PublicPost struct {
	models.BlogPost
	HTML string `json:"html"`
}

var transitions = map[string]map[string]bool{
	models.PostDraft:     {models.PostPublished: true},
	models.PostPublished: {models.PostArchived: true},
	models.PostArchived:  {models.PostPublished: true},
}

// CanTransition reports whether a post may move from one status to another.
func CanTransition(from, to string) bool {
	return transitions[from][to]
}

type BlogService struct {
	posts    store.Posts
	events   store.Events
	markdown goldmark.Markdown
	now      func() time.Time
}

func NewBlogService(posts store.Posts, events store.Events) *BlogService {
	return &BlogService{
		posts:    posts,
		events:   events,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases, folds diacritics and joins runs of anything outside
// [a-z0-9] with a single hyphen. Slugify(Slugify(s)) == Slugify(s).
func Slugify(value string) string {
	folded, _, err := transform.String(foldMarks, value)
	if err != nil {
		folded = value
	}
	lower := strings.ToLower(strings.TrimSpace(folded))
	var b strings.Builder
	lastDash := false
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return uuid.NewString()
	}
	return slug
}

// ResolveSlug appends -2, -3, ... until the slug is free. keep is a slug the
// caller already owns and may reuse.
func (s *BlogService) ResolveSlug(ctx context.Context, title, keep string) (string, error) {
	base := Slugify(title)
	candidate := base
	counter := 2
	for {
		if candidate == keep {
			return candidate, nil
		}
		exists, err := s.posts.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(counter)
		counter++
	}
}

// CleanTags splits a comma-separated list, dropping blanks and duplicates.
func CleanTags(raw string) []string {
	seen := make(map[string]bool)
	cleaned := make([]string, 0)
	for _, tag := range strings.Split(raw, ",") {
		value := strings.TrimSpace(tag)
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		cleaned = append(cleaned, value)
		if len(cleaned) >= 12 {
			break
		}
	}
	return cleaned
}

func (in *PostInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Category = strings.TrimSpace(in.Category)
	in.Status = strings.TrimSpace(in.Status)
	if in.EventID != nil && strings.TrimSpace(*in.EventID) == "" {
		in.EventID = nil
	}
	if err := validate.Struct(in); err != nil {
		return validationError(err)
	}
	if in.Category == "" {
		in.Category = "impact"
		if in.EventID != nil {
			in.Category = "event"
		}
	}
	return nil
}

func (s *BlogService) checkEvent(ctx context.Context, eventID *string) error {
	if eventID == nil {
		return nil
	}
	if _, err := s.events.GetEvent(ctx, *eventID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrBadRequest("Related event not found")
		}
		return err
	}
	return nil
}

func (s *BlogService) Create(ctx context.Context, input PostInput, authorID string) (models.BlogPost, error) {
	if err := input.normalize(); err != nil {
		return models.BlogPost{}, err
	}
	if err := s.checkEvent(ctx, input.EventID); err != nil {
		return models.BlogPost{}, err
	}
	slug, err := s.ResolveSlug(ctx, input.Title, "")
	if err != nil {
		return models.BlogPost{}, err
	}
	status := input.Status
	if status == "" {
		status = models.PostDraft
	}
	post := models.BlogPost{
		Title:            input.Title,
		Slug:             slug,
		Excerpt:          optional(input.Excerpt),
		Content:          input.Content,
		Category:         input.Category,
		Tags:             CleanTags(input.Tags),
		FeaturedImageURL: optional(input.FeaturedImageURL),
		Status:           status,
		EventID:          input.EventID,
		AuthorID:         authorID,
	}
	if status == models.PostPublished {
		now := s.now()
		post.PublishedAt = &now
	}
	if err := s.posts.InsertPost(ctx, &post); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.BlogPost{}, ErrConflict("A post with this slug already exists")
		}
		return models.BlogPost{}, err
	}
	return post, nil
}

// Update edits content fields. A changed status goes through SetStatus rules.
func (s *BlogService) Update(ctx context.Context, id string, input PostInput) (models.BlogPost, error) {
	if err := input.normalize(); err != nil {
		return models.BlogPost{}, err
	}
	current, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return models.BlogPost{}, notFoundOr(err, "Post not found")
	}
	if err := s.checkEvent(ctx, input.EventID); err != nil {
		return models.BlogPost{}, err
	}
	post := current
	if input.Title != current.Title {
		slug, err := s.ResolveSlug(ctx, input.Title, current.Slug)
		if err != nil {
			return models.BlogPost{}, err
		}
		post.Slug = slug
	}
	post.Title = input.Title
	post.Excerpt = optional(input.Excerpt)
	post.Content = input.Content
	post.Category = input.Category
	post.Tags = CleanTags(input.Tags)
	post.FeaturedImageURL = optional(input.FeaturedImageURL)
	post.EventID = input.EventID
	if input.Status != "" && input.Status != current.Status {
		if err := s.applyTransition(&post, input.Status); err != nil {
			return models.BlogPost{}, err
		}
	}
	if err := s.posts.UpdatePost(ctx, &post); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.BlogPost{}, ErrConflict("A post with this slug already exists")
		}
		return models.BlogPost{}, notFoundOr(err, "Post not found")
	}
	return post, nil
}

func (s *BlogService) applyTransition(post *models.BlogPost, to string) error {
	if !CanTransition(post.Status, to) {
		return ErrBadRequest(fmt.Sprintf("Cannot change status from %s to %s", post.Status, to))
	}
	if to == models.PostPublished && post.PublishedAt == nil {
		now := s.now()
		post.PublishedAt = &now
	}
	post.Status = to
	return nil
}

// SetStatus moves a post along draft -> published -> archived -> published.
// Republishing keeps the first published_at.
func (s *BlogService) SetStatus(ctx context.Context, id, status string) (models.BlogPost, error) {
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return models.BlogPost{}, notFoundOr(err, "Post not found")
	}
	if err := s.applyTransition(&post, strings.TrimSpace(status)); err != nil {
		return models.BlogPost{}, err
	}
	if err := s.posts.UpdatePost(ctx, &post); err != nil {
		return models.BlogPost{}, notFoundOr(err, "Post not found")
	}
	return post, nil
}

func (s *BlogService) Delete(ctx context.Context, id string) error {
	return notFoundOr(s.posts.DeletePost(ctx, id), "Post not found")
}

// List returns every post for the admin view, related event title included.
func (s *BlogService) List(ctx context.Context) ([]models.BlogPost, error) {
	return s.posts.ListPosts(ctx, "")
}

func (s *BlogService) Get(ctx context.Context, id string) (models.BlogPost, error) {
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return models.BlogPost{}, notFoundOr(err, "Post not found")
	}
	return post, nil
}

func (s *BlogService) Published(ctx context.Context) ([]models.BlogPost, error) {
	return s.posts.ListPosts(ctx, models.PostPublished)
}

// PublishedBySlug hides drafts and archived posts behind a 404.
func (s *BlogService) PublishedBySlug(ctx context.Context, slug string) (PublicPost, error) {
	post, err := s.posts.GetPostBySlug(ctx, slug)
	if err != nil {
		return PublicPost{}, notFoundOr(err, "Post not found")
	}
	if post.Status != models.PostPublished {
		return PublicPost{}, ErrNotFound("Post not found")
	}
	html, err := s.Render(post.Content)
	if err != nil {
		return PublicPost{}, err
	}
	return PublicPost{BlogPost: post, HTML: html}, nil
}

// Render converts Markdown to HTML. Raw HTML in the source is dropped.
func (s *BlogService) Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(source), &buf); err != nil {
		return "", WrapError(err, "render markdown")
	}
	return buf.String(), nil
}

// Template drafts a recap post from an event's details.
func (s *BlogService) Template(ctx context.Context, eventID string) (PostTemplate, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return PostTemplate{}, notFoundOr(err, "Event not found")
	}
	date := event.EventDate.Format("2 January 2006")
	var body strings.Builder
	fmt.Fprintf(&body, "## %s\n\n", event.Title)
	fmt.Fprintf(&body, "On %s", date)
	if event.Location != nil {
		fmt.Fprintf(&body, " in %s", *event.Location)
	}
	body.WriteString(" we came together with our community.\n\n")
	if event.Description != nil {
		fmt.Fprintf(&body, "%s\n\n", *event.Description)
	}
	body.WriteString("### Impact\n\n")
	fmt.Fprintf(&body, "- Attendees: %d\n", event.Attendees)
	fmt.Fprintf(&body, "- People reached: %d\n", event.PeopleReached)
	if event.Outcomes != nil {
		fmt.Fprintf(&body, "\n### Outcomes\n\n%s\n", *event.Outcomes)
	}
	return PostTemplate{
		Title:    "Reflecting on " + event.Title,
		Excerpt:  fmt.Sprintf("Highlights from %s on %s.", event.Title, date),
		Content:  body.String(),
		Category: "event",
		Tags:     strings.ReplaceAll(event.EventType, "_", " ") + ", community",
		EventID:  event.ID,
	}, nil
}
