package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ssfatpf-backend-go/internal/models"
)

// Memory is an in-process Backend used for development and tests.
type Memory struct {
	mu           sync.RWMutex
	events       map[string]models.Event
	donations    []models.Donation
	campaigns    map[string]models.Campaign
	posts        map[string]models.BlogPost
	media        map[string]models.Media
	applications map[string]map[string]models.Application
	contacts     map[string]models.ContactMessage
	users        map[string]models.User
	profiles     map[string]models.Profile
	visits       int64
	nextDonation int64
	now          func() time.Time
}

func NewMemory() *Memory {
	apps := make(map[string]map[string]models.Application, len(ApplicationTables))
	for table := range ApplicationTables {
		apps[table] = map[string]models.Application{}
	}
	return &Memory{
		events:       map[string]models.Event{},
		campaigns:    map[string]models.Campaign{},
		posts:        map[string]models.BlogPost{},
		media:        map[string]models.Media{},
		applications: apps,
		contacts:     map[string]models.ContactMessage{},
		users:        map[string]models.User{},
		profiles:     map[string]models.Profile{},
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) ListEvents(ctx context.Context, filter EventFilter) ([]models.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	today := truncateDay(filter.Today)
	out := []models.Event{}
	for _, event := range m.events {
		if filter.Type != "" && event.EventType != filter.Type {
			continue
		}
		if query != "" && !eventMatches(event, query) {
			continue
		}
		day := truncateDay(event.EventDate)
		if filter.When == WhenUpcoming && day.Before(today) {
			continue
		}
		if filter.When == WhenPast && !day.Before(today) {
			continue
		}
		out = append(out, event)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.After(out[j].EventDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func eventMatches(event models.Event, query string) bool {
	if strings.Contains(strings.ToLower(event.Title), query) {
		return true
	}
	for _, field := range []*string{event.Description, event.Location} {
		if field != nil && strings.Contains(strings.ToLower(*field), query) {
			return true
		}
	}
	return false
}

func truncateDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func (m *Memory) GetEvent(ctx context.Context, id string) (models.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	event, ok := m.events[id]
	if !ok {
		return models.Event{}, ErrNotFound
	}
	return event, nil
}

func (m *Memory) InsertEvent(ctx context.Context, event *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if _, exists := m.events[event.ID]; exists {
		return ErrDuplicate
	}
	now := m.now()
	event.CreatedAt, event.UpdatedAt = now, now
	m.events[event.ID] = *event
	return nil
}

func (m *Memory) UpdateEvent(ctx context.Context, event *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.events[event.ID]
	if !ok {
		return ErrNotFound
	}
	event.CreatedAt = current.CreatedAt
	event.CreatedBy = current.CreatedBy
	event.UpdatedAt = m.now()
	m.events[event.ID] = *event
	return nil
}

func (m *Memory) DeleteEvent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	delete(m.events, id)
	for key, item := range m.media {
		if item.EventID == id {
			delete(m.media, key)
		}
	}
	for key, post := range m.posts {
		if post.EventID != nil && *post.EventID == id {
			post.EventID = nil
			m.posts[key] = post
		}
	}
	return nil
}

func (m *Memory) EventStats(ctx context.Context) (models.EventStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := models.EventStats{TotalEvents: int64(len(m.events))}
	for _, event := range m.events {
		stats.TotalAttendees += int64(event.Attendees)
		stats.TotalPeopleReached += int64(event.PeopleReached)
		if stats.LatestEventDate == nil || event.EventDate.After(*stats.LatestEventDate) {
			date := event.EventDate
			stats.LatestEventDate = &date
		}
	}
	return stats, nil
}

func (m *Memory) InsertDonation(ctx context.Context, donation *models.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextDonation++
	donation.ID = m.nextDonation
	donation.CreatedAt = m.now()
	m.donations = append(m.donations, *donation)
	return nil
}

func (m *Memory) DonationStats(ctx context.Context) (models.DonationStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := models.DonationStats{DonationCount: int64(len(m.donations))}
	for _, donation := range m.donations {
		stats.TotalDonations += donation.Amount
	}
	return stats, nil
}

func (m *Memory) ListCampaigns(ctx context.Context) ([]models.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Campaign, 0, len(m.campaigns))
	for _, campaign := range m.campaigns {
		campaign.Raised = 0
		for _, donation := range m.donations {
			if donation.CampaignID != nil && *donation.CampaignID == campaign.ID {
				campaign.Raised += donation.Amount
			}
		}
		out = append(out, campaign)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (m *Memory) InsertCampaign(ctx context.Context, campaign *models.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if campaign.ID == "" {
		campaign.ID = uuid.NewString()
	}
	campaign.CreatedAt = m.now()
	m.campaigns[campaign.ID] = *campaign
	return nil
}

func (m *Memory) CampaignExists(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.campaigns[id]
	return ok, nil
}

// withEventTitle fills the joined event title; callers hold the read lock.
func (m *Memory) withEventTitle(post models.BlogPost) models.BlogPost {
	post.EventTitle = nil
	if post.EventID != nil {
		if event, ok := m.events[*post.EventID]; ok {
			title := event.Title
			post.EventTitle = &title
		}
	}
	post.Tags = append(models.StringList{}, post.Tags...)
	return post
}

func (m *Memory) ListPosts(ctx context.Context, status string) ([]models.BlogPost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.BlogPost{}
	for _, post := range m.posts {
		if status != "" && post.Status != status {
			continue
		}
		out = append(out, m.withEventTitle(post))
	}
	sort.Slice(out, func(i, j int) bool {
		return sortStamp(out[i], status).After(sortStamp(out[j], status))
	})
	return out, nil
}

func sortStamp(post models.BlogPost, status string) time.Time {
	if status != "" && post.PublishedAt != nil {
		return *post.PublishedAt
	}
	return post.CreatedAt
}

func (m *Memory) GetPost(ctx context.Context, id string) (models.BlogPost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	post, ok := m.posts[id]
	if !ok {
		return models.BlogPost{}, ErrNotFound
	}
	return m.withEventTitle(post), nil
}

func (m *Memory) GetPostBySlug(ctx context.Context, slug string) (models.BlogPost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, post := range m.posts {
		if post.Slug == slug {
			return m.withEventTitle(post), nil
		}
	}
	return models.BlogPost{}, ErrNotFound
}

func (m *Memory) SlugExists(ctx context.Context, slug string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slugTaken(slug, ""), nil
}

func (m *Memory) slugTaken(slug, exceptID string) bool {
	for id, post := range m.posts {
		if post.Slug == slug && id != exceptID {
			return true
		}
	}
	return false
}

func (m *Memory) InsertPost(ctx context.Context, post *models.BlogPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if m.slugTaken(post.Slug, "") {
		return ErrDuplicate
	}
	now := m.now()
	post.CreatedAt, post.UpdatedAt = now, now
	stored := *post
	stored.EventTitle = nil
	m.posts[post.ID] = stored
	return nil
}

func (m *Memory) UpdatePost(ctx context.Context, post *models.BlogPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.posts[post.ID]
	if !ok {
		return ErrNotFound
	}
	if m.slugTaken(post.Slug, post.ID) {
		return ErrDuplicate
	}
	post.CreatedAt = current.CreatedAt
	post.AuthorID = current.AuthorID
	post.UpdatedAt = m.now()
	stored := *post
	stored.EventTitle = nil
	m.posts[post.ID] = stored
	return nil
}

func (m *Memory) DeletePost(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *Memory) InsertMedia(ctx context.Context, media *models.Media) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[media.EventID]; !ok {
		return ErrNotFound
	}
	if media.ID == "" {
		media.ID = uuid.NewString()
	}
	media.UploadedAt = m.now()
	m.media[media.ID] = *media
	return nil
}

func (m *Memory) ListMedia(ctx context.Context, eventID string) ([]models.Media, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Media{}
	for _, item := range m.media {
		if item.EventID == eventID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}

func (m *Memory) GetMedia(ctx context.Context, id string) (models.Media, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.media[id]
	if !ok {
		return models.Media{}, ErrNotFound
	}
	return item, nil
}

func (m *Memory) DeleteMedia(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.media[id]; !ok {
		return ErrNotFound
	}
	delete(m.media, id)
	return nil
}

func (m *Memory) InsertApplication(ctx context.Context, table string, fields map[string]string) (models.Application, error) {
	if err := checkApplicationTable(table, fields); err != nil {
		return models.Application{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	app := models.Application{
		ID:        uuid.NewString(),
		Fields:    models.StringMap{},
		Status:    models.InboxNew,
		CreatedAt: m.now(),
	}
	for key, value := range fields {
		app.Fields[key] = value
	}
	m.applications[table][app.ID] = app
	return copyApplication(app), nil
}

func copyApplication(app models.Application) models.Application {
	fields := make(models.StringMap, len(app.Fields))
	for key, value := range app.Fields {
		fields[key] = value
	}
	app.Fields = fields
	return app
}

func (m *Memory) ListApplications(ctx context.Context, table string) ([]models.Application, error) {
	if err := checkApplicationTable(table, nil); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Application, 0, len(m.applications[table]))
	for _, app := range m.applications[table] {
		out = append(out, copyApplication(app))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) SetApplicationStatus(ctx context.Context, table, id, status string) error {
	if err := checkApplicationTable(table, nil); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.applications[table][id]
	if !ok {
		return ErrNotFound
	}
	app.Status = status
	m.applications[table][id] = app
	return nil
}

func (m *Memory) InsertContact(ctx context.Context, msg *models.ContactMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.Status = models.InboxNew
	msg.CreatedAt = m.now()
	m.contacts[msg.ID] = *msg
	return nil
}

func (m *Memory) ListContacts(ctx context.Context) ([]models.ContactMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ContactMessage, 0, len(m.contacts))
	for _, msg := range m.contacts {
		out = append(out, msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) SetContactStatus(ctx context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.contacts[id]
	if !ok {
		return ErrNotFound
	}
	msg.Status = status
	m.contacts[id] = msg
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (m *Memory) InsertUser(ctx context.Context, user *models.User, profile models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Status == "" {
		user.Status = "ACTIVE"
	}
	user.CreatedAt = m.now()
	m.users[user.ID] = *user
	profile.UserID = user.ID
	profile.Email = ""
	profile.UpdatedAt = user.CreatedAt
	m.profiles[user.ID] = profile
	return nil
}

func (m *Memory) SetLastLogin(ctx context.Context, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.LastLoginAt = &at
	m.users[userID] = user
	return nil
}

// profileWithEmail mirrors the users join; callers hold the read lock.
func (m *Memory) profileWithEmail(profile models.Profile) models.Profile {
	profile.Email = m.users[profile.UserID].Email
	return profile
}

func (m *Memory) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profile, ok := m.profiles[userID]
	if !ok {
		return models.Profile{}, ErrNotFound
	}
	return m.profileWithEmail(profile), nil
}

func (m *Memory) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Profile, 0, len(m.profiles))
	for _, profile := range m.profiles {
		out = append(out, m.profileWithEmail(profile))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *Memory) SetRole(ctx context.Context, userID, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	profile.Role = role
	profile.UpdatedAt = m.now()
	m.profiles[userID] = profile
	return nil
}

func (m *Memory) InsertVisit(ctx context.Context, visit models.SiteVisit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits++
	return nil
}

func (m *Memory) CountVisits(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.visits, nil
}
