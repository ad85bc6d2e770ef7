// Package store is the data collaborator behind the services: table-style CRUD
// plus the two aggregate functions get_event_stats and get_donation_stats.
package store

import (
	"context"
	"errors"
	"regexp"
	"time"

	"ssfatpf-backend-go/internal/models"
)

var (
	ErrNotFound     = errors.New("store: not found")
	ErrUnknownTable = errors.New("store: unknown application table")
	ErrDuplicate    = errors.New("store: duplicate key")
)

// ApplicationTables lists the intake tables that accept form rows.
var ApplicationTables = map[string]bool{
	"volunteers":              true,
	"partners":                true,
	"fundraising_ambassadors": true,
	"event_organizers":        true,
}

var columnName = regexp.MustCompile(`^[a-z][a-z_]*$`)

const (
	WhenUpcoming = "upcoming"
	WhenPast     = "past"
)

// EventFilter narrows event listings. Zero value lists everything.
type EventFilter struct {
	Type  string
	Query string
	When  string
	Today time.Time
}

type Events interface {
	ListEvents(ctx context.Context, filter EventFilter) ([]models.Event, error)
	GetEvent(ctx context.Context, id string) (models.Event, error)
	InsertEvent(ctx context.Context, event *models.Event) error
	UpdateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id string) error
	EventStats(ctx context.Context) (models.EventStats, error)
}

type Donations interface {
	InsertDonation(ctx context.Context, donation *models.Donation) error
	DonationStats(ctx context.Context) (models.DonationStats, error)
	ListCampaigns(ctx context.Context) ([]models.Campaign, error)
	InsertCampaign(ctx context.Context, campaign *models.Campaign) error
	CampaignExists(ctx context.Context, id string) (bool, error)
}

type Posts interface {
	ListPosts(ctx context.Context, status string) ([]models.BlogPost, error)
	GetPost(ctx context.Context, id string) (models.BlogPost, error)
	GetPostBySlug(ctx context.Context, slug string) (models.BlogPost, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	InsertPost(ctx context.Context, post *models.BlogPost) error
	UpdatePost(ctx context.Context, post *models.BlogPost) error
	DeletePost(ctx context.Context, id string) error
}

type MediaRows interface {
	InsertMedia(ctx context.Context, media *models.Media) error
	ListMedia(ctx context.Context, eventID string) ([]models.Media, error)
	GetMedia(ctx context.Context, id string) (models.Media, error)
	DeleteMedia(ctx context.Context, id string) error
}

type Inbox interface {
	InsertApplication(ctx context.Context, table string, fields map[string]string) (models.Application, error)
	ListApplications(ctx context.Context, table string) ([]models.Application, error)
	SetApplicationStatus(ctx context.Context, table, id, status string) error
	InsertContact(ctx context.Context, msg *models.ContactMessage) error
	ListContacts(ctx context.Context) ([]models.ContactMessage, error)
	SetContactStatus(ctx context.Context, id, status string) error
}

type Accounts interface {
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	InsertUser(ctx context.Context, user *models.User, profile models.Profile) error
	SetLastLogin(ctx context.Context, userID string, at time.Time) error
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	SetRole(ctx context.Context, userID, role string) error
}

type Visits interface {
	InsertVisit(ctx context.Context, visit models.SiteVisit) error
	CountVisits(ctx context.Context) (int64, error)
}

// Backend is the full collaborator surface.
type Backend interface {
	Events
	Donations
	Posts
	MediaRows
	Inbox
	Accounts
	Visits
}

func checkApplicationTable(table string, fields map[string]string) error {
	if !ApplicationTables[table] {
		return ErrUnknownTable
	}
	for column := range fields {
		if !columnName.MatchString(column) {
			return errors.New("store: invalid column " + column)
		}
	}
	return nil
}
