package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const (
	PostDraft     = "draft"
	PostPublished = "published"
	PostArchived  = "archived"
)

const (
	RoleSuperAdmin    = "super_admin"
	RoleContentAdmin  = "content_admin"
	RoleContentEditor = "content_editor"
	RoleViewer        = "viewer"
)

const (
	InboxNew      = "new"
	InboxReviewed = "reviewed"
	InboxArchived = "archived"
)

type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Status       string     `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
}

type Profile struct {
	UserID    string    `db:"user_id" json:"user_id"`
	Email     string    `db:"email" json:"email,omitempty"`
	FullName  *string   `db:"full_name" json:"full_name"`
	Role      string    `db:"role" json:"role"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Event struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Description   *string   `db:"description" json:"description"`
	EventDate     time.Time `db:"event_date" json:"event_date"`
	Location      *string   `db:"location" json:"location"`
	EventType     string    `db:"event_type" json:"event_type"`
	EventCategory *string   `db:"event_category" json:"event_category"`
	Organizer     *string   `db:"organizer" json:"organizer"`
	Attendees     int       `db:"attendees" json:"attendees"`
	PeopleReached int       `db:"people_reached" json:"people_reached"`
	Outcomes      *string   `db:"outcomes" json:"outcomes"`
	CreatedBy     *string   `db:"created_by" json:"created_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// EventStats mirrors the single row returned by get_event_stats().
type EventStats struct {
	TotalEvents        int64      `db:"total_events" json:"totalEvents"`
	TotalAttendees     int64      `db:"total_attendees" json:"totalAttendees"`
	TotalPeopleReached int64      `db:"total_people_reached" json:"totalPeopleReached"`
	LatestEventDate    *time.Time `db:"latest_event_date" json:"latestEventDate"`
}

type Donation struct {
	ID            int64     `db:"id" json:"id"`
	Amount        float64   `db:"amount" json:"amount"`
	DonorName     string    `db:"donor_name" json:"donor_name"`
	DonorEmail    string    `db:"donor_email" json:"donor_email"`
	DonorPhone    *string   `db:"donor_phone" json:"donor_phone"`
	PaymentMethod string    `db:"payment_method" json:"payment_method"`
	CampaignID    *string   `db:"campaign_id" json:"campaign_id"`
	Anonymous     bool      `db:"anonymous" json:"anonymous"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// DonationStats mirrors the single row returned by get_donation_stats().
type DonationStats struct {
	TotalDonations float64 `db:"total_donations" json:"totalDonations"`
	DonationCount  int64   `db:"donation_count" json:"donationCount"`
}

type Campaign struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	GoalAmount  float64    `db:"goal_amount" json:"goal_amount"`
	Raised      float64    `db:"raised" json:"raised"`
	StartDate   time.Time  `db:"start_date" json:"start_date"`
	EndDate     *time.Time `db:"end_date" json:"end_date"`
	Status      string     `db:"status" json:"status"`
	ImageURL    *string    `db:"image_url" json:"image_url"`
	CreatedBy   *string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

type BlogPost struct {
	ID               string     `db:"id" json:"id"`
	Title            string     `db:"title" json:"title"`
	Slug             string     `db:"slug" json:"slug"`
	Excerpt          *string    `db:"excerpt" json:"excerpt"`
	Content          string     `db:"content" json:"content"`
	Category         string     `db:"category" json:"category"`
	Tags             StringList `db:"tags" json:"tags"`
	FeaturedImageURL *string    `db:"featured_image_url" json:"featured_image_url"`
	Status           string     `db:"status" json:"status"`
	EventID          *string    `db:"event_id" json:"event_id"`
	EventTitle       *string    `db:"event_title" json:"event_title,omitempty"`
	AuthorID         string     `db:"author_id" json:"author_id"`
	PublishedAt      *time.Time `db:"published_at" json:"published_at"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

type Media struct {
	ID         string    `db:"id" json:"id"`
	EventID    string    `db:"event_id" json:"event_id"`
	FileName   string    `db:"file_name" json:"file_name"`
	FileType   string    `db:"file_type" json:"file_type"`
	FileSize   int64     `db:"file_size" json:"file_size"`
	FileURL    string    `db:"file_url" json:"file_url"`
	StorageKey string    `db:"storage_key" json:"-"`
	AltText    *string   `db:"alt_text" json:"alt_text"`
	UploadedBy *string   `db:"uploaded_by" json:"uploaded_by"`
	UploadedAt time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// Application is one intake form submission. Fields holds the form's columns
// keyed by field name.
type Application struct {
	ID        string    `db:"id" json:"id"`
	Kind      string    `db:"-" json:"kind"`
	Fields    StringMap `db:"fields" json:"fields"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type ContactMessage struct {
	ID          string    `db:"id" json:"id"`
	FullName    string    `db:"full_name" json:"full_name"`
	Email       string    `db:"email" json:"email"`
	Phone       *string   `db:"phone" json:"phone"`
	Subject     *string   `db:"subject" json:"subject"`
	Message     string    `db:"message" json:"message"`
	MessageType *string   `db:"message_type" json:"message_type"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type SiteVisit struct {
	ID        string    `db:"id"`
	IPAddress *string   `db:"ip_address"`
	UserAgent *string   `db:"user_agent"`
	Path      *string   `db:"path"`
	Referrer  *string   `db:"referrer"`
	CreatedAt time.Time `db:"created_at"`
}

// StringList is stored as a JSON array.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l *StringList) Scan(src interface{}) error {
	raw, err := jsonBytes(src)
	if err != nil || raw == nil {
		*l = StringList{}
		return err
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// StringMap is stored as a JSON object with string values.
type StringMap map[string]string

func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]string(m))
}

func (m *StringMap) Scan(src interface{}) error {
	raw, err := jsonBytes(src)
	if err != nil || raw == nil {
		*m = StringMap{}
		return err
	}
	var loose map[string]*string
	if err := json.Unmarshal(raw, &loose); err != nil {
		return err
	}
	out := make(StringMap, len(loose))
	for key, value := range loose {
		if value != nil {
			out[key] = *value
		}
	}
	*m = out
	return nil
}

func jsonBytes(src interface{}) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("unsupported json column type")
	}
}
