package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"ssfatpf-backend-go/internal/models"
)

// Postgres implements Backend on top of the schema in internal/migrations.
type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.Message)
	}
	return err
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const eventColumns = `id, title, description, event_date, location, event_type, event_category,
  organizer, attendees, people_reached, outcomes, created_by, created_at, updated_at`

func (p *Postgres) ListEvents(ctx context.Context, filter EventFilter) ([]models.Event, error) {
	where := []string{}
	args := []interface{}{}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("event_type = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d OR location ILIKE $%d)", n, n, n))
	}
	switch filter.When {
	case WhenUpcoming:
		args = append(args, filter.Today)
		where = append(where, fmt.Sprintf("event_date >= $%d::date", len(args)))
	case WhenPast:
		args = append(args, filter.Today)
		where = append(where, fmt.Sprintf("event_date < $%d::date", len(args)))
	}
	query := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY event_date DESC, created_at DESC`

	events := []models.Event{}
	if err := p.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, mapErr(err)
	}
	return events, nil
}

func (p *Postgres) GetEvent(ctx context.Context, id string) (models.Event, error) {
	var event models.Event
	err := p.db.GetContext(ctx, &event, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return event, mapErr(err)
}

func (p *Postgres) InsertEvent(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt, event.UpdatedAt = now, now
	_, err := p.db.ExecContext(ctx, `
INSERT INTO events (id, title, description, event_date, location, event_type, event_category,
  organizer, attendees, people_reached, outcomes, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
`, event.ID, event.Title, event.Description, event.EventDate, event.Location, event.EventType,
		event.EventCategory, event.Organizer, event.Attendees, event.PeopleReached, event.Outcomes,
		event.CreatedBy, now)
	return mapErr(err)
}

func (p *Postgres) UpdateEvent(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	err := p.db.QueryRowxContext(ctx, `
UPDATE events
SET title = $2, description = $3, event_date = $4, location = $5, event_type = $6,
    event_category = $7, organizer = $8, attendees = $9, people_reached = $10,
    outcomes = $11, updated_at = $12
WHERE id = $1
RETURNING created_by, created_at
`, event.ID, event.Title, event.Description, event.EventDate, event.Location, event.EventType,
		event.EventCategory, event.Organizer, event.Attendees, event.PeopleReached, event.Outcomes,
		event.UpdatedAt).Scan(&event.CreatedBy, &event.CreatedAt)
	return mapErr(err)
}

func (p *Postgres) DeleteEvent(ctx context.Context, id string) error {
	return affected(p.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id))
}

func (p *Postgres) EventStats(ctx context.Context) (models.EventStats, error) {
	var stats models.EventStats
	err := p.db.GetContext(ctx, &stats, `
SELECT total_events, total_attendees, total_people_reached, latest_event_date
FROM get_event_stats()
`)
	return stats, mapErr(err)
}

func (p *Postgres) InsertDonation(ctx context.Context, donation *models.Donation) error {
	err := p.db.QueryRowxContext(ctx, `
INSERT INTO donations (amount, donor_name, donor_email, donor_phone, payment_method, campaign_id, anonymous)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at
`, donation.Amount, donation.DonorName, donation.DonorEmail, donation.DonorPhone,
		donation.PaymentMethod, donation.CampaignID, donation.Anonymous,
	).Scan(&donation.ID, &donation.CreatedAt)
	return mapErr(err)
}

func (p *Postgres) DonationStats(ctx context.Context) (models.DonationStats, error) {
	var stats models.DonationStats
	err := p.db.GetContext(ctx, &stats, `
SELECT total_donations::float8 AS total_donations, donation_count
FROM get_donation_stats()
`)
	return stats, mapErr(err)
}

func (p *Postgres) ListCampaigns(ctx context.Context) ([]models.Campaign, error) {
	campaigns := []models.Campaign{}
	err := p.db.SelectContext(ctx, &campaigns, `
SELECT c.id, c.title, c.description, c.goal_amount::float8 AS goal_amount,
       COALESCE((SELECT sum(d.amount) FROM donations d WHERE d.campaign_id = c.id), 0)::float8 AS raised,
       c.start_date, c.end_date, c.status, c.image_url, c.created_by, c.created_at
FROM fundraising_campaigns c
ORDER BY c.start_date DESC
`)
	if err != nil {
		return nil, mapErr(err)
	}
	return campaigns, nil
}

func (p *Postgres) InsertCampaign(ctx context.Context, campaign *models.Campaign) error {
	if campaign.ID == "" {
		campaign.ID = uuid.NewString()
	}
	campaign.CreatedAt = time.Now().UTC()
	_, err := p.db.ExecContext(ctx, `
INSERT INTO fundraising_campaigns (id, title, description, goal_amount, start_date, end_date,
  status, image_url, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`, campaign.ID, campaign.Title, campaign.Description, campaign.GoalAmount, campaign.StartDate,
		campaign.EndDate, campaign.Status, campaign.ImageURL, campaign.CreatedBy, campaign.CreatedAt)
	return mapErr(err)
}

func (p *Postgres) CampaignExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := p.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM fundraising_campaigns WHERE id = $1)`, id)
	return exists, mapErr(err)
}

const postSelect = `
SELECT p.id, p.title, p.slug, p.excerpt, p.content, p.category, p.tags, p.featured_image_url,
       p.status, p.event_id, e.title AS event_title, p.author_id, p.published_at,
       p.created_at, p.updated_at
FROM blog_posts p
LEFT JOIN events e ON e.id = p.event_id
`

func (p *Postgres) ListPosts(ctx context.Context, status string) ([]models.BlogPost, error) {
	posts := []models.BlogPost{}
	var err error
	if status == "" {
		err = p.db.SelectContext(ctx, &posts, postSelect+`ORDER BY p.created_at DESC`)
	} else {
		err = p.db.SelectContext(ctx, &posts, postSelect+`WHERE p.status = $1
ORDER BY COALESCE(p.published_at, p.created_at) DESC`, status)
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return posts, nil
}

func (p *Postgres) GetPost(ctx context.Context, id string) (models.BlogPost, error) {
	var post models.BlogPost
	err := p.db.GetContext(ctx, &post, postSelect+`WHERE p.id = $1`, id)
	return post, mapErr(err)
}

func (p *Postgres) GetPostBySlug(ctx context.Context, slug string) (models.BlogPost, error) {
	var post models.BlogPost
	err := p.db.GetContext(ctx, &post, postSelect+`WHERE p.slug = $1`, slug)
	return post, mapErr(err)
}

func (p *Postgres) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := p.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM blog_posts WHERE slug = $1)`, slug)
	return exists, mapErr(err)
}

func (p *Postgres) InsertPost(ctx context.Context, post *models.BlogPost) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	post.CreatedAt, post.UpdatedAt = now, now
	_, err := p.db.ExecContext(ctx, `
INSERT INTO blog_posts (id, title, slug, excerpt, content, category, tags, featured_image_url,
  status, event_id, author_id, published_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
`, post.ID, post.Title, post.Slug, post.Excerpt, post.Content, post.Category, post.Tags,
		post.FeaturedImageURL, post.Status, post.EventID, post.AuthorID, post.PublishedAt, now)
	return mapErr(err)
}

func (p *Postgres) UpdatePost(ctx context.Context, post *models.BlogPost) error {
	post.UpdatedAt = time.Now().UTC()
	return affected(p.db.ExecContext(ctx, `
UPDATE blog_posts
SET title = $2, slug = $3, excerpt = $4, content = $5, category = $6, tags = $7,
    featured_image_url = $8, status = $9, event_id = $10, published_at = $11, updated_at = $12
WHERE id = $1
`, post.ID, post.Title, post.Slug, post.Excerpt, post.Content, post.Category, post.Tags,
		post.FeaturedImageURL, post.Status, post.EventID, post.PublishedAt, post.UpdatedAt))
}

func (p *Postgres) DeletePost(ctx context.Context, id string) error {
	return affected(p.db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = $1`, id))
}

func (p *Postgres) InsertMedia(ctx context.Context, media *models.Media) error {
	if media.ID == "" {
		media.ID = uuid.NewString()
	}
	media.UploadedAt = time.Now().UTC()
	_, err := p.db.ExecContext(ctx, `
INSERT INTO media (id, event_id, file_name, file_type, file_size, file_url, storage_key,
  alt_text, uploaded_by, uploaded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`, media.ID, media.EventID, media.FileName, media.FileType, media.FileSize, media.FileURL,
		media.StorageKey, media.AltText, media.UploadedBy, media.UploadedAt)
	return mapErr(err)
}

func (p *Postgres) ListMedia(ctx context.Context, eventID string) ([]models.Media, error) {
	items := []models.Media{}
	err := p.db.SelectContext(ctx, &items, `
SELECT id, event_id, file_name, file_type, file_size, file_url, storage_key, alt_text,
       uploaded_by, uploaded_at
FROM media
WHERE event_id = $1
ORDER BY uploaded_at
`, eventID)
	if err != nil {
		return nil, mapErr(err)
	}
	return items, nil
}

func (p *Postgres) GetMedia(ctx context.Context, id string) (models.Media, error) {
	var media models.Media
	err := p.db.GetContext(ctx, &media, `
SELECT id, event_id, file_name, file_type, file_size, file_url, storage_key, alt_text,
       uploaded_by, uploaded_at
FROM media WHERE id = $1
`, id)
	return media, mapErr(err)
}

func (p *Postgres) DeleteMedia(ctx context.Context, id string) error {
	return affected(p.db.ExecContext(ctx, `DELETE FROM media WHERE id = $1`, id))
}

func (p *Postgres) InsertApplication(ctx context.Context, table string, fields map[string]string) (models.Application, error) {
	if err := checkApplicationTable(table, fields); err != nil {
		return models.Application{}, err
	}
	columns := make([]string, 0, len(fields))
	for column := range fields {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	app := models.Application{ID: uuid.NewString(), Fields: models.StringMap{}}
	names := []string{"id"}
	holders := []string{"$1"}
	args := []interface{}{app.ID}
	for _, column := range columns {
		args = append(args, fields[column])
		names = append(names, column)
		holders = append(holders, fmt.Sprintf("$%d", len(args)))
		app.Fields[column] = fields[column]
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING status, created_at`,
		table, strings.Join(names, ", "), strings.Join(holders, ", "))
	if err := p.db.QueryRowxContext(ctx, query, args...).Scan(&app.Status, &app.CreatedAt); err != nil {
		return models.Application{}, mapErr(err)
	}
	return app, nil
}

func (p *Postgres) ListApplications(ctx context.Context, table string) ([]models.Application, error) {
	if err := checkApplicationTable(table, nil); err != nil {
		return nil, err
	}
	apps := []models.Application{}
	err := p.db.SelectContext(ctx, &apps, fmt.Sprintf(`
SELECT id, status, created_at, to_jsonb(t) - 'id' - 'status' - 'created_at' AS fields
FROM %s t
ORDER BY created_at DESC
`, table))
	if err != nil {
		return nil, mapErr(err)
	}
	return apps, nil
}

func (p *Postgres) SetApplicationStatus(ctx context.Context, table, id, status string) error {
	if err := checkApplicationTable(table, nil); err != nil {
		return err
	}
	return affected(p.db.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET status = $2 WHERE id = $1`, table), id, status))
}

func (p *Postgres) InsertContact(ctx context.Context, msg *models.ContactMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.Status = models.InboxNew
	msg.CreatedAt = time.Now().UTC()
	_, err := p.db.ExecContext(ctx, `
INSERT INTO contact_messages (id, full_name, email, phone, subject, message, message_type, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`, msg.ID, msg.FullName, msg.Email, msg.Phone, msg.Subject, msg.Message, msg.MessageType,
		msg.Status, msg.CreatedAt)
	return mapErr(err)
}

func (p *Postgres) ListContacts(ctx context.Context) ([]models.ContactMessage, error) {
	msgs := []models.ContactMessage{}
	err := p.db.SelectContext(ctx, &msgs, `
SELECT id, full_name, email, phone, subject, message, message_type, status, created_at
FROM contact_messages
ORDER BY created_at DESC
`)
	if err != nil {
		return nil, mapErr(err)
	}
	return msgs, nil
}

func (p *Postgres) SetContactStatus(ctx context.Context, id, status string) error {
	return affected(p.db.ExecContext(ctx, `UPDATE contact_messages SET status = $2 WHERE id = $1`, id, status))
}

func (p *Postgres) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := p.db.GetContext(ctx, &user, `
SELECT id, email, password_hash, status, created_at, last_login_at FROM users WHERE id = $1
`, id)
	return user, mapErr(err)
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := p.db.GetContext(ctx, &user, `
SELECT id, email, password_hash, status, created_at, last_login_at FROM users WHERE lower(email) = lower($1)
`, email)
	return user, mapErr(err)
}

func (p *Postgres) InsertUser(ctx context.Context, user *models.User, profile models.Profile) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Status == "" {
		user.Status = "ACTIVE"
	}
	user.CreatedAt = time.Now().UTC()
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO users (id, email, password_hash, status, created_at) VALUES ($1, $2, $3, $4, $5)
`, user.ID, user.Email, user.PasswordHash, user.Status, user.CreatedAt); err != nil {
		return mapErr(err)
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO profiles (user_id, full_name, role, avatar_url, updated_at) VALUES ($1, $2, $3, $4, $5)
`, user.ID, profile.FullName, profile.Role, profile.AvatarURL, user.CreatedAt); err != nil {
		return mapErr(err)
	}
	return tx.Commit()
}

func (p *Postgres) SetLastLogin(ctx context.Context, userID string, at time.Time) error {
	return affected(p.db.ExecContext(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, at, userID))
}

const profileSelect = `
SELECT p.user_id, u.email, p.full_name, p.role, p.avatar_url, p.updated_at
FROM profiles p
JOIN users u ON u.id = p.user_id
`

func (p *Postgres) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	var profile models.Profile
	err := p.db.GetContext(ctx, &profile, profileSelect+`WHERE p.user_id = $1`, userID)
	return profile, mapErr(err)
}

func (p *Postgres) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	profiles := []models.Profile{}
	if err := p.db.SelectContext(ctx, &profiles, profileSelect+`ORDER BY u.email`); err != nil {
		return nil, mapErr(err)
	}
	return profiles, nil
}

func (p *Postgres) SetRole(ctx context.Context, userID, role string) error {
	return affected(p.db.ExecContext(ctx,
		`UPDATE profiles SET role = $2, updated_at = now() WHERE user_id = $1`, userID, role))
}

func (p *Postgres) InsertVisit(ctx context.Context, visit models.SiteVisit) error {
	if visit.ID == "" {
		visit.ID = uuid.NewString()
	}
	_, err := p.db.ExecContext(ctx, `
INSERT INTO site_visits (id, ip_address, user_agent, path, referrer) VALUES ($1, $2, $3, $4, $5)
`, visit.ID, visit.IPAddress, visit.UserAgent, visit.Path, visit.Referrer)
	return mapErr(err)
}

func (p *Postgres) CountVisits(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.GetContext(ctx, &count, `SELECT count(*) FROM site_visits`)
	return count, mapErr(err)
}
