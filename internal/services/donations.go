package services

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"ssfatpf-backend-go/internal/models"
	"ssfatpf-backend-go/internal/store"
)

const donationSubmitFallback = "An error occurred while submitting your donation"

type DonationInput struct {
	Amount        float64 `json:"amount" validate:"gt=0"`
	DonorName     string  `json:"donor_name" validate:"required"`
	DonorEmail    string  `json:"donor_email" validate:"required,email"`
	DonorPhone    string  `json:"donor_phone"`
	PaymentMethod string  `json:"payment_method" validate:"required"`
	CampaignID    string  `json:"campaign_id" validate:"omitempty,uuid"`
	Anonymous     bool    `json:"anonymous"`
}

type CampaignInput struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description" validate:"required"`
	GoalAmount  float64 `json:"goal_amount" validate:"gt=0"`
	StartDate   string  `json:"start_date" validate:"required"`
	EndDate     string  `json:"end_date"`
	Status      string  `json:"status" validate:"omitempty,oneof=active paused completed"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url"`
}

// DonationTracker holds the latest get_donation_stats row.
type DonationTracker struct {
	store store.Donations

	mu          sync.RWMutex
	stats       models.DonationStats
	started     uint64
	applied     uint64
	subscribers map[int]func(models.DonationStats)
	nextSub     int
}

func NewDonationTracker(donations store.Donations) *DonationTracker {
	return &DonationTracker{
		store:       donations,
		subscribers: map[int]func(models.DonationStats){},
	}
}

// Refresh fetches get_donation_stats. Results from a refresh that started
// before the applied one are dropped.
func (t *DonationTracker) Refresh(ctx context.Context) (models.DonationStats, error) {
	t.mu.Lock()
	t.started++
	seq := t.started
	t.mu.Unlock()

	stats, err := t.store.DonationStats(ctx)
	if err != nil {
		return models.DonationStats{}, WrapError(err, "donation stats")
	}
	t.mu.Lock()
	if seq < t.applied {
		t.mu.Unlock()
		return t.Stats(), nil
	}
	t.applied = seq
	t.stats = stats
	subs := make([]func(models.DonationStats), 0, len(t.subscribers))
	for _, fn := range t.subscribers {
		subs = append(subs, fn)
	}
	t.mu.Unlock()
	for _, fn := range subs {
		fn(stats)
	}
	return stats, nil
}

func (t *DonationTracker) Stats() models.DonationStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats
}

func (t *DonationTracker) Subscribe(fn func(models.DonationStats)) func() {
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

// SubmitDonation validates before any store call, then inserts and refreshes
// the aggregate.
func (t *DonationTracker) SubmitDonation(ctx context.Context, input DonationInput) SubmitResult[models.Donation] {
	input.DonorName = strings.TrimSpace(input.DonorName)
	input.DonorEmail = strings.TrimSpace(input.DonorEmail)
	input.PaymentMethod = strings.TrimSpace(input.PaymentMethod)
	input.CampaignID = strings.TrimSpace(input.CampaignID)
	if err := validate.Struct(input); err != nil {
		return failed[models.Donation](validationError(err), donationSubmitFallback)
	}
	amount, ok := toCents(input.Amount)
	if !ok {
		return failed[models.Donation](ErrBadRequest("amount must have at most two decimal places"), donationSubmitFallback)
	}
	input.Amount = amount

	donation := models.Donation{
		Amount:        input.Amount,
		DonorName:     input.DonorName,
		DonorEmail:    input.DonorEmail,
		DonorPhone:    optional(input.DonorPhone),
		PaymentMethod: input.PaymentMethod,
		Anonymous:     input.Anonymous,
	}
	if input.CampaignID != "" {
		exists, err := t.store.CampaignExists(ctx, input.CampaignID)
		if err != nil {
			return failed[models.Donation](err, donationSubmitFallback)
		}
		if !exists {
			return failed[models.Donation](ErrBadRequest("Unknown campaign"), donationSubmitFallback)
		}
		donation.CampaignID = &input.CampaignID
	}
	if err := t.store.InsertDonation(ctx, &donation); err != nil {
		log.Error().Err(err).Msg("insert donation failed")
		return failed[models.Donation](err, donationSubmitFallback)
	}
	if _, err := t.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("donation refresh after submit failed")
	}
	return SubmitResult[models.Donation]{Success: true, Data: &donation}
}

// toCents reports whether amount is a whole number of cents and returns it
// rounded to two decimals, matching the NUMERIC(12,2) column.
func toCents(amount float64) (float64, bool) {
	cents := amount * 100
	rounded := math.Round(cents)
	if math.Abs(cents-rounded) > 1e-6 || rounded <= 0 {
		return 0, false
	}
	return rounded / 100, true
}

func (t *DonationTracker) Campaigns(ctx context.Context) ([]models.Campaign, error) {
	return t.store.ListCampaigns(ctx)
}

func (t *DonationTracker) CreateCampaign(ctx context.Context, input CampaignInput, createdBy string) (models.Campaign, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if err := validate.Struct(input); err != nil {
		return models.Campaign{}, validationError(err)
	}
	start, err := ParseDate(strings.TrimSpace(input.StartDate))
	if err != nil {
		return models.Campaign{}, ErrBadRequest("start_date must be a date (YYYY-MM-DD)")
	}
	var end *time.Time
	if strings.TrimSpace(input.EndDate) != "" {
		parsed, err := ParseDate(strings.TrimSpace(input.EndDate))
		if err != nil {
			return models.Campaign{}, ErrBadRequest("end_date must be a date (YYYY-MM-DD)")
		}
		if parsed.Before(start) {
			return models.Campaign{}, ErrBadRequest("end_date must not be before start_date")
		}
		end = &parsed
	}
	status := input.Status
	if status == "" {
		status = "active"
	}
	campaign := models.Campaign{
		Title:       input.Title,
		Description: input.Description,
		GoalAmount:  input.GoalAmount,
		StartDate:   start,
		EndDate:     end,
		Status:      status,
		ImageURL:    optional(input.ImageURL),
		CreatedBy:   optional(createdBy),
	}
	if err := t.store.InsertCampaign(ctx, &campaign); err != nil {
		return models.Campaign{}, err
	}
	return campaign, nil
}
