package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"ssfatpf-backend-go/internal/models"
	"ssfatpf-backend-go/internal/storage"
	"ssfatpf-backend-go/internal/store"
)

const (
	MaxImageBytes = 10 * 1024 * 1024
	MaxVideoBytes = 100 * 1024 * 1024

	uploadConcurrency = 4
)

// UploadFile is one file of a multipart upload.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// SagaError names the step and file at which an upload saga stopped.
type SagaError struct {
	Step string
	File string
	Err  error
}

func (e *SagaError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("%s failed for %s: %v", e.Step, e.File, e.Err)
}

func (e *SagaError) Unwrap() error {
	return e.Err
}

// ValidateMediaFile accepts images up to 10 MB and videos up to 100 MB. The
// content type is sniffed when the client did not send a usable one.
func ValidateMediaFile(f *UploadFile) error {
	if f.Size <= 0 {
		return ErrBadRequest(f.Name + " is empty")
	}
	contentType := strings.ToLower(strings.TrimSpace(f.ContentType))
	if contentType == "" || contentType == "application/octet-stream" {
		sniffed, err := sniff(f)
		if err != nil {
			return ErrBadRequest("Could not read " + f.Name)
		}
		contentType = sniffed
	}
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	f.ContentType = contentType
	switch {
	case strings.HasPrefix(contentType, "image/"):
		if f.Size > MaxImageBytes {
			return ErrBadRequest(f.Name + " exceeds the size limit.")
		}
	case strings.HasPrefix(contentType, "video/"):
		if f.Size > MaxVideoBytes {
			return ErrBadRequest(f.Name + " exceeds the size limit.")
		}
	default:
		return ErrBadRequest(f.Name + " is not an image or video.")
	}
	return nil
}

func sniff(f *UploadFile) (string, error) {
	if f.Open == nil {
		return "", errors.New("no reader")
	}
	r, err := f.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	return mt.String(), nil
}

// ObjectKey builds events/<eventID>/<unix>-<index>-<name> with a
// filesystem-safe name. Client paths are reduced to their last element
// before the index is added.
func ObjectKey(eventID string, at time.Time, index int, name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := strings.ToLower(path.Ext(name))
	base := Slugify(strings.TrimSuffix(name, path.Ext(name)))
	return fmt.Sprintf("events/%s/%d-%d-%s%s", eventID, at.Unix(), index, base, ext)
}

type MediaUploadResult struct {
	Event models.Event   `json:"event"`
	Media []models.Media `json:"media"`
}

type MediaService struct {
	rows    store.MediaRows
	events  store.Events
	tracker *EventTracker
	objects storage.ObjectStore
	now     func() time.Time
}

func NewMediaService(rows store.MediaRows, events store.Events, tracker *EventTracker, objects storage.ObjectStore) *MediaService {
	return &MediaService{
		rows:    rows,
		events:  events,
		tracker: tracker,
		objects: objects,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MediaService) ListForEvent(ctx context.Context, eventID string) ([]models.Media, error) {
	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		return nil, notFoundOr(err, "Event not found")
	}
	return s.rows.ListMedia(ctx, eventID)
}

// Delete removes the row first so a failed object delete leaves no dangling
// reference.
func (s *MediaService) Delete(ctx context.Context, id string) error {
	item, err := s.rows.GetMedia(ctx, id)
	if err != nil {
		return notFoundOr(err, "Media not found")
	}
	if err := s.rows.DeleteMedia(ctx, id); err != nil {
		return notFoundOr(err, "Media not found")
	}
	if err := s.objects.Delete(ctx, item.StorageKey); err != nil {
		log.Warn().Err(err).Str("key", item.StorageKey).Msg("media object delete failed")
	}
	return nil
}

// CreateEventWithMedia runs the upload saga: create the event, upload every
// file, record a media row per file. Any failure undoes the completed steps in
// reverse and returns a *SagaError.
func (s *MediaService) CreateEventWithMedia(ctx context.Context, input EventInput, files []UploadFile, uploadedBy string) (MediaUploadResult, error) {
	if len(files) == 0 {
		return MediaUploadResult{}, ErrBadRequest("Please select at least one file to upload.")
	}
	for i := range files {
		if err := ValidateMediaFile(&files[i]); err != nil {
			return MediaUploadResult{}, err
		}
	}
	event, err := input.toEvent()
	if err != nil {
		return MediaUploadResult{}, err
	}
	event.CreatedBy = optional(uploadedBy)
	if err := s.events.InsertEvent(ctx, &event); err != nil {
		return MediaUploadResult{}, &SagaError{Step: "create event", Err: err}
	}

	var (
		mu       sync.Mutex
		uploaded []string
		inserted = make([]models.Media, len(files))
		rowIDs   []string
	)
	stamp := s.now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for i := range files {
		file := files[i]
		g.Go(func() error {
			key := ObjectKey(event.ID, stamp, i, file.Name)
			url, err := s.uploadOne(gctx, key, file)
			if err != nil {
				return &SagaError{Step: "upload", File: file.Name, Err: err}
			}
			mu.Lock()
			uploaded = append(uploaded, key)
			mu.Unlock()
			if url == "" {
				return &SagaError{Step: "public url", File: file.Name, Err: errors.New("storage returned no URL")}
			}
			row := models.Media{
				EventID:    event.ID,
				FileName:   file.Name,
				FileType:   file.ContentType,
				FileSize:   file.Size,
				FileURL:    url,
				StorageKey: key,
				UploadedBy: optional(uploadedBy),
			}
			if err := s.rows.InsertMedia(gctx, &row); err != nil {
				return &SagaError{Step: "insert media", File: file.Name, Err: err}
			}
			mu.Lock()
			rowIDs = append(rowIDs, row.ID)
			inserted[i] = row
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.compensate(context.WithoutCancel(ctx), event.ID, uploaded, rowIDs)
		log.Error().Err(err).Str("event", event.ID).Msg("media upload saga rolled back")
		return MediaUploadResult{}, err
	}

	if s.tracker != nil {
		s.tracker.refreshQuietly(ctx)
	}
	return MediaUploadResult{Event: event, Media: inserted}, nil
}

func (s *MediaService) uploadOne(ctx context.Context, key string, file UploadFile) (string, error) {
	body, err := file.Open()
	if err != nil {
		return "", err
	}
	defer body.Close()
	return s.objects.Upload(ctx, key, file.ContentType, body)
}

func (s *MediaService) compensate(ctx context.Context, eventID string, keys, rowIDs []string) {
	for _, id := range rowIDs {
		if err := s.rows.DeleteMedia(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Str("media", id).Msg("compensate: delete media row")
		}
	}
	for _, key := range keys {
		if err := s.objects.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("compensate: delete object")
		}
	}
	if err := s.events.DeleteEvent(ctx, eventID); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Warn().Err(err).Str("event", eventID).Msg("compensate: delete event")
	}
}
