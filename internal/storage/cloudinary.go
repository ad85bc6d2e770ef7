package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Cloudinary stores objects as Cloudinary assets; the key without its
// extension becomes the public ID.
type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinary(cloudinaryURL string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config error: %w", err)
	}
	return &Cloudinary{cld: cld}, nil
}

func publicID(key string) (string, error) {
	cleanKey, err := SanitizeKey(key)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(cleanKey, path.Ext(cleanKey)), nil
}

func resourceType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	default:
		return "auto"
	}
}

func (c *Cloudinary) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	id, err := publicID(key)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	resp, err := c.cld.Upload.Upload(ctx, body, uploader.UploadParams{
		PublicID:     id,
		ResourceType: resourceType(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload error: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("upload error: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

// Delete tries the image and video namespaces since the key alone does not
// say which one the asset landed in.
func (c *Cloudinary) Delete(ctx context.Context, key string) error {
	id, err := publicID(key)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	results := make([]string, 0, 2)
	for _, kind := range []string{"image", "video"} {
		resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
			PublicID:     id,
			ResourceType: kind,
		})
		if err != nil {
			return fmt.Errorf("delete error: %w", err)
		}
		results = append(results, resp.Result)
		if resp.Result == "ok" {
			break
		}
	}
	return destroyOutcome(id, results)
}

// destroyOutcome is nil when any namespace reported "ok".
func destroyOutcome(id string, results []string) error {
	for _, result := range results {
		if result == "ok" {
			return nil
		}
	}
	return fmt.Errorf("%w: %s (results %s)", ErrObjectNotFound, id, strings.Join(results, ", "))
}
