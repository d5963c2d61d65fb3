package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Shoshak/album-ranking-v2/internal/config"
	"github.com/Shoshak/album-ranking-v2/internal/utils"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/google/uuid"
)

// MaxCoverBytes caps a mirrored cover image.
const MaxCoverBytes = 10 << 20

const coverCacheControl = "public, max-age=31536000, immutable"

var (
	ErrNotFound   = errors.New("object not found")
	ErrNotImage   = errors.New("cover is not an image")
	ErrTooLarge   = errors.New("cover exceeds size limit")
	ErrForeignURL = errors.New("url does not belong to the cover archive")
)

// Client archives album covers so they survive upstream link rot.
type Client struct {
	backend   StorageProvider
	bucket    string
	publicURL string
	http      *http.Client
}

// New picks the backend from cfg.Storage.Provider. It returns nil for
// "none" (or empty); callers treat a nil *Client as "covers are not mirrored".
func New(cfg *config.Config) *Client {
	var backend StorageProvider

	switch cfg.Storage.Provider {
	case "", "none":
		return nil
	case "local":
		backend = NewLocalProvider(cfg.Storage.LocalStorage)
	default:
		// S3-compatible (AWS, B2, MinIO)
		s3Config := &aws.Config{
			Credentials:      credentials.NewStaticCredentials(cfg.Storage.KeyID, cfg.Storage.AppKey, ""),
			Endpoint:         aws.String(cfg.Storage.Endpoint),
			Region:           aws.String(cfg.Storage.Region),
			S3ForcePathStyle: aws.Bool(true),
		}
		sess := session.Must(session.NewSession(s3Config))
		backend = NewS3Provider(sess)
	}

	publicURL := cfg.Storage.PublicURL
	if publicURL == "" {
		publicURL = "/api/v1/covers"
	}
	return NewWithProvider(backend, cfg.Storage.BucketCovers, publicURL)
}

func NewWithProvider(backend StorageProvider, bucket, publicURL string) *Client {
	return &Client{
		backend:   backend,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// MirrorCover downloads sourceURL and stores it under a fresh key derived
// from name. It returns the public URL of the archived copy.
func (c *Client) MirrorCover(ctx context.Context, name, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch cover: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxCoverBytes+1))
	if err != nil {
		return "", fmt.Errorf("read cover: %w", err)
	}
	if len(data) > MaxCoverBytes {
		return "", ErrTooLarge
	}

	contentType := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	ext, ok := imageExt[contentType]
	if !ok {
		return "", ErrNotImage
	}

	key := "albums/" + utils.Sanitize(name, "cover") + "-" + uuid.NewString() + ext
	if err := c.backend.Put(ctx, c.bucket, key, bytes.NewReader(data), contentType, coverCacheControl); err != nil {
		return "", fmt.Errorf("store cover: %w", err)
	}
	return c.publicURL + "/" + key, nil
}

// OpenCover returns the archived object stored under key.
func (c *Client) OpenCover(ctx context.Context, key string) (*FileObject, error) {
	return c.backend.Get(ctx, c.bucket, key)
}

// DeleteCover removes an archived cover given its public URL.
// URLs pointing elsewhere yield ErrForeignURL and are left alone.
func (c *Client) DeleteCover(ctx context.Context, publicURL string) error {
	key, ok := c.KeyOf(publicURL)
	if !ok {
		return ErrForeignURL
	}
	exists, err := c.backend.Exists(ctx, c.bucket, key)
	if err != nil || !exists {
		return err
	}
	return c.backend.Delete(ctx, c.bucket, key)
}

// KeyOf maps a public cover URL back to its storage key.
func (c *Client) KeyOf(publicURL string) (string, bool) {
	key, ok := strings.CutPrefix(publicURL, c.publicURL+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}
