// Package cdn uploads cover images to S3-compatible object storage and
// hands back the public URL the catalog stores.
package cdn

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Uploader is the media storage boundary the song pipeline depends on.
// References returned by Store are opaque to callers.
type Uploader interface {
	Store(ctx context.Context, mimeType string, r io.Reader) (string, error)
	Remove(ctx context.Context, ref string) error
}

// Config holds object storage settings.
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// BaseURL is the public prefix stored in song covers, e.g. the CDN host.
	BaseURL string
}

// S3 stores covers in a single bucket.
type S3 struct {
	cl      *minio.Client
	bucket  string
	baseURL string
}

func New(cfg Config) (*S3, error) {
	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("cdn client: %w", err)
	}
	return &S3{cl: cl, bucket: cfg.Bucket, baseURL: strings.TrimSuffix(cfg.BaseURL, "/")}, nil
}

// Store uploads the object under a fresh key and returns its public URL.
func (s *S3) Store(ctx context.Context, mimeType string, r io.Reader) (string, error) {
	key := folderFor(mimeType) + uuid.NewString() + extFor(mimeType)
	if _, err := s.cl.PutObject(ctx, s.bucket, key, r, -1, minio.PutObjectOptions{
		ContentType: mimeType,
	}); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

// Remove deletes a previously stored object by its public URL.
func (s *S3) Remove(ctx context.Context, ref string) error {
	key := strings.TrimPrefix(strings.TrimPrefix(ref, s.baseURL), "/")
	if err := s.cl.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

func folderFor(mimeType string) string {
	if strings.HasPrefix(mimeType, "audio/") {
		return "songs/"
	}
	return "covers/"
}

func extFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "audio/mpeg":
		return ".mp3"
	default:
		return ""
	}
}
