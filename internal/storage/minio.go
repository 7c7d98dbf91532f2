// Package storage archives generated quote documents in S3-compatible
// object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"breed_site_backend/platform/config"
)

// QuoteArchive stores a copy of every generated quote PDF. Archival is
// best-effort from the caller's point of view; the quote pipeline treats an
// archive failure as a warning, not a request failure.
type QuoteArchive struct {
	client *minio.Client
	bucket string
}

func NewQuoteArchive(cfg config.MinIOConfig) (*QuoteArchive, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &QuoteArchive{
		client: client,
		bucket: cfg.GetMinioBucketQuotePDFs(),
	}, nil
}

// EnsureBucketExists creates the archive bucket if it doesn't exist.
func (a *QuoteArchive) EnsureBucketExists(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
		}
	}
	return nil
}

// StoreQuotePDF uploads the PDF under a year-based prefix, keyed by the
// quote number so re-renders of the same quote overwrite rather than pile up.
func (a *QuoteArchive) StoreQuotePDF(ctx context.Context, objectName string, content []byte) error {
	key := path.Join(fmt.Sprintf("%d", time.Now().Year()), objectName)
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return fmt.Errorf("failed to archive quote pdf %s: %w", key, err)
	}
	return nil
}
