package objectclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/markdave123-py/inventra/internal/config"
	"github.com/markdave123-py/inventra/internal/core"
	"github.com/markdave123-py/inventra/internal/logger"
)

// GCSClient stores blobs in Google Cloud Storage buckets.
type GCSClient struct {
	client    *storage.Client
	projectID string
	log       *logger.Logger
}

var _ core.ObjectClient = (*GCSClient)(nil)

func NewGCSClient(ctx context.Context, cfg *config.Config, log *logger.Logger) (*GCSClient, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("GCP_PROJECT_ID not set")
	}
	opts := append(config.GoogleClientOptions(), option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	log.Info("GCS client initialized", "project", cfg.GCPProjectID)
	return &GCSClient{client: client, projectID: cfg.GCPProjectID, log: log.With("service", "GCSClient")}, nil
}

func (c *GCSClient) Close() error {
	return c.client.Close()
}

func (c *GCSClient) EnsureContainer(ctx context.Context, bucket string) error {
	ctxAttrs, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	bkt := c.client.Bucket(bucket)
	_, err := bkt.Attrs(ctxAttrs)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, storage.ErrBucketNotExist):
		return fmt.Errorf("gcs bucket attrs %q: %w", bucket, err)
	}
	if err := bkt.Create(ctxAttrs, c.projectID, nil); err != nil {
		return fmt.Errorf("gcs create bucket %q: %w", bucket, err)
	}
	c.log.Info("bucket created", "bucket", bucket)
	return nil
}

func (c *GCSClient) UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	ctxUpload, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := c.client.Bucket(bucket).Object(key).NewWriter(ctxUpload)
	w.ContentType = contentType
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", bucket, key), nil
}

func (c *GCSClient) GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	rc, err := c.client.Bucket(bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("gcs get %s/%s: %w", bucket, key, core.ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("gcs get failed: %w", err)
	}
	return rc, nil
}
