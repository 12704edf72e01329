package gcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/VasiKumar/ClassAI/internal/pkg/ctxutil"
	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
)

const reportObjectPrefix = "reports"

// ReportBucket archives generated focus reports in a GCS bucket. It
// satisfies report.Uploader; report generation treats upload failures as
// best effort, so nothing here is allowed to fail a session.
type ReportBucket struct {
	log        *logger.Logger
	client     *storage.Client
	bucketName string
}

func NewReportBucket(log *logger.Logger) (*ReportBucket, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "gcp.ReportBucket")

	bucketName := os.Getenv("REPORT_GCS_BUCKET_NAME")
	if bucketName == "" {
		return nil, fmt.Errorf("missing env var REPORT_GCS_BUCKET_NAME")
	}

	ctx := context.Background()
	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	c, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &ReportBucket{log: slog, client: c, bucketName: bucketName}, nil
}

func (b *ReportBucket) Close() error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Close()
}

func (b *ReportBucket) Upload(ctx context.Context, localPath string, objectName string) error {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open report %s: %w", localPath, err)
	}
	defer f.Close()

	key := path.Join(reportObjectPrefix, objectName)
	w := b.client.Bucket(b.bucketName).Object(key).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload report %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize report upload %s: %w", key, err)
	}

	b.log.Info("Report archived", "bucket", b.bucketName, "object", key)
	return nil
}
