// Package storage removes the stored files behind document fileUrl values.
package storage

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/logger"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/metrics"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/config"
)

// Store deletes a stored file given the fileUrl recorded on a document.
type Store interface {
	Delete(ctx context.Context, fileURL string) error
}

// BulkStore can remove many files in one round trip.
type BulkStore interface {
	Store
	DeleteMany(ctx context.Context, fileURLs []string) error
}

// Nop is used when no storage backend is configured.
type Nop struct{}

func (Nop) Delete(context.Context, string) error { return nil }

// Open selects the backend named by STORAGE_DRIVER.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case "", "none":
		return Nop{}, nil
	case "local":
		return NewLocal(cfg.UploadsDir), nil
	case "s3":
		return NewS3(ctx, S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	case "supabase":
		return NewSupabase(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

const removeConcurrency = 4

// RemoveAll deletes every non-empty fileURL, best-effort. Failures are logged
// and counted, never returned.
func RemoveAll(ctx context.Context, s Store, log *logger.Logger, m *metrics.Metrics, fileURLs []string) {
	urls := make([]string, 0, len(fileURLs))
	for _, u := range fileURLs {
		if u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return
	}

	if b, ok := s.(BulkStore); ok && len(urls) > 1 {
		if err := b.DeleteMany(ctx, urls); err != nil {
			log.Warn("stored file bulk removal failed", "count", len(urls), "error", err)
			m.IncSecondaryFailure("file_removal")
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(removeConcurrency)
	for _, u := range urls {
		u := u
		g.Go(func() error {
			if err := s.Delete(ctx, u); err != nil {
				log.Warn("stored file removal failed", "fileUrl", u, "error", err)
				m.IncSecondaryFailure("file_removal")
			}
			return nil
		})
	}
	_ = g.Wait()
}
