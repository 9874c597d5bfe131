// Package acquire fetches raw media and per-item metadata from the archive
// catalog into the local content store. A metadata file per item id is the
// resumability marker: items with one are never re-fetched.
package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/halewood/mediasearch/internal/filestore"
	"github.com/halewood/mediasearch/internal/layout"
	"github.com/halewood/mediasearch/internal/logutil"
	"github.com/halewood/mediasearch/internal/model"
)

// Searcher is the slice of the catalog client the acquirer needs.
type Searcher interface {
	Search(ctx context.Context, term, objectType string) ([]model.Item, error)
}

// Acquirer downloads catalog media into the local layout:
// downloads/<term>/<type>/<filename> and records/<term>/<type>/<itemID>.json.
type Acquirer struct {
	catalog    Searcher
	mirror     filestore.Store
	httpClient *http.Client
	limiter    *rate.Limiter
	layout     layout.Layout
	batchDelay time.Duration
}

type Options struct {
	Layout            layout.Layout
	DownloadTimeout   time.Duration
	RequestsPerSecond float64
	BatchDelay        time.Duration
	Mirror            filestore.Store
}

func New(catalog Searcher, opts Options) *Acquirer {
	timeout := opts.DownloadTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	rps := opts.RequestsPerSecond
	if rps == 0 {
		rps = 2
	}
	batchDelay := opts.BatchDelay
	if batchDelay == 0 {
		batchDelay = 2 * time.Second
	}
	return &Acquirer{
		catalog:    catalog,
		mirror:     opts.Mirror,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		layout:     opts.Layout,
		batchDelay: batchDelay,
	}
}

// Run fetches every media type in sequence. A failure in one type is logged
// and the run moves on to the next; only context cancellation stops it.
func (a *Acquirer) Run(ctx context.Context, mediaTypes []string) error {
	logger := logutil.GetLogger(ctx).With(zap.String("term", a.layout.Term))
	for i, mediaType := range mediaTypes {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.batchDelay):
			}
		}
		if err := a.FetchType(ctx, mediaType); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("media type batch failed", zap.String("media_type", mediaType), zap.Error(err))
		}
	}
	return nil
}

// FetchType queries the catalog for one media type and persists every new
// item it returns.
func (a *Acquirer) FetchType(ctx context.Context, mediaType string) error {
	logger := logutil.GetLogger(ctx).With(zap.String("term", a.layout.Term), zap.String("media_type", mediaType))

	downloadDir := a.layout.DownloadDir(mediaType)
	recordsDir := a.layout.RecordsDir(mediaType)
	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(recordsDir, 0o755); err != nil {
		return err
	}

	items, err := a.catalog.Search(ctx, a.layout.Term, mediaType)
	if err != nil {
		return fmt.Errorf("catalog search: %w", err)
	}
	logger.Info("catalog records found", zap.Int("count", len(items)))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		metadataPath := filepath.Join(recordsDir, item.ItemID+".json")
		if _, err := os.Stat(metadataPath); err == nil {
			logger.Debug("metadata exists, skipping item", zap.String("item_id", item.ItemID))
			continue
		}
		if len(item.DigitalObjects) == 0 {
			continue
		}
		for _, obj := range item.DigitalObjects {
			if obj.URL == "" || obj.Filename == "" {
				continue
			}
			filePath := filepath.Join(downloadDir, obj.Filename)
			if _, err := os.Stat(filePath); err == nil {
				logger.Debug("file exists, skipping download", zap.String("file", obj.Filename))
				continue
			}
			if err := a.download(ctx, obj.URL, filePath); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Error("download failed",
					zap.String("item_id", item.ItemID),
					zap.String("url", obj.URL),
					zap.Error(err))
				continue
			}
			logger.Info("downloaded", zap.String("file", obj.Filename))
			a.mirrorFile(ctx, mediaType, obj.Filename, filePath)
		}
		// Metadata is written last so a crash mid-item re-attempts downloads
		// on the next run.
		if err := a.writeMetadata(metadataPath, item); err != nil {
			logger.Error("write metadata failed", zap.String("item_id", item.ItemID), zap.Error(err))
			continue
		}
		logger.Info("saved metadata", zap.String("item_id", item.ItemID))
	}
	return nil
}

func (a *Acquirer) download(ctx context.Context, url, filePath string) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	out, err := os.Create(filePath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(filePath)
		return err
	}
	return out.Close()
}

func (a *Acquirer) mirrorFile(ctx context.Context, mediaType, filename, filePath string) {
	if a.mirror == nil {
		return
	}
	logger := logutil.GetLogger(ctx)
	file, err := os.Open(filePath)
	if err != nil {
		logger.Error("mirror open failed", zap.String("file", filename), zap.Error(err))
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		logger.Error("mirror stat failed", zap.String("file", filename), zap.Error(err))
		return
	}
	key := a.layout.MirrorKey(mediaType, filename)
	if err := a.mirror.Save(ctx, key, file, info.Size()); err != nil {
		logger.Error("mirror upload failed", zap.String("key", key), zap.Error(err))
		return
	}
	logger.Debug("mirrored", zap.String("key", key))
}

func (a *Acquirer) writeMetadata(path string, item model.Item) error {
	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
