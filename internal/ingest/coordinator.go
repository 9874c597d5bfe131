// Package ingest turns acquired media into embedded, deduplicated index
// records. Video chunks dedup per chunk on their deterministic record id;
// document media (image, PDF, GIF) dedup per item. Both variants skip, log
// and continue on per-unit failures so a re-run resumes where the last one
// stopped.
package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/halewood/mediasearch/internal/ai"
	"github.com/halewood/mediasearch/internal/layout"
	"github.com/halewood/mediasearch/internal/model"
)

// RecordStore is the slice of the index store the coordinator needs.
type RecordStore interface {
	Exists(ctx context.Context, recordID string) (bool, error)
	HasDocumentRecord(ctx context.Context, itemID string, kinds []string) (bool, error)
	Insert(ctx context.Context, rec *model.EmbeddedRecord) (bool, error)
}

// Coordinator orchestrates transcription, content assembly, embedding and
// record insertion for both ingestion variants.
type Coordinator struct {
	store       RecordStore
	transcriber ai.ITranscriber
	embedder    ai.IEmbedder
	layout      layout.Layout
	maxImageDim int
	callTimeout time.Duration
	poolSize    int
}

type Options struct {
	Layout      layout.Layout
	MaxImageDim int
	CallTimeout time.Duration
	PoolSize    int
}

func New(store RecordStore, transcriber ai.ITranscriber, embedder ai.IEmbedder, opts Options) *Coordinator {
	maxDim := opts.MaxImageDim
	if maxDim == 0 {
		maxDim = 2048
	}
	timeout := opts.CallTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	poolSize := opts.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}
	return &Coordinator{
		store:       store,
		transcriber: transcriber,
		embedder:    embedder,
		layout:      opts.Layout,
		maxImageDim: maxDim,
		callTimeout: timeout,
		poolSize:    poolSize,
	}
}

// Run ingests videos first, then document media, and reports the combined
// batch summary.
func (c *Coordinator) Run(ctx context.Context, mediaTypes []string) (model.IngestSummary, error) {
	summary, err := c.IngestVideos(ctx)
	if err != nil {
		return summary, err
	}
	docSummary, err := c.IngestDocuments(ctx, mediaTypes)
	summary.Inserted += docSummary.Inserted
	summary.SkippedExisting += docSummary.SkippedExisting
	summary.SkippedMissingInput += docSummary.SkippedMissingInput
	summary.Failed += docSummary.Failed
	return summary, err
}

func readItemMetadata(path string) (*model.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var item model.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Coordinator) withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.callTimeout)
}

// outcomes collects per-unit results from possibly concurrent workers.
type outcomes struct {
	mu      sync.Mutex
	summary model.IngestSummary
}

func (o *outcomes) add(out model.IngestOutcome) {
	o.mu.Lock()
	o.summary.Add(out)
	o.mu.Unlock()
}

// forEach runs fn over work units, bounded by the configured pool size. With
// a pool size of 1 it degenerates to the original sequential batch loop.
func (c *Coordinator) forEach(ctx context.Context, count int, fn func(i int)) error {
	if c.poolSize <= 1 {
		for i := 0; i < count; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(i)
		}
		return nil
	}
	pool, err := ants.NewPool(c.poolSize)
	if err != nil {
		return err
	}
	defer pool.Release()
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}
		i := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			fn(i)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return err
		}
	}
	wg.Wait()
	return nil
}

func logOutcome(logger *zap.Logger, out model.IngestOutcome) {
	switch out.Status {
	case model.IngestInserted:
		logger.Info("record inserted", zap.String("record_id", out.RecordID))
	case model.IngestSkippedExisting:
		logger.Debug("record exists, skipped", zap.String("record_id", out.RecordID))
	case model.IngestSkippedMissingInput:
		logger.Warn("unit skipped, missing input",
			zap.String("record_id", out.RecordID),
			zap.String("reason", out.Reason))
	case model.IngestFailed:
		logger.Error("unit failed",
			zap.String("record_id", out.RecordID),
			zap.String("reason", out.Reason))
	}
}

func videoName(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}
