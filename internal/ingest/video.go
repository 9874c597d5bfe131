package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/halewood/mediasearch/internal/ai"
	"github.com/halewood/mediasearch/internal/logutil"
	"github.com/halewood/mediasearch/internal/mediautil"
	"github.com/halewood/mediasearch/internal/model"
	"github.com/halewood/mediasearch/internal/segment"
)

// IngestVideos walks acquired video items and embeds one record per chunk.
// A video without a chunk manifest has not been segmented yet; it is logged
// and skipped so segmentation can catch up before the next run.
func (c *Coordinator) IngestVideos(ctx context.Context) (model.IngestSummary, error) {
	logger := logutil.GetLogger(ctx)
	collected := &outcomes{}

	metaFiles, err := filepath.Glob(filepath.Join(c.layout.RecordsDir("mp4"), "*.json"))
	if err != nil {
		return collected.summary, err
	}
	for _, metaPath := range metaFiles {
		if err := ctx.Err(); err != nil {
			return collected.summary, err
		}
		item, err := readItemMetadata(metaPath)
		if err != nil {
			logger.Error("reading item metadata failed", zap.String("path", metaPath), zap.Error(err))
			collected.add(model.IngestOutcome{Status: model.IngestFailed, Reason: err.Error()})
			continue
		}
		for _, obj := range item.DigitalObjects {
			if !strings.HasSuffix(strings.ToLower(obj.Filename), ".mp4") {
				continue
			}
			if err := c.ingestVideoObject(ctx, item, obj, collected); err != nil {
				return collected.summary, err
			}
		}
	}
	logger.Info("video ingestion done",
		zap.Int("inserted", collected.summary.Inserted),
		zap.Int("skipped_existing", collected.summary.SkippedExisting),
		zap.Int("skipped_missing_input", collected.summary.SkippedMissingInput),
		zap.Int("failed", collected.summary.Failed))
	return collected.summary, nil
}

func (c *Coordinator) ingestVideoObject(ctx context.Context, item *model.Item, obj model.DigitalObject, collected *outcomes) error {
	logger := logutil.GetLogger(ctx).With(
		zap.String("item_id", item.ItemID),
		zap.String("video", obj.Filename))

	name := videoName(obj.Filename)
	manifestPath := segment.ManifestPath(c.layout.VideoChunksDir(name))
	manifest, err := segment.ReadManifest(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("no chunk manifest, video not segmented yet")
			collected.add(model.IngestOutcome{
				Status: model.IngestSkippedMissingInput,
				Reason: "chunk manifest missing",
			})
			return nil
		}
		return fmt.Errorf("read manifest %s: %w", manifestPath, err)
	}

	return c.forEach(ctx, len(manifest.Chunks), func(i int) {
		out := c.ingestChunk(ctx, item, obj, manifest.Chunks[i])
		logOutcome(logger, out)
		collected.add(out)
	})
}

// ingestChunk embeds and inserts one video chunk. The existence check is an
// optimization; the insert's conflict handling remains the authoritative
// dedup guard.
func (c *Coordinator) ingestChunk(ctx context.Context, item *model.Item, obj model.DigitalObject, chunk model.Chunk) model.IngestOutcome {
	logger := logutil.GetLogger(ctx)
	recordID := model.ChunkRecordID(item.ItemID, chunk.ID)

	exists, err := c.store.Exists(ctx, recordID)
	if err != nil {
		return model.IngestOutcome{RecordID: recordID, Status: model.IngestFailed, Reason: err.Error()}
	}
	if exists {
		return model.IngestOutcome{RecordID: recordID, Status: model.IngestSkippedExisting}
	}

	if chunk.Status != "" && chunk.Status != model.ChunkStatusComplete {
		logger.Warn("ingesting partial chunk",
			zap.String("record_id", recordID),
			zap.String("chunk_status", chunk.Status))
	}

	if chunk.AudioFile == "" {
		return model.IngestOutcome{
			RecordID: recordID,
			Status:   model.IngestSkippedMissingInput,
			Reason:   "no audio extract",
		}
	}
	if _, err := os.Stat(chunk.AudioFile); err != nil {
		return model.IngestOutcome{
			RecordID: recordID,
			Status:   model.IngestSkippedMissingInput,
			Reason:   "audio file missing on disk",
		}
	}

	tctx, cancel := c.withCallTimeout(ctx)
	transcript, err := c.transcriber.Transcribe(tctx, chunk.AudioFile)
	cancel()
	if err != nil {
		return model.IngestOutcome{
			RecordID: recordID,
			Status:   model.IngestFailed,
			Reason:   fmt.Sprintf("transcribe: %v", err),
		}
	}

	if strings.TrimSpace(transcript) == "" {
		return model.IngestOutcome{
			RecordID: recordID,
			Status:   model.IngestSkippedMissingInput,
			Reason:   "empty transcript",
		}
	}

	parts := []ai.Part{ai.TextPart{Text: transcript}}
	for _, framePath := range chunk.FrameFiles {
		data, err := mediautil.LoadImage(framePath, c.maxImageDim)
		if err != nil {
			logger.Warn("frame unreadable, omitted from content set",
				zap.String("frame", framePath), zap.Error(err))
			continue
		}
		parts = append(parts, ai.ImagePart{Data: data, MIME: "image/jpeg"})
	}
	if len(parts) < 2 {
		return model.IngestOutcome{
			RecordID: recordID,
			Status:   model.IngestSkippedMissingInput,
			Reason:   fmt.Sprintf("content set too small: %d parts", len(parts)),
		}
	}

	ectx, cancel := c.withCallTimeout(ctx)
	vector, err := c.embedder.Embed(ectx, parts, ai.ModeDocument)
	cancel()
	if err != nil {
		return model.IngestOutcome{
			RecordID: recordID,
			Status:   model.IngestFailed,
			Reason:   fmt.Sprintf("embed: %v", err),
		}
	}

	rec := &model.EmbeddedRecord{
		RecordID:        recordID,
		ItemID:          item.ItemID,
		Title:           item.Title,
		Subtitle:        item.Subtitle,
		ScopeNote:       item.ScopeNote,
		SourceFileNames: []string{obj.Filename},
		SourceURLs:      []string{obj.URL},
		Kind:            model.KindVideoChunk,
		StartTime:       chunk.StartTime,
		EndTime:         chunk.EndTime,
		Transcript:      transcript,
		Embedding:       vector,
	}
	inserted, err := c.store.Insert(ctx, rec)
	if err != nil {
		return model.IngestOutcome{
			RecordID: recordID,
			Status:   model.IngestFailed,
			Reason:   fmt.Sprintf("insert: %v", err),
		}
	}
	if !inserted {
		return model.IngestOutcome{RecordID: recordID, Status: model.IngestSkippedExisting}
	}
	return model.IngestOutcome{RecordID: recordID, Status: model.IngestInserted}
}
