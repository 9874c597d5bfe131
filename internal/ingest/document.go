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
)

// Media types handled by the video/audio path or not embeddable at all.
var nonDocumentTypes = map[string]bool{
	"mp4":   true,
	"mov":   true,
	"mp3":   true,
	"ascii": true,
}

// IngestDocuments walks the non-video media directories and embeds one
// record per item, aggregating every downloadable object of the item into a
// single content set. Unlike video chunks, document dedup is per item: an
// item with any existing document-kind record is skipped whole.
func (c *Coordinator) IngestDocuments(ctx context.Context, mediaTypes []string) (model.IngestSummary, error) {
	logger := logutil.GetLogger(ctx)
	collected := &outcomes{}

	for _, mediaType := range mediaTypes {
		if nonDocumentTypes[mediaType] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return collected.summary, err
		}
		metaFiles, err := filepath.Glob(filepath.Join(c.layout.RecordsDir(mediaType), "*.json"))
		if err != nil {
			return collected.summary, err
		}
		err = c.forEach(ctx, len(metaFiles), func(i int) {
			out := c.ingestDocumentItem(ctx, metaFiles[i], mediaType)
			logOutcome(logger.With(zap.String("media_type", mediaType)), out)
			collected.add(out)
		})
		if err != nil {
			return collected.summary, err
		}
	}
	logger.Info("document ingestion done",
		zap.Int("inserted", collected.summary.Inserted),
		zap.Int("skipped_existing", collected.summary.SkippedExisting),
		zap.Int("skipped_missing_input", collected.summary.SkippedMissingInput),
		zap.Int("failed", collected.summary.Failed))
	return collected.summary, nil
}

func (c *Coordinator) ingestDocumentItem(ctx context.Context, metaPath, mediaType string) model.IngestOutcome {
	item, err := readItemMetadata(metaPath)
	if err != nil {
		return model.IngestOutcome{Status: model.IngestFailed, Reason: fmt.Sprintf("read metadata: %v", err)}
	}
	recordID := model.DocumentRecordID(item.ItemID)

	has, err := c.store.HasDocumentRecord(ctx, item.ItemID, model.DocumentKinds)
	if err != nil {
		return model.IngestOutcome{RecordID: recordID, Status: model.IngestFailed, Reason: err.Error()}
	}
	if has {
		return model.IngestOutcome{RecordID: recordID, Status: model.IngestSkippedExisting}
	}

	parts, fileNames, urls, transcript := c.collectDocumentParts(ctx, item, mediaType)
	if len(parts) == 0 {
		return model.IngestOutcome{
			RecordID: recordID,
			Status:   model.IngestSkippedMissingInput,
			Reason:   "no embeddable content",
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
		SourceFileNames: fileNames,
		SourceURLs:      urls,
		Kind:            mediaType,
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

// collectDocumentParts builds the item's content set. The item description
// leads as a text part, followed by page or image renders in object order.
// Text extracted from PDFs joins the content set and doubles as the record
// transcript. An unreadable
// or missing object is logged and omitted rather than failing the item.
func (c *Coordinator) collectDocumentParts(ctx context.Context, item *model.Item, mediaType string) ([]ai.Part, []string, []string, string) {
	logger := logutil.GetLogger(ctx).With(zap.String("item_id", item.ItemID))

	var parts []ai.Part
	if desc := describeItem(item); desc != "" {
		parts = append(parts, ai.TextPart{Text: desc})
	}

	var fileNames, urls []string
	var textParts []string
	downloadDir := c.layout.DownloadDir(mediaType)
	for _, obj := range item.DigitalObjects {
		if obj.Filename == "" {
			continue
		}
		path := filepath.Join(downloadDir, obj.Filename)
		if _, err := os.Stat(path); err != nil {
			logger.Warn("object file missing on disk, omitted", zap.String("file", obj.Filename))
			continue
		}

		switch strings.ToLower(strings.TrimPrefix(filepath.Ext(obj.Filename), ".")) {
		case "pdf":
			pages, err := mediautil.RasterizePDF(ctx, path, c.maxImageDim)
			if err != nil {
				logger.Warn("pdf rasterization failed, omitted", zap.String("file", obj.Filename), zap.Error(err))
				continue
			}
			for _, page := range pages {
				parts = append(parts, ai.ImagePart{Data: page, MIME: "image/jpeg"})
			}
			if text, err := mediautil.ExtractPDFText(path); err == nil && strings.TrimSpace(text) != "" {
				parts = append(parts, ai.TextPart{Text: text})
				textParts = append(textParts, text)
			}
		case "jpg", "jpeg", "gif", "png":
			data, err := mediautil.LoadImage(path, c.maxImageDim)
			if err != nil {
				logger.Warn("image unreadable, omitted", zap.String("file", obj.Filename), zap.Error(err))
				continue
			}
			parts = append(parts, ai.ImagePart{Data: data, MIME: "image/jpeg"})
		default:
			continue
		}
		fileNames = append(fileNames, obj.Filename)
		urls = append(urls, obj.URL)
	}

	if len(fileNames) == 0 {
		return nil, nil, nil, ""
	}
	return parts, fileNames, urls, strings.Join(textParts, "\n\n")
}

func describeItem(item *model.Item) string {
	var fields []string
	for _, v := range []string{item.Title, item.Subtitle, item.ScopeNote} {
		if strings.TrimSpace(v) != "" {
			fields = append(fields, v)
		}
	}
	return strings.Join(fields, "\n")
}
