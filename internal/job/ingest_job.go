package job

import (
	"context"

	"go.uber.org/zap"

	"github.com/halewood/mediasearch/internal/ingest"
)

type IngestJob struct {
	coordinator *ingest.Coordinator
	mediaTypes  []string
}

func NewIngestJob(coordinator *ingest.Coordinator, mediaTypes []string) *IngestJob {
	return &IngestJob{coordinator: coordinator, mediaTypes: mediaTypes}
}

func (j *IngestJob) Name() string {
	return "ingest"
}

func (j *IngestJob) Run(ctx context.Context) ([]zap.Field, error) {
	summary, err := j.coordinator.Run(ctx, j.mediaTypes)
	fields := []zap.Field{
		zap.Int("inserted", summary.Inserted),
		zap.Int("skipped_existing", summary.SkippedExisting),
		zap.Int("skipped_missing_input", summary.SkippedMissingInput),
		zap.Int("failed", summary.Failed),
		zap.Int("total", summary.Total()),
	}
	return fields, err
}
