// Package job wires the pipeline stages into scheduled units. Each job is a
// thin adapter; the stages themselves are idempotent, so overlapping runs are
// prevented at the scheduler and re-runs are cheap.
package job

import (
	"context"

	"go.uber.org/zap"

	"github.com/halewood/mediasearch/internal/acquire"
)

type AcquireJob struct {
	acquirer   *acquire.Acquirer
	mediaTypes []string
}

func NewAcquireJob(acquirer *acquire.Acquirer, mediaTypes []string) *AcquireJob {
	return &AcquireJob{acquirer: acquirer, mediaTypes: mediaTypes}
}

func (j *AcquireJob) Name() string {
	return "acquire"
}

func (j *AcquireJob) Run(ctx context.Context) ([]zap.Field, error) {
	return nil, j.acquirer.Run(ctx, j.mediaTypes)
}
