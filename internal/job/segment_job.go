package job

import (
	"context"

	"go.uber.org/zap"

	"github.com/halewood/mediasearch/internal/layout"
	"github.com/halewood/mediasearch/internal/segment"
)

type SegmentJob struct {
	segmenter *segment.Segmenter
	layout    layout.Layout
}

func NewSegmentJob(segmenter *segment.Segmenter, l layout.Layout) *SegmentJob {
	return &SegmentJob{segmenter: segmenter, layout: l}
}

func (j *SegmentJob) Name() string {
	return "segment"
}

func (j *SegmentJob) Run(ctx context.Context) ([]zap.Field, error) {
	return nil, j.segmenter.SegmentDir(ctx, j.layout.DownloadDir("mp4"), j.layout.ChunksRoot())
}
