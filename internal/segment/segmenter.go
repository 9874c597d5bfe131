// Package segment splits long-form video into fixed-duration chunks with a
// per-chunk audio extract and sampled still frames, driven by the ffmpeg and
// ffprobe binaries. Re-running is safe: existing outputs are never
// regenerated.
package segment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/halewood/mediasearch/internal/logutil"
	"github.com/halewood/mediasearch/internal/model"
)

// Segmenter extracts chunk artifacts under outputDir/<videoName>/.
type Segmenter struct {
	chunkDuration  int
	framesPerChunk int
	ffmpegPath     string
	ffprobePath    string
}

type Option func(*Segmenter)

// WithBinaries overrides the ffmpeg/ffprobe binary paths.
func WithBinaries(ffmpeg, ffprobe string) Option {
	return func(s *Segmenter) {
		if ffmpeg != "" {
			s.ffmpegPath = ffmpeg
		}
		if ffprobe != "" {
			s.ffprobePath = ffprobe
		}
	}
}

func New(chunkDuration, framesPerChunk int, opts ...Option) *Segmenter {
	s := &Segmenter{
		chunkDuration:  chunkDuration,
		framesPerChunk: framesPerChunk,
		ffmpegPath:     "ffmpeg",
		ffprobePath:    "ffprobe",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SegmentDir processes every .mp4 under sourceDir. A video whose probe
// fails is logged and skipped; the run continues with the next one.
func (s *Segmenter) SegmentDir(ctx context.Context, sourceDir, outputDir string) error {
	logger := logutil.GetLogger(ctx)
	videos, err := filepath.Glob(filepath.Join(sourceDir, "*.mp4"))
	if err != nil {
		return err
	}
	if len(videos) == 0 {
		logger.Info("no videos to segment", zap.String("source_dir", sourceDir))
		return nil
	}
	for _, videoPath := range videos {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.Segment(ctx, videoPath, outputDir); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("segmenting video failed", zap.String("video", videoPath), zap.Error(err))
		}
	}
	return nil
}

// Segment chunks one video and writes its manifest. Extraction failures for
// individual chunks or frames are logged and the chunk stays in the manifest
// with whatever artifacts succeeded, marked by an explicit status; the
// manifest is always written after all chunks are attempted.
func (s *Segmenter) Segment(ctx context.Context, videoPath, outputDir string) (*model.ChunkManifest, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("video", filepath.Base(videoPath)))

	duration, err := s.probeDuration(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("probe duration: %w", err)
	}

	videoName := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	videoOutDir := filepath.Join(outputDir, videoName)
	if err := os.MkdirAll(videoOutDir, 0o755); err != nil {
		return nil, err
	}

	manifest := &model.ChunkManifest{
		SourceFile:      videoPath,
		DurationSeconds: duration,
	}
	for _, plan := range PlanChunks(duration, s.chunkDuration, s.framesPerChunk) {
		chunkID := model.ChunkID(videoName, plan.Index)
		chunkDir := filepath.Join(videoOutDir, chunkID)
		if err := os.MkdirAll(chunkDir, 0o755); err != nil {
			return nil, err
		}
		chunk := model.Chunk{
			ID:        chunkID,
			Index:     plan.Index,
			StartTime: plan.Start,
			EndTime:   plan.End,
		}
		logger.Info("extracting chunk",
			zap.Int("index", plan.Index),
			zap.Float64("start", plan.Start),
			zap.Float64("end", plan.End))

		audioPath := filepath.Join(chunkDir, chunkID+".mp3")
		audioOK := true
		if _, err := os.Stat(audioPath); err != nil {
			if err := s.extractAudio(ctx, videoPath, audioPath, plan.Start); err != nil {
				logger.Error("audio extraction failed", zap.String("chunk", chunkID), zap.Error(err))
				audioOK = false
			}
		}
		if audioOK {
			chunk.AudioFile = audioPath
		}

		missingFrames := 0
		for _, frame := range plan.Frames {
			framePath := filepath.Join(chunkDir, fmt.Sprintf("%s_frame_%d.jpg", chunkID, frame.Index+1))
			if _, err := os.Stat(framePath); err != nil {
				if err := s.extractFrame(ctx, videoPath, framePath, frame.Offset); err != nil {
					logger.Error("frame extraction failed",
						zap.String("chunk", chunkID),
						zap.Int("frame", frame.Index+1),
						zap.Error(err))
					missingFrames++
					continue
				}
			}
			chunk.FrameFiles = append(chunk.FrameFiles, framePath)
		}

		switch {
		case !audioOK:
			chunk.Status = model.ChunkStatusMissingAudio
		case missingFrames > 0:
			chunk.Status = model.ChunkStatusMissingFrames
		default:
			chunk.Status = model.ChunkStatusComplete
		}
		manifest.Chunks = append(manifest.Chunks, chunk)
	}

	if err := s.writeManifest(videoOutDir, manifest); err != nil {
		return nil, err
	}
	logger.Info("manifest written", zap.Int("chunks", len(manifest.Chunks)))
	return manifest, nil
}

func (s *Segmenter) probeDuration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, s.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, err
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return duration, nil
}

func (s *Segmenter) extractAudio(ctx context.Context, videoPath, audioPath string, start float64) error {
	cmd := exec.CommandContext(ctx, s.ffmpegPath,
		"-y",
		"-ss", formatSeconds(start),
		"-t", strconv.Itoa(s.chunkDuration),
		"-i", videoPath,
		"-vn",
		audioPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, lastLine(out))
	}
	return nil
}

func (s *Segmenter) extractFrame(ctx context.Context, videoPath, framePath string, offset float64) error {
	cmd := exec.CommandContext(ctx, s.ffmpegPath,
		"-y",
		"-ss", formatSeconds(offset),
		"-i", videoPath,
		"-vframes", "1",
		framePath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, lastLine(out))
	}
	return nil
}

func (s *Segmenter) writeManifest(videoOutDir string, manifest *model.ChunkManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(ManifestPath(videoOutDir), data, 0o644)
}

// ManifestPath locates the manifest inside a video's chunk directory.
func ManifestPath(videoOutDir string) string {
	return filepath.Join(videoOutDir, filepath.Base(videoOutDir)+"_manifest.json")
}

// ReadManifest loads a manifest written by Segment.
func ReadManifest(path string) (*model.ChunkManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var manifest model.ChunkManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
