package model

import "fmt"

// Chunk status values recorded in the manifest. A partial chunk kept
// whichever artifacts extraction managed to produce.
const (
	ChunkStatusComplete      = "complete"
	ChunkStatusMissingAudio  = "partial_missing_audio"
	ChunkStatusMissingFrames = "partial_missing_frames"
)

// Chunk is a fixed-duration temporal window of a video. The final chunk of a
// video may be shorter than the nominal duration.
type Chunk struct {
	ID         string   `json:"chunk_id"`
	Index      int      `json:"index"`
	StartTime  float64  `json:"start_time"`
	EndTime    float64  `json:"end_time"`
	AudioFile  string   `json:"audio_file"`
	FrameFiles []string `json:"frame_files"`
	Status     string   `json:"status"`
}

// ChunkManifest links extracted chunks back to their source video. One
// manifest per video, written after all chunks are attempted.
type ChunkManifest struct {
	SourceFile      string  `json:"source_file"`
	DurationSeconds float64 `json:"duration_seconds"`
	Chunks          []Chunk `json:"chunks"`
}

// ChunkID builds the zero-padded chunk identifier for a video.
func ChunkID(videoName string, index int) string {
	return fmt.Sprintf("%s_chunk_%03d", videoName, index)
}
