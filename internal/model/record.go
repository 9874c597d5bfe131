package model

// Record kinds. Video chunks are stored under their own kind rather than the
// source file extension; document media keep the extension as the kind.
const (
	KindVideoChunk = "video_chunk"
	KindPDF        = "pdf"
	KindJPG        = "jpg"
	KindGIF        = "gif"
)

// DocumentKinds are the kinds subject to whole-item dedup on ingestion.
var DocumentKinds = []string{KindPDF, KindJPG, KindGIF}

// EmbeddedRecord is the unit stored in the index. Records are written once
// and never mutated; the deterministic RecordID is the sole dedup key.
type EmbeddedRecord struct {
	RecordID        string    `json:"record_id"`
	ItemID          string    `json:"item_id"`
	Title           string    `json:"title"`
	Subtitle        string    `json:"subtitle"`
	ScopeNote       string    `json:"scope_note"`
	SourceFileNames []string  `json:"source_file_names"`
	SourceURLs      []string  `json:"source_urls"`
	Kind            string    `json:"kind"`
	StartTime       float64   `json:"start_time,omitempty"`
	EndTime         float64   `json:"end_time,omitempty"`
	Transcript      string    `json:"transcript,omitempty"`
	Embedding       []float32 `json:"-"`
}

// ChunkRecordID derives the record id for a video chunk.
func ChunkRecordID(itemID, chunkID string) string {
	return itemID + "_" + chunkID
}

// DocumentRecordID derives the record id for whole-document media. All
// document objects of one item share a single record.
func DocumentRecordID(itemID string) string {
	return itemID
}

// SearchResult is the per-query projection of an EmbeddedRecord. The
// embedding vector itself is never exposed.
type SearchResult struct {
	RecordID        string   `json:"record_id"`
	ItemID          string   `json:"item_id"`
	Title           string   `json:"title"`
	Kind            string   `json:"kind"`
	SourceFileNames []string `json:"source_file_names"`
	SourceURLs      []string `json:"source_urls"`
	StartTime       float64  `json:"start_timestamp,omitempty"`
	Transcript      string   `json:"transcript,omitempty"`
	Score           float64  `json:"score"`
}
