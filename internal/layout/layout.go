// Package layout fixes the on-disk data layout shared by the acquisition,
// segmentation and ingestion stages. All stages address artifacts by these
// deterministic paths; none of them communicate any other way.
package layout

import (
	"path/filepath"
	"strings"
)

// Layout roots the per-term data tree:
//
//	<DataDir>/downloads/<term>/<mediaType>/<filename>
//	<DataDir>/records/<term>/<mediaType>/<itemID>.json
//	<DataDir>/chunks/<videoName>/<chunkID>/...
type Layout struct {
	DataDir string
	Term    string
}

func (l Layout) term() string {
	return strings.ReplaceAll(l.Term, " ", "_")
}

// DownloadDir is where raw media of one type lands.
func (l Layout) DownloadDir(mediaType string) string {
	return filepath.Join(l.DataDir, "downloads", l.term(), mediaType)
}

// RecordsDir holds per-item metadata files of one type.
func (l Layout) RecordsDir(mediaType string) string {
	return filepath.Join(l.DataDir, "records", l.term(), mediaType)
}

// ChunksRoot holds one directory of extracted chunks per video.
func (l Layout) ChunksRoot() string {
	return filepath.Join(l.DataDir, "chunks")
}

// VideoChunksDir is the chunk directory of one video.
func (l Layout) VideoChunksDir(videoName string) string {
	return filepath.Join(l.ChunksRoot(), videoName)
}

// MirrorKey is the object key used when media is replicated to a mirror.
func (l Layout) MirrorKey(mediaType, filename string) string {
	return l.term() + "/" + mediaType + "/" + filename
}
