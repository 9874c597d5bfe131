package ingest

import (
	"context"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/halewood/mediasearch/internal/ai"
	"github.com/halewood/mediasearch/internal/ai/mock"
	"github.com/halewood/mediasearch/internal/layout"
	"github.com/halewood/mediasearch/internal/model"
	"github.com/halewood/mediasearch/internal/segment"
)

type fakeRecordStore struct {
	existing      map[string]bool
	docItems      map[string]bool
	insertedFalse bool

	inserted    []*model.EmbeddedRecord
	insertCalls int
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{
		existing: map[string]bool{},
		docItems: map[string]bool{},
	}
}

func (f *fakeRecordStore) Exists(ctx context.Context, recordID string) (bool, error) {
	return f.existing[recordID], nil
}

func (f *fakeRecordStore) HasDocumentRecord(ctx context.Context, itemID string, kinds []string) (bool, error) {
	return f.docItems[itemID], nil
}

func (f *fakeRecordStore) Insert(ctx context.Context, rec *model.EmbeddedRecord) (bool, error) {
	f.insertCalls++
	if f.insertedFalse {
		return false, nil
	}
	f.inserted = append(f.inserted, rec)
	return true, nil
}

func testLayout(t *testing.T) layout.Layout {
	t.Helper()
	return layout.Layout{DataDir: t.TempDir(), Term: "NASA"}
}

func writeItemMetadata(t *testing.T, lay layout.Layout, mediaType string, item model.Item) {
	t.Helper()
	dir := lay.RecordsDir(mediaType)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data, err := json.MarshalIndent(item, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, item.ItemID+".json"), data, 0o644))
}

func writeManifest(t *testing.T, lay layout.Layout, name string, manifest model.ChunkManifest) {
	t.Helper()
	dir := lay.VideoChunksDir(name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(segment.ManifestPath(dir), data, 0o644))
}

func writeAudioFile(t *testing.T, lay layout.Layout, name, chunkID string) string {
	t.Helper()
	dir := filepath.Join(lay.VideoChunksDir(name), chunkID)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, chunkID+".mp3")
	require.NoError(t, os.WriteFile(path, []byte("fake audio"), 0o644))
	return path
}

func writeJPEG(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, imaging.Save(image.NewRGBA(image.Rect(0, 0, 8, 8)), path))
}

func videoItem() model.Item {
	return model.Item{
		ItemID: "123",
		Title:  "Apollo 11 Launch",
		DigitalObjects: []model.DigitalObject{
			{URL: "https://example.com/vid.mp4", Filename: "vid.mp4", Type: "mp4"},
		},
	}
}

func TestIngestVideos_InsertsChunkRecord(t *testing.T) {
	lay := testLayout(t)
	writeItemMetadata(t, lay, "mp4", videoItem())

	audio := writeAudioFile(t, lay, "vid", "vid_chunk_000")
	frame := filepath.Join(lay.VideoChunksDir("vid"), "vid_chunk_000", "vid_chunk_000_frame_1.jpg")
	writeJPEG(t, frame)
	writeManifest(t, lay, "vid", model.ChunkManifest{
		SourceFile: "vid.mp4",
		Chunks: []model.Chunk{{
			ID:         "vid_chunk_000",
			StartTime:  0,
			EndTime:    10,
			AudioFile:  audio,
			FrameFiles: []string{frame},
			Status:     model.ChunkStatusComplete,
		}},
	})

	store := newFakeRecordStore()
	transcriber := &mock.Transcriber{}
	embedder := &mock.Embedder{}
	c := New(store, transcriber, embedder, Options{Layout: lay})

	summary, err := c.IngestVideos(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Inserted)
	require.Equal(t, 1, transcriber.Calls)
	require.Equal(t, 1, embedder.Calls)
	require.Equal(t, ai.ModeDocument, embedder.LastMode)
	require.Len(t, embedder.LastParts, 2)

	require.Len(t, store.inserted, 1)
	rec := store.inserted[0]
	require.Equal(t, "123_vid_chunk_000", rec.RecordID)
	require.Equal(t, "123", rec.ItemID)
	require.Equal(t, model.KindVideoChunk, rec.Kind)
	require.Equal(t, 0.0, rec.StartTime)
	require.Equal(t, 10.0, rec.EndTime)
	require.NotEmpty(t, rec.Transcript)
	require.Equal(t, []string{"vid.mp4"}, rec.SourceFileNames)
}

func TestIngestVideos_ExistingRecordSkipsModelCalls(t *testing.T) {
	lay := testLayout(t)
	writeItemMetadata(t, lay, "mp4", videoItem())
	audio := writeAudioFile(t, lay, "vid", "vid_chunk_000")
	writeManifest(t, lay, "vid", model.ChunkManifest{
		Chunks: []model.Chunk{{ID: "vid_chunk_000", AudioFile: audio}},
	})

	store := newFakeRecordStore()
	store.existing["123_vid_chunk_000"] = true
	transcriber := &mock.Transcriber{}
	embedder := &mock.Embedder{}
	c := New(store, transcriber, embedder, Options{Layout: lay})

	summary, err := c.IngestVideos(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.SkippedExisting)
	require.Equal(t, 0, transcriber.Calls)
	require.Equal(t, 0, embedder.Calls)
	require.Equal(t, 0, store.insertCalls)
}

func TestIngestVideos_MissingAudioSkipsUnit(t *testing.T) {
	lay := testLayout(t)
	writeItemMetadata(t, lay, "mp4", videoItem())
	writeManifest(t, lay, "vid", model.ChunkManifest{
		Chunks: []model.Chunk{{ID: "vid_chunk_000", Status: model.ChunkStatusMissingAudio}},
	})

	store := newFakeRecordStore()
	transcriber := &mock.Transcriber{}
	c := New(store, transcriber, &mock.Embedder{}, Options{Layout: lay})

	summary, err := c.IngestVideos(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.SkippedMissingInput)
	require.Equal(t, 0, transcriber.Calls)
}

func TestIngestVideos_TooFewContentPartsSkipsUnit(t *testing.T) {
	lay := testLayout(t)
	writeItemMetadata(t, lay, "mp4", videoItem())
	audio := writeAudioFile(t, lay, "vid", "vid_chunk_000")
	writeManifest(t, lay, "vid", model.ChunkManifest{
		Chunks: []model.Chunk{{ID: "vid_chunk_000", AudioFile: audio}},
	})

	store := newFakeRecordStore()
	embedder := &mock.Embedder{}
	c := New(store, &mock.Transcriber{}, embedder, Options{Layout: lay})

	summary, err := c.IngestVideos(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.SkippedMissingInput)
	require.Equal(t, 0, embedder.Calls)
	require.Equal(t, 0, store.insertCalls)
}

func TestIngestVideos_EmptyTranscriptSkipsUnit(t *testing.T) {
	lay := testLayout(t)
	writeItemMetadata(t, lay, "mp4", videoItem())

	audio := writeAudioFile(t, lay, "vid", "vid_chunk_000")
	frames := []string{
		filepath.Join(lay.VideoChunksDir("vid"), "vid_chunk_000", "vid_chunk_000_frame_1.jpg"),
		filepath.Join(lay.VideoChunksDir("vid"), "vid_chunk_000", "vid_chunk_000_frame_2.jpg"),
	}
	for _, frame := range frames {
		writeJPEG(t, frame)
	}
	writeManifest(t, lay, "vid", model.ChunkManifest{
		Chunks: []model.Chunk{{
			ID:         "vid_chunk_000",
			AudioFile:  audio,
			FrameFiles: frames,
			Status:     model.ChunkStatusComplete,
		}},
	})

	store := newFakeRecordStore()
	transcriber := &mock.Transcriber{
		TranscribeFunc: func(ctx context.Context, audioPath string) (string, error) {
			return "", nil
		},
	}
	embedder := &mock.Embedder{}
	c := New(store, transcriber, embedder, Options{Layout: lay})

	summary, err := c.IngestVideos(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.SkippedMissingInput)
	require.Equal(t, 0, summary.Inserted)
	require.Equal(t, 0, embedder.Calls)
	require.Equal(t, 0, store.insertCalls)
}

func TestIngestVideos_NoManifestSkipsVideo(t *testing.T) {
	lay := testLayout(t)
	writeItemMetadata(t, lay, "mp4", videoItem())

	store := newFakeRecordStore()
	c := New(store, &mock.Transcriber{}, &mock.Embedder{}, Options{Layout: lay})

	summary, err := c.IngestVideos(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.SkippedMissingInput)
}

func TestIngestVideos_InsertConflictCountsAsSkipped(t *testing.T) {
	lay := testLayout(t)
	writeItemMetadata(t, lay, "mp4", videoItem())
	audio := writeAudioFile(t, lay, "vid", "vid_chunk_000")
	frame := filepath.Join(lay.VideoChunksDir("vid"), "vid_chunk_000", "vid_chunk_000_frame_1.jpg")
	writeJPEG(t, frame)
	writeManifest(t, lay, "vid", model.ChunkManifest{
		Chunks: []model.Chunk{{ID: "vid_chunk_000", AudioFile: audio, FrameFiles: []string{frame}}},
	})

	store := newFakeRecordStore()
	store.insertedFalse = true
	c := New(store, &mock.Transcriber{}, &mock.Embedder{}, Options{Layout: lay})

	summary, err := c.IngestVideos(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, summary.Inserted)
	require.Equal(t, 1, summary.SkippedExisting)
	require.Equal(t, 1, store.insertCalls)
}

func TestIngestDocuments_EmbedsImagesAcrossObjects(t *testing.T) {
	lay := testLayout(t)
	item := model.Item{
		ItemID:    "456",
		Title:     "Mission Photographs",
		ScopeNote: "Photographs from the lunar surface",
		DigitalObjects: []model.DigitalObject{
			{URL: "https://example.com/a.jpg", Filename: "a.jpg"},
			{URL: "https://example.com/b.jpg", Filename: "b.jpg"},
		},
	}
	writeItemMetadata(t, lay, "jpg", item)
	writeJPEG(t, filepath.Join(lay.DownloadDir("jpg"), "a.jpg"))
	writeJPEG(t, filepath.Join(lay.DownloadDir("jpg"), "b.jpg"))

	store := newFakeRecordStore()
	embedder := &mock.Embedder{}
	c := New(store, &mock.Transcriber{}, embedder, Options{Layout: lay})

	summary, err := c.IngestDocuments(context.Background(), []string{"jpg"})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Inserted)
	require.Equal(t, 1, embedder.Calls)
	require.Equal(t, ai.ModeDocument, embedder.LastMode)
	// description text plus both images
	require.Len(t, embedder.LastParts, 3)

	require.Len(t, store.inserted, 1)
	rec := store.inserted[0]
	require.Equal(t, "456", rec.RecordID)
	require.Equal(t, "jpg", rec.Kind)
	require.Equal(t, []string{"a.jpg", "b.jpg"}, rec.SourceFileNames)
}

func TestIngestDocuments_ExistingItemSkippedWhole(t *testing.T) {
	lay := testLayout(t)
	item := model.Item{
		ItemID:         "456",
		DigitalObjects: []model.DigitalObject{{URL: "u", Filename: "a.jpg"}},
	}
	writeItemMetadata(t, lay, "jpg", item)
	writeJPEG(t, filepath.Join(lay.DownloadDir("jpg"), "a.jpg"))

	store := newFakeRecordStore()
	store.docItems["456"] = true
	embedder := &mock.Embedder{}
	c := New(store, &mock.Transcriber{}, embedder, Options{Layout: lay})

	summary, err := c.IngestDocuments(context.Background(), []string{"jpg"})
	require.NoError(t, err)
	require.Equal(t, 1, summary.SkippedExisting)
	require.Equal(t, 0, embedder.Calls)
	require.Equal(t, 0, store.insertCalls)
}

func TestIngestDocuments_MissingFilesSkipItem(t *testing.T) {
	lay := testLayout(t)
	item := model.Item{
		ItemID:         "456",
		DigitalObjects: []model.DigitalObject{{URL: "u", Filename: "gone.jpg"}},
	}
	writeItemMetadata(t, lay, "jpg", item)

	store := newFakeRecordStore()
	embedder := &mock.Embedder{}
	c := New(store, &mock.Transcriber{}, embedder, Options{Layout: lay})

	summary, err := c.IngestDocuments(context.Background(), []string{"jpg"})
	require.NoError(t, err)
	require.Equal(t, 1, summary.SkippedMissingInput)
	require.Equal(t, 0, embedder.Calls)
}

func TestIngestDocuments_SkipsNonDocumentTypes(t *testing.T) {
	lay := testLayout(t)
	writeItemMetadata(t, lay, "mp4", videoItem())

	store := newFakeRecordStore()
	c := New(store, &mock.Transcriber{}, &mock.Embedder{}, Options{Layout: lay})

	summary, err := c.IngestDocuments(context.Background(), []string{"mp4", "mp3", "ascii"})
	require.NoError(t, err)
	require.Equal(t, 0, summary.Total())
}
