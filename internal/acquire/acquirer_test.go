package acquire

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/halewood/mediasearch/internal/layout"
	"github.com/halewood/mediasearch/internal/model"
)

type fakeSearcher struct {
	items []model.Item
	calls int
}

func (f *fakeSearcher) Search(ctx context.Context, term, objectType string) ([]model.Item, error) {
	f.calls++
	return f.items, nil
}

func newTestAcquirer(t *testing.T, catalog Searcher) (*Acquirer, layout.Layout) {
	t.Helper()
	lay := layout.Layout{DataDir: t.TempDir(), Term: "NASA"}
	return New(catalog, Options{
		Layout:            lay,
		RequestsPerSecond: 1000,
		BatchDelay:        1,
	}), lay
}

func TestFetchType_DownloadsAndWritesMetadata(t *testing.T) {
	var downloads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
		_, _ = w.Write([]byte("video bytes"))
	}))
	defer srv.Close()

	catalog := &fakeSearcher{items: []model.Item{{
		ItemID: "123",
		Title:  "Apollo 11 Launch",
		DigitalObjects: []model.DigitalObject{
			{URL: srv.URL + "/vid.mp4", Filename: "vid.mp4"},
		},
	}}}
	a, lay := newTestAcquirer(t, catalog)

	require.NoError(t, a.FetchType(context.Background(), "mp4"))
	require.Equal(t, int32(1), downloads.Load())

	data, err := os.ReadFile(filepath.Join(lay.DownloadDir("mp4"), "vid.mp4"))
	require.NoError(t, err)
	require.Equal(t, "video bytes", string(data))

	_, err = os.Stat(filepath.Join(lay.RecordsDir("mp4"), "123.json"))
	require.NoError(t, err)
}

func TestFetchType_SkipsItemWithMetadata(t *testing.T) {
	var downloads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
		_, _ = w.Write([]byte("video bytes"))
	}))
	defer srv.Close()

	catalog := &fakeSearcher{items: []model.Item{{
		ItemID: "123",
		DigitalObjects: []model.DigitalObject{
			{URL: srv.URL + "/vid.mp4", Filename: "vid.mp4"},
		},
	}}}
	a, lay := newTestAcquirer(t, catalog)

	require.NoError(t, os.MkdirAll(lay.RecordsDir("mp4"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(lay.RecordsDir("mp4"), "123.json"), []byte("{}"), 0o644))

	require.NoError(t, a.FetchType(context.Background(), "mp4"))
	require.Equal(t, int32(0), downloads.Load())
}

func TestFetchType_SkipsExistingFileButWritesMetadata(t *testing.T) {
	var downloads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
	}))
	defer srv.Close()

	catalog := &fakeSearcher{items: []model.Item{{
		ItemID: "123",
		DigitalObjects: []model.DigitalObject{
			{URL: srv.URL + "/vid.mp4", Filename: "vid.mp4"},
		},
	}}}
	a, lay := newTestAcquirer(t, catalog)

	require.NoError(t, os.MkdirAll(lay.DownloadDir("mp4"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(lay.DownloadDir("mp4"), "vid.mp4"), []byte("old bytes"), 0o644))

	require.NoError(t, a.FetchType(context.Background(), "mp4"))
	require.Equal(t, int32(0), downloads.Load())

	_, err := os.Stat(filepath.Join(lay.RecordsDir("mp4"), "123.json"))
	require.NoError(t, err)
}

func TestFetchType_FailedDownloadSkipsNothingElse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad.mp4" {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("good bytes"))
	}))
	defer srv.Close()

	catalog := &fakeSearcher{items: []model.Item{{
		ItemID: "123",
		DigitalObjects: []model.DigitalObject{
			{URL: srv.URL + "/bad.mp4", Filename: "bad.mp4"},
			{URL: srv.URL + "/good.mp4", Filename: "good.mp4"},
		},
	}}}
	a, lay := newTestAcquirer(t, catalog)

	require.NoError(t, a.FetchType(context.Background(), "mp4"))

	_, err := os.Stat(filepath.Join(lay.DownloadDir("mp4"), "bad.mp4"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(lay.DownloadDir("mp4"), "good.mp4"))
	require.NoError(t, err)
	// metadata is still written so the item is not re-fetched endlessly
	_, err = os.Stat(filepath.Join(lay.RecordsDir("mp4"), "123.json"))
	require.NoError(t, err)
}

func TestFetchType_SkipsObjectsWithoutURLOrFilename(t *testing.T) {
	catalog := &fakeSearcher{items: []model.Item{{
		ItemID: "123",
		DigitalObjects: []model.DigitalObject{
			{URL: "", Filename: "a.mp4"},
			{URL: "https://example.com/b.mp4", Filename: ""},
		},
	}}}
	a, lay := newTestAcquirer(t, catalog)

	require.NoError(t, a.FetchType(context.Background(), "mp4"))
	_, err := os.Stat(filepath.Join(lay.RecordsDir("mp4"), "123.json"))
	require.NoError(t, err)
}
