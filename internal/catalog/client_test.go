package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "body": {
    "hits": {
      "hits": [
        {
          "_source": {
            "record": {
              "naId": 12345,
              "title": "Apollo 11 Onboard Film",
              "subtitle": "Magazine A",
              "scopeAndContentNote": "Film shot during the Apollo 11 mission.",
              "useRestriction": {"note": "Unrestricted"},
              "digitalObjects": [
                {
                  "objectUrl": "https://example.com/apollo11.mp4",
                  "objectFilename": "apollo11.mp4",
                  "objectType": "mp4",
                  "objectFileSize": 1048576
                }
              ]
            }
          }
        },
        {
          "_source": {
            "record": {
              "title": "record without naId is dropped"
            }
          }
        }
      ]
    }
  }
}`

func TestClientSearch_ParsesCatalogResponse(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"q":          r.URL.Query().Get("q"),
			"objectType": r.URL.Query().Get("objectType"),
			"limit":      r.URL.Query().Get("limit"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithPageLimit(25), WithRateLimit(100))
	items, err := client.Search(context.Background(), "NASA", "mp4")
	require.NoError(t, err)

	require.Equal(t, "NASA", gotQuery["q"])
	require.Equal(t, "mp4", gotQuery["objectType"])
	require.Equal(t, "25", gotQuery["limit"])

	require.Len(t, items, 1)
	item := items[0]
	require.Equal(t, "12345", item.ItemID)
	require.Equal(t, "Apollo 11 Onboard Film", item.Title)
	require.Equal(t, "Magazine A", item.Subtitle)
	require.Equal(t, "Film shot during the Apollo 11 mission.", item.ScopeNote)
	require.Equal(t, "Unrestricted", item.UseRestrictionNote)
	require.Len(t, item.DigitalObjects, 1)
	require.Equal(t, "apollo11.mp4", item.DigitalObjects[0].Filename)
	require.Equal(t, int64(1048576), item.DigitalObjects[0].FileSize)
}

func TestClientSearch_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithRateLimit(100))
	_, err := client.Search(context.Background(), "NASA", "mp4")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 429")
}
