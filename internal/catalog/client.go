// Package catalog implements a read-only client for the archive catalog
// search API, rate limited to stay under the service's request ceiling.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/halewood/mediasearch/internal/model"
)

const (
	defaultTimeout = 30 * time.Second
	defaultLimit   = 50
)

// Client queries the catalog search endpoint.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	pageLimit  int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithPageLimit sets the number of records requested per search call.
func WithPageLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.pageLimit = limit
		}
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		pageLimit:  defaultLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// catalog search response: hits nested under body, each hit wrapping the
// record under _source.record.
type searchResponse struct {
	Body struct {
		Hits struct {
			Hits []struct {
				Source struct {
					Record catalogRecord `json:"record"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	} `json:"body"`
}

type catalogRecord struct {
	NaID                json.Number `json:"naId"`
	Title               string      `json:"title"`
	Subtitle            string      `json:"subtitle"`
	ScopeAndContentNote string      `json:"scopeAndContentNote"`
	UseRestriction      struct {
		Note string `json:"note"`
	} `json:"useRestriction"`
	DigitalObjects []struct {
		ObjectURL      string      `json:"objectUrl"`
		ObjectFilename string      `json:"objectFilename"`
		ObjectType     string      `json:"objectType"`
		ObjectFileSize json.Number `json:"objectFileSize"`
	} `json:"digitalObjects"`
}

// Search queries the catalog for records matching term that carry digital
// objects of the given type.
func (c *Client) Search(ctx context.Context, term, objectType string) ([]model.Item, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("q", term)
	params.Set("objectType", objectType)
	params.Set("limit", strconv.Itoa(c.pageLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("catalog search %q/%q: status %d: %s",
			term, objectType, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	items := make([]model.Item, 0, len(parsed.Body.Hits.Hits))
	for _, hit := range parsed.Body.Hits.Hits {
		record := hit.Source.Record
		if record.NaID.String() == "" {
			continue
		}
		item := model.Item{
			ItemID:             record.NaID.String(),
			Title:              record.Title,
			Subtitle:           record.Subtitle,
			ScopeNote:          record.ScopeAndContentNote,
			UseRestrictionNote: record.UseRestriction.Note,
		}
		for _, obj := range record.DigitalObjects {
			size, _ := obj.ObjectFileSize.Int64()
			item.DigitalObjects = append(item.DigitalObjects, model.DigitalObject{
				URL:      obj.ObjectURL,
				Filename: obj.ObjectFilename,
				Type:     obj.ObjectType,
				FileSize: size,
			})
		}
		items = append(items, item)
	}
	return items, nil
}
