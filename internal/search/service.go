// Package search implements the query pipeline: embed the query text, pull
// a wide candidate pool from the vector index, narrow it by file type and
// optionally rerank the survivors.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/halewood/mediasearch/internal/ai"
	"github.com/halewood/mediasearch/internal/logutil"
	"github.com/halewood/mediasearch/internal/model"
	appErr "github.com/halewood/mediasearch/internal/pkg/errors"
)

const (
	defaultCandidates = 200
	defaultLimit      = 50

	queryCacheSize = 256
	queryCacheTTL  = 2 * time.Hour
)

// VectorStore is the slice of the index store the pipeline needs.
type VectorStore interface {
	Search(ctx context.Context, queryVec []float32, candidates, limit int) ([]model.SearchResult, error)
}

type Request struct {
	QueryText       string   `json:"query_text"`
	FilterFileTypes []string `json:"filter_file_types"`
	UseReranker     *bool    `json:"use_reranker"`
}

type Service struct {
	store      VectorStore
	embedder   ai.IEmbedder
	reranker   ai.IReranker
	queryCache *expirable.LRU[string, []float32]
	candidates int
	limit      int
}

type Option func(*Service)

// WithPoolSizes overrides the candidate pool and result cap.
func WithPoolSizes(candidates, limit int) Option {
	return func(s *Service) {
		if candidates > 0 {
			s.candidates = candidates
		}
		if limit > 0 {
			s.limit = limit
		}
	}
}

// New builds the pipeline. A nil reranker disables reranking regardless of
// what requests ask for.
func New(store VectorStore, embedder ai.IEmbedder, reranker ai.IReranker, opts ...Option) *Service {
	s := &Service{
		store:      store,
		embedder:   embedder,
		reranker:   reranker,
		queryCache: expirable.NewLRU[string, []float32](queryCacheSize, nil, queryCacheTTL),
		candidates: defaultCandidates,
		limit:      defaultLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs the full pipeline for one query.
func (s *Service) Search(ctx context.Context, req Request) ([]model.SearchResult, error) {
	query := strings.TrimSpace(req.QueryText)
	if query == "" {
		return nil, fmt.Errorf("query_text is required: %w", appErr.ErrInvalid)
	}

	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %v: %w", err, ai.ErrUnavailable)
	}

	results, err := s.store.Search(ctx, vec, s.candidates, s.limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %v: %w", err, appErr.ErrUnavailable)
	}
	results = filterByKind(results, ExpandFileTypes(req.FilterFileTypes))

	if s.shouldRerank(req, results) {
		results = s.rerank(ctx, query, results)
	}
	return results, nil
}

func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if vec, ok := s.queryCache.Get(query); ok {
		return vec, nil
	}
	vec, err := s.embedder.Embed(ctx, []ai.Part{ai.TextPart{Text: query}}, ai.ModeQuery)
	if err != nil {
		return nil, err
	}
	s.queryCache.Add(query, vec)
	return vec, nil
}

// ExpandFileTypes translates the user-facing filter vocabulary into stored
// record kinds. Filtering on mp4 must also surface the per-chunk records a
// video was split into.
func ExpandFileTypes(types []string) []string {
	if len(types) == 0 {
		return nil
	}
	var expanded []string
	seen := map[string]bool{}
	add := func(kind string) {
		if !seen[kind] {
			seen[kind] = true
			expanded = append(expanded, kind)
		}
	}
	for _, t := range types {
		kind := strings.ToLower(strings.TrimSpace(t))
		if kind == "" {
			continue
		}
		add(kind)
		if kind == "mp4" {
			add(model.KindVideoChunk)
		}
	}
	return expanded
}

// filterByKind keeps results whose kind is in the allow set. An empty set
// means no filtering. Applied after the vector search so the candidate pool
// stays wide regardless of filter selectivity.
func filterByKind(results []model.SearchResult, kinds []string) []model.SearchResult {
	if len(kinds) == 0 {
		return results
	}
	allowed := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}
	filtered := results[:0]
	for _, r := range results {
		if allowed[r.Kind] {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// shouldRerank: reranking defaults on, needs a configured reranker and at
// least two results to reorder.
func (s *Service) shouldRerank(req Request, results []model.SearchResult) bool {
	if s.reranker == nil || len(results) < 2 {
		return false
	}
	if req.UseReranker == nil {
		return true
	}
	return *req.UseReranker
}

// rerank reorders results by reranker relevance. The reranker scores text
// surrogates: the transcript when present, the title otherwise. Any reranker
// failure falls back to the vector-similarity order; search never fails on
// the reranking stage.
func (s *Service) rerank(ctx context.Context, query string, results []model.SearchResult) []model.SearchResult {
	docs := make([]string, 0, len(results))
	for _, r := range results {
		switch {
		case r.Transcript != "":
			docs = append(docs, r.Transcript)
		case r.Title != "":
			docs = append(docs, r.Title)
		default:
			docs = append(docs, "")
		}
	}

	ranked, err := s.reranker.Rerank(ctx, query, docs)
	if err != nil {
		logutil.GetLogger(ctx).Warn("reranking failed, keeping vector order", zap.Error(err))
		return results
	}

	reordered := make([]model.SearchResult, 0, len(results))
	for _, rank := range ranked {
		if rank.Index < 0 || rank.Index >= len(results) {
			continue
		}
		r := results[rank.Index]
		r.Score = rank.Relevance
		reordered = append(reordered, r)
	}
	if len(reordered) != len(results) {
		logutil.GetLogger(ctx).Warn("reranker returned partial ranking, keeping vector order",
			zap.Int("ranked", len(reordered)), zap.Int("results", len(results)))
		return results
	}
	return reordered
}
