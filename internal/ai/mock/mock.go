// Package mock provides test doubles for the ai capability interfaces.
// Behavior is injected via function fields; call counts support assertions
// on how often each capability was invoked.
package mock

import (
	"context"
	"hash/fnv"

	"github.com/halewood/mediasearch/internal/ai"
)

// Embedder is a test double for ai.IEmbedder. Without an EmbedFunc it
// returns a deterministic vector derived from the content set.
type Embedder struct {
	EmbedFunc func(ctx context.Context, parts []ai.Part, mode ai.Mode) ([]float32, error)

	Calls     int
	LastMode  ai.Mode
	LastParts []ai.Part
}

func (m *Embedder) Name() string { return "mock" }

func (m *Embedder) Embed(ctx context.Context, parts []ai.Part, mode ai.Mode) ([]float32, error) {
	m.Calls++
	m.LastMode = mode
	m.LastParts = parts
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, parts, mode)
	}
	return DeterministicVector(partsKey(parts), 16), nil
}

// Transcriber is a test double for ai.ITranscriber.
type Transcriber struct {
	TranscribeFunc func(ctx context.Context, audioPath string) (string, error)

	Calls int
}

func (m *Transcriber) Name() string { return "mock" }

func (m *Transcriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	m.Calls++
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audioPath)
	}
	return "mock transcript for " + audioPath, nil
}

// Reranker is a test double for ai.IReranker. Without a RerankFunc it
// returns the input order unchanged.
type Reranker struct {
	RerankFunc func(ctx context.Context, query string, docs []string) ([]ai.RankedIndex, error)

	Calls int
}

func (m *Reranker) Name() string { return "mock" }

func (m *Reranker) Rerank(ctx context.Context, query string, docs []string) ([]ai.RankedIndex, error) {
	m.Calls++
	if m.RerankFunc != nil {
		return m.RerankFunc(ctx, query, docs)
	}
	ranked := make([]ai.RankedIndex, len(docs))
	for i := range docs {
		ranked[i] = ai.RankedIndex{Index: i, Relevance: 1 - float64(i)/float64(len(docs)+1)}
	}
	return ranked, nil
}

// DeterministicVector derives a stable pseudo-random vector from a seed
// string so the same input always embeds identically.
func DeterministicVector(seed string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(seed))
	state := h.Sum32()
	vector := make([]float32, dim)
	for i := range vector {
		state = state*1664525 + 1013904223
		vector[i] = float32(state%1000) / 1000.0
	}
	return vector
}

func partsKey(parts []ai.Part) string {
	key := ""
	for _, part := range parts {
		switch p := part.(type) {
		case ai.TextPart:
			key += "t:" + p.Text + ";"
		case ai.ImagePart:
			key += "i:" + string(p.Data[:min(8, len(p.Data))]) + ";"
		}
	}
	return key
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
