package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable marks a capability that is not configured or whose backing
// service rejected the call.
var ErrUnavailable = errors.New("ai capability unavailable")

// Mode selects the embedding behavior. The embedding model is asymmetric:
// query mode is tuned for short search text, document mode for indexed
// content. The two must not be mixed.
type Mode string

const (
	ModeQuery    Mode = "query"
	ModeDocument Mode = "document"
)

// Part is one element of a multimodal content set, either text or an
// encoded image. The order of parts is significant.
type Part interface {
	isPart()
}

type TextPart struct {
	Text string
}

func (TextPart) isPart() {}

type ImagePart struct {
	Data []byte
	MIME string
}

func (ImagePart) isPart() {}

// ITranscriber converts one audio clip into text.
type ITranscriber interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// IEmbedder converts an ordered content set into a single fixed-dimension
// vector. Document mode accepts mixed text+image parts; query mode is
// text-only.
type IEmbedder interface {
	Name() string
	Embed(ctx context.Context, parts []Part, mode Mode) ([]float32, error)
}

// RankedIndex is one reranker verdict: the candidate's position in the input
// list plus its relevance. Results come back ordered by descending relevance.
type RankedIndex struct {
	Index     int
	Relevance float64
}

// IReranker reorders candidate texts by relevance to a query.
type IReranker interface {
	Name() string
	Rerank(ctx context.Context, query string, docs []string) ([]RankedIndex, error)
}

type (
	TranscriberFactory func(args interface{}) (ITranscriber, error)
	EmbedderFactory    func(args interface{}) (IEmbedder, error)
	RerankerFactory    func(args interface{}) (IReranker, error)
)

var (
	transcriberRegistry = map[string]TranscriberFactory{}
	embedderRegistry    = map[string]EmbedderFactory{}
	rerankerRegistry    = map[string]RerankerFactory{}
)

func RegisterTranscriber(name string, factory TranscriberFactory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		return
	}
	transcriberRegistry[key] = factory
}

func RegisterEmbedder(name string, factory EmbedderFactory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		return
	}
	embedderRegistry[key] = factory
}

func RegisterReranker(name string, factory RerankerFactory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		return
	}
	rerankerRegistry[key] = factory
}

func NewTranscriber(name string, args interface{}) (ITranscriber, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("ai.transcriber.provider is required")
	}
	factory := transcriberRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported transcriber provider: %s", name)
	}
	return factory(args)
}

func NewEmbedder(name string, args interface{}) (IEmbedder, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("ai.embedder.provider is required")
	}
	factory := embedderRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported embedder provider: %s", name)
	}
	return factory(args)
}

func NewReranker(name string, args interface{}) (IReranker, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("ai.reranker.provider is required")
	}
	factory := rerankerRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported reranker provider: %s", name)
	}
	return factory(args)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
