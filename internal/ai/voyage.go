package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	voyageBaseURL        = "https://api.voyageai.com/v1"
	voyageEmbedModel     = "voyage-multimodal-3"
	voyageRerankModel    = "rerank-lite-1"
	voyageDefaultTimeout = 60 * time.Second
	voyageInputTypeQuery = "query"
	voyageInputTypeDoc   = "document"
	voyageMaxErrBodySize = 2048
)

type voyageConfig struct {
	APIKey      string `json:"api_key"`
	BaseURL     string `json:"base_url"`
	EmbedModel  string `json:"embed_model"`
	RerankModel string `json:"rerank_model"`
}

// voyageClient talks to the Voyage AI REST API. It backs both the embedder
// and the reranker capabilities.
type voyageClient struct {
	apiKey      string
	baseURL     string
	embedModel  string
	rerankModel string
	client      *http.Client
}

func newVoyageClient(cfg *voyageConfig) *voyageClient {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = voyageBaseURL
	}
	embedModel := cfg.EmbedModel
	if embedModel == "" {
		embedModel = voyageEmbedModel
	}
	rerankModel := cfg.RerankModel
	if rerankModel == "" {
		rerankModel = voyageRerankModel
	}
	return &voyageClient{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		baseURL:     baseURL,
		embedModel:  embedModel,
		rerankModel: rerankModel,
		client:      &http.Client{Timeout: voyageDefaultTimeout},
	}
}

func (c *voyageClient) Name() string {
	return "voyage"
}

type voyageContentPart struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

type voyageEmbedRequest struct {
	Inputs    []voyageEmbedInput `json:"inputs"`
	Model     string             `json:"model"`
	InputType string             `json:"input_type"`
}

type voyageEmbedInput struct {
	Content []voyageContentPart `json:"content"`
}

type voyageEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (c *voyageClient) Embed(ctx context.Context, parts []Part, mode Mode) ([]float32, error) {
	if c.apiKey == "" {
		return nil, ErrUnavailable
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty content set")
	}
	inputType := voyageInputTypeDoc
	if mode == ModeQuery {
		inputType = voyageInputTypeQuery
	}
	content := make([]voyageContentPart, 0, len(parts))
	for _, part := range parts {
		switch p := part.(type) {
		case TextPart:
			content = append(content, voyageContentPart{Type: "text", Text: p.Text})
		case ImagePart:
			mime := p.MIME
			if mime == "" {
				mime = "image/jpeg"
			}
			encoded := base64.StdEncoding.EncodeToString(p.Data)
			content = append(content, voyageContentPart{
				Type:        "image_base64",
				ImageBase64: fmt.Sprintf("data:%s;base64,%s", mime, encoded),
			})
		default:
			return nil, fmt.Errorf("unsupported content part %T", part)
		}
	}
	req := voyageEmbedRequest{
		Inputs:    []voyageEmbedInput{{Content: content}},
		Model:     c.embedModel,
		InputType: inputType,
	}
	var resp voyageEmbedResponse
	if err := c.post(ctx, "/multimodalembeddings", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}

type voyageRerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model"`
}

type voyageRerankResponse struct {
	Data []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"data"`
}

func (c *voyageClient) Rerank(ctx context.Context, query string, docs []string) ([]RankedIndex, error) {
	if c.apiKey == "" {
		return nil, ErrUnavailable
	}
	req := voyageRerankRequest{Query: query, Documents: docs, Model: c.rerankModel}
	var resp voyageRerankResponse
	if err := c.post(ctx, "/rerank", req, &resp); err != nil {
		return nil, err
	}
	ranked := make([]RankedIndex, 0, len(resp.Data))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(docs) {
			return nil, fmt.Errorf("reranker returned index %d out of range", item.Index)
		}
		ranked = append(ranked, RankedIndex{Index: item.Index, Relevance: item.RelevanceScore})
	}
	return ranked, nil
}

func (c *voyageClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, voyageMaxErrBodySize))
		return fmt.Errorf("voyage %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func createVoyageEmbedder(args interface{}) (IEmbedder, error) {
	cfg := &voyageConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return newVoyageClient(cfg), nil
}

func createVoyageReranker(args interface{}) (IReranker, error) {
	cfg := &voyageConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return newVoyageClient(cfg), nil
}

func init() {
	RegisterEmbedder("voyage", createVoyageEmbedder)
	RegisterReranker("voyage", createVoyageReranker)
}
