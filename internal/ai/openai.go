package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	openaiBaseURL        = "https://api.openai.com/v1"
	openaiWhisperModel   = "whisper-1"
	openaiDefaultTimeout = 120 * time.Second
)

type openaiConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

// openaiTranscriber transcribes audio clips through the Whisper endpoint.
type openaiTranscriber struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func (t *openaiTranscriber) Name() string {
	return "openai"
}

func (t *openaiTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if t.apiKey == "" {
		return "", ErrUnavailable
	}
	file, err := os.Open(audioPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.WriteField("model", t.model); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("transcription: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Text), nil
}

func createOpenAITranscriber(args interface{}) (ITranscriber, error) {
	cfg := &openaiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = openaiBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openaiWhisperModel
	}
	return &openaiTranscriber{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: openaiDefaultTimeout},
	}, nil
}

func init() {
	RegisterTranscriber("openai", createOpenAITranscriber)
}
