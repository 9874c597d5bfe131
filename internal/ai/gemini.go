package ai

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genai"
)

const (
	geminiDefaultModel     = "gemini-2.0-flash"
	geminiTranscribePrompt = "Transcribe the spoken audio. Return only the transcript text."
)

type geminiConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// geminiTranscriber transcribes audio clips by sending them inline to a
// Gemini model.
type geminiTranscriber struct {
	apiKey string
	model  string
}

func (t *geminiTranscriber) Name() string {
	return "gemini"
}

func (t *geminiTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if t.apiKey == "" {
		return "", ErrUnavailable
	}
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", err
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  t.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", err
	}
	resp, err := client.Models.GenerateContent(
		ctx,
		t.model,
		[]*genai.Content{{Parts: []*genai.Part{
			{Text: geminiTranscribePrompt},
			{InlineData: &genai.Blob{MIMEType: audioMIME(audioPath), Data: data}},
		}}},
		nil,
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

func audioMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	default:
		return "audio/mp3"
	}
}

func createGeminiTranscriber(args interface{}) (ITranscriber, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = geminiDefaultModel
	}
	return &geminiTranscriber{
		apiKey: strings.TrimSpace(cfg.APIKey),
		model:  model,
	}, nil
}

func init() {
	RegisterTranscriber("gemini", createGeminiTranscriber)
}
