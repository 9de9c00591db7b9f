package engine

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// WhisperConfig holds configuration for the Whisper ASR backend. It talks to
// any OpenAI-compatible transcription endpoint; the default is a local
// whisper.cpp server, in which case no API key is needed.
type WhisperConfig struct {
	BaseURL string // default: "http://localhost:8178/v1"
	APIKey  string
	Model   string // required: e.g. "whisper-base.en"
}

// Whisper transcribes recorded audio via the /audio/transcriptions API.
type Whisper struct {
	cfg    WhisperConfig
	client *openai.Client
}

// NewWhisper creates a Whisper backend with sensible defaults applied.
func NewWhisper(cfg WhisperConfig) (*Whisper, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8178/v1"
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("whisper model id is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	return &Whisper{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
	}, nil
}

func (w *Whisper) Name() string { return "whisper" }

// Transcribe uploads the audio file and returns the recognized text.
func (w *Whisper) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.cfg.Model,
		FilePath: audioPath,
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription: %w", err)
	}
	return resp.Text, nil
}
