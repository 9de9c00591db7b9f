package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MMSConfig holds configuration for the MMS TTS backend, which runs as an
// HTTP inference sidecar hosting the facebook/mms-tts-* VITS models.
type MMSConfig struct {
	BaseURL string // default: "http://localhost:8179"
	Model   string // required: e.g. "facebook/mms-tts-vie"
}

// MMS synthesizes speech through the sidecar's /synthesize endpoint.
type MMS struct {
	cfg        MMSConfig
	httpClient *http.Client
}

// NewMMS creates an MMS backend with sensible defaults applied.
func NewMMS(cfg MMSConfig) (*MMS, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8179"
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("mms model id is required")
	}
	return &MMS{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

func (m *MMS) Name() string { return "mms" }

// Synthesize posts text to the sidecar and returns the audio bytes.
func (m *MMS) Synthesize(ctx context.Context, text string) (*Audio, error) {
	body := map[string]string{
		"model": m.cfg.Model,
		"text":  text,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", m.cfg.BaseURL+"/synthesize", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mms request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("mms synthesis failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/wav"
	}
	return &Audio{
		Data:        audio,
		ContentType: contentType,
	}, nil
}
