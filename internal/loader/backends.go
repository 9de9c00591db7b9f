package loader

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/practiceloop/dictation/internal/catalog"
	"github.com/practiceloop/dictation/internal/engine"
)

// backends abstracts backend construction so load failures and device
// placement can be exercised in tests without real inference binaries.
type backends interface {
	NewTranscriber(ctx context.Context, desc catalog.Descriptor, device Device) (engine.Transcriber, error)
	NewSynthesizer(ctx context.Context, desc catalog.Descriptor, device Device) (engine.Synthesizer, error)
	EnsureVoice(ctx context.Context, desc catalog.Descriptor) error
}

// engineFactory is the production backends implementation. Constructing a
// backend verifies its artifacts are obtainable: local weights exist (or are
// downloaded) and remote inference servers are reachable.
type engineFactory struct {
	cfg Config
	log *slog.Logger
}

func (f *engineFactory) NewTranscriber(ctx context.Context, desc catalog.Descriptor, device Device) (engine.Transcriber, error) {
	if err := f.checkReachable(ctx, f.cfg.WhisperBaseURL, "http://localhost:8178/v1"); err != nil {
		return nil, fmt.Errorf("asr backend unreachable: %w", err)
	}
	return engine.NewWhisper(engine.WhisperConfig{
		BaseURL: f.cfg.WhisperBaseURL,
		APIKey:  f.cfg.WhisperAPIKey,
		Model:   desc.ASRModelID,
	})
}

func (f *engineFactory) NewSynthesizer(ctx context.Context, desc catalog.Descriptor, device Device) (engine.Synthesizer, error) {
	switch desc.TTSEngine {
	case catalog.EnginePiper:
		if desc.PiperVoice == nil {
			return nil, fmt.Errorf("language %q uses piper but defines no voice", desc.Code)
		}
		onnxPath, _, err := f.ensurePiperVoice(ctx, *desc.PiperVoice)
		if err != nil {
			return nil, err
		}
		return engine.NewPiper(engine.PiperConfig{
			BinPath:   f.cfg.PiperBin,
			ModelPath: onnxPath,
			UseCUDA:   device == DeviceGPU,
		})
	case catalog.EngineMMS:
		if err := f.checkReachable(ctx, f.cfg.MMSBaseURL, "http://localhost:8179"); err != nil {
			return nil, fmt.Errorf("mms backend unreachable: %w", err)
		}
		return engine.NewMMS(engine.MMSConfig{
			BaseURL: f.cfg.MMSBaseURL,
			Model:   desc.MMSModelID,
		})
	default:
		return nil, fmt.Errorf("language %q has no TTS engine configured", desc.Code)
	}
}

func (f *engineFactory) EnsureVoice(ctx context.Context, desc catalog.Descriptor) error {
	if desc.TTSEngine != catalog.EnginePiper || desc.PiperVoice == nil {
		return nil
	}
	_, _, err := f.ensurePiperVoice(ctx, *desc.PiperVoice)
	return err
}

// checkReachable confirms the inference server answers at all. Any HTTP
// response counts; only transport errors fail the load.
func (f *engineFactory) checkReachable(ctx context.Context, baseURL, fallback string) error {
	if baseURL == "" {
		baseURL = fallback
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
