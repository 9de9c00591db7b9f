// Package loader turns language descriptors into ready-to-use model handles.
// It owns device placement (GPU first, CPU fallback) and the one-time
// download of voice model weights.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/practiceloop/dictation/internal/catalog"
)

// LoadError reports that a backend model instance could not be constructed.
type LoadError struct {
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model load failed: %s: %v", e.Reason, e.Err)
	}
	return "model load failed: " + e.Reason
}

func (e *LoadError) Unwrap() error { return e.Err }

// Config holds loader settings.
type Config struct {
	ModelsDir      string // where downloaded voice weights live
	Device         string // "auto", "cpu" or "gpu"
	PiperBin       string
	WhisperBaseURL string
	WhisperAPIKey  string
	MMSBaseURL     string
}

// Loader constructs and releases model handles. Safe for concurrent use; the
// session serializes loads per switch anyway.
type Loader struct {
	cfg      Config
	log      *slog.Logger
	backends backends
	hasGPU   func() bool
}

func New(cfg Config, log *slog.Logger) *Loader {
	if cfg.ModelsDir == "" {
		cfg.ModelsDir = "models"
	}
	l := &Loader{
		cfg: cfg,
		log: log,
	}
	l.backends = &engineFactory{cfg: cfg, log: log}
	switch cfg.Device {
	case "cpu":
		l.hasGPU = func() bool { return false }
	case "gpu", "cuda":
		l.hasGPU = func() bool { return true }
	default:
		l.hasGPU = detectGPU
	}
	return l
}

// Load constructs the backend instance for the requested kind. GPU placement
// is attempted first when an accelerator is present; on failure the load is
// retried on CPU. A returned handle is always fully constructed.
func (l *Loader) Load(ctx context.Context, desc catalog.Descriptor, kind Kind) (*Handle, error) {
	device := DeviceCPU
	if l.hasGPU() {
		device = DeviceGPU
	}

	h, err := l.loadOn(ctx, desc, kind, device)
	if err != nil && device == DeviceGPU {
		l.log.Warn("gpu load failed, falling back to cpu",
			"language", desc.Code, "kind", string(kind), "error", err)
		h, err = l.loadOn(ctx, desc, kind, DeviceCPU)
	}
	if err != nil {
		return nil, err
	}
	l.log.Info("model loaded",
		"language", desc.Code, "kind", string(kind), "device", string(h.Device()))
	return h, nil
}

func (l *Loader) loadOn(ctx context.Context, desc catalog.Descriptor, kind Kind, device Device) (*Handle, error) {
	switch kind {
	case KindASR:
		if !desc.HasASR() {
			return nil, &LoadError{Reason: fmt.Sprintf("language %q declares no ASR model", desc.Code)}
		}
		t, err := l.backends.NewTranscriber(ctx, desc, device)
		if err != nil {
			return nil, &LoadError{Reason: "construct transcriber", Err: err}
		}
		return NewASRHandle(desc.Code, device, t, nil), nil
	case KindTTS:
		s, err := l.backends.NewSynthesizer(ctx, desc, device)
		if err != nil {
			return nil, &LoadError{Reason: "construct synthesizer", Err: err}
		}
		return NewTTSHandle(desc.Code, device, s, nil), nil
	default:
		return nil, &LoadError{Reason: fmt.Sprintf("unknown model kind %q", kind)}
	}
}

// Unload releases the backend resources behind h once no in-flight call holds
// a reference. Calling it again, or with nil, is a no-op.
func (l *Loader) Unload(h *Handle) {
	if h == nil {
		return
	}
	h.Unload()
	l.log.Info("model unloaded", "language", h.Language(), "kind", string(h.Kind()))
}

// EnsureVoice downloads the descriptor's voice weights if they are not on
// disk yet. Only Piper voices have local weights; for other engines this is a
// no-op. The worker's prefetch task calls this ahead of the first switch.
func (l *Loader) EnsureVoice(ctx context.Context, desc catalog.Descriptor) error {
	return l.backends.EnsureVoice(ctx, desc)
}

// detectGPU checks for an NVIDIA device node. CUDA_VISIBLE_DEVICES=-1 forces
// CPU regardless.
func detectGPU() bool {
	if os.Getenv("CUDA_VISIBLE_DEVICES") == "-1" {
		return false
	}
	_, err := os.Stat("/dev/nvidia0")
	return err == nil
}
