package engine

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// PiperConfig holds configuration for the local Piper TTS backend.
type PiperConfig struct {
	BinPath   string // default: "piper"
	ModelPath string // required: path to the .onnx voice model
	UseCUDA   bool
}

// Piper synthesizes speech using the Piper binary via subprocess. Voice
// characteristics are controlled by the model file, not runtime flags.
type Piper struct {
	cfg PiperConfig
}

// NewPiper creates a Piper backend. The voice model must already be on disk;
// obtaining it is the loader's job.
func NewPiper(cfg PiperConfig) (*Piper, error) {
	if cfg.BinPath == "" {
		cfg.BinPath = "piper"
	}
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("piper voice model path is required")
	}
	if _, err := exec.LookPath(cfg.BinPath); err != nil {
		return nil, fmt.Errorf("piper binary not found: %w", err)
	}
	return &Piper{cfg: cfg}, nil
}

func (p *Piper) Name() string { return "piper" }

// Synthesize pipes text into Piper via stdin and returns the WAV output from
// stdout.
func (p *Piper) Synthesize(ctx context.Context, text string) (*Audio, error) {
	args := []string{"--model", p.cfg.ModelPath, "--output_file", "-"}
	if p.cfg.UseCUDA {
		args = append(args, "--cuda")
	}
	cmd := exec.CommandContext(ctx, p.cfg.BinPath, args...)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("piper failed: %w (stderr: %s)", err, stderr.String())
	}

	return &Audio{
		Data:        stdout.Bytes(),
		ContentType: "audio/wav",
	}, nil
}
