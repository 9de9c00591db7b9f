package engine

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestNewPiperRequiresModelPath(t *testing.T) {
	t.Parallel()

	if _, err := NewPiper(PiperConfig{BinPath: "true"}); err == nil {
		t.Fatal("expected error for missing model path")
	}
}

func TestNewPiperMissingBinary(t *testing.T) {
	t.Parallel()

	_, err := NewPiper(PiperConfig{
		BinPath:   "definitely-not-a-real-binary",
		ModelPath: "voice.onnx",
	})
	if err == nil {
		t.Fatal("expected error for missing piper binary")
	}
}

func TestPiperSynthesizePipesStdout(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("relies on a shell script stand-in")
	}

	// Stand-in that echoes a fixed WAV marker regardless of arguments.
	dir := t.TempDir()
	bin := filepath.Join(dir, "piper")
	script := "#!/bin/sh\ncat >/dev/null\nprintf 'RIFFfake'\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	p, err := NewPiper(PiperConfig{BinPath: bin, ModelPath: "voice.onnx"})
	if err != nil {
		t.Fatalf("new piper: %v", err)
	}

	audio, err := p.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if string(audio.Data) != "RIFFfake" {
		t.Fatalf("audio = %q", audio.Data)
	}
	if audio.ContentType != "audio/wav" {
		t.Fatalf("content type = %q", audio.ContentType)
	}
}
