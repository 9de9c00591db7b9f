package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/practiceloop/dictation/internal/catalog"
)

func (f *engineFactory) ensurePiperVoice(ctx context.Context, voice catalog.PiperVoice) (onnxPath, configPath string, err error) {
	if voice.Name == "" {
		return "", "", fmt.Errorf("piper voice has no name")
	}
	if err := os.MkdirAll(f.cfg.ModelsDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create models dir: %w", err)
	}

	onnxPath = filepath.Join(f.cfg.ModelsDir, voice.Name+".onnx")
	configPath = filepath.Join(f.cfg.ModelsDir, voice.Name+".onnx.json")

	if err := f.ensureFile(ctx, voice.OnnxURL, onnxPath); err != nil {
		return "", "", err
	}
	if err := f.ensureFile(ctx, voice.ConfigURL, configPath); err != nil {
		return "", "", err
	}
	return onnxPath, configPath, nil
}

func (f *engineFactory) ensureFile(ctx context.Context, url, dest string) error {
	if stat, err := os.Stat(dest); err == nil && stat.Size() > 0 {
		return nil
	}
	if url == "" {
		return fmt.Errorf("voice file %s missing and no download URL configured", dest)
	}
	return f.downloadFile(ctx, url, dest)
}

// downloadFile fetches url into dest via a temp file so a partial download
// never masquerades as a complete model.
func (f *engineFactory) downloadFile(ctx context.Context, url, dest string) error {
	f.log.Info("downloading voice model", "url", url, "dest", dest)

	tmpPath := dest + ".tmp"
	defer os.Remove(tmpPath)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, dest)
}
