package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/practiceloop/dictation/internal/queue"
)

// SweepWorker deletes stale temp audio artifacts. Synthesized files are left
// on disk after a request so the browser can fetch them; this is what
// eventually reclaims the space.
type SweepWorker struct {
	log *slog.Logger
}

func NewSweepWorker(log *slog.Logger) *SweepWorker {
	return &SweepWorker{log: log}
}

func (w *SweepWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.ArtifactSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal sweep payload: %w", err)
	}
	if payload.Dir == "" {
		return fmt.Errorf("sweep payload has no directory")
	}

	cutoff := time.Now().Add(-time.Duration(payload.MaxAgeSeconds) * time.Second)

	entries, err := os.ReadDir(payload.Dir)
	if err != nil {
		return fmt.Errorf("read artifact dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !isArtifact(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(payload.Dir, entry.Name())); err != nil {
			w.log.Warn("failed to remove stale artifact", "name", entry.Name(), "error", err)
			continue
		}
		removed++
	}

	w.log.Info("artifact sweep complete", "dir", payload.Dir, "removed", removed)
	return nil
}

// isArtifact matches only the files the pipeline produces, so unrelated
// content in a shared static directory is never touched.
func isArtifact(name string) bool {
	return strings.HasPrefix(name, "tts_output_") || strings.HasPrefix(name, "upload_")
}
