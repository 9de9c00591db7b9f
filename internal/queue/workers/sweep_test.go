package workers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"github.com/practiceloop/dictation/internal/queue"
)

func sweepTask(t *testing.T, dir string, maxAge int64) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(queue.ArtifactSweepPayload{Dir: dir, MaxAgeSeconds: maxAge})
	if err != nil {
		t.Fatal(err)
	}
	return asynq.NewTask(queue.TypeArtifactSweep, payload)
}

func writeAged(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSweepRemovesOnlyStaleArtifacts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stale := writeAged(t, dir, "tts_output_old.wav", 2*time.Hour)
	staleUpload := writeAged(t, dir, "upload_old.wav", 2*time.Hour)
	fresh := writeAged(t, dir, "tts_output_new.wav", time.Minute)
	unrelated := writeAged(t, dir, "favicon.ico", 2*time.Hour)

	w := NewSweepWorker(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := w.ProcessTask(context.Background(), sweepTask(t, dir, 3600)); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	for _, gone := range []string{stale, staleUpload} {
		if _, err := os.Stat(gone); !os.IsNotExist(err) {
			t.Fatalf("%s should have been swept", gone)
		}
	}
	for _, kept := range []string{fresh, unrelated} {
		if _, err := os.Stat(kept); err != nil {
			t.Fatalf("%s should have survived the sweep: %v", kept, err)
		}
	}
}

func TestSweepRejectsEmptyDir(t *testing.T) {
	t.Parallel()

	w := NewSweepWorker(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := w.ProcessTask(context.Background(), sweepTask(t, "", 3600)); err == nil {
		t.Fatal("expected error for empty sweep directory")
	}
}
