package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/practiceloop/dictation/internal/catalog"
	"github.com/practiceloop/dictation/internal/loader"
	"github.com/practiceloop/dictation/internal/queue"
)

// PrefetchWorker downloads voice model weights in the background so the
// first language switch does not stall on a multi-minute download.
type PrefetchWorker struct {
	catalog *catalog.Catalog
	loader  *loader.Loader
	log     *slog.Logger
}

func NewPrefetchWorker(cat *catalog.Catalog, l *loader.Loader, log *slog.Logger) *PrefetchWorker {
	return &PrefetchWorker{catalog: cat, loader: l, log: log}
}

func (w *PrefetchWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.VoicePrefetchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal prefetch payload: %w", err)
	}

	desc, err := w.catalog.Lookup(payload.LanguageCode)
	if err != nil {
		return err
	}
	if err := w.loader.EnsureVoice(ctx, desc); err != nil {
		return fmt.Errorf("prefetch voice for %q: %w", desc.Code, err)
	}

	w.log.Info("voice prefetch complete", "language", desc.Code)
	return nil
}
