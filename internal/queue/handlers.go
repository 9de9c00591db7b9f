package queue

import (
	"github.com/hibiken/asynq"
)

// NewMux binds the worker's two task handlers to their task types in one
// place, so the type constants and the workers serving them cannot drift
// apart.
func NewMux(sweep, prefetch asynq.Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeArtifactSweep, sweep)
	mux.Handle(TypeVoicePrefetch, prefetch)
	return mux
}
