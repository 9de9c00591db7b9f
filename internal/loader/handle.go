package loader

import (
	"sync"
	"time"

	"github.com/practiceloop/dictation/internal/engine"
)

// Kind distinguishes the two model slots.
type Kind string

const (
	KindASR Kind = "asr"
	KindTTS Kind = "tts"
)

// Device records where a model instance was placed.
type Device string

const (
	DeviceCPU Device = "cpu"
	DeviceGPU Device = "gpu"
)

// Handle is a loaded model instance. It is reference counted: readers call
// Acquire before using the backend and Release afterwards, and Unload defers
// freeing backend resources until the last in-flight reference is gone. That
// way a language switch can evict a handle mid-inference without invalidating
// the in-flight call.
type Handle struct {
	kind     Kind
	language string
	device   Device
	loadedAt time.Time

	transcriber engine.Transcriber
	synthesizer engine.Synthesizer
	closeFn     func()

	mu       sync.Mutex
	refs     int
	released bool
	closed   bool
}

// NewASRHandle builds a handle around a transcriber. closeFn may be nil.
func NewASRHandle(language string, device Device, t engine.Transcriber, closeFn func()) *Handle {
	return &Handle{
		kind:        KindASR,
		language:    language,
		device:      device,
		loadedAt:    time.Now(),
		transcriber: t,
		closeFn:     closeFn,
	}
}

// NewTTSHandle builds a handle around a synthesizer. closeFn may be nil.
func NewTTSHandle(language string, device Device, s engine.Synthesizer, closeFn func()) *Handle {
	return &Handle{
		kind:        KindTTS,
		language:    language,
		device:      device,
		loadedAt:    time.Now(),
		synthesizer: s,
		closeFn:     closeFn,
	}
}

func (h *Handle) Kind() Kind          { return h.kind }
func (h *Handle) Language() string    { return h.language }
func (h *Handle) Device() Device      { return h.device }
func (h *Handle) LoadedAt() time.Time { return h.loadedAt }

// Transcriber returns the backend instance; only set for KindASR handles.
func (h *Handle) Transcriber() engine.Transcriber { return h.transcriber }

// Synthesizer returns the backend instance; only set for KindTTS handles.
func (h *Handle) Synthesizer() engine.Synthesizer { return h.synthesizer }

// Acquire registers an in-flight use of the backend.
func (h *Handle) Acquire() {
	h.mu.Lock()
	h.refs++
	h.mu.Unlock()
}

// Release drops an in-flight reference. If the handle was already released
// by Unload, the last Release frees the backend.
func (h *Handle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.refs > 0 {
		h.refs--
	}
	if h.released && h.refs == 0 {
		h.closeLocked()
	}
}

// Unload marks the handle evicted. Resources are freed immediately when no
// reader holds a reference, otherwise when the last one releases. Idempotent:
// unloading an already-released handle is a no-op.
func (h *Handle) Unload() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	if h.refs == 0 {
		h.closeLocked()
	}
}

func (h *Handle) closeLocked() {
	if h.closed {
		return
	}
	h.closed = true
	if h.closeFn != nil {
		h.closeFn()
	}
}
