// Package session owns the process-wide language orchestration state: which
// language is active, which model handles are resident, and what the active
// language is capable of.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/practiceloop/dictation/internal/catalog"
	"github.com/practiceloop/dictation/internal/engine"
	"github.com/practiceloop/dictation/internal/loader"
)

var (
	// ErrNoLanguage is returned before the first successful switch.
	ErrNoLanguage = errors.New("no language selected")
	// ErrASRUnavailable is returned when the active language has no usable
	// speech recognition model.
	ErrASRUnavailable = errors.New("speech recognition is not available for the active language")
	// ErrTTSUnavailable is returned when no synthesis model is resident for
	// the active language. After a successful switch this should not happen;
	// the guard covers an earlier failed switch that evicted the voice.
	ErrTTSUnavailable = errors.New("speech synthesis is not available for the active language")
)

// SwitchError reports a failed language switch. The session keeps its
// previous active language when this is returned.
type SwitchError struct {
	Code string
	Err  error
}

func (e *SwitchError) Error() string {
	return fmt.Sprintf("switch to language %q failed: %v", e.Code, e.Err)
}

func (e *SwitchError) Unwrap() error { return e.Err }

// State is a consistent snapshot of the session.
type State struct {
	ActiveLanguage string
	DisplayName    string
	TTSEngine      catalog.TTSEngine
	HasASR         bool
}

// SwitchResult is what a language switch reports back to the web layer.
type SwitchResult struct {
	ActiveLanguage string `json:"active_language"`
	HasASR         bool   `json:"has_asr"`
}

// SynthesisOutput pairs synthesized audio with the language and engine that
// produced it, captured under the session lock. A concurrent switch can land
// between a caller's Current() snapshot and the synthesis call, so callers
// that key anything on the voice must use these fields, not the snapshot.
type SynthesisOutput struct {
	Audio    *engine.Audio
	Language string
	Engine   catalog.TTSEngine
}

// Session is the process-wide singleton coordinating language switches and
// inference calls. One mutex spans the entire switch (evict, load, publish),
// so concurrent callers never observe a half-updated state. Inference itself
// runs outside the lock against a reference-counted handle.
type Session struct {
	catalog *catalog.Catalog
	cache   *SlotCache
	log     *slog.Logger

	mu     sync.Mutex
	active catalog.Descriptor // zero value until the first successful switch
	hasASR bool
}

func New(cat *catalog.Catalog, l ModelLoader, log *slog.Logger) *Session {
	return &Session{
		catalog: cat,
		cache:   NewSlotCache(l),
		log:     log,
	}
}

// SetLanguage makes code the active language, loading its TTS model
// (mandatory) and ASR model (optional). An ASR load failure downgrades the
// capability instead of failing the switch, since synthesis-only practice is
// still useful. A TTS load failure aborts the switch and the previous
// language stays active.
func (s *Session) SetLanguage(ctx context.Context, code string) (SwitchResult, error) {
	desc, err := s.catalog.Lookup(code)
	if err != nil {
		return SwitchResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.cache.GetOrLoad(ctx, desc, loader.KindTTS); err != nil {
		s.log.Error("tts load failed, keeping previous language",
			"language", code, "previous", s.active.Code, "error", err)
		return SwitchResult{}, &SwitchError{Code: code, Err: err}
	}

	hasASR := false
	if desc.HasASR() {
		if _, err := s.cache.GetOrLoad(ctx, desc, loader.KindASR); err != nil {
			s.log.Warn("asr load failed, continuing without transcription",
				"language", code, "model", desc.ASRModelID, "error", err)
		} else {
			hasASR = true
		}
	} else {
		s.cache.Evict(loader.KindASR)
	}

	s.active = desc
	s.hasASR = hasASR
	s.log.Info("language switched", "language", code, "has_asr", hasASR)
	return SwitchResult{ActiveLanguage: code, HasASR: hasASR}, nil
}

// Current returns a lock-protected snapshot of the session state.
func (s *Session) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		ActiveLanguage: s.active.Code,
		DisplayName:    s.active.DisplayName,
		TTSEngine:      s.active.TTSEngine,
		HasASR:         s.hasASR,
	}
}

// Transcribe runs the resident ASR model over the recording at audioPath.
// The lock is held only to grab a handle reference; the inference call runs
// outside it, so readers never block each other and a concurrent switch can
// proceed without invalidating this call.
func (s *Session) Transcribe(ctx context.Context, audioPath string) (string, error) {
	s.mu.Lock()
	if s.active.Code == "" {
		s.mu.Unlock()
		return "", ErrNoLanguage
	}
	if !s.hasASR {
		s.mu.Unlock()
		return "", ErrASRUnavailable
	}
	h := s.cache.Resident(loader.KindASR)
	if h == nil || h.Language() != s.active.Code {
		s.mu.Unlock()
		return "", ErrASRUnavailable
	}
	h.Acquire()
	s.mu.Unlock()
	defer h.Release()

	text, err := h.Transcriber().Transcribe(ctx, audioPath)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return text, nil
}

// Synthesize runs the resident TTS model over text, with the same locking
// discipline as Transcribe. The returned output names the language and engine
// that actually served the call.
func (s *Session) Synthesize(ctx context.Context, text string) (*SynthesisOutput, error) {
	s.mu.Lock()
	if s.active.Code == "" {
		s.mu.Unlock()
		return nil, ErrNoLanguage
	}
	h := s.cache.Resident(loader.KindTTS)
	if h == nil || h.Language() != s.active.Code {
		s.mu.Unlock()
		return nil, ErrTTSUnavailable
	}
	lang := s.active.Code
	eng := s.active.TTSEngine
	h.Acquire()
	s.mu.Unlock()
	defer h.Release()

	audio, err := h.Synthesizer().Synthesize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	return &SynthesisOutput{Audio: audio, Language: lang, Engine: eng}, nil
}

// Close evicts all resident models; used at shutdown.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Close()
	s.active = catalog.Descriptor{}
	s.hasASR = false
}
