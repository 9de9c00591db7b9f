// Package audio manages transient audio artifacts around the inference
// calls: uploaded recordings live only for the duration of their request,
// synthesized output is written under a uuid name where the static layer can
// serve it.
package audio

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/practiceloop/dictation/internal/session"
)

var (
	// ErrInvalidAudio is returned for an empty recording payload.
	ErrInvalidAudio = errors.New("invalid audio payload")
	// ErrEmptyText is returned when there is nothing to synthesize.
	ErrEmptyText = errors.New("text must not be empty")
)

// Speech is the slice of the session the pipeline uses.
type Speech interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
	Synthesize(ctx context.Context, text string) (*session.SynthesisOutput, error)
	Current() session.State
}

// ResultCache maps a synthesis fingerprint to a previously written artifact
// filename. Implementations are best-effort; misses are never errors.
type ResultCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, filename string)
}

// Synthesis points the caller at a servable audio artifact.
type Synthesis struct {
	AudioURL string `json:"audio_url"`
}

// Pipeline is stateless per request; all shared state lives in the session.
type Pipeline struct {
	dir       string // filesystem location of temp audio artifacts
	urlPrefix string // URL path under which dir is served
	speech    Speech
	cache     ResultCache // may be nil
	log       *slog.Logger
}

func NewPipeline(dir, urlPrefix string, speech Speech, cache ResultCache, log *slog.Logger) (*Pipeline, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp audio dir: %w", err)
	}
	return &Pipeline{
		dir:       dir,
		urlPrefix: urlPrefix,
		speech:    speech,
		cache:     cache,
		log:       log,
	}, nil
}

// HandleRecording writes the uploaded bytes to a scoped temp file, runs
// transcription, and removes the file on every exit path.
func (p *Pipeline) HandleRecording(ctx context.Context, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", ErrInvalidAudio
	}

	tmpPath := filepath.Join(p.dir, "upload_"+uuid.New().String()+".wav")
	if err := os.WriteFile(tmpPath, raw, 0o644); err != nil {
		return "", fmt.Errorf("write recording: %w", err)
	}
	defer func() {
		// Cleanup failure must not mask the transcription result.
		if err := os.Remove(tmpPath); err != nil {
			p.log.Warn("failed to remove temp recording", "path", tmpPath, "error", err)
		}
	}()

	return p.speech.Transcribe(ctx, tmpPath)
}

// HandleSynthesis synthesizes text with the active language's voice and
// returns a URL the caller can fetch. The artifact is left on disk for the
// static layer; the worker's sweep task removes it later. Repeated requests
// for the same sentence reuse the cached artifact when one still exists.
func (p *Pipeline) HandleSynthesis(ctx context.Context, text string) (Synthesis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Synthesis{}, ErrEmptyText
	}

	if p.cache != nil {
		st := p.speech.Current()
		key := synthKey(st.ActiveLanguage, string(st.TTSEngine), text)
		if name, ok := p.cache.Get(ctx, key); ok {
			if _, err := os.Stat(filepath.Join(p.dir, name)); err == nil {
				return Synthesis{AudioURL: path.Join(p.urlPrefix, name)}, nil
			}
		}
	}

	out, err := p.speech.Synthesize(ctx, text)
	if err != nil {
		return Synthesis{}, err
	}

	// Unique per request so concurrent synthesis calls never collide.
	name := "tts_output_" + uuid.New().String() + extensionFor(out.Audio.ContentType)
	if err := os.WriteFile(filepath.Join(p.dir, name), out.Audio.Data, 0o644); err != nil {
		return Synthesis{}, fmt.Errorf("write synthesized audio: %w", err)
	}

	if p.cache != nil {
		// Key on the voice that actually ran. A language switch landing
		// between the snapshot above and the synthesis call would otherwise
		// cache this artifact under the previous language.
		p.cache.Set(ctx, synthKey(out.Language, string(out.Engine), text), name)
	}
	return Synthesis{AudioURL: path.Join(p.urlPrefix, name)}, nil
}

func synthKey(lang, engineName, text string) string {
	sum := sha256.Sum256([]byte(lang + "\x00" + engineName + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func extensionFor(contentType string) string {
	switch contentType {
	case "audio/mpeg":
		return ".mp3"
	default:
		return ".wav"
	}
}
