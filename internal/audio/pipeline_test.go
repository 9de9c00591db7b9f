package audio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/practiceloop/dictation/internal/engine"
	"github.com/practiceloop/dictation/internal/session"
)

// fakeSpeech records the artifact path it was handed and whether it existed
// at call time.
type fakeSpeech struct {
	transcription  string
	transcribeErr  error
	synthErr       error
	seenPath       string
	pathExisted    bool
	synthesizeHits int
}

func (f *fakeSpeech) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f.seenPath = audioPath
	_, err := os.Stat(audioPath)
	f.pathExisted = err == nil
	if f.transcribeErr != nil {
		return "", f.transcribeErr
	}
	return f.transcription, nil
}

func (f *fakeSpeech) Synthesize(ctx context.Context, text string) (*session.SynthesisOutput, error) {
	if f.synthErr != nil {
		return nil, f.synthErr
	}
	f.synthesizeHits++
	return &session.SynthesisOutput{
		Audio:    &engine.Audio{Data: []byte("wav:" + text), ContentType: "audio/wav"},
		Language: "en",
		Engine:   "piper",
	}, nil
}

func (f *fakeSpeech) Current() session.State {
	return session.State{ActiveLanguage: "en", TTSEngine: "piper", HasASR: true}
}

type memCache struct {
	m map[string]string
}

func (c *memCache) Get(ctx context.Context, key string) (string, bool) {
	v, ok := c.m[key]
	return v, ok
}

func (c *memCache) Set(ctx context.Context, key, filename string) {
	c.m[key] = filename
}

func newTestPipeline(t *testing.T, speech Speech, cache ResultCache) (*Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	p, err := NewPipeline(dir, "/static/temp_audio", speech, cache, log)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p, dir
}

func TestHandleRecordingEmptyPayload(t *testing.T) {
	t.Parallel()

	p, _ := newTestPipeline(t, &fakeSpeech{}, nil)
	if _, err := p.HandleRecording(context.Background(), nil); !errors.Is(err, ErrInvalidAudio) {
		t.Fatalf("err = %v, want ErrInvalidAudio", err)
	}
}

func TestHandleRecordingCleansUpTempFile(t *testing.T) {
	t.Parallel()

	speech := &fakeSpeech{transcription: "hello world"}
	p, dir := newTestPipeline(t, speech, nil)

	text, err := p.HandleRecording(context.Background(), []byte("RIFFdata"))
	if err != nil {
		t.Fatalf("handle recording: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("transcription = %q", text)
	}
	if !speech.pathExisted {
		t.Fatal("temp recording did not exist during transcription")
	}
	if _, err := os.Stat(speech.seenPath); !os.IsNotExist(err) {
		t.Fatalf("temp recording still on disk: %v", err)
	}
	assertEmptyDir(t, dir)
}

func TestHandleRecordingCleansUpOnTranscriptionError(t *testing.T) {
	t.Parallel()

	speech := &fakeSpeech{transcribeErr: errors.New("model exploded")}
	p, dir := newTestPipeline(t, speech, nil)

	if _, err := p.HandleRecording(context.Background(), []byte("RIFFdata")); err == nil {
		t.Fatal("expected transcription error")
	}
	if _, err := os.Stat(speech.seenPath); !os.IsNotExist(err) {
		t.Fatalf("temp recording still on disk after error: %v", err)
	}
	assertEmptyDir(t, dir)
}

func TestHandleSynthesisEmptyText(t *testing.T) {
	t.Parallel()

	p, _ := newTestPipeline(t, &fakeSpeech{}, nil)
	for _, text := range []string{"", "   \n"} {
		if _, err := p.HandleSynthesis(context.Background(), text); !errors.Is(err, ErrEmptyText) {
			t.Fatalf("text %q: err = %v, want ErrEmptyText", text, err)
		}
	}
}

func TestHandleSynthesisWritesUniqueArtifacts(t *testing.T) {
	t.Parallel()

	p, dir := newTestPipeline(t, &fakeSpeech{}, nil)
	ctx := context.Background()

	first, err := p.HandleSynthesis(ctx, "the quick brown fox")
	if err != nil {
		t.Fatalf("synthesis: %v", err)
	}
	second, err := p.HandleSynthesis(ctx, "the quick brown fox")
	if err != nil {
		t.Fatalf("synthesis: %v", err)
	}

	if first.AudioURL == second.AudioURL {
		t.Fatal("concurrent-safe naming requires unique artifacts per request")
	}
	if !strings.HasPrefix(first.AudioURL, "/static/temp_audio/tts_output_") {
		t.Fatalf("unexpected URL %q", first.AudioURL)
	}

	name := filepath.Base(first.AudioURL)
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "wav:the quick brown fox" {
		t.Fatalf("artifact content = %q", data)
	}
}

func TestHandleSynthesisReusesCachedArtifact(t *testing.T) {
	t.Parallel()

	speech := &fakeSpeech{}
	p, _ := newTestPipeline(t, speech, &memCache{m: map[string]string{}})
	ctx := context.Background()

	first, err := p.HandleSynthesis(ctx, "she sells seashells")
	if err != nil {
		t.Fatalf("synthesis: %v", err)
	}
	second, err := p.HandleSynthesis(ctx, "she sells seashells")
	if err != nil {
		t.Fatalf("synthesis: %v", err)
	}

	if first.AudioURL != second.AudioURL {
		t.Fatalf("cached synthesis returned %q, want %q", second.AudioURL, first.AudioURL)
	}
	if speech.synthesizeHits != 1 {
		t.Fatalf("backend synthesized %d times, want 1", speech.synthesizeHits)
	}
}

func TestHandleSynthesisIgnoresStaleCacheEntry(t *testing.T) {
	t.Parallel()

	speech := &fakeSpeech{}
	cache := &memCache{m: map[string]string{}}
	p, dir := newTestPipeline(t, speech, cache)
	ctx := context.Background()

	first, err := p.HandleSynthesis(ctx, "peter piper")
	if err != nil {
		t.Fatalf("synthesis: %v", err)
	}

	// The sweep deleted the artifact but the cache entry survived.
	if err := os.Remove(filepath.Join(dir, filepath.Base(first.AudioURL))); err != nil {
		t.Fatal(err)
	}

	second, err := p.HandleSynthesis(ctx, "peter piper")
	if err != nil {
		t.Fatalf("synthesis after sweep: %v", err)
	}
	if second.AudioURL == first.AudioURL {
		t.Fatal("pipeline returned a URL for a deleted artifact")
	}
	if speech.synthesizeHits != 2 {
		t.Fatalf("backend synthesized %d times, want 2", speech.synthesizeHits)
	}
}

// switchingSpeech reports "en" as active but serves the first synthesis in
// "vi", the interleaving a concurrent language switch produces between the
// pipeline's state snapshot and the synthesis call.
type switchingSpeech struct {
	calls int
}

func (f *switchingSpeech) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return "", nil
}

func (f *switchingSpeech) Synthesize(ctx context.Context, text string) (*session.SynthesisOutput, error) {
	f.calls++
	lang := "en"
	if f.calls == 1 {
		lang = "vi"
	}
	return &session.SynthesisOutput{
		Audio:    &engine.Audio{Data: []byte(lang + ":" + text), ContentType: "audio/wav"},
		Language: lang,
		Engine:   "piper",
	}, nil
}

func (f *switchingSpeech) Current() session.State {
	return session.State{ActiveLanguage: "en", TTSEngine: "piper", HasASR: true}
}

func TestHandleSynthesisCachesUnderLanguageThatServedIt(t *testing.T) {
	t.Parallel()

	speech := &switchingSpeech{}
	p, dir := newTestPipeline(t, speech, &memCache{m: map[string]string{}})
	ctx := context.Background()

	// First request races with a switch: synthesized by vi despite the en
	// snapshot. It must not be cached under en's key.
	if _, err := p.HandleSynthesis(ctx, "hello"); err != nil {
		t.Fatalf("synthesis: %v", err)
	}

	second, err := p.HandleSynthesis(ctx, "hello")
	if err != nil {
		t.Fatalf("synthesis: %v", err)
	}
	if speech.calls != 2 {
		t.Fatalf("backend synthesized %d times, want 2 (vi artifact must not satisfy an en request)", speech.calls)
	}
	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(second.AudioURL)))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "en:hello" {
		t.Fatalf("active language is en but artifact contains %q", data)
	}

	// The en-keyed entry written by the second request is reusable.
	third, err := p.HandleSynthesis(ctx, "hello")
	if err != nil {
		t.Fatalf("synthesis: %v", err)
	}
	if third.AudioURL != second.AudioURL || speech.calls != 2 {
		t.Fatalf("en artifact not reused: url %q vs %q, calls %d", third.AudioURL, second.AudioURL, speech.calls)
	}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("dir not empty: %v", entries)
	}
}
