package session

import (
	"context"
	"errors"
	"testing"

	"github.com/practiceloop/dictation/internal/catalog"
	"github.com/practiceloop/dictation/internal/loader"
)

func TestSlotCacheHit(t *testing.T) {
	t.Parallel()

	fl := &fakeLoader{}
	c := NewSlotCache(fl)
	desc := catalog.Descriptor{Code: "en", TTSEngine: catalog.EnginePiper, ASRModelID: "whisper-small"}
	ctx := context.Background()

	first, err := c.GetOrLoad(ctx, desc, loader.KindTTS)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	second, err := c.GetOrLoad(ctx, desc, loader.KindTTS)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if first != second {
		t.Fatal("cache hit should return the same handle")
	}
	if n := fl.count("load tts:en"); n != 1 {
		t.Fatalf("load tts:en happened %d times, want 1", n)
	}
}

func TestSlotCacheEvictsOnLanguageChange(t *testing.T) {
	t.Parallel()

	fl := &fakeLoader{}
	c := NewSlotCache(fl)
	ctx := context.Background()

	en := catalog.Descriptor{Code: "en", TTSEngine: catalog.EnginePiper}
	vi := catalog.Descriptor{Code: "vi", TTSEngine: catalog.EngineMMS}

	if _, err := c.GetOrLoad(ctx, en, loader.KindTTS); err != nil {
		t.Fatalf("load en: %v", err)
	}
	h, err := c.GetOrLoad(ctx, vi, loader.KindTTS)
	if err != nil {
		t.Fatalf("load vi: %v", err)
	}

	if n := fl.count("unload tts:en"); n != 1 {
		t.Fatalf("unload tts:en happened %d times, want 1", n)
	}
	if got := c.Resident(loader.KindTTS); got != h {
		t.Fatal("resident handle should be the vi one")
	}
}

func TestSlotCacheLoadFailureLeavesSlotEmpty(t *testing.T) {
	t.Parallel()

	fl := &fakeLoader{failTTS: map[string]bool{"vi": true}}
	c := NewSlotCache(fl)
	ctx := context.Background()

	en := catalog.Descriptor{Code: "en", TTSEngine: catalog.EnginePiper}
	vi := catalog.Descriptor{Code: "vi", TTSEngine: catalog.EngineMMS}

	if _, err := c.GetOrLoad(ctx, en, loader.KindTTS); err != nil {
		t.Fatalf("load en: %v", err)
	}

	_, err := c.GetOrLoad(ctx, vi, loader.KindTTS)
	var loadErr *loader.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("err = %v, want *loader.LoadError", err)
	}

	// The old handle was evicted and the new one never loaded: the slot must
	// be empty, not pointing at the released English voice.
	if got := c.Resident(loader.KindTTS); got != nil {
		t.Fatalf("resident = %v, want nil after failed load", got)
	}
}

func TestSlotCacheEvictIsIdempotent(t *testing.T) {
	t.Parallel()

	fl := &fakeLoader{}
	c := NewSlotCache(fl)
	ctx := context.Background()

	en := catalog.Descriptor{Code: "en", TTSEngine: catalog.EnginePiper}
	if _, err := c.GetOrLoad(ctx, en, loader.KindTTS); err != nil {
		t.Fatalf("load en: %v", err)
	}

	c.Evict(loader.KindTTS)
	c.Evict(loader.KindTTS)

	if n := fl.count("unload tts:en"); n != 1 {
		t.Fatalf("unload tts:en happened %d times, want 1", n)
	}
	if n := fl.count("close tts:en"); n != 1 {
		t.Fatalf("close tts:en happened %d times, want 1", n)
	}
}
