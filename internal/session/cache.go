package session

import (
	"context"

	"github.com/practiceloop/dictation/internal/catalog"
	"github.com/practiceloop/dictation/internal/loader"
)

// ModelLoader is the slice of the loader the cache needs.
type ModelLoader interface {
	Load(ctx context.Context, desc catalog.Descriptor, kind loader.Kind) (*loader.Handle, error)
	Unload(h *loader.Handle)
}

// SlotCache keeps at most one resident model handle per kind. The deployment
// target cannot fit every language's models in accelerator memory at once, so
// this is a deliberate capacity-1 cache rather than an LRU-N; eviction
// happens only when the requested language differs from the resident one.
//
// SlotCache is not safe for concurrent use on its own: the Session's lock
// serializes every call.
type SlotCache struct {
	loader   ModelLoader
	resident map[loader.Kind]*loader.Handle
}

func NewSlotCache(l ModelLoader) *SlotCache {
	return &SlotCache{
		loader:   l,
		resident: make(map[loader.Kind]*loader.Handle),
	}
}

// GetOrLoad returns the resident handle when it already serves desc's
// language, otherwise evicts it and loads the new one. On load failure the
// slot is left empty — the previous model is not restored.
func (c *SlotCache) GetOrLoad(ctx context.Context, desc catalog.Descriptor, kind loader.Kind) (*loader.Handle, error) {
	if h := c.resident[kind]; h != nil {
		if h.Language() == desc.Code {
			return h, nil
		}
		c.loader.Unload(h)
		delete(c.resident, kind)
	}

	h, err := c.loader.Load(ctx, desc, kind)
	if err != nil {
		return nil, err
	}
	c.resident[kind] = h
	return h, nil
}

// Resident returns the currently loaded handle for kind, or nil.
func (c *SlotCache) Resident(kind loader.Kind) *loader.Handle {
	return c.resident[kind]
}

// Evict unloads the resident handle for kind, if any.
func (c *SlotCache) Evict(kind loader.Kind) {
	if h := c.resident[kind]; h != nil {
		c.loader.Unload(h)
		delete(c.resident, kind)
	}
}

// Close evicts everything; used at shutdown.
func (c *SlotCache) Close() {
	c.Evict(loader.KindASR)
	c.Evict(loader.KindTTS)
}
