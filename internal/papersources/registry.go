package papersources

import (
	"sort"
	"sync"

	"github.com/helixir/literature-search-service/internal/domain"
)

// Factory binds an engine's descriptor and mapper to a fetcher.
type Factory func(Fetcher) *Adapter

// Registry maps engines to the factories that build their adapters.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[domain.Engine]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[domain.Engine]Factory),
	}
}

// Register adds a factory for engine, replacing any existing one.
func (r *Registry) Register(engine domain.Engine, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[engine] = factory
}

// Lookup returns the factory registered for engine.
func (r *Registry) Lookup(engine domain.Engine) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[engine]
	return f, ok
}

// Adapter builds the adapter for engine on top of fetcher.
// An engine without a factory yields an UnsupportedEngineError.
func (r *Registry) Adapter(engine domain.Engine, fetcher Fetcher) (*Adapter, error) {
	factory, ok := r.Lookup(engine)
	if !ok {
		return nil, domain.NewUnsupportedEngineError(string(engine))
	}
	return factory(fetcher), nil
}

// Engines returns the registered engines. Built-in engines come first in
// canonical order, followed by any others sorted by name.
func (r *Registry) Engines() []domain.Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()

	engines := make([]domain.Engine, 0, len(r.factories))
	known := make(map[domain.Engine]struct{})
	for _, e := range domain.AllEngines() {
		known[e] = struct{}{}
		if _, ok := r.factories[e]; ok {
			engines = append(engines, e)
		}
	}

	var extra []domain.Engine
	for e := range r.factories {
		if _, ok := known[e]; !ok {
			extra = append(extra, e)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })

	return append(engines, extra...)
}

// Descriptors returns the descriptor of every registered engine in Engines
// order. Descriptors are static, so a nil fetcher is used to build them.
func (r *Registry) Descriptors() []Descriptor {
	engines := r.Engines()
	out := make([]Descriptor, 0, len(engines))
	for _, e := range engines {
		if factory, ok := r.Lookup(e); ok {
			out = append(out, factory(nil).Descriptor())
		}
	}
	return out
}
