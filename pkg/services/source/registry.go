package source

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dylandoyle11/RedashETL/pkg/services/config"
)

// Factory creates the Fetcher of one configured region.
type Factory func(ctx context.Context, region config.RegionConfig) (Fetcher, error)

// Registry manages source factories keyed by source kind
type Registry interface {
	// Register adds a new source factory
	Register(kind string, factory Factory) error
	// Create instantiates the fetcher of a region using the factory of its source kind
	Create(ctx context.Context, region config.RegionConfig) (Fetcher, error)
	// ListKinds returns the registered source kinds
	ListKinds() []string
}

type registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() Registry {
	return &registry{
		factories: make(map[string]Factory),
	}
}

func (r *registry) Register(kind string, factory Factory) error {
	if kind == "" {
		return fmt.Errorf("source kind cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("source %q is already registered", kind)
	}

	r.factories[kind] = factory
	return nil
}

func (r *registry) Create(ctx context.Context, region config.RegionConfig) (Fetcher, error) {
	r.mu.RLock()
	factory, exists := r.factories[region.Source]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("source %q of region %s is not registered", region.Source, region.Name)
	}

	return factory(ctx, region)
}

func (r *registry) ListKinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
