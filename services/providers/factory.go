package providers

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrProviderNotFound is returned when no builder is registered for a kind
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderAlreadyRegistered is returned when trying to register a duplicate kind
	ErrProviderAlreadyRegistered = errors.New("provider already registered")
)

// Builder creates an adapter for one call. cfg carries the resolved API key on top
// of the base configuration registered for the kind.
type Builder func(cfg ProviderConfig) Provider

type registration struct {
	build Builder
	base  ProviderConfig
}

// Factory selects an adapter by provider kind. Adapters are built per call so the
// freshly resolved credential is always used.
type Factory struct {
	mu       sync.RWMutex
	builders map[Kind]registration
}

// NewFactory creates an empty factory
func NewFactory() *Factory {
	return &Factory{
		builders: make(map[Kind]registration),
	}
}

// Register adds a builder together with its base configuration
func (f *Factory) Register(kind Kind, base ProviderConfig, build Builder) error {
	if build == nil {
		return errors.New("builder cannot be nil")
	}
	if kind == "" {
		return errors.New("provider kind cannot be empty")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.builders[kind]; exists {
		return fmt.Errorf("%w: %s", ErrProviderAlreadyRegistered, kind)
	}
	f.builders[kind] = registration{build: build, base: base}
	return nil
}

// New builds the adapter for kind using apiKey
func (f *Factory) New(kind Kind, apiKey string) (Provider, error) {
	f.mu.RLock()
	reg, exists := f.builders[kind]
	f.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, kind)
	}

	cfg := reg.base
	cfg.APIKey = apiKey
	return reg.build(cfg), nil
}

// Kinds returns the registered kinds in sorted order
func (f *Factory) Kinds() []Kind {
	f.mu.RLock()
	defer f.mu.RUnlock()

	kinds := make([]Kind, 0, len(f.builders))
	for kind := range f.builders {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Count returns the number of registered kinds
func (f *Factory) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.builders)
}
