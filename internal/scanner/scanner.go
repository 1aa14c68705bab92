package scanner

import (
	"context"
	"fmt"
)

// Request carries everything a discovery strategy may need.
type Request struct {
	Keyword  string
	Industry int
	SeedURLs []string
}

// Discoverer turns a request into an ordered list of article URLs.
type Discoverer interface {
	Name() string
	Discover(ctx context.Context, req Request) ([]string, error)
}

// Registry keeps a mapping from discoverer names to their implementations.
type Registry struct {
	discoverers map[string]Discoverer
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{discoverers: map[string]Discoverer{}}
}

// Register adds or replaces a discoverer implementation.
func (r *Registry) Register(d Discoverer) {
	if r.discoverers == nil {
		r.discoverers = map[string]Discoverer{}
	}
	r.discoverers[d.Name()] = d
}

// Resolve returns a discoverer by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Discoverer, error) {
	if d, ok := r.discoverers[name]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("discoverer %s is not registered", name)
}
