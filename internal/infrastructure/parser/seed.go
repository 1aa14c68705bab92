package parser

import (
	"context"
	"fmt"
	"os"
	"strings"

	"PressTopics/internal/domain"
	"PressTopics/internal/scanner"
)

// SeedDiscoverer returns a caller-supplied URL list unchanged.
type SeedDiscoverer struct{}

var _ scanner.Discoverer = SeedDiscoverer{}

// Name identifies the strategy inside the registry.
func (SeedDiscoverer) Name() string {
	return "seed"
}

// Discover returns the seed URLs in order.
func (SeedDiscoverer) Discover(_ context.Context, req scanner.Request) ([]string, error) {
	if len(req.SeedURLs) == 0 {
		return nil, domain.ErrNoURLs
	}
	return append([]string(nil), req.SeedURLs...), nil
}

// ParseSeedList splits text into URLs, one per whitespace-separated field.
func ParseSeedList(text string) []string {
	return strings.Fields(text)
}

// ReadSeedFile loads a URL list, one URL per line.
func ReadSeedFile(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return ParseSeedList(string(raw)), nil
}
