package parser

import (
	"context"
	"fmt"
	"log/slog"

	"PressTopics/internal/domain"
	"PressTopics/internal/ports"
	"PressTopics/internal/scanner"
)

// StrategySource implements URLSource via registered discovery strategies.
type StrategySource struct {
	registry *scanner.Registry
	logger   *slog.Logger
}

var _ ports.URLSource = (*StrategySource)(nil)

// NewStrategySource wires the discoverer registry.
func NewStrategySource(reg *scanner.Registry, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		logger:   log,
	}
}

// URLs picks the seed strategy when the job carries seed URLs and the search
// strategy otherwise.
func (s *StrategySource) URLs(ctx context.Context, cfg domain.JobConfig) ([]string, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("discoverer registry is not configured")
	}

	name := "search"
	if len(cfg.SeedURLs()) > 0 {
		name = "seed"
	}

	strategy, err := s.registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	industry, _ := cfg.Industry()
	req := scanner.Request{
		Keyword:  cfg.Keyword(),
		Industry: industry,
		SeedURLs: cfg.SeedURLs(),
	}

	s.debug("discover urls", "strategy", name, "keyword", req.Keyword, "industry", req.Industry)
	urls, err := strategy.Discover(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("discover via %s: %w", name, err)
	}

	s.debug("discovery done", "strategy", name, "urls", len(urls))
	return urls, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
