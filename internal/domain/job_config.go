package domain

import (
	"errors"
	"fmt"
	"strings"
)

// JobParams is the raw, unvalidated input of a job request.
type JobParams struct {
	Keyword     string   `json:"keyword" yaml:"keyword"`
	Industry    *int     `json:"industry,omitempty" yaml:"industry"`
	SeedURLs    []string `json:"seed_urls,omitempty" yaml:"seedUrls"`
	MaxArticles int      `json:"max_articles,omitempty" yaml:"maxArticles"`
	Query       string   `json:"query" yaml:"query"`
	StopWords   []string `json:"stop_words" yaml:"stopWords"`
	NComponents int      `json:"n_components" yaml:"nComponents"`
	NFeatures   int      `json:"n_features" yaml:"nFeatures"`
	NTopWords   int      `json:"n_top_words" yaml:"nTopWords"`
	NTopicWords int      `json:"n_topic_words" yaml:"nTopicWords"`
}

// JobConfig is a validated, immutable parameter bundle for one job.
type JobConfig struct {
	keyword     string
	industry    int
	hasIndustry bool
	seedURLs    []string
	maxArticles int
	query       string
	stopWords   []string
	nComponents int
	nFeatures   int
	nTopWords   int
	nTopicWords int
}

// NewJobConfig validates params and returns a config, or an error wrapping
// ErrInvalidConfig listing every violation. No partial config is returned.
func NewJobConfig(p JobParams) (JobConfig, error) {
	var errs []error

	keyword := strings.TrimSpace(p.Keyword)
	industry, hasIndustry := 0, p.Industry != nil
	if hasIndustry {
		industry = *p.Industry
		if industry < IndustryAll || industry > IndustryMax {
			errs = append(errs, fmt.Errorf("industry must be between %d and %d, got %d", IndustryAll, IndustryMax, industry))
		}
	}

	if p.MaxArticles < 0 {
		errs = append(errs, fmt.Errorf("max_articles must be >= 0, got %d", p.MaxArticles))
	}
	if p.NComponents < 1 {
		errs = append(errs, fmt.Errorf("n_components must be >= 1, got %d", p.NComponents))
	}
	if p.NFeatures < 1 {
		errs = append(errs, fmt.Errorf("n_features must be >= 1, got %d", p.NFeatures))
	}
	if p.NTopWords < 1 || (p.NFeatures >= 1 && p.NTopWords > p.NFeatures) {
		errs = append(errs, fmt.Errorf("n_top_words must be between 1 and n_features, got %d", p.NTopWords))
	}
	if p.NTopicWords < 1 || (p.NFeatures >= 1 && p.NTopicWords > p.NFeatures) {
		errs = append(errs, fmt.Errorf("n_topic_words must be between 1 and n_features, got %d", p.NTopicWords))
	}

	query := NormalizeSelection(p.Query)
	if query == "" {
		errs = append(errs, errors.New("query is required"))
	} else if err := ValidateSelection(query); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return JobConfig{}, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	return JobConfig{
		keyword:     keyword,
		industry:    industry,
		hasIndustry: hasIndustry,
		seedURLs:    cleanLines(p.SeedURLs, false),
		maxArticles: p.MaxArticles,
		query:       query,
		stopWords:   cleanLines(p.StopWords, true),
		nComponents: p.NComponents,
		nFeatures:   p.NFeatures,
		nTopWords:   p.NTopWords,
		nTopicWords: p.NTopicWords,
	}, nil
}

func (c JobConfig) Keyword() string  { return c.keyword }
func (c JobConfig) MaxArticles() int { return c.maxArticles }
func (c JobConfig) Query() string    { return c.query }
func (c JobConfig) NComponents() int { return c.nComponents }
func (c JobConfig) NFeatures() int   { return c.nFeatures }
func (c JobConfig) NTopWords() int   { return c.nTopWords }
func (c JobConfig) NTopicWords() int { return c.nTopicWords }

// Industry returns the industry code and whether one was supplied.
func (c JobConfig) Industry() (int, bool) { return c.industry, c.hasIndustry }

// SeedURLs returns a copy of the seed list.
func (c JobConfig) SeedURLs() []string { return append([]string(nil), c.seedURLs...) }

// StopWords returns a copy of the stop-word set in input order.
func (c JobConfig) StopWords() []string { return append([]string(nil), c.stopWords...) }

// ShouldCrawl reports whether the job collects articles before analysis.
func (c JobConfig) ShouldCrawl() bool {
	return len(c.seedURLs) > 0 || (c.keyword != "" && c.hasIndustry)
}

// IndustryLabel returns the label used to override the scraped category, if any.
func (c JobConfig) IndustryLabel() string {
	if !c.hasIndustry || c.industry == IndustryAll {
		return ""
	}
	name, _ := IndustryName(c.industry)
	return name
}

// cleanLines trims entries and drops blanks, keeping order. Duplicates are
// dropped only when dedupe is set.
func cleanLines(in []string, dedupe bool) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if dedupe {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
		}
		out = append(out, v)
	}
	return out
}
