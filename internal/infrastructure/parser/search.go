package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"PressTopics/internal/domain"
	"PressTopics/internal/scanner"
)

const (
	countSelector = "h2.m-headline_text span"
	itemSelector  = "li.m-newsListDotBorder_item a.m-newsListDotBorder_link"
)

var digitsExpr = regexp.MustCompile(`\d+`)

// SearchDiscoverer pages through press-release search results.
type SearchDiscoverer struct {
	client    *http.Client
	searchURL string
	baseURL   string
	pageSize  int
	logger    *slog.Logger
}

var _ scanner.Discoverer = (*SearchDiscoverer)(nil)

// NewSearchDiscoverer wires an HTTP client; pageSize defaults to 30.
func NewSearchDiscoverer(client *http.Client, searchURL, baseURL string, pageSize int, log *slog.Logger) *SearchDiscoverer {
	if pageSize <= 0 {
		pageSize = 30
	}
	return &SearchDiscoverer{
		client:    newHTTPClient(client),
		searchURL: searchURL,
		baseURL:   baseURL,
		pageSize:  pageSize,
		logger:    log,
	}
}

// Name identifies the strategy inside the registry.
func (s *SearchDiscoverer) Name() string {
	return "search"
}

// Discover searches one industry, or every industry when Industry is 0, and
// returns the union of article URLs in discovery order.
func (s *SearchDiscoverer) Discover(ctx context.Context, req scanner.Request) ([]string, error) {
	if req.Industry < domain.IndustryAll || req.Industry > domain.IndustryMax {
		return nil, fmt.Errorf("%w: industry must be between %d and %d, got %d",
			domain.ErrDiscovery, domain.IndustryAll, domain.IndustryMax, req.Industry)
	}

	industries := []int{req.Industry}
	if req.Industry == domain.IndustryAll {
		industries = industries[:0]
		for code := 1; code <= domain.IndustryMax; code++ {
			industries = append(industries, code)
		}
	}

	var results []string
	seen := map[string]struct{}{}
	for _, industry := range industries {
		urls, err := s.discoverIndustry(ctx, req.Keyword, industry)
		if err != nil {
			return nil, err
		}
		for _, u := range urls {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			results = append(results, u)
		}
	}

	s.debug("items found", "keyword", req.Keyword, "industry", req.Industry, "count", len(results))
	if len(results) == 0 {
		return nil, domain.ErrNoURLs
	}
	return results, nil
}

func (s *SearchDiscoverer) discoverIndustry(ctx context.Context, keyword string, industry int) ([]string, error) {
	startURL, err := buildSearchURL(s.searchURL, keyword, industry, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDiscovery, err)
	}

	doc, err := fetchDocument(ctx, s.client, startURL)
	if err != nil {
		return nil, fmt.Errorf("%w: industry %d: %w", domain.ErrDiscovery, industry, err)
	}

	total, err := resultCount(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: industry %d: %w", domain.ErrDiscovery, industry, err)
	}

	pages := (total + s.pageSize - 1) / s.pageSize
	s.debug("search results", "industry", industry, "items", total, "pages", pages)

	var urls []string
	for page := 1; page <= pages; page++ {
		pageURL, err := buildSearchURL(s.searchURL, keyword, industry, page)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrDiscovery, err)
		}

		doc, err := fetchDocument(ctx, s.client, pageURL)
		if err != nil {
			return nil, fmt.Errorf("%w: industry %d page %d: %w", domain.ErrDiscovery, industry, page, err)
		}

		doc.Find(itemSelector).Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok || strings.TrimSpace(href) == "" {
				return
			}
			if abs, err := resolveURL(s.baseURL, href); err == nil {
				urls = append(urls, abs)
			}
		})
	}

	return urls, nil
}

func resultCount(doc *goquery.Document) (int, error) {
	heading := doc.Find(countSelector).First()
	if heading.Length() == 0 {
		return 0, fmt.Errorf("result count element not found")
	}
	match := digitsExpr.FindString(heading.Text())
	if match == "" {
		return 0, fmt.Errorf("result count not readable: %q", heading.Text())
	}
	return strconv.Atoi(match)
}

// buildSearchURL adds keyword, industry and (for page > 0) the page number.
func buildSearchURL(base, keyword string, industry, page int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid search url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("searchKeyword", keyword)
	query.Set("au", strconv.Itoa(industry))
	if page > 0 {
		query.Set("hm", strconv.Itoa(page))
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func resolveURL(base, href string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(ref).String(), nil
}

func (s *SearchDiscoverer) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
