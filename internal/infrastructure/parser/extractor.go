package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"PressTopics/internal/domain"
	"PressTopics/internal/ports"
)

const (
	titleSelector    = "h1.cmn-article_title span.JSID_key_fonthln"
	dateSelector     = "dl.cmn-article_status dd.cmnc-publish"
	categorySelector = "dd.m-pressRelease_Product_category_description"
	contentSelector  = "div.cmn-article_text p"
)

var (
	urlPattern = regexp.MustCompile(`https?://(?:[-\w.]|(?:%[\da-fA-F]{2}))+`)

	boilerplatePhrases = []string{"参考画像", "リリース"}
)

// PageFetcher downloads press-release pages and extracts articles.
type PageFetcher struct {
	client *http.Client
	logger *slog.Logger
}

var _ ports.PageFetcher = (*PageFetcher)(nil)

// NewPageFetcher wires an HTTP client; a nil client gets a 20s timeout.
func NewPageFetcher(client *http.Client, log *slog.Logger) *PageFetcher {
	return &PageFetcher{client: newHTTPClient(client), logger: log}
}

// FetchAndExtract retrieves url and parses it into an article. Failures wrap
// domain.ErrFetch or domain.ErrExtract and are meant to be skipped by callers.
func (f *PageFetcher) FetchAndExtract(ctx context.Context, url, industryOverride string) (domain.Article, error) {
	doc, err := fetchDocument(ctx, f.client, url)
	if err != nil {
		f.debug("fetch failed", "url", url, "error", err)
		return domain.Article{}, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}

	article, err := ExtractArticle(doc, url, industryOverride)
	if err != nil {
		f.debug("extract failed", "url", url, "error", err)
		return domain.Article{}, fmt.Errorf("%w: %s: %w", domain.ErrExtract, url, err)
	}

	return article, nil
}

// ExtractArticle reads the structured fields of a press-release page.
func ExtractArticle(doc *goquery.Document, pageURL, industryOverride string) (domain.Article, error) {
	title := doc.Find(titleSelector).First()
	if title.Length() == 0 {
		return domain.Article{}, fmt.Errorf("title element not found")
	}

	body := doc.Find(contentSelector)
	if body.Length() == 0 {
		return domain.Article{}, fmt.Errorf("content element not found")
	}

	blocks := make([]string, 0, body.Length())
	body.Each(func(_ int, p *goquery.Selection) {
		blocks = append(blocks, strings.TrimSpace(p.Text()))
	})

	var company, industry string
	anchors := doc.Find(categorySelector).First().Find("a")
	if anchors.Length() > 0 {
		company = strings.TrimSpace(anchors.Eq(0).Text())
	}
	if anchors.Length() > 1 {
		industry = strings.TrimSpace(anchors.Eq(1).Text())
	}
	if industryOverride != "" {
		industry = industryOverride
	}

	article := domain.Article{
		Title:       strings.TrimSpace(title.Text()),
		Link:        stripQuery(pageURL),
		PublishedAt: strings.TrimSpace(doc.Find(dateSelector).First().Text()),
		Company:     company,
		Industry:    industry,
		Content:     CleanContent(blocks),
	}

	if err := article.Validate(); err != nil {
		return domain.Article{}, err
	}
	return article, nil
}

// CleanContent drops the leading dateline block, blocks carrying a URL and
// boilerplate blocks, then concatenates what is left.
func CleanContent(blocks []string) string {
	if len(blocks) <= 1 {
		return ""
	}

	var b strings.Builder
	for _, block := range blocks[1:] {
		if urlPattern.MatchString(block) || isBoilerplate(block) {
			continue
		}
		b.WriteString(block)
	}
	return b.String()
}

func isBoilerplate(block string) bool {
	for _, phrase := range boilerplatePhrases {
		if strings.Contains(block, phrase) {
			return true
		}
	}
	return false
}

func (f *PageFetcher) debug(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
