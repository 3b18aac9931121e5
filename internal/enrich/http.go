package enrich

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"docsmith/internal/domain"
)

var (
	titleRe  = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaRe   = regexp.MustCompile(`(?is)<meta[^>]+(?:property|name)=["']([^"']+)["'][^>]+content=["']([^"']*)["']`)
	stripRe  = regexp.MustCompile(`(?s)<[^>]+>`)
	scriptRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
)

// HTTPFetcher retrieves a job posting page and scrapes the coarse fields
// (title, company, description) from standard meta tags. Site-specific
// selectors are out of scope; this backend only needs the common denominator.
type HTTPFetcher struct {
	client       *resty.Client
	maxBodyBytes int64
}

// HTTPFetcherConfig holds configuration for the HTTP enrichment backend.
type HTTPFetcherConfig struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
}

// NewHTTPFetcher creates the HTTP enrichment backend.
func NewHTTPFetcher(cfg *HTTPFetcherConfig) *HTTPFetcher {
	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 2 << 20
	}

	return &HTTPFetcher{client: client, maxBodyBytes: maxBody}
}

func (f *HTTPFetcher) ID() string { return "http" }

// Fetch downloads the posting page and extracts structured fields.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) (*domain.Posting, error) {
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("enrichment ref is not a fetchable URL: %q", ref)
	}

	httpResp, err := f.client.R().SetContext(ctx).Get(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posting: %w", err)
	}
	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return nil, fmt.Errorf("posting fetch returned HTTP %d", httpResp.StatusCode())
	}

	body := httpResp.Body()
	if int64(len(body)) > f.maxBodyBytes {
		body = body[:f.maxBodyBytes]
	}

	return parsePosting(ref, string(body)), nil
}

// parsePosting scrapes the coarse posting fields out of an HTML page.
func parsePosting(ref, page string) *domain.Posting {
	posting := &domain.Posting{URL: ref, Fields: map[string]string{}}

	if m := titleRe.FindStringSubmatch(page); m != nil {
		posting.Title = cleanText(m[1])
	}

	for _, m := range metaRe.FindAllStringSubmatch(page, -1) {
		name, content := strings.ToLower(m[1]), cleanText(m[2])
		if content == "" {
			continue
		}
		switch name {
		case "og:title", "twitter:title":
			if posting.Title == "" {
				posting.Title = content
			}
		case "og:site_name":
			posting.Company = content
		case "og:description", "description", "twitter:description":
			if posting.Description == "" {
				posting.Description = content
			}
		case "og:locality", "job:location":
			posting.Location = content
		default:
			if strings.HasPrefix(name, "og:") || strings.HasPrefix(name, "job:") {
				posting.Fields[name] = content
			}
		}
	}

	// Fall back to visible page text when the page carries no description meta.
	if posting.Description == "" {
		text := scriptRe.ReplaceAllString(page, " ")
		text = cleanText(stripRe.ReplaceAllString(text, " "))
		if len(text) > 2000 {
			text = text[:2000]
		}
		posting.Description = text
	}

	if len(posting.Fields) == 0 {
		posting.Fields = nil
	}
	return posting
}

func cleanText(s string) string {
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
