package agent

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	researchTimeout     = 20 * time.Second
	researchConcurrency = 3
	researchMaxPages    = 3
	pageExcerptChars    = 4000
	researchUserAgent   = "Mozilla/5.0 (X11; Linux x86_64) chimera-research/1.0"
)

// Researcher gathers web material for the tutor's learning phase: run a
// search, follow the top results, and extract the readable text.
type Researcher struct {
	client   *http.Client
	log      zerolog.Logger
	maxPages int
}

func NewResearcher(log zerolog.Logger) *Researcher {
	return &Researcher{
		client:   &http.Client{Timeout: researchTimeout},
		log:      log.With().Str("component", "research").Logger(),
		maxPages: researchMaxPages,
	}
}

// Research returns concatenated page excerpts for the topic, or an error
// when nothing useful could be fetched.
func (r *Researcher) Research(ctx context.Context, topic string) (string, error) {
	searchURL := "https://html.duckduckgo.com/html/?q=" + url.QueryEscape("how to "+topic+" step by step")
	doc, err := r.fetchDocument(ctx, searchURL)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}

	links := searchResultLinks(doc, r.maxPages)
	if len(links) == 0 {
		return "", fmt.Errorf("no search results for %q", topic)
	}

	var mu sync.Mutex
	excerpts := make(map[string]string, len(links))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(researchConcurrency)
	for _, link := range links {
		g.Go(func() error {
			page, err := r.fetchDocument(gctx, link)
			if err != nil {
				// Collect what we can; a dead link is not fatal.
				r.log.Warn().Err(err).Str("url", link).Msg("research page fetch failed")
				return nil
			}
			text := readableText(page)
			if text == "" {
				return nil
			}
			if len(text) > pageExcerptChars {
				text = text[:pageExcerptChars]
			}
			mu.Lock()
			excerpts[link] = text
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	if len(excerpts) == 0 {
		return "", fmt.Errorf("no readable content in search results for %q", topic)
	}

	var sb strings.Builder
	for _, link := range links {
		text, ok := excerpts[link]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("Source: %s\n%s\n\n", link, text))
	}
	return sb.String(), nil
}

func (r *Researcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", researchUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// searchResultLinks pulls result URLs out of a DuckDuckGo HTML page,
// unwrapping its redirect links.
func searchResultLinks(doc *goquery.Document, limit int) []string {
	var links []string
	seen := make(map[string]struct{})
	doc.Find("a.result__a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		link := unwrapRedirect(href)
		if link == "" {
			return true
		}
		if _, dup := seen[link]; dup {
			return true
		}
		seen[link] = struct{}{}
		links = append(links, link)
		return len(links) < limit
	})
	return links
}

func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.IsAbs() && (u.Scheme == "http" || u.Scheme == "https") {
		return u.String()
	}
	return ""
}

// readableText extracts the prose of a page: headings, paragraphs and list
// items, with script/style noise removed.
func readableText(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, header, noscript").Remove()

	var lines []string
	doc.Find("h1, h2, h3, p, li, pre, code").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) < 3 {
			return
		}
		lines = append(lines, text)
	})
	return strings.Join(lines, "\n")
}
