// Package crawler fetches Tsanghi API documentation pages and extracts
// endpoint descriptors from them. Extracted docs feed the tool catalog
// generator and can be persisted to a local SQLite store.
package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the documentation site root.
	DefaultBaseURL = "https://tsanghi.com"

	defaultMinDelay = 1 * time.Second
	defaultMaxDelay = 3 * time.Second

	maxDocBody = 4 << 20
)

// ParamDoc is a single request parameter row extracted from a doc page.
type ParamDoc struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

// EndpointDoc is the structured result of crawling one documentation page.
// Empty pages (a valid index with no published content) are recorded with
// Empty set so reruns can skip them.
type EndpointDoc struct {
	Index     string     `json:"index"`
	Title     string     `json:"title"`
	Endpoint  string     `json:"endpoint"`
	Params    []ParamDoc `json:"params,omitempty"`
	Empty     bool       `json:"empty,omitempty"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// Config configures a Crawler.
type Config struct {
	BaseURL string
	// MinDelay and MaxDelay bound the jittered pause between page fetches.
	MinDelay time.Duration
	MaxDelay time.Duration
	Client   *http.Client
	Logger   *slog.Logger
}

// Crawler walks the documentation index space and extracts endpoint docs.
type Crawler struct {
	baseURL  string
	minDelay time.Duration
	maxDelay time.Duration
	client   *http.Client
	logger   *slog.Logger
	rng      *rand.Rand
}

// New creates a Crawler with defaults applied for unset fields.
func New(cfg Config) *Crawler {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	minDelay := cfg.MinDelay
	if minDelay <= 0 {
		minDelay = defaultMinDelay
	}
	maxDelay := cfg.MaxDelay
	if maxDelay < minDelay {
		maxDelay = minDelay + defaultMaxDelay - defaultMinDelay
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		baseURL:  base,
		minDelay: minDelay,
		maxDelay: maxDelay,
		client:   client,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Indices enumerates the documentation index space: pages are addressed
// as "i-j-k" where i spans the top-level sections 2..5 and j, k span 1..5
// within each section.
func Indices() []string {
	var out []string
	for i := 2; i <= 5; i++ {
		for j := 1; j <= 5; j++ {
			for k := 1; k <= 5; k++ {
				out = append(out, fmt.Sprintf("%d-%d-%d", i, j, k))
			}
		}
	}
	return out
}

// PageURL returns the documentation URL for a given index.
func (c *Crawler) PageURL(index string) string {
	return fmt.Sprintf("%s/fin/doc?index=%s", c.baseURL, index)
}

// FetchDoc fetches and parses a single documentation page.
func (c *Crawler) FetchDoc(ctx context.Context, index string) (EndpointDoc, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PageURL(index), nil)
	if err != nil {
		return EndpointDoc{}, fmt.Errorf("crawler: build request for index %s: %w", index, err)
	}
	req.Header.Set("Referer", c.baseURL+"/")
	req.Header.Set("Accept", "text/html")

	resp, err := c.client.Do(req)
	if err != nil {
		return EndpointDoc{}, fmt.Errorf("crawler: fetch index %s: %w", index, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return EndpointDoc{}, fmt.Errorf("crawler: fetch index %s: unexpected status %d", index, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocBody))
	if err != nil {
		return EndpointDoc{}, fmt.Errorf("crawler: read index %s: %w", index, err)
	}

	doc := ParsePage(index, string(body))
	doc.FetchedAt = time.Now().UTC()
	return doc, nil
}

// Crawl fetches every page in Indices, pausing a jittered interval between
// fetches. Fetch failures are logged and skipped; the crawl continues until
// the index space is exhausted or ctx is cancelled.
func (c *Crawler) Crawl(ctx context.Context) ([]EndpointDoc, error) {
	indices := Indices()
	docs := make([]EndpointDoc, 0, len(indices))

	for i, index := range indices {
		if i > 0 {
			if err := c.pause(ctx); err != nil {
				return docs, err
			}
		}

		doc, err := c.FetchDoc(ctx, index)
		if err != nil {
			if ctx.Err() != nil {
				return docs, ctx.Err()
			}
			c.logger.Warn("doc page fetch failed", "index", index, "error", err)
			continue
		}
		if doc.Empty {
			c.logger.Debug("doc page empty", "index", index)
		} else {
			c.logger.Info("doc page crawled", "index", index, "title", doc.Title, "endpoint", doc.Endpoint)
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func (c *Crawler) pause(ctx context.Context) error {
	delay := c.minDelay
	if span := c.maxDelay - c.minDelay; span > 0 {
		delay += time.Duration(c.rng.Int63n(int64(span)))
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
