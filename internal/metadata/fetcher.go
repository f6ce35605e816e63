// Package metadata fetches page metadata and embeddable content for a
// URL: a direct HTML fetch first, then a rendering-API fallback for
// JS-heavy pages that serve empty shells.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config holds fetcher configuration.
type Config struct {
	UserAgent     string
	Timeout       time.Duration // direct fetch bound, defaults to 8s
	RenderAPIURL  string        // optional rendering service, e.g. "https://api.microlink.io"
	RenderTimeout time.Duration // fallback bound, defaults to 10s
}

// Fetcher retrieves page metadata.
type Fetcher struct {
	config     Config
	httpClient *http.Client
}

// New creates a fetcher with the given configuration.
func New(config Config) *Fetcher {
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}
	if config.Timeout == 0 {
		config.Timeout = 8 * time.Second
	}
	if config.RenderTimeout == 0 {
		config.RenderTimeout = 10 * time.Second
	}
	return &Fetcher{
		config:     config,
		httpClient: &http.Client{Timeout: config.RenderTimeout},
	}
}

// Fetch retrieves metadata for pageURL. The direct fetch wins when it
// produces a title; otherwise the rendering API is tried. Both failing
// returns nil metadata and the direct error, which callers may treat as
// "nothing to refresh".
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*PageMetadata, error) {
	direct, err := f.fetchDirect(ctx, pageURL)
	if err == nil && direct != nil && direct.Title != "" {
		return direct, nil
	}
	if err != nil {
		slog.Debug("direct metadata fetch failed", "url", pageURL, "error", err)
	}

	if f.config.RenderAPIURL != "" {
		if rendered := f.fetchViaRenderAPI(ctx, pageURL); rendered != nil {
			return rendered, nil
		}
	}

	if direct != nil {
		return direct, nil
	}
	if err == nil {
		err = fmt.Errorf("no metadata extracted from %s", pageURL)
	}
	return nil, err
}

// ctxTransport injects the fetch context into colly's requests so
// cancellation aborts a transfer in flight, not just before it starts.
type ctxTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

// fetchDirect retrieves and parses the page HTML.
func (f *Fetcher) fetchDirect(ctx context.Context, pageURL string) (*PageMetadata, error) {
	c := colly.NewCollector(
		colly.UserAgent(f.config.UserAgent),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(f.config.Timeout)
	c.WithTransport(ctxTransport{ctx: ctx, base: http.DefaultTransport})

	var (
		mu       sync.Mutex
		rawHTML  string
		fetchErr error
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	c.OnResponse(func(r *colly.Response) {
		contentType := r.Headers.Get("Content-Type")
		if !strings.Contains(strings.ToLower(contentType), "text/html") {
			return
		}
		mu.Lock()
		rawHTML = string(r.Body)
		mu.Unlock()
	})

	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		fetchErr = err
		mu.Unlock()
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", pageURL, err)
	}
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	if fetchErr != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, fetchErr)
	}
	if rawHTML == "" {
		return nil, fmt.Errorf("no HTML content at %s", pageURL)
	}

	meta := ExtractMetadata(rawHTML)
	meta.ContentText = ExtractContent(rawHTML)
	meta.RawHTML = rawHTML
	return &meta, nil
}

// renderResponse is the rendering API's envelope.
type renderResponse struct {
	Status string `json:"status"`
	Data   struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Publisher   string `json:"publisher"`
		Image       *struct {
			URL string `json:"url"`
		} `json:"image"`
	} `json:"data"`
}

// fetchViaRenderAPI asks the rendering service for metadata. Failures
// return nil; the fallback is best effort.
func (f *Fetcher) fetchViaRenderAPI(ctx context.Context, pageURL string) *PageMetadata {
	ctx, cancel := context.WithTimeout(ctx, f.config.RenderTimeout)
	defer cancel()

	apiURL := fmt.Sprintf("%s?url=%s", strings.TrimRight(f.config.RenderAPIURL, "/"), url.QueryEscape(pageURL))
	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		slog.Debug("render API fetch failed", "url", pageURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}

	var rr renderResponse
	if err := json.Unmarshal(body, &rr); err != nil || rr.Status != "success" {
		return nil
	}

	meta := &PageMetadata{
		Title:       rr.Data.Title,
		Description: rr.Data.Description,
		SiteName:    rr.Data.Publisher,
	}
	if rr.Data.Image != nil {
		meta.ImageURL = rr.Data.Image.URL
	}
	return meta
}
