package blocks

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/inkwellhq/inkwell/safeurl"
)

// TitleFetcher resolves a page title for bookmark captions. Implementations
// must be best-effort: a failed fetch returns "" and no error surfaces.
type TitleFetcher interface {
	Title(ctx context.Context, url string) string
}

// HTTPTitleFetcher fetches a URL and extracts its <title> element. Targets
// are validated with safeurl before fetching: the URLs come from user input.
type HTTPTitleFetcher struct {
	client   *http.Client
	maxBytes int64
	validate func(string) error
}

// FetcherOption customises an HTTPTitleFetcher.
type FetcherOption func(*HTTPTitleFetcher)

// AllowPrivateHosts disables the private-address guard. Local development
// only; production fetchers keep the default safeurl validation.
func AllowPrivateHosts() FetcherOption {
	return func(f *HTTPTitleFetcher) { f.validate = nil }
}

// NewHTTPTitleFetcher returns a fetcher with a short timeout. Bookmark
// enrichment must never stall synthesis on a slow host.
func NewHTTPTitleFetcher(timeout time.Duration, opts ...FetcherOption) *HTTPTitleFetcher {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	f := &HTTPTitleFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: 256 * 1024,
		validate: safeurl.Validate,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Title returns the page title for url, or "" on any failure.
func (f *HTTPTitleFetcher) Title(ctx context.Context, url string) string {
	if f.validate != nil && f.validate(url) != nil {
		return ""
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Accept", "text/html")
	resp, err := f.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	return extractTitle(io.LimitReader(resp.Body, f.maxBytes))
}

// extractTitle streams tokens until the first <title> text node.
func extractTitle(r io.Reader) string {
	tz := html.NewTokenizer(r)
	inTitle := false
	for {
		switch tz.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := tz.TagName()
			if string(name) == "title" {
				inTitle = true
			}
		case html.EndTagToken:
			name, _ := tz.TagName()
			if string(name) == "title" {
				return ""
			}
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tz.Text()))
			}
		}
	}
}
