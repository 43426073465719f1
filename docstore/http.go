package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/inkwellhq/inkwell/blocks"
)

// HTTPStore talks to a Notion-style REST API. Write calls (AppendChildren,
// UpdateBlock) retry with exponential backoff on rate-limit and transport
// failures; reads fail fast and leave retry policy to the caller's tiers.
type HTTPStore struct {
	baseURL    string
	token      string
	apiVersion string
	client     *http.Client
	logger     *slog.Logger
	maxRetries int
	backoff    time.Duration
}

// HTTPOption configures an HTTPStore.
type HTTPOption func(*HTTPStore)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) HTTPOption {
	return func(s *HTTPStore) { s.logger = l }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPStore) { s.client = c }
}

// WithRetry tunes write-call retry behaviour. maxRetries 0 disables retry.
func WithRetry(maxRetries int, baseBackoff time.Duration) HTTPOption {
	return func(s *HTTPStore) { s.maxRetries, s.backoff = maxRetries, baseBackoff }
}

// NewHTTPStore creates a store client for baseURL authenticated with a
// bearer token.
func NewHTTPStore(baseURL, token string, opts ...HTTPOption) *HTTPStore {
	s := &HTTPStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		apiVersion: "2022-06-28",
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type searchRequest struct {
	Query  string       `json:"query,omitempty"`
	Filter searchFilter `json:"filter"`
}

type searchFilter struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

type searchResponse struct {
	Results []pageResult `json:"results"`
}

type pageResult struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Properties map[string]struct {
		Title []struct {
			PlainText string `json:"plain_text"`
		} `json:"title"`
	} `json:"properties"`
}

func (p pageResult) title() string {
	for _, prop := range p.Properties {
		if len(prop.Title) == 0 {
			continue
		}
		var sb strings.Builder
		for _, t := range prop.Title {
			sb.WriteString(t.PlainText)
		}
		return sb.String()
	}
	return ""
}

// SearchByTitle queries the store's search endpoint filtered to pages.
func (s *HTTPStore) SearchByTitle(ctx context.Context, query string) ([]Document, error) {
	body, err := s.do(ctx, http.MethodPost, "/v1/search", searchRequest{
		Query:  query,
		Filter: searchFilter{Property: "object", Value: "page"},
	}, false)
	if err != nil {
		return nil, err
	}
	return decodeSearch(body)
}

// ListAll is a broad search with no query string.
func (s *HTTPStore) ListAll(ctx context.Context) ([]Document, error) {
	body, err := s.do(ctx, http.MethodPost, "/v1/search", searchRequest{
		Filter: searchFilter{Property: "object", Value: "page"},
	}, false)
	if err != nil {
		return nil, err
	}
	return decodeSearch(body)
}

func decodeSearch(body []byte) ([]Document, error) {
	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("docstore: decode search response: %w", err)
	}
	docs := make([]Document, 0, len(sr.Results))
	for _, r := range sr.Results {
		docs = append(docs, Document{ID: r.ID, Title: r.title(), URL: r.URL})
	}
	return docs, nil
}

type childrenResponse struct {
	Results []blocks.Block `json:"results"`
}

// GetChildren fetches the ordered block sequence of a document.
func (s *HTTPStore) GetChildren(ctx context.Context, documentID string) ([]blocks.Block, error) {
	body, err := s.do(ctx, http.MethodGet, "/v1/blocks/"+documentID+"/children?page_size=100", nil, false)
	if err != nil {
		return nil, err
	}
	var cr childrenResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("docstore: decode children: %w", err)
	}
	return cr.Results, nil
}

type appendRequest struct {
	Children []blocks.Block `json:"children"`
}

// AppendChildren appends blocks at the end of a document. Retries with
// exponential backoff on rate-limit and transport failures.
func (s *HTTPStore) AppendChildren(ctx context.Context, documentID string, children []blocks.Block) error {
	_, err := s.do(ctx, http.MethodPatch, "/v1/blocks/"+documentID+"/children", appendRequest{Children: children}, true)
	return err
}

// UpdateBlock replaces the text of one block. The block is read first to
// learn its kind, then patched with a single plain run.
func (s *HTTPStore) UpdateBlock(ctx context.Context, blockID string, content string) error {
	body, err := s.do(ctx, http.MethodGet, "/v1/blocks/"+blockID, nil, false)
	if err != nil {
		return err
	}
	var b blocks.Block
	if err := json.Unmarshal(body, &b); err != nil {
		return fmt.Errorf("docstore: decode block: %w", err)
	}

	patch := map[string]any{
		string(b.Type): map[string]any{"rich_text": blocks.Text(content)},
	}
	_, err = s.do(ctx, http.MethodPatch, "/v1/blocks/"+blockID, patch, true)
	return err
}

// do executes one request. retriable enables the write retry loop: rate
// limits and transport failures back off exponentially, everything else
// returns immediately.
func (s *HTTPStore) do(ctx context.Context, method, path string, payload any, retriable bool) ([]byte, error) {
	attempts := 1
	if retriable && s.maxRetries > 0 {
		attempts = s.maxRetries + 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := s.backoff * (1 << uint(attempt-1))
			s.logger.Warn("docstore: retrying write",
				"attempt", attempt, "backoff_ms", wait.Milliseconds(), "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, &ErrTransport{Op: method + " " + path, Cause: ctx.Err()}
			case <-time.After(wait):
			}
		}

		body, err := s.once(ctx, method, path, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retriable || !isRetriable(err) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func isRetriable(err error) bool {
	switch err.(type) {
	case *ErrRateLimited, *ErrTransport:
		return true
	}
	return false
}

func (s *HTTPStore) once(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("docstore: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("docstore: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Notion-Version", s.apiVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &ErrTransport{Op: method + " " + path, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &ErrTransport{Op: method + " " + path, Cause: err}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &ErrUnauthorized{Detail: errDetail(body)}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &ErrDocumentNotFound{ID: path}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &ErrRateLimited{RetryAfter: resp.Header.Get("Retry-After")}
	default:
		return nil, &ErrTransport{Op: method + " " + path,
			Cause: fmt.Errorf("status %d: %s", resp.StatusCode, errDetail(body))}
	}
}

// errDetail pulls the message field out of an error response body.
func errDetail(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		return e.Message
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
