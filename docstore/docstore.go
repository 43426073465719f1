// Package docstore is the document-store collaborator boundary: pages with
// titles, addressed by id, each owning an ordered block sequence.
//
// The pipeline only ever talks to the Store interface. The HTTP client in
// this package speaks a Notion-style REST dialect; the memory store backs
// tests and local mode. All failures are typed so the orchestrator can map
// them to user-facing text instead of crashing the conversation.
package docstore

import (
	"context"
	"fmt"

	"github.com/inkwellhq/inkwell/blocks"
)

// Document is a top-level page in the store.
type Document struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// Store is the capability surface the pipeline consumes.
type Store interface {
	// SearchByTitle returns documents whose title matches query per the
	// store's own search semantics.
	SearchByTitle(ctx context.Context, query string) ([]Document, error)

	// ListAll returns every document visible to the integration.
	ListAll(ctx context.Context) ([]Document, error)

	// GetChildren returns the ordered block sequence of a document.
	GetChildren(ctx context.Context, documentID string) ([]blocks.Block, error)

	// AppendChildren appends blocks at the end of a document.
	AppendChildren(ctx context.Context, documentID string, children []blocks.Block) error

	// UpdateBlock replaces the text content of one block.
	UpdateBlock(ctx context.Context, blockID string, content string) error
}

// ErrDocumentNotFound is returned when an id does not resolve to a document.
type ErrDocumentNotFound struct {
	ID string
}

func (e *ErrDocumentNotFound) Error() string {
	return fmt.Sprintf("docstore: document not found: %s", e.ID)
}

// ErrUnauthorized is returned when the integration token is missing, bad,
// or lacks access to the target page.
type ErrUnauthorized struct {
	Detail string
}

func (e *ErrUnauthorized) Error() string {
	return fmt.Sprintf("docstore: unauthorized: %s", e.Detail)
}

// ErrRateLimited is returned on a 429 from the store.
type ErrRateLimited struct {
	RetryAfter string
}

func (e *ErrRateLimited) Error() string {
	return fmt.Sprintf("docstore: rate limited (retry after %s)", e.RetryAfter)
}

// ErrTransport wraps network-level failures reaching the store.
type ErrTransport struct {
	Op    string
	Cause error
}

func (e *ErrTransport) Error() string {
	return fmt.Sprintf("docstore: %s: transport failure: %v", e.Op, e.Cause)
}

func (e *ErrTransport) Unwrap() error { return e.Cause }
