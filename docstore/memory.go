package docstore

import (
	"context"
	"strings"
	"sync"

	"github.com/inkwellhq/inkwell/blocks"
)

// MemoryStore is an in-process Store used by tests and local mode.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  []Document
	kids  map[string][]blocks.Block
	byBlk map[string]string // block id -> document id
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		kids:  make(map[string][]blocks.Block),
		byBlk: make(map[string]string),
	}
}

// AddDocument registers a document and its initial block sequence.
func (m *MemoryStore) AddDocument(doc Document, children ...blocks.Block) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, doc)
	m.kids[doc.ID] = children
	for _, b := range children {
		if b.ID != "" {
			m.byBlk[b.ID] = doc.ID
		}
	}
}

// SearchByTitle matches documents whose title contains query,
// case-insensitively. Mirrors the loose contains semantics of the real
// store's search endpoint.
func (m *MemoryStore) SearchByTitle(ctx context.Context, query string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(query)
	var out []Document
	for _, d := range m.docs {
		if strings.Contains(strings.ToLower(d.Title), q) {
			out = append(out, d)
		}
	}
	return out, nil
}

// ListAll returns every document.
func (m *MemoryStore) ListAll(ctx context.Context) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Document(nil), m.docs...), nil
}

// GetChildren returns the block sequence of a document.
func (m *MemoryStore) GetChildren(ctx context.Context, documentID string) ([]blocks.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	kids, ok := m.kids[documentID]
	if !ok {
		return nil, &ErrDocumentNotFound{ID: documentID}
	}
	return append([]blocks.Block(nil), kids...), nil
}

// AppendChildren appends blocks to a document, or nests them inside a
// toggle or callout when given that block's id. The real service treats
// page and block ids uniformly on its children endpoint.
func (m *MemoryStore) AppendChildren(ctx context.Context, documentID string, children []blocks.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.kids[documentID]; !ok {
		if docID, ok := m.byBlk[documentID]; ok {
			kids := m.kids[docID]
			for i := range kids {
				if kids[i].ID != documentID {
					continue
				}
				switch {
				case kids[i].Toggle != nil:
					kids[i].Toggle.Children = append(kids[i].Toggle.Children, children...)
					return nil
				case kids[i].Callout != nil:
					kids[i].Callout.Children = append(kids[i].Callout.Children, children...)
					return nil
				}
			}
		}
		return &ErrDocumentNotFound{ID: documentID}
	}
	m.kids[documentID] = append(m.kids[documentID], children...)
	for _, b := range children {
		if b.ID != "" {
			m.byBlk[b.ID] = documentID
		}
	}
	return nil
}

// UpdateBlock replaces the text of one block.
func (m *MemoryStore) UpdateBlock(ctx context.Context, blockID string, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	docID, ok := m.byBlk[blockID]
	if !ok {
		return &ErrDocumentNotFound{ID: blockID}
	}
	kids := m.kids[docID]
	for i := range kids {
		if kids[i].ID != blockID {
			continue
		}
		b := kids[i]
		switch b.Type {
		case blocks.KindToDo:
			b.ToDo.RichText = blocks.Text(content)
		case blocks.KindHeading1:
			b.Heading1.RichText = blocks.Text(content)
		case blocks.KindHeading2:
			b.Heading2.RichText = blocks.Text(content)
		case blocks.KindHeading3:
			b.Heading3.RichText = blocks.Text(content)
		case blocks.KindBulleted:
			b.Bulleted.RichText = blocks.Text(content)
		case blocks.KindNumbered:
			b.Numbered.RichText = blocks.Text(content)
		default:
			if b.Paragraph == nil {
				b.Paragraph = &blocks.TextPayload{}
			}
			b.Paragraph.RichText = blocks.Text(content)
		}
		kids[i] = b
		return nil
	}
	return &ErrDocumentNotFound{ID: blockID}
}
