package docstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/inkwellhq/inkwell/blocks"
)

func TestHTTPStoreSearchByTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/search" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth header = %q", got)
		}
		var req searchRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Query != "Tasks" {
			t.Errorf("query = %q", req.Query)
		}
		w.Write([]byte(`{"results":[
			{"id":"p1","url":"https://x/p1","properties":{"title":{"title":[{"plain_text":"Tasks"}]}}},
			{"id":"p2","properties":{"Name":{"title":[{"plain_text":"Daily "},{"plain_text":"Tasks"}]}}}
		]}`))
	}))
	defer srv.Close()

	s := NewHTTPStore(srv.URL, "tok")
	docs, err := s.SearchByTitle(context.Background(), "Tasks")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs", len(docs))
	}
	if docs[0].Title != "Tasks" || docs[1].Title != "Daily Tasks" {
		t.Errorf("titles = %q, %q", docs[0].Title, docs[1].Title)
	}
}

func TestHTTPStoreGetChildren(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[
			{"object":"block","id":"b1","type":"heading_1","heading_1":{"rich_text":[{"type":"text","text":{"content":"My Day"}}]}},
			{"object":"block","id":"b2","type":"to_do","to_do":{"rich_text":[{"type":"text","text":{"content":"buy milk"}}],"checked":false}}
		]}`))
	}))
	defer srv.Close()

	s := NewHTTPStore(srv.URL, "tok")
	kids, err := s.GetChildren(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(kids) != 2 {
		t.Fatalf("got %d blocks", len(kids))
	}
	if kids[0].Type != blocks.KindHeading1 || blocks.PlainText(kids[0]) != "My Day" {
		t.Errorf("block 0 = %+v", kids[0])
	}
	if kids[1].Type != blocks.KindToDo || kids[1].ToDo.Checked {
		t.Errorf("block 1 = %+v", kids[1])
	}
}

func TestHTTPStoreErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusUnauthorized, func(err error) bool { _, ok := err.(*ErrUnauthorized); return ok }},
		{http.StatusForbidden, func(err error) bool { _, ok := err.(*ErrUnauthorized); return ok }},
		{http.StatusNotFound, func(err error) bool { _, ok := err.(*ErrDocumentNotFound); return ok }},
		{http.StatusTooManyRequests, func(err error) bool { _, ok := err.(*ErrRateLimited); return ok }},
		{http.StatusBadGateway, func(err error) bool { _, ok := err.(*ErrTransport); return ok }},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(`{"message":"nope"}`))
		}))
		s := NewHTTPStore(srv.URL, "tok", WithRetry(0, 0))
		_, err := s.SearchByTitle(context.Background(), "x")
		if err == nil || !tt.check(err) {
			t.Errorf("status %d: got %T %v", tt.status, err, err)
		}
		srv.Close()
	}
}

func TestHTTPStoreAppendRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s := NewHTTPStore(srv.URL, "tok", WithRetry(2, time.Millisecond))
	err := s.AppendChildren(context.Background(), "p1", []blocks.Block{blocks.NewParagraph("x")})
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestHTTPStoreReadDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewHTTPStore(srv.URL, "tok", WithRetry(3, time.Millisecond))
	if _, err := s.SearchByTitle(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (reads fail fast)", calls.Load())
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()
	m.AddDocument(Document{ID: "d1", Title: "Daily Tasks"},
		blocks.Block{Object: "block", ID: "b1", Type: blocks.KindToDo,
			ToDo: &blocks.ToDoPayload{RichText: blocks.Text("old"), Checked: false}})

	ctx := context.Background()

	docs, _ := m.SearchByTitle(ctx, "daily")
	if len(docs) != 1 || docs[0].ID != "d1" {
		t.Fatalf("search = %+v", docs)
	}

	if err := m.AppendChildren(ctx, "d1", []blocks.Block{blocks.NewParagraph("new")}); err != nil {
		t.Fatal(err)
	}
	kids, _ := m.GetChildren(ctx, "d1")
	if len(kids) != 2 {
		t.Fatalf("children = %d", len(kids))
	}

	if err := m.UpdateBlock(ctx, "b1", "updated"); err != nil {
		t.Fatal(err)
	}
	kids, _ = m.GetChildren(ctx, "d1")
	if blocks.PlainText(kids[0]) != "updated" {
		t.Errorf("block text = %q", blocks.PlainText(kids[0]))
	}

	if err := m.AppendChildren(ctx, "missing", nil); err == nil {
		t.Error("expected not-found for missing doc")
	}
}
