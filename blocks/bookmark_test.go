package blocks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPTitleFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><head><title>  Example Page  </title></head><body>x</body></html>"))
	}))
	defer srv.Close()

	f := NewHTTPTitleFetcher(time.Second, AllowPrivateHosts())
	if got := f.Title(context.Background(), srv.URL); got != "Example Page" {
		t.Errorf("Title = %q, want Example Page", got)
	}
}

func TestHTTPTitleFetcherBlocksPrivateHosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("guarded fetcher reached a loopback server")
	}))
	defer srv.Close()

	f := NewHTTPTitleFetcher(time.Second)
	if got := f.Title(context.Background(), srv.URL); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestHTTPTitleFetcherFailuresAreSilent(t *testing.T) {
	f := NewHTTPTitleFetcher(200*time.Millisecond, AllowPrivateHosts())

	if got := f.Title(context.Background(), "http://127.0.0.1:1/unreachable"); got != "" {
		t.Errorf("unreachable host: got %q, want empty", got)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	if got := f.Title(context.Background(), srv.URL); got != "" {
		t.Errorf("500 response: got %q, want empty", got)
	}
}

func TestBookmarkEnrichment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<title>Linked Doc</title>"))
	}))
	defer srv.Close()

	s := NewSynthesizer(WithTitleFetcher(NewHTTPTitleFetcher(time.Second, AllowPrivateHosts())))
	out := s.Synthesize(context.Background(), srv.URL, "")
	if out[0].Type != KindBookmark {
		t.Fatalf("got %s", out[0].Type)
	}
	if len(out[0].Bookmark.Caption) == 0 || out[0].Bookmark.Caption[0].Text.Content != "Linked Doc" {
		t.Errorf("caption = %+v", out[0].Bookmark.Caption)
	}
}
