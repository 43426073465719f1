package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/inkwellhq/inkwell/blocks"
	"github.com/inkwellhq/inkwell/docstore"
	"github.com/inkwellhq/inkwell/session"
)

func newTestAgent(t *testing.T) (*Agent, *docstore.MemoryStore) {
	t.Helper()
	store := docstore.NewMemoryStore()
	store.AddDocument(docstore.Document{ID: "doc_tasks", Title: "Tasks"})
	store.AddDocument(docstore.Document{ID: "doc_notes", Title: "Notes"})
	store.AddDocument(docstore.Document{ID: "doc_groc", Title: "Groceries"},
		blocks.Block{ID: "blk_1", Object: "block", Type: blocks.KindParagraph,
			Paragraph: &blocks.TextPayload{RichText: blocks.Text("buy milk")}},
	)
	sessions := session.NewMemoryStore(time.Minute)
	t.Cleanup(func() { sessions.Close() })
	return New(store, sessions), store
}

func TestChat_DestructiveConfirmThenExecute(t *testing.T) {
	ctx := context.Background()
	a, store := newTestAgent(t)

	reply, err := a.Chat(ctx, "", "add buy milk as todo in tasks", false)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !reply.RequireConfirm {
		t.Fatal("expected confirmation request")
	}
	if reply.SessionID == "" {
		t.Fatal("expected a generated session id")
	}
	if !strings.Contains(reply.Response, "This will change your workspace") {
		t.Fatalf("unexpected response %q", reply.Response)
	}

	kids, _ := store.GetChildren(ctx, "doc_tasks")
	if len(kids) != 0 {
		t.Fatalf("blocks appended before confirmation: %d", len(kids))
	}

	reply, err = a.Chat(ctx, reply.SessionID, "yes", false)
	if err != nil {
		t.Fatalf("Chat confirm: %v", err)
	}
	if reply.RequireConfirm {
		t.Fatal("confirmation should be consumed")
	}
	if !strings.Contains(reply.Response, `Added 1 block to "Tasks"`) {
		t.Fatalf("unexpected response %q", reply.Response)
	}

	kids, err = store.GetChildren(ctx, "doc_tasks")
	if err != nil {
		t.Fatalf("GetChildren: %v", err)
	}
	if len(kids) != 1 {
		t.Fatalf("got %d blocks, want 1", len(kids))
	}
	if kids[0].Type != blocks.KindToDo {
		t.Fatalf("got kind %q, want to_do", kids[0].Type)
	}
	if got := blocks.PlainText(kids[0]); got != "buy milk" {
		t.Fatalf("got text %q, want %q", got, "buy milk")
	}
}

func TestChat_Cancel(t *testing.T) {
	ctx := context.Background()
	a, store := newTestAgent(t)

	reply, err := a.Chat(ctx, "", "add buy milk as todo in tasks", false)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	reply, err = a.Chat(ctx, reply.SessionID, "no", false)
	if err != nil {
		t.Fatalf("Chat cancel: %v", err)
	}
	if reply.Response != "Okay, I won't do that." {
		t.Fatalf("unexpected response %q", reply.Response)
	}
	kids, _ := store.GetChildren(ctx, "doc_tasks")
	if len(kids) != 0 {
		t.Fatalf("cancelled action still appended %d blocks", len(kids))
	}
}

func TestChat_ConfirmFlagSkipsGate(t *testing.T) {
	ctx := context.Background()
	a, store := newTestAgent(t)

	reply, err := a.Chat(ctx, "", "add buy milk as todo in tasks", true)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply.RequireConfirm {
		t.Fatal("confirm flag should bypass the gate")
	}
	kids, _ := store.GetChildren(ctx, "doc_tasks")
	if len(kids) != 1 {
		t.Fatalf("got %d blocks, want 1", len(kids))
	}
}

func TestChat_PendingReplacedByNewRequest(t *testing.T) {
	ctx := context.Background()
	a, store := newTestAgent(t)

	reply, err := a.Chat(ctx, "", "add buy milk as todo in tasks", false)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	// Neither yes nor no: the new request supersedes the pending one and
	// hits its own gate.
	reply, err = a.Chat(ctx, reply.SessionID, "add call mom in notes", false)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !reply.RequireConfirm {
		t.Fatal("expected a new confirmation request")
	}
	if !strings.Contains(reply.Response, "call mom") {
		t.Fatalf("gate should quote the new request, got %q", reply.Response)
	}

	reply, err = a.Chat(ctx, reply.SessionID, "yes", false)
	if err != nil {
		t.Fatalf("Chat confirm: %v", err)
	}
	if kids, _ := store.GetChildren(ctx, "doc_tasks"); len(kids) != 0 {
		t.Fatal("superseded action should not run")
	}
	kids, _ := store.GetChildren(ctx, "doc_notes")
	if len(kids) != 1 || blocks.PlainText(kids[0]) != "call mom" {
		t.Fatalf("unexpected notes content: %+v", kids)
	}
}

func TestChat_MultiActionQueue(t *testing.T) {
	ctx := context.Background()
	a, store := newTestAgent(t)

	reply, err := a.Chat(ctx, "", "add alpha as bullet and beta as checklist too in Notes", true)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !strings.Contains(reply.Response, `Added 1 block to "Notes"`) {
		t.Fatalf("unexpected response %q", reply.Response)
	}
	if !strings.Contains(reply.Response, `1 more action queued; say "next"`) {
		t.Fatalf("missing queue note in %q", reply.Response)
	}

	kids, _ := store.GetChildren(ctx, "doc_notes")
	if len(kids) != 1 {
		t.Fatalf("got %d blocks after first turn, want 1", len(kids))
	}

	reply, err = a.Chat(ctx, reply.SessionID, "next", false)
	if err != nil {
		t.Fatalf("Chat next: %v", err)
	}
	if strings.Contains(reply.Response, "queued") {
		t.Fatalf("queue should be drained, got %q", reply.Response)
	}

	kids, _ = store.GetChildren(ctx, "doc_notes")
	if len(kids) != 2 {
		t.Fatalf("got %d blocks after second turn, want 2", len(kids))
	}
	if kids[0].Type != blocks.KindBulleted || kids[1].Type != blocks.KindToDo {
		t.Fatalf("got kinds %q, %q", kids[0].Type, kids[1].Type)
	}
	if got := blocks.PlainText(kids[1]); got != "beta" {
		t.Fatalf("got text %q, want %q", got, "beta")
	}
}

func TestChat_EditFlow(t *testing.T) {
	ctx := context.Background()
	a, store := newTestAgent(t)

	reply, err := a.Chat(ctx, "", "change 'buy milk' to 'buy oat milk' in groceries", false)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	want := `Updated "buy milk" to "buy oat milk" on "Groceries".`
	if reply.Response != want {
		t.Fatalf("got %q, want %q", reply.Response, want)
	}

	kids, _ := store.GetChildren(ctx, "doc_groc")
	if got := blocks.PlainText(kids[0]); got != "buy oat milk" {
		t.Fatalf("block text %q, want %q", got, "buy oat milk")
	}
}

func TestChat_EditTextNotFound(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAgent(t)

	reply, err := a.Chat(ctx, "", "change 'no such line' to 'anything' in groceries", false)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !strings.Contains(reply.Response, `I couldn't find "no such line" on "Groceries"`) {
		t.Fatalf("unexpected response %q", reply.Response)
	}
}

func TestChat_LowConfidenceMatchNoted(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAgent(t)

	reply, err := a.Chat(ctx, "", "add something in zzzqqq", true)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !strings.Contains(reply.Response, "Added 1 block") {
		t.Fatalf("best-available match should still execute, got %q", reply.Response)
	}
	if !strings.Contains(reply.Response, "I wasn't sure which page you meant") {
		t.Fatalf("missing low-confidence note in %q", reply.Response)
	}
}

func TestChat_EmptyStoreNotFound(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewMemoryStore(time.Minute)
	defer sessions.Close()
	a := New(docstore.NewMemoryStore(), sessions)

	reply, err := a.Chat(ctx, "", "add something in zzzqqq", true)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !strings.Contains(reply.Response, `I couldn't find any page called "zzzqqq"`) {
		t.Fatalf("unexpected response %q", reply.Response)
	}
}

func TestChat_SectionPlacementIntoToggle(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	store.AddDocument(docstore.Document{ID: "doc_notes", Title: "Notes"},
		blocks.Block{ID: "blk_tog", Object: "block", Type: blocks.KindToggle,
			Toggle: &blocks.TogglePayload{RichText: blocks.Text("Links")}},
		blocks.NewParagraph("unrelated"),
	)
	sessions := session.NewMemoryStore(time.Minute)
	defer sessions.Close()
	a := New(store, sessions)

	reply, err := a.Chat(ctx, "", "add example site under the Links section in Notes", true)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !strings.Contains(reply.Response, `under "Links"`) {
		t.Fatalf("missing section note in %q", reply.Response)
	}

	kids, _ := store.GetChildren(ctx, "doc_notes")
	if len(kids) != 2 {
		t.Fatalf("page-level block count changed: %d", len(kids))
	}
	if n := len(kids[0].Toggle.Children); n != 1 {
		t.Fatalf("toggle has %d children, want 1", n)
	}
	if got := blocks.PlainText(kids[0].Toggle.Children[0]); got != "example site" {
		t.Fatalf("nested text %q, want %q", got, "example site")
	}
}

func TestChat_SectionPlacementIntoCallout(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	store.AddDocument(docstore.Document{ID: "doc_notes", Title: "Notes"},
		blocks.Block{ID: "blk_call", Object: "block", Type: blocks.KindCallout,
			Callout: &blocks.CalloutPayload{RichText: blocks.Text("Ideas")}},
		blocks.NewParagraph("unrelated"),
	)
	sessions := session.NewMemoryStore(time.Minute)
	defer sessions.Close()
	a := New(store, sessions)

	reply, err := a.Chat(ctx, "", "add ship it under the Ideas section in Notes", true)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !strings.Contains(reply.Response, `under "Ideas"`) {
		t.Fatalf("missing section note in %q", reply.Response)
	}

	kids, _ := store.GetChildren(ctx, "doc_notes")
	if len(kids) != 2 {
		t.Fatalf("page-level block count changed: %d", len(kids))
	}
	if n := len(kids[0].Callout.Children); n != 1 {
		t.Fatalf("callout has %d children, want 1", n)
	}
	if got := blocks.PlainText(kids[0].Callout.Children[0]); got != "ship it" {
		t.Fatalf("nested text %q, want %q", got, "ship it")
	}
}

func TestChat_LastTargetCarriesAcrossTurns(t *testing.T) {
	ctx := context.Background()
	a, store := newTestAgent(t)

	reply, err := a.Chat(ctx, "", "add buy milk as todo in tasks", true)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	reply, err = a.Chat(ctx, reply.SessionID, "add water plants as todo", true)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !strings.Contains(reply.Response, `Added 1 block to "Tasks"`) {
		t.Fatalf("expected target inheritance, got %q", reply.Response)
	}
	kids, _ := store.GetChildren(ctx, "doc_tasks")
	if len(kids) != 2 {
		t.Fatalf("got %d blocks, want 2", len(kids))
	}
}

func TestChat_MissingTargetAsks(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAgent(t)

	reply, err := a.Chat(ctx, "", "add water plants as todo", true)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !strings.Contains(reply.Response, "Which page") {
		t.Fatalf("unexpected response %q", reply.Response)
	}
}

func TestChat_EmptyInputHint(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAgent(t)

	reply, err := a.Chat(ctx, "", "", false)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !strings.Contains(reply.Response, "Tell me what you'd like to do") {
		t.Fatalf("unexpected response %q", reply.Response)
	}
}

func TestChat_UnavailableActions(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAgent(t)

	reply, err := a.Chat(ctx, "", "create a new page called Journal", true)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !strings.Contains(reply.Response, "Creating new pages isn't available") {
		t.Fatalf("unexpected response %q", reply.Response)
	}

	reply, err = a.Chat(ctx, "", "delete the first block in notes", true)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !strings.Contains(reply.Response, "Deleting content isn't available") {
		t.Fatalf("unexpected response %q", reply.Response)
	}
}
