// Package agent is the orchestrator: it drives the confirm/execute state
// machine over one session, parses input into action descriptors, and runs
// each descriptor through target resolution, section location, block
// synthesis and the store. No failure in that pipeline aborts the
// conversation; the worst outcome is a reply describing what went wrong.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/inkwellhq/inkwell/blocks"
	"github.com/inkwellhq/inkwell/docstore"
	"github.com/inkwellhq/inkwell/idgen"
	"github.com/inkwellhq/inkwell/interpret"
	"github.com/inkwellhq/inkwell/resolve"
	"github.com/inkwellhq/inkwell/sections"
	"github.com/inkwellhq/inkwell/session"
)

// Reply is the outcome of one chat turn.
type Reply struct {
	Response       string `json:"response"`
	RequireConfirm bool   `json:"require_confirm"`
	SessionID      string `json:"session_id"`
}

// Agent wires the interpretation pipeline to a document store and a
// session store.
type Agent struct {
	store     docstore.Store
	sessions  session.Store
	resolver  *resolve.Resolver
	synth     *blocks.Synthesizer
	chain     *interpret.Chain
	logger    *slog.Logger
	sessionID idgen.Generator
}

// Option customises an Agent.
type Option func(*Agent)

// WithLogger sets the agent's logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// WithCompleter adds a language-model strategy ahead of the rule-based
// parser. Model failures fall through silently.
func WithCompleter(c interpret.Completer) Option {
	return func(a *Agent) {
		a.chain = interpret.NewChain([]interpret.Strategy{
			interpret.NewLLMStrategy(c),
			interpret.NewRuleStrategy(interpret.NewSplitter()),
		})
	}
}

// WithSynthesizer replaces the block synthesizer, typically to inject a
// title fetcher for bookmark captions.
func WithSynthesizer(s *blocks.Synthesizer) Option {
	return func(a *Agent) { a.synth = s }
}

// New builds an agent over the given stores.
func New(store docstore.Store, sessions session.Store, opts ...Option) *Agent {
	a := &Agent{
		store:     store,
		sessions:  sessions,
		logger:    slog.Default(),
		sessionID: idgen.Prefixed("sess_", idgen.NanoID(12)),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.resolver == nil {
		a.resolver = resolve.New(store, resolve.WithLogger(a.logger))
	}
	if a.synth == nil {
		a.synth = blocks.NewSynthesizer(blocks.WithLogger(a.logger))
	}
	if a.chain == nil {
		a.chain = interpret.NewChain([]interpret.Strategy{
			interpret.NewRuleStrategy(interpret.NewSplitter()),
		}, interpret.WithChainLogger(a.logger))
	}
	return a
}

var affirmations = []string{
	"yes", "y", "yeah", "yep", "confirm", "ok", "okay", "sure",
	"go ahead", "do it", "proceed",
}

var cancellations = []string{
	"no", "n", "cancel", "stop", "abort", "nevermind", "never mind", "don't",
}

var continuations = []string{"next", "continue", "go on"}

func matchesAny(input string, words []string) bool {
	lower := strings.ToLower(strings.TrimSpace(strings.Trim(input, ".!?")))
	for _, w := range words {
		if lower == w {
			return true
		}
	}
	return false
}

// Chat processes one turn. An empty sessionID starts a new session; the
// assigned id is returned in the Reply so the caller can continue it.
func (a *Agent) Chat(ctx context.Context, sessionID, input string, confirm bool) (Reply, error) {
	if sessionID == "" {
		sessionID = a.sessionID()
	}

	st, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		var notFound session.ErrSessionNotFound
		if !errors.As(err, &notFound) {
			a.logger.Error("session load failed, starting fresh", "session_id", sessionID, "error", err)
		}
		st = &session.State{ID: sessionID}
	}

	input = strings.TrimSpace(input)
	confirmed := confirm

	// Confirmation gate from the previous turn.
	if st.RequireConfirm && st.PendingInput != "" {
		switch {
		case confirm || matchesAny(input, affirmations):
			input = st.PendingInput
			confirmed = true
		case matchesAny(input, cancellations):
			st.PendingInput = ""
			st.RequireConfirm = false
			st.Queue = nil
			a.put(ctx, st)
			return Reply{Response: "Okay, I won't do that.", SessionID: sessionID}, nil
		}
		// Any other input replaces the pending action.
		st.PendingInput = ""
		st.RequireConfirm = false
	}

	// Queued descriptors from an earlier multi-action request run one per
	// turn, oldest first.
	if len(st.Queue) > 0 && (input == "" || matchesAny(input, continuations) || matchesAny(input, affirmations)) {
		d := st.Queue[0]
		st.Queue = st.Queue[1:]
		msg := a.execute(ctx, st, d)
		msg = a.appendQueueNote(msg, st)
		a.put(ctx, st)
		return Reply{Response: msg, SessionID: sessionID}, nil
	}

	if input == "" {
		a.put(ctx, st)
		return Reply{Response: "Tell me what you'd like to do, for example \"add buy milk as todo in tasks\".", SessionID: sessionID}, nil
	}

	// A fresh request supersedes any leftover queue.
	st.Queue = nil

	if !confirmed && interpret.IsDestructive(input) {
		st.PendingInput = input
		st.RequireConfirm = true
		a.put(ctx, st)
		return Reply{
			Response:       fmt.Sprintf("This will change your workspace: %q. Reply \"yes\" to continue or \"no\" to cancel.", input),
			RequireConfirm: true,
			SessionID:      sessionID,
		}, nil
	}

	ds, err := a.chain.Parse(ctx, input)
	if err != nil || len(ds) == 0 {
		a.put(ctx, st)
		return Reply{Response: "I couldn't understand that request. Try something like \"add buy milk as todo in tasks\".", SessionID: sessionID}, nil
	}

	msg := a.execute(ctx, st, ds[0])
	if len(ds) > 1 {
		st.Queue = ds[1:]
		msg = a.appendQueueNote(msg, st)
	}
	a.put(ctx, st)
	return Reply{Response: msg, SessionID: sessionID}, nil
}

func (a *Agent) appendQueueNote(msg string, st *session.State) string {
	if n := len(st.Queue); n > 0 {
		plural := "actions"
		if n == 1 {
			plural = "action"
		}
		return fmt.Sprintf("%s %d more %s queued; say \"next\" to continue.", msg, n, plural)
	}
	return msg
}

func (a *Agent) put(ctx context.Context, st *session.State) {
	if err := a.sessions.Put(ctx, st); err != nil {
		a.logger.Error("session save failed", "session_id", st.ID, "error", err)
	}
}

// execute runs one descriptor end to end and returns a human-readable
// outcome. All pipeline failures degrade to messages.
func (a *Agent) execute(ctx context.Context, st *session.State, d interpret.Descriptor) string {
	switch d.Action {
	case interpret.ActionWrite:
		return a.executeWrite(ctx, st, d)
	case interpret.ActionEdit:
		return a.executeEdit(ctx, st, d)
	case interpret.ActionCreate:
		return "Creating new pages isn't available here yet. I can add content to an existing page, for example \"add meeting notes in Planning\"."
	case interpret.ActionDelete:
		return "Deleting content isn't available here yet. I can replace a block's text instead, for example \"change 'old text' to 'new text' in Notes\"."
	default:
		return "I'm not sure what you'd like me to do. Try \"add <content> in <page>\"."
	}
}

func (a *Agent) executeWrite(ctx context.Context, st *session.State, d interpret.Descriptor) string {
	target := d.PrimaryTarget
	if target == "" {
		target = st.LastTarget
	}
	if target == "" {
		return "Which page should that go to? Say for example \"in Notes\" at the end of your request."
	}

	match, err := a.resolver.Resolve(ctx, target)
	if err != nil {
		return resolveFailureMessage(target, err)
	}
	st.LastTarget = match.Title

	synthesized := a.synth.Synthesize(ctx, d.Content, d.FormatType)
	if len(synthesized) == 0 {
		return "There was nothing to add."
	}

	destID := match.ID
	sectionNote := ""
	if d.SectionTarget != "" {
		children, err := a.store.GetChildren(ctx, match.ID)
		if err != nil {
			return storeFailureMessage(err)
		}
		secs := sections.Build(children)
		if sec := sections.Locate(secs, d.SectionTarget); sec != nil {
			sectionNote = fmt.Sprintf(" under %q", sec.Title)
			// Toggles and callouts own their children, so new content
			// nests inside the boundary block. Heading sections have no
			// container block; content goes to the page end.
			if sec.Level == 0 && children[sec.StartIndex].ID != "" {
				destID = children[sec.StartIndex].ID
			}
		}
	}

	if err := a.store.AppendChildren(ctx, destID, synthesized); err != nil {
		return storeFailureMessage(err)
	}

	a.logger.Info("blocks appended",
		"document", match.Title,
		"blocks", len(synthesized),
		"low_confidence", match.LowConfidence)

	msg := fmt.Sprintf("Added %s to %q%s.", countNoun(len(synthesized), "block"), match.Title, sectionNote)
	if match.LowConfidence {
		msg += fmt.Sprintf(" I wasn't sure which page you meant and picked the closest match to %q.", target)
	}
	return msg
}

func (a *Agent) executeEdit(ctx context.Context, st *session.State, d interpret.Descriptor) string {
	if d.OldContent == "" || d.NewContent == "" {
		return "To edit something, tell me both the old and the new text, for example \"change 'buy milk' to 'buy oat milk' in groceries\"."
	}

	target := d.PrimaryTarget
	if target == "" {
		target = st.LastTarget
	}
	if target == "" {
		return "Which page is that text on?"
	}

	match, err := a.resolver.Resolve(ctx, target)
	if err != nil {
		return resolveFailureMessage(target, err)
	}
	st.LastTarget = match.Title

	children, err := a.store.GetChildren(ctx, match.ID)
	if err != nil {
		return storeFailureMessage(err)
	}

	needle := strings.ToLower(d.OldContent)
	for _, b := range children {
		if b.ID == "" {
			continue
		}
		if strings.Contains(strings.ToLower(blocks.PlainText(b)), needle) {
			if err := a.store.UpdateBlock(ctx, b.ID, d.NewContent); err != nil {
				return storeFailureMessage(err)
			}
			return fmt.Sprintf("Updated %q to %q on %q.", d.OldContent, d.NewContent, match.Title)
		}
	}
	return fmt.Sprintf("I couldn't find %q on %q.", d.OldContent, match.Title)
}

func countNoun(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func resolveFailureMessage(target string, err error) string {
	var notFound *resolve.ErrNotFound
	if errors.As(err, &notFound) {
		return fmt.Sprintf("I couldn't find any page called %q.", target)
	}
	return storeFailureMessage(err)
}

func storeFailureMessage(err error) string {
	var (
		unauthorized *docstore.ErrUnauthorized
		rateLimited  *docstore.ErrRateLimited
		notFound     *docstore.ErrDocumentNotFound
	)
	switch {
	case errors.As(err, &unauthorized):
		return "I don't have access to that page. Check that it is shared with the integration."
	case errors.As(err, &rateLimited):
		return "The document service is rate limiting requests right now. Please try again in a moment."
	case errors.As(err, &notFound):
		return "That page seems to have been removed."
	default:
		return "I couldn't reach the document service. Please try again."
	}
}
