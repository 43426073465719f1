package interpret

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Strategy is one way of turning raw input into descriptors. Strategies
// are consulted in order; the first to return a non-empty result wins.
type Strategy interface {
	Name() string
	TryParse(ctx context.Context, input string) ([]Descriptor, error)
}

// Chain runs strategies in order and falls through on error or empty
// result. The last strategy is expected to always produce something, so
// Parse never fails on well-formed input.
type Chain struct {
	strategies []Strategy
	logger     *slog.Logger
}

// ChainOption customises a Chain.
type ChainOption func(*Chain)

// WithChainLogger sets the logger used to record fallthroughs.
func WithChainLogger(l *slog.Logger) ChainOption {
	return func(c *Chain) { c.logger = l }
}

// NewChain builds a chain over the given strategies, consulted in order.
func NewChain(strategies []Strategy, opts ...ChainOption) *Chain {
	c := &Chain{strategies: strategies, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Parse consults each strategy until one produces descriptors. Failures
// are logged and swallowed; only an exhausted chain returns an error.
func (c *Chain) Parse(ctx context.Context, input string) ([]Descriptor, error) {
	for _, s := range c.strategies {
		ds, err := s.TryParse(ctx, input)
		if err != nil {
			c.logger.Debug("strategy failed, falling through",
				"strategy", s.Name(), "error", err)
			continue
		}
		if len(ds) == 0 {
			continue
		}
		return ds, nil
	}
	return nil, fmt.Errorf("no strategy produced a result for input")
}

// RuleStrategy parses with the deterministic splitter. It never fails and
// always returns at least one descriptor, making it the natural chain
// terminator.
type RuleStrategy struct {
	splitter *Splitter
}

// NewRuleStrategy wraps a Splitter as a Strategy.
func NewRuleStrategy(s *Splitter) *RuleStrategy {
	return &RuleStrategy{splitter: s}
}

func (r *RuleStrategy) Name() string { return "rules" }

func (r *RuleStrategy) TryParse(_ context.Context, input string) ([]Descriptor, error) {
	return r.splitter.Split(input), nil
}

// Completer produces a raw completion for a system/user prompt pair. The
// llm package provides the HTTP-backed implementation.
type Completer interface {
	Complete(ctx context.Context, system, user string) (json.RawMessage, error)
}

// llmSystemPrompt instructs the model to emit the descriptor schema
// directly. Unknown fields are ignored on decode.
const llmSystemPrompt = `You convert a natural-language request about a block-based document workspace into JSON.
Respond with a JSON array of action objects and nothing else. Each object has:
  "action": one of "create", "write", "edit", "delete"
  "primary_target": the page or document name, or "" if not stated
  "section_target": the section name inside the page, or ""
  "content": the content to write, or ""
  "old_content" and "new_content": for edits only
  "format_type": one of "paragraph", "heading_1", "heading_2", "heading_3", "bulleted_list_item", "numbered_list_item", "to_do", "toggle", "code", "quote", "callout", "bookmark", or ""
Split multi-part requests into one object per action. Do not invent targets or content.`

// LLMStrategy asks a language model to produce descriptors. Any failure,
// from transport errors to malformed output, is reported to the chain so
// the rule strategy can take over.
type LLMStrategy struct {
	completer Completer
	logger    *slog.Logger
}

// LLMStrategyOption customises an LLMStrategy.
type LLMStrategyOption func(*LLMStrategy)

// WithLLMLogger sets the logger for model interactions.
func WithLLMLogger(l *slog.Logger) LLMStrategyOption {
	return func(s *LLMStrategy) { s.logger = l }
}

// NewLLMStrategy wraps a Completer as a Strategy.
func NewLLMStrategy(c Completer, opts ...LLMStrategyOption) *LLMStrategy {
	s := &LLMStrategy{completer: c, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LLMStrategy) Name() string { return "llm" }

func (s *LLMStrategy) TryParse(ctx context.Context, input string) ([]Descriptor, error) {
	raw, err := s.completer.Complete(ctx, llmSystemPrompt, input)
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}
	ds, err := decodeDescriptors(raw)
	if err != nil {
		return nil, err
	}
	for i := range ds {
		sanitizeDescriptor(&ds[i])
	}
	if len(ds) > 1 {
		for i := range ds {
			ds[i].IsMultiAction = true
		}
	}
	return ds, nil
}

// decodeDescriptors accepts either a JSON array or a single object.
func decodeDescriptors(raw json.RawMessage) ([]Descriptor, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "{") {
		var d Descriptor
		if err := json.Unmarshal([]byte(trimmed), &d); err != nil {
			return nil, fmt.Errorf("decode descriptor: %w", err)
		}
		return []Descriptor{d}, nil
	}
	var ds []Descriptor
	if err := json.Unmarshal([]byte(trimmed), &ds); err != nil {
		return nil, fmt.Errorf("decode descriptors: %w", err)
	}
	return ds, nil
}

// sanitizeDescriptor normalizes model output so downstream code sees the
// same shapes the rule parser produces.
func sanitizeDescriptor(d *Descriptor) {
	if !d.Action.Valid() {
		d.Action = ActionUnknown
	}
	d.PrimaryTarget = strings.TrimSpace(d.PrimaryTarget)
	d.SectionTarget = strings.TrimSpace(d.SectionTarget)
	d.Content = strings.TrimSpace(d.Content)
	d.IsURL = urlRe.MatchString(d.Content)
}
