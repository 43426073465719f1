package interpret

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/inkwellhq/inkwell/blocks"
)

// Splitter turns one raw input into one or more single-action Descriptors.
// Splitting is tiered: sequence markers ("then", "finally") first, then an
// explicit "X as FORMAT and Y as FORMAT" conjunction, then comma
// enumerations inside list-formatted content. A plain sentence passes
// through as a single descriptor, so Split always returns at least one.
type Splitter struct {
	logger *slog.Logger
}

// SplitterOption customises a Splitter.
type SplitterOption func(*Splitter)

// WithSplitterLogger sets the logger used for split decisions.
func WithSplitterLogger(l *slog.Logger) SplitterOption {
	return func(s *Splitter) { s.logger = l }
}

// NewSplitter returns a ready Splitter.
func NewSplitter(opts ...SplitterOption) *Splitter {
	s := &Splitter{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// sequenceRe separates chained requests: "add X then add Y, finally add Z".
var sequenceRe = regexp.MustCompile(`(?i)(?:,\s*)?(?:\band\s+)?\b(?:then|finally)\b[,\s]*`)

// Split parses input into descriptors. Later segments inherit the most
// recently stated target and format, so "add X in Notes then add Y" files
// both into Notes.
func (s *Splitter) Split(input string) []Descriptor {
	input = strings.TrimSpace(input)
	if input == "" {
		return []Descriptor{{Action: ActionUnknown}}
	}

	var out []Descriptor
	inh := inherit{}
	for _, segment := range splitSequence(input) {
		for _, d := range s.parseOne(segment, inh) {
			if d.PrimaryTarget != "" {
				inh.target = d.PrimaryTarget
			}
			if d.FormatType != "" {
				inh.format = d.FormatType
			}
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		out = []Descriptor{{Action: ActionUnknown}}
	}
	if len(out) > 1 {
		for i := range out {
			out[i].IsMultiAction = true
		}
		s.logger.Debug("split input", "segments", len(out))
	}
	return out
}

// parseOne handles one sequence segment: a conjunction of two formatted
// parts, a list enumeration, or a single action.
func (s *Splitter) parseOne(segment string, inh inherit) []Descriptor {
	if left, right, ok := conjunctionSplit(segment); ok {
		dl := parseSegment(left, inh)
		dr := parseSegment(right, inherit{target: inh.target, format: inh.format})
		if dr.Action == ActionUnknown {
			dr.Action = dl.Action
		}
		// The two sides share a trailing target stated on either one.
		if dl.PrimaryTarget == "" {
			dl.PrimaryTarget = dr.PrimaryTarget
		}
		if dr.PrimaryTarget == "" {
			dr.PrimaryTarget = dl.PrimaryTarget
		}
		return append(s.explode(dl), s.explode(dr)...)
	}
	return s.explode(parseSegment(segment, inh))
}

// explode turns a descriptor whose content is a comma enumeration of list
// items into one descriptor per item. Only list formats qualify, and the
// comma judgment is shared with block synthesis: prose like "hey, let's
// connect" stays whole.
func (s *Splitter) explode(d Descriptor) []Descriptor {
	kind, ok := blocks.NormalizeFormat(d.FormatType)
	if !ok || !blocks.IsListKind(kind) || d.Action == ActionEdit {
		return []Descriptor{d}
	}
	items := blocks.SplitListItems(d.Content)
	if len(items) <= 1 {
		return []Descriptor{d}
	}
	out := make([]Descriptor, 0, len(items))
	for _, item := range items {
		item := cleanContent(item)
		if item == "" {
			continue
		}
		dd := d
		dd.Content = item
		dd.IsURL = urlRe.MatchString(item)
		out = append(out, dd)
	}
	if len(out) == 0 {
		return []Descriptor{d}
	}
	return out
}

// splitSequence cuts input on "then"/"finally" markers. Segments reduced to
// connective glue are dropped.
func splitSequence(input string) []string {
	parts := sequenceRe.Split(input, -1)
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(p), " and"))
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{input}
	}
	return out
}

var tooRe = regexp.MustCompile(`(?i)\s+too\b`)

// conjunctionSplit detects "X as FORMAT and Y as FORMAT [too] [in TARGET]".
// Both sides must carry their own format cue, which keeps ordinary "milk
// and eggs" content intact.
func conjunctionSplit(segment string) (left, right string, ok bool) {
	lower := strings.ToLower(segment)
	idx := 0
	for {
		rel := strings.Index(lower[idx:], " and ")
		if rel < 0 {
			return "", "", false
		}
		at := idx + rel
		l := strings.TrimSpace(segment[:at])
		r := strings.TrimSpace(segment[at+len(" and "):])
		if hasFormatCue(l) && hasFormatCue(r) {
			return l, tooRe.ReplaceAllString(r, ""), true
		}
		idx = at + len(" and ")
	}
}

func hasFormatCue(segment string) bool {
	_, format := extractFormat(segment)
	return format != ""
}
