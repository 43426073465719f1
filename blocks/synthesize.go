package blocks

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Synthesizer turns free-form content into typed blocks. The zero
// dependencies of the conversion itself are preserved: the only collaborator
// is an optional TitleFetcher used to enrich bookmark captions, and it is
// strictly best-effort.
type Synthesizer struct {
	logger *slog.Logger
	titles TitleFetcher
	html   *htmlConverter
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synthesizer) { s.logger = l }
}

// WithTitleFetcher enables bookmark caption enrichment.
func WithTitleFetcher(f TitleFetcher) Option {
	return func(s *Synthesizer) { s.titles = f }
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		logger: slog.Default(),
		html:   newHTMLConverter(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

var (
	urlPattern   = regexp.MustCompile(`^https?://\S+$`)
	fencePattern = regexp.MustCompile("(?s)```([a-zA-Z0-9+#_-]*)[ \t]*\n?(.*?)```")
)

// IsURL reports whether content is a single bare URL.
func IsURL(content string) bool {
	return urlPattern.MatchString(strings.TrimSpace(content))
}

// Synthesize converts content into a list of typed blocks. formatType is an
// optional hint; when empty the shape is auto-detected. The result is always
// non-empty for non-empty content and every block is schema-complete.
func (s *Synthesizer) Synthesize(ctx context.Context, content, formatType string) []Block {
	content = strings.TrimSpace(content)
	if content == "" {
		return []Block{Validate(NewParagraph(""))}
	}

	var out []Block
	if formatType == "" {
		out = s.autoDetect(ctx, content)
	} else {
		out = s.withHint(ctx, content, formatType)
	}

	for i := range out {
		out[i] = Validate(out[i])
	}
	return out
}

// autoDetect is the no-hint path: URL ⇒ bookmark, fenced code ⇒ code block,
// pasted HTML ⇒ markdown-aware conversion, multi-line ⇒ one paragraph per
// non-empty line, else a single paragraph.
func (s *Synthesizer) autoDetect(ctx context.Context, content string) []Block {
	switch {
	case IsURL(content):
		return []Block{s.bookmarkBlock(ctx, content)}
	case strings.Contains(content, "```"):
		return []Block{s.codeBlock(content)}
	case looksLikeHTML(content):
		md := s.html.toMarkdown(content)
		s.logger.Debug("synthesize: converted pasted html", "markdown_len", len(md))
		return s.markdownLines(ctx, md)
	case strings.Contains(content, "\n"):
		var out []Block
		for _, line := range strings.Split(content, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			out = append(out, NewParagraph(line))
		}
		if len(out) == 0 {
			out = append(out, NewParagraph(""))
		}
		return out
	default:
		return []Block{NewParagraph(content)}
	}
}

// withHint normalizes the hint to a canonical kind, then branches per kind.
func (s *Synthesizer) withHint(ctx context.Context, content, formatType string) []Block {
	kind, ok := NormalizeFormat(formatType)
	if !ok {
		s.logger.Warn("synthesize: unrecognized format hint, defaulting to paragraph",
			"format", formatType)
		return []Block{NewParagraph(content)}
	}

	switch kind {
	case KindBulleted, KindNumbered, KindToDo:
		items := SplitListItems(content)
		out := make([]Block, 0, len(items))
		for _, item := range items {
			out = append(out, listBlock(kind, item))
		}
		return out
	case KindToggle:
		return []Block{s.toggleBlock(ctx, content)}
	case KindCode:
		return []Block{s.codeBlock(content)}
	case KindQuote:
		return []Block{{Object: "block", Type: KindQuote, Quote: &TextPayload{RichText: Text(content)}}}
	case KindCallout:
		return []Block{{Object: "block", Type: KindCallout, Callout: &CalloutPayload{RichText: Text(content)}}}
	case KindHeading1:
		return []Block{{Object: "block", Type: KindHeading1, Heading1: &TextPayload{RichText: Text(content)}}}
	case KindHeading2:
		return []Block{{Object: "block", Type: KindHeading2, Heading2: &TextPayload{RichText: Text(content)}}}
	case KindHeading3:
		return []Block{{Object: "block", Type: KindHeading3, Heading3: &TextPayload{RichText: Text(content)}}}
	case KindBookmark:
		if url := firstURL(content); url != "" {
			return []Block{s.bookmarkBlock(ctx, url)}
		}
		return []Block{NewParagraph(content)}
	case KindDivider:
		return []Block{{Object: "block", Type: KindDivider, Divider: &DividerPayload{}}}
	default:
		return []Block{NewParagraph(content)}
	}
}

// listBlock builds one list-like block of the given kind.
func listBlock(kind Kind, text string) Block {
	switch kind {
	case KindToDo:
		return Block{Object: "block", Type: KindToDo, ToDo: &ToDoPayload{RichText: Text(text), Checked: false}}
	case KindNumbered:
		return Block{Object: "block", Type: KindNumbered, Numbered: &TextPayload{RichText: Text(text)}}
	default:
		return Block{Object: "block", Type: KindBulleted, Bulleted: &TextPayload{RichText: Text(text)}}
	}
}

// toggleHeaderPattern matches "<header>: <body>" where the header is a short
// single-line label.
var toggleHeaderPattern = regexp.MustCompile(`(?s)^([^:\n]{1,80}):\s+(.+)$`)

// toggleBlock builds a toggle. When content matches "<header>: <body>", the
// header becomes the toggle's own text and the body is synthesized
// recursively into children, with the same list/code detection rules. A body
// holding a code fence yields exactly one code child.
func (s *Synthesizer) toggleBlock(ctx context.Context, content string) Block {
	header, body := content, ""
	if m := toggleHeaderPattern.FindStringSubmatch(content); m != nil {
		header, body = strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}

	tb := Block{Object: "block", Type: KindToggle, Toggle: &TogglePayload{RichText: Text(header)}}
	if body == "" {
		return tb
	}

	if strings.Contains(body, "```") {
		tb.Toggle.Children = []Block{s.codeBlock(body)}
		return tb
	}
	tb.Toggle.Children = s.autoDetect(ctx, body)
	return tb
}

// codeBlock extracts a fenced code body and language tag when present,
// falling back to signature-based language guessing over the raw content.
func (s *Synthesizer) codeBlock(content string) Block {
	body := content
	lang := ""
	if m := fencePattern.FindStringSubmatch(content); m != nil {
		lang = m[1]
		body = strings.Trim(m[2], "\n")
	} else {
		body = strings.ReplaceAll(body, "```", "")
		body = strings.TrimSpace(body)
	}

	if lang != "" {
		lang = NormalizeLanguage(lang)
	} else {
		lang = GuessLanguage(body)
	}

	return Block{Object: "block", Type: KindCode, Code: &CodePayload{
		RichText: Text(body),
		Language: lang,
	}}
}

// bookmarkBlock builds a bookmark, enriching the caption with the page title
// when a fetcher is configured. Enrichment failure leaves the caption empty.
func (s *Synthesizer) bookmarkBlock(ctx context.Context, url string) Block {
	b := Block{Object: "block", Type: KindBookmark, Bookmark: &BookmarkPayload{URL: url}}
	if s.titles != nil {
		if title := s.titles.Title(ctx, url); title != "" {
			b.Bookmark.Caption = Text(title)
		}
	}
	return b
}

// markdownLines converts markdown produced from an HTML paste into blocks,
// honoring heading, list, to-do, quote and divider prefixes per line.
func (s *Synthesizer) markdownLines(ctx context.Context, md string) []Block {
	var out []Block
	numberedPrefix := regexp.MustCompile(`^\d+[.)]\s+`)
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "### "):
			out = append(out, Block{Object: "block", Type: KindHeading3,
				Heading3: &TextPayload{RichText: Text(strings.TrimPrefix(line, "### "))}})
		case strings.HasPrefix(line, "## "):
			out = append(out, Block{Object: "block", Type: KindHeading2,
				Heading2: &TextPayload{RichText: Text(strings.TrimPrefix(line, "## "))}})
		case strings.HasPrefix(line, "# "):
			out = append(out, Block{Object: "block", Type: KindHeading1,
				Heading1: &TextPayload{RichText: Text(strings.TrimPrefix(line, "# "))}})
		case strings.HasPrefix(line, "- [ ] "), strings.HasPrefix(line, "- [x] "):
			checked := strings.HasPrefix(line, "- [x] ")
			text := line[len("- [ ] "):]
			out = append(out, Block{Object: "block", Type: KindToDo,
				ToDo: &ToDoPayload{RichText: Text(text), Checked: checked}})
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			out = append(out, listBlock(KindBulleted, line[2:]))
		case numberedPrefix.MatchString(line):
			out = append(out, listBlock(KindNumbered, numberedPrefix.ReplaceAllString(line, "")))
		case strings.HasPrefix(line, "> "):
			out = append(out, Block{Object: "block", Type: KindQuote,
				Quote: &TextPayload{RichText: Text(strings.TrimPrefix(line, "> "))}})
		case line == "---" || line == "***":
			out = append(out, Block{Object: "block", Type: KindDivider, Divider: &DividerPayload{}})
		default:
			out = append(out, NewParagraph(line))
		}
	}
	if len(out) == 0 {
		out = append(out, NewParagraph(""))
	}
	return out
}

// firstURL returns the first http(s) URL inside content, or "".
func firstURL(content string) string {
	for _, word := range strings.Fields(content) {
		if urlPattern.MatchString(word) {
			return word
		}
	}
	return ""
}
