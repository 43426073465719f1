package interpret

import (
	"regexp"
	"strings"

	"github.com/inkwellhq/inkwell/blocks"
)

// destructiveKeywords mark an input as mutating stored content and
// therefore subject to the confirmation gate.
var destructiveKeywords = []string{
	"create", "add", "insert", "update", "modify", "edit", "delete",
	"remove", "rename", "move", "archive", "publish", "upload", "write",
}

// IsDestructive classifies an input by keyword membership. "new page" is a
// phrase match; everything else matches on whole words.
func IsDestructive(input string) bool {
	lower := strings.ToLower(input)
	if strings.Contains(lower, "new page") {
		return true
	}
	for _, word := range strings.Fields(lower) {
		word = strings.Trim(word, ".,!?\"'")
		for _, kw := range destructiveKeywords {
			if word == kw {
				return true
			}
		}
	}
	return false
}

// actionVerbs maps leading verbs to actions. Longest phrases are matched
// first by detectAction.
var actionVerbs = []struct {
	verb   string
	action Action
}{
	{"create", ActionCreate},
	{"make", ActionCreate},
	{"new page", ActionCreate},
	{"add", ActionWrite},
	{"write", ActionWrite},
	{"insert", ActionWrite},
	{"append", ActionWrite},
	{"put", ActionWrite},
	{"note", ActionWrite},
	{"save", ActionWrite},
	{"comment", ActionWrite},
	{"edit", ActionEdit},
	{"update", ActionEdit},
	{"change", ActionEdit},
	{"modify", ActionEdit},
	{"replace", ActionEdit},
	{"rename", ActionEdit},
	{"delete", ActionDelete},
	{"remove", ActionDelete},
}

// detectAction finds the leading verb and returns the action plus the rest
// of the segment with the verb (and a following article) stripped.
func detectAction(segment string) (Action, string) {
	lower := strings.ToLower(segment)
	for _, av := range actionVerbs {
		if lower == av.verb {
			return av.action, ""
		}
		if strings.HasPrefix(lower, av.verb+" ") {
			rest := strings.TrimSpace(segment[len(av.verb):])
			rest = stripArticle(rest)
			return av.action, rest
		}
	}
	return ActionUnknown, segment
}

func stripArticle(s string) string {
	lower := strings.ToLower(s)
	for _, art := range []string{"a ", "an ", "the "} {
		if strings.HasPrefix(lower, art) {
			return strings.TrimSpace(s[len(art):])
		}
	}
	return s
}

var (
	urlRe = regexp.MustCompile(`^https?://\S+$`)

	// replaceRe and changeRe extract old/new content for edit actions.
	replaceRe = regexp.MustCompile(`(?i)^(?:replace\s+)?['"]?(.+?)['"]?\s+with\s+['"]?(.+?)['"]?$`)
	changeRe  = regexp.MustCompile(`(?i)^(?:change\s+)?['"]?(.+?)['"]?\s+to\s+['"]?(.+?)['"]?$`)
)

// inherit carries context shared across segments of one multi-action input.
type inherit struct {
	target string
	format string
}

// parseSegment turns one single-action segment into a Descriptor. Phrases
// are peeled off in a fixed order: verb, old/new pair for edits, format
// hint, target, section; what remains is the content.
func parseSegment(segment string, inh inherit) Descriptor {
	segment = strings.TrimSpace(strings.Trim(segment, ","))
	d := Descriptor{Action: ActionUnknown}

	verb := firstWord(segment)
	action, rest := detectAction(segment)
	d.Action = action
	if action == ActionUnknown {
		rest = segment
	}

	// Edits carry an old → new pair.
	if action == ActionEdit {
		if m := replaceRe.FindStringSubmatch(rest); m != nil && strings.Contains(strings.ToLower(rest), " with ") {
			d.OldContent, d.NewContent = extractTargetsFromEdit(m[1], m[2], &d)
			d.Content = d.NewContent
			d.IsURL = urlRe.MatchString(d.Content)
			inheritFill(&d, inh)
			return d
		}
		if m := changeRe.FindStringSubmatch(rest); m != nil && strings.Contains(strings.ToLower(rest), " to ") {
			d.OldContent, d.NewContent = extractTargetsFromEdit(m[1], m[2], &d)
			d.Content = d.NewContent
			d.IsURL = urlRe.MatchString(d.Content)
			inheritFill(&d, inh)
			return d
		}
	}

	rest, format := extractFormat(rest)
	d.FormatType = format

	rest, target, section := extractTarget(rest)
	d.PrimaryTarget = target
	d.SectionTarget = section

	d.Content = cleanContent(rest)
	d.IsURL = urlRe.MatchString(d.Content)
	if verb == "comment" {
		d.CommentText = d.Content
	}

	inheritFill(&d, inh)
	return d
}

// inheritFill applies inherited context where the segment stated none.
func inheritFill(d *Descriptor, inh inherit) {
	if d.PrimaryTarget == "" {
		d.PrimaryTarget = inh.target
	}
	if d.FormatType == "" {
		d.FormatType = inh.format
	}
}

// extractTargetsFromEdit pulls a trailing "in TARGET" off the new-content
// side of an edit pair.
func extractTargetsFromEdit(oldPart, newPart string, d *Descriptor) (string, string) {
	trimmed, target, section := extractTarget(newPart)
	if target != "" || section != "" {
		d.PrimaryTarget = target
		d.SectionTarget = section
		newPart = trimmed
	}
	return cleanContent(oldPart), cleanContent(newPart)
}

var (
	asCueRe = regexp.MustCompile(`(?i)\s+as\s+(?:a\s+|an\s+)?([a-z0-9 _-]+)`)
	inCueRe = regexp.MustCompile(`(?i)\s+in\s+(?:a\s+|an\s+)?([a-z0-9 _-]+)`)
)

// extractFormat removes the first normalizable format phrase from segment
// and returns the canonical kind name. "as FORMAT" cues are preferred over
// "in FORMAT" cues, since "in" doubles as the target preposition. Candidate
// phrases are tried longest first so "bullet list" wins over "bullet", and
// a cue followed by a page word ("in tasks page") is left for target
// extraction — format synonyms like "tasks" collide with page names.
func extractFormat(segment string) (string, string) {
	for _, re := range []*regexp.Regexp{asCueRe, inCueRe} {
		for _, m := range re.FindAllStringSubmatchIndex(segment, -1) {
			phrase := segment[m[2]:m[3]]
			words := strings.Fields(phrase)
			for n := min(3, len(words)); n >= 1; n-- {
				candidate := strings.Join(words[:n], " ")
				kind, ok := blocks.NormalizeFormat(candidate)
				if !ok {
					continue
				}
				if isPageWord(wordAfter(words, n)) {
					continue
				}
				end := m[2] + len(candidate)
				out := strings.TrimSpace(segment[:m[0]] + " " + segment[end:])
				return out, string(kind)
			}
		}
	}
	return segment, ""
}

// wordAfter returns the word following an n-word candidate phrase, or "".
func wordAfter(words []string, n int) string {
	if n < len(words) {
		return strings.ToLower(words[n])
	}
	return ""
}

func isPageWord(w string) bool {
	return w == "page" || w == "doc" || w == "document"
}

// targetRe matches the trailing placement phrase: "in X", "to X", "on X",
// optionally followed by "page"/"doc"/"document". The greedy prefix makes
// the last preposition win, so "milk to buy to shopping list" yields the
// target "shopping list" rather than "buy to shopping list".
var targetRe = regexp.MustCompile(`(?i)^(.*\S)\s+(?:in|to|on)\s+(?:my\s+|the\s+)?(.+?)(?:\s+(?:page|doc|document))?\s*$`)

// sectionRe matches an inner section placement: "under X" or "in the X
// section".
var sectionRe = regexp.MustCompile(`(?i)\s+(?:under|in)\s+(?:the\s+)?(.+?)\s+section\s*`)

// extractTarget removes placement phrases from segment and returns the
// document target and (optional) section target.
func extractTarget(segment string) (rest, target, section string) {
	rest = segment

	if m := sectionRe.FindStringSubmatchIndex(rest); m != nil {
		section = strings.TrimSpace(rest[m[2]:m[3]])
		rest = strings.TrimSpace(rest[:m[0]] + " " + rest[m[1]:])
	}

	if m := targetRe.FindStringSubmatch(rest); m != nil && !urlRe.MatchString(m[2]) {
		target = strings.Trim(strings.TrimSpace(m[2]), `"'`)
		rest = strings.TrimSpace(m[1])
	}
	return rest, target, section
}

// cleanContent strips wrapping quotes and leftover separators.
func cleanContent(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, ",")
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = s[1 : len(s)-1]
		}
	}
	// An edit pair like change 'a' to 'b' in X can leave one dangling quote
	// after the target is peeled off the new side.
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

func firstWord(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
