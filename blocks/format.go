package blocks

import "strings"

// formatSynonyms maps the many spellings users reach for to canonical kinds.
var formatSynonyms = map[string]Kind{
	"paragraph": KindParagraph,
	"text":      KindParagraph,

	"heading":   KindHeading1,
	"heading 1": KindHeading1,
	"heading1":  KindHeading1,
	"h1":        KindHeading1,
	"title":     KindHeading1,
	"heading 2": KindHeading2,
	"heading2":  KindHeading2,
	"h2":        KindHeading2,
	"subheading": KindHeading2,
	"heading 3": KindHeading3,
	"heading3":  KindHeading3,
	"h3":        KindHeading3,

	"bullet":        KindBulleted,
	"bullets":       KindBulleted,
	"bullet list":   KindBulleted,
	"bulleted list": KindBulleted,
	"bullet points": KindBulleted,
	"list":          KindBulleted,

	"numbered":      KindNumbered,
	"numbered list": KindNumbered,
	"ordered list":  KindNumbered,
	"number list":   KindNumbered,

	"todo":      KindToDo,
	"to-do":     KindToDo,
	"to do":     KindToDo,
	"todos":     KindToDo,
	"checklist": KindToDo,
	"check list": KindToDo,
	"task":      KindToDo,
	"tasks":     KindToDo,
	"task list": KindToDo,

	"toggle":      KindToggle,
	"dropdown":    KindToggle,
	"collapsible": KindToggle,

	"code":       KindCode,
	"code block": KindCode,
	"snippet":    KindCode,

	"quote":      KindQuote,
	"blockquote": KindQuote,

	"callout": KindCallout,
	"note":    KindCallout,

	"bookmark": KindBookmark,
	"link":     KindBookmark,

	"divider":   KindDivider,
	"separator": KindDivider,
}

// NormalizeFormat maps a free-text format hint to its canonical block kind.
// The second return is false for hints no synonym covers.
func NormalizeFormat(hint string) (Kind, bool) {
	h := strings.ToLower(strings.TrimSpace(hint))
	h = strings.Trim(h, ".!?")
	if h == "" {
		return "", false
	}
	if kind, ok := formatSynonyms[h]; ok {
		return kind, true
	}
	// Canonical wire names pass through unchanged.
	switch Kind(h) {
	case KindParagraph, KindHeading1, KindHeading2, KindHeading3, KindBulleted,
		KindNumbered, KindToDo, KindToggle, KindCode, KindQuote, KindCallout,
		KindBookmark, KindDivider, KindImage, KindFile:
		return Kind(h), true
	}
	return "", false
}

// IsListKind reports whether k produces one block per item.
func IsListKind(k Kind) bool {
	return k == KindBulleted || k == KindNumbered || k == KindToDo
}

// proseConnectives mark a comma as sentence punctuation rather than an item
// separator: "hey, let's connect" is one item, not two.
var proseConnectives = []string{
	"let's", "lets", "which", "that", "but", "so", "because", "though",
	"please", "and then", "you", "we", "i'll", "i will", "it's", "this",
}

// SplitListItems splits content into list items. A split is only performed
// on an explicit enumeration: a newline, a dash-delimited list, or a comma
// sequence with no prose connective opening any segment. Anything else is a
// single item with the whole content.
func SplitListItems(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return []string{""}
	}

	if strings.Contains(content, "\n") {
		return splitNonEmpty(content, "\n")
	}

	// Dash-delimited inline list: "- alpha - beta - gamma".
	if strings.HasPrefix(content, "- ") && strings.Count(content, " - ") >= 1 {
		items := splitNonEmpty(strings.TrimPrefix(content, "- "), " - ")
		if len(items) > 1 {
			return items
		}
	}

	if strings.Contains(content, ",") && isEnumeration(content) {
		return splitNonEmpty(content, ",")
	}

	return []string{content}
}

// isEnumeration applies the enumeration-vs-prose judgment to a
// comma-separated candidate. The rule is deliberately conservative: any
// segment opening with a prose connective keeps the content whole.
func isEnumeration(content string) bool {
	segments := strings.Split(content, ",")
	nonEmpty := 0
	for _, seg := range segments {
		seg = strings.ToLower(strings.TrimSpace(seg))
		if seg == "" {
			continue
		}
		nonEmpty++
		for _, conn := range proseConnectives {
			if seg == conn || strings.HasPrefix(seg, conn+" ") {
				return false
			}
		}
	}
	return nonEmpty >= 2
}

func splitNonEmpty(content, sep string) []string {
	var items []string
	for _, part := range strings.Split(content, sep) {
		part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "- "))
		if part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		items = []string{""}
	}
	return items
}
