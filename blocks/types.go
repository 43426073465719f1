// Package blocks defines the typed block model of the document store and the
// two pure stages of the synthesis pipeline: Synthesizer (content string →
// typed blocks) and Validate (candidate block → structurally complete block).
//
// A Block is a tagged variant: Type names the kind and exactly one of the
// payload pointers is set. Text-bearing payloads carry a rich-text run list
// that is never nil after Validate.
package blocks

import "strings"

// Kind identifies a block type on the wire.
type Kind string

const (
	KindParagraph    Kind = "paragraph"
	KindHeading1     Kind = "heading_1"
	KindHeading2     Kind = "heading_2"
	KindHeading3     Kind = "heading_3"
	KindBulleted     Kind = "bulleted_list_item"
	KindNumbered     Kind = "numbered_list_item"
	KindToDo         Kind = "to_do"
	KindToggle       Kind = "toggle"
	KindCode         Kind = "code"
	KindQuote        Kind = "quote"
	KindCallout      Kind = "callout"
	KindBookmark     Kind = "bookmark"
	KindDivider      Kind = "divider"
	KindImage        Kind = "image"
	KindFile         Kind = "file"
)

// RichText is a single text run inside a text-bearing block.
type RichText struct {
	Type string      `json:"type"`
	Text TextContent `json:"text"`
}

// TextContent is the content of a rich-text run. Link is optional.
type TextContent struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

// Link is an inline hyperlink on a text run.
type Link struct {
	URL string `json:"url"`
}

// Text returns a rich-text slice holding a single plain run.
func Text(s string) []RichText {
	return []RichText{{Type: "text", Text: TextContent{Content: s}}}
}

// TextPayload is the shared payload of paragraph, heading, list-item and
// quote blocks.
type TextPayload struct {
	RichText []RichText `json:"rich_text"`
}

// ToDoPayload always carries an explicit checked state.
type ToDoPayload struct {
	RichText []RichText `json:"rich_text"`
	Checked  bool       `json:"checked"`
}

// TogglePayload owns its children by composition: the child blocks live
// inside the toggle, they are not references.
type TogglePayload struct {
	RichText []RichText `json:"rich_text"`
	Children []Block    `json:"children,omitempty"`
}

// CodePayload carries a language tag; "plain text" when nothing better is known.
type CodePayload struct {
	RichText []RichText `json:"rich_text"`
	Language string     `json:"language"`
}

// CalloutPayload carries an icon in addition to its text. Like a toggle,
// a callout owns its children by composition.
type CalloutPayload struct {
	RichText []RichText `json:"rich_text"`
	Icon     *Icon      `json:"icon,omitempty"`
	Children []Block    `json:"children,omitempty"`
}

// Icon is an emoji icon on a callout block.
type Icon struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
}

// BookmarkPayload links out to a URL with an optional caption.
type BookmarkPayload struct {
	URL     string     `json:"url"`
	Caption []RichText `json:"caption,omitempty"`
}

// DividerPayload has no content.
type DividerPayload struct{}

// FilePayload is the payload of image and file blocks. Only external
// references are produced by this pipeline.
type FilePayload struct {
	Type     string        `json:"type"`
	External *ExternalFile `json:"external,omitempty"`
	Caption  []RichText    `json:"caption,omitempty"`
}

// ExternalFile is a URL-addressed file source.
type ExternalFile struct {
	URL string `json:"url"`
}

// Block is a tagged union over block kinds. Object is the generic object
// marker ("block") and exactly one payload pointer matches Type. ID and
// HasChildren are populated on blocks read back from the store and left
// empty on synthesized blocks.
type Block struct {
	Object      string `json:"object"`
	ID          string `json:"id,omitempty"`
	Type        Kind   `json:"type"`
	HasChildren bool   `json:"has_children,omitempty"`

	Paragraph *TextPayload    `json:"paragraph,omitempty"`
	Heading1  *TextPayload    `json:"heading_1,omitempty"`
	Heading2  *TextPayload    `json:"heading_2,omitempty"`
	Heading3  *TextPayload    `json:"heading_3,omitempty"`
	Bulleted  *TextPayload    `json:"bulleted_list_item,omitempty"`
	Numbered  *TextPayload    `json:"numbered_list_item,omitempty"`
	ToDo      *ToDoPayload    `json:"to_do,omitempty"`
	Toggle    *TogglePayload  `json:"toggle,omitempty"`
	Code      *CodePayload    `json:"code,omitempty"`
	Quote     *TextPayload    `json:"quote,omitempty"`
	Callout   *CalloutPayload `json:"callout,omitempty"`
	Bookmark  *BookmarkPayload `json:"bookmark,omitempty"`
	Divider   *DividerPayload `json:"divider,omitempty"`
	Image     *FilePayload    `json:"image,omitempty"`
	File      *FilePayload    `json:"file,omitempty"`
}

// NewParagraph returns a paragraph block holding s as a single run.
func NewParagraph(s string) Block {
	return Block{Object: "block", Type: KindParagraph, Paragraph: &TextPayload{RichText: Text(s)}}
}

// richText returns the rich-text runs of b's payload, or nil for kinds that
// carry none (divider, bookmark, image, file).
func (b *Block) richText() []RichText {
	switch b.Type {
	case KindParagraph:
		if b.Paragraph != nil {
			return b.Paragraph.RichText
		}
	case KindHeading1:
		if b.Heading1 != nil {
			return b.Heading1.RichText
		}
	case KindHeading2:
		if b.Heading2 != nil {
			return b.Heading2.RichText
		}
	case KindHeading3:
		if b.Heading3 != nil {
			return b.Heading3.RichText
		}
	case KindBulleted:
		if b.Bulleted != nil {
			return b.Bulleted.RichText
		}
	case KindNumbered:
		if b.Numbered != nil {
			return b.Numbered.RichText
		}
	case KindToDo:
		if b.ToDo != nil {
			return b.ToDo.RichText
		}
	case KindToggle:
		if b.Toggle != nil {
			return b.Toggle.RichText
		}
	case KindCode:
		if b.Code != nil {
			return b.Code.RichText
		}
	case KindQuote:
		if b.Quote != nil {
			return b.Quote.RichText
		}
	case KindCallout:
		if b.Callout != nil {
			return b.Callout.RichText
		}
	}
	return nil
}

// PlainText flattens the block's rich-text runs into one string.
// Bookmark blocks return their URL; content-free kinds return "".
func PlainText(b Block) string {
	if b.Type == KindBookmark && b.Bookmark != nil {
		return b.Bookmark.URL
	}
	runs := b.richText()
	if len(runs) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text.Content)
	}
	return sb.String()
}

// IsHeading reports whether k is one of the three heading kinds.
func IsHeading(k Kind) bool {
	return k == KindHeading1 || k == KindHeading2 || k == KindHeading3
}
