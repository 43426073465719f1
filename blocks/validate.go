package blocks

// Validate returns a structurally complete copy of b. It never fails: a
// block with a missing payload, nil rich-text slice or nil run content is
// repaired in place of being rejected. Validate is idempotent.
//
// Repairs per kind:
//   - every block gets the "block" object marker and a payload matching Type
//   - text-bearing kinds get a non-nil rich-text slice whose runs all have a
//     type tag and a non-nil content string (possibly empty)
//   - to_do keeps its explicit checked flag (zero value false when absent)
//   - toggle children are validated recursively
//   - code defaults its language to "plain text"
//   - callout defaults its icon
//   - image/file default to an external reference with an empty URL and get
//     their caption repaired like rich text
//
// A block with an unknown (or empty) Type is coerced to an empty paragraph.
func Validate(b Block) Block {
	b.Object = "block"

	switch b.Type {
	case KindParagraph:
		if b.Paragraph == nil {
			b.Paragraph = &TextPayload{}
		}
		b.Paragraph.RichText = repairRichText(b.Paragraph.RichText)
	case KindHeading1:
		if b.Heading1 == nil {
			b.Heading1 = &TextPayload{}
		}
		b.Heading1.RichText = repairRichText(b.Heading1.RichText)
	case KindHeading2:
		if b.Heading2 == nil {
			b.Heading2 = &TextPayload{}
		}
		b.Heading2.RichText = repairRichText(b.Heading2.RichText)
	case KindHeading3:
		if b.Heading3 == nil {
			b.Heading3 = &TextPayload{}
		}
		b.Heading3.RichText = repairRichText(b.Heading3.RichText)
	case KindBulleted:
		if b.Bulleted == nil {
			b.Bulleted = &TextPayload{}
		}
		b.Bulleted.RichText = repairRichText(b.Bulleted.RichText)
	case KindNumbered:
		if b.Numbered == nil {
			b.Numbered = &TextPayload{}
		}
		b.Numbered.RichText = repairRichText(b.Numbered.RichText)
	case KindToDo:
		if b.ToDo == nil {
			b.ToDo = &ToDoPayload{}
		}
		b.ToDo.RichText = repairRichText(b.ToDo.RichText)
	case KindToggle:
		if b.Toggle == nil {
			b.Toggle = &TogglePayload{}
		}
		b.Toggle.RichText = repairRichText(b.Toggle.RichText)
		for i, child := range b.Toggle.Children {
			b.Toggle.Children[i] = Validate(child)
		}
	case KindCode:
		if b.Code == nil {
			b.Code = &CodePayload{}
		}
		b.Code.RichText = repairRichText(b.Code.RichText)
		if b.Code.Language == "" {
			b.Code.Language = LanguagePlainText
		}
	case KindQuote:
		if b.Quote == nil {
			b.Quote = &TextPayload{}
		}
		b.Quote.RichText = repairRichText(b.Quote.RichText)
	case KindCallout:
		if b.Callout == nil {
			b.Callout = &CalloutPayload{}
		}
		b.Callout.RichText = repairRichText(b.Callout.RichText)
		if b.Callout.Icon == nil {
			b.Callout.Icon = &Icon{Type: "emoji", Emoji: defaultCalloutEmoji}
		}
		for i, child := range b.Callout.Children {
			b.Callout.Children[i] = Validate(child)
		}
	case KindBookmark:
		if b.Bookmark == nil {
			b.Bookmark = &BookmarkPayload{}
		}
		if b.Bookmark.Caption != nil {
			b.Bookmark.Caption = repairRichText(b.Bookmark.Caption)
		}
	case KindDivider:
		if b.Divider == nil {
			b.Divider = &DividerPayload{}
		}
	case KindImage:
		b.Image = repairFilePayload(b.Image)
	case KindFile:
		b.File = repairFilePayload(b.File)
	default:
		b.Type = KindParagraph
		b.Paragraph = &TextPayload{RichText: repairRichText(nil)}
	}

	return b
}

const defaultCalloutEmoji = "💡"

// repairRichText normalizes a rich-text slice: nil becomes an empty slice
// and every run gets a type tag. Content strings are value types in Go so
// they can never be null, but the type tag can arrive empty from loosely
// constructed input.
func repairRichText(runs []RichText) []RichText {
	if runs == nil {
		return []RichText{}
	}
	for i := range runs {
		if runs[i].Type == "" {
			runs[i].Type = "text"
		}
	}
	return runs
}

// repairFilePayload normalizes an image/file payload to the external shape.
func repairFilePayload(p *FilePayload) *FilePayload {
	if p == nil {
		p = &FilePayload{}
	}
	if p.Type == "" {
		p.Type = "external"
	}
	if p.External == nil && p.Type == "external" {
		p.External = &ExternalFile{URL: ""}
	}
	if p.Caption != nil {
		p.Caption = repairRichText(p.Caption)
	}
	return p
}
