// Package sections derives a section view from a document's block sequence
// and locates the best-matching section for a free-text query.
//
// A Section is a non-persisted grouping: heading, toggle and callout blocks
// open a section that runs until the next boundary. The view is recomputed
// per lookup and never cached — pages mutate outside this process.
package sections

import (
	"github.com/inkwellhq/inkwell/blocks"
)

// ChildRef points at one block inside a section.
type ChildRef struct {
	Index int         `json:"index"`
	Type  blocks.Kind `json:"type"`
	Text  string      `json:"text"`
}

// Section is a derived view over consecutive blocks. StartIndex is the
// boundary block itself; EndIndex is the last block before the next boundary.
type Section struct {
	Title      string     `json:"title"`
	StartIndex int        `json:"start_index"`
	EndIndex   int        `json:"end_index"`
	Level      int        `json:"level"`
	Children   []ChildRef `json:"children"`
}

// Build scans a block sequence and returns its sections in document order.
// Blocks before the first boundary belong to no section.
func Build(seq []blocks.Block) []Section {
	var out []Section
	for i, b := range seq {
		if !isBoundary(b.Type) {
			if len(out) > 0 {
				cur := &out[len(out)-1]
				cur.EndIndex = i
				cur.Children = append(cur.Children, ChildRef{
					Index: i,
					Type:  b.Type,
					Text:  blocks.PlainText(b),
				})
			}
			continue
		}
		out = append(out, Section{
			Title:      blocks.PlainText(b),
			StartIndex: i,
			EndIndex:   i,
			Level:      boundaryLevel(b.Type),
		})
	}
	return out
}

func isBoundary(k blocks.Kind) bool {
	return blocks.IsHeading(k) || k == blocks.KindToggle || k == blocks.KindCallout
}

func boundaryLevel(k blocks.Kind) int {
	switch k {
	case blocks.KindHeading1:
		return 1
	case blocks.KindHeading2:
		return 2
	case blocks.KindHeading3:
		return 3
	default:
		return 0
	}
}
