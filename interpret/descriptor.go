// Package interpret parses free-form requests into action descriptors: what
// to do, where, with what content and in what shape. It hosts the
// destructiveness classifier, the multi-action splitter and the ordered
// strategy chain that lets a language model assist parsing with a
// transparent rule-based fallback.
package interpret

// Action is the operation class of one descriptor.
type Action string

const (
	ActionCreate  Action = "create"
	ActionWrite   Action = "write"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionUnknown Action = "unknown"
)

// Valid reports whether a is one of the known action values.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionWrite, ActionEdit, ActionDelete, ActionUnknown:
		return true
	}
	return false
}

// Descriptor is the structured result of parsing one user-intended
// operation. Targets are carried as free-text names, not resolved ids:
// resolution happens at execution time so inherited targets stay correct
// even when the store changes between turns. Immutable once synthesized
// into blocks.
type Descriptor struct {
	Action        Action `json:"action"`
	PrimaryTarget string `json:"primary_target,omitempty"`
	SectionTarget string `json:"section_target,omitempty"`
	Content       string `json:"content,omitempty"`
	OldContent    string `json:"old_content,omitempty"`
	NewContent    string `json:"new_content,omitempty"`
	FormatType    string `json:"format_type,omitempty"`
	IsMultiAction bool   `json:"is_multi_action,omitempty"`
	IsURL         bool   `json:"is_url,omitempty"`
	CommentText   string `json:"comment_text,omitempty"`
}
