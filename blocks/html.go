package blocks

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"
)

// htmlTagPattern matches an opening tag for the structural elements that mark
// pasted markup, as opposed to prose that merely mentions angle brackets.
var htmlTagPattern = regexp.MustCompile(`(?i)<(p|div|h[1-6]|ul|ol|li|table|br|blockquote|pre|a|strong|em|span)[\s>/]`)

// looksLikeHTML reports whether content appears to be pasted HTML markup.
func looksLikeHTML(content string) bool {
	return htmlTagPattern.MatchString(content)
}

// htmlConverter turns pasted HTML into markdown so the synthesizer can apply
// its normal line-based rules to it. Input is sanitized first: scripts,
// styles and event handlers from arbitrary pastes never reach the converter.
type htmlConverter struct {
	policy    *bluemonday.Policy
	converter *converter.Converter
}

func newHTMLConverter() *htmlConverter {
	return &htmlConverter{
		policy: bluemonday.UGCPolicy(),
		converter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// toMarkdown sanitizes and converts HTML. If conversion fails or produces an
// empty document, the original content is returned so synthesis still has
// something to work with.
func (h *htmlConverter) toMarkdown(content string) string {
	clean := h.policy.Sanitize(content)
	md, err := h.converter.ConvertString(clean)
	if err != nil || strings.TrimSpace(md) == "" {
		return content
	}
	return strings.TrimSpace(md)
}
