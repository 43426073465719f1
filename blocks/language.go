package blocks

import (
	"regexp"
	"strings"
)

// LanguagePlainText is the untyped language tag used when no inference hits.
const LanguagePlainText = "plain text"

// languageAliases maps common fence-header spellings to canonical tags.
var languageAliases = map[string]string{
	"py":         "python",
	"python3":    "python",
	"js":         "javascript",
	"node":       "javascript",
	"nodejs":     "javascript",
	"ts":         "typescript",
	"golang":     "go",
	"rb":         "ruby",
	"rs":         "rust",
	"sh":         "shell",
	"zsh":        "shell",
	"shell":      "shell",
	"console":    "shell",
	"kt":         "kotlin",
	"cs":         "c#",
	"csharp":     "c#",
	"cpp":        "c++",
	"c++":        "c++",
	"yml":        "yaml",
	"md":         "markdown",
	"postgres":   "sql",
	"postgresql": "sql",
	"mysql":      "sql",
	"sqlite":     "sql",
	"plaintext":  LanguagePlainText,
	"text":       LanguagePlainText,
	"txt":        LanguagePlainText,
}

// knownLanguages is the set of tags accepted verbatim from a fence header.
var knownLanguages = map[string]bool{
	"python": true, "javascript": true, "typescript": true, "go": true,
	"ruby": true, "rust": true, "java": true, "c": true, "c#": true,
	"c++": true, "php": true, "swift": true, "kotlin": true, "scala": true,
	"html": true, "css": true, "sql": true, "shell": true, "bash": true,
	"yaml": true, "json": true, "xml": true, "markdown": true, "toml": true,
	"dockerfile": true, "makefile": true, "r": true, "lua": true,
	"perl": true, "haskell": true, "elixir": true, "erlang": true,
	"clojure": true, LanguagePlainText: true,
}

// NormalizeLanguage maps a fence-header language token to a canonical tag.
// Unknown tokens fall back to "plain text".
func NormalizeLanguage(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return LanguagePlainText
	}
	if canonical, ok := languageAliases[tag]; ok {
		return canonical
	}
	if knownLanguages[tag] {
		return tag
	}
	return LanguagePlainText
}

// languageSignature is one content-pattern heuristic for language guessing.
type languageSignature struct {
	language string
	patterns []*regexp.Regexp
	// minHits is how many patterns must match before the guess is accepted.
	minHits int
}

var languageSignatures = []languageSignature{
	{
		language: "go",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bfunc\s+\w+\s*\(`),
			regexp.MustCompile(`\bpackage\s+\w+`),
			regexp.MustCompile(`:=`),
			regexp.MustCompile(`\bfmt\.\w+`),
		},
		minHits: 2,
	},
	{
		language: "python",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bdef\s+\w+\s*\(`),
			regexp.MustCompile(`\bimport\s+\w+`),
			regexp.MustCompile(`\bself\b`),
			regexp.MustCompile(`\bprint\s*\(`),
			regexp.MustCompile(`:\s*$`),
		},
		minHits: 2,
	},
	{
		language: "javascript",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(const|let|var)\s+\w+\s*=`),
			regexp.MustCompile(`=>`),
			regexp.MustCompile(`\bfunction\s*\w*\s*\(`),
			regexp.MustCompile(`\bconsole\.log\s*\(`),
		},
		minHits: 2,
	},
	{
		language: "sql",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bSELECT\b.+\bFROM\b`),
			regexp.MustCompile(`(?i)\b(INSERT\s+INTO|UPDATE|DELETE\s+FROM|CREATE\s+TABLE)\b`),
		},
		minHits: 1,
	},
	{
		language: "html",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)<(!doctype|html|div|span|body|head)\b`),
		},
		minHits: 1,
	},
	{
		language: "json",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^\s*\{\s*"`),
		},
		minHits: 1,
	},
	{
		language: "shell",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^#!/bin/(ba)?sh`),
			regexp.MustCompile(`(?m)^\s*(sudo|apt|curl|grep|echo|cd|export)\s`),
		},
		minHits: 1,
	},
}

// GuessLanguage runs content-pattern heuristics over a code body and returns
// the best guess, or "plain text" when no signature matches.
func GuessLanguage(code string) string {
	for _, sig := range languageSignatures {
		hits := 0
		for _, p := range sig.patterns {
			if p.MatchString(code) {
				hits++
			}
		}
		if hits >= sig.minHits {
			return sig.language
		}
	}
	return LanguagePlainText
}
