package sections

import (
	"math"
	"strings"
)

// concept ties a key to the vocabulary that implies it. Membership works in
// both directions: a query mentioning the key or any synonym matches a
// section whose title contains the key or any synonym. Order matters — the
// first concept hit wins.
type concept struct {
	key      string
	synonyms []string
}

var synonymTable = []concept{
	{"daily tasks", []string{"today", "daily", "day", "todays"}},
	{"notes", []string{"ideas", "thoughts", "scratch", "journal"}},
	{"done", []string{"completed", "finished", "archive"}},
	{"inbox", []string{"incoming", "unsorted", "triage"}},
}

// taskVocabulary triggers the tier-5 default: task-like placements fall back
// to a day/daily section when nothing else matched.
var taskVocabulary = []string{"task", "tasks", "todo", "to-do", "to do", "checklist"}

var dayVocabulary = []string{"day", "daily", "today"}

// Locate returns the best-matching section for query, or nil. Nil means
// "place at document end" — it is not an error. Matching tiers, first hit
// wins:
//
//  1. exact case-insensitive title equality
//  2. synonym-table concept match
//  3. substring containment either direction
//  4. word-overlap scoring (2 per exact word, 1 per partial), ties broken
//     by smallest title-length difference
//  5. task vocabulary in the query ⇒ any day/daily section
//  6. first section in document order, if any
func Locate(secs []Section, query string) *Section {
	if len(secs) == 0 {
		return nil
	}
	q := strings.ToLower(strings.TrimSpace(query))

	// Tier 1: exact title.
	for i := range secs {
		if strings.ToLower(strings.TrimSpace(secs[i].Title)) == q {
			return &secs[i]
		}
	}

	// Tier 2: synonym concepts.
	if s := synonymMatch(secs, q); s != nil {
		return s
	}

	// Tier 3: substring either direction.
	for i := range secs {
		title := strings.ToLower(secs[i].Title)
		if title == "" {
			continue
		}
		if strings.Contains(title, q) || strings.Contains(q, title) {
			return &secs[i]
		}
	}

	// Tier 4: word overlap.
	if s := overlapMatch(secs, q); s != nil {
		return s
	}

	// Tier 5: task-like query defaults to a day/daily section.
	if containsAny(q, taskVocabulary) {
		for i := range secs {
			if containsAny(strings.ToLower(secs[i].Title), dayVocabulary) {
				return &secs[i]
			}
		}
	}

	// Terminal fallback.
	return &secs[0]
}

// synonymMatch finds a concept whose vocabulary intersects the query, then
// returns the first section whose title carries that concept's vocabulary.
func synonymMatch(secs []Section, q string) *Section {
	for _, c := range synonymTable {
		vocab := append([]string{c.key}, c.synonyms...)
		if !containsAny(q, vocab) {
			continue
		}
		for i := range secs {
			if containsAny(strings.ToLower(secs[i].Title), vocab) {
				return &secs[i]
			}
		}
	}
	return nil
}

// overlapMatch scores each section by word overlap with the query: exact
// word matches count double, partial (substring) matches count single.
// The best positive score wins; ties go to the title closest in length.
func overlapMatch(secs []Section, q string) *Section {
	qWords := strings.Fields(q)
	if len(qWords) == 0 {
		return nil
	}

	best := -1
	bestScore := 0
	bestLenDiff := math.MaxInt
	for i := range secs {
		title := strings.ToLower(secs[i].Title)
		tWords := strings.Fields(title)
		score := 0
		for _, qw := range qWords {
			for _, tw := range tWords {
				if qw == tw {
					score += 2
					break
				}
				if strings.Contains(tw, qw) || strings.Contains(qw, tw) {
					score++
					break
				}
			}
		}
		if score == 0 {
			continue
		}
		lenDiff := abs(len(title) - len(q))
		if score > bestScore || (score == bestScore && lenDiff < bestLenDiff) {
			best, bestScore, bestLenDiff = i, score, lenDiff
		}
	}
	if best < 0 {
		return nil
	}
	return &secs[best]
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
