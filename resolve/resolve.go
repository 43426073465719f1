// Package resolve maps a free-text document-name query onto a concrete
// document in the store, using exact matching first and score-based fuzzy
// matching as a fallback.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/inkwellhq/inkwell/docstore"
)

// AcceptThreshold is the minimum score for a confident fuzzy match.
const AcceptThreshold = 0.5

// Searcher is the slice of the document store the resolver needs.
type Searcher interface {
	SearchByTitle(ctx context.Context, query string) ([]docstore.Document, error)
	ListAll(ctx context.Context) ([]docstore.Document, error)
}

// Match is a resolved document. LowConfidence marks the documented leniency:
// no candidate cleared the threshold but results existed, so the best
// available one was picked rather than failing outright.
type Match struct {
	ID            string
	Title         string
	Score         float64
	LowConfidence bool
}

// ErrNotFound is returned only when the store holds no documents at all.
// Any non-empty listing yields at least a low-confidence best match.
type ErrNotFound struct {
	Query string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("resolve: no documents found for %q", e.Query)
}

// Resolver resolves document-name queries against a Searcher.
type Resolver struct {
	store  Searcher
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// New creates a Resolver over store.
func New(store Searcher, opts ...Option) *Resolver {
	r := &Resolver{store: store, logger: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve finds the document best matching query.
//
// Step 1 is an exact case-insensitive title match through the store's own
// search. Step 2 broadens to the full listing and scores every candidate.
// Step 3 ranks descending and accepts the top candidate at or above the
// threshold; when nothing clears it but scored candidates exist, the single
// highest-scoring result is returned with LowConfidence set. This leniency
// is deliberate, documented behaviour, not a bug.
func (r *Resolver) Resolve(ctx context.Context, query string) (Match, error) {
	query = strings.TrimSpace(query)

	// Step 1: exact title via the store's query-by-name capability.
	results, err := r.store.SearchByTitle(ctx, query)
	if err != nil {
		return Match{}, fmt.Errorf("resolve: search: %w", err)
	}
	for _, d := range results {
		if strings.EqualFold(strings.TrimSpace(d.Title), query) {
			return Match{ID: d.ID, Title: d.Title, Score: 1.0}, nil
		}
	}

	// Step 2: broad listing + scoring.
	all, err := r.store.ListAll(ctx)
	if err != nil {
		return Match{}, fmt.Errorf("resolve: list: %w", err)
	}
	if len(all) == 0 {
		return Match{}, &ErrNotFound{Query: query}
	}

	type scored struct {
		doc   docstore.Document
		score float64
	}
	ranked := make([]scored, 0, len(all))
	for _, d := range all {
		ranked = append(ranked, scored{doc: d, score: Score(query, d.Title)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	top := ranked[0]
	if top.score >= AcceptThreshold {
		return Match{ID: top.doc.ID, Title: top.doc.Title, Score: top.score}, nil
	}

	// Step 3 leniency: a best-available match beats an outright failure
	// whenever any document exists, even at zero overlap.
	r.logger.Debug("resolve: accepting below-threshold match",
		"query", query, "title", top.doc.Title, "score", top.score)
	return Match{ID: top.doc.ID, Title: top.doc.Title, Score: top.score, LowConfidence: true}, nil
}

// Score rates how well a candidate title matches the query:
//
//	1.0  equal (case-insensitive)
//	0.9  query contained in candidate
//	0.8  candidate contained in query
//	else the fraction of query words (longer than 2 runes) present in the
//	     candidate, divided by the larger of the two word counts
func Score(query, candidate string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	c := strings.ToLower(strings.TrimSpace(candidate))
	if q == "" || c == "" {
		return 0
	}
	if q == c {
		return 1.0
	}
	if strings.Contains(c, q) {
		return 0.9
	}
	if strings.Contains(q, c) {
		return 0.8
	}

	qWords := strings.Fields(q)
	cWords := strings.Fields(c)
	matched := 0
	for _, qw := range qWords {
		if len(qw) <= 2 {
			continue
		}
		for _, cw := range cWords {
			if cw == qw {
				matched++
				break
			}
		}
	}
	denom := len(qWords)
	if len(cWords) > denom {
		denom = len(cWords)
	}
	if denom == 0 {
		return 0
	}
	return float64(matched) / float64(denom)
}
