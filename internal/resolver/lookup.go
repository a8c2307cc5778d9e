package resolver

import (
	"context"
	"strings"
	"time"

	"boothbot/internal/logging"
	"boothbot/internal/matching"
	"boothbot/internal/store"
)

// timeBudget is how long one command may take before it is logged as slow.
const timeBudget = 500 * time.Millisecond

// lookup runs the fallback cascade for one column:
// exact match, then close-match suggestions, then word-wise matching.
func (r *Resolver) lookup(ctx context.Context, log *logging.Logger, col store.Column, value string) string {
	rows, err := r.repo.ExactMatch(ctx, col, value, r.opts.ExactLimit)
	if err != nil {
		log.Error("exact match on %s failed: %v", col, err)
		return apology
	}
	if len(rows) > 0 {
		log.Debug("exact match on %s=%q: %d rows", col, value, len(rows))
		return formatSections(foundHeader, rows)
	}

	suggestions, err := r.suggest(ctx, col, value)
	if err != nil {
		log.Error("close match on %s failed: %v", col, err)
		return apology
	}
	if len(suggestions) > 0 {
		log.Debug("suggesting %v for %s=%q", suggestions, col, value)
		return formatSuggestions(suggestions)
	}

	rows, err = r.repo.WordMatch(ctx, col, strings.Fields(value), r.opts.FallbackLimit)
	if err != nil {
		log.Error("word match on %s failed: %v", col, err)
		return apology
	}
	if len(rows) > 0 {
		log.Debug("word match on %s=%q: %d rows", col, value, len(rows))
		return formatSections(fuzzyHeader, rows)
	}

	log.Info("no results for %s=%q", col, value)
	return r.notFoundText()
}

// suggest returns close matches for value among the column's distinct
// values. An empty distinct set yields no suggestions.
func (r *Resolver) suggest(ctx context.Context, col store.Column, value string) ([]string, error) {
	candidates, err := r.repo.DistinctValues(ctx, col)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return matching.CloseMatches(value, candidates, r.opts.MaxSuggestions, r.opts.Cutoff)
}
