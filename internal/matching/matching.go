// Package matching finds "did you mean" candidates for lookups that missed.
// Similarity is the Ratcliff/Obershelp ratio computed by go-difflib over the
// characters of the two strings.
package matching

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	// DefaultMaxMatches is the number of suggestions offered when the caller
	// has no preference.
	DefaultMaxMatches = 3
	// DefaultCutoff is the minimum similarity ratio for a suggestion.
	DefaultCutoff = 0.6
)

// ErrInvalidArgument is returned for a non-positive n or a cutoff outside [0, 1].
var ErrInvalidArgument = errors.New("invalid matching argument")

// Match is a scored candidate.
type Match struct {
	Value string
	Score float64
}

// CloseMatches returns up to n values from possibilities that are similar to
// word, best first. Comparison ignores case; returned values keep their
// original spelling.
func CloseMatches(word string, possibilities []string, n int, cutoff float64) ([]string, error) {
	scored, err := Rank(word, possibilities, n, cutoff)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(scored))
	for i, m := range scored {
		out[i] = m.Value
	}
	return out, nil
}

// Rank is CloseMatches with the similarity scores attached.
func Rank(word string, possibilities []string, n int, cutoff float64) ([]Match, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n must be > 0, got %d", ErrInvalidArgument, n)
	}
	if cutoff < 0 || cutoff > 1 {
		return nil, fmt.Errorf("%w: cutoff must be in [0, 1], got %v", ErrInvalidArgument, cutoff)
	}

	// The matcher caches details about seq2, so the query goes there and
	// each candidate is swapped in as seq1.
	sm := difflib.NewMatcher(nil, chars(strings.ToLower(word)))

	var results []Match
	for _, p := range possibilities {
		sm.SetSeq1(chars(strings.ToLower(p)))
		if sm.RealQuickRatio() < cutoff || sm.QuickRatio() < cutoff {
			continue
		}
		if score := sm.Ratio(); score >= cutoff {
			results = append(results, Match{Value: p, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Value > results[j].Value
	})
	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}

// chars splits s into one element per rune.
func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
