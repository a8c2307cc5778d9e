package resolver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boothbot/internal/intent"
	"boothbot/internal/store"
)

type fixedJoker string

func (j fixedJoker) Joke() string { return string(j) }

func newTestResolver(t *testing.T) (*Resolver, *store.CourseStore) {
	t.Helper()
	s, err := store.NewCourseStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.UpsertSections(context.Background(), []store.Section{
		{Title: "Financial Accounting", Course: "30000", Section: "30000-01", Instructor: "Kleymenova, Anya", Time: "Mon 8:30", Location: "Harper C04", Hours: 6, Interesting: 3.9, Recommend: 4.5},
		{Title: "Financial Accounting", Course: "30000", Section: "30000-02", Instructor: "Kleymenova, Anya", Time: "Mon 13:30", Location: "Harper C04", Hours: 5, Interesting: 3.9, Recommend: 4.5},
		{Title: "Financial Accounting", Course: "30000", Section: "30000-03", Instructor: "Smith, John", Time: "Tue 8:30", Location: "Harper C08", Hours: 7, Interesting: 2.1, Recommend: 3.2},
		{Title: "Financial Accounting", Course: "30000", Section: "30000-04", Instructor: "Smith, John", Time: "Tue 13:30", Location: "Harper C08", Hours: 7, Interesting: 4.0, Recommend: 3.2},
		{Title: "Financial Accounting", Course: "30000", Section: "30000-05", Instructor: "Doe, Jane", Time: "Wed 8:30", Location: "Harper C10", Hours: 8, Interesting: 1.0, Recommend: 1.5},
		{Title: "Financial Accounting", Course: "30000", Section: "30000-06", Instructor: "Doe, Jane", Time: "Wed 18:00", Location: "Gleacher 100", Hours: 8, Interesting: 1.0, Recommend: 0},
		{Title: "Managerial Accounting", Course: "30001", Section: "30001-01", Instructor: "Brown, Alex", Time: "Thu 8:30", Location: "Harper C02", Hours: 4, Interesting: 3.0, Recommend: 4.0},
		{Title: "Microeconomics", Course: "33001", Section: "33001-01", Instructor: "Plato", Time: "Fri 8:30", Location: "Harper 3A", Hours: 9, Interesting: 4.8, Recommend: 4.9},
	})
	require.NoError(t, err)

	return New(s, fixedJoker("a joke"), DefaultOptions()), s
}

func TestRespond_ExactMatch(t *testing.T) {
	r, _ := newTestResolver(t)

	reply := r.Respond(context.Background(), "course Financial Accounting", "U1")

	require.True(t, strings.HasPrefix(reply, foundHeader), reply)
	assert.Equal(t, 5, strings.Count(reply, "*Financial Accounting 30000-"), "exact branch is capped at 5 rows")
	assert.Less(t, strings.Index(reply, "30000-02"), strings.Index(reply, "30000-04"), "higher recommend first")
	assert.NotContains(t, reply, "30000-06")
	assert.Contains(t, reply, "*Financial Accounting 30000-02. Taught by Kleymenova, Anya on Mon 13:30 at Harper C04.*\n\tRecommend rating: 4.5.\n\tHours per week: 5.\n\tInteresting rating: 3.9.")
}

func TestRespond_CourseNumberAndInstructor(t *testing.T) {
	r, _ := newTestResolver(t)
	ctx := context.Background()

	reply := r.Respond(ctx, "course_num 30001", "U1")
	assert.True(t, strings.HasPrefix(reply, foundHeader), reply)
	assert.Contains(t, reply, "Managerial Accounting 30001-01")

	reply = r.Respond(ctx, "instructor Kleymenova", "U1")
	assert.True(t, strings.HasPrefix(reply, foundHeader), reply)
	assert.Equal(t, 2, strings.Count(reply, "Taught by Kleymenova, Anya"))
}

func TestRespond_Suggestions(t *testing.T) {
	r, _ := newTestResolver(t)

	reply := r.Respond(context.Background(), "course financial acounting", "U1")

	assert.Contains(t, reply, "Perhaps you meant one of these:\n\tFinancial Accounting\n\tManagerial Accounting\n")
	assert.Contains(t, reply, "If you ask me again with one of ^^^ those")
}

func TestRespond_NonASCIIExactMatch(t *testing.T) {
	r, s := newTestResolver(t)
	ctx := context.Background()

	_, err := s.UpsertSections(ctx, []store.Section{
		{Title: "Économie Politique", Course: "40100", Section: "40100-01", Instructor: "Éluard, Paul", Time: "Mon 10:30", Location: "Harper 104", Hours: 5, Interesting: 3.5, Recommend: 4.1},
	})
	require.NoError(t, err)

	reply := r.Respond(ctx, "course Économie Politique", "U1")
	require.True(t, strings.HasPrefix(reply, foundHeader), reply)
	assert.Contains(t, reply, "*Économie Politique 40100-01. Taught by Éluard, Paul")
	assert.NotContains(t, reply, "Perhaps you meant")

	reply = r.Respond(ctx, "instructor Éluard", "U1")
	require.True(t, strings.HasPrefix(reply, foundHeader), reply)
	assert.Contains(t, reply, "40100-01")
}

func TestRespond_SingleSuggestion(t *testing.T) {
	r, _ := newTestResolver(t)

	reply := r.Respond(context.Background(), "instructor kleymenov", "U1")

	assert.Contains(t, reply, "Perhaps you meant this:\n\tKleymenova\n")
}

func TestRespond_WordMatchFallback(t *testing.T) {
	r, _ := newTestResolver(t)

	// "anya" is a first name: no exact last name, no close last name,
	// but the word-wise scan of the full instructor column finds her.
	reply := r.Respond(context.Background(), "instructor anya", "U1")

	require.True(t, strings.HasPrefix(reply, fuzzyHeader), reply)
	assert.Equal(t, 2, strings.Count(reply, "Taught by Kleymenova, Anya"))
}

func TestRespond_NothingFound(t *testing.T) {
	r, _ := newTestResolver(t)

	reply := r.Respond(context.Background(), "course zzzz", "U1")

	assert.Contains(t, reply, "I tried my hardest")
	assert.Contains(t, reply, "`@booth_bot help`")
}

func TestRespond_CannedReplies(t *testing.T) {
	r, _ := newTestResolver(t)
	ctx := context.Background()

	tests := []struct {
		command string
		want    string
	}{
		{"help", "Here are some example commands my creator (@nstornetta) has taught me so far:"},
		{"?", "`@booth_bot course_num 30000`"},
		{"", "`@booth_bot help`"},
		{"tell me a joke", jokePrefix + "\na joke"},
		{"who are you?", "I'm booth_bot!"},
		{"teach me", "I don't know how to `teach` yet."},
		{"course", "`course` needs a little more to go on, e.g. `@booth_bot course Financial Accounting`."},
		{"interested", "`interested` needs a little more to go on"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			assert.Contains(t, r.Respond(ctx, tt.command, "U1"), tt.want)
		})
	}
}

func TestRespond_InterestLifecycle(t *testing.T) {
	r, s := newTestResolver(t)
	ctx := context.Background()

	reply := r.Respond(ctx, "interested 30000-01", "U1")
	assert.Equal(t, "Got it! I've marked you as interested in 30000-01. 1 person is now interested.", reply)

	reply = r.Respond(ctx, "interested 30000-01", "U1")
	assert.Contains(t, reply, "You're already on the list for 30000-01 (1 person is interested).")

	users, err := s.InterestedUsers(ctx, "30000-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"U1"}, users, "marking twice leaves one entry")

	reply = r.Respond(ctx, "interested 30000-01", "U2")
	assert.Contains(t, reply, "2 people are now interested")

	reply = r.Respond(ctx, "interest 30000-01", "U3")
	assert.Equal(t, "2 people are interested in 30000-01.", reply)

	reply = r.Respond(ctx, "uninterested 30000-01", "U1")
	assert.Equal(t, "Done. I've taken you off the list for 30000-01. 1 person is still interested.", reply)

	reply = r.Respond(ctx, "uninterested 30000-01", "U1")
	assert.Contains(t, reply, "You weren't on the list for 30000-01, so there was nothing to remove.")
	assert.NotEqual(t, apology, reply)
}

func TestRespond_InterestEdgeCases(t *testing.T) {
	r, _ := newTestResolver(t)
	ctx := context.Background()

	assert.Contains(t, r.Respond(ctx, "interested 99999-99", "U1"), "I couldn't find a section called `99999-99`")
	assert.Contains(t, r.Respond(ctx, "interested 30000-01", ""), "I need to know who you are")
	assert.Equal(t, "0 people are interested in 30000-01.", r.Respond(ctx, "interest 30000-01", ""))
}

// =============================================================================
// CASCADE PROPERTIES (scripted repository)
// =============================================================================

type scriptedRepo struct {
	exact    []store.Section
	distinct []string
	words    []store.Section
	err      error
	panicMsg string

	calls []string
}

func (f *scriptedRepo) ExactMatch(ctx context.Context, col store.Column, value string, limit int) ([]store.Section, error) {
	f.calls = append(f.calls, "exact")
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.exact, f.err
}

func (f *scriptedRepo) DistinctValues(ctx context.Context, col store.Column) ([]string, error) {
	f.calls = append(f.calls, "distinct")
	return f.distinct, nil
}

func (f *scriptedRepo) WordMatch(ctx context.Context, col store.Column, words []string, limit int) ([]store.Section, error) {
	f.calls = append(f.calls, "words")
	return f.words, nil
}

func (f *scriptedRepo) MarkInterest(ctx context.Context, section, user string) (store.InterestChange, error) {
	return store.InterestChange{}, f.err
}

func (f *scriptedRepo) RemoveInterest(ctx context.Context, section, user string) (store.InterestChange, error) {
	return store.InterestChange{}, f.err
}

func (f *scriptedRepo) InterestCount(ctx context.Context, section string) (store.InterestChange, error) {
	return store.InterestChange{}, f.err
}

func TestCascade_EmptyDistinctFallsThroughToWords(t *testing.T) {
	repo := &scriptedRepo{
		words: []store.Section{{Title: "strategy", Section: "40000-01", Instructor: "roe, ann", Recommend: 2}},
	}
	r := New(repo, nil, Options{})

	reply := r.Respond(context.Background(), "course anything at all", "U1")

	assert.Equal(t, []string{"exact", "distinct", "words"}, repo.calls)
	assert.True(t, strings.HasPrefix(reply, fuzzyHeader), reply)
	assert.Contains(t, reply, "*Strategy 40000-01. Taught by Roe, Ann")
}

func TestCascade_NoCloseMatchFallsThroughToWords(t *testing.T) {
	repo := &scriptedRepo{distinct: []string{"Microeconomics"}}
	r := New(repo, nil, Options{})

	reply := r.Respond(context.Background(), "course zzz", "U1")

	assert.Equal(t, []string{"exact", "distinct", "words"}, repo.calls)
	assert.Contains(t, reply, "I tried my hardest")
}

func TestCascade_ExactHitStopsEarly(t *testing.T) {
	repo := &scriptedRepo{exact: []store.Section{{Title: "x", Section: "1"}}}
	r := New(repo, nil, Options{})

	r.Respond(context.Background(), "course x", "U1")

	assert.Equal(t, []string{"exact"}, repo.calls)
}

func TestRespond_StoreErrorBecomesApology(t *testing.T) {
	repo := &scriptedRepo{err: errors.New("disk I/O error")}
	r := New(repo, nil, Options{})
	ctx := context.Background()

	assert.Equal(t, apology, r.Respond(ctx, "course x", "U1"))
	assert.Equal(t, apology, r.Respond(ctx, "interested 30000-01", "U1"))
}

func TestRespond_PanicBecomesApology(t *testing.T) {
	repo := &scriptedRepo{panicMsg: "boom"}
	r := New(repo, nil, Options{})

	assert.Equal(t, apology, r.Respond(context.Background(), "course x", "U1"))
}

func TestRespond_JokeWithoutJoker(t *testing.T) {
	r := New(&scriptedRepo{}, nil, Options{})
	assert.True(t, strings.HasPrefix(r.Respond(context.Background(), "joke", "U1"), jokePrefix))
}

func TestNew_AppliesDefaults(t *testing.T) {
	r := New(&scriptedRepo{}, nil, Options{Cutoff: 7})
	assert.Equal(t, DefaultOptions(), r.opts)
}

func TestLoadJokes(t *testing.T) {
	book, err := LoadJokes()
	require.NoError(t, err)
	assert.Greater(t, book.Len(), 5)
	assert.NotEmpty(t, book.Joke())

	_, err = ParseJokes([]byte("jokes: []"))
	assert.Error(t, err)
	_, err = ParseJokes([]byte("jokes: [unterminated"))
	assert.Error(t, err)
}

func TestLookupColumnsCoverLookupKinds(t *testing.T) {
	for k := intent.KindEmpty; k <= intent.KindUnknown; k++ {
		_, ok := lookupColumns[k]
		assert.Equal(t, k.IsLookup(), ok, k.String())
	}
	assert.Equal(t, store.ColumnInstructor, lookupColumns[intent.KindInstructor])
}
