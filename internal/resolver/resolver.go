// Package resolver turns a classified chat command into the bot's reply.
// It owns the lookup fallback cascade, the interest mutator and all
// user-facing text. Resolver.Respond never returns an error: failures are
// logged and converted into a reply.
package resolver

import (
	"context"
	"fmt"
	"runtime/debug"

	"boothbot/internal/intent"
	"boothbot/internal/logging"
	"boothbot/internal/matching"
	"boothbot/internal/store"
)

// CourseRepository is the data access the resolver needs.
// *store.CourseStore satisfies it.
type CourseRepository interface {
	ExactMatch(ctx context.Context, col store.Column, value string, limit int) ([]store.Section, error)
	DistinctValues(ctx context.Context, col store.Column) ([]string, error)
	WordMatch(ctx context.Context, col store.Column, words []string, limit int) ([]store.Section, error)
	MarkInterest(ctx context.Context, section, user string) (store.InterestChange, error)
	RemoveInterest(ctx context.Context, section, user string) (store.InterestChange, error)
	InterestCount(ctx context.Context, section string) (store.InterestChange, error)
}

var _ CourseRepository = (*store.CourseStore)(nil)

// Options tunes the cascade and the canned text.
type Options struct {
	ExactLimit     int
	FallbackLimit  int
	MaxSuggestions int
	Cutoff         float64
	Handle         string // how users address the bot, e.g. @booth_bot
	Owner          string // credited in the help text
}

// DefaultOptions returns the limits and names the bot ships with.
func DefaultOptions() Options {
	return Options{
		ExactLimit:     5,
		FallbackLimit:  3,
		MaxSuggestions: matching.DefaultMaxMatches,
		Cutoff:         matching.DefaultCutoff,
		Handle:         "@booth_bot",
		Owner:          "@nstornetta",
	}
}

// Resolver answers one command at a time.
type Resolver struct {
	repo  CourseRepository
	jokes Joker
	opts  Options
}

// New builds a Resolver. Zero-valued options fall back to DefaultOptions.
func New(repo CourseRepository, jokes Joker, opts Options) *Resolver {
	def := DefaultOptions()
	if opts.ExactLimit <= 0 {
		opts.ExactLimit = def.ExactLimit
	}
	if opts.FallbackLimit <= 0 {
		opts.FallbackLimit = def.FallbackLimit
	}
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = def.MaxSuggestions
	}
	if opts.Cutoff <= 0 || opts.Cutoff > 1 {
		opts.Cutoff = def.Cutoff
	}
	if opts.Handle == "" {
		opts.Handle = def.Handle
	}
	if opts.Owner == "" {
		opts.Owner = def.Owner
	}
	return &Resolver{repo: repo, jokes: jokes, opts: opts}
}

// lookupColumns maps each lookup intent to the column it searches.
var lookupColumns = map[intent.Kind]store.Column{
	intent.KindCourse:       store.ColumnTitle,
	intent.KindCourseNumber: store.ColumnCourse,
	intent.KindInstructor:   store.ColumnInstructor,
}

// Respond classifies command and returns the reply text for user.
func (r *Resolver) Respond(ctx context.Context, command, user string) (reply string) {
	reqID := logging.NewRequestID()
	log := logging.WithRequestID(logging.CategoryResolver, reqID).With("user", user)
	timer := logging.StartTimer(logging.CategoryResolver, "Respond")
	defer timer.StopWithThreshold(timeBudget)

	defer func() {
		if p := recover(); p != nil {
			log.Error("panic resolving %q: %v\n%s", command, p, debug.Stack())
			reply = apology
		}
	}()

	in := intent.Classify(command)
	log.Debug("intent=%s arg=%q", in.Kind, in.Arg)

	if in.Err != nil {
		log.Info("malformed command %q: %v", command, in.Err)
		return r.missingArgText(in.Verb)
	}

	switch {
	case in.Kind == intent.KindEmpty || in.Kind == intent.KindHelp:
		return r.helpText()
	case in.Kind == intent.KindJoke:
		return r.tellJoke()
	case in.Kind == intent.KindIdentity:
		return r.identityText()
	case in.Kind.IsLookup():
		return r.lookup(ctx, log, lookupColumns[in.Kind], in.Arg)
	case in.Kind.IsInterest():
		return r.interest(ctx, log, in.Kind, in.Arg, user)
	}

	log.Info("unrecognized command %q", command)
	return r.unknownVerbText(in.Verb)
}

func (r *Resolver) tellJoke() string {
	if r.jokes == nil {
		return jokePrefix + "\n" + "I seem to have forgotten all my jokes."
	}
	return fmt.Sprintf("%s\n%s", jokePrefix, r.jokes.Joke())
}
