// Package intent classifies a short chat command into one of boothbot's
// fixed intents. Classification is purely lexical: the text is lower-cased,
// split on whitespace, and the first token usually decides.
package intent

import (
	"errors"
	"strings"

	"boothbot/internal/logging"
)

// Kind identifies what the user asked for.
type Kind int

const (
	KindEmpty Kind = iota
	KindHelp
	KindJoke
	KindIdentity
	KindCourse
	KindCourseNumber
	KindInstructor
	KindMarkInterest
	KindRemoveInterest
	KindShowInterest
	KindUnknown
)

var kindNames = map[Kind]string{
	KindEmpty:          "empty",
	KindHelp:           "help",
	KindJoke:           "joke",
	KindIdentity:       "identity",
	KindCourse:         "course",
	KindCourseNumber:   "course_num",
	KindInstructor:     "instructor",
	KindMarkInterest:   "interested",
	KindRemoveInterest: "uninterested",
	KindShowInterest:   "interest",
	KindUnknown:        "unknown",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsLookup reports whether the intent runs the lookup cascade.
func (k Kind) IsLookup() bool {
	return k == KindCourse || k == KindCourseNumber || k == KindInstructor
}

// IsInterest reports whether the intent reads or mutates interest.
func (k Kind) IsInterest() bool {
	return k == KindMarkInterest || k == KindRemoveInterest || k == KindShowInterest
}

// ErrMissingArgument is set on an Intent whose verb needs an argument that
// was not supplied.
var ErrMissingArgument = errors.New("missing command argument")

// Intent is the classified form of one command.
type Intent struct {
	Kind Kind
	Verb string // first token, lower-cased
	Arg  string // argument text, lower-cased; "" when absent
	Err  error
}

// argShape says how much of the remaining input a verb consumes.
type argShape int

const (
	argRest  argShape = iota // every remaining token, single-space joined
	argFirst                 // only the second token
)

var verbs = map[string]struct {
	kind  Kind
	shape argShape
}{
	"course":       {KindCourse, argRest},
	"course_num":   {KindCourseNumber, argFirst},
	"instructor":   {KindInstructor, argRest},
	"interested":   {KindMarkInterest, argFirst},
	"uninterested": {KindRemoveInterest, argFirst},
	"interest":     {KindShowInterest, argFirst},
}

var helpWords = map[string]bool{"help": true, "h": true, "?": true}

// Classify turns raw command text into an Intent.
func Classify(input string) Intent {
	tokens := strings.Fields(strings.ToLower(input))

	in := classifyTokens(tokens)
	logging.IntentDebug("classified %q as %s (arg=%q, err=%v)", input, in.Kind, in.Arg, in.Err)
	return in
}

func classifyTokens(tokens []string) Intent {
	if len(tokens) == 0 {
		return Intent{Kind: KindEmpty}
	}

	verb := tokens[0]
	if helpWords[verb] {
		return Intent{Kind: KindHelp, Verb: verb}
	}
	for _, tok := range tokens {
		if strings.Contains(tok, "joke") {
			return Intent{Kind: KindJoke, Verb: verb}
		}
	}
	// Joining the tokens collapses runs of whitespace inside the phrase.
	if strings.Contains(strings.Join(tokens, " "), "who are you") {
		return Intent{Kind: KindIdentity, Verb: verb}
	}

	entry, ok := verbs[verb]
	if !ok {
		return Intent{Kind: KindUnknown, Verb: verb}
	}

	in := Intent{Kind: entry.kind, Verb: verb}
	rest := tokens[1:]
	if len(rest) == 0 {
		in.Err = ErrMissingArgument
		return in
	}
	switch entry.shape {
	case argFirst:
		in.Arg = rest[0]
	default:
		in.Arg = strings.Join(rest, " ")
	}
	return in
}
