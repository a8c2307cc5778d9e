package resolver

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"boothbot/internal/store"
)

const (
	foundHeader = "Here's what I found:"
	fuzzyHeader = "I'm not quite sure this is what you're looking for, but here's what I found:"
	jokePrefix  = "Well, I wasn't programmed for that, but here goes:"
	apology     = "Something went wrong while I was looking that up. Please try again in a bit."
)

// formatSection renders one section the way the bot posts it.
func formatSection(sec store.Section) string {
	title := cases.Title(language.English)
	return fmt.Sprintf("*%s %s. Taught by %s on %s at %s.*\n\tRecommend rating: %g.\n\tHours per week: %g.\n\tInteresting rating: %g.",
		title.String(sec.Title), sec.Section, title.String(sec.Instructor), sec.Time, sec.Location,
		sec.Recommend, sec.Hours, sec.Interesting)
}

func formatSections(header string, secs []store.Section) string {
	lines := make([]string, 0, len(secs)+1)
	lines = append(lines, header)
	for _, sec := range secs {
		lines = append(lines, formatSection(sec))
	}
	return strings.Join(lines, "\n")
}

func formatSuggestions(suggestions []string) string {
	thisOrThese := "this"
	if len(suggestions) > 1 {
		thisOrThese = "one of these"
	}
	return fmt.Sprintf("I couldn't find anything matching that exact description. Perhaps you meant %s:\n\t%s\n"+
		"If you ask me again with one of ^^^ those, I should be able to find some better results for you.",
		thisOrThese, strings.Join(suggestions, "\n\t"))
}

// people renders "1 person is" / "3 people are".
func people(n int) string {
	if n == 1 {
		return "1 person is"
	}
	return fmt.Sprintf("%d people are", n)
}

func (r *Resolver) helpText() string {
	h := r.opts.Handle
	return strings.Join([]string{
		"Beep boop. I'm a bot and I'm here to help you find classes.",
		fmt.Sprintf("Here are some example commands my creator (%s) has taught me so far:", r.opts.Owner),
		fmt.Sprintf("`%s help` -- Gives basic instructions on my commands", h),
		fmt.Sprintf("`%s course Financial Accounting` -- Give basic info on the top-rated sections of Financial Accounting offered this term", h),
		fmt.Sprintf("`%s course_num 30000` -- Give basic info on top-rated sections of course 30000 this term", h),
		fmt.Sprintf("`%s instructor Kleymenova` -- Give basic info on the courses taught by Professor Kleymenova this term", h),
		fmt.Sprintf("`%s interested 30000-01` -- Let me know you're interested in a section", h),
		fmt.Sprintf("`%s uninterested 30000-01` -- Take yourself off a section's interest list", h),
		fmt.Sprintf("`%s interest 30000-01` -- See how many people are interested in a section", h),
	}, "\n")
}

func (r *Resolver) identityText() string {
	name := strings.TrimPrefix(r.opts.Handle, "@")
	return fmt.Sprintf("Beep boop. I'm %s! My objective is to help you find classes and bring them up for easy "+
		"discussion here in Slack. At least until the Singularity... :wink:", name)
}

func (r *Resolver) helpPointer() string {
	return fmt.Sprintf("Have you tried using the `%s help` command to see what I can do?", r.opts.Handle)
}

func (r *Resolver) notFoundText() string {
	return "I tried my hardest, but I couldn't seem to find what you were looking for.\n" + r.helpPointer()
}

func (r *Resolver) unknownVerbText(verb string) string {
	return fmt.Sprintf("I don't know how to `%s` yet. %s", verb, r.helpPointer())
}

// verbExamples gives a sample argument for each verb that takes one.
var verbExamples = map[string]string{
	"course":       "Financial Accounting",
	"course_num":   "30000",
	"instructor":   "Kleymenova",
	"interested":   "30000-01",
	"uninterested": "30000-01",
	"interest":     "30000-01",
}

func (r *Resolver) missingArgText(verb string) string {
	return fmt.Sprintf("`%s` needs a little more to go on, e.g. `%s %s %s`. %s",
		verb, r.opts.Handle, verb, verbExamples[verb], r.helpPointer())
}
