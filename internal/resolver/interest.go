package resolver

import (
	"context"
	"errors"
	"fmt"

	"boothbot/internal/intent"
	"boothbot/internal/logging"
	"boothbot/internal/store"
)

// interest marks, removes or reports interest in a section.
func (r *Resolver) interest(ctx context.Context, log *logging.Logger, kind intent.Kind, section, user string) string {
	if user == "" && kind != intent.KindShowInterest {
		return "I need to know who you are before I can keep track of your interest."
	}

	var (
		change store.InterestChange
		err    error
	)
	switch kind {
	case intent.KindMarkInterest:
		change, err = r.repo.MarkInterest(ctx, section, user)
	case intent.KindRemoveInterest:
		change, err = r.repo.RemoveInterest(ctx, section, user)
	default:
		change, err = r.repo.InterestCount(ctx, section)
	}

	if errors.Is(err, store.ErrSectionNotFound) {
		return fmt.Sprintf("I couldn't find a section called `%s`. Section ids look like `30000-01`; "+
			"try `%s course_num 30000` to see the sections of a course.", section, r.opts.Handle)
	}
	if err != nil {
		log.Error("%s %s failed: %v", kind, section, err)
		return apology
	}

	log.Info("%s %s changed=%v count=%d", kind, change.Section, change.Changed, change.Count)

	switch kind {
	case intent.KindMarkInterest:
		if !change.Changed {
			return fmt.Sprintf("You're already on the list for %s (%s interested). "+
				"Use `%s uninterested %s` if you've changed your mind.",
				change.Section, people(change.Count), r.opts.Handle, change.Section)
		}
		return fmt.Sprintf("Got it! I've marked you as interested in %s. %s now interested.",
			change.Section, people(change.Count))
	case intent.KindRemoveInterest:
		if !change.Changed {
			return fmt.Sprintf("You weren't on the list for %s, so there was nothing to remove. "+
				"Use `%s interested %s` to add yourself.",
				change.Section, r.opts.Handle, change.Section)
		}
		return fmt.Sprintf("Done. I've taken you off the list for %s. %s still interested.",
			change.Section, people(change.Count))
	}
	return fmt.Sprintf("%s interested in %s.", people(change.Count), change.Section)
}
