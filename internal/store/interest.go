package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"boothbot/internal/logging"
)

// InterestChange reports the outcome of a mark or unmark.
type InterestChange struct {
	Section string // canonical section id as stored
	Changed bool   // false when the mark already existed / the removal was a no-op
	Count   int    // interested users after the change
}

// MarkInterest records that user is interested in section. Marking twice
// leaves a single entry and reports Changed=false.
func (s *CourseStore) MarkInterest(ctx context.Context, section, user string) (InterestChange, error) {
	return s.mutateInterest(ctx, section,
		"INSERT OR IGNORE INTO section_interest (section, user_id) VALUES (?, ?)", user)
}

// RemoveInterest deletes user's mark on section. Removing a user who never
// marked the section reports Changed=false.
func (s *CourseStore) RemoveInterest(ctx context.Context, section, user string) (InterestChange, error) {
	return s.mutateInterest(ctx, section,
		"DELETE FROM section_interest WHERE section = ? AND user_id = ?", user)
}

func (s *CourseStore) mutateInterest(ctx context.Context, section, stmt, user string) (InterestChange, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return InterestChange{}, fmt.Errorf("begin interest update: %w", err)
	}
	defer tx.Rollback()

	canonical, err := canonicalSection(ctx, tx, section)
	if err != nil {
		return InterestChange{}, err
	}

	res, err := tx.ExecContext(ctx, stmt, canonical, user)
	if err != nil {
		return InterestChange{}, fmt.Errorf("update interest in %s: %w", canonical, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return InterestChange{}, fmt.Errorf("update interest in %s: %w", canonical, err)
	}

	count, err := countInterest(ctx, tx, canonical)
	if err != nil {
		return InterestChange{}, err
	}
	if err := tx.Commit(); err != nil {
		return InterestChange{}, fmt.Errorf("commit interest update: %w", err)
	}

	logging.StoreDebug("interest %s user=%s changed=%v count=%d", canonical, user, affected > 0, count)
	return InterestChange{Section: canonical, Changed: affected > 0, Count: count}, nil
}

// InterestCount returns how many users are interested in section.
func (s *CourseStore) InterestCount(ctx context.Context, section string) (InterestChange, error) {
	canonical, err := canonicalSection(ctx, s.db, section)
	if err != nil {
		return InterestChange{}, err
	}
	count, err := countInterest(ctx, s.db, canonical)
	if err != nil {
		return InterestChange{}, err
	}
	return InterestChange{Section: canonical, Count: count}, nil
}

// InterestedUsers lists the users interested in section, earliest first.
func (s *CourseStore) InterestedUsers(ctx context.Context, section string) ([]string, error) {
	canonical, err := canonicalSection(ctx, s.db, section)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM section_interest WHERE section = ? ORDER BY created_at, user_id", canonical)
	if err != nil {
		return nil, fmt.Errorf("list interest in %s: %w", canonical, err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan interest: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// canonicalSection resolves a user-typed section id to the stored spelling.
func canonicalSection(ctx context.Context, q querier, section string) (string, error) {
	var canonical string
	err := q.QueryRowContext(ctx,
		fmt.Sprintf("SELECT section FROM booth_classes WHERE %[1]s(section) = %[1]s(?) LIMIT 1", foldFunc),
		strings.TrimSpace(section)).Scan(&canonical)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrSectionNotFound, section)
	}
	if err != nil {
		return "", fmt.Errorf("look up section %s: %w", section, err)
	}
	return canonical, nil
}

func countInterest(ctx context.Context, q querier, section string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM section_interest WHERE section = ?", section).Scan(&n); err != nil {
		return 0, fmt.Errorf("count interest in %s: %w", section, err)
	}
	return n, nil
}
