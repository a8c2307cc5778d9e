package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"boothbot/internal/logging"
)

// Section is one row of the course table.
type Section struct {
	Title       string
	Course      string
	Section     string
	Instructor  string // "Last, First"
	Time        string
	Location    string
	Hours       float64
	Interesting float64
	Recommend   float64
}

// Column names a lookup target. Only the values below are accepted, so no
// user text ever reaches an identifier position in SQL.
type Column string

const (
	ColumnTitle      Column = "title"
	ColumnCourse     Column = "course"
	ColumnInstructor Column = "instructor"
)

// instructorLastName extracts the part of "Last, First" before the comma;
// names without a comma are used whole.
const instructorLastName = `trim(CASE WHEN instr(instructor, ',') > 0
	THEN substr(instructor, 1, instr(instructor, ',') - 1)
	ELSE instructor END)`

// matchExpr is the expression exact and distinct lookups compare against.
func (c Column) matchExpr() (string, error) {
	switch c {
	case ColumnTitle, ColumnCourse:
		return string(c), nil
	case ColumnInstructor:
		return instructorLastName, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColumn, string(c))
}

// searchExpr is the expression word-wise lookups scan.
func (c Column) searchExpr() (string, error) {
	switch c {
	case ColumnTitle, ColumnCourse, ColumnInstructor:
		return string(c), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColumn, string(c))
}

const sectionColumns = `COALESCE(title, ''), COALESCE(course, ''), section, COALESCE(instructor, ''),
	COALESCE(time, ''), COALESCE(building, ''), COALESCE(hours, 0), COALESCE(interesting, 0), COALESCE(recommend, 0)`

// ExactMatch returns up to limit sections whose column equals value,
// ignoring case. For ColumnInstructor the comparison is against the last
// name. Rows are ordered best-recommended first, then most interesting,
// then lightest workload.
func (s *CourseStore) ExactMatch(ctx context.Context, col Column, value string, limit int) ([]Section, error) {
	expr, err := col.matchExpr()
	if err != nil {
		return nil, err
	}
	timer := logging.StartTimer(logging.CategoryStore, "ExactMatch")
	defer timer.Stop()

	query := fmt.Sprintf(`SELECT %[1]s FROM booth_classes
		WHERE %[3]s(%[2]s) = %[3]s(?)
		ORDER BY recommend DESC, interesting DESC, hours ASC, section ASC
		LIMIT ?`, sectionColumns, expr, foldFunc)

	rows, err := s.db.QueryContext(ctx, query, strings.TrimSpace(value), limit)
	if err != nil {
		return nil, fmt.Errorf("exact match on %s: %w", col, err)
	}
	return scanSections(rows)
}

// DistinctValues returns every distinct non-empty value of the column's
// match expression, the candidate pool for close matching.
func (s *CourseStore) DistinctValues(ctx context.Context, col Column) ([]string, error) {
	expr, err := col.matchExpr()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT DISTINCT %[1]s FROM booth_classes
		WHERE %[1]s IS NOT NULL AND %[1]s <> ''
		ORDER BY 1`, expr)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", col, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan distinct %s: %w", col, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// WordMatch returns up to limit positively recommended sections whose column
// contains every word, in any order and ignoring case.
func (s *CourseStore) WordMatch(ctx context.Context, col Column, words []string, limit int) ([]Section, error) {
	expr, err := col.searchExpr()
	if err != nil {
		return nil, err
	}

	var conditions []string
	var args []interface{}
	for _, w := range words {
		if w = strings.TrimSpace(w); w == "" {
			continue
		}
		conditions = append(conditions, fmt.Sprintf(`%s(%s) LIKE ? ESCAPE '\'`, foldFunc, expr))
		args = append(args, "%"+escapeLike(strings.ToLower(w))+"%")
	}
	if len(conditions) == 0 {
		return nil, nil
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT %s FROM booth_classes
		WHERE %s AND recommend > 0
		ORDER BY recommend DESC, interesting DESC, hours ASC, section ASC
		LIMIT ?`, sectionColumns, strings.Join(conditions, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("word match on %s: %w", col, err)
	}
	return scanSections(rows)
}

// UpsertSections inserts or replaces sections keyed by section id in a
// single transaction and returns the number written.
func (s *CourseStore) UpsertSections(ctx context.Context, sections []Section) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO booth_classes
		(section, title, course, instructor, time, building, hours, interesting, recommend)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(section) DO UPDATE SET
			title = excluded.title,
			course = excluded.course,
			instructor = excluded.instructor,
			time = excluded.time,
			building = excluded.building,
			hours = excluded.hours,
			interesting = excluded.interesting,
			recommend = excluded.recommend`)
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	for _, sec := range sections {
		if _, err := stmt.ExecContext(ctx, sec.Section, sec.Title, sec.Course, sec.Instructor,
			sec.Time, sec.Location, sec.Hours, sec.Interesting, sec.Recommend); err != nil {
			logging.StoreError("Import rolled back at section %s: %v", sec.Section, err)
			return 0, fmt.Errorf("import section %s: %w", sec.Section, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	logging.Store("Imported %d sections", len(sections))
	return len(sections), nil
}

// GetSection fetches one section by id, ignoring case.
func (s *CourseStore) GetSection(ctx context.Context, section string) (Section, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %[1]s FROM booth_classes WHERE %[2]s(section) = %[2]s(?) LIMIT 1", sectionColumns, foldFunc),
		strings.TrimSpace(section))
	if err != nil {
		return Section{}, fmt.Errorf("get section %s: %w", section, err)
	}
	found, err := scanSections(rows)
	if err != nil {
		return Section{}, err
	}
	if len(found) == 0 {
		return Section{}, fmt.Errorf("%w: %s", ErrSectionNotFound, section)
	}
	return found[0], nil
}

func scanSections(rows *sql.Rows) ([]Section, error) {
	defer rows.Close()

	var out []Section
	for rows.Next() {
		var sec Section
		if err := rows.Scan(&sec.Title, &sec.Course, &sec.Section, &sec.Instructor,
			&sec.Time, &sec.Location, &sec.Hours, &sec.Interesting, &sec.Recommend); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
