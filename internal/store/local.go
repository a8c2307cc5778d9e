// Package store is boothbot's SQLite persistence layer: the term's course
// section table and the join table recording which users are interested in
// which sections.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"boothbot/internal/logging"

	_ "modernc.org/sqlite"
)

const (
	// SectionTable keeps the scraper's table name so existing
	// database files open unchanged.
	SectionTable  = "booth_classes"
	InterestTable = "section_interest"
)

var (
	// ErrSectionNotFound is returned when a section id matches no row.
	ErrSectionNotFound = errors.New("section not found")
	// ErrUnknownColumn is returned for a lookup column outside the whitelist.
	ErrUnknownColumn = errors.New("unknown lookup column")
)

// CourseStore implements the course lookups and interest bookkeeping on SQLite.
type CourseStore struct {
	db        *sql.DB
	dbPath    string
	migration MigrationResult
}

// NewCourseStore opens (creating if needed) the SQLite database at path,
// creates missing tables and runs migrations.
func NewCourseStore(path string) (*CourseStore, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)

	store := &CourseStore{db: db, dbPath: path}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	result, err := RunMigrations(context.Background(), db)
	if err != nil {
		db.Close()
		return nil, err
	}
	store.migration = result

	logging.Store("Course store ready at %s", path)
	return store, nil
}

// initialize creates the required tables.
func (s *CourseStore) initialize() error {
	sectionTable := `
	CREATE TABLE IF NOT EXISTS booth_classes (
		section TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		course TEXT NOT NULL DEFAULT '',
		instructor TEXT NOT NULL DEFAULT '',
		time TEXT NOT NULL DEFAULT '',
		building TEXT NOT NULL DEFAULT '',
		hours REAL NOT NULL DEFAULT 0,
		interesting REAL NOT NULL DEFAULT 0,
		recommend REAL NOT NULL DEFAULT 0
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_booth_classes_section ON booth_classes(section);
	`

	interestTable := `
	CREATE TABLE IF NOT EXISTS section_interest (
		section TEXT NOT NULL,
		user_id TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (section, user_id)
	);
	CREATE INDEX IF NOT EXISTS idx_interest_user ON section_interest(user_id);
	`

	for _, table := range []string{sectionTable, interestTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *CourseStore) Close() error {
	return s.db.Close()
}

// GetDB exposes the underlying handle for tooling and tests.
func (s *CourseStore) GetDB() *sql.DB {
	return s.db
}

// Path returns the database location the store was opened with.
func (s *CourseStore) Path() string {
	return s.dbPath
}

// Migration reports what the migrations run by NewCourseStore changed.
func (s *CourseStore) Migration() MigrationResult {
	return s.migration
}

// Stats holds row counts for the status command.
type Stats struct {
	Sections  int
	Interests int
	Users     int
}

// GetStats returns row counts for both tables.
func (s *CourseStore) GetStats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM booth_classes").Scan(&st.Sections); err != nil {
		return st, fmt.Errorf("count sections: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*), COUNT(DISTINCT user_id) FROM section_interest").Scan(&st.Interests, &st.Users); err != nil {
		return st, fmt.Errorf("count interest: %w", err)
	}
	return st, nil
}
