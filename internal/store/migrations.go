package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"boothbot/internal/logging"
)

// legacyInterestColumn is the space-separated user list older scrapes kept
// on each section row.
const legacyInterestColumn = "registered_interest"

// MigrationResult holds the result of a migration operation.
type MigrationResult struct {
	ColumnsAdded    int
	LegacyRows      int // section rows that carried a legacy user list
	InterestsCopied int // join-table rows created from those lists
}

// Migration defines a database schema migration.
type Migration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations lists columns early scrapes did not always produce.
var pendingMigrations = []Migration{
	{SectionTable, "course", "TEXT NOT NULL DEFAULT ''"},
	{SectionTable, "building", "TEXT NOT NULL DEFAULT ''"},
	{SectionTable, "hours", "REAL NOT NULL DEFAULT 0"},
	{SectionTable, "interesting", "REAL NOT NULL DEFAULT 0"},
	{SectionTable, "recommend", "REAL NOT NULL DEFAULT 0"},
}

// RunMigrations brings an existing database up to the current schema:
// missing columns are added and any legacy interest lists are moved into the
// join table. Running it again is a no-op.
func RunMigrations(ctx context.Context, db *sql.DB) (MigrationResult, error) {
	timer := logging.StartTimer(logging.CategoryStore, "RunMigrations")
	defer timer.Stop()

	var result MigrationResult

	for _, m := range pendingMigrations {
		if !tableExists(ctx, db, m.Table) {
			logging.StoreDebug("Table missing, skipping migration: %s.%s", m.Table, m.Column)
			continue
		}
		if columnExists(ctx, db, m.Table, m.Column) {
			continue
		}
		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := db.ExecContext(ctx, query); err != nil {
			return result, fmt.Errorf("migration %s.%s: %w", m.Table, m.Column, err)
		}
		logging.Store("Migration applied: added %s.%s", m.Table, m.Column)
		result.ColumnsAdded++
	}

	if columnExists(ctx, db, SectionTable, legacyInterestColumn) {
		rows, copied, err := migrateLegacyInterest(ctx, db)
		if err != nil {
			return result, err
		}
		result.LegacyRows = rows
		result.InterestsCopied = copied
	}

	logging.StoreDebug("Schema migrations complete: columns=%d legacy_rows=%d copied=%d",
		result.ColumnsAdded, result.LegacyRows, result.InterestsCopied)
	return result, nil
}

// migrateLegacyInterest copies each space-separated list into the join table
// and blanks the list so later runs find nothing to do.
func migrateLegacyInterest(ctx context.Context, db *sql.DB) (int, int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin legacy interest migration: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, fmt.Sprintf(
		"SELECT section, %[1]s FROM %[2]s WHERE %[1]s IS NOT NULL AND trim(%[1]s) <> ''",
		legacyInterestColumn, SectionTable))
	if err != nil {
		return 0, 0, fmt.Errorf("read legacy interest: %w", err)
	}

	lists := make(map[string][]string)
	var order []string
	for rows.Next() {
		var section, list string
		if err := rows.Scan(&section, &list); err != nil {
			rows.Close()
			return 0, 0, fmt.Errorf("scan legacy interest: %w", err)
		}
		lists[section] = strings.Fields(list)
		order = append(order, section)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("read legacy interest: %w", err)
	}

	copied := 0
	for _, section := range order {
		for _, user := range lists[section] {
			res, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO section_interest (section, user_id) VALUES (?, ?)", section, user)
			if err != nil {
				return 0, 0, fmt.Errorf("copy legacy interest %s/%s: %w", section, user, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				copied++
			}
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET %s = ''", SectionTable, legacyInterestColumn)); err != nil {
		return 0, 0, fmt.Errorf("clear legacy interest: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit legacy interest migration: %w", err)
	}

	if len(order) > 0 {
		logging.Store("Moved %d legacy interest entries from %d sections into %s", copied, len(order), InterestTable)
	}
	return len(order), copied, nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info.
func columnExists(ctx context.Context, db *sql.DB, table, column string) bool {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		logging.StoreDebug("PRAGMA table_info(%s) failed: %v", table, err)
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}

// tableExists checks if a table exists in the database.
func tableExists(ctx context.Context, db *sql.DB, table string) bool {
	var count int
	query := "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?"
	if err := db.QueryRowContext(ctx, query, table).Scan(&count); err != nil {
		logging.StoreDebug("Table existence check failed for %s: %v", table, err)
		return false
	}
	return count > 0
}
