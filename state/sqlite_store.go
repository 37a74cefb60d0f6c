package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"worklogsync/worklog"
)

// SQLiteBackend stores the state of one prefix in a SQLite database that may be
// shared by several prefixes.
type SQLiteBackend struct {
	db     *sql.DB
	prefix string
}

func OpenSQLite(path, prefix string) (*SQLiteBackend, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, errors.New("state prefix is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteBackend{db: db, prefix: prefix}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}

func (s *SQLiteBackend) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS sync_state (
	prefix TEXT PRIMARY KEY,
	last_sync INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS work_entries (
	prefix TEXT NOT NULL,
	id INTEGER NOT NULL,
	employee_id INTEGER NOT NULL,
	description TEXT NOT NULL,
	start_millis INTEGER NOT NULL,
	end_millis INTEGER NOT NULL,
	modify_date INTEGER NOT NULL,
	PRIMARY KEY (prefix, id)
);
CREATE TABLE IF NOT EXISTS employees (
	prefix TEXT NOT NULL,
	position INTEGER NOT NULL,
	employee_id INTEGER NOT NULL,
	primary_email TEXT NOT NULL,
	display_name TEXT NOT NULL,
	PRIMARY KEY (prefix, position)
);
CREATE TABLE IF NOT EXISTS synced_entries (
	prefix TEXT NOT NULL,
	work_entry_id INTEGER NOT NULL,
	jira_id TEXT NOT NULL,
	jira_worklog_id TEXT NOT NULL,
	duration_secs INTEGER NOT NULL,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (prefix, work_entry_id)
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLiteBackend) LoadEntryStore(ctx context.Context) (*EntryStore, error) {
	store := NewEntryStore()

	err := s.db.QueryRowContext(ctx, `SELECT last_sync FROM sync_state WHERE prefix = ?;`, s.prefix).Scan(&store.LastSync)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query sync state: %w", err)
	}

	const entriesQuery = `
SELECT id, employee_id, description, start_millis, end_millis, modify_date
FROM work_entries
WHERE prefix = ?
ORDER BY id;`
	rows, err := s.db.QueryContext(ctx, entriesQuery, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("query work entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry worklog.WorkEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.EmployeeID,
			&entry.Description,
			&entry.Start,
			&entry.End,
			&entry.ModifyDate,
		); err != nil {
			return nil, fmt.Errorf("scan work entry: %w", err)
		}
		store.WorkEntries[entry.ID] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate work entries: %w", err)
	}

	roster, err := s.loadEmployees(ctx)
	if err != nil {
		return nil, err
	}
	store.Employees = roster

	return store, nil
}

func (s *SQLiteBackend) loadEmployees(ctx context.Context) (worklog.Roster, error) {
	const query = `
SELECT employee_id, primary_email, display_name
FROM employees
WHERE prefix = ?
ORDER BY position;`
	rows, err := s.db.QueryContext(ctx, query, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	roster := worklog.Roster{}
	for rows.Next() {
		var employee worklog.Employee
		if err := rows.Scan(&employee.EmployeeID, &employee.PrimaryEmail, &employee.DisplayName); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		roster = append(roster, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return roster, nil
}

// SaveEntryStore writes watermark, entries and roster in one transaction.
func (s *SQLiteBackend) SaveEntryStore(ctx context.Context, store *EntryStore) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	const stateStmt = `
INSERT INTO sync_state (prefix, last_sync) VALUES (?, ?)
ON CONFLICT(prefix) DO UPDATE SET last_sync = excluded.last_sync;`
	if _, err := tx.ExecContext(ctx, stateStmt, s.prefix, store.LastSync); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update sync state: %w", err)
	}

	const upsertStmt = `
INSERT INTO work_entries (
	prefix,
	id,
	employee_id,
	description,
	start_millis,
	end_millis,
	modify_date
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(prefix, id) DO UPDATE SET
	employee_id = excluded.employee_id,
	description = excluded.description,
	start_millis = excluded.start_millis,
	end_millis = excluded.end_millis,
	modify_date = excluded.modify_date;`

	stmt, err := tx.PrepareContext(ctx, upsertStmt)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare upsert statement: %w", err)
	}
	defer stmt.Close()

	for _, entry := range store.SortedEntries() {
		if _, err := stmt.ExecContext(
			ctx,
			s.prefix,
			entry.ID,
			entry.EmployeeID,
			entry.Description,
			entry.Start,
			entry.End,
			entry.ModifyDate,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert work entry %d: %w", entry.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM employees WHERE prefix = ?;`, s.prefix); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear employees: %w", err)
	}
	for i, employee := range store.Employees {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO employees (prefix, position, employee_id, primary_email, display_name) VALUES (?, ?, ?, ?, ?);`,
			s.prefix,
			i,
			employee.EmployeeID,
			employee.PrimaryEmail,
			employee.DisplayName,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert employee %d: %w", employee.EmployeeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteBackend) LoadLedger(ctx context.Context) (*Ledger, error) {
	const query = `
SELECT work_entry_id, jira_id, jira_worklog_id, duration_secs
FROM synced_entries
WHERE prefix = ?;`
	rows, err := s.db.QueryContext(ctx, query, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("query synced entries: %w", err)
	}
	defer rows.Close()

	ledger := NewLedger()
	for rows.Next() {
		var row LedgerEntry
		if err := rows.Scan(&row.WorkEntryID, &row.JiraID, &row.JiraWorkLogID, &row.DurationSecs); err != nil {
			return nil, fmt.Errorf("scan synced entry: %w", err)
		}
		ledger.SyncedEntries[row.WorkEntryID] = row
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate synced entries: %w", err)
	}
	return ledger, nil
}

// SaveLedger inserts rows that are not stored yet; stored rows are left untouched.
func (s *SQLiteBackend) SaveLedger(ctx context.Context, ledger *Ledger) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	const insertStmt = `
INSERT OR IGNORE INTO synced_entries (
	prefix,
	work_entry_id,
	jira_id,
	jira_worklog_id,
	duration_secs
) VALUES (?, ?, ?, ?, ?);`

	stmt, err := tx.PrepareContext(ctx, insertStmt)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range ledger.SyncedEntries {
		if _, err := stmt.ExecContext(ctx, s.prefix, row.WorkEntryID, row.JiraID, row.JiraWorkLogID, row.DurationSecs); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert synced entry %d: %w", row.WorkEntryID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
