package state

import (
	"context"
	"path/filepath"
	"testing"

	"worklogsync/worklog"
)

func openTestSQLite(t *testing.T, path, prefix string) *SQLiteBackend {
	t.Helper()
	backend, err := OpenSQLite(path, prefix)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

func TestSQLiteBackend_EmptyDatabaseLoadsEmpty(t *testing.T) {
	t.Parallel()

	backend := openTestSQLite(t, filepath.Join(t.TempDir(), "state.db"), "acme")
	ctx := context.Background()

	store, err := backend.LoadEntryStore(ctx)
	if err != nil {
		t.Fatalf("load entry store: %v", err)
	}
	if store.LastSync != 0 || len(store.WorkEntries) != 0 || len(store.Employees) != 0 {
		t.Fatalf("expected empty store, got %+v", store)
	}
	ledger, err := backend.LoadLedger(ctx)
	if err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if ledger.Len() != 0 {
		t.Fatalf("expected empty ledger, got %d rows", ledger.Len())
	}
}

func TestSQLiteBackend_SaveEntryStoreUpsertsAndReplacesRoster(t *testing.T) {
	t.Parallel()

	backend := openTestSQLite(t, filepath.Join(t.TempDir(), "state.db"), "acme")
	ctx := context.Background()

	if err := backend.SaveEntryStore(ctx, sampleEntryStore()); err != nil {
		t.Fatalf("save entry store: %v", err)
	}

	next := sampleEntryStore()
	next.LastSync = 1767225700000
	next.Upsert(worklog.WorkEntry{ID: 1, EmployeeID: 7, Description: "WT-1 design (edited)", Start: 0, End: 60000, ModifyDate: 1767225700000})
	next.ReplaceEmployees(worklog.Roster{{EmployeeID: 7, PrimaryEmail: "alice@example.com", DisplayName: "Alice"}})
	if err := backend.SaveEntryStore(ctx, next); err != nil {
		t.Fatalf("save entry store again: %v", err)
	}

	loaded, err := backend.LoadEntryStore(ctx)
	if err != nil {
		t.Fatalf("load entry store: %v", err)
	}
	if loaded.LastSync != 1767225700000 {
		t.Fatalf("unexpected watermark: %d", loaded.LastSync)
	}
	if len(loaded.WorkEntries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(loaded.WorkEntries))
	}
	if loaded.WorkEntries[1].Description != "WT-1 design (edited)" {
		t.Fatalf("expected last write to win, got %q", loaded.WorkEntries[1].Description)
	}
	if len(loaded.Employees) != 1 {
		t.Fatalf("expected roster to be replaced, got %d employees", len(loaded.Employees))
	}
}

func TestSQLiteBackend_LedgerKeepsFirstRow(t *testing.T) {
	t.Parallel()

	backend := openTestSQLite(t, filepath.Join(t.TempDir(), "state.db"), "acme")
	ctx := context.Background()

	first := NewLedger()
	_ = first.Record(LedgerEntry{WorkEntryID: 1, JiraID: "WT-1", JiraWorkLogID: "100", DurationSecs: 60})
	if err := backend.SaveLedger(ctx, first); err != nil {
		t.Fatalf("save ledger: %v", err)
	}

	second := NewLedger()
	_ = second.Record(LedgerEntry{WorkEntryID: 1, JiraID: "DEV-9", JiraWorkLogID: "999", DurationSecs: 60})
	_ = second.Record(LedgerEntry{WorkEntryID: 2, JiraID: "WT-2", JiraWorkLogID: "101", DurationSecs: 120})
	if err := backend.SaveLedger(ctx, second); err != nil {
		t.Fatalf("save ledger again: %v", err)
	}

	loaded, err := backend.LoadLedger(ctx)
	if err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", loaded.Len())
	}
	row, _ := loaded.Get(1)
	if row.JiraID != "WT-1" || row.JiraWorkLogID != "100" {
		t.Fatalf("expected stored row to stay untouched, got %+v", row)
	}
}

func TestSQLiteBackend_PrefixesAreIsolated(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.db")
	acme := openTestSQLite(t, path, "acme")
	other := openTestSQLite(t, path, "other")
	ctx := context.Background()

	if err := acme.SaveEntryStore(ctx, sampleEntryStore()); err != nil {
		t.Fatalf("save entry store: %v", err)
	}

	loaded, err := other.LoadEntryStore(ctx)
	if err != nil {
		t.Fatalf("load entry store: %v", err)
	}
	if len(loaded.WorkEntries) != 0 || loaded.LastSync != 0 {
		t.Fatalf("expected other prefix to be empty, got %+v", loaded)
	}
}
