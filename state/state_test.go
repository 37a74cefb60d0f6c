package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"worklogsync/worklog"
)

func sampleEntryStore() *EntryStore {
	store := NewEntryStore()
	store.LastSync = 1767225600000
	store.Upsert(worklog.WorkEntry{ID: 2, EmployeeID: 7, Description: "WT-2 review", Start: 1000, End: 61000, ModifyDate: 1767225600000})
	store.Upsert(worklog.WorkEntry{ID: 1, EmployeeID: 7, Description: "WT-1 design", Start: 0, End: 3661000, ModifyDate: 1767225500000})
	store.ReplaceEmployees(worklog.Roster{
		{EmployeeID: 7, PrimaryEmail: "alice@example.com", DisplayName: "Alice"},
		{EmployeeID: 8, PrimaryEmail: "bob@example.com", DisplayName: "Bob"},
	})
	return store
}

func TestEntryStore_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	original := sampleEntryStore()
	clone := original.Clone()
	clone.Upsert(worklog.WorkEntry{ID: 3})
	clone.Upsert(worklog.WorkEntry{ID: 1, Description: "edited"})
	clone.LastSync = 99
	clone.ReplaceEmployees(worklog.Roster{})

	if len(original.WorkEntries) != 2 {
		t.Fatalf("expected original to keep 2 entries, got %d", len(original.WorkEntries))
	}
	if original.WorkEntries[1].Description != "WT-1 design" {
		t.Fatalf("expected original entry to be untouched, got %q", original.WorkEntries[1].Description)
	}
	if original.LastSync != 1767225600000 || len(original.Employees) != 2 {
		t.Fatalf("expected original watermark and roster to be untouched")
	}
}

func TestEntryStore_SortedEntries(t *testing.T) {
	t.Parallel()

	entries := sampleEntryStore().SortedEntries()
	if len(entries) != 2 || entries[0].ID != 1 || entries[1].ID != 2 {
		t.Fatalf("unexpected order: %+v", entries)
	}
}

func TestLedger_RecordIsAppendOnly(t *testing.T) {
	t.Parallel()

	ledger := NewLedger()
	if err := ledger.Record(LedgerEntry{WorkEntryID: 1, JiraID: "WT-1", JiraWorkLogID: "100", DurationSecs: 60}); err != nil {
		t.Fatalf("record first row: %v", err)
	}
	err := ledger.Record(LedgerEntry{WorkEntryID: 1, JiraID: "DEV-9", JiraWorkLogID: "200", DurationSecs: 60})
	if !errors.Is(err, ErrLedgerRowExists) {
		t.Fatalf("expected ErrLedgerRowExists, got %v", err)
	}
	row, _ := ledger.Get(1)
	if row.JiraID != "WT-1" || ledger.Len() != 1 {
		t.Fatalf("expected first row to be kept, got %+v", row)
	}
}

func TestFileBackend_MissingFilesLoadEmpty(t *testing.T) {
	t.Parallel()

	backend, err := OpenFileBackend(t.TempDir(), "acme")
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	ctx := context.Background()

	store, err := backend.LoadEntryStore(ctx)
	if err != nil {
		t.Fatalf("load entry store: %v", err)
	}
	if store.LastSync != 0 || len(store.WorkEntries) != 0 || store.WorkEntries == nil {
		t.Fatalf("expected empty initialized store, got %+v", store)
	}

	ledger, err := backend.LoadLedger(ctx)
	if err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if ledger.Len() != 0 || ledger.SyncedEntries == nil {
		t.Fatalf("expected empty initialized ledger")
	}
}

func TestFileBackend_RoundTripAndFormat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	backend, err := OpenFileBackend(dir, "acme")
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	ctx := context.Background()

	if err := backend.SaveEntryStore(ctx, sampleEntryStore()); err != nil {
		t.Fatalf("save entry store: %v", err)
	}
	ledger := NewLedger()
	_ = ledger.Record(LedgerEntry{WorkEntryID: 1, JiraID: "WT-1", JiraWorkLogID: "100", DurationSecs: 3661})
	if err := backend.SaveLedger(ctx, ledger); err != nil {
		t.Fatalf("save ledger: %v", err)
	}

	if backend.EntryStorePath() != filepath.Join(dir, "acme_workentrystore.json") {
		t.Fatalf("unexpected entry store path: %s", backend.EntryStorePath())
	}
	raw, err := os.ReadFile(backend.LedgerPath())
	if err != nil {
		t.Fatalf("read ledger file: %v", err)
	}
	for _, field := range []string{`"syncedEntries"`, `"workEntryId": 1`, `"jiraId": "WT-1"`, `"jiraWorkLogId": "100"`, `"durationSecs": 3661`} {
		if !strings.Contains(string(raw), field) {
			t.Fatalf("expected ledger file to contain %s:\n%s", field, raw)
		}
	}

	loaded, err := backend.LoadEntryStore(ctx)
	if err != nil {
		t.Fatalf("load entry store: %v", err)
	}
	if loaded.LastSync != 1767225600000 || len(loaded.WorkEntries) != 2 || len(loaded.Employees) != 2 {
		t.Fatalf("unexpected loaded store: %+v", loaded)
	}
	if loaded.WorkEntries[1].DurationSeconds() != 3661 {
		t.Fatalf("unexpected entry after round trip: %+v", loaded.WorkEntries[1])
	}

	loadedLedger, err := backend.LoadLedger(ctx)
	if err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if !loadedLedger.Has(1) || loadedLedger.Len() != 1 {
		t.Fatalf("unexpected loaded ledger: %+v", loadedLedger)
	}
	if _, err := os.Stat(backend.LedgerPath() + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be renamed away, stat err: %v", err)
	}
}

func TestFileBackend_SaveReplacesFileWithoutLeftovers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	backend, err := OpenFileBackend(dir, "acme")
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	ctx := context.Background()

	ledger := NewLedger()
	for id := int64(1); id <= 2; id++ {
		_ = ledger.Record(LedgerEntry{WorkEntryID: id, JiraID: "WT-1", JiraWorkLogID: "100", DurationSecs: 60})
		if err := backend.SaveLedger(ctx, ledger); err != nil {
			t.Fatalf("save ledger %d: %v", id, err)
		}
	}
	loaded, err := backend.LoadLedger(ctx)
	if err != nil || loaded.Len() != 2 {
		t.Fatalf("expected 2 ledger rows, got %v / %v", loaded, err)
	}
	if _, err := os.Stat(backend.LedgerPath() + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be gone, stat err=%v", err)
	}

	// A directory in place of the target makes the rename fail.
	blocked, err := OpenFileBackend(t.TempDir(), "blocked")
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(blocked.EntryStorePath(), "child"), 0o755); err != nil {
		t.Fatalf("create blocking dir: %v", err)
	}
	if err := blocked.SaveEntryStore(ctx, sampleEntryStore()); err == nil {
		t.Fatalf("expected save over a directory to fail")
	}
	if _, err := os.Stat(blocked.EntryStorePath() + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be removed after failed rename, stat err=%v", err)
	}
}

func TestFileBackend_CorruptFileIsAnError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	backend, err := OpenFileBackend(dir, "acme")
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	if err := os.WriteFile(backend.LedgerPath(), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if _, err := backend.LoadLedger(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestOpenFileBackend_RequiresPrefix(t *testing.T) {
	t.Parallel()

	if _, err := OpenFileBackend(t.TempDir(), " "); err == nil {
		t.Fatalf("expected error for empty prefix")
	}
}

func TestOpen_SelectsBackend(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jsonBackend, err := Open("json", dir, "acme")
	if err != nil {
		t.Fatalf("open json backend: %v", err)
	}
	if _, ok := jsonBackend.(*FileBackend); !ok {
		t.Fatalf("expected *FileBackend, got %T", jsonBackend)
	}

	sqliteBackend, err := Open("SQLite", dir, "acme")
	if err != nil {
		t.Fatalf("open sqlite backend: %v", err)
	}
	defer sqliteBackend.Close()
	if _, ok := sqliteBackend.(*SQLiteBackend); !ok {
		t.Fatalf("expected *SQLiteBackend, got %T", sqliteBackend)
	}
	if _, err := os.Stat(filepath.Join(dir, SQLiteFileName)); err != nil {
		t.Fatalf("expected sqlite file: %v", err)
	}

	if _, err := Open("postgres", dir, "acme"); err == nil {
		t.Fatalf("expected error for unsupported backend")
	}
}
