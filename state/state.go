package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"worklogsync/worklog"
)

var ErrLedgerRowExists = errors.New("ledger row already exists")

// EntryStore caches every work entry seen so far plus the current roster.
// LastSync is the watermark: the highest modifyDate observed.
type EntryStore struct {
	LastSync    int64                       `json:"lastSync"`
	WorkEntries map[int64]worklog.WorkEntry `json:"workEntries"`
	Employees   worklog.Roster              `json:"employees"`
}

func NewEntryStore() *EntryStore {
	return &EntryStore{
		WorkEntries: make(map[int64]worklog.WorkEntry),
		Employees:   worklog.Roster{},
	}
}

// Clone returns an independent copy used as scratch space during a fetch.
func (s *EntryStore) Clone() *EntryStore {
	out := &EntryStore{
		LastSync:    s.LastSync,
		WorkEntries: make(map[int64]worklog.WorkEntry, len(s.WorkEntries)),
		Employees:   append(worklog.Roster{}, s.Employees...),
	}
	for id, entry := range s.WorkEntries {
		out.WorkEntries[id] = entry
	}
	return out
}

// Upsert stores entry by id, replacing any older snapshot.
func (s *EntryStore) Upsert(entry worklog.WorkEntry) {
	if s.WorkEntries == nil {
		s.WorkEntries = make(map[int64]worklog.WorkEntry)
	}
	s.WorkEntries[entry.ID] = entry
}

func (s *EntryStore) ReplaceEmployees(roster worklog.Roster) {
	s.Employees = append(worklog.Roster{}, roster...)
}

// SortedEntries returns the stored entries ordered by id.
func (s *EntryStore) SortedEntries() []worklog.WorkEntry {
	out := make([]worklog.WorkEntry, 0, len(s.WorkEntries))
	for _, entry := range s.WorkEntries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *EntryStore) normalize() {
	if s.WorkEntries == nil {
		s.WorkEntries = make(map[int64]worklog.WorkEntry)
	}
	if s.Employees == nil {
		s.Employees = worklog.Roster{}
	}
}

// LedgerEntry records one work entry propagated to Jira.
type LedgerEntry struct {
	WorkEntryID   int64  `json:"workEntryId"`
	JiraID        string `json:"jiraId"`
	JiraWorkLogID string `json:"jiraWorkLogId"`
	DurationSecs  int64  `json:"durationSecs"`
}

// Ledger is keyed by work entry id only; its rows are append-only.
type Ledger struct {
	SyncedEntries map[int64]LedgerEntry `json:"syncedEntries"`
}

func NewLedger() *Ledger {
	return &Ledger{SyncedEntries: make(map[int64]LedgerEntry)}
}

func (l *Ledger) Has(workEntryID int64) bool {
	_, ok := l.SyncedEntries[workEntryID]
	return ok
}

func (l *Ledger) Get(workEntryID int64) (LedgerEntry, bool) {
	row, ok := l.SyncedEntries[workEntryID]
	return row, ok
}

func (l *Ledger) Len() int {
	return len(l.SyncedEntries)
}

// Record appends a row. Existing rows are never replaced.
func (l *Ledger) Record(row LedgerEntry) error {
	if l.SyncedEntries == nil {
		l.SyncedEntries = make(map[int64]LedgerEntry)
	}
	if _, ok := l.SyncedEntries[row.WorkEntryID]; ok {
		return fmt.Errorf("work entry %d: %w", row.WorkEntryID, ErrLedgerRowExists)
	}
	l.SyncedEntries[row.WorkEntryID] = row
	return nil
}

func (l *Ledger) normalize() {
	if l.SyncedEntries == nil {
		l.SyncedEntries = make(map[int64]LedgerEntry)
	}
}

// Backend persists the entry store and the ledger for one prefix.
// Absent state loads as empty.
type Backend interface {
	LoadEntryStore(ctx context.Context) (*EntryStore, error)
	SaveEntryStore(ctx context.Context, store *EntryStore) error
	LoadLedger(ctx context.Context) (*Ledger, error)
	SaveLedger(ctx context.Context, ledger *Ledger) error
	Close() error
}

const (
	KindJSON   = "json"
	KindSQLite = "sqlite"

	SQLiteFileName = "worklogsync.db"
)

// Open returns the backend of the given kind for prefix inside dir.
func Open(kind, dir, prefix string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindJSON:
		return OpenFileBackend(dir, prefix)
	case KindSQLite:
		if strings.TrimSpace(dir) == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state directory %q: %w", dir, err)
		}
		return OpenSQLite(filepath.Join(dir, SQLiteFileName), prefix)
	default:
		return nil, fmt.Errorf("unsupported state store %q (supported: json, sqlite)", kind)
	}
}
