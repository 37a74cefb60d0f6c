package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"worklogsync/internal/logging"
	"worklogsync/internal/timeutil"
	"worklogsync/jira"
	"worklogsync/state"
	"worklogsync/worklog"
	"worklogsync/worktrail"
)

type Options struct {
	// Emails is the allow-list of employee primary emails.
	Emails []string
	DryRun bool
	// CallTimeout bounds every single network call; zero disables it.
	CallTimeout time.Duration
	Logger      *slog.Logger
	RunID       string
}

// Result summarizes one pass.
type Result struct {
	RunID           string
	DryRun          bool
	Employees       int
	Pages           int
	NewEntries      int
	WatermarkBefore int64
	WatermarkAfter  int64
	Eligible        int
	Unmatched       int
	Matched         int
	AlreadySynced   int
	Propagated      int
	Planned         int
	// Skipped counts entries whose end lies before their start.
	Skipped         int
	Failed          int
}

type Engine struct {
	source  worktrail.Client
	tracker jira.Client
	backend state.Backend
	matcher *Matcher
	options Options
	logger  *slog.Logger
}

func New(source worktrail.Client, tracker jira.Client, backend state.Backend, matcher *Matcher, options Options) (*Engine, error) {
	if source == nil {
		return nil, errors.New("worktrail client is required")
	}
	if tracker == nil {
		return nil, errors.New("jira client is required")
	}
	if backend == nil {
		return nil, errors.New("state backend is required")
	}
	if matcher == nil {
		return nil, errors.New("issue matcher is required")
	}
	if len(options.Emails) == 0 {
		return nil, errors.New("at least one eligible email is required")
	}
	if options.RunID == "" {
		options.RunID = uuid.NewString()
	}
	logger := options.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	engine := &Engine{
		backend: backend,
		matcher: matcher,
		options: options,
		logger:  logger.With("run_id", options.RunID),
	}
	engine.source = timeoutSource{next: source, timeout: options.CallTimeout}
	engine.tracker = timeoutTracker{next: tracker, timeout: options.CallTimeout}
	return engine, nil
}

// Run executes one pass: refresh the roster, fetch new entries into a scratch
// store, persist it, then propagate matched entries. The ledger is saved on
// every exit path once it has been loaded. Dry runs still advance the entry
// store but never call the tracker or add ledger rows.
func (e *Engine) Run(ctx context.Context) (result Result, err error) {
	result.RunID = e.options.RunID
	result.DryRun = e.options.DryRun

	store, err := e.backend.LoadEntryStore(ctx)
	if err != nil {
		return result, fmt.Errorf("load entry store: %w", err)
	}
	ledger, err := e.backend.LoadLedger(ctx)
	if err != nil {
		return result, fmt.Errorf("load sync ledger: %w", err)
	}
	defer func() {
		if saveErr := e.backend.SaveLedger(context.WithoutCancel(ctx), ledger); saveErr != nil {
			err = errors.Join(err, fmt.Errorf("save sync ledger: %w", saveErr))
		}
	}()

	result.WatermarkBefore = store.LastSync
	result.WatermarkAfter = store.LastSync
	e.logger.Info("sync pass started",
		"watermark", timeutil.FormatMillis(store.LastSync),
		"stored_entries", len(store.WorkEntries),
		"ledger_rows", ledger.Len(),
		"dry_run", e.options.DryRun,
	)

	roster, err := e.RefreshEmployees(ctx, store)
	if err != nil {
		return result, err
	}
	result.Employees = len(roster)

	candidate, pages, err := e.fetch(ctx, store)
	if err != nil {
		return result, err
	}
	result.Pages = pages
	result.NewEntries = len(candidate.WorkEntries) - len(store.WorkEntries)
	result.WatermarkAfter = candidate.LastSync

	if err := e.backend.SaveEntryStore(ctx, candidate); err != nil {
		return result, fmt.Errorf("save entry store: %w", err)
	}

	e.Propagate(ctx, candidate, ledger, &result)

	e.logger.Info("sync pass finished",
		"watermark", timeutil.FormatMillis(result.WatermarkAfter),
		"propagated", result.Propagated,
		"planned", result.Planned,
		"already_synced", result.AlreadySynced,
		"failed", result.Failed,
	)
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("sync pass interrupted: %w", err)
	}
	return result, nil
}

// RefreshEmployees replaces the roster of store with a fresh snapshot.
func (e *Engine) RefreshEmployees(ctx context.Context, store *state.EntryStore) (worklog.Roster, error) {
	employees, err := e.source.FetchEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch employees: %w", err)
	}
	roster := worklog.Roster(employees)
	store.ReplaceEmployees(roster)
	e.logger.Info("employee roster refreshed", "employees", len(roster))
	return roster, nil
}

func (e *Engine) fetch(ctx context.Context, store *state.EntryStore) (*state.EntryStore, int, error) {
	candidate, pages, err := FetchNewEntries(ctx, e.source, store)
	if err != nil {
		e.logger.Error("entry fetch aborted, scratch store discarded", "pages", pages, "error", err)
		return nil, pages, err
	}
	e.logger.Info("work entries fetched",
		"pages", pages,
		"stored_entries", len(candidate.WorkEntries),
		"watermark", timeutil.FormatMillis(candidate.LastSync),
	)
	return candidate, pages, nil
}

// FetchNewEntries pages through entries modified since store.LastSync into a
// clone of store and returns the clone with its advanced watermark plus the
// number of pages read. Every page is requested with the starting watermark.
// The page bound is re-read from every response. On error store is untouched.
func FetchNewEntries(ctx context.Context, client worktrail.Client, store *state.EntryStore) (*state.EntryStore, int, error) {
	candidate := store.Clone()
	since := store.LastSync
	watermark := store.LastSync

	pagesRead := 0
	numPages := 1
	for page := 1; page <= numPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, pagesRead, err
		}
		result, err := client.FetchWorkEntries(ctx, since, page)
		if err != nil {
			return nil, pagesRead, fmt.Errorf("fetch work entries page %d: %w", page, err)
		}
		pagesRead++
		numPages = result.NumPages

		for _, entry := range result.Entries {
			candidate.Upsert(entry)
			if entry.ModifyDate > watermark {
				watermark = entry.ModifyDate
			}
		}
	}

	candidate.LastSync = watermark
	return candidate, pagesRead, nil
}

// Propagate sends every eligible, matched and not yet recorded entry of store
// to the tracker, in ascending id order. Failures are counted and logged; the
// entry is retried on the next pass.
func (e *Engine) Propagate(ctx context.Context, store *state.EntryStore, ledger *state.Ledger, result *Result) {
	eligible := store.Employees.Eligible(e.options.Emails)

	for _, entry := range store.SortedEntries() {
		employee, ok := eligible[entry.EmployeeID]
		if !ok {
			continue
		}
		result.Eligible++

		match, ok := e.matcher.Match(entry.Description)
		if !ok {
			result.Unmatched++
			e.logger.Debug("no issue key in description", "work_entry_id", entry.ID)
			continue
		}
		result.Matched++

		if ledger.Has(entry.ID) {
			result.AlreadySynced++
			continue
		}

		durationSeconds := entry.DurationSeconds()
		if durationSeconds < 0 {
			result.Skipped++
			e.logger.Debug("negative duration, worklog skipped", "work_entry_id", entry.ID, "duration_secs", durationSeconds)
			continue
		}
		comment := Comment(entry, employee)
		logger := e.logger.With(
			"work_entry_id", entry.ID,
			"issue", match.IssueKey,
			"duration_secs", durationSeconds,
			"started", timeutil.FormatJira(entry.StartTime()),
		)

		if e.options.DryRun {
			result.Planned++
			logger.Info("dry-run: would create worklog", "comment", comment)
			continue
		}

		if err := ctx.Err(); err != nil {
			result.Failed++
			logger.Warn("worklog not created", "error", err)
			continue
		}

		created, err := e.tracker.CreateWorklog(ctx, match.IssueKey, comment, durationSeconds, entry.StartTime())
		if err != nil {
			result.Failed++
			logger.Warn("worklog not created", "error", err)
			continue
		}

		if err := ledger.Record(state.LedgerEntry{
			WorkEntryID:   entry.ID,
			JiraID:        match.IssueKey,
			JiraWorkLogID: created.ID,
			DurationSecs:  durationSeconds,
		}); err != nil {
			result.Failed++
			logger.Warn("ledger row not recorded", "error", err)
			continue
		}
		result.Propagated++
		logger.Info("worklog created", "jira_worklog_id", created.ID)
	}
}

// Comment renders the worklog comment that tags an entry with its origin.
func Comment(entry worklog.WorkEntry, employee worklog.Employee) string {
	return fmt.Sprintf("[WorkTrail:%d] <%s>: %s", entry.ID, employee.DisplayName, entry.Description)
}

type timeoutSource struct {
	next    worktrail.Client
	timeout time.Duration
}

func (s timeoutSource) FetchEmployees(ctx context.Context) ([]worklog.Employee, error) {
	ctx, cancel := withCallTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.FetchEmployees(ctx)
}

func (s timeoutSource) FetchWorkEntries(ctx context.Context, modifiedSince int64, page int) (worktrail.WorkEntryPage, error) {
	ctx, cancel := withCallTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.FetchWorkEntries(ctx, modifiedSince, page)
}

type timeoutTracker struct {
	next    jira.Client
	timeout time.Duration
}

func (t timeoutTracker) CreateWorklog(ctx context.Context, issueKey, comment string, durationSeconds int64, startedAt time.Time) (jira.WorklogResult, error) {
	ctx, cancel := withCallTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.CreateWorklog(ctx, issueKey, comment, durationSeconds, startedAt)
}

func withCallTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// PendingEntries lists eligible, matched entries without a ledger row, in id order.
func PendingEntries(store *state.EntryStore, ledger *state.Ledger, matcher *Matcher, emails []string) []worklog.WorkEntry {
	eligible := store.Employees.Eligible(emails)
	pending := make([]worklog.WorkEntry, 0)
	for _, entry := range store.SortedEntries() {
		if _, ok := eligible[entry.EmployeeID]; !ok {
			continue
		}
		if _, ok := matcher.Match(entry.Description); !ok {
			continue
		}
		if ledger.Has(entry.ID) {
			continue
		}
		pending = append(pending, entry)
	}
	return pending
}
