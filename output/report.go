package output

import (
	"sort"
	"time"

	"worklogsync/state"
	"worklogsync/worklog"
)

// ReportRow is one stored work entry joined with its employee and its ledger row.
type ReportRow struct {
	WorkEntryID   int64
	EmployeeID    int64
	Employee      string
	Email         string
	Start         time.Time
	End           time.Time
	DurationSecs  int64
	Description   string
	IssueKey      string
	JiraWorkLogID string
	Synced        bool
}

func BuildReport(store *state.EntryStore, ledger *state.Ledger) []ReportRow {
	if store == nil {
		return []ReportRow{}
	}
	employees := store.Employees.ByID()

	rows := make([]ReportRow, 0, len(store.WorkEntries))
	for _, entry := range store.WorkEntries {
		rows = append(rows, buildRow(entry, employees[entry.EmployeeID], ledger))
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Start.Equal(rows[j].Start) {
			return rows[i].WorkEntryID < rows[j].WorkEntryID
		}
		return rows[i].Start.Before(rows[j].Start)
	})
	return rows
}

func buildRow(entry worklog.WorkEntry, employee worklog.Employee, ledger *state.Ledger) ReportRow {
	row := ReportRow{
		WorkEntryID:  entry.ID,
		EmployeeID:   entry.EmployeeID,
		Employee:     employee.DisplayName,
		Email:        employee.PrimaryEmail,
		Start:        entry.StartTime(),
		End:          entry.EndTime(),
		DurationSecs: entry.DurationSeconds(),
		Description:  entry.Description,
	}
	if ledger == nil {
		return row
	}
	if synced, ok := ledger.Get(entry.ID); ok {
		row.IssueKey = synced.JiraID
		row.JiraWorkLogID = synced.JiraWorkLogID
		// The ledger keeps the duration that was actually booked.
		row.DurationSecs = synced.DurationSecs
		row.Synced = true
	}
	return row
}

var reportHeaders = []string{"WorkEntryID", "Employee", "Email", "StartDateTime", "EndDateTime", "DurationSecs", "Description", "Synced", "IssueKey", "JiraWorkLogID"}

func reportValues(row ReportRow) []string {
	return []string{
		formatInt(row.WorkEntryID),
		row.Employee,
		row.Email,
		row.Start.Format(time.RFC3339),
		row.End.Format(time.RFC3339),
		formatInt(row.DurationSecs),
		row.Description,
		formatBool(row.Synced),
		row.IssueKey,
		row.JiraWorkLogID,
	}
}
