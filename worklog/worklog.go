package worklog

import (
	"strings"
	"time"

	"worklogsync/internal/timeutil"
)

// WorkEntry is one logged time interval as reported by WorkTrail.
// Timestamps are epoch milliseconds, matching the source API and the persisted store.
type WorkEntry struct {
	ID          int64  `json:"id"`
	EmployeeID  int64  `json:"employeeId"`
	Description string `json:"description"`
	Start       int64  `json:"start"`
	End         int64  `json:"end"`
	ModifyDate  int64  `json:"modifyDate"`
}

func (e WorkEntry) StartTime() time.Time {
	return timeutil.FromMillis(e.Start)
}

func (e WorkEntry) EndTime() time.Time {
	return timeutil.FromMillis(e.End)
}

// DurationSeconds truncates toward zero.
func (e WorkEntry) DurationSeconds() int64 {
	return (e.End - e.Start) / 1000
}

type Employee struct {
	EmployeeID   int64  `json:"employeeId"`
	PrimaryEmail string `json:"primaryEmail"`
	DisplayName  string `json:"displayName"`
}

// Roster is a full snapshot of the employee list. It is replaced, never merged.
type Roster []Employee

// Eligible returns the employees whose primary email is in emails, keyed by employee id.
func (r Roster) Eligible(emails []string) map[int64]Employee {
	allowed := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		if normalized := NormalizeEmail(email); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	out := make(map[int64]Employee, len(allowed))
	for _, employee := range r {
		if _, ok := allowed[NormalizeEmail(employee.PrimaryEmail)]; ok {
			out[employee.EmployeeID] = employee
		}
	}
	return out
}

func (r Roster) ByID() map[int64]Employee {
	out := make(map[int64]Employee, len(r))
	for _, employee := range r {
		out[employee.EmployeeID] = employee
	}
	return out
}

func NormalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
