package output

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

type DailySummary struct {
	Date          string
	Employee      string
	StartDateTime time.Time
	EndDateTime   time.Time
	WorkedHours   float64
	SyncedHours   float64
	PendingHours  float64
	BreakHours    float64
	EntryCount    int
}

type interval struct {
	start time.Time
	end   time.Time
}

type dayKey struct {
	day      string
	employee string
}

// BuildDailySummaries groups report rows per local day and employee.
func BuildDailySummaries(rows []ReportRow) []DailySummary {
	if len(rows) == 0 {
		return []DailySummary{}
	}

	byDay := make(map[dayKey][]ReportRow)
	for _, row := range rows {
		key := dayKey{
			day:      row.Start.In(time.Local).Format("2006-01-02"),
			employee: employeeLabel(row),
		}
		byDay[key] = append(byDay[key], row)
	}

	keys := make([]dayKey, 0, len(byDay))
	for key := range byDay {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].day != keys[j].day {
			return keys[i].day < keys[j].day
		}
		return keys[i].employee < keys[j].employee
	})

	summaries := make([]DailySummary, 0, len(keys))
	for _, key := range keys {
		summaries = append(summaries, summarizeDay(key, byDay[key]))
	}

	return summaries
}

func employeeLabel(row ReportRow) string {
	if row.Employee != "" {
		return row.Employee
	}
	return fmt.Sprintf("employee %d", row.EmployeeID)
}

func summarizeDay(key dayKey, rows []ReportRow) DailySummary {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Start.Equal(rows[j].Start) {
			return rows[i].End.Before(rows[j].End)
		}
		return rows[i].Start.Before(rows[j].Start)
	})

	start := rows[0].Start
	end := rows[0].End
	for _, row := range rows[1:] {
		if row.End.After(end) {
			end = row.End
		}
	}
	if end.Before(start) {
		end = start
	}

	var workedSecs, syncedSecs int64
	intervals := make([]interval, 0, len(rows))

	for _, row := range rows {
		if row.DurationSecs > 0 {
			workedSecs += row.DurationSecs
			if row.Synced {
				syncedSecs += row.DurationSecs
			}
		}
		intervals = append(intervals, interval{
			start: row.Start,
			end:   row.End,
		})
	}

	span := end.Sub(start)
	covered := mergedCoverageWithinWindow(intervals, start, end)
	breakDuration := span - covered
	if breakDuration < 0 {
		breakDuration = 0
	}

	return DailySummary{
		Date:          key.day,
		Employee:      key.employee,
		StartDateTime: start,
		EndDateTime:   end,
		WorkedHours:   secondsToHours(workedSecs),
		SyncedHours:   secondsToHours(syncedSecs),
		PendingHours:  secondsToHours(workedSecs - syncedSecs),
		BreakHours:    roundHours(breakDuration.Hours()),
		EntryCount:    len(rows),
	}
}

func mergedCoverageWithinWindow(intervals []interval, windowStart, windowEnd time.Time) time.Duration {
	if len(intervals) == 0 {
		return 0
	}
	if !windowEnd.After(windowStart) {
		return 0
	}

	clipped := make([]interval, 0, len(intervals))
	for _, candidate := range intervals {
		start := maxTime(candidate.start, windowStart)
		end := minTime(candidate.end, windowEnd)
		if end.After(start) {
			clipped = append(clipped, interval{start: start, end: end})
		}
	}
	if len(clipped) == 0 {
		return 0
	}

	sort.Slice(clipped, func(i, j int) bool {
		return clipped[i].start.Before(clipped[j].start)
	})

	currentStart := clipped[0].start
	currentEnd := clipped[0].end
	covered := time.Duration(0)

	for _, candidate := range clipped[1:] {
		if candidate.start.After(currentEnd) {
			covered += currentEnd.Sub(currentStart)
			currentStart = candidate.start
			currentEnd = candidate.end
			continue
		}

		if candidate.end.After(currentEnd) {
			currentEnd = candidate.end
		}
	}

	covered += currentEnd.Sub(currentStart)
	return covered
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func roundHours(value float64) float64 {
	return math.Round(value*100) / 100
}

func secondsToHours(seconds int64) float64 {
	return roundHours(float64(seconds) / 3600.0)
}

var dailySummaryHeaders = []string{"Date", "Employee", "StartTime", "EndTime", "WorkedHours", "SyncedHours", "PendingHours", "BreakHours", "EntryCount"}

func dailySummaryValues(summary DailySummary) []string {
	return []string{
		summary.Date,
		summary.Employee,
		summary.StartDateTime.Format("15:04"),
		summary.EndDateTime.Format("15:04"),
		fmt.Sprintf("%.2f", summary.WorkedHours),
		fmt.Sprintf("%.2f", summary.SyncedHours),
		fmt.Sprintf("%.2f", summary.PendingHours),
		fmt.Sprintf("%.2f", summary.BreakHours),
		strconv.Itoa(summary.EntryCount),
	}
}

func WriteDailySummaries(path, format string, summaries []DailySummary) error {
	values := make([][]string, 0, len(summaries))
	for _, summary := range summaries {
		values = append(values, dailySummaryValues(summary))
	}

	switch normalizeFormat(format) {
	case FormatCSV:
		return writeCSV(path, dailySummaryHeaders, values)
	case FormatExcel, "xlsx":
		return writeExcel(path, "Daily", dailySummaryHeaders, values)
	default:
		return fmt.Errorf("unsupported output format for daily summaries: %s", format)
	}
}
