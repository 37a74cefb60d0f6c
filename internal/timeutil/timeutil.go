package timeutil

import "time"

// JiraTimestampLayout is the worklog "started" format (yyyy-MM-ddTHH:mm:ss.SSS±HHMM).
const JiraTimestampLayout = "2006-01-02T15:04:05.000-0700"

func FromMillis(value int64) time.Time {
	return time.UnixMilli(value).In(time.Local)
}

func ToMillis(value time.Time) int64 {
	return value.UnixMilli()
}

func FormatJira(value time.Time) string {
	return value.Format(JiraTimestampLayout)
}

// FormatMillis renders an epoch-millis watermark for humans; zero means "never".
func FormatMillis(value int64) string {
	if value <= 0 {
		return "never"
	}
	return FromMillis(value).Format(time.RFC3339)
}
