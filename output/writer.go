package output

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
)

type Writer interface {
	Write(path string, rows []ReportRow) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case FormatCSV:
		return &CSVWriter{}, nil
	case FormatExcel, "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// FormatFromPath infers the output format from the file extension.
func FormatFromPath(path string) string {
	lower := strings.ToLower(strings.TrimSpace(path))
	if strings.HasSuffix(lower, ".xlsx") {
		return FormatExcel
	}
	return FormatCSV
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

func formatInt(value int64) string {
	return strconv.FormatInt(value, 10)
}

func formatBool(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
