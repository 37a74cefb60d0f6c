package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"worklogsync/config"
	"worklogsync/output"
)

var (
	exportFormat string
	exportMode   string
	exportOutput string
	exportPrefix string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export cached work entries and their sync status to CSV/Excel",
	Long: `Export the cached work entries of a prefix joined with their employee and
ledger row. No network calls are made.

Modes:
- raw: one row per work entry (issue key and Jira worklog id when synced)
- daily: per-day and per-employee aggregates (worked, synced, pending and break hours)

Output format can be selected explicitly via --format or inferred from --output extension.`,
	Example: `
  # Export raw rows to CSV
  worklogsync export --output ./worklogs.csv

  # Export raw rows to Excel
  worklogsync export --output ./worklogs.xlsx

  # Export daily summary of another prefix
  worklogsync export --mode daily --prefix acme --output ./daily-summary.csv

  # Force Excel format independent of extension
  worklogsync export --format excel --output ./worklogs.out
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		count, format, err := runExport(ctx, cfg, exportMode, exportFormat, exportOutput)
		if err != nil {
			return err
		}
		fmt.Printf("Export completed. Rows: %d, Mode: %s, Format: %s, File: %s\n", count, normalizeExportMode(exportMode), format, exportOutput)
		return nil
	},
}

func runExport(ctx context.Context, cfg *config.Config, mode, format, path string) (int, string, error) {
	if strings.TrimSpace(format) == "" {
		format = output.FormatFromPath(path)
	}

	backend, err := openStateBackend(cfg)
	if err != nil {
		return 0, format, err
	}
	defer backend.Close()

	store, err := backend.LoadEntryStore(ctx)
	if err != nil {
		return 0, format, fmt.Errorf("load entry store: %w", err)
	}
	ledger, err := backend.LoadLedger(ctx)
	if err != nil {
		return 0, format, fmt.Errorf("load sync ledger: %w", err)
	}
	rows := output.BuildReport(store, ledger)

	switch normalizeExportMode(mode) {
	case "raw":
		writer, err := output.WriterForFormat(format)
		if err != nil {
			return 0, format, err
		}
		if err := writer.Write(path, rows); err != nil {
			return 0, format, err
		}
		return len(rows), format, nil
	case "daily":
		summaries := output.BuildDailySummaries(rows)
		if err := output.WriteDailySummaries(path, format, summaries); err != nil {
			return 0, format, err
		}
		return len(summaries), format, nil
	default:
		return 0, format, fmt.Errorf("unsupported export mode: %s (supported: raw, daily)", mode)
	}
}

func normalizeExportMode(mode string) string {
	mode = strings.TrimSpace(strings.ToLower(mode))
	if mode == "" {
		return "raw"
	}
	return mode
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportMode, "mode", "raw", "Export mode: raw|daily")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	exportCmd.Flags().StringVar(&exportPrefix, "prefix", "", "State prefix override (default: sync.prefix from config)")

	_ = exportCmd.MarkFlagRequired("output")
}
