package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"worklogsync/config"
	"worklogsync/internal/timeutil"
	"worklogsync/syncer"
)

var statusPrefix string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted sync state of a prefix",
	Long: `Show the persisted sync state without contacting WorkTrail or Jira:
watermark, cached entries, roster size, ledger rows and the number of matched
entries of eligible employees that are still waiting to be booked.`,
	Example: `
  # State of the configured prefix
  worklogsync status

  # State of another prefix
  worklogsync status --prefix acme
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
		return printStatus(ctx, os.Stdout, cfg)
	},
}

func printStatus(ctx context.Context, out io.Writer, cfg *config.Config) error {
	backend, err := openStateBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	store, err := backend.LoadEntryStore(ctx)
	if err != nil {
		return fmt.Errorf("load entry store: %w", err)
	}
	ledger, err := backend.LoadLedger(ctx)
	if err != nil {
		return fmt.Errorf("load sync ledger: %w", err)
	}
	matcher, err := syncer.NewMatcher(cfg.IssueMatchers)
	if err != nil {
		return err
	}

	emails := cfg.EligibleEmails()
	pending := syncer.PendingEntries(store, ledger, matcher, emails)

	fmt.Fprintf(out, "Prefix: %s (store: %s, dir: %s)\n", cfg.Sync.Prefix, cfg.Sync.Store, cfg.Sync.StateDir)
	fmt.Fprintf(out, "Watermark: %s\n", timeutil.FormatMillis(store.LastSync))
	fmt.Fprintf(out, "Cached entries: %d\n", len(store.WorkEntries))
	fmt.Fprintf(out, "Employees: %d (eligible: %d)\n", len(store.Employees), len(store.Employees.Eligible(emails)))
	fmt.Fprintf(out, "Ledger rows: %d\n", ledger.Len())
	fmt.Fprintf(out, "Pending worklogs: %d\n", len(pending))
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusPrefix, "prefix", "", "State prefix override (default: sync.prefix from config)")
}
