package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"worklogsync/config"
	"worklogsync/internal/timeutil"
	"worklogsync/jira"
	"worklogsync/syncer"
	"worklogsync/worktrail"
)

const userAgent = "worklogsync/1.0"

var (
	syncPrefix  string
	syncDryRun  bool
	syncTimeout time.Duration
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one incremental WorkTrail to Jira sync pass",
	Long: `Run one sync pass:

1. Refresh the WorkTrail employee roster.
2. Fetch every work entry modified since the stored watermark (all pages).
3. Persist the entry store once the fetch completed.
4. For each entry of an eligible employee whose description matches an issue
   pattern and that is not yet in the ledger, create a Jira worklog and record it.

The ledger is saved at the end of every pass, also when the pass fails.
Entries whose worklog could not be created are retried on the next pass.

In --dry-run mode the entry store is still updated but nothing is written to
Jira and no ledger row is added; the worklogs that would be created are logged
instead and stay pending for the next real pass.`,
	Example: `
  # Sync with the prefix from the config file
  worklogsync sync

  # Sync a different state prefix
  worklogsync sync --prefix acme

  # Preview without writing anything
  worklogsync sync --dry-run

  # Bound each API call to 30 seconds
  worklogsync sync --timeout 30s
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		logger, closer := newCommandLogger(cfg, os.Stderr)
		defer closer.Close()

		if syncDryRun {
			fmt.Println("Sync dry-run mode: fetching from WorkTrail without creating Jira worklogs.")
		}

		result, err := runSync(cmd.Context(), cfg, syncDryRun, syncTimeout, logger)
		printSyncSummary(os.Stdout, result)
		return err
	},
}

func runSync(ctx context.Context, cfg *config.Config, dryRun bool, timeout time.Duration, logger *slog.Logger) (syncer.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	source, err := worktrail.NewClient(worktrail.ClientConfig{
		BaseURL:   cfg.WorkTrail.URL,
		AppKey:    cfg.WorkTrail.AppKey,
		AuthToken: cfg.WorkTrail.AuthToken,
		UserAgent: userAgent,
	})
	if err != nil {
		return syncer.Result{}, fmt.Errorf("create worktrail client: %w", err)
	}

	tracker, err := jira.NewClient(jira.ClientConfig{
		BaseURL:        cfg.Jira.URL,
		Username:       cfg.Jira.Username,
		Password:       cfg.Jira.Password,
		UserAgent:      userAgent,
		ConnectTimeout: cfg.Jira.ConnectTimeout,
		ReadTimeout:    cfg.Jira.ReadTimeout,
	})
	if err != nil {
		return syncer.Result{}, fmt.Errorf("create jira client: %w", err)
	}

	matcher, err := syncer.NewMatcher(cfg.IssueMatchers)
	if err != nil {
		return syncer.Result{}, err
	}

	backend, err := openStateBackend(cfg)
	if err != nil {
		return syncer.Result{}, err
	}
	defer backend.Close()

	engine, err := syncer.New(source, tracker, backend, matcher, syncer.Options{
		Emails:      cfg.EligibleEmails(),
		DryRun:      dryRun,
		CallTimeout: timeout,
		Logger:      logger.With("prefix", cfg.Sync.Prefix),
	})
	if err != nil {
		return syncer.Result{}, err
	}

	return engine.Run(ctx)
}

func printSyncSummary(out io.Writer, result syncer.Result) {
	mode := "sync"
	if result.DryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(out, "Sync %s finished (run %s).\n", mode, result.RunID)
	fmt.Fprintf(out, "Employees: %d, Pages: %d, New entries: %d\n", result.Employees, result.Pages, result.NewEntries)
	fmt.Fprintf(out, "Watermark: %s -> %s\n", timeutil.FormatMillis(result.WatermarkBefore), timeutil.FormatMillis(result.WatermarkAfter))
	fmt.Fprintf(
		out,
		"Eligible: %d, Unmatched: %d, Matched: %d, Already synced: %d\n",
		result.Eligible,
		result.Unmatched,
		result.Matched,
		result.AlreadySynced,
	)
	if result.DryRun {
		fmt.Fprintf(out, "Would create: %d, Skipped: %d\n", result.Planned, result.Skipped)
		return
	}
	fmt.Fprintf(out, "Created: %d, Skipped: %d, Failed: %d\n", result.Propagated, result.Skipped, result.Failed)
	if result.Failed > 0 {
		fmt.Fprintln(out, "Warning: failed entries are retried on the next pass.")
	}
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncPrefix, "prefix", "", "State prefix override (default: sync.prefix from config)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Log intended Jira worklogs without creating them or adding ledger rows")
	syncCmd.Flags().DurationVar(&syncTimeout, "timeout", 60*time.Second, "Timeout per WorkTrail/Jira API call")

}
