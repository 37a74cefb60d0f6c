package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage worklogsync configuration file values.",
	Long: `Create, edit, display, and delete the worklogsync configuration file.

The configuration stores connection and sync settings:
- jira.url / username / password / issue_patterns / connect_timeout / read_timeout
- worktrail.url / app_key / auth_token
- sync.prefix / state_dir / store / emails
- log.level / file

Every key can be overridden by an environment variable, e.g. JIRA_PASSWORD.`,
	Example: `
  # Create default config in $HOME/.worklogsync.yaml
  worklogsync config create

  # Show active config and source file
  worklogsync config show

  # Open active config in editor (creates example if missing)
  worklogsync config edit

  # Delete active config file
  worklogsync config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
