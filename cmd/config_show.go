package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"worklogsync/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values.
Passwords and tokens are masked.`,
	Example: `
  # Show active configuration
  worklogsync config show
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return
		}

		printConfig(os.Stdout, viper.ConfigFileUsed(), cfg)
	},
}

func printConfig(out io.Writer, configPath string, cfg *config.Config) {
	if configPath != "" {
		fmt.Fprintln(out, "Config file loaded from:", configPath)
	} else {
		fmt.Fprintln(out, "No config file loaded; values come from defaults and environment.")
	}
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "%s: %s\n", config.KeyJiraURL, cfg.Jira.URL)
	fmt.Fprintf(out, "%s: %s\n", config.KeyJiraUsername, cfg.Jira.Username)
	fmt.Fprintf(out, "%s: %s\n", config.KeyJiraPassword, maskSecret(cfg.Jira.Password))
	for i, pattern := range cfg.Jira.IssuePatterns {
		fmt.Fprintf(out, "%s[%d]: %s\n", config.KeyJiraIssuePatterns, i, pattern)
	}
	fmt.Fprintf(out, "%s: %s\n", config.KeyJiraConnectTimeout, cfg.Jira.ConnectTimeout)
	fmt.Fprintf(out, "%s: %s\n", config.KeyJiraReadTimeout, cfg.Jira.ReadTimeout)
	fmt.Fprintf(out, "%s: %s\n", config.KeyWorkTrailURL, cfg.WorkTrail.URL)
	fmt.Fprintf(out, "%s: %s\n", config.KeyWorkTrailAppKey, maskSecret(cfg.WorkTrail.AppKey))
	fmt.Fprintf(out, "%s: %s\n", config.KeyWorkTrailAuthToken, maskSecret(cfg.WorkTrail.AuthToken))
	fmt.Fprintf(out, "%s: %s\n", config.KeySyncPrefix, cfg.Sync.Prefix)
	fmt.Fprintf(out, "%s: %s\n", config.KeySyncStateDir, cfg.Sync.StateDir)
	fmt.Fprintf(out, "%s: %s\n", config.KeySyncStore, cfg.Sync.Store)
	fmt.Fprintf(out, "%s: %s\n", config.KeySyncEmails, strings.Join(cfg.EligibleEmails(), ", "))
	fmt.Fprintf(out, "%s: %s\n", config.KeyLogLevel, cfg.Log.Level)
	fmt.Fprintf(out, "%s: %s\n", config.KeyLogFile, cfg.Log.File)
}

func maskSecret(value string) string {
	if value == "" {
		return "(not set)"
	}
	return "********"
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
