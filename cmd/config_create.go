package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"worklogsync/config"
)

var createSeed config.Seed

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configuration file, optionally seeded with sync settings.",
	Long: `Create a new configuration file from the example template.

Flags seed the Jira/WorkTrail endpoints, the state prefix and store, the
eligible employee emails and the issue patterns. Credentials are never taken
from flags; the command lists the keys that still need a value.

An existing configuration file is never overwritten.`,
	Example: `
  # Create default config at $HOME/.worklogsync.yaml
  worklogsync config create

  # Seed prefix, emails and a pattern with a quantifier
  worklogsync config create --prefix acme --email alice@example.com --email bob@example.com \
    --issue-pattern '(OPS-\d{1,5})'
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}
		_, err = createConfigFile(os.Stdout, configPath, createSeed)
		return err
	},
}

func createConfigFile(out io.Writer, path string, seed config.Seed) (bool, error) {
	store := strings.ToLower(strings.TrimSpace(seed.Store))
	if store != "" && store != config.StoreJSON && store != config.StoreSQLite {
		return false, fmt.Errorf("unsupported store %q (supported: json, sqlite)", seed.Store)
	}

	content := config.TemplateYAML(seed)
	created, err := writeConfigIfMissing(path, content)
	if err != nil {
		return false, err
	}
	if !created {
		fmt.Fprintf(out, "Config file already exists at: %s\n", path)
		return false, nil
	}

	fmt.Fprintf(out, "New config file created at: %s\n", path)
	missing, err := config.MissingKeys([]byte(content))
	if err != nil {
		return true, err
	}
	if len(missing) > 0 {
		fmt.Fprintf(out, "Still to fill in before syncing: %s\n", strings.Join(missing, ", "))
	}
	return true, nil
}

// writeConfigIfMissing writes content to path unless a file is already there.
func writeConfigIfMissing(path, content string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking config file failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating config directory failed: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return false, fmt.Errorf("creating config file failed: %w", err)
	}
	return true, nil
}

func init() {
	configCmd.AddCommand(configCreateCmd)

	flags := configCreateCmd.Flags()
	flags.StringVar(&createSeed.JiraURL, "jira-url", "", "Jira base URL")
	flags.StringVar(&createSeed.JiraUsername, "jira-user", "", "Jira username")
	flags.StringArrayVar(&createSeed.IssuePatterns, "issue-pattern", nil, "Issue pattern with one capture group (repeatable, kept in order)")
	flags.StringVar(&createSeed.WorkTrailURL, "worktrail-url", "", "WorkTrail base URL")
	flags.StringVar(&createSeed.Prefix, "prefix", "", "State prefix")
	flags.StringVar(&createSeed.StateDir, "state-dir", "", "Directory for state files")
	flags.StringVar(&createSeed.Store, "store", "", "State store: json or sqlite")
	flags.StringSliceVar(&createSeed.Emails, "email", nil, "Eligible employee email (repeatable or comma separated)")
}
