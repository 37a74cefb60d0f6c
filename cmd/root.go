/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"worklogsync/config"
)

const configName = ".worklogsync"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "worklogsync",
	Short: "Incrementally sync WorkTrail work entries into Jira worklogs.",
	Long: `
**********************************************
*              WORKLOG SYNC                  *
**********************************************

This CLI fetches work entries modified since the last run from WorkTrail,
matches their descriptions against Jira issue key patterns and creates one
Jira worklog per matched entry. A local ledger records every propagated entry,
so running the sync repeatedly never books the same entry twice.

State is kept per prefix in JSON files (default) or in a SQLite database.
`,
	Example: `
  # Create configuration file
  worklogsync config create

  # Preview what would be booked (no Jira writes, no state changes)
  worklogsync sync --dry-run

  # Run one sync pass for a given state prefix
  worklogsync sync --prefix acme

  # Show watermark, cached entries and ledger size
  worklogsync status

  # Export an audit report of all cached entries
  worklogsync export --output ./worklogs.xlsx
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !requiresConfig(cmd) {
			return nil
		}
		applyPrefixOverride(cmd)

		_, err := config.LoadAndValidate()
		return err
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.worklogsync.yaml, then ./.worklogsync.yaml)")
}

func requiresConfig(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}
	switch cmd.Name() {
	case "sync", "status", "export":
		return true
	default:
		return false
	}
}

// applyPrefixOverride lets --prefix take precedence over config and environment.
func applyPrefixOverride(cmd *cobra.Command) {
	flag := cmd.Flags().Lookup("prefix")
	if flag == nil || !flag.Changed {
		return
	}
	viper.Set(config.KeySyncPrefix, flag.Value.String())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".worklogsync" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(configName)
	}

	// JIRA_PASSWORD overrides jira.password and so on.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Create one first with: worklogsync config create")
	}
}
