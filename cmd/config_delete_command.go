package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configDeleteYes bool

var configDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the active configuration file.",
	Long: `Delete the configuration file currently selected by worklogsync.

If no configuration file is active, the command returns an error.
State files and the sync ledger are never touched by this command.`,
	Example: `
  # Delete active config (asks for confirmation)
  worklogsync config delete

  # Delete config at a custom path without prompting
  worklogsync --configFile ./custom-worklogsync.yaml config delete --yes
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return deleteConfigFile(viper.ConfigFileUsed(), os.Stdin, os.Stdout, configDeleteYes)
	},
}

func deleteConfigFile(configPath string, in io.Reader, out io.Writer, assumeYes bool) error {
	if strings.TrimSpace(configPath) == "" {
		return fmt.Errorf("no configuration file found")
	}

	if !assumeYes {
		fmt.Fprintf(out, "Delete configuration file %s? [y/N]: ", configPath)
		answer, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("read confirmation: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
		default:
			fmt.Fprintln(out, "Aborted. Configuration file kept.")
			return nil
		}
	}

	if err := os.Remove(configPath); err != nil {
		return fmt.Errorf("error deleting configuration file: %w", err)
	}

	fmt.Fprintf(out, "Configuration file successfully deleted: %s\n", configPath)
	return nil
}

func init() {
	configCmd.AddCommand(configDeleteCmd)

	configDeleteCmd.Flags().BoolVarP(&configDeleteYes, "yes", "y", false, "Delete without asking for confirmation")
}
