package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"worklogsync/config"
)

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the active config in an editor and check it.",
	Long: `Open the active worklogsync config file in your editor.

Editor selection order:
1) $VISUAL
2) $EDITOR
3) vi

If no config file exists yet, the example template is written first.
After the editor exits the file is validated. On success the issue patterns
are listed in match order together with the eligible emails and the state
location; on failure the keys that are still empty are listed.`,
	Example: `
  # Edit active config
  worklogsync config edit
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}
		editor := resolveEditorValue(os.Getenv("VISUAL"), os.Getenv("EDITOR"))
		return editConfigFile(os.Stdin, os.Stdout, os.Stderr, configPath, editor)
	},
}

func editConfigFile(in io.Reader, out, errOut io.Writer, configPath, editor string) error {
	created, err := writeConfigIfMissing(configPath, config.ExampleYAML())
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "No config file found. Created example config at: %s\n", configPath)
	}

	editorCommand, err := buildEditorCommand(editor, configPath)
	if err != nil {
		return err
	}
	editorCommand.Stdin = in
	editorCommand.Stdout = out
	editorCommand.Stderr = errOut
	if err := editorCommand.Run(); err != nil {
		return fmt.Errorf("opening editor failed: %w", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("reading edited config failed: %w", err)
	}
	return describeEditedConfig(out, configPath, content)
}

// describeEditedConfig validates content and reports what a sync pass will use.
func describeEditedConfig(out io.Writer, configPath string, content []byte) error {
	cfg, err := config.ValidateYAMLContent(content)
	if err != nil {
		if missing, missingErr := config.MissingKeys(content); missingErr == nil && len(missing) > 0 {
			fmt.Fprintf(out, "Keys without a value: %s\n", strings.Join(missing, ", "))
		}
		return fmt.Errorf("config validation failed in %s: %w", configPath, err)
	}

	fmt.Fprintf(out, "Configuration saved and validated: %s\n", configPath)
	fmt.Fprintln(out, "Issue patterns (first match wins):")
	for i, matcher := range cfg.IssueMatchers {
		fmt.Fprintf(out, "  %d. %s\n", i+1, matcher.String())
	}
	fmt.Fprintf(out, "Eligible emails: %s\n", strings.Join(cfg.EligibleEmails(), ", "))
	fmt.Fprintf(out, "State: prefix %s, %s store in %s\n", cfg.Sync.Prefix, cfg.Sync.Store, cfg.Sync.StateDir)
	return nil
}

func resolveConfigEditPath(configFileFlag, configFileUsed string) (string, error) {
	if strings.TrimSpace(configFileFlag) != "" {
		return configFileFlag, nil
	}
	if strings.TrimSpace(configFileUsed) != "" {
		return configFileUsed, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, configName+".yaml"), nil
}

func resolveEditorValue(candidates ...string) string {
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return "vi"
}

func buildEditorCommand(editorValue, configPath string) (*exec.Cmd, error) {
	fields := strings.Fields(strings.TrimSpace(editorValue))
	if len(fields) == 0 {
		return nil, fmt.Errorf("editor command is empty")
	}

	args := append(fields[1:], configPath)
	return exec.Command(fields[0], args...), nil
}

func init() {
	configCmd.AddCommand(configEditCmd)
}
