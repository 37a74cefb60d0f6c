package config

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Seed holds values written into a new config file instead of the template defaults.
type Seed struct {
	JiraURL       string
	JiraUsername  string
	IssuePatterns []string
	WorkTrailURL  string
	Prefix        string
	StateDir      string
	Store         string
	Emails        []string
}

var defaultSeed = Seed{
	JiraURL:       "https://jira.example.com",
	IssuePatterns: []string{`(WT-\d+)`, `(DEV-\d+)`},
	WorkTrailURL:  "https://worktrail.net",
	Prefix:        "default",
	StateDir:      ".",
	Store:         StoreJSON,
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return TemplateYAML(Seed{})
}

// TemplateYAML renders the commented configuration template. Empty seed
// fields keep their template defaults.
func TemplateYAML(seed Seed) string {
	seed = seed.withDefaults()

	var b strings.Builder
	b.WriteString("# worklogsync configuration\n")
	b.WriteString("jira:\n")
	fmt.Fprintf(&b, "  url: %s\n", quote(seed.JiraURL))
	fmt.Fprintf(&b, "  username: %s\n", quote(seed.JiraUsername))
	b.WriteString("  password: \"\"\n")
	b.WriteString("  # Ordered, case-insensitive; each needs exactly one capture group yielding the issue key.\n")
	b.WriteString("  # JIRA_ISSUE_PATTERNS overrides this list with one pattern per line.\n")
	b.WriteString("  issue_patterns:\n")
	for _, pattern := range seed.IssuePatterns {
		fmt.Fprintf(&b, "    - %s\n", quote(pattern))
	}
	b.WriteString("  connect_timeout: 5s\n")
	b.WriteString("  read_timeout: 20s\n")
	b.WriteString("\nworktrail:\n")
	fmt.Fprintf(&b, "  url: %s\n", quote(seed.WorkTrailURL))
	b.WriteString("  app_key: \"\"\n")
	b.WriteString("  auth_token: \"\"\n")
	b.WriteString("\nsync:\n")
	fmt.Fprintf(&b, "  prefix: %s\n", quote(seed.Prefix))
	fmt.Fprintf(&b, "  state_dir: %s\n", quote(seed.StateDir))
	fmt.Fprintf(&b, "  store: %s\n", quote(seed.Store))
	b.WriteString("  # Comma separated list of employee emails to sync.\n")
	fmt.Fprintf(&b, "  emails: %s\n", quote(strings.Join(seed.Emails, ", ")))
	b.WriteString("\nlog:\n")
	b.WriteString("  level: \"info\"\n")
	b.WriteString("  file: \"\"\n")
	return b.String()
}

func (s Seed) withDefaults() Seed {
	out := Seed{
		JiraURL:       firstNonEmpty(s.JiraURL, defaultSeed.JiraURL),
		JiraUsername:  strings.TrimSpace(s.JiraUsername),
		IssuePatterns: nonEmpty(s.IssuePatterns),
		WorkTrailURL:  firstNonEmpty(s.WorkTrailURL, defaultSeed.WorkTrailURL),
		Prefix:        firstNonEmpty(s.Prefix, defaultSeed.Prefix),
		StateDir:      firstNonEmpty(s.StateDir, defaultSeed.StateDir),
		Store:         strings.ToLower(firstNonEmpty(s.Store, defaultSeed.Store)),
		Emails:        nonEmpty(s.Emails),
	}
	if len(out.IssuePatterns) == 0 {
		out.IssuePatterns = defaultSeed.IssuePatterns
	}
	return out
}

// MissingKeys lists the required keys that content leaves empty, in file order.
func MissingKeys(content []byte) ([]string, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	normalizeIssuePatterns(local)

	var cfg Config
	if err := local.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	checks := []struct {
		key   string
		empty bool
	}{
		{KeyJiraURL, strings.TrimSpace(cfg.Jira.URL) == ""},
		{KeyJiraUsername, strings.TrimSpace(cfg.Jira.Username) == ""},
		{KeyJiraPassword, cfg.Jira.Password == ""},
		{KeyJiraIssuePatterns, len(nonEmpty(cfg.Jira.IssuePatterns)) == 0},
		{KeyWorkTrailURL, strings.TrimSpace(cfg.WorkTrail.URL) == ""},
		{KeyWorkTrailAppKey, cfg.WorkTrail.AppKey == ""},
		{KeyWorkTrailAuthToken, cfg.WorkTrail.AuthToken == ""},
		{KeySyncPrefix, strings.TrimSpace(cfg.Sync.Prefix) == ""},
		{KeySyncEmails, len(cfg.EligibleEmails()) == 0},
	}
	missing := make([]string, 0)
	for _, check := range checks {
		if check.empty {
			missing = append(missing, check.key)
		}
	}
	return missing, nil
}

// quote renders a YAML double-quoted scalar.
func quote(value string) string {
	return strconv.Quote(value)
}

func firstNonEmpty(value, fallback string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return fallback
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}
