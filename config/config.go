package config

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"worklogsync/worklog"
)

const (
	KeyJiraURL            = "jira.url"
	KeyJiraUsername       = "jira.username"
	KeyJiraPassword       = "jira.password"
	KeyJiraIssuePatterns  = "jira.issue_patterns"
	KeyJiraConnectTimeout = "jira.connect_timeout"
	KeyJiraReadTimeout    = "jira.read_timeout"
	KeyWorkTrailURL       = "worktrail.url"
	KeyWorkTrailAppKey    = "worktrail.app_key"
	KeyWorkTrailAuthToken = "worktrail.auth_token"
	KeySyncPrefix         = "sync.prefix"
	KeySyncStateDir       = "sync.state_dir"
	KeySyncStore          = "sync.store"
	KeySyncEmails         = "sync.emails"
	KeyLogLevel           = "log.level"
	KeyLogFile            = "log.file"
)

const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

type Config struct {
	Jira      JiraConfig      `mapstructure:"jira" validate:"required"`
	WorkTrail WorkTrailConfig `mapstructure:"worktrail" validate:"required"`
	Sync      SyncConfig      `mapstructure:"sync" validate:"required"`
	Log       LogConfig       `mapstructure:"log"`

	// Compiled from Jira.IssuePatterns during validation (not loaded from config).
	IssueMatchers []*regexp.Regexp `mapstructure:"-"`
}

type JiraConfig struct {
	URL            string        `mapstructure:"url" validate:"required,url"`
	Username       string        `mapstructure:"username" validate:"required"`
	Password       string        `mapstructure:"password" validate:"required"`
	IssuePatterns  []string      `mapstructure:"issue_patterns" validate:"required,min=1,dive,required"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"gte=0"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
}

type WorkTrailConfig struct {
	URL       string `mapstructure:"url" validate:"required,url"`
	AppKey    string `mapstructure:"app_key" validate:"required"`
	AuthToken string `mapstructure:"auth_token" validate:"required"`
}

type SyncConfig struct {
	Prefix   string   `mapstructure:"prefix" validate:"required"`
	StateDir string   `mapstructure:"state_dir"`
	Store    string   `mapstructure:"store" validate:"oneof=json sqlite"`
	Emails   []string `mapstructure:"emails" validate:"required,min=1"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// EligibleEmails returns the trimmed, lower-cased allow-list without empty values.
func (c Config) EligibleEmails() []string {
	out := make([]string, 0, len(c.Sync.Emails))
	for _, raw := range c.Sync.Emails {
		for _, part := range strings.Split(raw, ",") {
			if email := worklog.NormalizeEmail(part); email != "" {
				out = append(out, email)
			}
		}
	}
	return out
}

// CompileIssuePatterns compiles patterns case-insensitively, preserving order.
func CompileIssuePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for i, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			return nil, fmt.Errorf("validation failed: jira.issue_patterns[%d] is empty", i)
		}
		compiled, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("validation failed: jira.issue_patterns[%d] %q: %w", i, pattern, err)
		}
		if compiled.NumSubexp() != 1 {
			return nil, fmt.Errorf(
				"validation failed: jira.issue_patterns[%d] %q must have exactly one capture group (found %d)",
				i,
				pattern,
				compiled.NumSubexp(),
			)
		}
		out = append(out, compiled)
	}
	return out, nil
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	normalizeIssuePatterns(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Sync.Store = strings.ToLower(strings.TrimSpace(cfg.Sync.Store))

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if len(cfg.EligibleEmails()) == 0 {
		return nil, fmt.Errorf("validation failed: sync.emails must list at least one email")
	}

	matchers, err := CompileIssuePatterns(cfg.Jira.IssuePatterns)
	if err != nil {
		return nil, err
	}
	cfg.IssueMatchers = matchers

	return &cfg, nil
}

// normalizeIssuePatterns turns a scalar value (JIRA_ISSUE_PATTERNS or a YAML
// string) into one pattern per line. Commas stay inside the pattern so that
// quantifiers like {1,5} survive the decoder's comma splitting.
func normalizeIssuePatterns(v *viper.Viper) {
	raw, ok := v.Get(KeyJiraIssuePatterns).(string)
	if !ok {
		return
	}
	patterns := make([]string, 0)
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			patterns = append(patterns, line)
		}
	}
	v.Set(KeyJiraIssuePatterns, patterns)
}

func setDefaults(v *viper.Viper) {
	// Empty defaults keep the keys known to viper so environment overrides apply.
	v.SetDefault(KeyJiraURL, "")
	v.SetDefault(KeyJiraUsername, "")
	v.SetDefault(KeyJiraPassword, "")
	v.SetDefault(KeyJiraIssuePatterns, []string{})
	v.SetDefault(KeyJiraConnectTimeout, 5*time.Second)
	v.SetDefault(KeyJiraReadTimeout, 20*time.Second)
	v.SetDefault(KeyWorkTrailURL, "https://worktrail.net")
	v.SetDefault(KeyWorkTrailAppKey, "")
	v.SetDefault(KeyWorkTrailAuthToken, "")
	v.SetDefault(KeySyncPrefix, "")
	v.SetDefault(KeySyncStateDir, ".")
	v.SetDefault(KeySyncStore, StoreJSON)
	v.SetDefault(KeySyncEmails, []string{})
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
}
