package config

import (
	"reflect"
	"strings"
	"testing"
)

func TestTemplateYAML_SeedsSyncSettings(t *testing.T) {
	t.Parallel()

	content := TemplateYAML(Seed{
		JiraURL:       "https://acme.atlassian.net",
		JiraUsername:  "sync-bot",
		IssuePatterns: []string{`(OPS-\d{1,5})`, " "},
		Prefix:        "acme",
		Store:         "SQLite",
		Emails:        []string{"alice@example.com", "Bob@Example.com"},
	})

	missing, err := MissingKeys([]byte(content))
	if err != nil {
		t.Fatalf("seeded template is not readable: %v", err)
	}
	want := []string{KeyJiraPassword, KeyWorkTrailAppKey, KeyWorkTrailAuthToken}
	if !reflect.DeepEqual(missing, want) {
		t.Fatalf("expected only credentials to be missing, got %v", missing)
	}

	filled := strings.NewReplacer(
		`password: ""`, `password: "secret"`,
		`app_key: ""`, `app_key: "app"`,
		`auth_token: ""`, `auth_token: "token"`,
	).Replace(content)
	cfg, err := ValidateYAMLContent([]byte(filled))
	if err != nil {
		t.Fatalf("expected seeded template with credentials to validate: %v", err)
	}
	if cfg.Sync.Prefix != "acme" || cfg.Sync.Store != StoreSQLite {
		t.Fatalf("unexpected sync settings: %+v", cfg.Sync)
	}
	if got := cfg.EligibleEmails(); !reflect.DeepEqual(got, []string{"alice@example.com", "bob@example.com"}) {
		t.Fatalf("unexpected eligible emails: %v", got)
	}
	if len(cfg.IssueMatchers) != 1 || !cfg.IssueMatchers[0].MatchString("ops-12345") {
		t.Fatalf("expected the seeded pattern only, got %v", cfg.IssueMatchers)
	}
}

func TestMissingKeys_DefaultTemplate(t *testing.T) {
	t.Parallel()

	missing, err := MissingKeys([]byte(ExampleYAML()))
	if err != nil {
		t.Fatalf("template is not valid YAML: %v", err)
	}
	want := []string{KeyJiraUsername, KeyJiraPassword, KeyWorkTrailAppKey, KeyWorkTrailAuthToken, KeySyncEmails}
	if !reflect.DeepEqual(missing, want) {
		t.Fatalf("expected %v, got %v", want, missing)
	}
	if !strings.Contains(ExampleYAML(), `- "(WT-\\d+)"`) {
		t.Fatalf("expected default patterns in template:\n%s", ExampleYAML())
	}
}

func TestMissingKeys_RejectsBrokenYAML(t *testing.T) {
	t.Parallel()

	if _, err := MissingKeys([]byte("jira: [unterminated")); err == nil {
		t.Fatalf("expected invalid YAML to fail")
	}
}
