package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"worklogsync/config"
)

func TestCreateConfigFile_SeedsSyncSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "worklogsync.yaml")

	var out bytes.Buffer
	created, err := createConfigFile(&out, path, config.Seed{
		Prefix:        "acme",
		Store:         "sqlite",
		Emails:        []string{"Alice@Example.com", "bob@example.com"},
		IssuePatterns: []string{`(OPS-\d{1,5})`},
	})
	if err != nil {
		t.Fatalf("create config: %v", err)
	}
	if !created {
		t.Fatalf("expected config file to be created")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read created config: %v", err)
	}
	for _, want := range []string{
		`prefix: "acme"`,
		`store: "sqlite"`,
		`emails: "Alice@Example.com, bob@example.com"`,
		`- "(OPS-\\d{1,5})"`,
	} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %s in created config:\n%s", want, content)
		}
	}
	if strings.Contains(string(content), "(WT-") {
		t.Fatalf("seeded patterns must replace the template patterns:\n%s", content)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected config file mode 0600, got %o", info.Mode().Perm())
	}

	text := out.String()
	if !strings.Contains(text, "New config file created at: "+path) {
		t.Fatalf("unexpected output:\n%s", text)
	}
	if !strings.Contains(text, "Still to fill in before syncing: jira.username, jira.password, worktrail.app_key, worktrail.auth_token") {
		t.Fatalf("expected missing credentials to be listed:\n%s", text)
	}
}

func TestCreateConfigFile_KeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "existing.yaml")
	original := "sync:\n  prefix: \"acme\"\n"
	if err := os.WriteFile(path, []byte(original), 0o644); err != nil {
		t.Fatalf("write existing config: %v", err)
	}

	var out bytes.Buffer
	created, err := createConfigFile(&out, path, config.Seed{Prefix: "other"})
	if err != nil {
		t.Fatalf("create config: %v", err)
	}
	if created {
		t.Fatalf("did not expect an existing file to be replaced")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if string(content) != original {
		t.Fatalf("expected existing config to remain unchanged, got:\n%s", content)
	}
	if !strings.Contains(out.String(), "already exists") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestCreateConfigFile_RejectsUnknownStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worklogsync.yaml")

	if _, err := createConfigFile(&bytes.Buffer{}, path, config.Seed{Store: "postgres"}); err == nil {
		t.Fatalf("expected unsupported store to fail")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file for a rejected seed, stat err=%v", err)
	}
}
