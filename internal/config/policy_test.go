package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestLoadPolicy_Success(t *testing.T) {
	path := writePolicy(t, `filesystem:
  root: /srv/data
  max_read_bytes: 1024
sql:
  read_only: false
  forbidden_keywords: [drop, truncate]
  query_timeout: 5s
search:
  enabled: false
  rate_per_min: 10
fetch:
  timeout: 3s
`)
	t.Setenv("POLICY_CONFIG_PATH", path)

	p, err := LoadPolicy()
	if err != nil {
		t.Fatalf("LoadPolicy() failed: %v", err)
	}

	if p.Filesystem.Root != "/srv/data" {
		t.Errorf("Root: %q", p.Filesystem.Root)
	}
	if p.Filesystem.MaxReadBytes != 1024 {
		t.Errorf("MaxReadBytes: %d", p.Filesystem.MaxReadBytes)
	}
	if p.SQL.IsReadOnly() {
		t.Error("expected read_only=false")
	}
	if strings.Join(p.SQL.ForbiddenKeywords, ",") != "drop,truncate" {
		t.Errorf("ForbiddenKeywords: %v", p.SQL.ForbiddenKeywords)
	}
	if p.SQL.QueryTimeout != 5*time.Second {
		t.Errorf("QueryTimeout: %v", p.SQL.QueryTimeout)
	}
	if p.Search.IsEnabled() {
		t.Error("expected search disabled")
	}
	if p.Search.RatePerMin != 10 {
		t.Errorf("RatePerMin: %d", p.Search.RatePerMin)
	}
	// Defaults still fill what the file omits.
	if p.Search.BaseURL == "" || p.Fetch.MaxBytes == 0 {
		t.Error("expected defaults for omitted fields")
	}
	if p.Fetch.Timeout != 3*time.Second {
		t.Errorf("Fetch.Timeout: %v", p.Fetch.Timeout)
	}
}

func TestLoadPolicy_DefaultsWhenOmitted(t *testing.T) {
	t.Setenv("POLICY_CONFIG_PATH", writePolicy(t, "filesystem:\n  root: /data\n"))

	p, err := LoadPolicy()
	if err != nil {
		t.Fatalf("LoadPolicy() failed: %v", err)
	}
	if !p.SQL.IsReadOnly() {
		t.Error("read_only must default to true")
	}
	if len(p.SQL.ForbiddenKeywords) != 4 {
		t.Errorf("ForbiddenKeywords: %v, want the four defaults", p.SQL.ForbiddenKeywords)
	}
	if !p.Search.IsEnabled() {
		t.Error("search should default to enabled")
	}
}

func TestLoadPolicy_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Setenv("POLICY_CONFIG_PATH", "")
	t.Chdir(t.TempDir())

	p, err := LoadPolicy()
	if err != nil {
		t.Fatalf("LoadPolicy() failed: %v", err)
	}
	if p.Filesystem.Root != "/data" {
		t.Errorf("Root: %q, want /data", p.Filesystem.Root)
	}
}

func TestLoadPolicy_FileNotFound(t *testing.T) {
	t.Setenv("POLICY_CONFIG_PATH", "/nonexistent/path/policy.yaml")

	_, err := LoadPolicy()
	if err == nil {
		t.Fatal("Expected error for nonexistent config file")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Expected 'failed to read config file' error, got: %v", err)
	}
}

func TestLoadPolicy_InvalidYAML(t *testing.T) {
	t.Setenv("POLICY_CONFIG_PATH", writePolicy(t, "sql:\n  forbidden_keywords: [drop\n  read_only: maybe\n"))

	_, err := LoadPolicy()
	if err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse YAML") {
		t.Errorf("Expected 'failed to parse YAML' error, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	readOnly := true

	tests := []struct {
		name    string
		mutate  func(p *Policy)
		wantErr string
	}{
		{"valid defaults", func(p *Policy) {}, ""},
		{"empty root", func(p *Policy) { p.Filesystem.Root = " " }, "filesystem.root"},
		{"negative max read", func(p *Policy) { p.Filesystem.MaxReadBytes = -1 }, "max_read_bytes"},
		{"empty keyword", func(p *Policy) { p.SQL.ForbiddenKeywords = []string{"drop", ""} }, "empty keyword"},
		{"read only without keywords", func(p *Policy) {
			p.SQL.ReadOnly = &readOnly
			p.SQL.ForbiddenKeywords = []string{}
		}, "at least one forbidden keyword"},
		{"negative timeout", func(p *Policy) { p.SQL.QueryTimeout = -time.Second }, "query_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(p)

			err := p.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error: %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
