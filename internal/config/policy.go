package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPolicyPath = "configs/policy.yaml"

type Policy struct {
	Filesystem FilesystemPolicy `yaml:"filesystem"`
	SQL        SQLPolicy        `yaml:"sql"`
	Search     SearchPolicy     `yaml:"search"`
	Fetch      FetchPolicy      `yaml:"fetch"`
}

type FilesystemPolicy struct {
	Root         string `yaml:"root"`
	MaxReadBytes int64  `yaml:"max_read_bytes"`
}

type SQLPolicy struct {
	// ReadOnly is a pointer so an omitted key can default to true.
	ReadOnly          *bool         `yaml:"read_only"`
	ForbiddenKeywords []string      `yaml:"forbidden_keywords"`
	QueryTimeout      time.Duration `yaml:"query_timeout"`
}

func (s SQLPolicy) IsReadOnly() bool {
	return s.ReadOnly == nil || *s.ReadOnly
}

type SearchPolicy struct {
	Enabled    *bool         `yaml:"enabled"`
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	RatePerMin int           `yaml:"rate_per_min"`
}

func (s SearchPolicy) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

type FetchPolicy struct {
	Timeout  time.Duration `yaml:"timeout"`
	MaxBytes int64         `yaml:"max_bytes"`
}

// DefaultPolicy is used when no policy file exists at the default path.
func DefaultPolicy() *Policy {
	p := &Policy{}
	applyDefaults(p)
	return p
}

// LoadPolicy reads the YAML policy named by POLICY_CONFIG_PATH, falling back
// to configs/policy.yaml. A missing default file yields defaults; a missing
// explicit file is an error.
func LoadPolicy() (*Policy, error) {
	path := os.Getenv("POLICY_CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = DefaultPolicyPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return DefaultPolicy(), nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var policy Policy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse YAML %s: %w", path, err)
	}

	applyDefaults(&policy)

	if err := policy.Validate(); err != nil {
		return nil, err
	}

	return &policy, nil
}

func applyDefaults(p *Policy) {
	if p.Filesystem.Root == "" {
		p.Filesystem.Root = "/data"
	}
	if p.Filesystem.MaxReadBytes == 0 {
		p.Filesystem.MaxReadBytes = 10 << 20
	}
	if p.SQL.ForbiddenKeywords == nil {
		p.SQL.ForbiddenKeywords = []string{"drop", "delete", "update", "insert"}
	}
	if p.SQL.QueryTimeout == 0 {
		p.SQL.QueryTimeout = 30 * time.Second
	}
	if p.Search.BaseURL == "" {
		p.Search.BaseURL = "https://html.duckduckgo.com/html/"
	}
	if p.Search.Timeout == 0 {
		p.Search.Timeout = 15 * time.Second
	}
	if p.Search.RatePerMin == 0 {
		p.Search.RatePerMin = 30
	}
	if p.Fetch.Timeout == 0 {
		p.Fetch.Timeout = 20 * time.Second
	}
	if p.Fetch.MaxBytes == 0 {
		p.Fetch.MaxBytes = 5 << 20
	}
}

func (p *Policy) Validate() error {
	if strings.TrimSpace(p.Filesystem.Root) == "" {
		return fmt.Errorf("filesystem.root is required")
	}
	if p.Filesystem.MaxReadBytes < 0 {
		return fmt.Errorf("filesystem.max_read_bytes must not be negative")
	}
	if p.SQL.QueryTimeout < 0 {
		return fmt.Errorf("sql.query_timeout must not be negative")
	}
	for _, kw := range p.SQL.ForbiddenKeywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("sql.forbidden_keywords contains an empty keyword")
		}
	}
	if p.SQL.IsReadOnly() && len(p.SQL.ForbiddenKeywords) == 0 {
		return fmt.Errorf("sql.read_only requires at least one forbidden keyword")
	}
	if p.Search.Timeout < 0 || p.Fetch.Timeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if p.Search.RatePerMin < 0 {
		return fmt.Errorf("search.rate_per_min must not be negative")
	}
	return nil
}
