package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/szaher/exlang/internal/optimizer/dynamic"
)

// ---------------------------------------------------------------------------
// Parse
// ---------------------------------------------------------------------------

func TestParse_FullConfig(t *testing.T) {
	c, err := Parse([]byte(`
tenuring_threshold: 10
time_window: 250ms
tenure_limit: 100
default_tier: safe
log_level: debug
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.TenuringThreshold != 10 {
		t.Errorf("threshold: got %d, want 10", c.TenuringThreshold)
	}
	if c.TimeWindow != 250*time.Millisecond {
		t.Errorf("window: got %v, want 250ms", c.TimeWindow)
	}
	if c.TenureLimit != 100 {
		t.Errorf("limit: got %d, want 100", c.TenureLimit)
	}
	if c.DefaultTier != "safe" {
		t.Errorf("tier: got %q, want safe", c.DefaultTier)
	}
	if c.LogLevel != "debug" {
		t.Errorf("log level: got %q, want debug", c.LogLevel)
	}
}

func TestParse_UnsetFieldsKeepDefaults(t *testing.T) {
	c, err := Parse([]byte(`tenure_limit: 10`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.TenuringThreshold != dynamic.DefaultTenuringThreshold {
		t.Errorf("threshold: got %d, want default", c.TenuringThreshold)
	}
	if c.TimeWindow != dynamic.DefaultTimeWindow {
		t.Errorf("window: got %v, want default", c.TimeWindow)
	}
	if c.TenureLimit != 10 {
		t.Errorf("limit: got %d, want 10", c.TenureLimit)
	}
}

func TestParse_BadDuration(t *testing.T) {
	if _, err := Parse([]byte(`time_window: soon`)); err == nil {
		t.Fatal("expected error for a malformed duration")
	}
}

func TestParse_BadYAML(t *testing.T) {
	if _, err := Parse([]byte("tenure_limit: [")); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}, wantErr: false},
		{name: "negative threshold", mutate: func(c *Config) { c.TenuringThreshold = -1 }, wantErr: true},
		{name: "zero window", mutate: func(c *Config) { c.TimeWindow = 0 }, wantErr: true},
		{name: "zero limit", mutate: func(c *Config) { c.TenureLimit = 0 }, wantErr: true},
		{name: "unknown tier", mutate: func(c *Config) { c.DefaultTier = "bogus" }, wantErr: true},
		{name: "dynamic tier", mutate: func(c *Config) { c.DefaultTier = dynamic.TierName }, wantErr: false},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "chatty" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Load / Apply
// ---------------------------------------------------------------------------

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exlang.yaml")
	if err := os.WriteFile(path, []byte("tenuring_threshold: 7\ntime_window: 50ms\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.TenuringThreshold != 7 || c.TimeWindow != 50*time.Millisecond {
		t.Errorf("got %+v", c)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestApply_ConfiguresPolicy(t *testing.T) {
	c := Default()
	c.TenuringThreshold = 3
	c.TimeWindow = time.Second
	c.TenureLimit = 9

	p := dynamic.New()
	c.Apply(p)
	if p.TenuringThreshold() != 3 {
		t.Errorf("threshold: got %d, want 3", p.TenuringThreshold())
	}
	if p.TimeWindow() != time.Second {
		t.Errorf("window: got %v, want 1s", p.TimeWindow())
	}
}
