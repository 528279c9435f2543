package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/corpus"
)

func TestLoadSaveRoundTrip(t *testing.T) {
	root := t.TempDir()

	cfg := Default(root)
	cfg.NLPThreshold = 0.3
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(root)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Release != DefaultRelease {
		t.Errorf("Release = %q, want %q", loaded.Release, DefaultRelease)
	}
	if loaded.NLPThreshold != 0.3 {
		t.Errorf("NLPThreshold = %v, want 0.3", loaded.NLPThreshold)
	}
	if loaded.Root != root {
		t.Errorf("Root = %q, want %q", loaded.Root, root)
	}
}

func TestLoadMissingConfigFails(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load() on empty dir should fail")
	}
}

func TestValidateRejectsBadRanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero rate", func(c *Config) { c.RequestsPerSecond = 0 }},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }},
		{"zero batch", func(c *Config) { c.WriteBatchSize = 0 }},
		{"threshold above one", func(c *Config) { c.NLPThreshold = 1.5 }},
		{"negative threshold", func(c *Config) { c.NLPThreshold = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should reject out-of-range value")
			}
		})
	}
}

func TestPartitionPaths(t *testing.T) {
	cfg := Default("/corpora")
	if got := cfg.PartitionPath(corpus.PartitionACL); got != filepath.Join("/corpora", "subcorpus_a") {
		t.Errorf("PartitionPath = %q", got)
	}
	if got := cfg.S2ORCPath(); got != filepath.Join("/corpora", "datasets", "s2orc") {
		t.Errorf("S2ORCPath = %q", got)
	}
}

func TestLoadJobs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, JobsFile)

	content := `jobs:
  - name: low
    start: 0
    end: 5000
  - name: high
    start: 5000
    end: 10000
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadJobs(path)
	if err != nil {
		t.Fatalf("LoadJobs() error = %v", err)
	}
	if len(cfg.Jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(cfg.Jobs))
	}
}

func TestLoadJobsRejectsOverlap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, JobsFile)

	content := `jobs:
  - name: a
    start: 0
    end: 6000
  - name: b
    start: 5000
    end: 10000
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadJobs(path); err == nil {
		t.Error("LoadJobs() should reject overlapping ranges")
	}
}
