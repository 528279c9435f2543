// Package config handles corpus configuration and on-disk layout.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/corpus"
)

// Config represents corpus configuration stored in <root>/corpus.json.
type Config struct {
	Root string `json:"-"` // Absolute path to the corpora root (not serialized)

	// Release pins the Semantic Scholar dataset release used for
	// downloads. Releases after 2024-01-02 drifted off-spec upstream.
	Release string `json:"release"`

	RequestsPerSecond float64 `json:"requests_per_second"` // OpenAlex rate limit
	MaxRetries        int     `json:"max_retries"`         // OpenAlex retry budget
	WriteBatchSize    int     `json:"write_batch_size"`    // files per store flush
	NLPThreshold      float64 `json:"nlp_threshold"`       // concept score cutoff for collation

	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"` // json or console
}

const (
	ConfigFile  = "corpus.json"
	JobsFile    = "jobs.yml"
	DatasetsDir = "datasets"
	S2ORCDir    = "s2orc"
	PapersDBDir = "s2_papers"
	CSVsDir     = "csvs"
	AuthorsDir  = "authors"
	CatalogFile = "catalog.db"

	DefaultRelease        = "2024-01-02"
	DefaultRate           = 10.0
	DefaultMaxRetries     = 5
	DefaultWriteBatchSize = 5000
)

// Default returns a Config with default settings rooted at the given path.
func Default(root string) *Config {
	return &Config{
		Root:              root,
		Release:           DefaultRelease,
		RequestsPerSecond: DefaultRate,
		MaxRetries:        DefaultMaxRetries,
		WriteBatchSize:    DefaultWriteBatchSize,
		NLPThreshold:      0.0,
		LogLevel:          "info",
		LogFormat:         "console",
	}
}

// ConfigPath returns the path to corpus.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, ConfigFile)
}

// JobsPath returns the path to jobs.yml from a root path.
func JobsPath(root string) string {
	return filepath.Join(root, JobsFile)
}

// DatasetsPath returns the directory holding downloaded dumps, ledgers,
// and CSVs.
func (c *Config) DatasetsPath() string {
	return filepath.Join(c.Root, DatasetsDir)
}

// S2ORCPath returns the directory holding S2ORC dump shard files.
func (c *Config) S2ORCPath() string {
	return filepath.Join(c.DatasetsPath(), S2ORCDir)
}

// PapersDBPath returns the directory holding Papers dump shard files.
func (c *Config) PapersDBPath() string {
	return filepath.Join(c.DatasetsPath(), PapersDBDir)
}

// CSVsPath returns the directory holding collated CSV output.
func (c *Config) CSVsPath() string {
	return filepath.Join(c.DatasetsPath(), CSVsDir)
}

// AuthorsPath returns the directory holding aggregated author records.
func (c *Config) AuthorsPath() string {
	return filepath.Join(c.Root, AuthorsDir)
}

// PartitionPath returns the root directory of one corpus partition tree.
func (c *Config) PartitionPath(p corpus.Partition) string {
	return filepath.Join(c.Root, string(p))
}

// CatalogPath returns the path of the ephemeral SQLite catalog.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.DatasetsPath(), CatalogFile)
}

// Load reads configuration from the corpora root. A missing or malformed
// config is a fail-fast error: every other component depends on the paths
// derived from it.
func Load(root string) (*Config, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	data, err := os.ReadFile(ConfigPath(abs))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default(abs)
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Root = abs

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to the corpora root.
func (c *Config) Save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(c.Root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks configuration ranges. Violations halt the run
// immediately rather than surfacing later as undefined behavior.
func (c *Config) Validate() error {
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive, got %v", c.RequestsPerSecond)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.WriteBatchSize < 1 {
		return fmt.Errorf("write_batch_size must be at least 1, got %d", c.WriteBatchSize)
	}
	if c.NLPThreshold < 0 || c.NLPThreshold > 1 {
		return fmt.Errorf("nlp_threshold must be between 0.0 and 1.0, got %v", c.NLPThreshold)
	}
	return nil
}
