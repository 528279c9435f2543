package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// JobRange declares the shard subdirectory range [start, end) one job
// instance owns. Extraction and matching jobs over disjoint ranges may run
// concurrently; two instances must never share a range.
type JobRange struct {
	Name  string `yaml:"name" json:"name"`
	Start int    `yaml:"start" json:"start"`
	End   int    `yaml:"end" json:"end"`
}

// JobsConfig is the operator-maintained jobs.yml declaring how a large run
// is split across independent job instances.
type JobsConfig struct {
	Jobs []JobRange `yaml:"jobs"`
}

// LoadJobs reads and validates jobs.yml from the given path.
func LoadJobs(path string) (*JobsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg JobsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if len(cfg.Jobs) == 0 {
		return nil, fmt.Errorf("jobs.yml must define at least one job")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Find returns the job with the given name.
func (c *JobsConfig) Find(name string) (JobRange, bool) {
	for _, j := range c.Jobs {
		if j.Name == name {
			return j, true
		}
	}
	return JobRange{}, false
}

// Validate checks that every range is well-formed and that no two ranges
// overlap. Overlapping ranges would let two job instances write the same
// shard directories simultaneously.
func (c *JobsConfig) Validate() error {
	for i, j := range c.Jobs {
		if j.Name == "" {
			return fmt.Errorf("job %d must have a name", i+1)
		}
		if j.Start < 0 || j.End <= j.Start {
			return fmt.Errorf("job %q: range [%d, %d) is invalid", j.Name, j.Start, j.End)
		}
	}

	sorted := make([]JobRange, len(c.Jobs))
	copy(sorted, c.Jobs)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].Start < sorted[b].Start })

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.Start < prev.End {
			return fmt.Errorf("jobs %q and %q overlap: [%d, %d) and [%d, %d)",
				prev.Name, cur.Name, prev.Start, prev.End, cur.Start, cur.End)
		}
	}
	return nil
}
