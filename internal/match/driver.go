package match

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/config"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/corpus"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/extract"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/ledger"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/store"
)

// Driver walks a shard range of the extracted corpus and feeds every
// unresolved paper into the Matcher. Metadata records are preferred over
// S2ORC records since they carry dates and years; papers with only an
// empty full-text placeholder fall through the cascade to unfound.
type Driver struct {
	cfg *config.Config
	st  store.Store
	m   *Matcher
	log zerolog.Logger

	skipS2ORC bool
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// SkipS2ORCRecords makes the driver ignore papers that have only a
// full-text record, matching on metadata alone.
func SkipS2ORCRecords() DriverOption {
	return func(d *Driver) { d.skipS2ORC = true }
}

// NewDriver returns a Driver running m over the store.
func NewDriver(cfg *config.Config, st store.Store, m *Matcher, log zerolog.Logger, opts ...DriverOption) *Driver {
	d := &Driver{cfg: cfg, st: st, m: m, log: log}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run matches every unresolved paper whose shard prefix falls in
// [start, end), one partition at a time with a forced flush between them
// so no external call mixes papers from both partitions.
func (d *Driver) Run(ctx context.Context, start, end int) error {
	for _, p := range corpus.Partitions {
		if err := d.runPartition(ctx, p, start, end); err != nil {
			return err
		}
		if err := d.m.Flush(ctx); err != nil {
			return err
		}
		d.log.Info().Str("partition", string(p)).Msg("partition flushed")
	}
	return nil
}

func (d *Driver) runPartition(ctx context.Context, p corpus.Partition, start, end int) error {
	for shard := start; shard < end; shard++ {
		papers, err := d.st.List(store.ShardDir(p, strconv.Itoa(shard)))
		if err != nil {
			return err
		}
		for _, corpusID := range papers {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := d.enqueuePaper(ctx, p, corpusID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Driver) enqueuePaper(ctx context.Context, p corpus.Partition, corpusID string) error {
	if d.m.Resolved(corpusID) {
		return nil
	}

	files, err := d.st.List(store.PaperDir(p, corpusID))
	if err != nil {
		return err
	}

	var hasMetadata, hasS2ORC bool
	for _, f := range files {
		switch {
		case f == store.SentinelName:
			// Outcome already on disk from a run whose ledger is gone.
			return nil
		case IsWorkFile(f):
			return nil
		case f == corpusID+".json":
			hasMetadata = true
		case strings.HasPrefix(f, "s2orc-"):
			hasS2ORC = true
		}
	}

	var ids corpus.Identifiers
	switch {
	case hasMetadata:
		var rec extract.PapersRecord
		if err := d.st.ReadJSON(store.MetadataFile(p, corpusID), &rec); err != nil {
			return err
		}
		ids = rec.Identifiers()
	case hasS2ORC && !d.skipS2ORC:
		var rec extract.S2ORCRecord
		if err := d.st.ReadJSON(store.S2ORCFile(p, corpusID), &rec); err != nil {
			return err
		}
		ids = rec.Identifiers()
	default:
		if !hasS2ORC {
			d.log.Warn().Str("corpusID", corpusID).Msg("paper directory holds no records")
		}
		return nil
	}

	return d.m.Enqueue(ctx, p, corpusID, ids)
}

// IsWorkFile reports whether a paper-directory entry is a matched
// OpenAlex work record.
func IsWorkFile(name string) bool {
	return strings.HasPrefix(name, "W") && strings.HasSuffix(name, ".json")
}

// WriteWorkPaths walks both partitions and records the absolute path of
// every matched work file in the work-paths ledger, for author
// aggregation and collation to consume.
func WriteWorkPaths(cfg *config.Config, st store.Store) (int, error) {
	l, err := ledger.Open(ledger.WorkPathsPath(cfg.DatasetsPath()))
	if err != nil {
		return 0, err
	}
	defer l.Close()

	added := 0
	for _, p := range corpus.Partitions {
		shards, err := st.List(string(p))
		if err != nil {
			return added, err
		}
		for _, shard := range shards {
			papers, err := st.List(store.ShardDir(p, shard))
			if err != nil {
				return added, err
			}
			for _, corpusID := range papers {
				files, err := st.List(store.PaperDir(p, corpusID))
				if err != nil {
					return added, err
				}
				for _, f := range files {
					if !IsWorkFile(f) {
						continue
					}
					abs := st.Abs(store.PaperDir(p, corpusID) + "/" + f)
					if l.Contains(abs) {
						continue
					}
					if err := l.Add(abs); err != nil {
						return added, fmt.Errorf("recording work path: %w", err)
					}
					added++
				}
			}
		}
	}
	return added, nil
}
