package extract

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/config"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/corpus"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/ledger"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/store"
)

// MaxDumpLineCapacity bounds a single dump line. S2ORC full-text records
// routinely exceed the bufio default of 64KB.
const MaxDumpLineCapacity = 64 * 1024 * 1024

// S2ORCOptions controls one S2ORC extraction run.
type S2ORCOptions struct {
	// Start and End bound the dump shard files processed, as a
	// half-open index range [Start, End).
	Start int
	End   int

	// ExtractWorks writes full S2ORC records into the corpus. When
	// false only an empty placeholder file is written, which is enough
	// for the corpus-ID ledgers and for later metadata matching.
	ExtractWorks bool

	// DeleteShards removes each dump shard file after it has been
	// fully processed.
	DeleteShards bool
}

// S2ORCShardPath returns the path of dump shard i under dir.
func S2ORCShardPath(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("s2orc-%d.jsonl", i))
}

// Stats summarizes one extraction run.
type Stats struct {
	Shards  int `json:"shards"`
	Read    int `json:"records_read"`
	Written int `json:"records_written"`
	Skipped int `json:"records_skipped"`
	Failed  int `json:"records_failed"`
}

// ExtractS2ORC streams the S2ORC dump shards in [opts.Start, opts.End)
// into the partitioned corpus and appends every newly seen corpus ID to
// the matching corpus-ID ledger. Records already extracted are skipped,
// so interrupted runs can simply be restarted.
func ExtractS2ORC(cfg *config.Config, st store.Store, opts S2ORCOptions, log zerolog.Logger) (Stats, error) {
	var stats Stats

	aclIDs, err := ledger.Open(ledger.CorpusIDsPath(cfg.DatasetsPath(), true))
	if err != nil {
		return stats, err
	}
	defer aclIDs.Close()

	otherIDs, err := ledger.Open(ledger.CorpusIDsPath(cfg.DatasetsPath(), false))
	if err != nil {
		return stats, err
	}
	defer otherIDs.Close()

	for i := opts.Start; i < opts.End; i++ {
		path := S2ORCShardPath(cfg.S2ORCPath(), i)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			log.Debug().Str("shard", path).Msg("shard not present, skipping")
			continue
		}

		if err := extractS2ORCShard(cfg, st, path, opts, aclIDs, otherIDs, &stats, log); err != nil {
			return stats, fmt.Errorf("extracting shard %d: %w", i, err)
		}
		stats.Shards++

		if opts.DeleteShards {
			if err := os.Remove(path); err != nil {
				return stats, fmt.Errorf("removing shard %d: %w", i, err)
			}
		}
	}

	return stats, nil
}

func extractS2ORCShard(cfg *config.Config, st store.Store, path string, opts S2ORCOptions, aclIDs, otherIDs *ledger.Ledger, stats *Stats, log zerolog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening shard: %w", err)
	}
	defer f.Close()

	log.Info().Str("shard", filepath.Base(path)).Msg("extracting shard")
	bar := progressbar.Default(-1, filepath.Base(path))
	defer bar.Finish()

	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, MaxDumpLineCapacity)
	scanner.Buffer(buf, MaxDumpLineCapacity)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		stats.Read++
		bar.Add(1)

		rec, err := ParseS2ORCRecord(line)
		if err != nil || rec.CorpusID == "" {
			stats.Failed++
			log.Warn().Err(err).Msg("skipping malformed record")
			continue
		}

		id := string(rec.CorpusID)
		partition := corpus.PartitionFor(rec.IsACL())
		dest := store.S2ORCFile(partition, id)

		if st.Exists(dest) {
			stats.Skipped++
			continue
		}

		var payload any = map[string]any{}
		if opts.ExtractWorks {
			var full map[string]any
			if err := json.Unmarshal(line, &full); err != nil {
				stats.Failed++
				log.Warn().Err(err).Str("corpusID", id).Msg("skipping undecodable record")
				continue
			}
			payload = full
		}

		if err := st.PutJSON(dest, payload); err != nil {
			return fmt.Errorf("writing %s: %w", dest, err)
		}
		stats.Written++

		if rec.IsACL() {
			if err := aclIDs.Add(id); err != nil {
				return err
			}
		} else {
			if err := otherIDs.Add(id); err != nil {
				return err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading shard: %w", err)
	}
	return nil
}
