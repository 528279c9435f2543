package extract

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/config"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/corpus"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/ledger"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/store"
)

// PapersOptions controls one Papers-dump extraction run.
type PapersOptions struct {
	// Start and End bound the dump shard files processed, as a
	// half-open index range into the sorted shard list. End <= 0 means
	// all shards from Start.
	Start int
	End   int

	// BatchSize overrides the configured store write batch size when
	// positive.
	BatchSize int

	// DeleteShards removes each dump shard file after processing.
	DeleteShards bool
}

// ExtractPapers streams every Papers dump shard into the partitioned
// corpus as per-paper metadata files. Papers never seen during S2ORC
// extraction are recorded in the missing-from-S2ORC ledger and still
// extracted, so the metadata tree is a superset of the full-text tree.
func ExtractPapers(cfg *config.Config, st store.Store, opts PapersOptions, log zerolog.Logger) (Stats, error) {
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

	missing, err := ledger.Open(ledger.MissingPath(cfg.DatasetsPath()))
	if err != nil {
		return stats, err
	}
	defer missing.Close()

	shards, err := papersShards(cfg.PapersDBPath())
	if err != nil {
		return stats, err
	}
	shards = clampShards(shards, opts.Start, opts.End)

	batchSize := cfg.WriteBatchSize
	if opts.BatchSize > 0 {
		batchSize = opts.BatchSize
	}
	batch := store.NewBatchWriter(st, batchSize)
	for _, path := range shards {
		if err := extractPapersShard(path, batch, aclIDs, otherIDs, missing, &stats, log); err != nil {
			return stats, fmt.Errorf("extracting shard %s: %w", filepath.Base(path), err)
		}
		// Flush at shard boundaries so a restart after a crash loses at
		// most one shard of queued writes.
		if err := batch.Flush(); err != nil {
			return stats, err
		}
		stats.Shards++

		if opts.DeleteShards {
			if err := os.Remove(path); err != nil {
				return stats, fmt.Errorf("removing shard: %w", err)
			}
		}
	}

	stats.Written = batch.Written()
	return stats, nil
}

// papersShards lists the dump shard files in dir in sorted order.
func papersShards(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing papers dump: %w", err)
	}

	var shards []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		shards = append(shards, filepath.Join(dir, e.Name()))
	}
	sort.Strings(shards)
	return shards, nil
}

// clampShards applies a half-open [start, end) index range to the sorted
// shard list. end <= 0 selects everything from start.
func clampShards(shards []string, start, end int) []string {
	if start < 0 {
		start = 0
	}
	if start > len(shards) {
		start = len(shards)
	}
	if end <= 0 || end > len(shards) {
		end = len(shards)
	}
	if end < start {
		end = start
	}
	return shards[start:end]
}

func extractPapersShard(path string, batch *store.BatchWriter, aclIDs, otherIDs, missing *ledger.Ledger, stats *Stats, log zerolog.Logger) error {
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

		rec, err := ParsePapersRecord(line)
		if err != nil || rec.CorpusID == "" {
			stats.Failed++
			log.Warn().Err(err).Msg("skipping malformed record")
			continue
		}

		id := string(rec.CorpusID)

		// Partition placement follows the corpus-ID ledgers so metadata
		// always lands next to the S2ORC file. A paper the S2ORC pass
		// never saw is classified by this record's own ACL ID and
		// ledgered as missing so downstream stages know there is no full
		// text for it.
		isACL := aclIDs.Contains(id)
		if !isACL && !otherIDs.Contains(id) {
			if err := missing.Add(id); err != nil {
				return err
			}
			isACL = rec.IsACL()
			target := otherIDs
			if isACL {
				target = aclIDs
			}
			if err := target.Add(id); err != nil {
				return err
			}
		}

		var full map[string]any
		if err := json.Unmarshal(line, &full); err != nil {
			stats.Failed++
			log.Warn().Err(err).Str("corpusID", id).Msg("skipping undecodable record")
			continue
		}

		dest := store.MetadataFile(corpus.PartitionFor(isACL), id)
		if err := batch.Queue(dest, full); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading shard: %w", err)
	}
	return nil
}
