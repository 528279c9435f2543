package authors

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/ledger"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/store"
)

// Stats summarizes one aggregation run.
type Stats struct {
	Papers  int `json:"papers"`
	Skipped int `json:"papers_skipped"`
	Failed  int `json:"papers_failed"`
	Authors int `json:"authors_updated"`
}

// workResult is one parsed work file: the paper it belongs to plus the
// author IDs it credits.
type workResult struct {
	corpusID string
	isACL    bool
	authors  []string
}

// Aggregator folds matched works into per-author records. Workers parse
// work files concurrently; all record mutation happens on the caller's
// goroutine, so author files never race.
type Aggregator struct {
	authors store.Store
	seen    *ledger.Ledger
	workers int
	log     zerolog.Logger
}

// NewAggregator returns an Aggregator writing author records into st,
// tracking processed papers in seen. workers <= 0 selects GOMAXPROCS.
func NewAggregator(st store.Store, seen *ledger.Ledger, workers int, log zerolog.Logger) *Aggregator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Aggregator{authors: st, seen: seen, workers: workers, log: log}
}

// Run aggregates the works at the given absolute paths. Papers already in
// the seen ledger are skipped, so rerunning over an overlapping path list
// never double-counts a contribution.
func (a *Aggregator) Run(ctx context.Context, paths []string) (Stats, error) {
	var stats Stats

	var todo []string
	for _, p := range paths {
		// Paper directories are named by CorpusID.
		if a.seen.Contains(filepath.Base(filepath.Dir(p))) {
			stats.Skipped++
			continue
		}
		todo = append(todo, p)
	}

	results := make(chan workResult)
	g, ctx := errgroup.WithContext(ctx)

	chunk := (len(todo) + a.workers - 1) / a.workers
	for start := 0; start < len(todo); start += chunk {
		end := start + chunk
		if end > len(todo) {
			end = len(todo)
		}
		part := todo[start:end]
		g.Go(func() error {
			for _, p := range part {
				res, err := parseWorkFile(p)
				if err != nil {
					a.log.Warn().Err(err).Str("path", p).Msg("skipping unreadable work")
					res = workResult{corpusID: ""}
				}
				select {
				case results <- res:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
		close(results)
	}()

	// Fold on this goroutine only.
	records := make(map[string]*Record)
	var processed []string
	for res := range results {
		if res.corpusID == "" {
			stats.Failed++
			continue
		}
		stats.Papers++
		processed = append(processed, res.corpusID)
		for _, id := range res.authors {
			rec, ok := records[id]
			if !ok {
				rec = &Record{}
				records[id] = rec
			}
			rec.Add(res.corpusID, res.isACL)
		}
	}
	if err := <-done; err != nil {
		return stats, err
	}

	if err := a.writeRecords(records, &stats); err != nil {
		return stats, err
	}

	// Mark papers seen only after their contributions are durable.
	for _, id := range processed {
		if err := a.seen.Add(id); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// writeRecords merges the folded records into the authors tree. Existing
// author files are unioned rather than replaced; this is the one place
// the corpus mutates a file in place.
func (a *Aggregator) writeRecords(records map[string]*Record, stats *Stats) error {
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		rec := records[id]
		path := store.AuthorFile(id)
		if a.authors.Exists(path) {
			var existing Record
			if err := a.authors.ReadJSON(path, &existing); err != nil {
				return fmt.Errorf("reading author %s: %w", id, err)
			}
			rec.Merge(existing)
		}
		if err := a.authors.PutJSON(path, rec); err != nil {
			return fmt.Errorf("writing author %s: %w", id, err)
		}
		stats.Authors++
	}
	return nil
}

func parseWorkFile(path string) (workResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return workResult{}, err
	}
	var w workAuthorships
	if err := json.Unmarshal(data, &w); err != nil {
		return workResult{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if w.CorpusID == "" {
		return workResult{}, fmt.Errorf("%s: missing corpusId", path)
	}
	return workResult{corpusID: w.CorpusID, isACL: w.IsACL, authors: w.authorIDs()}, nil
}
