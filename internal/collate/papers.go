package collate

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/config"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/ledger"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/store"
)

// papersHeader is the column layout of papers.csv and its sub-CSVs.
var papersHeader = []string{
	"title", "corpus_id", "openalex_id", "author_ids", "venue",
	"is_acl", "is_nlp", "max_acl_contribs", "openalex_path", "s2orc_path",
}

// PapersCSVName is the merged, full-corpus papers table.
const PapersCSVName = "papers.csv"

// SubCSVName returns the per-job papers table name for a shard range.
func SubCSVName(start, end int) string {
	return fmt.Sprintf("papers_subcsv_%d-%d.csv", start, end)
}

// BuildPapersCSV writes one paper row for every matched work whose shard
// prefix falls in [start, end), reading work paths from the work-paths
// ledger. Author records supply max_acl_contribs: the largest ACL paper
// count among the work's authors. Returns the written CSV path.
func BuildPapersCSV(cfg *config.Config, authorsStore store.Store, start, end int, log zerolog.Logger) (string, error) {
	paths, err := ledger.ReadSet(ledger.WorkPathsPath(cfg.DatasetsPath()))
	if err != nil {
		return "", err
	}

	var selected []string
	for p := range paths {
		shard, ok := shardOf(p)
		if !ok {
			log.Warn().Str("path", p).Msg("skipping unparseable work path")
			continue
		}
		if shard >= start && shard < end {
			selected = append(selected, p)
		}
	}
	sort.Strings(selected)

	if err := os.MkdirAll(cfg.CSVsPath(), 0755); err != nil {
		return "", fmt.Errorf("creating CSV directory: %w", err)
	}
	out := filepath.Join(cfg.CSVsPath(), SubCSVName(start, end))

	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", out, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(papersHeader); err != nil {
		return "", err
	}

	for _, p := range selected {
		row, err := paperRow(cfg, authorsStore, p)
		if err != nil {
			log.Warn().Err(err).Str("path", p).Msg("skipping work")
			continue
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("writing %s: %w", out, err)
	}
	return out, f.Close()
}

// shardOf extracts the numeric shard prefix from a work path of the form
// .../<partition>/<shard>/<corpusID>/<workID>.json.
func shardOf(path string) (int, bool) {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) < 3 {
		return 0, false
	}
	shard, err := strconv.Atoi(parts[len(parts)-3])
	if err != nil {
		return 0, false
	}
	return shard, true
}

func paperRow(cfg *config.Config, authorsStore store.Store, workPath string) ([]string, error) {
	data, err := os.ReadFile(workPath)
	if err != nil {
		return nil, err
	}
	var w workRow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}

	authorIDs := w.authorIDs()
	maxACL := 0
	for _, id := range authorIDs {
		rel := store.AuthorFile(id)
		if !authorsStore.Exists(rel) {
			continue
		}
		var rec struct {
			ACLPapers []string `json:"acl_papers"`
		}
		if err := authorsStore.ReadJSON(rel, &rec); err != nil {
			return nil, err
		}
		if n := len(rec.ACLPapers); n > maxACL {
			maxACL = n
		}
	}

	paperDir := filepath.Dir(workPath)
	corpusID := filepath.Base(paperDir)
	s2orcPath := filepath.Join(paperDir, "s2orc-"+corpusID+".json")
	if _, err := os.Stat(s2orcPath); err != nil {
		s2orcPath = ""
	}

	return []string{
		w.Title,
		w.CorpusID,
		w.ID,
		jsonList(authorIDs),
		w.venue(),
		strconv.FormatBool(w.IsACL),
		strconv.FormatBool(w.isNLP(cfg.NLPThreshold)),
		strconv.Itoa(maxACL),
		workPath,
		s2orcPath,
	}, nil
}

// MergePapersCSVs concatenates every papers sub-CSV in the CSV directory
// into papers.csv, deduplicating on corpus_id. Returns the merged path
// and the number of rows written.
func MergePapersCSVs(cfg *config.Config) (string, int, error) {
	entries, err := os.ReadDir(cfg.CSVsPath())
	if err != nil {
		return "", 0, fmt.Errorf("listing CSV directory: %w", err)
	}

	var subs []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "papers_subcsv_") && strings.HasSuffix(name, ".csv") {
			subs = append(subs, filepath.Join(cfg.CSVsPath(), name))
		}
	}
	sort.Strings(subs)
	if len(subs) == 0 {
		return "", 0, fmt.Errorf("no papers sub-CSVs in %s", cfg.CSVsPath())
	}

	out := filepath.Join(cfg.CSVsPath(), PapersCSVName)
	f, err := os.Create(out)
	if err != nil {
		return "", 0, fmt.Errorf("creating %s: %w", out, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(papersHeader); err != nil {
		return "", 0, err
	}

	seen := make(map[string]struct{})
	rows := 0
	for _, sub := range subs {
		sf, err := os.Open(sub)
		if err != nil {
			return "", rows, err
		}
		r := csv.NewReader(sf)
		records, err := r.ReadAll()
		sf.Close()
		if err != nil {
			return "", rows, fmt.Errorf("reading %s: %w", sub, err)
		}
		for i, rec := range records {
			if i == 0 {
				continue // header
			}
			corpusID := rec[1]
			if _, ok := seen[corpusID]; ok {
				continue
			}
			seen[corpusID] = struct{}{}
			if err := w.Write(rec); err != nil {
				return "", rows, err
			}
			rows++
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", rows, err
	}
	return out, rows, f.Close()
}
