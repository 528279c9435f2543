package collate

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/config"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/store"
)

var authorsHeader = []string{
	"author_id", "num_acl_papers", "num_non_acl_papers", "acl_papers", "non_acl_papers",
}

// AuthorsCSVName is the full-corpus authors table.
const AuthorsCSVName = "authors.csv"

// BuildAuthorsCSV flattens the sharded authors tree into authors.csv,
// one row per author. Returns the written path and the row count.
func BuildAuthorsCSV(cfg *config.Config, authorsStore store.Store) (string, int, error) {
	if err := os.MkdirAll(cfg.CSVsPath(), 0755); err != nil {
		return "", 0, fmt.Errorf("creating CSV directory: %w", err)
	}
	out := filepath.Join(cfg.CSVsPath(), AuthorsCSVName)

	f, err := os.Create(out)
	if err != nil {
		return "", 0, fmt.Errorf("creating %s: %w", out, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(authorsHeader); err != nil {
		return "", 0, err
	}

	shards, err := authorsStore.List(".")
	if err != nil {
		return "", 0, err
	}

	rows := 0
	for _, shard := range shards {
		files, err := authorsStore.List(shard)
		if err != nil {
			return "", rows, err
		}
		for _, name := range files {
			if !strings.HasSuffix(name, ".json") {
				continue
			}
			authorID := strings.TrimSuffix(name, ".json")

			var rec struct {
				ACLPapers    []string `json:"acl_papers"`
				NonACLPapers []string `json:"non_acl_papers"`
			}
			if err := authorsStore.ReadJSON(shard+"/"+name, &rec); err != nil {
				return "", rows, err
			}

			row := []string{
				authorID,
				strconv.Itoa(len(rec.ACLPapers)),
				strconv.Itoa(len(rec.NonACLPapers)),
				jsonList(rec.ACLPapers),
				jsonList(rec.NonACLPapers),
			}
			if err := w.Write(row); err != nil {
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
