package collate

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/authors"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/config"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/corpus"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/ledger"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/store"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

// seedCorpus builds a one-paper corpus: matched work W42 for ACL paper
// 253018145 with an S2ORC file, its path ledgered, and one known author.
func seedCorpus(t *testing.T) (*config.Config, *store.FS) {
	t.Helper()
	cfg := config.Default(t.TempDir())
	st := store.NewFS(cfg.Root)

	work := map[string]any{
		"id":       "https://openalex.org/W42",
		"title":    "Shard Paper",
		"isACL":    true,
		"corpusId": "253018145",
		"authorships": []any{
			map[string]any{"author": map[string]any{"id": "https://openalex.org/A5023888391"}},
		},
		"primary_location": map[string]any{
			"source": map[string]any{"display_name": "ACL Anthology"},
		},
		"concepts": []any{
			map[string]any{"id": "https://openalex.org/C204321447", "score": 0.8},
		},
	}
	workRel := store.WorkFile(corpus.PartitionACL, "253018145", "W42")
	if err := st.PutJSON(workRel, work); err != nil {
		t.Fatal(err)
	}
	if err := st.PutJSON(store.S2ORCFile(corpus.PartitionACL, "253018145"), map[string]any{}); err != nil {
		t.Fatal(err)
	}

	paths, err := ledger.Open(ledger.WorkPathsPath(cfg.DatasetsPath()))
	if err != nil {
		t.Fatal(err)
	}
	if err := paths.Add(st.Abs(workRel)); err != nil {
		t.Fatal(err)
	}
	paths.Close()

	authorsStore := store.NewFS(cfg.AuthorsPath())
	rec := authors.Record{ACLPapers: []string{"111", "253018145"}, NonACLPapers: []string{"222"}}
	if err := authorsStore.PutJSON(store.AuthorFile("A5023888391"), rec); err != nil {
		t.Fatal(err)
	}
	return cfg, authorsStore
}

func TestBuildPapersCSV(t *testing.T) {
	cfg, authorsStore := seedCorpus(t)

	out, err := BuildPapersCSV(cfg, authorsStore, 0, 10000, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	rows := readCSV(t, out)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(rows))
	}
	row := rows[1]
	if row[0] != "Shard Paper" || row[1] != "253018145" || row[2] != "https://openalex.org/W42" {
		t.Errorf("identity columns = %v", row[:3])
	}
	if row[3] != `["A5023888391"]` {
		t.Errorf("author_ids = %q", row[3])
	}
	if row[4] != "ACL Anthology" {
		t.Errorf("venue = %q", row[4])
	}
	if row[5] != "true" || row[6] != "true" {
		t.Errorf("is_acl/is_nlp = %q/%q", row[5], row[6])
	}
	if row[7] != "2" {
		t.Errorf("max_acl_contribs = %q, want 2", row[7])
	}
	if row[9] == "" {
		t.Error("s2orc_path empty for paper with full text")
	}
}

func TestBuildPapersCSVShardRange(t *testing.T) {
	cfg, authorsStore := seedCorpus(t)

	// 253018145 shards to 2530; a range below it selects nothing.
	out, err := BuildPapersCSV(cfg, authorsStore, 0, 2530, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if rows := readCSV(t, out); len(rows) != 1 {
		t.Errorf("got %d rows for empty range, want header only", len(rows))
	}

	out, err = BuildPapersCSV(cfg, authorsStore, 2530, 2531, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if rows := readCSV(t, out); len(rows) != 2 {
		t.Errorf("got %d rows for matching range, want 2", len(rows))
	}
}

func TestMergePapersCSVsDeduplicates(t *testing.T) {
	cfg := config.Default(t.TempDir())
	if err := os.MkdirAll(cfg.CSVsPath(), 0755); err != nil {
		t.Fatal(err)
	}

	writeSub := func(name string, rows [][]string) {
		f, err := os.Create(filepath.Join(cfg.CSVsPath(), name))
		if err != nil {
			t.Fatal(err)
		}
		w := csv.NewWriter(f)
		w.Write(papersHeader)
		w.WriteAll(rows)
		f.Close()
	}
	writeSub(SubCSVName(0, 5000), [][]string{
		{"A", "100", "W1", "[]", "", "true", "false", "0", "p", ""},
		{"B", "200", "W2", "[]", "", "false", "false", "0", "p", ""},
	})
	writeSub(SubCSVName(5000, 10000), [][]string{
		{"B", "200", "W2", "[]", "", "false", "false", "0", "p", ""},
		{"C", "300", "W3", "[]", "", "false", "true", "0", "p", ""},
	})

	out, n, err := MergePapersCSVs(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("merged %d rows, want 3", n)
	}
	rows := readCSV(t, out)
	if len(rows) != 4 {
		t.Fatalf("papers.csv holds %d rows, want header + 3", len(rows))
	}
}

func TestBuildAuthorsCSV(t *testing.T) {
	cfg := config.Default(t.TempDir())
	authorsStore := store.NewFS(cfg.AuthorsPath())

	recs := map[string]authors.Record{
		"A5023888391": {ACLPapers: []string{"100", "200"}, NonACLPapers: []string{"300"}},
		"A5000000002": {NonACLPapers: []string{"400"}},
	}
	for id, rec := range recs {
		if err := authorsStore.PutJSON(store.AuthorFile(id), rec); err != nil {
			t.Fatal(err)
		}
	}

	out, n, err := BuildAuthorsCSV(cfg, authorsStore)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("wrote %d rows, want 2", n)
	}

	byID := make(map[string][]string)
	for _, row := range readCSV(t, out)[1:] {
		byID[row[0]] = row
	}
	row := byID["A5023888391"]
	if row == nil {
		t.Fatal("A5023888391 missing from authors.csv")
	}
	if row[1] != "2" || row[2] != "1" {
		t.Errorf("counts = %q/%q", row[1], row[2])
	}
	if row[3] != `["100","200"]` {
		t.Errorf("acl_papers = %q", row[3])
	}
	if byID["A5000000002"][4] != `["400"]` {
		t.Errorf("non_acl_papers = %q", byID["A5000000002"][4])
	}
}

func TestIsNLPThreshold(t *testing.T) {
	var w workRow
	w.Concepts = []struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	}{
		{ID: "https://openalex.org/C204321447", Score: 0.3},
		{ID: "https://openalex.org/C999", Score: 0.9},
	}

	if !w.isNLP(0.0) {
		t.Error("isNLP(0.0) = false, want true")
	}
	if w.isNLP(0.5) {
		t.Error("isNLP(0.5) = true: only a low-scoring NLP concept present")
	}
}
