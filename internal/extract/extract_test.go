package extract

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/config"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/corpus"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/ledger"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default(t.TempDir())
	for _, dir := range []string{cfg.S2ORCPath(), cfg.PapersDBPath()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	return cfg
}

func writeShard(t *testing.T, path string, lines ...string) {
	t.Helper()
	var data []byte
	for _, l := range lines {
		data = append(data, l...)
		data = append(data, '\n')
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestParsePapersRecord(t *testing.T) {
	line := `{"corpusid": 253018145,
		"externalids": {"MAG": 2741809807, "DOI": "10.18653/v1/2020.acl-main.1", "ACL": "2020.acl-main.1"},
		"title": "A Paper", "year": 2020, "publicationdate": "2020-07-05"}`

	rec, err := ParsePapersRecord([]byte(line))
	if err != nil {
		t.Fatal(err)
	}
	if got := string(rec.CorpusID); got != "253018145" {
		t.Errorf("CorpusID = %q, want 253018145", got)
	}
	if !rec.IsACL() {
		t.Error("IsACL() = false, want true")
	}

	ids := rec.Identifiers()
	if ids.MAG != "2741809807" {
		t.Errorf("MAG = %q, want 2741809807", ids.MAG)
	}
	if ids.DOI != "10.18653/v1/2020.aclmain.1" {
		t.Errorf("DOI = %q, want hyphen stripped", ids.DOI)
	}
	if ids.Date != "2020-07-05" || ids.Year != 2020 {
		t.Errorf("Date/Year = %q/%d", ids.Date, ids.Year)
	}
}

func TestParsePapersRecordMissingFields(t *testing.T) {
	rec, err := ParsePapersRecord([]byte(`{"corpusid": "42"}`))
	if err != nil {
		t.Fatal(err)
	}
	if rec.IsACL() {
		t.Error("IsACL() = true for record without external IDs")
	}
	ids := rec.Identifiers()
	if ids.MAG != "" || ids.DOI != "" || ids.Title != "" {
		t.Errorf("identifiers not null: %+v", ids)
	}
}

func TestS2ORCTitleSpan(t *testing.T) {
	rec, err := ParseS2ORCRecord([]byte(`{"corpusid": 7,
		"externalids": {"mag": "123"},
		"content": {"text": "Facade: a résumé paper\n\nAbstract...",
			"annotations": {"title": "[{\"start\": 0, \"end\": 22}]"}}}`))
	if err != nil {
		t.Fatal(err)
	}
	// Offsets are character offsets: the é must not shift the slice.
	if got := rec.Title(); got != "Facade: a résumé paper" {
		t.Errorf("Title() = %q", got)
	}
	if ids := rec.Identifiers(); ids.MAG != "123" || ids.Title == "" {
		t.Errorf("Identifiers() = %+v", ids)
	}
}

func TestS2ORCTitleSpanMalformed(t *testing.T) {
	cases := []string{
		`{"corpusid": 1, "content": {"text": "abc"}}`,
		`{"corpusid": 2, "content": {"text": "abc", "annotations": {"title": "not json"}}}`,
		`{"corpusid": 3, "content": {"text": "abc", "annotations": {"title": "[{\"start\": 2, \"end\": 99}]"}}}`,
	}
	for _, line := range cases {
		rec, err := ParseS2ORCRecord([]byte(line))
		if err != nil {
			t.Fatal(err)
		}
		if got := rec.Title(); got != "" {
			t.Errorf("Title() = %q for %s, want empty", got, line)
		}
	}
}

func TestExtractS2ORC(t *testing.T) {
	cfg := testConfig(t)
	st := store.NewFS(cfg.Root)
	writeShard(t, S2ORCShardPath(cfg.S2ORCPath(), 0),
		`{"corpusid": 100, "externalids": {"acl": "2020.acl-main.1"}, "content": {"text": "t"}}`,
		`{"corpusid": 200, "externalids": {"acl": null}, "content": {"text": "t"}}`,
	)

	opts := S2ORCOptions{Start: 0, End: 1, ExtractWorks: true}
	stats, err := ExtractS2ORC(cfg, st, opts, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Written != 2 || stats.Failed != 0 {
		t.Fatalf("stats = %+v, want 2 written", stats)
	}

	if !st.Exists(store.S2ORCFile(corpus.PartitionACL, "100")) {
		t.Error("ACL record not extracted into subcorpus_a")
	}
	if !st.Exists(store.S2ORCFile(corpus.PartitionOther, "200")) {
		t.Error("non-ACL record not extracted into subcorpus_c")
	}

	acl, err := ledger.ReadSet(ledger.CorpusIDsPath(cfg.DatasetsPath(), true))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := acl["100"]; !ok {
		t.Error("100 missing from ACL corpus-ID ledger")
	}
	other, err := ledger.ReadSet(ledger.CorpusIDsPath(cfg.DatasetsPath(), false))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := other["200"]; !ok {
		t.Error("200 missing from non-ACL corpus-ID ledger")
	}

	// Replaying the same shard produces no new writes or ledger growth.
	stats, err = ExtractS2ORC(cfg, st, opts, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Written != 0 || stats.Skipped != 2 {
		t.Errorf("replay stats = %+v, want 0 written 2 skipped", stats)
	}
	acl, err = ledger.ReadSet(ledger.CorpusIDsPath(cfg.DatasetsPath(), true))
	if err != nil {
		t.Fatal(err)
	}
	if len(acl) != 1 {
		t.Errorf("ACL ledger grew on replay: %d entries", len(acl))
	}
}

func TestExtractS2ORCPlaceholderMode(t *testing.T) {
	cfg := testConfig(t)
	st := store.NewFS(cfg.Root)
	writeShard(t, S2ORCShardPath(cfg.S2ORCPath(), 0),
		`{"corpusid": 100, "externalids": {"acl": "P19-1001"}, "content": {"text": "full text"}}`,
	)

	_, err := ExtractS2ORC(cfg, st, S2ORCOptions{Start: 0, End: 1}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := st.ReadJSON(store.S2ORCFile(corpus.PartitionACL, "100"), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("placeholder file holds %d keys, want empty object", len(got))
	}
}

func TestExtractS2ORCDeleteShards(t *testing.T) {
	cfg := testConfig(t)
	st := store.NewFS(cfg.Root)
	path := S2ORCShardPath(cfg.S2ORCPath(), 3)
	writeShard(t, path, `{"corpusid": 5, "externalids": {}, "content": {}}`)

	_, err := ExtractS2ORC(cfg, st, S2ORCOptions{Start: 3, End: 4, DeleteShards: true}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("shard file not deleted")
	}
}

func TestExtractPapers(t *testing.T) {
	cfg := testConfig(t)
	st := store.NewFS(cfg.Root)

	// Seed the corpus-ID ledgers as if an S2ORC pass saw paper 100.
	acl, err := ledger.Open(ledger.CorpusIDsPath(cfg.DatasetsPath(), true))
	if err != nil {
		t.Fatal(err)
	}
	if err := acl.Add("100"); err != nil {
		t.Fatal(err)
	}
	acl.Close()

	writeShard(t, filepath.Join(cfg.PapersDBPath(), "papers-part0.jsonl"),
		`{"corpusid": 100, "externalids": {"ACL": "2020.acl-main.1"}, "title": "Known"}`,
		`{"corpusid": 300, "externalids": {}, "title": "Metadata Only"}`,
	)

	stats, err := ExtractPapers(cfg, st, PapersOptions{}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Written != 2 {
		t.Fatalf("stats = %+v, want 2 written", stats)
	}

	if !st.Exists(store.MetadataFile(corpus.PartitionACL, "100")) {
		t.Error("metadata for known ACL paper not written")
	}
	if !st.Exists(store.MetadataFile(corpus.PartitionOther, "300")) {
		t.Error("metadata for new paper not written")
	}

	var meta map[string]any
	if err := st.ReadJSON(store.MetadataFile(corpus.PartitionOther, "300"), &meta); err != nil {
		t.Fatal(err)
	}
	if meta["title"] != "Metadata Only" {
		t.Errorf("metadata title = %v", meta["title"])
	}

	missing, err := ledger.ReadSet(ledger.MissingPath(cfg.DatasetsPath()))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := missing["300"]; !ok {
		t.Error("300 not recorded as missing from S2ORC")
	}
	if _, ok := missing["100"]; ok {
		t.Error("100 wrongly recorded as missing from S2ORC")
	}

	// Replay: zero new writes, missing ledger unchanged.
	stats, err = ExtractPapers(cfg, st, PapersOptions{}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Written != 0 {
		t.Errorf("replay wrote %d files, want 0", stats.Written)
	}
	missing, err = ledger.ReadSet(ledger.MissingPath(cfg.DatasetsPath()))
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 1 {
		t.Errorf("missing ledger grew on replay: %d entries", len(missing))
	}
}

func TestClampShards(t *testing.T) {
	shards := []string{"a", "b", "c", "d"}
	cases := []struct {
		start, end int
		want       int
	}{
		{0, 0, 4},  // end 0 means all
		{1, 3, 2},
		{2, 0, 2},
		{0, 99, 4},
		{3, 2, 0},
		{-1, 1, 1},
	}
	for _, c := range cases {
		if got := len(clampShards(shards, c.start, c.end)); got != c.want {
			t.Errorf("clampShards(%d, %d) kept %d shards, want %d", c.start, c.end, got, c.want)
		}
	}
}

func TestFlexStringForms(t *testing.T) {
	var v struct {
		ID flexString `json:"id"`
	}
	for raw, want := range map[string]string{
		`{"id": "abc"}`: "abc",
		`{"id": 123}`:   "123",
		`{"id": null}`:  "",
		`{}`:            "",
	} {
		v.ID = ""
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("%s: %v", raw, err)
		}
		if string(v.ID) != want {
			t.Errorf("%s: got %q, want %q", raw, v.ID, want)
		}
	}
}
