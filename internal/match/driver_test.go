package match

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/config"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/corpus"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/ledger"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/openalex"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/store"
)

// seedDriver wires a Driver over a temp corpus root with range ledgers.
func seedDriver(t *testing.T, q Querier) (*Driver, *config.Config, *store.FS, *Matcher) {
	t.Helper()
	cfg := config.Default(t.TempDir())
	st := store.NewFS(cfg.Root)

	found, err := ledger.Open(ledger.FoundPath(cfg.DatasetsPath(), 2530, 2531))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { found.Close() })

	unfound, err := ledger.Open(ledger.UnfoundPath(cfg.DatasetsPath(), 2530, 2531))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { unfound.Close() })

	m := NewMatcher(st, q, found, unfound)
	return NewDriver(cfg, st, m, zerolog.Nop()), cfg, st, m
}

func putMetadata(t *testing.T, st *store.FS, p corpus.Partition, corpusID string, rec map[string]any) {
	t.Helper()
	if err := st.PutJSON(store.MetadataFile(p, corpusID), rec); err != nil {
		t.Fatal(err)
	}
}

func TestDriverMatchesMetadataRecords(t *testing.T) {
	work := mustWork(t, `{
		"id": "https://openalex.org/W42",
		"ids": {"openalex": "https://openalex.org/W42", "mag": "777"},
		"title": "Shard Paper"
	}`)
	q := &fakeQuerier{respond: func(filter string) []openalex.Work {
		if filter == "mag:777" {
			return []openalex.Work{work}
		}
		return nil
	}}
	d, _, st, m := seedDriver(t, q)

	putMetadata(t, st, corpus.PartitionACL, "253018145", map[string]any{
		"corpusid":    253018145,
		"externalids": map[string]any{"MAG": "777", "ACL": "2020.acl-main.1"},
		"title":       "Shard Paper",
	})

	if err := d.Run(context.Background(), 2530, 2531); err != nil {
		t.Fatal(err)
	}

	if !st.Exists(store.WorkFile(corpus.PartitionACL, "253018145", "W42")) {
		t.Fatal("work file not written")
	}
	if m.Pending() != 0 {
		t.Errorf("Pending() = %d after run, want 0", m.Pending())
	}

	var stored map[string]any
	if err := st.ReadJSON(store.WorkFile(corpus.PartitionACL, "253018145", "W42"), &stored); err != nil {
		t.Fatal(err)
	}
	if stored["isACL"] != true || stored["corpusId"] != "253018145" {
		t.Errorf("provenance fields = %v/%v", stored["isACL"], stored["corpusId"])
	}
}

func TestDriverSkipsResolvedOnDisk(t *testing.T) {
	q := &fakeQuerier{}
	d, _, st, _ := seedDriver(t, q)

	// A prior run matched this paper but its ledger is gone.
	putMetadata(t, st, corpus.PartitionOther, "253000001", map[string]any{
		"externalids": map[string]any{"MAG": "1"},
	})
	if err := st.PutJSON(store.WorkFile(corpus.PartitionOther, "253000001", "W9"), map[string]any{}); err != nil {
		t.Fatal(err)
	}

	// Another prior run confirmed this one absent.
	putMetadata(t, st, corpus.PartitionOther, "253000002", map[string]any{
		"externalids": map[string]any{"MAG": "2"},
	})
	if err := st.Touch(store.SentinelFile(corpus.PartitionOther, "253000002")); err != nil {
		t.Fatal(err)
	}

	if err := d.Run(context.Background(), 2530, 2531); err != nil {
		t.Fatal(err)
	}
	if len(q.calls) != 0 {
		t.Errorf("driver issued %d calls for resolved papers, want 0", len(q.calls))
	}
}

func TestDriverFallsBackToS2ORCRecord(t *testing.T) {
	work := mustWork(t, `{
		"id": "https://openalex.org/W55",
		"ids": {"openalex": "https://openalex.org/W55", "mag": "555"},
		"title": "Full Text Only"
	}`)
	q := &fakeQuerier{respond: func(filter string) []openalex.Work {
		if filter == "mag:555" {
			return []openalex.Work{work}
		}
		return nil
	}}
	d, _, st, _ := seedDriver(t, q)

	err := st.PutJSON(store.S2ORCFile(corpus.PartitionACL, "253018145"), map[string]any{
		"corpusid":    253018145,
		"externalids": map[string]any{"mag": "555", "acl": "P19-1001"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := d.Run(context.Background(), 2530, 2531); err != nil {
		t.Fatal(err)
	}
	if !st.Exists(store.WorkFile(corpus.PartitionACL, "253018145", "W55")) {
		t.Error("work file not written from S2ORC identifiers")
	}
}

func TestDriverEmptyPlaceholderEndsUnfound(t *testing.T) {
	q := &fakeQuerier{}
	d, _, st, m := seedDriver(t, q)

	// Placeholder body from a works-disabled extraction run.
	if err := st.PutJSON(store.S2ORCFile(corpus.PartitionOther, "253000009"), map[string]any{}); err != nil {
		t.Fatal(err)
	}

	if err := d.Run(context.Background(), 2530, 2531); err != nil {
		t.Fatal(err)
	}
	if len(q.calls) != 0 {
		t.Errorf("placeholder paper triggered %d calls, want 0", len(q.calls))
	}
	if !st.Exists(store.SentinelFile(corpus.PartitionOther, "253000009")) {
		t.Error("sentinel not written for identifier-less paper")
	}
	if !m.Resolved("253000009") {
		t.Error("identifier-less paper not recorded in unfound ledger")
	}
}

func TestWriteWorkPaths(t *testing.T) {
	_, cfg, st, _ := seedDriver(t, &fakeQuerier{})

	putMetadata(t, st, corpus.PartitionACL, "253018145", map[string]any{})
	if err := st.PutJSON(store.WorkFile(corpus.PartitionACL, "253018145", "W42"), map[string]any{}); err != nil {
		t.Fatal(err)
	}
	if err := st.PutJSON(store.WorkFile(corpus.PartitionOther, "999000111", "W43"), map[string]any{}); err != nil {
		t.Fatal(err)
	}

	added, err := WriteWorkPaths(cfg, st)
	if err != nil {
		t.Fatal(err)
	}
	if added != 2 {
		t.Fatalf("added = %d, want 2", added)
	}

	paths, err := ledger.ReadSet(ledger.WorkPathsPath(cfg.DatasetsPath()))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Fatalf("ledger holds %d paths, want 2", len(paths))
	}
	if _, ok := paths[st.Abs(store.WorkFile(corpus.PartitionACL, "253018145", "W42"))]; !ok {
		t.Error("W42 path missing from ledger")
	}

	// Re-running records nothing new.
	added, err = WriteWorkPaths(cfg, st)
	if err != nil {
		t.Fatal(err)
	}
	if added != 0 {
		t.Errorf("replay added %d paths, want 0", added)
	}
}
