// Package catalog maintains an ephemeral SQLite index over the
// filesystem corpus. The corpus tree and the ledgers are canonical; the
// catalog is rebuilt from them at any time and exists only to answer
// status and lookup queries without walking millions of directories.
package catalog

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/corpus"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/store"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite catalog at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS papers (
			corpus_id TEXT PRIMARY KEY,
			partition TEXT NOT NULL,
			has_s2orc INTEGER NOT NULL,
			has_metadata INTEGER NOT NULL,
			work_id TEXT,
			unfound INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_papers_partition ON papers(partition);
		CREATE INDEX IF NOT EXISTS idx_papers_work ON papers(work_id) WHERE work_id IS NOT NULL;
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Paper is one catalog row.
type Paper struct {
	CorpusID    string `json:"corpus_id"`
	Partition   string `json:"partition"`
	HasS2ORC    bool   `json:"has_s2orc"`
	HasMetadata bool   `json:"has_metadata"`
	WorkID      string `json:"work_id,omitempty"`
	Unfound     bool   `json:"unfound"`
}

// Rebuild clears the catalog and repopulates it by walking both
// partition trees. Returns the number of papers indexed.
func (d *DB) Rebuild(st store.Store) (int, error) {
	if _, err := d.db.Exec("DELETE FROM papers"); err != nil {
		return 0, fmt.Errorf("clearing papers table: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO papers (corpus_id, partition, has_s2orc, has_metadata, work_id, unfound)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, p := range corpus.Partitions {
		shards, err := st.List(string(p))
		if err != nil {
			return 0, err
		}
		for _, shard := range shards {
			papers, err := st.List(store.ShardDir(p, shard))
			if err != nil {
				return 0, err
			}
			for _, corpusID := range papers {
				row, err := scanPaperDir(st, p, corpusID)
				if err != nil {
					return 0, err
				}

				var workID any
				if row.WorkID != "" {
					workID = row.WorkID
				}
				_, err = stmt.Exec(row.CorpusID, row.Partition,
					boolInt(row.HasS2ORC), boolInt(row.HasMetadata),
					workID, boolInt(row.Unfound))
				if err != nil {
					return 0, fmt.Errorf("inserting paper %s: %w", corpusID, err)
				}
				count++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// scanPaperDir classifies the files in one paper directory.
func scanPaperDir(st store.Store, p corpus.Partition, corpusID string) (Paper, error) {
	row := Paper{CorpusID: corpusID, Partition: string(p)}

	files, err := st.List(store.PaperDir(p, corpusID))
	if err != nil {
		return row, err
	}
	for _, f := range files {
		switch {
		case f == store.SentinelName:
			row.Unfound = true
		case f == corpusID+".json":
			row.HasMetadata = true
		case strings.HasPrefix(f, "s2orc-"):
			row.HasS2ORC = true
		case strings.HasPrefix(f, "W") && strings.HasSuffix(f, ".json"):
			row.WorkID = strings.TrimSuffix(f, ".json")
		}
	}
	return row, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Lookup returns the catalog row for one paper.
func (d *DB) Lookup(corpusID string) (*Paper, error) {
	row := d.db.QueryRow(`
		SELECT corpus_id, partition, has_s2orc, has_metadata, work_id, unfound
		FROM papers WHERE corpus_id = ?
	`, corpusID)

	var p Paper
	var workID sql.NullString
	err := row.Scan(&p.CorpusID, &p.Partition, &p.HasS2ORC, &p.HasMetadata, &workID, &p.Unfound)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("paper %s not in catalog", corpusID)
	}
	if err != nil {
		return nil, err
	}
	p.WorkID = workID.String
	return &p, nil
}

// PartitionStats summarizes one partition.
type PartitionStats struct {
	Papers   int `json:"papers"`
	Matched  int `json:"matched"`
	Unfound  int `json:"unfound"`
	S2ORC    int `json:"with_s2orc"`
	Metadata int `json:"with_metadata"`
}

// Stats maps partition name to its summary.
type Stats map[string]PartitionStats

// Stats aggregates the catalog by partition.
func (d *DB) Stats() (Stats, error) {
	rows, err := d.db.Query(`
		SELECT partition,
			COUNT(*),
			COUNT(work_id),
			SUM(unfound),
			SUM(has_s2orc),
			SUM(has_metadata)
		FROM papers GROUP BY partition
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(Stats)
	for rows.Next() {
		var partition string
		var s PartitionStats
		if err := rows.Scan(&partition, &s.Papers, &s.Matched, &s.Unfound, &s.S2ORC, &s.Metadata); err != nil {
			return nil, err
		}
		stats[partition] = s
	}
	return stats, rows.Err()
}
