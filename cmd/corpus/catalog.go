package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/catalog"
)

func init() {
	catalogCmd.AddCommand(catalogRebuildCmd)
	catalogCmd.AddCommand(catalogLookupCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(statusCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Maintain the SQLite query catalog",
	Long: `Maintain the ephemeral SQLite catalog indexed over the corpus tree.
The filesystem is canonical; the catalog only exists to answer status and
lookup queries quickly, and can be rebuilt at any time.`,
}

// CatalogResult is the response for catalog rebuild.
type CatalogResult struct {
	Status string `json:"status"`
	Papers int    `json:"papers"`
}

var catalogRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the catalog from the corpus tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()

		db, err := catalog.OpenDB(cfg.CatalogPath())
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		defer db.Close()

		n, err := db.Rebuild(corpusStore(cfg))
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}

		if humanOutput {
			outputHuman("Rebuilt catalog with %d papers\n", n)
		} else {
			outputJSON(CatalogResult{Status: "rebuilt", Papers: n})
		}
		return nil
	},
}

var catalogLookupCmd = &cobra.Command{
	Use:   "lookup <corpus-id>",
	Short: "Look up one paper in the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()

		db, err := catalog.OpenDB(cfg.CatalogPath())
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		defer db.Close()

		p, err := db.Lookup(args[0])
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}

		if humanOutput {
			outputHuman("%s  partition=%s  work=%s  s2orc=%t  metadata=%t  unfound=%t\n",
				p.CorpusID, p.Partition, p.WorkID, p.HasS2ORC, p.HasMetadata, p.Unfound)
		} else {
			outputJSON(p)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize corpus progress by partition",
	Long: `Summarize the corpus: per partition, how many papers are extracted,
matched, and confirmed absent from OpenAlex.

Rebuilds the catalog first, so counts always reflect the tree on disk.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	db, err := catalog.OpenDB(cfg.CatalogPath())
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer db.Close()

	if _, err := db.Rebuild(corpusStore(cfg)); err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	stats, err := db.Stats()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if !humanOutput {
		return outputJSON(stats)
	}

	partitions := make([]string, 0, len(stats))
	for p := range stats {
		partitions = append(partitions, p)
	}
	sort.Strings(partitions)

	rows := make([][]string, 0, len(partitions))
	for _, p := range partitions {
		s := stats[p]
		rows = append(rows, []string{
			p,
			strconv.Itoa(s.Papers),
			strconv.Itoa(s.Matched),
			strconv.Itoa(s.Unfound),
			strconv.Itoa(s.S2ORC),
			strconv.Itoa(s.Metadata),
		})
	}

	fmt.Println(renderTable(
		[]string{"partition", "papers", "matched", "unfound", "s2orc", "metadata"},
		rows))
	return nil
}
