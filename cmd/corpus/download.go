package main

import (
	"github.com/spf13/cobra"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/dataset"
)

var downloadDecompress bool

func init() {
	downloadCmd.PersistentFlags().BoolVar(&downloadDecompress, "decompress", true, "Decompress shards after downloading")
	downloadCmd.AddCommand(downloadS2ORCCmd)
	downloadCmd.AddCommand(downloadPapersCmd)
	rootCmd.AddCommand(downloadCmd)
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the pinned dataset releases",
	Long: `Download the bulk Semantic Scholar dataset dumps for the release pinned
in corpus.json. Requires S2_API_KEY.

Shards already on disk are skipped, so an interrupted download resumes.`,
}

var downloadS2ORCCmd = &cobra.Command{
	Use:   "s2orc",
	Short: "Download the S2ORC full-text dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownload(cmd, dataset.DatasetS2ORC)
	},
}

var downloadPapersCmd = &cobra.Command{
	Use:   "papers",
	Short: "Download the Papers metadata dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownload(cmd, dataset.DatasetPapers)
	},
}

// DownloadResult is the response for download commands.
type DownloadResult struct {
	Dataset      string `json:"dataset"`
	Release      string `json:"release"`
	Downloaded   int    `json:"downloaded"`
	Skipped      int    `json:"skipped"`
	Decompressed int    `json:"decompressed"`
}

func runDownload(cmd *cobra.Command, name string) error {
	cfg := mustLoadConfig()
	log := newLogger(cfg)

	destDir := cfg.S2ORCPath()
	if name == dataset.DatasetPapers {
		destDir = cfg.PapersDBPath()
	}

	client := dataset.NewClient()
	urls, err := client.ReleaseFiles(cmd.Context(), cfg.Release, name)
	if err != nil {
		exitWithError(ExitAPIError, "%v", err)
	}

	stats, err := dataset.Download(cmd.Context(), name, urls, destDir, log)
	if err != nil {
		exitWithError(ExitAPIError, "%v", err)
	}

	decompressed := 0
	if downloadDecompress {
		decompressed, err = dataset.Decompress(destDir, log)
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
	}

	if humanOutput {
		outputHuman("Downloaded %d shards (%d already present), decompressed %d\n",
			stats.Downloaded, stats.Skipped, decompressed)
	} else {
		outputJSON(DownloadResult{
			Dataset:      name,
			Release:      cfg.Release,
			Downloaded:   stats.Downloaded,
			Skipped:      stats.Skipped,
			Decompressed: decompressed,
		})
	}
	return nil
}
