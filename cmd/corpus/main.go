// Package main provides the corpus CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/config"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/logging"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/store"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// corpusRoot is the corpora root directory, from --root or CORPUS_ROOT.
var corpusRoot string

func main() {
	// Secrets (OPENALEX_MAILTO, S2_API_KEY) may live in a local .env.
	godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Build a paper corpus spanning ACL and the broader literature",
	Long: `corpus builds an academic-paper corpus from the bulk Semantic Scholar
dumps and cross-references every paper against OpenAlex.

Pipeline stages:
  - download: fetch the pinned S2ORC and Papers dataset releases
  - extract:  shard dump records into per-paper directories
  - match:    link papers to OpenAlex works via the identifier cascade
  - authors:  aggregate per-author publication records
  - collate:  flatten the corpus into papers.csv and authors.csv

Every stage is resumable: the filesystem layout and plain-text ledgers
are the only state, so interrupted runs restart where they stopped.
All commands output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&corpusRoot, "root", "", "Corpora root directory (default $CORPUS_ROOT or .)")
	rootCmd.Version = Version
}

// resolveRoot returns the corpora root from the flag, the environment, or
// the working directory in that order.
func resolveRoot() string {
	if corpusRoot != "" {
		return corpusRoot
	}
	if env := os.Getenv("CORPUS_ROOT"); env != "" {
		return env
	}
	return "."
}

// mustLoadConfig loads configuration from the corpora root, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(resolveRoot())
	if err != nil {
		exitWithError(ExitConfigError, "%v (run 'corpus init' first?)", err)
	}
	return cfg
}

// newLogger constructs the process logger from config.
func newLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
}

// corpusStore returns the store over the partition trees.
func corpusStore(cfg *config.Config) *store.FS {
	return store.NewFS(cfg.Root)
}

// authorsStore returns the store over the authors tree.
func authorsStore(cfg *config.Config) *store.FS {
	return store.NewFS(cfg.AuthorsPath())
}
