package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/config"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/corpus"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a corpora root",
	Long: `Initialize a new corpora root: write corpus.json with default settings
and create the directory layout the pipeline expects.

Uses the given path, or the --root / $CORPUS_ROOT / working directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := resolveRoot()
	if len(args) == 1 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		exitWithError(ExitError, "resolving root: %v", err)
	}

	if _, err := os.Stat(config.ConfigPath(abs)); err == nil {
		exitWithError(ExitConfigError, "%s already exists", config.ConfigPath(abs))
	}

	cfg := config.Default(abs)
	dirs := []string{
		cfg.S2ORCPath(),
		cfg.PapersDBPath(),
		cfg.CSVsPath(),
		cfg.AuthorsPath(),
		cfg.PartitionPath(corpus.PartitionACL),
		cfg.PartitionPath(corpus.PartitionOther),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			exitWithError(ExitError, "creating %s: %v", dir, err)
		}
	}

	if err := cfg.Save(); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		outputHuman("Initialized corpora root at %s\n", abs)
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: abs})
	}
	return nil
}
