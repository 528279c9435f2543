package main

import (
	"github.com/spf13/cobra"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/config"
)

func init() {
	jobsCmd.AddCommand(jobsValidateCmd)
	rootCmd.AddCommand(jobsCmd)
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Work with the jobs.yml range declarations",
	Long: `Work with jobs.yml, which splits a full corpus run into independent job
instances. Each job owns a disjoint shard range; extraction and matching
commands take a range via --job.`,
}

// JobsResult is the response for jobs validate.
type JobsResult struct {
	Status string            `json:"status"`
	Jobs   []config.JobRange `json:"jobs"`
}

var jobsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check jobs.yml for overlapping or malformed ranges",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()

		jobs, err := config.LoadJobs(config.JobsPath(cfg.Root))
		if err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}

		if humanOutput {
			outputHuman("jobs.yml is valid: %d disjoint ranges\n", len(jobs.Jobs))
			for _, j := range jobs.Jobs {
				outputHuman("  %-20s [%d, %d)\n", j.Name, j.Start, j.End)
			}
		} else {
			outputJSON(JobsResult{Status: "valid", Jobs: jobs.Jobs})
		}
		return nil
	},
}
