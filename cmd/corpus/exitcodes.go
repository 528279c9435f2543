package main

// Exit codes shared by all subcommands.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing corpus.json, invalid jobs.yml)
	ExitDataError   = 3 // Data error (malformed dump records, unreadable corpus files)
	ExitAPIError    = 4 // External API error (OpenAlex or datasets API exhausted retries)
)
