package ledger

import (
	"fmt"
	"path/filepath"
)

// File names of the ledgers kept under the datasets directory.
const (
	aclIDsFile      = "acl_corpusids.txt"
	otherIDsFile    = "non_acl_corpusids.txt"
	missingFile     = "missing_from_s2orc.txt"
	seenAuthorsFile = "seen_papers_for_author_extract.txt"
	workPathsFile   = "openalex_paths.txt"
)

// CorpusIDsPath returns the ledger of all CorpusIDs observed for one
// membership class (ACL or not).
func CorpusIDsPath(datasetsDir string, isACL bool) string {
	if isACL {
		return filepath.Join(datasetsDir, aclIDsFile)
	}
	return filepath.Join(datasetsDir, otherIDsFile)
}

// MissingPath returns the ledger of CorpusIDs present in the Papers dump
// but absent from S2ORC.
func MissingPath(datasetsDir string) string {
	return filepath.Join(datasetsDir, missingFile)
}

// FoundPath returns the found-in-OpenAlex ledger for a job's shard range.
func FoundPath(datasetsDir string, start, end int) string {
	return filepath.Join(datasetsDir, fmt.Sprintf("openalex_found_%d-%d.txt", start, end))
}

// UnfoundPath returns the not-in-OpenAlex ledger for a job's shard range.
func UnfoundPath(datasetsDir string, start, end int) string {
	return filepath.Join(datasetsDir, fmt.Sprintf("openalex_unfound_%d-%d.txt", start, end))
}

// SeenAuthorsPath returns the ledger of papers whose authors have been
// aggregated.
func SeenAuthorsPath(datasetsDir string) string {
	return filepath.Join(datasetsDir, seenAuthorsFile)
}

// WorkPathsPath returns the list of paths to matched OpenAlex work files,
// written after matching for use by author aggregation and collation.
func WorkPathsPath(datasetsDir string) string {
	return filepath.Join(datasetsDir, workPathsFile)
}
