// Package corpus defines the identifier spaces and normalization rules
// shared across the corpus pipeline: CorpusIDs from the Semantic Scholar
// bulk dumps, MAG IDs, DOIs, OpenAlex work/author IDs, and paper titles.
package corpus

import (
	"strings"
)

// Partition is one of the curated subsets papers are classified into.
type Partition string

const (
	// PartitionACL holds papers published at ACL venues (subcorpus A).
	PartitionACL Partition = "subcorpus_a"
	// PartitionOther holds everything else (subcorpus C).
	PartitionOther Partition = "subcorpus_c"
)

// Partitions lists all partitions in processing order.
var Partitions = []Partition{PartitionACL, PartitionOther}

// PartitionFor returns the partition for a paper's ACL membership flag.
func PartitionFor(isACL bool) Partition {
	if isACL {
		return PartitionACL
	}
	return PartitionOther
}

// IsACL reports whether the partition is the ACL subset.
func (p Partition) IsACL() bool { return p == PartitionACL }

// ShardWidth is the number of leading ID characters used to bucket
// per-paper directories into shard subdirectories.
const ShardWidth = 4

// ShardPrefix returns the fixed-width ID prefix used as a shard directory
// name. IDs shorter than the shard width shard under the whole ID.
func ShardPrefix(id string) string {
	if len(id) <= ShardWidth {
		return id
	}
	return id[:ShardWidth]
}

// AuthorShardPrefix shards an OpenAlex author ID (e.g. "A5023888391") by
// the first four characters of its numeric part.
func AuthorShardPrefix(authorID string) string {
	if len(authorID) > 1 {
		return ShardPrefix(authorID[1:])
	}
	return authorID
}

// Identifiers is the cross-reference bundle extracted from one local paper
// record. Empty strings and zero mean the field is absent; extraction never
// fails on missing fields.
type Identifiers struct {
	MAG   string `json:"mag,omitempty"`
	DOI   string `json:"doi,omitempty"`
	Date  string `json:"date,omitempty"` // YYYY-MM-DD publication date
	Year  int    `json:"year,omitempty"`
	Title string `json:"title,omitempty"`
}

// HasAny reports whether at least one identifier is usable for matching.
// A record with neither an exact identifier nor a title cannot be matched.
func (ids Identifiers) HasAny() bool {
	return ids.MAG != "" || ids.DOI != "" || ids.Title != ""
}

// MaxTitleLength is the cutoff above which an extracted title is treated
// as unreliable (malformed span extraction) and dropped.
const MaxTitleLength = 500

// doiAllowed reports whether a byte may appear in a normalized DOI.
// DOIs are compared byte-for-byte downstream, so everything outside this
// set is stripped.
func doiAllowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == '.' || r == '_' || r == '/' || r == '(' || r == ')':
		return true
	}
	return false
}

// NormalizeDOI normalizes a DOI for exact matching: strips URL prefixes,
// keeps only the first comma-separated segment (dump records occasionally
// carry several), lower-cases, and removes characters outside
// [a-z0-9._/()].
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	if i := strings.IndexByte(doi, ','); i >= 0 {
		doi = doi[:i]
	}
	doi = strings.ToLower(doi)

	var b strings.Builder
	b.Grow(len(doi))
	for _, r := range doi {
		if doiAllowed(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// openAlexWorkPrefix is the URI prefix OpenAlex embeds in every work ID.
const openAlexWorkPrefix = "https://openalex.org/"

// openAlexDOIPrefix is the URI prefix on the "doi" entry of a work's ids.
const openAlexDOIPrefix = "https://doi.org/"

// ParseWorkID strips the OpenAlex URI scheme from a work identifier,
// returning the bare ID (e.g. "W2741809807").
func ParseWorkID(uri string) string {
	return strings.TrimPrefix(uri, openAlexWorkPrefix)
}

// ParseEntityID strips the OpenAlex URI scheme from any entity
// identifier, returning the bare ID (e.g. "A5023888391", "C204321447").
func ParseEntityID(uri string) string {
	return strings.TrimPrefix(uri, openAlexWorkPrefix)
}

// ParseDOIID strips the URI scheme from an OpenAlex DOI identifier and
// lower-cases it for case-insensitive comparison.
func ParseDOIID(uri string) string {
	return strings.ToLower(strings.TrimPrefix(uri, openAlexDOIPrefix))
}
