package store

import (
	"path"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/corpus"
)

// SentinelName marks a paper directory as confirmed absent from OpenAlex.
const SentinelName = "NOT_IN_OPENALEX"

// PaperDir returns the store-relative directory for one paper.
func PaperDir(p corpus.Partition, corpusID string) string {
	return path.Join(string(p), corpus.ShardPrefix(corpusID), corpusID)
}

// S2ORCFile returns the path of a paper's raw S2ORC dump record.
func S2ORCFile(p corpus.Partition, corpusID string) string {
	return path.Join(PaperDir(p, corpusID), "s2orc-"+corpusID+".json")
}

// MetadataFile returns the path of a paper's Papers-dump metadata record.
func MetadataFile(p corpus.Partition, corpusID string) string {
	return path.Join(PaperDir(p, corpusID), corpusID+".json")
}

// WorkFile returns the path of a paper's matched OpenAlex record, named by
// the external work ID.
func WorkFile(p corpus.Partition, corpusID, workID string) string {
	return path.Join(PaperDir(p, corpusID), workID+".json")
}

// SentinelFile returns the path of a paper's not-found sentinel marker.
func SentinelFile(p corpus.Partition, corpusID string) string {
	return path.Join(PaperDir(p, corpusID), SentinelName)
}

// ShardDir returns the store-relative path of one shard directory.
func ShardDir(p corpus.Partition, prefix string) string {
	return path.Join(string(p), prefix)
}

// AuthorFile returns the store-relative path of an aggregated author
// record under the authors tree.
func AuthorFile(authorID string) string {
	return path.Join(corpus.AuthorShardPrefix(authorID), authorID+".json")
}
