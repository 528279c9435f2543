// Package authors aggregates per-author publication records out of the
// matched OpenAlex works. Each author gets one JSON file under a sharded
// authors tree listing the corpus papers they contributed to, split by
// ACL membership.
package authors

import (
	"sort"
	"strings"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/corpus"
)

// Record is one author's aggregated publication sets.
type Record struct {
	ACLPapers    []string `json:"acl_papers"`
	NonACLPapers []string `json:"non_acl_papers"`
}

// Add records a contribution, preserving set semantics.
func (r *Record) Add(corpusID string, isACL bool) {
	if isACL {
		r.ACLPapers = insert(r.ACLPapers, corpusID)
	} else {
		r.NonACLPapers = insert(r.NonACLPapers, corpusID)
	}
}

// Merge unions another record into r.
func (r *Record) Merge(o Record) {
	for _, id := range o.ACLPapers {
		r.Add(id, true)
	}
	for _, id := range o.NonACLPapers {
		r.Add(id, false)
	}
}

func insert(ids []string, id string) []string {
	i := sort.SearchStrings(ids, id)
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

// workAuthorships is the slice of a stored work record that aggregation
// reads: the provenance fields stamped at match time plus the authorship
// list.
type workAuthorships struct {
	IsACL       bool   `json:"isACL"`
	CorpusID    string `json:"corpusId"`
	Authorships []struct {
		Author struct {
			ID string `json:"id"`
		} `json:"author"`
	} `json:"authorships"`
}

// authorIDs returns the distinct author IDs, stripped to their bare
// A-prefixed form. Authorships without an ID are skipped.
func (w *workAuthorships) authorIDs() []string {
	seen := make(map[string]struct{}, len(w.Authorships))
	var ids []string
	for _, a := range w.Authorships {
		id := corpus.ParseEntityID(a.Author.ID)
		if id == "" || !strings.HasPrefix(id, "A") {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
