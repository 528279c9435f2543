// Package collate flattens the matched corpus into CSV tables for
// analysis: one row per paper with its OpenAlex metadata and membership
// flags, and one row per author with their aggregated publication sets.
package collate

import (
	"encoding/json"
	"strings"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/corpus"
)

// nlpConceptIDs are the OpenAlex concepts treated as NLP and its
// neighboring fields (natural language processing, machine translation,
// speech recognition, and so on).
var nlpConceptIDs = map[string]struct{}{
	"C204321447":  {},
	"C41895202":   {},
	"C23123220":   {},
	"C203005215":  {},
	"C119857082":  {},
	"C186644900":  {},
	"C28490314":   {},
	"C2777530160": {},
	"C137293760":  {},
}

// workRow is the slice of a stored work record that collation reads.
type workRow struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	IsACL    bool   `json:"isACL"`
	CorpusID string `json:"corpusId"`

	Authorships []struct {
		Author struct {
			ID string `json:"id"`
		} `json:"author"`
	} `json:"authorships"`

	PrimaryLocation struct {
		Source struct {
			DisplayName string `json:"display_name"`
		} `json:"source"`
	} `json:"primary_location"`

	Concepts []struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	} `json:"concepts"`
}

// authorIDs returns the work's distinct bare author IDs in authorship
// order.
func (w *workRow) authorIDs() []string {
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

// isNLP reports whether any of the work's concepts is an NLP concept
// scoring at or above threshold.
func (w *workRow) isNLP(threshold float64) bool {
	for _, c := range w.Concepts {
		bare := corpus.ParseEntityID(c.ID)
		if _, ok := nlpConceptIDs[bare]; ok && c.Score >= threshold {
			return true
		}
	}
	return false
}

// venue returns the display name of the work's primary source, or "".
func (w *workRow) venue() string {
	return w.PrimaryLocation.Source.DisplayName
}

// jsonList serializes a string slice as a JSON array for embedding in a
// CSV cell. nil serializes as [].
func jsonList(ids []string) string {
	if ids == nil {
		ids = []string{}
	}
	data, _ := json.Marshal(ids)
	return string(data)
}
