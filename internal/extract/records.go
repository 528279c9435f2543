// Package extract turns the bulk Semantic Scholar dumps into the sharded
// on-disk corpus and pulls cross-reference identifier bundles out of the
// extracted records.
package extract

import (
	"encoding/json"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/corpus"
)

// flexString decodes JSON values that arrive as either strings or
// numbers; the dumps are inconsistent about MAG IDs and CorpusIDs.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// PapersRecord is the subset of a Papers-dump record needed for
// classification and identifier extraction.
type PapersRecord struct {
	CorpusID    flexString `json:"corpusid"`
	ExternalIDs struct {
		MAG flexString `json:"MAG"`
		DOI string     `json:"DOI"`
		ACL string     `json:"ACL"`
	} `json:"externalids"`
	Title           string `json:"title"`
	Year            int    `json:"year"`
	PublicationDate string `json:"publicationdate"`
}

// ParsePapersRecord decodes one Papers dump line.
func ParsePapersRecord(line []byte) (*PapersRecord, error) {
	var r PapersRecord
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// IsACL reports whether the record carries an ACL anthology identifier.
func (r *PapersRecord) IsACL() bool { return r.ExternalIDs.ACL != "" }

// Identifiers returns the record's cross-reference bundle. Missing fields
// stay null; extraction never fails.
func (r *PapersRecord) Identifiers() corpus.Identifiers {
	ids := corpus.Identifiers{
		MAG:   string(r.ExternalIDs.MAG),
		DOI:   corpus.NormalizeDOI(r.ExternalIDs.DOI),
		Date:  r.PublicationDate,
		Year:  r.Year,
		Title: r.Title,
	}
	if len(ids.Title) > corpus.MaxTitleLength {
		ids.Title = ""
	}
	return ids
}

// S2ORCRecord is the subset of an S2ORC dump record needed for
// classification and identifier extraction. S2ORC uses lower-case
// external-ID keys, unlike the Papers dump.
type S2ORCRecord struct {
	CorpusID    flexString `json:"corpusid"`
	ExternalIDs struct {
		MAG flexString `json:"mag"`
		DOI string     `json:"doi"`
		ACL string     `json:"acl"`
	} `json:"externalids"`
	Content struct {
		Text        string `json:"text"`
		Annotations struct {
			// Title is a JSON-encoded array of {start,end} spans
			// into Text, as S2ORC ships it.
			Title string `json:"title"`
		} `json:"annotations"`
	} `json:"content"`
}

// ParseS2ORCRecord decodes one S2ORC dump line.
func ParseS2ORCRecord(line []byte) (*S2ORCRecord, error) {
	var r S2ORCRecord
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// IsACL reports whether the record carries an ACL anthology identifier.
func (r *S2ORCRecord) IsACL() bool { return r.ExternalIDs.ACL != "" }

// titleSpan is one annotation span into the full text.
type titleSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Title slices the paper title out of the full text using the title
// annotation. Returns "" when the annotation is missing, malformed, or
// yields an implausibly long span.
func (r *S2ORCRecord) Title() string {
	raw := r.Content.Annotations.Title
	if raw == "" || r.Content.Text == "" {
		return ""
	}

	var spans []titleSpan
	if err := json.Unmarshal([]byte(raw), &spans); err != nil || len(spans) == 0 {
		return ""
	}

	// Annotation offsets count characters, not bytes.
	text := []rune(r.Content.Text)
	start, end := spans[0].Start, spans[0].End
	if start < 0 || end > len(text) || start >= end {
		return ""
	}

	title := string(text[start:end])
	if len(title) > corpus.MaxTitleLength {
		return ""
	}
	return title
}

// Identifiers returns the record's cross-reference bundle. S2ORC records
// carry no publication date or year.
func (r *S2ORCRecord) Identifiers() corpus.Identifiers {
	return corpus.Identifiers{
		MAG:   string(r.ExternalIDs.MAG),
		DOI:   corpus.NormalizeDOI(r.ExternalIDs.DOI),
		Title: r.Title(),
	}
}
