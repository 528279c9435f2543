// Package openalex provides a rate-limited client for the OpenAlex works
// API, used to link corpus papers to their OpenAlex records.
package openalex

import (
	"encoding/json"
	"fmt"
)

// Work represents one OpenAlex work. Only the fields needed for record
// linkage are decoded; Raw preserves the complete API response body so the
// stored match record keeps every field OpenAlex returned.
type Work struct {
	ID    string  `json:"id"` // URI form, e.g. https://openalex.org/W2741809807
	IDs   WorkIDs `json:"ids"`
	Title string  `json:"title"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the linkage fields and retains the raw body.
func (w *Work) UnmarshalJSON(data []byte) error {
	type alias Work
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*w = Work(a)
	w.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// WorkIDs holds the external identifiers OpenAlex reports for a work.
type WorkIDs struct {
	OpenAlex string
	DOI      string // URI form, e.g. https://doi.org/10.7717/peerj.4375
	MAG      string
}

// UnmarshalJSON tolerates MAG IDs arriving as either JSON strings or
// numbers; the dumps and the API have not been consistent about this.
func (ids *WorkIDs) UnmarshalJSON(data []byte) error {
	var m struct {
		OpenAlex string          `json:"openalex"`
		DOI      string          `json:"doi"`
		MAG      json.RawMessage `json:"mag"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	ids.OpenAlex = m.OpenAlex
	ids.DOI = m.DOI

	if len(m.MAG) > 0 {
		var s string
		if err := json.Unmarshal(m.MAG, &s); err == nil {
			ids.MAG = s
		} else {
			var n json.Number
			if err := json.Unmarshal(m.MAG, &n); err != nil {
				return fmt.Errorf("parsing mag id: %w", err)
			}
			ids.MAG = n.String()
		}
	}
	return nil
}

// listResponse is the paged envelope the works endpoint returns.
type listResponse struct {
	Results []Work `json:"results"`

	// The API reports failures inside a 200/403 JSON body.
	ErrorMsg string `json:"error"`
	Message  string `json:"message"`
}
