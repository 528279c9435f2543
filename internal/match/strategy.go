// Package match implements the record-linkage engine that resolves corpus
// papers to OpenAlex works. Each paper descends a fixed cascade of
// identifier strategies, batched per strategy to minimize API calls, with
// found/unfound progress ledgers making interrupted runs resumable.
package match

import (
	"strconv"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/corpus"
)

// Strategy is one level of the identifier cascade. Lower values are tried
// first.
type Strategy int

const (
	// StrategyMAG matches on the Microsoft Academic Graph ID.
	StrategyMAG Strategy = iota
	// StrategyDOI matches on the DOI.
	StrategyDOI
	// StrategyTitleDate searches by title narrowed to a publication date.
	StrategyTitleDate
	// StrategyTitleYear searches by title narrowed to a publication year.
	StrategyTitleYear
	// StrategyTitleOnly searches by title alone.
	StrategyTitleOnly

	numStrategies
)

// Cascade lists all strategies in priority order.
var Cascade = [numStrategies]Strategy{
	StrategyMAG, StrategyDOI, StrategyTitleDate, StrategyTitleYear, StrategyTitleOnly,
}

// String returns the provenance label recorded as foundVia.
func (s Strategy) String() string {
	switch s {
	case StrategyMAG:
		return "mag"
	case StrategyDOI:
		return "doi"
	case StrategyTitleDate:
		return "date"
	case StrategyTitleYear:
		return "year"
	case StrategyTitleOnly:
		return "title"
	}
	return "unknown"
}

// Exact reports whether the strategy queries identifiers verbatim.
// Exact strategies batch many identifiers into one OR-filter call;
// textual strategies require one query per record.
func (s Strategy) Exact() bool {
	return s == StrategyMAG || s == StrategyDOI
}

// Payload builds the query payload for a record at this level. For exact
// strategies the payload is the raw identifier; for textual strategies it
// is a complete filter expression. Returns false when a required field is
// absent, meaning this level must be skipped.
func (s Strategy) Payload(ids corpus.Identifiers) (string, bool) {
	switch s {
	case StrategyMAG:
		return ids.MAG, ids.MAG != ""
	case StrategyDOI:
		return ids.DOI, ids.DOI != ""
	case StrategyTitleDate:
		if ids.Title == "" || ids.Date == "" {
			return "", false
		}
		return corpus.TitleSearchFilter(ids.Title, "date", ids.Date), true
	case StrategyTitleYear:
		if ids.Title == "" || ids.Year == 0 {
			return "", false
		}
		return corpus.TitleSearchFilter(ids.Title, "year", strconv.Itoa(ids.Year)), true
	case StrategyTitleOnly:
		if ids.Title == "" {
			return "", false
		}
		return corpus.TitleSearchFilter(ids.Title, "", ""), true
	}
	return "", false
}

// clearField nulls the identifier field this strategy depends on, making
// the level unusable for future selection after a failed attempt.
func (s Strategy) clearField(ids *corpus.Identifiers) {
	switch s {
	case StrategyMAG:
		ids.MAG = ""
	case StrategyDOI:
		ids.DOI = ""
	case StrategyTitleDate:
		ids.Date = ""
	case StrategyTitleYear:
		ids.Year = 0
	case StrategyTitleOnly:
		ids.Title = ""
	}
}

// selectStrategy returns the highest-priority strategy with a usable
// payload, or false when the cascade is exhausted.
func selectStrategy(ids corpus.Identifiers) (Strategy, string, bool) {
	for _, s := range Cascade {
		if payload, ok := s.Payload(ids); ok {
			return s, payload, true
		}
	}
	return 0, "", false
}
