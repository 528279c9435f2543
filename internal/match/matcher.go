package match

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/corpus"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/ledger"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/openalex"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/store"
)

// DefaultBatchCap is the number of identifiers batched into one exact
// query. OpenAlex OR-filters accept at most 50 values.
const DefaultBatchCap = 50

// Querier issues filter queries against the works API.
type Querier interface {
	ListWorks(ctx context.Context, filter string) ([]openalex.Work, error)
}

// pending is the matcher's state for one unresolved paper.
type pending struct {
	ids       corpus.Identifiers
	partition corpus.Partition
}

// batch holds the queue for one strategy: payloads keyed by CorpusID plus
// insertion order, so flushes take records in arrival order.
type batch struct {
	order   []string
	payload map[string]string
}

func newBatch() *batch {
	return &batch{payload: make(map[string]string)}
}

func (b *batch) add(corpusID, payload string) {
	b.order = append(b.order, corpusID)
	b.payload[corpusID] = payload
}

// take removes and returns up to n entries in insertion order.
func (b *batch) take(n int) []string {
	if n > len(b.order) {
		n = len(b.order)
	}
	taken := b.order[:n]
	b.order = b.order[n:]
	return taken
}

func (b *batch) len() int { return len(b.order) }

// Matcher owns all record-linkage state: per-strategy batches, the pending
// identifier bundles, and the progress ledgers. It is single-threaded;
// concurrent runs must operate on disjoint shard ranges with their own
// ledgers.
type Matcher struct {
	store   store.Store
	client  Querier
	found   *ledger.Ledger
	unfound *ledger.Ledger
	log     zerolog.Logger

	cap     int
	batches [numStrategies]*batch
	pending map[string]pending
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithBatchCap overrides the per-strategy flush threshold.
func WithBatchCap(n int) Option {
	return func(m *Matcher) { m.cap = n }
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Matcher) { m.log = log }
}

// NewMatcher creates a Matcher writing matches into st and progress into
// the found/unfound ledgers.
func NewMatcher(st store.Store, client Querier, found, unfound *ledger.Ledger, opts ...Option) *Matcher {
	m := &Matcher{
		store:   st,
		client:  client,
		found:   found,
		unfound: unfound,
		log:     zerolog.Nop(),
		cap:     DefaultBatchCap,
		pending: make(map[string]pending),
	}
	for i := range m.batches {
		m.batches[i] = newBatch()
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Resolved reports whether a paper already has a terminal outcome.
func (m *Matcher) Resolved(corpusID string) bool {
	return m.found.Contains(corpusID) || m.unfound.Contains(corpusID)
}

// Pending returns the number of papers currently queued across all
// strategies.
func (m *Matcher) Pending() int { return len(m.pending) }

// Enqueue admits one paper into the cascade under the highest-priority
// strategy its identifiers allow. Papers with no usable identifier move
// straight to unfound. Reaching the batch cap for any strategy triggers a
// flush.
func (m *Matcher) Enqueue(ctx context.Context, p corpus.Partition, corpusID string, ids corpus.Identifiers) error {
	if m.Resolved(corpusID) {
		return nil
	}
	if _, ok := m.pending[corpusID]; ok {
		return nil
	}

	ids.DOI = corpus.NormalizeDOI(ids.DOI)
	if len(ids.Title) > corpus.MaxTitleLength {
		ids.Title = ""
	}

	s, payload, ok := selectStrategy(ids)
	if !ok {
		return m.markUnfound(p, corpusID)
	}

	m.pending[corpusID] = pending{ids: ids, partition: p}
	m.batches[s].add(corpusID, payload)
	return m.checkFrom(ctx, s, false)
}

// Flush force-drains every strategy in cascade order. Called at partition
// boundaries so records from two partitions never share an external call,
// and at end of input. Afterwards every admitted paper has a terminal
// outcome.
func (m *Matcher) Flush(ctx context.Context) error {
	for _, s := range Cascade {
		if err := m.checkFrom(ctx, s, true); err != nil {
			return err
		}
	}
	return nil
}

// checkFrom flushes strategy s if ready, then eagerly checks each
// lower-priority strategy in turn: a flush can demote records downward,
// and the chain keeps memory bounded when one identifier type dominates.
func (m *Matcher) checkFrom(ctx context.Context, s Strategy, bypass bool) error {
	for ; s < numStrategies; s++ {
		b := m.batches[s]
		if bypass {
			for b.len() > 0 {
				if err := m.runBatch(ctx, s); err != nil {
					return err
				}
			}
			continue
		}
		for b.len() >= m.cap {
			if err := m.runBatch(ctx, s); err != nil {
				return err
			}
		}
	}
	return nil
}

// runBatch executes one batch for a strategy: up to cap records leave the
// queue, are queried, and each either commits as found or demotes to its
// next usable level.
func (m *Matcher) runBatch(ctx context.Context, s Strategy) error {
	taken := m.batches[s].take(m.cap)
	if len(taken) == 0 {
		return nil
	}

	m.log.Debug().
		Str("strategy", s.String()).
		Int("batch", len(taken)).
		Int("pending", len(m.pending)).
		Msg("running batch")

	if s.Exact() {
		return m.runExactBatch(ctx, s, taken)
	}
	return m.runTextualBatch(ctx, s, taken)
}

// runExactBatch issues one OR-filter call for the whole batch and matches
// results back by identifier value. DOIs compare case-insensitively, so
// both sides are lower-cased before the membership check.
func (m *Matcher) runExactBatch(ctx context.Context, s Strategy, taken []string) error {
	values := make([]string, len(taken))
	byValue := make(map[string]string, len(taken))
	for i, corpusID := range taken {
		v := m.batches[s].payload[corpusID]
		values[i] = v
		byValue[v] = corpusID
		delete(m.batches[s].payload, corpusID)
	}

	works, err := m.client.ListWorks(ctx, orFilter(s, values))
	if err != nil {
		return fmt.Errorf("querying %s batch: %w", s, err)
	}

	matched := make(map[string]bool, len(taken))
	for i := range works {
		w := &works[i]
		var reported string
		switch s {
		case StrategyMAG:
			reported = w.IDs.MAG
		case StrategyDOI:
			reported = corpus.ParseDOIID(w.IDs.DOI)
		}
		corpusID, ok := byValue[reported]
		if !ok || matched[corpusID] {
			continue
		}
		matched[corpusID] = true
		if err := m.commit(corpusID, w, s); err != nil {
			return err
		}
	}

	for _, corpusID := range taken {
		if !matched[corpusID] {
			if err := m.demote(corpusID, s); err != nil {
				return err
			}
		}
	}
	return nil
}

// runTextualBatch issues one query per record (the search endpoint cannot
// batch textual filters) and accepts the first result whose normalized
// title equals the record's. The search engine returns best-effort
// matches, so the equality check guards against near misses.
func (m *Matcher) runTextualBatch(ctx context.Context, s Strategy, taken []string) error {
	for _, corpusID := range taken {
		filter := m.batches[s].payload[corpusID]
		delete(m.batches[s].payload, corpusID)

		works, err := m.client.ListWorks(ctx, filter)
		if err != nil {
			return fmt.Errorf("querying %s for %s: %w", s, corpusID, err)
		}

		want := corpus.NormalizeTitle(m.pending[corpusID].ids.Title)
		committed := false
		for i := range works {
			if corpus.NormalizeTitle(works[i].Title) == want {
				if err := m.commit(corpusID, &works[i], s); err != nil {
					return err
				}
				committed = true
				break
			}
		}
		if !committed {
			if err := m.demote(corpusID, s); err != nil {
				return err
			}
		}
	}
	return nil
}

// commit writes the matched work record with linkage provenance, records
// the paper as found, and clears its pending state.
func (m *Matcher) commit(corpusID string, w *openalex.Work, s Strategy) error {
	p := m.pending[corpusID]

	workID := corpus.ParseWorkID(w.ID)
	rel := store.WorkFile(p.partition, corpusID, workID)

	if !m.store.Exists(rel) {
		var record map[string]any
		if err := json.Unmarshal(w.Raw, &record); err != nil {
			return fmt.Errorf("decoding work %s: %w", workID, err)
		}
		record["isACL"] = p.partition.IsACL()
		record["corpusId"] = corpusID
		record["foundVia"] = s.String()

		if err := m.store.PutJSON(rel, record); err != nil {
			return err
		}
	}

	if err := m.found.Add(corpusID); err != nil {
		return err
	}
	delete(m.pending, corpusID)

	m.log.Debug().
		Str("corpus_id", corpusID).
		Str("work_id", workID).
		Str("found_via", s.String()).
		Msg("matched")
	return nil
}

// demote moves a paper that failed at level s to its next usable level,
// or marks it unfound when the cascade is exhausted.
func (m *Matcher) demote(corpusID string, s Strategy) error {
	p, ok := m.pending[corpusID]
	if !ok {
		return nil
	}

	s.clearField(&p.ids)
	m.pending[corpusID] = p

	next, payload, ok := selectStrategy(p.ids)
	if !ok {
		return m.markUnfoundPending(corpusID)
	}
	m.batches[next].add(corpusID, payload)
	return nil
}

// markUnfound records a terminal negative outcome for a paper that was
// never admitted to a batch.
func (m *Matcher) markUnfound(p corpus.Partition, corpusID string) error {
	if err := m.store.Touch(store.SentinelFile(p, corpusID)); err != nil {
		return err
	}
	if err := m.unfound.Add(corpusID); err != nil {
		return err
	}
	m.log.Debug().Str("corpus_id", corpusID).Msg("unfound")
	return nil
}

// markUnfoundPending is markUnfound for a paper with pending state.
func (m *Matcher) markUnfoundPending(corpusID string) error {
	p := m.pending[corpusID]
	delete(m.pending, corpusID)
	return m.markUnfound(p.partition, corpusID)
}

// orFilter builds the exact-identifier OR-filter for one batch.
func orFilter(s Strategy, values []string) string {
	filter := s.String() + ":"
	for i, v := range values {
		if i > 0 {
			filter += "|"
		}
		filter += v
	}
	return filter
}
