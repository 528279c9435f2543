package store

// BatchWriter accumulates pending JSON writes and flushes them in groups
// to amortize filesystem overhead when extracting multi-hundred-gigabyte
// dumps. Queueing a path that already exists in the store is a no-op, so
// replaying an input shard produces zero new writes.
type BatchWriter struct {
	store   Store
	cap     int
	pending map[string]any
	written int
}

// NewBatchWriter returns a BatchWriter flushing automatically once cap
// entries are pending.
func NewBatchWriter(s Store, cap int) *BatchWriter {
	return &BatchWriter{
		store:   s,
		cap:     cap,
		pending: make(map[string]any, cap),
	}
}

// Queue schedules v for writing at rel unless the file already exists or
// is already pending. Triggers a flush when the batch reaches capacity.
func (w *BatchWriter) Queue(rel string, v any) error {
	if _, ok := w.pending[rel]; ok {
		return nil
	}
	if w.store.Exists(rel) {
		return nil
	}

	w.pending[rel] = v
	if len(w.pending) >= w.cap {
		return w.Flush()
	}
	return nil
}

// Flush writes all pending entries.
func (w *BatchWriter) Flush() error {
	for rel, v := range w.pending {
		if err := w.store.PutJSON(rel, v); err != nil {
			return err
		}
		w.written++
	}
	w.pending = make(map[string]any, w.cap)
	return nil
}

// Pending returns the number of queued, unwritten entries.
func (w *BatchWriter) Pending() int { return len(w.pending) }

// Written returns the number of files written so far.
func (w *BatchWriter) Written() int { return w.written }
