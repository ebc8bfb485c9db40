// Package notify buffers data source change notifications into batches,
// applies them to the Index/Key Map and the Group Index in arrival order,
// and hands each batch on for diffing.
package notify

import (
	"log/slog"

	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/groups"
	"github.com/charmbracelet/listview/internal/listview/indexmap"
)

// Queue is the Notification Queue / Batching Engine. It implements
// datasource.Listener.
type Queue struct {
	keys   *indexmap.Map
	groups *groups.Index

	onBatch func(edit.Batch)
	onError func(error)

	depth    int
	buffered []edit.Edit

	// pending is the union of affected ranges whose layout pass has not
	// settled yet.
	pending  edit.Range
	inflight bool

	gen      uint64
	reported bool
}

// New creates a queue bound to the maps it keeps up to date. onBatch
// receives every flushed batch; onError receives the first invalid
// notification of each generation.
func New(keys *indexmap.Map, gs *groups.Index, onBatch func(edit.Batch), onError func(error)) *Queue {
	return &Queue{
		keys:    keys,
		groups:  gs,
		onBatch: onBatch,
		onError: onError,
	}
}

// Generation returns the current data source generation.
func (q *Queue) Generation() uint64 { return q.gen }

// Depth returns the BeginEdits nesting depth.
func (q *Queue) Depth() int { return q.depth }

// Buffered returns how many edits wait for EndEdits.
func (q *Queue) Buffered() int { return len(q.buffered) }

// BeginEdits opens a batch. Batches nest; only the outermost EndEdits
// flushes.
func (q *Queue) BeginEdits() {
	q.depth++
}

// EndEdits closes a batch and flushes it when it is the outermost one.
func (q *Queue) EndEdits() {
	if q.depth == 0 {
		slog.Debug("EndEdits without BeginEdits ignored")
		return
	}
	q.depth--
	if q.depth > 0 {
		return
	}
	edits := q.buffered
	q.buffered = nil
	q.flush(edits)
}

// Notify receives one edit. Outside of a batch it is flushed immediately as
// a batch of one.
func (q *Queue) Notify(e edit.Edit) {
	if q.depth > 0 {
		q.buffered = append(q.buffered, e)
		return
	}
	q.flush([]edit.Edit{e})
}

func (q *Queue) flush(edits []edit.Edit) {
	if len(edits) == 0 {
		return
	}
	before := q.keys.Count()
	count := before
	batch := edit.Batch{CountBefore: before}
	for _, e := range edits {
		if err := e.Validate(count); err != nil {
			q.report(err)
			continue
		}
		batch.Affected = batch.Affected.Union(e.Span(count))
		count += e.Delta()
		batch.Edits = append(batch.Edits, e)
	}
	if len(batch.Edits) == 0 {
		return
	}
	if err := q.keys.Remap(batch.Edits...); err != nil {
		q.report(err)
		return
	}
	for _, e := range batch.Edits {
		if err := q.groups.Apply(e); err != nil {
			q.report(err)
		}
	}
	batch.CountAfter = count
	slog.Debug("Flushing edit batch", "edits", len(batch.Edits), "affected", batch.Affected.String(), "count", count)
	q.onBatch(batch)
}

func (q *Queue) report(err error) {
	if q.reported {
		slog.Debug("Dropping invalid notification", "error", err)
		return
	}
	q.reported = true
	slog.Warn("Data source sent an invalid notification", "error", err)
	if q.onError != nil {
		q.onError(err)
	}
}

// BeginPass records that a layout pass covering r is about to run and
// returns the range the pass must cover: r unioned with every range whose
// pass was interrupted before it settled.
func (q *Queue) BeginPass(r edit.Range) edit.Range {
	q.pending = q.pending.Union(r)
	q.inflight = true
	return q.pending
}

// InFlight reports whether a layout pass is outstanding.
func (q *Queue) InFlight() bool { return q.inflight }

// Pending returns the union of unsettled affected ranges.
func (q *Queue) Pending() edit.Range { return q.pending }

// Settle marks the outstanding pass as complete.
func (q *Queue) Settle() {
	q.pending = edit.Range{}
	q.inflight = false
}

// Reset discards buffered and in-flight work, for instance when the data
// source is swapped. Nothing buffered is applied.
func (q *Queue) Reset() {
	q.depth = 0
	q.buffered = nil
	q.pending = edit.Range{}
	q.inflight = false
	q.reported = false
	q.gen++
}
