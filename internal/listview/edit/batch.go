package edit

// Batch is an ordered sequence of edits applied as one unit, either because
// they arrived between BeginEdits and EndEdits or because a single edit
// arrived on its own.
type Batch struct {
	Edits []Edit
	// Affected is the union of each edit's own span.
	Affected Range
	// CountBefore and CountAfter bracket the item count.
	CountBefore int
	CountAfter  int
}

// Affected computes the union of the spans of edits applied in order to a
// list that starts with count items.
func Affected(count int, edits ...Edit) Range {
	var r Range
	for _, e := range edits {
		r = r.Union(e.Span(count))
		count += e.Delta()
	}
	return r
}

// HasReload reports whether any edit in the batch is a reload.
func (b Batch) HasReload() bool {
	for _, e := range b.Edits {
		if e.Op == OpReload {
			return true
		}
	}
	return false
}

// MapIndex carries an index through every edit of the batch.
func (b Batch) MapIndex(i int) (int, bool) {
	for _, e := range b.Edits {
		var ok bool
		if i, ok = e.MapIndex(i); !ok {
			return i, false
		}
	}
	return i, true
}

// Changed reports whether the item found at oldIndex before the batch was
// the target of a Change edit while it travelled through the batch.
func (b Batch) Changed(oldIndex int) bool {
	i := oldIndex
	for _, e := range b.Edits {
		if e.Op == OpChange && e.At == i {
			return true
		}
		var ok bool
		if i, ok = e.MapIndex(i); !ok {
			return false
		}
	}
	return false
}
