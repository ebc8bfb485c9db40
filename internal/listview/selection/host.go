package selection

import (
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/indexmap"
)

// SelectionHost resolves items for the selection half of the machine.
type SelectionHost interface {
	Count() int
	KeyForIndex(i int) (string, error)
	IndexForKey(key string) (int, error)
}

// FocusHost adds what keyboard focus needs: the group structure and the
// layout's navigation callback.
type FocusHost interface {
	SelectionHost
	// GroupCount is zero for ungrouped lists.
	GroupCount() int
	GroupForIndex(i int) (int, error)
	GroupRange(group int) (start, count int, err error)
	GroupKey(group int) string
	// Navigate asks the layout which entity lies in direction dir from
	// ref.
	Navigate(ref entity.Ref, dir entity.Direction) (entity.Ref, error)
	// EnsureVisible scrolls ref into view.
	EnsureVisible(ref entity.Ref)
	// Track follows ref through edits until it is released.
	Track(ref entity.Ref) *indexmap.Handle
	Release(h *indexmap.Handle)
}
