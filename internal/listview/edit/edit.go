// Package edit models the structural change notifications a data source
// emits and the batches they are grouped into.
package edit

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/listview/internal/listview/entity"
)

// Op is the kind of an Edit.
type Op int

const (
	OpInsert Op = iota
	OpRemove
	OpMove
	OpChange
	OpReload
)

func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	case OpMove:
		return "move"
	case OpChange:
		return "change"
	case OpReload:
		return "reload"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// ParseOp parses the lowercase name of an Op.
func ParseOp(s string) (Op, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "insert":
		return OpInsert, nil
	case "remove":
		return OpRemove, nil
	case "move":
		return OpMove, nil
	case "change":
		return OpChange, nil
	case "reload":
		return OpReload, nil
	}
	return 0, fmt.Errorf("unknown edit op %q", s)
}

// Edit is a single structural change. Which fields are meaningful depends
// on Op:
//
//	Insert{At, Count, Keys, Groups}  Remove{At, Count}  Move{From, To, Group}
//	Change{At, Key, Group}           Reload{}
type Edit struct {
	Op    Op
	At    int
	Count int
	From  int
	To    int
	// Keys of inserted items, in order. Optional.
	Keys []string
	// Key of a changed item. Optional.
	Key string
	// Groups holds the group keys of inserted items, in order. Optional.
	Groups []string
	// Group is the group key of a moved or changed item. Optional.
	Group string
}

// Insert creates an insert of count items at index at.
func Insert(at, count int, keys ...string) Edit {
	return Edit{Op: OpInsert, At: at, Count: count, Keys: keys}
}

// InsertKeys creates an insert of the given keys at index at.
func InsertKeys(at int, keys ...string) Edit {
	return Edit{Op: OpInsert, At: at, Count: len(keys), Keys: keys}
}

// InGroups returns a copy of an insert carrying the group key of every
// inserted item.
func (e Edit) InGroups(keys ...string) Edit {
	e.Groups = keys
	return e
}

// InGroup returns a copy of a move or change carrying the item's group key.
func (e Edit) InGroup(key string) Edit {
	e.Group = key
	return e
}

// Remove creates a removal of count items starting at index at.
func Remove(at, count int) Edit {
	return Edit{Op: OpRemove, At: at, Count: count}
}

// Move relocates the item at from so that it ends up at to.
func Move(from, to int) Edit {
	return Edit{Op: OpMove, From: from, To: to}
}

// Change marks the data of the item at index at as changed.
func Change(at int) Edit {
	return Edit{Op: OpChange, At: at}
}

// Reload invalidates everything.
func Reload() Edit {
	return Edit{Op: OpReload}
}

// Span returns the index range this edit touches, expressed in the index
// space in effect right before the edit. A reload touches [0, count).
func (e Edit) Span(count int) Range {
	switch e.Op {
	case OpInsert, OpRemove:
		return Span(e.At, e.Count)
	case OpMove:
		return Range{Start: min(e.From, e.To), End: max(e.From, e.To) + 1}
	case OpChange:
		return Span(e.At, 1)
	default:
		return Range{Start: 0, End: max(count, 1)}
	}
}

// Delta returns how the item count changes when the edit is applied.
func (e Edit) Delta() int {
	switch e.Op {
	case OpInsert:
		return e.Count
	case OpRemove:
		return -e.Count
	default:
		return 0
	}
}

// Validate checks the edit against the item count it is applied to.
func (e Edit) Validate(count int) error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s %s (count %d)", entity.ErrInvalidEdit, e.Op, fmt.Sprintf(format, args...), count)
	}
	switch e.Op {
	case OpInsert:
		if e.Count <= 0 || e.At < 0 || e.At > count {
			return bad("at=%d n=%d", e.At, e.Count)
		}
		if len(e.Keys) != 0 && len(e.Keys) != e.Count {
			return bad("has %d keys for %d items", len(e.Keys), e.Count)
		}
		if len(e.Groups) != 0 && len(e.Groups) != e.Count {
			return bad("has %d group keys for %d items", len(e.Groups), e.Count)
		}
	case OpRemove:
		if e.Count <= 0 || e.At < 0 || e.At+e.Count > count {
			return bad("at=%d n=%d", e.At, e.Count)
		}
	case OpMove:
		if e.From < 0 || e.From >= count || e.To < 0 || e.To >= count {
			return bad("from=%d to=%d", e.From, e.To)
		}
	case OpChange:
		if e.At < 0 || e.At >= count {
			return bad("at=%d", e.At)
		}
	case OpReload:
	default:
		return bad("unknown op")
	}
	return nil
}

// MapIndex carries an index from before the edit to after it. The second
// result is false when the edit removed the index (a reload removes all).
func (e Edit) MapIndex(i int) (int, bool) {
	switch e.Op {
	case OpInsert:
		if i >= e.At {
			return i + e.Count, true
		}
	case OpRemove:
		switch {
		case i >= e.At+e.Count:
			return i - e.Count, true
		case i >= e.At:
			return entity.Invalid, false
		}
	case OpMove:
		switch {
		case i == e.From:
			return e.To, true
		case e.From < e.To && i > e.From && i <= e.To:
			return i - 1, true
		case e.From > e.To && i >= e.To && i < e.From:
			return i + 1, true
		}
	case OpReload:
		return entity.Invalid, false
	}
	return i, true
}

func (e Edit) String() string {
	switch e.Op {
	case OpInsert, OpRemove:
		return fmt.Sprintf("%s{at=%d n=%d}", e.Op, e.At, e.Count)
	case OpMove:
		return fmt.Sprintf("%s{%d->%d}", e.Op, e.From, e.To)
	case OpChange:
		return fmt.Sprintf("%s{at=%d}", e.Op, e.At)
	default:
		return e.Op.String()
	}
}
