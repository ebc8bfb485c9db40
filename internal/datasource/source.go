// Package datasource defines the change-notifying data source contract the
// list view consumes and provides in-memory, file and filtered sources.
package datasource

import (
	"context"
	"errors"

	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/groups"
)

// ErrDuplicateKey is returned when an item key is already in the source.
var ErrDuplicateKey = errors.New("duplicate item key")

// Item is one record of a data source.
type Item struct {
	Key   string `json:"key" yaml:"key"`
	Group string `json:"group,omitempty" yaml:"group,omitempty"`
	Text  string `json:"text" yaml:"text"`
	// Detail is an optional second line.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
	// Matches holds the rune positions of Text that matched a filter.
	Matches []int `json:"-" yaml:"-"`
}

// Result is the answer to a window fetch. Items[Offset] is the requested
// item, found at AbsoluteIndex in the source.
type Result struct {
	Items         []Item
	Offset        int
	AbsoluteIndex int
	Total         int
}

// Listener receives change notifications. Edits delivered between
// BeginEdits and EndEdits form one batch.
type Listener interface {
	BeginEdits()
	EndEdits()
	Notify(e edit.Edit)
}

// Source is a change-notifying data source.
type Source interface {
	Count(ctx context.Context) (int, error)
	// ItemsFromIndex returns up to before items ahead of index, the item at
	// index and up to after items behind it.
	ItemsFromIndex(ctx context.Context, index, before, after int) (Result, error)
	// ItemsFromKey is ItemsFromIndex addressed by key.
	ItemsFromKey(ctx context.Context, key string, before, after int) (Result, error)
	// Subscribe registers l and returns a function that removes it.
	Subscribe(l Listener) (unsubscribe func())
}

// Grouped is implemented by sources that partition their items.
type Grouped interface {
	Groups(ctx context.Context) ([]groups.Group, error)
}

// window slices items around index.
func window(items []Item, index, before, after int) Result {
	lo := max(0, index-before)
	hi := min(len(items), index+after+1)
	out := make([]Item, hi-lo)
	copy(out, items[lo:hi])
	return Result{
		Items:         out,
		Offset:        index - lo,
		AbsoluteIndex: index,
		Total:         len(items),
	}
}

// groupRuns derives contiguous groups from Item.Group.
func groupRuns(items []Item) []groups.Group {
	var out []groups.Group
	for i, it := range items {
		if len(out) > 0 && out[len(out)-1].Key == it.Group {
			out[len(out)-1].Count++
			continue
		}
		out = append(out, groups.Group{Key: it.Group, Start: i, Count: 1, Header: it.Group})
	}
	return out
}

func keysOf(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Key
	}
	return out
}

// GroupsOf returns the group keys of items, in order.
func GroupsOf(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Group
	}
	return out
}
