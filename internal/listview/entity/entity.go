// Package entity defines the references used to address items and group
// headers, either by position or by durable key.
package entity

import "fmt"

// Invalid marks an index that does not point at anything: an unset pivot, a
// lost focus or an item that has been removed.
const Invalid = -1

// Kind tells items and group headers apart.
type Kind int

const (
	KindItem Kind = iota
	KindHeader
)

func (k Kind) String() string {
	switch k {
	case KindItem:
		return "item"
	case KindHeader:
		return "header"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Ref is an entity reference. Either Index or Key (or both) identify the
// entity; for headers the index is the group index.
type Ref struct {
	Kind  Kind
	Index int
	Key   string
}

// Item returns an index-addressed item reference.
func Item(index int) Ref {
	return Ref{Kind: KindItem, Index: index}
}

// ItemKey returns a key-addressed item reference.
func ItemKey(key string) Ref {
	return Ref{Kind: KindItem, Index: Invalid, Key: key}
}

// Header returns an index-addressed group header reference.
func Header(group int) Ref {
	return Ref{Kind: KindHeader, Index: group}
}

// None is the empty reference.
func None() Ref {
	return Ref{Kind: KindItem, Index: Invalid}
}

// IsValid reports whether the reference points at something.
func (r Ref) IsValid() bool {
	return r.Index >= 0 || r.Key != ""
}

// HasIndex reports whether the positional form is set.
func (r Ref) HasIndex() bool {
	return r.Index >= 0
}

func (r Ref) String() string {
	switch {
	case r.Key != "" && r.Index >= 0:
		return fmt.Sprintf("%s[%d:%s]", r.Kind, r.Index, r.Key)
	case r.Key != "":
		return fmt.Sprintf("%s[%s]", r.Kind, r.Key)
	default:
		return fmt.Sprintf("%s[%d]", r.Kind, r.Index)
	}
}
