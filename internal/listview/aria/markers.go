// Package aria derives the accessibility flow linkage and position
// attributes of the realized window.
package aria

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/listview/internal/listview/edit"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/groups"
)

// Marker IDs. The start marker precedes the first realized node; the end
// marker follows the last one.
const (
	StartMarker = "start"
	EndMarker   = "end"
)

// ID returns the node ID of an entity.
func ID(ref entity.Ref) string {
	name := ref.Key
	if name == "" {
		name = fmt.Sprint(ref.Index)
	}
	return ref.Kind.String() + ":" + name
}

// Node is one annotated element.
type Node struct {
	Ref       entity.Ref
	ID        string
	FlowsFrom string
	FlowsTo   string
	// PosInSet is 1-based; SetSize is the size of the enclosing set: the
	// group for items of a grouped list, the list otherwise, the header
	// track for headers.
	PosInSet int
	SetSize  int
}

// Annotation is the full set of markers for one settled state.
type Annotation struct {
	// StartFlowsTo is the first node, or EndMarker.
	StartFlowsTo string
	// EndFlowsFrom is the last node, or StartMarker.
	EndFlowsFrom string
	Nodes        []Node
}

// Linked reports whether the markers point at nodes.
func (a Annotation) Linked() bool { return len(a.Nodes) > 0 }

// Node returns the node with the given ID.
func (a Annotation) Node(id string) (Node, bool) {
	i := slices.IndexFunc(a.Nodes, func(n Node) bool { return n.ID == id })
	if i < 0 {
		return Node{}, false
	}
	return a.Nodes[i], true
}

// Input describes the realized state to annotate.
type Input struct {
	Window edit.Range
	Count  int
	Groups []groups.Group
	// ItemRealized reports whether item i has a live container. Holes
	// report false.
	ItemRealized func(i int) bool
	// KeyAt returns the key of item i, or "".
	KeyAt func(i int) string
	// HeaderRealized reports whether the header of group gi is rendered.
	HeaderRealized func(gi int) bool
}

// Compute builds the annotation. When the first or last index of the window
// is still a hole the markers link to each other and no node is annotated.
func Compute(in Input) Annotation {
	empty := Annotation{StartFlowsTo: EndMarker, EndFlowsFrom: StartMarker}
	w := in.Window.Clamp(in.Count)
	if w.Empty() || in.ItemRealized == nil {
		return empty
	}
	if !in.ItemRealized(w.Start) || !in.ItemRealized(w.End-1) {
		return empty
	}
	keyAt := func(i int) string {
		if in.KeyAt == nil {
			return ""
		}
		return in.KeyAt(i)
	}
	headerRealized := func(gi int) bool {
		return in.HeaderRealized != nil && in.HeaderRealized(gi)
	}

	var nodes []Node
	item := func(i, pos, size int) {
		if !in.ItemRealized(i) {
			return
		}
		ref := entity.Ref{Kind: entity.KindItem, Index: i, Key: keyAt(i)}
		nodes = append(nodes, Node{Ref: ref, ID: ID(ref), PosInSet: pos, SetSize: size})
	}

	if len(in.Groups) == 0 {
		for i := w.Start; i < w.End; i++ {
			item(i, i+1, in.Count)
		}
	} else {
		for gi, g := range in.Groups {
			if g.Count == 0 || g.Range().Intersect(w).Empty() {
				continue
			}
			if headerRealized(gi) {
				ref := entity.Ref{Kind: entity.KindHeader, Index: gi, Key: g.Key}
				nodes = append(nodes, Node{Ref: ref, ID: ID(ref), PosInSet: gi + 1, SetSize: len(in.Groups)})
			}
			r := g.Range().Intersect(w)
			for i := r.Start; i < r.End; i++ {
				item(i, i-g.Start+1, g.Count)
			}
		}
	}

	for k := range nodes {
		nodes[k].FlowsFrom = StartMarker
		if k > 0 {
			nodes[k].FlowsFrom = nodes[k-1].ID
		}
		nodes[k].FlowsTo = EndMarker
		if k < len(nodes)-1 {
			nodes[k].FlowsTo = nodes[k+1].ID
		}
	}
	return Annotation{
		StartFlowsTo: nodes[0].ID,
		EndFlowsFrom: nodes[len(nodes)-1].ID,
		Nodes:        nodes,
	}
}

// Updater recomputes the annotation on every settle and remembers the last
// result.
type Updater struct {
	last   Annotation
	passes int
}

// NewUpdater returns an updater whose markers link to each other.
func NewUpdater() *Updater {
	return &Updater{last: Annotation{StartFlowsTo: EndMarker, EndFlowsFrom: StartMarker}}
}

// Update recomputes the annotation. It reports whether anything changed.
func (u *Updater) Update(in Input) (Annotation, bool) {
	next := Compute(in)
	u.passes++
	changed := !equal(u.last, next)
	u.last = next
	return next, changed
}

// Last returns the most recent annotation.
func (u *Updater) Last() Annotation { return u.last }

// Passes returns how many times Update ran.
func (u *Updater) Passes() int { return u.passes }

// Reset forgets the last annotation.
func (u *Updater) Reset() {
	u.last = Annotation{StartFlowsTo: EndMarker, EndFlowsFrom: StartMarker}
}

func equal(a, b Annotation) bool {
	return a.StartFlowsTo == b.StartFlowsTo &&
		a.EndFlowsFrom == b.EndFlowsFrom &&
		slices.Equal(a.Nodes, b.Nodes)
}
