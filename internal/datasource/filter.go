package datasource

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

type textSource []Item

func (s textSource) String(i int) string { return s[i].Text }

func (s textSource) Len() int { return len(s) }

// Filter returns the items whose text fuzzy-matches query, in their
// original order so groups stay contiguous. An empty query keeps
// everything.
func Filter(items []Item, query string) []Item {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]Item, len(items))
		for i, it := range items {
			it.Matches = nil
			out[i] = it
		}
		return out
	}
	matches := fuzzy.FindFrom(query, textSource(items))
	sort.Slice(matches, func(a, b int) bool { return matches[a].Index < matches[b].Index })
	out := make([]Item, 0, len(matches))
	for _, m := range matches {
		it := items[m.Index]
		it.Matches = m.MatchedIndexes
		out = append(out, it)
	}
	return out
}

// NewFiltered builds a fresh source over the items of base that match
// query. Swapping a control to it resets selection and focus.
func NewFiltered(base *Memory, query string) (*Memory, error) {
	return NewMemory(Filter(base.Items(), query), base.optionsCopy()...)
}

func (m *Memory) optionsCopy() []MemoryOption {
	var out []MemoryOption
	if m.opts.grouped {
		out = append(out, WithGrouping())
	}
	if m.opts.gate != nil {
		out = append(out, WithFetchGate(m.opts.gate))
	}
	return out
}
