package listview

import (
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/groups"
	"github.com/charmbracelet/listview/internal/listview/indexmap"
	"github.com/charmbracelet/listview/internal/listview/layout"
	"github.com/charmbracelet/listview/internal/listview/selection"
)

// host is what the layout and the selection machine see of the view.
type host struct {
	lv *ListView
}

var (
	_ layout.Host         = host{}
	_ selection.FocusHost = host{}
)

func (h host) Count() int { return h.lv.keys.Count() }

func (h host) Groups() []groups.Group { return h.lv.groups.Groups() }

func (h host) ViewportSize() (int, int) { return h.lv.width, h.lv.height }

func (h host) KeyForIndex(i int) (string, error) { return h.lv.keys.KeyForIndex(i) }

func (h host) IndexForKey(key string) (int, error) { return h.lv.keys.IndexForKey(key) }

func (h host) GroupCount() int { return h.lv.groups.Len() }

func (h host) GroupForIndex(i int) (int, error) { return h.lv.groups.GroupForIndex(i) }

func (h host) GroupRange(gi int) (int, int, error) { return h.lv.groups.GroupRange(gi) }

func (h host) GroupKey(gi int) string {
	g, err := h.lv.groups.Group(gi)
	if err != nil {
		return ""
	}
	return g.Key
}

func (h host) Navigate(ref entity.Ref, dir entity.Direction) (entity.Ref, error) {
	return h.lv.layout.Navigate(ref, dir)
}

func (h host) EnsureVisible(ref entity.Ref) {
	h.lv.scrollTo(ref)
}

func (h host) Track(ref entity.Ref) *indexmap.Handle { return h.lv.keys.Track(ref) }

func (h host) Release(hd *indexmap.Handle) { h.lv.keys.Release(hd) }
