package listview

import (
	"github.com/charmbracelet/bubbles/v2/help"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

// Styles are the lipgloss styles of the list component.
type Styles struct {
	Base     lipgloss.Style
	Item     lipgloss.Style
	Detail   lipgloss.Style
	Focused  lipgloss.Style
	Selected lipgloss.Style
	Match    lipgloss.Style
	Header   lipgloss.Style
	// HeaderFocused is used for a header that holds keyboard focus.
	HeaderFocused lipgloss.Style
	Changed       lipgloss.Style
	Placeholder   lipgloss.Style
	Status        lipgloss.Style
	Error         lipgloss.Style
	Help          help.Styles
}

func DefaultStyles() Styles {
	var (
		primary   = charmtone.Charple
		secondary = charmtone.Dolly
		accent    = charmtone.Guac
		muted     = charmtone.Squid
		subtle    = charmtone.Oyster
		fg        = charmtone.Ash
		errColor  = charmtone.Sriracha
	)
	base := lipgloss.NewStyle().Foreground(fg)
	h := help.New().Styles
	h.ShortKey = lipgloss.NewStyle().Foreground(muted)
	h.ShortDesc = lipgloss.NewStyle().Foreground(subtle)
	h.FullKey = h.ShortKey
	h.FullDesc = h.ShortDesc
	return Styles{
		Base:          base,
		Item:          base.PaddingLeft(1),
		Detail:        base.Foreground(muted).PaddingLeft(1),
		Focused:       base.Background(primary).PaddingLeft(1),
		Selected:      base.Foreground(accent).PaddingLeft(1),
		Match:         lipgloss.NewStyle().Foreground(secondary).Underline(true),
		Header:        base.Foreground(secondary).Bold(true),
		HeaderFocused: base.Foreground(secondary).Bold(true).Reverse(true),
		Changed:       base.Italic(true).PaddingLeft(1),
		Placeholder:   base.Foreground(subtle).PaddingLeft(1),
		Status:        base.Foreground(muted),
		Error:         base.Foreground(errColor),
		Help:          h,
	}
}
