package entity

import "fmt"

// Direction is a keyboard navigation request handed to the layout.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
	DirHome
	DirEnd
	DirPageUp
	DirPageDown
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	case DirHome:
		return "home"
	case DirEnd:
		return "end"
	case DirPageUp:
		return "pageup"
	case DirPageDown:
		return "pagedown"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}
