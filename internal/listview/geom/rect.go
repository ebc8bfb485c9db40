// Package geom holds the integer geometry shared by layouts, measurement and
// animations. Units are terminal cells.
package geom

import "fmt"

// Rect is a rectangle with its origin at the top-left corner.
type Rect struct {
	X, Y, W, H int
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Bottom returns the first row below the rectangle.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Right returns the first column right of the rectangle.
func (r Rect) Right() int {
	return r.X + r.W
}

// Offset returns r translated by dx, dy.
func (r Rect) Offset(dx, dy int) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Intersects reports whether the two rectangles overlap.
func (r Rect) Intersects(o Rect) bool {
	return !r.Empty() && !o.Empty() &&
		r.X < o.Right() && o.X < r.Right() &&
		r.Y < o.Bottom() && o.Y < r.Bottom()
}

// SameSize reports whether r and o have the same dimensions.
func (r Rect) SameSize(o Rect) bool {
	return r.W == o.W && r.H == o.H
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.W, r.H)
}
