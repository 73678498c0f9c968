// Package deco converts between the outer geometry of a managed window
// (border and chrome included) and the inner geometry its content occupies.
// The client core never computes chrome sizes itself; it asks a Frame.
package deco

import "github.com/loftwm/loftwm/internal/geometry"

// Frame is the decoration collaborator consumed by the client core.
type Frame interface {
	// Strip removes border and chrome from an outer rectangle.
	Strip(border int, outer geometry.Rect) geometry.Rect
	// Add expands an inner rectangle by border and chrome.
	Add(border int, inner geometry.Rect) geometry.Rect
}

// BorderFrame is the plain frame: a uniform border on all four sides and no
// title chrome. Strip and Add are exact inverses.
type BorderFrame struct{}

func (BorderFrame) Strip(border int, outer geometry.Rect) geometry.Rect {
	outer.Width -= 2 * border
	outer.Height -= 2 * border
	return outer
}

func (BorderFrame) Add(border int, inner geometry.Rect) geometry.Rect {
	inner.Width += 2 * border
	inner.Height += 2 * border
	return inner
}

// TitleFrame draws a border plus a title bar of fixed height along the top
// edge. The outer rectangle's origin is the top-left of the title bar.
type TitleFrame struct {
	Height int
}

func (f TitleFrame) Strip(border int, outer geometry.Rect) geometry.Rect {
	outer.Y += f.Height
	outer.Width -= 2 * border
	outer.Height -= 2*border + f.Height
	return outer
}

func (f TitleFrame) Add(border int, inner geometry.Rect) geometry.Rect {
	inner.Y -= f.Height
	inner.Width += 2 * border
	inner.Height += 2*border + f.Height
	return inner
}

var (
	_ Frame = BorderFrame{}
	_ Frame = TitleFrame{}
)
