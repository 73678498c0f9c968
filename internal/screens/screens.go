// Package screens models logical outputs and resolves geometry questions
// the client core delegates: which screen owns a point, and how much of a
// screen remains usable once struts are honored.
package screens

import (
	"github.com/loftwm/loftwm/internal/display"
	"github.com/loftwm/loftwm/internal/geometry"
)

// Screen is one logical output.
type Screen struct {
	ID       int
	Name     string
	Geometry geometry.Rect
	// Root is the screen's background window; input focus parks there when
	// no client holds it.
	Root display.Window
}

// List owns every known screen in declaration order.
type List struct {
	screens []*Screen
}

// NewList wraps the given screens.
func NewList(screens ...*Screen) *List {
	return &List{screens: screens}
}

// All returns the screens in declaration order.
func (l *List) All() []*Screen {
	return l.screens
}

// ByID finds a screen, or nil.
func (l *List) ByID(id int) *Screen {
	for _, s := range l.screens {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Resolve returns the screen containing the point, falling back to ref when
// the point is in no screen's bounds.
func (l *List) Resolve(p geometry.Point, ref *Screen) *Screen {
	for _, s := range l.screens {
		if s.Geometry.Contains(p) {
			return s
		}
	}
	return ref
}

// Update replaces a screen's geometry in place, adding the screen when it is
// new. Reports whether anything changed.
func (l *List) Update(id int, rect geometry.Rect) bool {
	if s := l.ByID(id); s != nil {
		if s.Geometry == rect {
			return false
		}
		s.Geometry = rect
		return true
	}
	l.screens = append(l.screens, &Screen{ID: id, Geometry: rect})
	return true
}

// DisplayArea is the bounding box of every screen: the rectangle a window
// can be nudged around in without leaving the display entirely.
func (l *List) DisplayArea() geometry.Rect {
	if len(l.screens) == 0 {
		return geometry.Rect{}
	}
	area := l.screens[0].Geometry
	for _, s := range l.screens[1:] {
		g := s.Geometry
		if g.X < area.X {
			area.Width += area.X - g.X
			area.X = g.X
		}
		if g.Y < area.Y {
			area.Height += area.Y - g.Y
			area.Y = g.Y
		}
		if g.X+g.Width > area.X+area.Width {
			area.Width = g.X + g.Width - area.X
		}
		if g.Y+g.Height > area.Y+area.Height {
			area.Height = g.Y + g.Height - area.Y
		}
	}
	return area
}

// UsableArea shrinks the screen geometry by every strut. Struts come from
// dock-like clients and overlay surfaces; the caller collects them.
func UsableArea(screen *Screen, struts []geometry.Strut) geometry.Rect {
	area := screen.Geometry
	for _, s := range struts {
		area = area.Shrink(s)
	}
	return area
}
