// Package tags implements workspace tags: named labels scoped to a screen,
// with a selection set that gates client visibility. The client core only
// consumes the Oracle view; loftctl and the config layer mutate tag state.
package tags

import (
	"fmt"

	"github.com/loftwm/loftwm/internal/display"
)

// Oracle answers the visibility question the client core asks: is this
// window carried by any currently selected tag on the given screen?
type Oracle interface {
	Tagged(win display.Window, screenID int) bool
}

// Tag is a single workspace label on one screen.
type Tag struct {
	Name     string
	ScreenID int
	Selected bool

	clients map[display.Window]struct{}
}

// Has reports whether the tag carries the window.
func (t *Tag) Has(win display.Window) bool {
	_, ok := t.clients[win]
	return ok
}

// Clients returns the tagged windows in unspecified order.
func (t *Tag) Clients() []display.Window {
	out := make([]display.Window, 0, len(t.clients))
	for win := range t.clients {
		out = append(out, win)
	}
	return out
}

// Set owns every tag across all screens.
type Set struct {
	tags []*Tag
}

// NewSet creates tags with the given names on each listed screen; the first
// tag of each screen starts selected.
func NewSet(names []string, screenIDs []int) *Set {
	s := &Set{}
	for _, screen := range screenIDs {
		for i, name := range names {
			s.tags = append(s.tags, &Tag{
				Name:     name,
				ScreenID: screen,
				Selected: i == 0,
				clients:  make(map[display.Window]struct{}),
			})
		}
	}
	return s
}

// ByName finds a tag on a screen.
func (s *Set) ByName(name string, screenID int) *Tag {
	for _, t := range s.tags {
		if t.Name == name && t.ScreenID == screenID {
			return t
		}
	}
	return nil
}

// OnScreen returns the screen's tags in declaration order.
func (s *Set) OnScreen(screenID int) []*Tag {
	var out []*Tag
	for _, t := range s.tags {
		if t.ScreenID == screenID {
			out = append(out, t)
		}
	}
	return out
}

// Assign puts a window on the named tag.
func (s *Set) Assign(win display.Window, name string, screenID int) error {
	t := s.ByName(name, screenID)
	if t == nil {
		return fmt.Errorf("unknown tag %q on screen %d", name, screenID)
	}
	t.clients[win] = struct{}{}
	return nil
}

// Remove takes a window off the named tag.
func (s *Set) Remove(win display.Window, name string, screenID int) error {
	t := s.ByName(name, screenID)
	if t == nil {
		return fmt.Errorf("unknown tag %q on screen %d", name, screenID)
	}
	delete(t.clients, win)
	return nil
}

// DropClient removes the window from every tag. Called on unmanage.
func (s *Set) DropClient(win display.Window) {
	for _, t := range s.tags {
		delete(t.clients, win)
	}
}

// Select replaces the screen's selection with the named tags. Unknown names
// are an error and leave the selection untouched.
func (s *Set) Select(screenID int, names []string) error {
	for _, name := range names {
		if s.ByName(name, screenID) == nil {
			return fmt.Errorf("unknown tag %q on screen %d", name, screenID)
		}
	}
	selected := make(map[string]struct{}, len(names))
	for _, name := range names {
		selected[name] = struct{}{}
	}
	for _, t := range s.tags {
		if t.ScreenID != screenID {
			continue
		}
		_, t.Selected = selected[t.Name]
	}
	return nil
}

// Selected returns the names of the screen's selected tags.
func (s *Set) Selected(screenID int) []string {
	var out []string
	for _, t := range s.tags {
		if t.ScreenID == screenID && t.Selected {
			out = append(out, t.Name)
		}
	}
	return out
}

// TagsOf lists the names of the window's tags on a screen.
func (s *Set) TagsOf(win display.Window, screenID int) []string {
	var out []string
	for _, t := range s.tags {
		if t.ScreenID == screenID && t.Has(win) {
			out = append(out, t.Name)
		}
	}
	return out
}

// Tagged reports whether any selected tag on the screen carries the window.
func (s *Set) Tagged(win display.Window, screenID int) bool {
	for _, t := range s.tags {
		if t.ScreenID == screenID && t.Selected && t.Has(win) {
			return true
		}
	}
	return false
}

var _ Oracle = (*Set)(nil)
