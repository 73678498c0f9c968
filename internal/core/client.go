package core

import (
	"github.com/loftwm/loftwm/internal/display"
	"github.com/loftwm/loftwm/internal/geometry"
	"github.com/loftwm/loftwm/internal/screens"
)

// WindowKind classifies a client by its advertised window type.
type WindowKind string

const (
	KindNormal       WindowKind = "normal"
	KindDesktop      WindowKind = "desktop"
	KindDock         WindowKind = "dock"
	KindSplash       WindowKind = "splash"
	KindDialog       WindowKind = "dialog"
	KindUtility      WindowKind = "utility"
	KindMenu         WindowKind = "menu"
	KindNotification WindowKind = "notification"
)

// Client is one managed window. Fields are mutated only through Core
// methods so every transition fires its notification and keeps the stacking
// order consistent.
type Client struct {
	win      display.Window
	class    string
	instance string
	title    string
	kind     WindowKind

	// outer includes chrome; inner is what the client draws into.
	outer  geometry.Rect
	inner  geometry.Rect
	border int

	// Geometry saved on entering fullscreen or maximize, restored on exit.
	savedFullscreen geometry.Rect
	savedBorder     int
	savedMaxX       int
	savedMaxWidth   int
	savedMaxY       int
	savedMaxHeight  int

	hints      geometry.SizeHints
	honorHints bool
	strut      geometry.Strut
	protocols  map[string]struct{}

	urgent     bool
	sticky     bool
	minimized  bool
	hidden     bool
	banned     bool
	modal      bool
	above      bool
	below      bool
	onTop      bool
	fullscreen bool
	maxHoriz   bool
	maxVert    bool

	transientFor *Client
	screen       *screens.Screen

	buttons []display.Binding
	keys    []display.Binding

	pid     int
	machine string
	role    string

	invalid bool
}

func (c *Client) Window() display.Window     { return c.win }
func (c *Client) Class() string              { return c.class }
func (c *Client) Instance() string           { return c.instance }
func (c *Client) Title() string              { return c.title }
func (c *Client) Kind() WindowKind           { return c.kind }
func (c *Client) Outer() geometry.Rect       { return c.outer }
func (c *Client) Inner() geometry.Rect       { return c.inner }
func (c *Client) Border() int                { return c.border }
func (c *Client) Hints() geometry.SizeHints  { return c.hints }
func (c *Client) HonorsHints() bool          { return c.honorHints }
func (c *Client) Strut() geometry.Strut      { return c.strut }
func (c *Client) Urgent() bool               { return c.urgent }
func (c *Client) Sticky() bool               { return c.sticky }
func (c *Client) Minimized() bool            { return c.minimized }
func (c *Client) Hidden() bool               { return c.hidden }
func (c *Client) Banned() bool               { return c.banned }
func (c *Client) Modal() bool                { return c.modal }
func (c *Client) Above() bool                { return c.above }
func (c *Client) Below() bool                { return c.below }
func (c *Client) OnTop() bool                { return c.onTop }
func (c *Client) Fullscreen() bool           { return c.fullscreen }
func (c *Client) MaximizedHorizontal() bool  { return c.maxHoriz }
func (c *Client) MaximizedVertical() bool    { return c.maxVert }
func (c *Client) TransientFor() *Client      { return c.transientFor }
func (c *Client) Screen() *screens.Screen    { return c.screen }
func (c *Client) Valid() bool                { return !c.invalid }
func (c *Client) PID() int                   { return c.pid }
func (c *Client) Machine() string            { return c.machine }
func (c *Client) Role() string               { return c.role }
func (c *Client) Buttons() []display.Binding { return c.buttons }
func (c *Client) Keys() []display.Binding    { return c.keys }

// HasProtocol reports whether the client advertised the protocol token.
func (c *Client) HasProtocol(proto string) bool {
	_, ok := c.protocols[proto]
	return ok
}

// Fixed reports whether size hints pin the client to a single size.
func (c *Client) Fixed() bool {
	return c.hints.Fixed()
}

// fixedChrome kinds never carry a visible border.
func (c *Client) fixedChrome() bool {
	switch c.kind {
	case KindDock, KindSplash, KindDesktop:
		return true
	}
	return false
}

// Resize moves and resizes the client to the candidate outer geometry,
// optionally constraining it by size hints. Reports whether the geometry
// actually changed.
func (co *Core) Resize(c *Client, candidate geometry.Rect, honorHints bool) (bool, error) {
	if c.invalid {
		return false, ErrInvalidClient
	}
	candidate = geometry.ClampIntoArea(candidate, co.screens.DisplayArea())
	inner := co.frame.Strip(c.border, candidate)
	if honorHints {
		inner = geometry.Constrain(c.hints, inner)
	}
	if inner.Width == 0 || inner.Height == 0 {
		return false, nil
	}
	if inner == c.inner {
		return false, nil
	}
	c.inner = inner
	c.outer = co.frame.Add(c.border, inner)
	c.screen = co.screens.Resolve(inner.TopLeft(), c.screen)
	co.conn.Configure(c.win, inner)
	co.bus.PropertyChanged(uint32(c.win), "geometry")
	return true, nil
}

// ResizeInner is Resize for a candidate expressed in inner coordinates, the
// form configure requests arrive in.
func (co *Core) ResizeInner(c *Client, candidate geometry.Rect, honorHints bool) (bool, error) {
	if c.invalid {
		return false, ErrInvalidClient
	}
	return co.Resize(c, co.frame.Add(c.border, candidate), honorHints)
}

// SetBorder changes the client's border width, keeping the inner geometry
// stable. Fixed-chrome kinds and fullscreen clients refuse any positive
// width; unchanged or negative widths are ignored.
func (co *Core) SetBorder(c *Client, width int) error {
	if c.invalid {
		return ErrInvalidClient
	}
	if width > 0 && (c.fixedChrome() || c.fullscreen) {
		return nil
	}
	if width == c.border || width < 0 {
		return nil
	}
	c.outer.Width -= 2 * c.border
	c.outer.Height -= 2 * c.border
	c.border = width
	co.conn.SetBorderWidth(c.win, width)
	c.outer.Width += 2 * width
	c.outer.Height += 2 * width
	co.bus.PropertyChanged(uint32(c.win), "border_width")
	return nil
}

// SetFullscreen toggles fullscreen. Entering saves the outer geometry and
// border, drops the border, clears every other special-layer flag and both
// maximize axes, and covers the whole screen ignoring size hints. Leaving
// restores the saved border and geometry.
func (co *Core) SetFullscreen(c *Client, on bool) error {
	if c.invalid {
		return ErrInvalidClient
	}
	if c.fullscreen == on {
		return nil
	}
	c.fullscreen = on
	if on {
		co.SetMaximizedHorizontal(c, false)
		co.SetMaximizedVertical(c, false)
		co.SetAbove(c, false)
		co.SetBelow(c, false)
		co.SetOnTop(c, false)
		c.savedFullscreen = c.outer
		c.savedBorder = c.border
		co.SetBorder(c, 0)
		co.Resize(c, c.screen.Geometry, false)
	} else {
		co.SetBorder(c, c.savedBorder)
		co.Resize(c, c.savedFullscreen, false)
	}
	co.stacker.request()
	co.bus.PropertyChanged(uint32(c.win), "fullscreen")
	return nil
}

// SetMaximizedHorizontal toggles horizontal maximization. The horizontal
// components are saved on entry and spread across the screen's usable area;
// the vertical components never move.
func (co *Core) SetMaximizedHorizontal(c *Client, on bool) error {
	if c.invalid {
		return ErrInvalidClient
	}
	if c.maxHoriz == on {
		return nil
	}
	c.maxHoriz = on
	if on {
		co.SetFullscreen(c, false)
	}
	geom := c.outer
	if on {
		area := co.UsableArea(c.screen)
		c.savedMaxX = c.outer.X
		c.savedMaxWidth = c.outer.Width
		geom.X = area.X
		geom.Width = area.Width
	} else {
		geom.X = c.savedMaxX
		geom.Width = c.savedMaxWidth
	}
	co.Resize(c, geom, c.honorHints)
	co.stacker.request()
	co.bus.PropertyChanged(uint32(c.win), "maximized_horizontal")
	return nil
}

// SetMaximizedVertical mirrors SetMaximizedHorizontal on the vertical axis.
func (co *Core) SetMaximizedVertical(c *Client, on bool) error {
	if c.invalid {
		return ErrInvalidClient
	}
	if c.maxVert == on {
		return nil
	}
	c.maxVert = on
	if on {
		co.SetFullscreen(c, false)
	}
	geom := c.outer
	if on {
		area := co.UsableArea(c.screen)
		c.savedMaxY = c.outer.Y
		c.savedMaxHeight = c.outer.Height
		geom.Y = area.Y
		geom.Height = area.Height
	} else {
		geom.Y = c.savedMaxY
		geom.Height = c.savedMaxHeight
	}
	co.Resize(c, geom, c.honorHints)
	co.stacker.request()
	co.bus.PropertyChanged(uint32(c.win), "maximized_vertical")
	return nil
}

// SetAbove raises the client into the above layer, clearing the flags it
// excludes.
func (co *Core) SetAbove(c *Client, on bool) error {
	if c.invalid {
		return ErrInvalidClient
	}
	if c.above == on {
		return nil
	}
	if on {
		co.SetBelow(c, false)
		co.SetOnTop(c, false)
		co.SetFullscreen(c, false)
	}
	c.above = on
	co.stacker.request()
	co.bus.PropertyChanged(uint32(c.win), "above")
	return nil
}

// SetBelow sinks the client into the below layer, clearing the flags it
// excludes.
func (co *Core) SetBelow(c *Client, on bool) error {
	if c.invalid {
		return ErrInvalidClient
	}
	if c.below == on {
		return nil
	}
	if on {
		co.SetAbove(c, false)
		co.SetOnTop(c, false)
		co.SetFullscreen(c, false)
	}
	c.below = on
	co.stacker.request()
	co.bus.PropertyChanged(uint32(c.win), "below")
	return nil
}

// SetOnTop pins the client to the topmost layer, clearing the flags it
// excludes.
func (co *Core) SetOnTop(c *Client, on bool) error {
	if c.invalid {
		return ErrInvalidClient
	}
	if c.onTop == on {
		return nil
	}
	if on {
		co.SetAbove(c, false)
		co.SetBelow(c, false)
		co.SetFullscreen(c, false)
	}
	c.onTop = on
	co.stacker.request()
	co.bus.PropertyChanged(uint32(c.win), "ontop")
	return nil
}

// SetUrgent flips the urgency flag and mirrors it to the server.
func (co *Core) SetUrgent(c *Client, on bool) error {
	if c.invalid {
		return ErrInvalidClient
	}
	if c.urgent == on {
		return nil
	}
	c.urgent = on
	co.conn.SetUrgency(c.win, on)
	co.bus.PropertyChanged(uint32(c.win), "urgent")
	return nil
}

// SetSticky makes the client visible on every tag of its screen.
func (co *Core) SetSticky(c *Client, on bool) error {
	if c.invalid {
		return ErrInvalidClient
	}
	if c.sticky == on {
		return nil
	}
	c.sticky = on
	co.bus.PropertyChanged(uint32(c.win), "sticky")
	return nil
}

// SetMinimized iconifies or restores the client.
func (co *Core) SetMinimized(c *Client, on bool) error {
	if c.invalid {
		return ErrInvalidClient
	}
	if c.minimized == on {
		return nil
	}
	c.minimized = on
	if on {
		co.conn.SetWMState(c.win, display.StateIconic)
	} else {
		co.conn.SetWMState(c.win, display.StateNormal)
	}
	co.bus.PropertyChanged(uint32(c.win), "minimized")
	return nil
}

// SetHidden withdraws the client from view without iconifying it.
func (co *Core) SetHidden(c *Client, on bool) error {
	if c.invalid {
		return ErrInvalidClient
	}
	if c.hidden == on {
		return nil
	}
	c.hidden = on
	co.bus.PropertyChanged(uint32(c.win), "hidden")
	return nil
}

// SetModal marks the client as a modal transient.
func (co *Core) SetModal(c *Client, on bool) error {
	if c.invalid {
		return ErrInvalidClient
	}
	if c.modal == on {
		return nil
	}
	c.modal = on
	co.stacker.request()
	co.bus.PropertyChanged(uint32(c.win), "modal")
	return nil
}

// SetHonorHints overrides whether resizes constrain by size hints.
func (co *Core) SetHonorHints(c *Client, on bool) error {
	if c.invalid {
		return ErrInvalidClient
	}
	if c.honorHints == on {
		return nil
	}
	c.honorHints = on
	co.bus.PropertyChanged(uint32(c.win), "size_hints_honor")
	return nil
}

// SetStruts replaces the screen-edge space the client reserves.
func (co *Core) SetStruts(c *Client, strut geometry.Strut) error {
	if c.invalid {
		return ErrInvalidClient
	}
	if c.strut == strut {
		return nil
	}
	c.strut = strut
	co.bus.PropertyChanged(uint32(c.win), "struts")
	return nil
}

// SetTitle records a title change.
func (co *Core) SetTitle(c *Client, title string) error {
	if c.invalid {
		return ErrInvalidClient
	}
	if c.title == title {
		return nil
	}
	c.title = title
	co.bus.PropertyChanged(uint32(c.win), "name")
	return nil
}

// SetButtons replaces the client's button grabs and pushes them down.
func (co *Core) SetButtons(c *Client, buttons []display.Binding) error {
	if c.invalid {
		return ErrInvalidClient
	}
	c.buttons = buttons
	co.conn.GrabButtons(c.win, buttons)
	return nil
}

// SetKeys replaces the client's key grabs and pushes them down.
func (co *Core) SetKeys(c *Client, keys []display.Binding) error {
	if c.invalid {
		return ErrInvalidClient
	}
	c.keys = keys
	co.conn.GrabKeys(c.win, keys)
	return nil
}

// RefreshHints re-reads the client's size hints from the server. A failed
// query leaves the client unconstrained.
func (co *Core) RefreshHints(c *Client) error {
	if c.invalid {
		return ErrInvalidClient
	}
	hints, err := co.conn.QueryHints(c.win)
	if err != nil {
		co.logger.Debug("hints query failed", "win", c.win, "err", err)
		hints = geometry.SizeHints{}
	}
	c.hints = hints
	co.bus.PropertyChanged(uint32(c.win), "size_hints")
	return nil
}

// SetTransientFor repoints the client's transient parent. Self-references
// are ignored; the stacking order reflows.
func (co *Core) SetTransientFor(c, parent *Client) error {
	if c.invalid {
		return ErrInvalidClient
	}
	if parent == c || c.transientFor == parent {
		return nil
	}
	c.transientFor = parent
	co.stacker.request()
	co.bus.PropertyChanged(uint32(c.win), "transient_for")
	return nil
}

// Ban unmaps the client. A focused client is unfocused first so the
// notification fires while the window is still mapped.
func (co *Core) Ban(c *Client) {
	if c.invalid || c.banned {
		return
	}
	st := co.focus.state(c.screen.ID)
	if st.current == c {
		co.Unfocus(c)
	}
	if st.previous == c {
		st.previous = nil
	}
	co.conn.Unmap(c.win)
	c.banned = true
}

// Unban maps the client back onto the display.
func (co *Core) Unban(c *Client) {
	if c.invalid || !c.banned {
		return
	}
	co.conn.Map(c.win)
	c.banned = false
}

// Kill closes the client: via the close-request handshake when advertised,
// by severing the connection otherwise.
func (co *Core) Kill(c *Client) error {
	if c.invalid {
		return ErrInvalidClient
	}
	if c.HasProtocol(display.ProtoDelete) {
		co.conn.SendCloseRequest(c.win)
	} else {
		co.conn.Kill(c.win)
	}
	return nil
}
