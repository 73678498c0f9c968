// Package core is the client engine: the registry of managed clients, their
// state machines, the focus tracker, and the stacking orderer. Every
// operation takes the Core receiver explicitly; the package keeps no global
// state. The core is single-threaded: the event loop owns it, and control
// requests are marshalled onto that goroutine before they touch it.
package core

import (
	"errors"

	"github.com/charmbracelet/log"

	"github.com/loftwm/loftwm/internal/deco"
	"github.com/loftwm/loftwm/internal/display"
	"github.com/loftwm/loftwm/internal/geometry"
	"github.com/loftwm/loftwm/internal/hooks"
	"github.com/loftwm/loftwm/internal/screens"
)

// ErrInvalidClient is returned by any operation invoked on a client that has
// already been unmanaged.
var ErrInvalidClient = errors.New("client is no longer managed")

// TagStore is the slice of the tag layer the core depends on: the visibility
// question, and cleanup when a client leaves. *tags.Set satisfies it.
type TagStore interface {
	Tagged(win display.Window, screenID int) bool
	DropClient(win display.Window)
}

// Options configures a Core.
type Options struct {
	// BorderWidth is the chrome border applied to freshly managed clients.
	BorderWidth int
	// HonorHints is the default for whether resizes respect client size
	// hints. Each client can override it later.
	HonorHints bool
}

// Core owns all managed clients and the machinery around them.
type Core struct {
	logger  *log.Logger
	conn    display.Conn
	bus     *hooks.Bus
	screens *screens.List
	tags    TagStore
	frame   deco.Frame

	clients  []*Client
	stacker  stacker
	focus    focusTracker
	overlays []*Overlay

	opts Options
}

// New builds a Core around the given display connection, screen list and tag
// store. The frame decides how much chrome separates outer and inner
// geometry; pass deco.BorderFrame for plain borders.
func New(logger *log.Logger, conn display.Conn, bus *hooks.Bus, scr *screens.List, store TagStore, frame deco.Frame, opts Options) *Core {
	return &Core{
		logger:  logger,
		conn:    conn,
		bus:     bus,
		screens: scr,
		tags:    store,
		frame:   frame,
		focus:   focusTracker{states: map[int]*focusState{}},
		opts:    opts,
	}
}

// Bus exposes the notification bus so callers can subscribe.
func (co *Core) Bus() *hooks.Bus {
	return co.bus
}

// Screens exposes the screen list.
func (co *Core) Screens() *screens.List {
	return co.screens
}

// IsVisible reports whether the client shows on the given screen: it must
// live there and be sticky, a desktop surface, or carried by a selected tag.
func (co *Core) IsVisible(c *Client, screen *screens.Screen) bool {
	if c.invalid || screen == nil || c.screen != screen {
		return false
	}
	if c.sticky || c.kind == KindDesktop {
		return true
	}
	return co.tags.Tagged(c.win, screen.ID)
}

// UsableArea is the screen geometry minus every strut reserved by clients
// and overlays on that screen.
func (co *Core) UsableArea(screen *screens.Screen) geometry.Rect {
	var struts []geometry.Strut
	for _, c := range co.clients {
		if c.screen == screen && !c.banned && !c.strut.Empty() {
			struts = append(struts, c.strut)
		}
	}
	for _, ov := range co.overlays {
		if ov.ScreenID == screen.ID && !ov.Strut.Empty() {
			struts = append(struts, ov.Strut)
		}
	}
	return screens.UsableArea(screen, struts)
}

// SyncVisibility reconciles the mapped state of every client with its
// computed visibility. Tag selection changes, sticky toggles and screen
// changes all funnel through here; the event loop calls it once per
// processed event.
func (co *Core) SyncVisibility() {
	for _, c := range co.clients {
		if co.IsVisible(c, c.screen) && !c.hidden && !c.minimized {
			co.Unban(c)
		} else {
			co.Ban(c)
		}
	}
}
