package core

import (
	"fmt"
	"strconv"

	"github.com/loftwm/loftwm/internal/display"
	"github.com/loftwm/loftwm/internal/geometry"
	"github.com/loftwm/loftwm/internal/screens"
)

// ManageArgs carries everything the registry needs to adopt a window.
type ManageArgs struct {
	Win      display.Window
	Geometry geometry.Rect
	// Border is the width the window already carries on the server.
	Border   int
	Screen   *screens.Screen
	Startup  bool
	Class    string
	Instance string
	Title    string
	Kind     WindowKind
}

// Manage adopts a window into the registry: it resolves the owning screen,
// queries hints, transient parentage and protocols best-effort, raises the
// client and announces it. The client starts banned; the next visibility
// sync maps it if a selected tag carries it.
func (co *Core) Manage(args ManageArgs) (*Client, error) {
	if existing := co.LookupWindow(args.Win); existing != nil {
		return nil, fmt.Errorf("window %d is already managed", args.Win)
	}
	kind := args.Kind
	if kind == "" {
		kind = KindNormal
	}
	border := args.Border
	if border < 0 {
		border = 0
	}
	c := &Client{
		win:        args.Win,
		class:      args.Class,
		instance:   args.Instance,
		title:      args.Title,
		kind:       kind,
		border:     border,
		outer:      args.Geometry,
		inner:      args.Geometry,
		honorHints: co.opts.HonorHints,
		protocols:  map[string]struct{}{},
		banned:     true,
	}
	if c.fixedChrome() {
		if c.border > 0 {
			co.conn.SetBorderWidth(c.win, 0)
		}
		c.border = 0
	}
	c.outer.Width += 2 * c.border
	c.outer.Height += 2 * c.border
	c.screen = co.screens.Resolve(args.Geometry.TopLeft(), args.Screen)

	if hints, err := co.conn.QueryHints(c.win); err == nil {
		c.hints = hints
	}
	if protos, err := co.conn.QueryProtocols(c.win); err == nil {
		for _, p := range protos {
			c.protocols[p] = struct{}{}
		}
	}
	if parentWin, err := co.conn.QueryTransientFor(c.win); err == nil && parentWin != display.None {
		if parent := co.LookupWindow(parentWin); parent != nil && parent != c {
			c.transientFor = parent
			// A transient lives where its ultimate parent lives.
			if root := co.transientRoot(c); root != c {
				c.screen = root.screen
			}
		}
	}
	if c.instance == "" {
		if instance, err := co.conn.QueryTextProperty(c.win, "instance"); err == nil {
			c.instance = instance
		}
	}
	if c.title == "" {
		if title, err := co.conn.QueryTextProperty(c.win, "title"); err == nil {
			c.title = title
		}
	}
	if pid, err := co.conn.QueryTextProperty(c.win, "pid"); err == nil {
		c.pid, _ = strconv.Atoi(pid)
	}
	if machine, err := co.conn.QueryTextProperty(c.win, "machine"); err == nil {
		c.machine = machine
	}
	if role, err := co.conn.QueryTextProperty(c.win, "role"); err == nil {
		c.role = role
	}

	co.clients = append(co.clients, c)
	co.stacker.add(c)
	co.stacker.raise(c)
	co.SetBorder(c, co.opts.BorderWidth)
	co.conn.SetWMState(c.win, display.StateNormal)
	co.logger.Info("managed client", "win", c.win, "class", c.class, "kind", c.kind, "screen", c.screen.ID, "startup", args.Startup)
	co.bus.ListChanged()
	co.bus.Managed(uint32(c.win), args.Startup)
	return c, nil
}

// Unmanage evicts a client: every transient reference to it is cleared,
// focus backrefs drop, it leaves the stack and the registry, and it is
// marked invalid so any later operation fails fast.
func (co *Core) Unmanage(c *Client) error {
	if c.invalid {
		return ErrInvalidClient
	}
	for _, other := range co.clients {
		if other.transientFor == c {
			other.transientFor = nil
		}
	}
	for _, st := range co.focus.states {
		if st.previous == c {
			st.previous = nil
		}
		if st.current == c {
			co.Unfocus(c)
		}
	}
	for i, other := range co.clients {
		if other == c {
			co.clients = append(co.clients[:i], co.clients[i+1:]...)
			break
		}
	}
	co.stacker.remove(c)
	co.stacker.request()
	co.tags.DropClient(c.win)
	co.conn.SetWMState(c.win, display.StateWithdrawn)
	c.invalid = true
	co.logger.Info("unmanaged client", "win", c.win, "class", c.class)
	co.bus.ListChanged()
	co.bus.Unmanaged(uint32(c.win))
	return nil
}

// LookupWindow finds the client owning the window, or nil.
func (co *Core) LookupWindow(win display.Window) *Client {
	for _, c := range co.clients {
		if c.win == win {
			return c
		}
	}
	return nil
}

// Clients returns the managed clients in registry order.
func (co *Core) Clients() []*Client {
	out := make([]*Client, len(co.clients))
	copy(out, co.clients)
	return out
}

// Swap exchanges two clients' positions in the registry order.
func (co *Core) Swap(a, b *Client) error {
	if a.invalid || b.invalid {
		return ErrInvalidClient
	}
	if a == b {
		return nil
	}
	ai, bi := -1, -1
	for i, c := range co.clients {
		switch c {
		case a:
			ai = i
		case b:
			bi = i
		}
	}
	if ai < 0 || bi < 0 {
		return ErrInvalidClient
	}
	co.clients[ai], co.clients[bi] = co.clients[bi], co.clients[ai]
	co.bus.ListChanged()
	return nil
}

// transientRoot follows transient parentage to the top. The walk is
// iterative with a visited set so malformed cycles cannot hang it.
func (co *Core) transientRoot(c *Client) *Client {
	seen := map[*Client]bool{c: true}
	for c.transientFor != nil && !seen[c.transientFor] {
		c = c.transientFor
		seen[c] = true
	}
	return c
}
