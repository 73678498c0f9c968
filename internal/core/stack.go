package core

import (
	"github.com/loftwm/loftwm/internal/display"
	"github.com/loftwm/loftwm/internal/geometry"
)

// Layer is a client's stacking stratum. Higher layers stack above lower
// ones; within a layer, raise order decides.
type Layer int

const (
	// LayerIgnore marks transients, which stack above their parent instead
	// of on their own layer.
	LayerIgnore Layer = iota
	LayerDesktop
	LayerBelow
	LayerNormal
	LayerAbove
	LayerFullscreen
	LayerOnTop
	layerCount
)

// layerOf classifies a client. Special-layer flags win over everything;
// then transients defer to their parent; desktop surfaces sink to the
// bottom.
func layerOf(c *Client) Layer {
	switch {
	case c.onTop:
		return LayerOnTop
	case c.fullscreen:
		return LayerFullscreen
	case c.above:
		return LayerAbove
	case c.below:
		return LayerBelow
	}
	if c.transientFor != nil {
		return LayerIgnore
	}
	if c.kind == KindDesktop {
		return LayerDesktop
	}
	return LayerNormal
}

// Overlay is an unmanaged surface the orderer interleaves with clients:
// bars, launchers, notification popups. Pinned overlays stack above every
// client; the rest sit just above the desktop layer.
type Overlay struct {
	Win      display.Window
	ScreenID int
	Pinned   bool
	// Strut is the screen-edge space the overlay reserves, if any.
	Strut geometry.Strut
}

// stacker keeps the raise order and a dirty flag so a burst of stacking
// changes flushes as one restack.
type stacker struct {
	order []*Client
	dirty bool
}

func (s *stacker) add(c *Client) {
	s.order = append(s.order, c)
}

func (s *stacker) remove(c *Client) {
	for i, x := range s.order {
		if x == c {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// raise moves the client to the top of the raise order.
func (s *stacker) raise(c *Client) {
	s.remove(c)
	s.order = append(s.order, c)
	s.dirty = true
}

// lower moves the client to the bottom of the raise order.
func (s *stacker) lower(c *Client) {
	s.remove(c)
	s.order = append([]*Client{c}, s.order...)
	s.dirty = true
}

func (s *stacker) request() {
	s.dirty = true
}

// Raise puts the client on top of its layer.
func (co *Core) Raise(c *Client) error {
	if c.invalid {
		return ErrInvalidClient
	}
	co.stacker.raise(c)
	return nil
}

// Lower drops the client to the bottom of its layer.
func (co *Core) Lower(c *Client) error {
	if c.invalid {
		return ErrInvalidClient
	}
	co.stacker.lower(c)
	return nil
}

// AddOverlay registers an overlay surface with the orderer.
func (co *Core) AddOverlay(ov *Overlay) {
	co.overlays = append(co.overlays, ov)
	co.stacker.request()
}

// RemoveOverlay drops an overlay surface.
func (co *Core) RemoveOverlay(win display.Window) {
	for i, ov := range co.overlays {
		if ov.Win == win {
			co.overlays = append(co.overlays[:i], co.overlays[i+1:]...)
			co.stacker.request()
			return
		}
	}
}

// RequestRestack marks the stacking order dirty without flushing it.
func (co *Core) RequestRestack() {
	co.stacker.request()
}

// StackDirty reports whether a flush is pending.
func (co *Core) StackDirty() bool {
	return co.stacker.dirty
}

// FlushRestack pushes the computed stacking order to the server in one
// bottom-up pass, if anything changed since the last flush. The order is:
// desktop clients, unpinned overlays, the remaining layers bottom to top,
// pinned overlays. Each client drags its transients directly above itself.
func (co *Core) FlushRestack() {
	if !co.stacker.dirty {
		return
	}
	co.stacker.dirty = false

	prev := display.None
	for layer := LayerDesktop; layer < LayerBelow; layer++ {
		prev = co.stackLayer(layer, prev)
	}
	for _, ov := range co.overlays {
		if !ov.Pinned {
			co.conn.StackAbove(ov.Win, prev)
			prev = ov.Win
		}
	}
	for layer := LayerBelow; layer < layerCount; layer++ {
		prev = co.stackLayer(layer, prev)
	}
	for _, ov := range co.overlays {
		if ov.Pinned {
			co.conn.StackAbove(ov.Win, prev)
			prev = ov.Win
		}
	}
}

func (co *Core) stackLayer(layer Layer, prev display.Window) display.Window {
	for _, c := range co.stacker.order {
		if layerOf(c) == layer {
			prev = co.stackAboveWithTransients(c, prev)
		}
	}
	return prev
}

// stackAboveWithTransients stacks the client above prev, then each of its
// transients above it, depth first in raise order.
func (co *Core) stackAboveWithTransients(c *Client, prev display.Window) display.Window {
	co.walkWithTransients(c, func(cur *Client) {
		co.conn.StackAbove(cur.win, prev)
		prev = cur.win
	})
	return prev
}

// walkWithTransients visits the client, then its transients depth first in
// raise order. The walk is iterative with a visited set so a transient
// cycle terminates.
func (co *Core) walkWithTransients(c *Client, visit func(*Client)) {
	visited := map[*Client]bool{}
	pending := []*Client{c}
	for len(pending) > 0 {
		cur := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		visit(cur)
		var kids []*Client
		for _, t := range co.stacker.order {
			if t.transientFor == cur {
				kids = append(kids, t)
			}
		}
		for i := len(kids) - 1; i >= 0; i-- {
			pending = append(pending, kids[i])
		}
	}
}
