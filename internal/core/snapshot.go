package core

import (
	"github.com/loftwm/loftwm/internal/display"
	"github.com/loftwm/loftwm/internal/geometry"
)

// ClientInfo is the serializable view of a client handed to the control
// surface and the inspector.
type ClientInfo struct {
	Window     uint32          `json:"window"`
	Class      string          `json:"class"`
	Instance   string          `json:"instance,omitempty"`
	Title      string          `json:"title,omitempty"`
	Kind       WindowKind      `json:"kind"`
	Outer      geometry.Rect   `json:"outer"`
	Inner      geometry.Rect   `json:"inner"`
	Border     int             `json:"border"`
	Screen     int             `json:"screen"`
	Urgent     bool            `json:"urgent,omitempty"`
	Sticky     bool            `json:"sticky,omitempty"`
	Minimized  bool            `json:"minimized,omitempty"`
	Hidden     bool            `json:"hidden,omitempty"`
	Banned     bool            `json:"banned,omitempty"`
	Modal      bool            `json:"modal,omitempty"`
	Above      bool            `json:"above,omitempty"`
	Below      bool            `json:"below,omitempty"`
	OnTop      bool            `json:"ontop,omitempty"`
	Fullscreen bool            `json:"fullscreen,omitempty"`
	MaxHoriz   bool            `json:"maximized_horizontal,omitempty"`
	MaxVert    bool            `json:"maximized_vertical,omitempty"`
	HonorHints bool            `json:"size_hints_honor"`
	Fixed      bool            `json:"fixed,omitempty"`
	Transient  uint32          `json:"transient_for,omitempty"`
	Focused    bool            `json:"focused,omitempty"`
	PID        int             `json:"pid,omitempty"`
	Machine    string          `json:"machine,omitempty"`
	Role       string          `json:"role,omitempty"`
	Layer      string          `json:"layer"`
	Strut      *geometry.Strut `json:"strut,omitempty"`
}

var layerNames = map[Layer]string{
	LayerIgnore:     "transient",
	LayerDesktop:    "desktop",
	LayerBelow:      "below",
	LayerNormal:     "normal",
	LayerAbove:      "above",
	LayerFullscreen: "fullscreen",
	LayerOnTop:      "ontop",
}

// Info snapshots one client.
func (co *Core) Info(c *Client) ClientInfo {
	info := ClientInfo{
		Window:     uint32(c.win),
		Class:      c.class,
		Instance:   c.instance,
		Title:      c.title,
		Kind:       c.kind,
		Outer:      c.outer,
		Inner:      c.inner,
		Border:     c.border,
		Screen:     c.screen.ID,
		Urgent:     c.urgent,
		Sticky:     c.sticky,
		Minimized:  c.minimized,
		Hidden:     c.hidden,
		Banned:     c.banned,
		Modal:      c.modal,
		Above:      c.above,
		Below:      c.below,
		OnTop:      c.onTop,
		Fullscreen: c.fullscreen,
		MaxHoriz:   c.maxHoriz,
		MaxVert:    c.maxVert,
		HonorHints: c.honorHints,
		Fixed:      c.hints.Fixed(),
		Focused:    co.focus.state(c.screen.ID).current == c,
		PID:        c.pid,
		Machine:    c.machine,
		Role:       c.role,
		Layer:      layerNames[layerOf(c)],
	}
	if c.transientFor != nil {
		info.Transient = uint32(c.transientFor.win)
	}
	if !c.strut.Empty() {
		strut := c.strut
		info.Strut = &strut
	}
	return info
}

// Snapshot lists every managed client in registry order.
func (co *Core) Snapshot() []ClientInfo {
	out := make([]ClientInfo, 0, len(co.clients))
	for _, c := range co.clients {
		out = append(out, co.Info(c))
	}
	return out
}

// StackingOrder returns window handles bottom to top as the next flush
// would push them, ignoring overlays.
func (co *Core) StackingOrder() []display.Window {
	var raw []display.Window
	for layer := LayerDesktop; layer < layerCount; layer++ {
		for _, c := range co.stacker.order {
			if layerOf(c) == layer {
				co.walkWithTransients(c, func(cur *Client) {
					raw = append(raw, cur.win)
				})
			}
		}
	}
	// A window can be emitted twice, once on its own layer and once in a
	// parent's transient walk. The later position wins, as it does on the
	// server.
	seen := map[display.Window]bool{}
	out := make([]display.Window, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		if seen[raw[i]] {
			continue
		}
		seen[raw[i]] = true
		out = append(out, raw[i])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
