// Package display abstracts the windowing server. The client core only sees
// the Conn interface; the socket implementation speaks the server's line
// protocol over unix sockets. Commands are fire-and-forget so the core never
// blocks on the server; only explicit queries round-trip.
package display

import "github.com/loftwm/loftwm/internal/geometry"

// Window is an opaque server-side window handle.
type Window uint32

// None is the null window handle. As a stacking sibling it means "bottom".
const None Window = 0

// WMState is the protocol-visible lifecycle state of a window.
type WMState int

const (
	StateWithdrawn WMState = iota
	StateNormal
	StateIconic
)

// Protocol tokens a client may advertise for the close/focus handshakes.
const (
	ProtoDelete    = "delete"
	ProtoTakeFocus = "take_focus"
)

// Binding is a button or key grab pushed down to the server.
type Binding struct {
	Modifiers uint16 `json:"modifiers"`
	Detail    uint32 `json:"detail"`
}

// Conn is the command surface the core drives. Command methods are
// best-effort and must not block state transitions; query methods round-trip
// and report failures as errors, which callers treat as "value absent".
type Conn interface {
	Map(win Window)
	Unmap(win Window)
	Configure(win Window, inner geometry.Rect)
	SetBorderWidth(win Window, width int)
	StackAbove(win, sibling Window)
	SetInputFocus(win Window)
	SetWMState(win Window, state WMState)
	SetActiveWindow(screen int, win Window)
	SetUrgency(win Window, urgent bool)
	SendCloseRequest(win Window)
	SendTakeFocus(win Window)
	Kill(win Window)
	GrabButtons(win Window, buttons []Binding)
	GrabKeys(win Window, keys []Binding)

	QueryHints(win Window) (geometry.SizeHints, error)
	QueryTransientFor(win Window) (Window, error)
	QueryProtocols(win Window) ([]string, error)
	QueryTextProperty(win Window, name string) (string, error)
}
