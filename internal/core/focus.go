package core

import "github.com/loftwm/loftwm/internal/display"

// focusTracker remembers, per screen, which client holds focus and which
// held it last. The previous pointer is the fallback when a focus target
// turns out to be off-screen.
type focusTracker struct {
	states map[int]*focusState
}

type focusState struct {
	current  *Client
	previous *Client
}

func (f *focusTracker) state(screenID int) *focusState {
	st, ok := f.states[screenID]
	if !ok {
		st = &focusState{}
		f.states[screenID] = st
	}
	return st
}

// Focused returns the client holding focus on the screen, or nil.
func (co *Core) Focused(screenID int) *Client {
	return co.focus.state(screenID).current
}

// PreviouslyFocused returns the screen's focus fallback, or nil.
func (co *Core) PreviouslyFocused(screenID int) *Client {
	return co.focus.state(screenID).previous
}

// Focus gives input focus to the client. A nil target focuses the first
// managed client, if any. An invisible target is swapped for the screen's
// previously focused client; if that chain dead-ends the call gives up
// silently. Focusing clears hidden, minimized and urgent, unbans the
// client, and hands input over, preferring the take-focus handshake when
// the client advertises it.
func (co *Core) Focus(c *Client) error {
	if c == nil {
		if len(co.clients) == 0 {
			return nil
		}
		c = co.clients[0]
	}
	if c.invalid {
		return ErrInvalidClient
	}
	seen := map[*Client]bool{}
	for !co.IsVisible(c, c.screen) {
		seen[c] = true
		prev := co.focus.state(c.screen.ID).previous
		if prev == nil || prev.invalid || seen[prev] {
			return nil
		}
		c = prev
	}
	st := co.focus.state(c.screen.ID)
	if st.current == c {
		return nil
	}
	if st.current != nil {
		co.Unfocus(st.current)
	}
	co.SetHidden(c, false)
	co.SetMinimized(c, false)
	co.Unban(c)
	st.previous = c
	st.current = c
	co.SetUrgent(c, false)
	co.conn.SetInputFocus(c.win)
	if c.HasProtocol(display.ProtoTakeFocus) {
		co.conn.SendTakeFocus(c.win)
	}
	co.conn.SetActiveWindow(c.screen.ID, c.win)
	co.bus.Focused(uint32(c.win))
	return nil
}

// Unfocus drops focus from the client if it holds it, parking input on the
// screen's root window.
func (co *Core) Unfocus(c *Client) {
	st := co.focus.state(c.screen.ID)
	if st.current != c {
		return
	}
	st.current = nil
	co.conn.SetInputFocus(c.screen.Root)
	co.conn.SetActiveWindow(c.screen.ID, display.None)
	co.bus.Unfocused(uint32(c.win))
}
