package core

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/loftwm/loftwm/internal/deco"
	"github.com/loftwm/loftwm/internal/display"
	"github.com/loftwm/loftwm/internal/geometry"
	"github.com/loftwm/loftwm/internal/hooks"
	"github.com/loftwm/loftwm/internal/screens"
	"github.com/loftwm/loftwm/internal/tags"
)

var errAbsent = errors.New("absent")

type stackCall struct {
	win     display.Window
	sibling display.Window
}

// fakeConn records every command and serves queries from preloaded maps.
// The trace slice keeps the global call order for ordering assertions.
type fakeConn struct {
	trace []string

	mapped    map[display.Window]bool
	borders   map[display.Window]int
	inner     map[display.Window]geometry.Rect
	states    map[display.Window]display.WMState
	urgency   map[display.Window]bool
	active    map[int]display.Window
	focusLog  []display.Window
	stack     []stackCall
	closed    []display.Window
	killed    []display.Window
	takeFocus []display.Window

	hints     map[display.Window]geometry.SizeHints
	transient map[display.Window]display.Window
	protocols map[display.Window][]string
	props     map[display.Window]map[string]string
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		mapped:    map[display.Window]bool{},
		borders:   map[display.Window]int{},
		inner:     map[display.Window]geometry.Rect{},
		states:    map[display.Window]display.WMState{},
		urgency:   map[display.Window]bool{},
		active:    map[int]display.Window{},
		hints:     map[display.Window]geometry.SizeHints{},
		transient: map[display.Window]display.Window{},
		protocols: map[display.Window][]string{},
		props:     map[display.Window]map[string]string{},
	}
}

func (f *fakeConn) record(format string, args ...any) {
	f.trace = append(f.trace, fmt.Sprintf(format, args...))
}

func (f *fakeConn) Map(win display.Window) {
	f.record("map %d", win)
	f.mapped[win] = true
}

func (f *fakeConn) Unmap(win display.Window) {
	f.record("unmap %d", win)
	f.mapped[win] = false
}

func (f *fakeConn) Configure(win display.Window, inner geometry.Rect) {
	f.record("configure %d", win)
	f.inner[win] = inner
}

func (f *fakeConn) SetBorderWidth(win display.Window, width int) {
	f.record("border %d %d", win, width)
	f.borders[win] = width
}

func (f *fakeConn) StackAbove(win, sibling display.Window) {
	f.record("stack %d above %d", win, sibling)
	f.stack = append(f.stack, stackCall{win: win, sibling: sibling})
}

func (f *fakeConn) SetInputFocus(win display.Window) {
	f.record("focus %d", win)
	f.focusLog = append(f.focusLog, win)
}

func (f *fakeConn) SetWMState(win display.Window, state display.WMState) {
	f.record("wmstate %d %d", win, state)
	f.states[win] = state
}

func (f *fakeConn) SetActiveWindow(screen int, win display.Window) {
	f.record("active %d %d", screen, win)
	f.active[screen] = win
}

func (f *fakeConn) SetUrgency(win display.Window, urgent bool) {
	f.record("urgency %d %v", win, urgent)
	f.urgency[win] = urgent
}

func (f *fakeConn) SendCloseRequest(win display.Window) {
	f.record("close %d", win)
	f.closed = append(f.closed, win)
}

func (f *fakeConn) SendTakeFocus(win display.Window) {
	f.record("takefocus %d", win)
	f.takeFocus = append(f.takeFocus, win)
}

func (f *fakeConn) Kill(win display.Window) {
	f.record("kill %d", win)
	f.killed = append(f.killed, win)
}

func (f *fakeConn) GrabButtons(win display.Window, buttons []display.Binding) {
	f.record("grab-buttons %d", win)
}

func (f *fakeConn) GrabKeys(win display.Window, keys []display.Binding) {
	f.record("grab-keys %d", win)
}

func (f *fakeConn) QueryHints(win display.Window) (geometry.SizeHints, error) {
	h, ok := f.hints[win]
	if !ok {
		return geometry.SizeHints{}, errAbsent
	}
	return h, nil
}

func (f *fakeConn) QueryTransientFor(win display.Window) (display.Window, error) {
	parent, ok := f.transient[win]
	if !ok {
		return display.None, errAbsent
	}
	return parent, nil
}

func (f *fakeConn) QueryProtocols(win display.Window) ([]string, error) {
	protos, ok := f.protocols[win]
	if !ok {
		return nil, errAbsent
	}
	return protos, nil
}

func (f *fakeConn) QueryTextProperty(win display.Window, name string) (string, error) {
	props, ok := f.props[win]
	if !ok {
		return "", errAbsent
	}
	v, ok := props[name]
	if !ok {
		return "", errAbsent
	}
	return v, nil
}

var _ display.Conn = (*fakeConn)(nil)

// stackedWindows flattens the recorded restack calls into bottom-up order.
func (f *fakeConn) stackedWindows() []display.Window {
	out := make([]display.Window, 0, len(f.stack))
	for _, call := range f.stack {
		out = append(out, call.win)
	}
	return out
}

const (
	rootA display.Window = 1
	rootB display.Window = 2
)

func newTestCore(opts Options) (*Core, *fakeConn, *tags.Set) {
	conn := newFakeConn()
	list := screens.NewList(
		&screens.Screen{ID: 0, Name: "primary", Geometry: geometry.Rect{Width: 1920, Height: 1080}, Root: rootA},
		&screens.Screen{ID: 1, Name: "secondary", Geometry: geometry.Rect{X: 1920, Width: 1280, Height: 1024}, Root: rootB},
	)
	set := tags.NewSet([]string{"one", "two"}, []int{0, 1})
	co := New(log.New(io.Discard), conn, hooks.NewBus(), list, set, deco.BorderFrame{}, opts)
	return co, conn, set
}

func mustManage(t *testing.T, co *Core, set *tags.Set, win display.Window, r geometry.Rect, kind WindowKind) *Client {
	t.Helper()
	c, err := co.Manage(ManageArgs{Win: win, Geometry: r, Screen: co.screens.ByID(0), Class: "term", Kind: kind})
	if err != nil {
		t.Fatalf("manage %d: %v", win, err)
	}
	screenID := c.Screen().ID
	if err := set.Assign(win, "one", screenID); err != nil {
		t.Fatalf("assign %d: %v", win, err)
	}
	return c
}
