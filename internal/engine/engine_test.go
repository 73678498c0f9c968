package engine

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/loftwm/loftwm/internal/config"
	"github.com/loftwm/loftwm/internal/core"
	"github.com/loftwm/loftwm/internal/deco"
	"github.com/loftwm/loftwm/internal/display"
	"github.com/loftwm/loftwm/internal/geometry"
	"github.com/loftwm/loftwm/internal/hooks"
	"github.com/loftwm/loftwm/internal/metrics"
	"github.com/loftwm/loftwm/internal/screens"
	"github.com/loftwm/loftwm/internal/tags"
)

type nullConn struct {
	mapped    map[display.Window]bool
	unmapped  []display.Window
	borders   map[display.Window]int
	restacks  int
	hints     map[display.Window]geometry.SizeHints
	transient map[display.Window]display.Window
}

func newNullConn() *nullConn {
	return &nullConn{
		mapped:    map[display.Window]bool{},
		borders:   map[display.Window]int{},
		hints:     map[display.Window]geometry.SizeHints{},
		transient: map[display.Window]display.Window{},
	}
}

func (n *nullConn) Map(win display.Window) { n.mapped[win] = true }
func (n *nullConn) Unmap(win display.Window) {
	n.mapped[win] = false
	n.unmapped = append(n.unmapped, win)
}
func (n *nullConn) Configure(display.Window, geometry.Rect)       {}
func (n *nullConn) SetBorderWidth(win display.Window, width int)  { n.borders[win] = width }
func (n *nullConn) StackAbove(win, sibling display.Window)        { n.restacks++ }
func (n *nullConn) SetInputFocus(display.Window)                  {}
func (n *nullConn) SetWMState(display.Window, display.WMState)    {}
func (n *nullConn) SetActiveWindow(int, display.Window)           {}
func (n *nullConn) SetUrgency(display.Window, bool)               {}
func (n *nullConn) SendCloseRequest(display.Window)               {}
func (n *nullConn) SendTakeFocus(display.Window)                  {}
func (n *nullConn) Kill(display.Window)                           {}
func (n *nullConn) GrabButtons(display.Window, []display.Binding) {}
func (n *nullConn) GrabKeys(display.Window, []display.Binding)    {}

func (n *nullConn) QueryHints(win display.Window) (geometry.SizeHints, error) {
	h, ok := n.hints[win]
	if !ok {
		return geometry.SizeHints{}, errors.New("absent")
	}
	return h, nil
}

func (n *nullConn) QueryTransientFor(win display.Window) (display.Window, error) {
	p, ok := n.transient[win]
	if !ok {
		return display.None, errors.New("absent")
	}
	return p, nil
}

func (n *nullConn) QueryProtocols(display.Window) ([]string, error) {
	return nil, errors.New("absent")
}

func (n *nullConn) QueryTextProperty(display.Window, string) (string, error) {
	return "", errors.New("absent")
}

var _ display.Conn = (*nullConn)(nil)

type harness struct {
	engine *Engine
	conn   *nullConn
	events chan display.Event
	cancel context.CancelFunc
	done   chan struct{}
	runErr error
}

func startEngine(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	conn := newNullConn()
	logger := log.New(io.Discard)
	list := screens.NewList(&screens.Screen{ID: 0, Geometry: geometry.Rect{Width: 1920, Height: 1080}, Root: 1})
	set := tags.NewSet(cfg.Tags, []int{0})
	co := core.New(logger, conn, hooks.NewBus(), list, set, deco.BorderFrame{}, core.Options{
		BorderWidth: cfg.BorderWidth,
		HonorHints:  cfg.HonorHints,
	})
	events := make(chan display.Event)
	source := func(context.Context, *log.Logger) (<-chan display.Event, error) {
		return events, nil
	}
	eng := New(logger, co, set, cfg, metrics.NewCollector(true), source)
	eng.auditInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{engine: eng, conn: conn, events: events, cancel: cancel, done: make(chan struct{})}
	go func() {
		h.runErr = eng.Run(ctx)
		close(h.done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-h.done:
		case <-time.After(2 * time.Second):
			t.Error("engine did not stop")
		}
	})
	return h
}

// send pushes an event and waits for the loop to settle by round-tripping a
// no-op invocation behind it.
func (h *harness) send(t *testing.T, ev display.Event) {
	t.Helper()
	select {
	case h.events <- ev:
	case <-time.After(2 * time.Second):
		t.Fatal("engine not consuming events")
	}
	h.barrier(t)
}

func (h *harness) barrier(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.engine.Do(ctx, func(*core.Core) error { return nil }); err != nil {
		t.Fatalf("barrier: %v", err)
	}
}

func (h *harness) client(t *testing.T, win display.Window) *core.Client {
	t.Helper()
	var c *core.Client
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.engine.Do(ctx, func(co *core.Core) error {
		c = co.LookupWindow(win)
		return nil
	}); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	return c
}

func TestCreateEventManagesAndMaps(t *testing.T) {
	h := startEngine(t, config.Default())

	h.send(t, display.Event{Kind: display.EventCreate, Payload: "10,100,100,200,150,0,xterm,normal"})
	c := h.client(t, 10)
	if c == nil {
		t.Fatal("client not managed")
	}
	if c.Class() != "xterm" || c.Kind() != core.KindNormal {
		t.Fatalf("client = class %q kind %q", c.Class(), c.Kind())
	}
	if c.Banned() {
		t.Fatal("visible client left banned after settle")
	}
	if !h.conn.mapped[10] {
		t.Fatal("client not mapped on the server")
	}
	snap := h.engine.Metrics().Snapshot()
	if snap.Totals.Managed != 1 || snap.Totals.Restacks == 0 {
		t.Fatalf("metrics = %+v", snap.Totals)
	}
}

func TestNeverManagedClassIsSkipped(t *testing.T) {
	cfg := config.Default()
	cfg.NeverManage = []string{"xscreensaver"}
	h := startEngine(t, cfg)

	h.send(t, display.Event{Kind: display.EventCreate, Payload: "10,0,0,100,100,0,xscreensaver,normal"})
	if h.client(t, 10) != nil {
		t.Fatal("never-managed class entered the registry")
	}
}

func TestRuleOverridesApplyOnManage(t *testing.T) {
	cfg := config.Default()
	honor := false
	cfg.Rules = []config.RuleConfig{{
		Class:      "mpv",
		Tags:       []string{"2"},
		HonorHints: &honor,
		OnTop:      true,
	}}
	h := startEngine(t, cfg)

	h.send(t, display.Event{Kind: display.EventCreate, Payload: "10,0,0,640,480,0,mpv,normal"})
	c := h.client(t, 10)
	if c == nil {
		t.Fatal("client not managed")
	}
	if c.HonorsHints() || !c.OnTop() {
		t.Fatalf("overrides missed: honor %v ontop %v", c.HonorsHints(), c.OnTop())
	}
	tagged := h.engine.Tags().TagsOf(10, 0)
	if len(tagged) != 1 || tagged[0] != "2" {
		t.Fatalf("tags = %v, want [2]", tagged)
	}
	// Tag 2 is not selected, so the client stays hidden.
	if !c.Banned() {
		t.Fatal("client on unselected tag got mapped")
	}
}

func TestDestroyEventUnmanages(t *testing.T) {
	h := startEngine(t, config.Default())
	h.send(t, display.Event{Kind: display.EventCreate, Payload: "10,0,0,200,150,0,xterm,normal"})
	c := h.client(t, 10)

	h.send(t, display.Event{Kind: display.EventDestroy, Payload: "10"})
	if h.client(t, 10) != nil {
		t.Fatal("destroyed client still registered")
	}
	if c.Valid() {
		t.Fatal("destroyed client still valid")
	}
	snap := h.engine.Metrics().Snapshot()
	if snap.Totals.Unmanaged != 1 {
		t.Fatalf("metrics = %+v", snap.Totals)
	}
}

func TestSelfUnmapEndsManagementButOursDoesNot(t *testing.T) {
	h := startEngine(t, config.Default())
	h.send(t, display.Event{Kind: display.EventCreate, Payload: "10,0,0,200,150,0,xterm,normal"})
	h.send(t, display.Event{Kind: display.EventCreate, Payload: "11,300,0,200,150,0,xterm,normal"})

	// Hiding bans the client, which unmaps it on our side. The unmap echo
	// coming back must not end management.
	err := h.engine.Do(context.Background(), func(co *core.Core) error {
		return co.SetHidden(co.LookupWindow(10), true)
	})
	if err != nil {
		t.Fatalf("hide: %v", err)
	}
	h.barrier(t)
	h.send(t, display.Event{Kind: display.EventUnmapNotify, Payload: "10"})
	if h.client(t, 10) == nil {
		t.Fatal("our own unmap echo ended management")
	}

	// A client withdrawing itself does end management.
	h.send(t, display.Event{Kind: display.EventUnmapNotify, Payload: "11"})
	if h.client(t, 11) != nil {
		t.Fatal("client-initiated unmap ignored")
	}
}

func TestConfigureRequestResizes(t *testing.T) {
	h := startEngine(t, config.Default())
	h.send(t, display.Event{Kind: display.EventCreate, Payload: "10,0,0,200,150,0,xterm,normal"})

	h.send(t, display.Event{Kind: display.EventConfigureReq, Payload: "10,50,60,300,200"})
	c := h.client(t, 10)
	want := geometry.Rect{X: 50, Y: 60, Width: 300, Height: 200}
	if c.Inner() != want {
		t.Fatalf("inner = %+v, want %+v", c.Inner(), want)
	}
}

func TestCreatePayloadBorderIsAdopted(t *testing.T) {
	h := startEngine(t, config.Default())

	// Arriving with the configured width already: no border command.
	h.send(t, display.Event{Kind: display.EventCreate, Payload: "10,0,0,200,150,1,xterm,normal"})
	c := h.client(t, 10)
	if c.Border() != 1 {
		t.Fatalf("border = %d, want 1", c.Border())
	}
	if width, ok := h.conn.borders[10]; ok {
		t.Fatalf("redundant border command: width %d", width)
	}

	// A bare window transitions to the configured width.
	h.send(t, display.Event{Kind: display.EventCreate, Payload: "11,0,0,200,150,0,xterm,normal"})
	if h.conn.borders[11] != 1 {
		t.Fatalf("server width = %d, want 1", h.conn.borders[11])
	}
}

func TestUrgentAndFocusEvents(t *testing.T) {
	h := startEngine(t, config.Default())
	h.send(t, display.Event{Kind: display.EventCreate, Payload: "10,0,0,200,150,0,xterm,normal"})

	h.send(t, display.Event{Kind: display.EventUrgent, Payload: "10,1"})
	c := h.client(t, 10)
	if !c.Urgent() {
		t.Fatal("urgency event ignored")
	}

	h.send(t, display.Event{Kind: display.EventFocusRequest, Payload: "10"})
	if c.Urgent() {
		t.Fatal("focus did not clear urgency")
	}
	err := h.engine.Do(context.Background(), func(co *core.Core) error {
		if co.Focused(0) != c {
			t.Error("focus event did not move focus")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
}

func TestTransientEventLinksClients(t *testing.T) {
	h := startEngine(t, config.Default())
	h.send(t, display.Event{Kind: display.EventCreate, Payload: "10,0,0,400,300,0,gimp,normal"})
	h.send(t, display.Event{Kind: display.EventCreate, Payload: "11,50,50,200,100,0,gimp,dialog"})

	h.send(t, display.Event{Kind: display.EventTransient, Payload: "11,10"})
	child := h.client(t, 11)
	parent := h.client(t, 10)
	if child.TransientFor() != parent {
		t.Fatal("transient link missing")
	}
}

func TestScreenChangeReflowsFullscreenClients(t *testing.T) {
	h := startEngine(t, config.Default())
	h.send(t, display.Event{Kind: display.EventCreate, Payload: "10,0,0,200,150,0,mpv,normal"})
	err := h.engine.Do(context.Background(), func(co *core.Core) error {
		return co.SetFullscreen(co.LookupWindow(10), true)
	})
	if err != nil {
		t.Fatalf("fullscreen: %v", err)
	}

	h.send(t, display.Event{Kind: display.EventScreenChanged, Payload: "0,0,0,2560,1440"})
	c := h.client(t, 10)
	want := geometry.Rect{Width: 2560, Height: 1440}
	if c.Inner() != want {
		t.Fatalf("inner = %+v, want %+v", c.Inner(), want)
	}
}

func TestMalformedPayloadIsLoggedNotFatal(t *testing.T) {
	h := startEngine(t, config.Default())
	h.send(t, display.Event{Kind: display.EventCreate, Payload: "garbage"})
	h.send(t, display.Event{Kind: display.EventCreate, Payload: "10,0,0,200,150,0,xterm,normal"})
	if h.client(t, 10) == nil {
		t.Fatal("engine stopped applying events after a bad payload")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	h := startEngine(t, config.Default())
	h.cancel()
	select {
	case <-h.done:
		if !errors.Is(h.runErr, context.Canceled) {
			t.Fatalf("run returned %v", h.runErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}
