package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/loftwm/loftwm/internal/display"
	"github.com/loftwm/loftwm/internal/geometry"
	"github.com/loftwm/loftwm/internal/hooks"
)

func TestManageAdoptsWindow(t *testing.T) {
	co, conn, set := newTestCore(Options{BorderWidth: 2})
	conn.hints[10] = geometry.SizeHints{Flags: geometry.HintMinSize, MinWidth: 50, MinHeight: 40}
	conn.protocols[10] = []string{display.ProtoDelete}
	conn.props[10] = map[string]string{"pid": "4242", "machine": "galois", "role": "browser"}

	var managed []uint32
	var startups []bool
	co.Bus().Subscribe(hooks.Subscriber{Managed: func(id uint32, startup bool) {
		managed = append(managed, id)
		startups = append(startups, startup)
	}})

	c := mustManage(t, co, set, 10, geometry.Rect{X: 100, Y: 100, Width: 200, Height: 150}, KindNormal)
	if co.LookupWindow(10) != c {
		t.Fatal("lookup misses the managed client")
	}
	if got := c.Hints().MinWidth; got != 50 {
		t.Fatalf("hints not queried, min width = %d", got)
	}
	if !c.HasProtocol(display.ProtoDelete) {
		t.Fatal("protocols not queried")
	}
	if c.PID() != 4242 || c.Machine() != "galois" || c.Role() != "browser" {
		t.Fatalf("metadata = pid %d machine %q role %q", c.PID(), c.Machine(), c.Role())
	}
	if conn.states[10] != display.StateNormal {
		t.Fatalf("wm state = %d, want normal", conn.states[10])
	}
	if !c.Banned() {
		t.Fatal("fresh client should start banned")
	}
	if diff := cmp.Diff([]uint32{10}, managed); diff != "" {
		t.Fatalf("managed notifications (-want +got):\n%s", diff)
	}
	if startups[0] {
		t.Fatal("startup flag set for a runtime manage")
	}
}

func TestManageAdoptsInitialBorder(t *testing.T) {
	co, conn, _ := newTestCore(Options{BorderWidth: 2})

	// A window already carrying the configured width needs no border command.
	c, err := co.Manage(ManageArgs{Win: 10, Geometry: geometry.Rect{X: 100, Y: 100, Width: 200, Height: 150}, Border: 2, Screen: co.screens.ByID(0)})
	if err != nil {
		t.Fatalf("manage: %v", err)
	}
	if c.Border() != 2 {
		t.Fatalf("border = %d, want 2", c.Border())
	}
	if want := (geometry.Rect{X: 100, Y: 100, Width: 204, Height: 154}); c.Outer() != want {
		t.Fatalf("outer = %+v, want %+v", c.Outer(), want)
	}
	if _, ok := conn.borders[10]; ok {
		t.Fatalf("redundant border command: width %d", conn.borders[10])
	}

	// A bare window transitions to the configured width.
	d, err := co.Manage(ManageArgs{Win: 11, Geometry: geometry.Rect{Width: 200, Height: 150}, Screen: co.screens.ByID(0)})
	if err != nil {
		t.Fatalf("manage: %v", err)
	}
	if d.Border() != 2 || conn.borders[11] != 2 {
		t.Fatalf("border = %d, server width = %d, want 2", d.Border(), conn.borders[11])
	}

	// Fixed-chrome kinds shed whatever border they arrived with.
	dock, err := co.Manage(ManageArgs{Win: 12, Geometry: geometry.Rect{Width: 50, Height: 1080}, Border: 3, Kind: KindDock, Screen: co.screens.ByID(0)})
	if err != nil {
		t.Fatalf("manage dock: %v", err)
	}
	if dock.Border() != 0 || conn.borders[12] != 0 {
		t.Fatalf("dock border = %d, server width = %d, want 0", dock.Border(), conn.borders[12])
	}
}

func TestManageRejectsDuplicateWindow(t *testing.T) {
	co, _, set := newTestCore(Options{})
	mustManage(t, co, set, 10, geometry.Rect{Width: 200, Height: 150}, KindNormal)
	if _, err := co.Manage(ManageArgs{Win: 10, Geometry: geometry.Rect{Width: 100, Height: 100}, Screen: co.screens.ByID(0)}); err == nil {
		t.Fatal("duplicate manage succeeded")
	}
}

func TestManageResolvesScreenByPosition(t *testing.T) {
	co, _, set := newTestCore(Options{})
	c := mustManage(t, co, set, 10, geometry.Rect{X: 2000, Y: 100, Width: 200, Height: 150}, KindNormal)
	if c.Screen().ID != 1 {
		t.Fatalf("screen = %d, want 1", c.Screen().ID)
	}
}

func TestTransientAdoptsParentScreen(t *testing.T) {
	co, conn, set := newTestCore(Options{})
	parent := mustManage(t, co, set, 10, geometry.Rect{X: 2000, Y: 100, Width: 400, Height: 300}, KindNormal)
	if parent.Screen().ID != 1 {
		t.Fatalf("parent screen = %d, want 1", parent.Screen().ID)
	}

	conn.transient[11] = 10
	child := mustManage(t, co, set, 11, geometry.Rect{X: 100, Y: 100, Width: 200, Height: 100}, KindDialog)
	if child.TransientFor() != parent {
		t.Fatal("transient parent not resolved")
	}
	if child.Screen().ID != 1 {
		t.Fatalf("child screen = %d, want parent's screen 1", child.Screen().ID)
	}
}

func TestUnmanageClearsEveryReference(t *testing.T) {
	co, conn, set := newTestCore(Options{})
	parent := mustManage(t, co, set, 10, geometry.Rect{Width: 400, Height: 300}, KindNormal)
	conn.transient[11] = 10
	child := mustManage(t, co, set, 11, geometry.Rect{X: 50, Width: 200, Height: 100}, KindDialog)
	co.Focus(parent)

	var unfocused, unmanaged []uint32
	co.Bus().Subscribe(hooks.Subscriber{
		Unfocused: func(id uint32) { unfocused = append(unfocused, id) },
		Unmanaged: func(id uint32) { unmanaged = append(unmanaged, id) },
	})

	if err := co.Unmanage(parent); err != nil {
		t.Fatalf("unmanage: %v", err)
	}
	if child.TransientFor() != nil {
		t.Fatal("transient reference survived unmanage")
	}
	if co.Focused(0) != nil || co.PreviouslyFocused(0) != nil {
		t.Fatal("focus tracker still references the client")
	}
	if co.LookupWindow(10) != nil {
		t.Fatal("registry still resolves the window")
	}
	if set.Tagged(10, 0) {
		t.Fatal("tags still carry the client")
	}
	if conn.states[10] != display.StateWithdrawn {
		t.Fatalf("wm state = %d, want withdrawn", conn.states[10])
	}
	if parent.Valid() {
		t.Fatal("client still valid")
	}
	if diff := cmp.Diff([]uint32{10}, unfocused); diff != "" {
		t.Fatalf("unfocus notifications (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint32{10}, unmanaged); diff != "" {
		t.Fatalf("unmanage notifications (-want +got):\n%s", diff)
	}
	for _, win := range co.StackingOrder() {
		if win == 10 {
			t.Fatal("stacking order still carries the window")
		}
	}
}

func TestSwapExchangesRegistryOrder(t *testing.T) {
	co, _, set := newTestCore(Options{})
	a, _, c := manageThree(t, co, set)

	var listEvents int
	co.Bus().Subscribe(hooks.Subscriber{ListChanged: func() { listEvents++ }})

	if err := co.Swap(a, c); err != nil {
		t.Fatalf("swap: %v", err)
	}
	got := co.Clients()
	if got[0] != c || got[2] != a {
		t.Fatal("swap did not exchange positions")
	}
	if listEvents != 1 {
		t.Fatalf("list notifications = %d, want 1", listEvents)
	}

	if err := co.Swap(a, a); err != nil {
		t.Fatalf("self swap: %v", err)
	}
	if listEvents != 1 {
		t.Fatal("self swap still announced a list change")
	}
}

func TestSyncVisibilityFollowsTagSelection(t *testing.T) {
	co, conn, set := newTestCore(Options{})
	c := mustManage(t, co, set, 10, geometry.Rect{Width: 200, Height: 150}, KindNormal)
	sticky := mustManage(t, co, set, 11, geometry.Rect{X: 300, Width: 200, Height: 150}, KindNormal)
	co.SetSticky(sticky, true)

	co.SyncVisibility()
	if c.Banned() || sticky.Banned() {
		t.Fatal("clients on the selected tag stayed banned")
	}
	if !conn.mapped[10] || !conn.mapped[11] {
		t.Fatal("visible clients not mapped")
	}

	if err := set.Select(0, []string{"two"}); err != nil {
		t.Fatalf("select: %v", err)
	}
	co.SyncVisibility()
	if !c.Banned() {
		t.Fatal("deselected client not banned")
	}
	if sticky.Banned() {
		t.Fatal("sticky client banned by tag switch")
	}

	co.SetMinimized(c, true)
	if err := set.Select(0, []string{"one"}); err != nil {
		t.Fatalf("select back: %v", err)
	}
	co.SyncVisibility()
	if !c.Banned() {
		t.Fatal("minimized client mapped by visibility sync")
	}
}

func TestSnapshotReflectsState(t *testing.T) {
	co, conn, set := newTestCore(Options{BorderWidth: 2})
	conn.transient[11] = 10
	parent := mustManage(t, co, set, 10, geometry.Rect{X: 100, Y: 100, Width: 200, Height: 150}, KindNormal)
	mustManage(t, co, set, 11, geometry.Rect{X: 120, Y: 120, Width: 100, Height: 80}, KindDialog)
	co.Focus(parent)
	co.SetOnTop(parent, true)

	snap := co.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot size = %d, want 2", len(snap))
	}
	if !snap[0].Focused || snap[0].Layer != "ontop" || snap[0].Border != 2 {
		t.Fatalf("parent info = %+v", snap[0])
	}
	if snap[1].Transient != 10 || snap[1].Layer != "transient" {
		t.Fatalf("child info = %+v", snap[1])
	}
}
