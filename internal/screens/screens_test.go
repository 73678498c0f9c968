package screens

import (
	"testing"

	"github.com/loftwm/loftwm/internal/geometry"
)

func twoScreens() *List {
	return NewList(
		&Screen{ID: 0, Name: "left", Geometry: geometry.Rect{Width: 1920, Height: 1080}},
		&Screen{ID: 1, Name: "right", Geometry: geometry.Rect{X: 1920, Width: 1280, Height: 1024}},
	)
}

func TestResolveByCoord(t *testing.T) {
	l := twoScreens()
	if got := l.Resolve(geometry.Point{X: 2000, Y: 100}, l.ByID(0)); got.ID != 1 {
		t.Fatalf("expected point on right screen, got %d", got.ID)
	}
}

func TestResolveFallsBackToRef(t *testing.T) {
	l := twoScreens()
	ref := l.ByID(1)
	if got := l.Resolve(geometry.Point{X: -50, Y: -50}, ref); got != ref {
		t.Fatalf("expected fallback to reference screen")
	}
}

func TestUsableAreaSubtractsStruts(t *testing.T) {
	l := twoScreens()
	area := UsableArea(l.ByID(0), []geometry.Strut{
		{Top: 24},
		{Left: 48},
	})
	want := geometry.Rect{X: 48, Y: 24, Width: 1872, Height: 1056}
	if area != want {
		t.Fatalf("expected %+v, got %+v", want, area)
	}
}

func TestUpdateReportsChange(t *testing.T) {
	l := twoScreens()
	if l.Update(0, geometry.Rect{Width: 1920, Height: 1080}) {
		t.Fatalf("identical geometry must not report a change")
	}
	if !l.Update(0, geometry.Rect{Width: 2560, Height: 1440}) {
		t.Fatalf("new geometry must report a change")
	}
	if !l.Update(7, geometry.Rect{Width: 800, Height: 600}) {
		t.Fatalf("unknown screen must be added and reported")
	}
	if l.ByID(7) == nil {
		t.Fatalf("expected screen 7 to exist after update")
	}
}

func TestDisplayAreaSpansAllScreens(t *testing.T) {
	l := twoScreens()
	want := geometry.Rect{Width: 3200, Height: 1080}
	if got := l.DisplayArea(); got != want {
		t.Fatalf("display area = %+v, want %+v", got, want)
	}
}

func TestDisplayAreaWithNegativeOrigin(t *testing.T) {
	l := NewList(
		&Screen{ID: 0, Geometry: geometry.Rect{X: -1280, Y: 100, Width: 1280, Height: 1024}},
		&Screen{ID: 1, Geometry: geometry.Rect{Width: 1920, Height: 1080}},
	)
	want := geometry.Rect{X: -1280, Y: 0, Width: 3200, Height: 1124}
	if got := l.DisplayArea(); got != want {
		t.Fatalf("display area = %+v, want %+v", got, want)
	}
}
