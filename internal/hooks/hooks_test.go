package hooks

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var order []string
	bus.Subscribe(Subscriber{PropertyChanged: func(id uint32, field string) {
		order = append(order, "first:"+field)
	}})
	bus.Subscribe(Subscriber{PropertyChanged: func(id uint32, field string) {
		order = append(order, "second:"+field)
	}})

	bus.PropertyChanged(7, "fullscreen")

	want := []string{"first:fullscreen", "second:fullscreen"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Fatalf("unexpected delivery order (-want +got):\n%s", diff)
	}
}

func TestBusSkipsNilCallbacks(t *testing.T) {
	bus := NewBus()
	fired := false
	bus.Subscribe(Subscriber{Focused: func(uint32) { fired = true }})

	// No list-changed callback registered anywhere; must not panic.
	bus.ListChanged()
	bus.Focused(3)
	if !fired {
		t.Fatalf("expected focused callback to fire")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	count := 0
	token := bus.Subscribe(Subscriber{ListChanged: func() { count++ }})
	bus.ListChanged()
	bus.Unsubscribe(token)
	bus.ListChanged()
	if count != 1 {
		t.Fatalf("expected one delivery before unsubscribe, got %d", count)
	}
}
