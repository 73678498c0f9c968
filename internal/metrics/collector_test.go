package metrics

import "testing"

func TestDisabledCollectorRecordsNothing(t *testing.T) {
	c := NewCollector(false)
	c.RecordEvent("create")
	c.RecordManaged()
	snap := c.Snapshot()
	if snap.Enabled || snap.Totals.Managed != 0 || len(snap.Events) != 0 {
		t.Fatalf("disabled collector leaked state: %+v", snap)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.RecordEvent("create")
	c.RecordRestack()
	if c.Enabled() {
		t.Fatal("nil collector claims to be enabled")
	}
	if snap := c.Snapshot(); snap.Enabled {
		t.Fatalf("nil snapshot = %+v", snap)
	}
}

func TestCountersAccumulate(t *testing.T) {
	c := NewCollector(true)
	c.RecordEvent("create")
	c.RecordEvent("create")
	c.RecordEvent("destroy")
	c.RecordManaged()
	c.RecordManaged()
	c.RecordUnmanaged()
	c.RecordFocusChange()
	c.RecordRestack()
	c.RecordNotification()

	snap := c.Snapshot()
	if snap.Totals.Managed != 2 || snap.Totals.Unmanaged != 1 {
		t.Fatalf("lifecycle totals = %+v", snap.Totals)
	}
	if snap.Totals.FocusChanges != 1 || snap.Totals.Restacks != 1 || snap.Totals.Notifications != 1 {
		t.Fatalf("totals = %+v", snap.Totals)
	}
	if len(snap.Events) != 2 {
		t.Fatalf("event kinds = %+v", snap.Events)
	}
	if snap.Events[0].Kind != "create" || snap.Events[0].Count != 2 {
		t.Fatalf("create metrics = %+v", snap.Events[0])
	}
	if snap.Events[1].Kind != "destroy" || snap.Events[1].Count != 1 {
		t.Fatalf("destroy metrics = %+v", snap.Events[1])
	}
}

func TestDisablingResetsCounters(t *testing.T) {
	c := NewCollector(true)
	c.RecordEvent("create")
	c.SetEnabled(false)
	c.SetEnabled(true)
	if snap := c.Snapshot(); len(snap.Events) != 0 || snap.Totals.Managed != 0 {
		t.Fatalf("counters survived a disable cycle: %+v", snap)
	}
}
