package main

import (
	"testing"
	"time"
)

func TestComputeLatencyOrdersSamples(t *testing.T) {
	samples := []time.Duration{
		5 * time.Millisecond,
		1 * time.Millisecond,
		3 * time.Millisecond,
		2 * time.Millisecond,
	}
	stats := computeLatency(samples)
	if stats.Min != 1000 {
		t.Fatalf("min = %v", stats.Min)
	}
	if stats.Max != 5000 {
		t.Fatalf("max = %v", stats.Max)
	}
	if stats.Mean != 2750 {
		t.Fatalf("mean = %v", stats.Mean)
	}
	if stats.Median != 2000 && stats.Median != 3000 {
		t.Fatalf("median = %v", stats.Median)
	}
}
