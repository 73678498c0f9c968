package config

import (
	"strings"
	"testing"
)

func TestDiffSerializedReportsChangedLines(t *testing.T) {
	previous := []byte("borderWidth: 1\nfocusFollowsMouse: true\n")
	current := []byte("borderWidth: 4\nfocusFollowsMouse: true\n")

	diff := DiffSerialized(previous, current)
	if diff == "" {
		t.Fatal("changed documents produced no diff")
	}
	if !strings.Contains(diff, "borderWidth: 1") || !strings.Contains(diff, "borderWidth: 4") {
		t.Fatalf("diff missing the changed line:\n%s", diff)
	}
}

func TestDiffSerializedIdenticalDocuments(t *testing.T) {
	doc := []byte("borderWidth: 1\n")
	if diff := DiffSerialized(doc, doc); diff != "" {
		t.Fatalf("identical documents produced a diff:\n%s", diff)
	}
	if diff := DiffSerialized(nil, nil); diff != "" {
		t.Fatalf("empty documents produced a diff:\n%s", diff)
	}
}
