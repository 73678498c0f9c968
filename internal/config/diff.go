package config

import (
	"strings"

	"github.com/google/go-cmp/cmp"
)

// DiffSerialized diffs two raw configuration documents line by line. The
// reloader logs the result when a rejected document differs from the one the
// daemon is still running. An empty string means the documents are identical.
func DiffSerialized(previous, current []byte) string {
	return cmp.Diff(docLines(previous), docLines(current))
}

func docLines(doc []byte) []string {
	text := strings.ReplaceAll(string(doc), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if len(doc) == 0 {
		return nil
	}
	if text == "" {
		return []string{""}
	}
	return strings.Split(text, "\n")
}
