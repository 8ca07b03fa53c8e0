// Package diff renders want/got mismatches for test failures.
package diff

import (
	"github.com/kylelemons/godebug/pretty"
)

// Diff returns a line diff between two values, or "" when they are
// equal. The output reads as the edits turning got into want.
func Diff[T any](want T, got T) string {
	d := pretty.Compare(got, want)
	if d == "" {
		return ""
	}
	return "\n(-got +want)\n" + d
}
