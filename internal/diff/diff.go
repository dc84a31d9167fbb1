// Package diff computes line-level differences between two text snapshots.
package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Op is the kind of a line edit.
type Op int

const (
	// Delete marks a line present only in the old text.
	Delete Op = iota
	// Insert marks a line present only in the new text.
	Insert
)

// String returns the unified-diff prefix for the operation.
func (o Op) String() string {
	switch o {
	case Delete:
		return "-"
	case Insert:
		return "+"
	default:
		return "?"
	}
}

// Edit is one removed or added line.
type Edit struct {
	Op   Op
	Line string
	// Old and New are zero-based line positions in the respective text.
	// Old is -1 for inserts, New is -1 for deletes.
	Old int
	New int
}

// String renders the edit as a unified-diff body line.
func (e Edit) String() string {
	return e.Op.String() + e.Line
}

// Compute returns the ordered line edits turning oldText into newText.
// Unchanged lines are not reported. Within a replaced block all deletions
// precede all insertions, matching unified-diff output.
func Compute(oldText, newText string) []Edit {
	if oldText == newText {
		return nil
	}

	a := splitLines(oldText)
	b := splitLines(newText)

	var edits []Edit
	matcher := difflib.NewMatcher(a, b)
	for _, op := range matcher.GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		if op.Tag == 'r' || op.Tag == 'd' {
			for i := op.I1; i < op.I2; i++ {
				edits = append(edits, Edit{Op: Delete, Line: a[i], Old: i, New: -1})
			}
		}
		if op.Tag == 'r' || op.Tag == 'i' {
			for j := op.J1; j < op.J2; j++ {
				edits = append(edits, Edit{Op: Insert, Line: b[j], Old: -1, New: j})
			}
		}
	}
	return edits
}

// Counts returns the number of deleted and inserted lines in edits.
func Counts(edits []Edit) (deleted, inserted int) {
	for _, e := range edits {
		switch e.Op {
		case Delete:
			deleted++
		case Insert:
			inserted++
		}
	}
	return deleted, inserted
}

// Unified renders a unified diff between the two texts as individual lines
// (headers "--- before" / "+++ after", three lines of context).
// Returns nil when the texts are identical.
func Unified(oldText, newText string) []string {
	if oldText == newText {
		return nil
	}

	ud := difflib.UnifiedDiff{
		A:        withNewlines(splitLines(oldText)),
		B:        withNewlines(splitLines(newText)),
		FromFile: "before",
		ToFile:   "after",
		Context:  3,
	}
	out, err := difflib.GetUnifiedDiffString(ud)
	if err != nil || out == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(out, "\n"), "\n")
}

// splitLines splits on line boundaries without keeping terminators.
// A trailing newline does not produce an empty final line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

func withNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}
