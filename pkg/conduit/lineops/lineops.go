// Package lineops translates user-facing, 1-based line edits into byte
// content mutations plus change statistics.
package lineops

import "strings"

// Kind distinguishes the four line operations the engine supports.
type Kind int

const (
	ReplaceRange Kind = iota
	DeleteRange
	InsertBefore
	InsertAfter
)

// Op is a single line operation. Start/End/Line are 1-based and inclusive.
// Content is only meaningful for ReplaceRange/InsertBefore/InsertAfter.
type Op struct {
	Kind    Kind
	Start   int // ReplaceRange, DeleteRange
	End     int // ReplaceRange, DeleteRange
	Line    int // InsertBefore, InsertAfter
	Content string
}

// Apply runs ops against content and returns the rewritten content plus
// the total lines added and removed across all ops.
//
// Ops are sorted by starting line descending and executed in that order so
// that an edit to an earlier line never renumbers a later, not-yet-applied
// edit — the same trick the teacher's WAL op buffer uses for "last write
// wins" semantics within one transaction, adapted here to "earliest line
// wins the renumbering race".
//
// Invalid ranges (zero start, start > end, or a start beyond the end of
// the file) are ignored rather than erroring, matching the spec's
// boundary-behavior table.
func Apply(content string, ops []Op) (newContent string, linesAdded, linesRemoved int) {
	trailingNewline := strings.HasSuffix(content, "\n")

	body := content
	if trailingNewline {
		body = body[:len(body)-1]
	}

	lines := splitLines(body)

	sorted := make([]Op, len(ops))
	copy(sorted, ops)

	sortByStartDescending(sorted)

	for _, op := range sorted {
		var added, removed int
		lines, added, removed = applyOne(lines, op)
		linesAdded += added
		linesRemoved += removed
	}

	newContent = strings.Join(lines, "\n")
	if trailingNewline {
		newContent += "\n"
	}

	return newContent, linesAdded, linesRemoved
}

func applyOne(lines []string, op Op) (result []string, added, removed int) {
	n := len(lines)

	switch op.Kind {
	case ReplaceRange:
		start, end := op.Start, op.End
		if start < 1 || start > end {
			return lines, 0, 0
		}

		if end > n {
			end = n
		}

		if start > n {
			return lines, 0, 0
		}

		replacement := splitLines(op.Content)
		removed = end - start + 1
		added = len(replacement)

		result = make([]string, 0, n-removed+added)
		result = append(result, lines[:start-1]...)
		result = append(result, replacement...)
		result = append(result, lines[end:]...)

		return result, added, removed

	case DeleteRange:
		start, end := op.Start, op.End
		if start < 1 || start > end || start > n {
			return lines, 0, 0
		}

		if end > n {
			end = n
		}

		removed = end - start + 1

		result = make([]string, 0, n-removed)
		result = append(result, lines[:start-1]...)
		result = append(result, lines[end:]...)

		return result, 0, removed

	case InsertBefore:
		line := op.Line
		if line < 1 {
			return lines, 0, 0
		}

		idx := line - 1
		if idx > n {
			idx = n
		}

		return insertAt(lines, idx, op.Content)

	case InsertAfter:
		line := op.Line
		if line < 0 {
			return lines, 0, 0
		}

		idx := line
		if idx > n {
			idx = n
		}

		return insertAt(lines, idx, op.Content)

	default:
		return lines, 0, 0
	}
}

func insertAt(lines []string, idx int, content string) (result []string, added, removed int) {
	inserted := splitLines(content)

	result = make([]string, 0, len(lines)+len(inserted))
	result = append(result, lines[:idx]...)
	result = append(result, inserted...)
	result = append(result, lines[idx:]...)

	return result, len(inserted), 0
}

// splitLines splits content on '\n' without terminators. An empty string
// yields one empty line, matching how strings.Split treats "" (a single
// empty-string line), which is what we want for ReplaceRange/Insert
// payloads.
func splitLines(content string) []string {
	if content == "" {
		return []string{""}
	}

	return strings.Split(content, "\n")
}

// sortByStartDescending sorts ops by their effective starting line,
// descending. Insertion sort: op counts per call are small (a handful of
// user-issued edits), so the simple O(n^2) shape the teacher favors for
// small buffered op sets (see Tx.ops in internal/store/tx.go, a map
// replayed in whatever order map iteration gives, small enough not to
// matter) is preferable to importing sort for a three-line comparator.
func sortByStartDescending(ops []Op) {
	for i := 1; i < len(ops); i++ {
		for j := i; j > 0 && effectiveStart(ops[j-1]) < effectiveStart(ops[j]); j-- {
			ops[j-1], ops[j] = ops[j], ops[j-1]
		}
	}
}

func effectiveStart(op Op) int {
	switch op.Kind {
	case ReplaceRange, DeleteRange:
		return op.Start
	case InsertBefore:
		return op.Line
	case InsertAfter:
		return op.Line + 1
	default:
		return 0
	}
}
