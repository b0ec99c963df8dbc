// Package diffengine computes a line-based diff between two versions of a
// file's content.
//
// It is built on github.com/sergi/go-diff/diffmatchpatch, the same library
// go-git's own utils/diff package wraps for line-oriented text diffing.
// Per that package's convention, lines are first tokenized into single
// runes (DiffLinesToChars), the Myers diff runs over the rune sequence,
// and the result is expanded back into full lines (DiffCharsToLines) —
// the classic trick for turning a character-level diff algorithm into a
// line-level one without re-implementing Myers/LCS from scratch.
package diffengine

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Region is one contiguous hunk of change, anchored at the 1-based line
// numbers where it begins in both the original and modified content.
type Region struct {
	OriginalStart1B int
	LinesRemoved    int
	ModifiedStart1B int
	LinesAdded      int
	RemovedLines    []string
	AddedLines      []string
}

// Stats summarizes a [FileDiff].
type Stats struct {
	LinesAdded   int
	LinesRemoved int
	Regions      int
}

// FileDiff is the result of comparing a file's original and modified
// content.
type FileDiff struct {
	Path    string
	Regions []Region
	Stats   Stats
}

// Compute produces a [FileDiff] for path between original and modified.
// Equal runs close the current region; delete/insert runs contribute to
// it. Line content is preserved exactly except for the trailing '\n'
// stripped from each recorded line's text. Regions are ordered by
// original-line ascending (the natural order DiffMain already returns
// them in).
func Compute(path, original, modified string) FileDiff {
	dmp := diffmatchpatch.New()

	a, b, lineArray := dmp.DiffLinesToChars(original, modified)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var (
		regions                  []Region
		cur                      *Region
		origLine, modLine        = 1, 1
		totalAdded, totalRemoved int
	)

	flush := func() {
		if cur != nil {
			regions = append(regions, *cur)
			cur = nil
		}
	}

	ensureRegion := func() *Region {
		if cur == nil {
			cur = &Region{OriginalStart1B: origLine, ModifiedStart1B: modLine}
		}

		return cur
	}

	for _, d := range diffs {
		lines := splitDiffLines(d.Text)

		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			origLine += len(lines)
			modLine += len(lines)

		case diffmatchpatch.DiffDelete:
			r := ensureRegion()
			r.RemovedLines = append(r.RemovedLines, lines...)
			r.LinesRemoved += len(lines)
			origLine += len(lines)
			totalRemoved += len(lines)

		case diffmatchpatch.DiffInsert:
			r := ensureRegion()
			r.AddedLines = append(r.AddedLines, lines...)
			r.LinesAdded += len(lines)
			modLine += len(lines)
			totalAdded += len(lines)
		}
	}

	flush()

	return FileDiff{
		Path:    path,
		Regions: regions,
		Stats: Stats{
			LinesAdded:   totalAdded,
			LinesRemoved: totalRemoved,
			Regions:      len(regions),
		},
	}
}

// ComputeBatch maps [Compute] over a batch of (path, original, modified)
// triples.
func ComputeBatch(items []struct{ Path, Original, Modified string }) []FileDiff {
	out := make([]FileDiff, len(items))

	for i, it := range items {
		out[i] = Compute(it.Path, it.Original, it.Modified)
	}

	return out
}

// splitDiffLines splits a diffmatchpatch line-run's text into individual
// lines, stripping terminating newlines so recorded line text never
// includes them.
func splitDiffLines(text string) []string {
	if text == "" {
		return nil
	}

	trimmed := strings.HasSuffix(text, "\n")
	if trimmed {
		text = text[:len(text)-1]
	}

	if text == "" {
		return nil
	}

	return strings.Split(text, "\n")
}
