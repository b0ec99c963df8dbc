// Package replaceplan builds and applies non-overlapping, absolute-byte
// edit plans for bulk regex replace operations.
package replaceplan

import (
	"bytes"
	"sort"

	"github.com/abaveja313/conduit/pkg/conduit/lineindex"
	"github.com/abaveja313/conduit/pkg/conduit/regexmatch"
)

// EditOp is one non-overlapping absolute-byte substitution.
type EditOp struct {
	Span        lineindex.ByteSpan // absolute byte span being replaced
	Replacement []byte
	LineShift   int // newlines(Replacement) - newlines(original match)
}

// Plan is a start-sorted, non-overlapping sequence of edits over one
// buffer.
type Plan struct {
	Ops []EditOp
}

// PlanInBytes drives [regexmatch.SearchRegions] over haystack, expanding
// template for every match into an [EditOp]. Operations are globally
// sorted by start and any operation whose start falls before the previous
// operation's end is dropped — left-to-right wins, matching the spec's
// conflict-resolution rule.
func PlanInBytes(
	haystack []byte,
	matcher *regexmatch.Matcher,
	template []byte,
	allowMultiline bool,
	abort *regexmatch.AbortFlag,
) Plan {
	var ops []EditOp

	regexmatch.SearchRegions(haystack, matcher, allowMultiline, abort, func(region regexmatch.MatchRegion) bool {
		matcher.FindMatches(region.Bytes, func(start, end int) bool {
			if abort.IsSet() {
				return false
			}

			buf, _, err := matcher.ReplaceAt(region.Bytes, start, template, nil)
			if err != nil {
				return true // skip a match we somehow can't expand; keep scanning
			}

			absStart := region.AbsoluteByteStart + start
			absEnd := region.AbsoluteByteStart + end

			ops = append(ops, EditOp{
				Span:        lineindex.ByteSpan{Start: absStart, End: absEnd},
				Replacement: buf,
				LineShift:   bytes.Count(buf, []byte("\n")) - bytes.Count(haystack[absStart:absEnd], []byte("\n")),
			})

			return true
		})

		return !abort.IsSet()
	})

	sort.Slice(ops, func(i, j int) bool { return ops[i].Span.Start < ops[j].Span.Start })

	filtered := ops[:0]

	prevEnd := -1

	for _, op := range ops {
		if op.Span.Start < prevEnd {
			continue
		}

		filtered = append(filtered, op)
		prevEnd = op.Span.End
	}

	return Plan{Ops: filtered}
}

// ApplyPlan rewrites haystack in a single pass according to plan. An empty
// plan returns an unchanged copy.
func ApplyPlan(haystack []byte, plan Plan) []byte {
	capacity := len(haystack)

	for _, op := range plan.Ops {
		delta := len(op.Replacement) - op.Span.Len()
		if delta > 0 {
			capacity += delta
		}
	}

	out := make([]byte, 0, capacity)

	cursor := 0

	for _, op := range plan.Ops {
		out = append(out, haystack[cursor:op.Span.Start]...)
		out = append(out, op.Replacement...)
		cursor = op.Span.End
	}

	out = append(out, haystack[cursor:]...)

	return out
}
