package regexmatch

import "github.com/abaveja313/conduit/pkg/conduit/lineindex"

// regionLines bounds how many lines a single scan region covers. Large
// files are scanned in chunks so a single pathological match (or a long
// abort-check interval) doesn't stall cooperative cancellation for too
// long; this mirrors the spec's requirement that abort is polled "between
// regions".
const regionLines = 500

// SearchRegions drives a line-oriented scan of haystack, splitting it into
// chunks of up to regionLines lines and invoking onRegion for each chunk
// that is handed to matcher. multiline controls whether regions may span
// more than one line of context around a match (currently regions are
// always line-chunked; multiline only affects whether '^'/'$' inside the
// pattern were compiled to anchor per-line, which is the caller's
// responsibility via Options.Multiline at Compile time).
//
// SearchRegions itself checks the abort flag between regions only; the
// onRegion callbacks in this module ([ForEachMatch] and
// replaceplan.PlanInBytes) also check it between individual matches, so a
// scan can stop partway through a region.
func SearchRegions(
	haystack []byte,
	matcher *Matcher,
	multiline bool,
	abort *AbortFlag,
	onRegion func(MatchRegion) bool,
) {
	_ = multiline // the pattern's own anchoring mode is set at Compile time.

	idx := lineindex.Build(haystack)
	lineCount := idx.LineCount()

	for first := 1; first <= lineCount; first += regionLines {
		if abort.IsSet() {
			return
		}

		last := first + regionLines - 1
		if last > lineCount {
			last = lineCount
		}

		span := idx.SpanOfLines(first, last)

		region := MatchRegion{
			FirstLine1Based:   first,
			Bytes:             haystack[span.Start:span.End],
			LineCount:         last - first + 1,
			AbsoluteByteStart: span.Start,
		}

		if !onRegion(region) {
			return
		}
	}
}

// ForEachMatch is a convenience wrapper over SearchRegions that converts
// region-relative match spans to absolute byte spans, the shape
// find/replace operations actually consume. lineStart is the absolute
// 1-based number of the first line of the region holding the match, not
// the line of the match itself.
func ForEachMatch(
	haystack []byte,
	matcher *Matcher,
	abort *AbortFlag,
	onMatch func(span lineindex.ByteSpan, lineStart int) bool,
) {
	cont := true

	SearchRegions(haystack, matcher, true, abort, func(region MatchRegion) bool {
		matcher.FindMatches(region.Bytes, func(start, end int) bool {
			if abort.IsSet() {
				cont = false

				return false
			}

			absSpan := lineindex.ByteSpan{
				Start: region.AbsoluteByteStart + start,
				End:   region.AbsoluteByteStart + end,
			}

			if !onMatch(absSpan, region.FirstLine1Based) {
				cont = false

				return false
			}

			return true
		})

		return cont
	})
}
