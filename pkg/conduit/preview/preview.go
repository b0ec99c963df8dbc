// Package preview builds bounded textual excerpts ("hunks") around search
// matches.
package preview

import (
	"strings"
	"unicode/utf8"

	"github.com/abaveja313/conduit/pkg/conduit/lineindex"
)

// defaultCharBudget bounds the excerpt length emitted per side of the
// match when the caller does not specify one, matching the spec's
// "≈1000-1250" guidance.
const defaultCharBudget = 1200

// Hunk is a bounded excerpt around one or more matches.
type Hunk struct {
	Path             string
	PreviewStartLine int
	PreviewEndLine   int
	MatchedLineRanges []lineindex.LineSpan
	Excerpt          string
}

// Build computes the symmetric line window around [matchStart, matchEnd],
// clamped to the file, optionally truncated by a per-side character
// budget (0 uses [defaultCharBudget]), and renders it as lossy-UTF-8 text.
func Build(
	path string,
	idx *lineindex.Index,
	data []byte,
	matchStartLine, matchEndLine, delta int,
	matchedLineRanges []lineindex.LineSpan,
	charBudget int,
) Hunk {
	if charBudget <= 0 {
		charBudget = defaultCharBudget
	}

	window := idx.PreviewWindow(matchStartLine, matchEndLine, delta)

	span := idx.SpanOfLines(window.Start, window.End)

	matchSpan := idx.SpanOfLines(matchStartLine, matchEndLine)

	start, end := truncateAroundMatch(span.Start, span.End, matchSpan.Start, matchSpan.End, charBudget)

	// Re-derive the reported line range from the (possibly truncated)
	// byte span, since truncation can shrink the window.
	startLine := idx.LineOfByte(start)

	endByte := end
	if endByte > start {
		endByte--
	}

	endLine := idx.LineOfByte(endByte)

	return Hunk{
		Path:              path,
		PreviewStartLine:  startLine,
		PreviewEndLine:    endLine,
		MatchedLineRanges: matchedLineRanges,
		Excerpt:           toUTF8Lossy(data[start:end]),
	}
}

// truncateAroundMatch caps the emitted span to at most charBudget bytes on
// each side of [matchStart, matchEnd), applied after the line window is
// computed and before the excerpt is sliced, per the spec's ordering.
func truncateAroundMatch(spanStart, spanEnd, matchStart, matchEnd, charBudget int) (int, int) {
	start := spanStart
	if matchStart-start > charBudget {
		start = matchStart - charBudget
	}

	end := spanEnd
	if end-matchEnd > charBudget {
		end = matchEnd + charBudget
	}

	return start, end
}

// toUTF8Lossy renders b as UTF-8 text, substituting U+FFFD for invalid
// byte sequences rather than erroring — previews tolerate invalid UTF-8,
// per the spec's Non-goals.
func toUTF8Lossy(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	var sb strings.Builder

	sb.Grow(len(b))

	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		sb.WriteRune(r)
		b = b[size:]
	}

	return sb.String()
}
