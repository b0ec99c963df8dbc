// Package lineindex maps byte offsets to 1-based line numbers and back.
package lineindex

import "sort"

// ByteSpan is a half-open byte range [Start, End).
type ByteSpan struct {
	Start int
	End   int
}

// Len returns the number of bytes the span covers.
func (s ByteSpan) Len() int {
	return s.End - s.Start
}

// LineSpan is an inclusive 1-based line range [Start, End].
type LineSpan struct {
	Start int
	End   int
}

// Index maps byte offsets to 1-based line numbers for a single buffer.
//
// Line numbers exposed on the public API are always 1-based; internal
// storage (starts) is 0-based, mirroring how the teacher keeps on-disk
// offsets 0-based while surfacing 1-based ticket/short-ID ordinals.
type Index struct {
	starts []int // starts[i] = byte offset of line i (0-based)
	length int    // total buffer length
}

// Build scans bytes once for '\n' and records the byte offset of every
// line start. The first line always starts at 0. A trailing newline does
// not create an additional empty final line.
func Build(data []byte) *Index {
	starts := make([]int, 1, 64)
	starts[0] = 0

	for i, b := range data {
		if b == '\n' && i+1 < len(data) {
			starts = append(starts, i+1)
		}
	}

	return &Index{starts: starts, length: len(data)}
}

// LineCount returns the number of lines in the buffer.
func (idx *Index) LineCount() int {
	return len(idx.starts)
}

// ByteOfLineStart returns the byte offset where 1-based line starts.
// Out-of-range lines are clamped to [1, LineCount()].
func (idx *Index) ByteOfLineStart(line int) int {
	line = clamp(line, 1, idx.LineCount())

	return idx.starts[line-1]
}

// ByteOfLineEnd returns the byte offset where 1-based line ends (exclusive
// of its trailing newline's successor; for the last line this is the
// total buffer length).
func (idx *Index) ByteOfLineEnd(line int) int {
	line = clamp(line, 1, idx.LineCount())

	if line == idx.LineCount() {
		return idx.length
	}

	// The end of this line is the next line's start, so the span includes
	// the line's trailing newline (ContentRangeOfLine excludes it;
	// ByteRangeOf keeps it so that round-tripping a full-line span
	// reproduces the exact original bytes).
	return idx.starts[line]
}

// ByteRangeOf returns the half-open byte span of 1-based line, including
// its trailing newline (if any).
func (idx *Index) ByteRangeOf(line int) ByteSpan {
	return ByteSpan{Start: idx.ByteOfLineStart(line), End: idx.ByteOfLineEnd(line)}
}

// ContentRangeOfLine returns the byte span of 1-based line's content, with
// a trailing "\n" and an optional preceding "\r" excluded. Content is
// otherwise preserved byte-for-byte (no line-ending canonicalization).
func (idx *Index) ContentRangeOfLine(line int, data []byte) ByteSpan {
	span := idx.ByteRangeOf(line)

	end := span.End
	if end > span.Start && end <= len(data) && data[end-1] == '\n' {
		end--

		if end > span.Start && data[end-1] == '\r' {
			end--
		}
	}

	return ByteSpan{Start: span.Start, End: end}
}

// LineOfByte returns the 1-based line number containing the given byte
// offset, found by binary search over the recorded line starts.
//
// The behavior at offset == total buffer length (one-past-the-end) is an
// open question in the spec; this implementation returns the last line
// number, keeping it consistent with [Index.ByteOfLineEnd] (whose value
// for the last line is also the total length).
func (idx *Index) LineOfByte(offset int) int {
	if offset >= idx.length {
		return idx.LineCount()
	}

	if offset < 0 {
		offset = 0
	}

	// sort.Search finds the first index i such that starts[i] > offset;
	// the containing line is i-1 in 0-based terms, i.e. line number i.
	i := sort.Search(len(idx.starts), func(i int) bool {
		return idx.starts[i] > offset
	})

	return i
}

// LinesOfSpan maps a half-open byte span to the inclusive 1-based line
// range it touches. An empty span (Start == End) still resolves to the
// single line containing Start.
func (idx *Index) LinesOfSpan(span ByteSpan) LineSpan {
	start := idx.LineOfByte(span.Start)

	end := span.End
	if end > span.Start {
		end-- // last byte actually covered, since span.End is exclusive
	}

	return LineSpan{Start: start, End: idx.LineOfByte(end)}
}

// SpanOfLines returns the half-open byte span covering 1-based lines
// [startLine, endLine] inclusive, including the final line's trailing
// newline if present.
func (idx *Index) SpanOfLines(startLine, endLine int) ByteSpan {
	return ByteSpan{
		Start: idx.ByteOfLineStart(startLine),
		End:   idx.ByteOfLineEnd(endLine),
	}
}

// PreviewWindow computes the symmetric line window [startLine-delta,
// endLine+delta], clamped to [1, LineCount()].
func (idx *Index) PreviewWindow(startLine, endLine, delta int) LineSpan {
	lo := startLine - delta
	hi := endLine + delta

	return LineSpan{
		Start: clamp(lo, 1, idx.LineCount()),
		End:   clamp(hi, 1, idx.LineCount()),
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}

	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
