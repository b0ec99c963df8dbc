package lineindex_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abaveja313/conduit/pkg/conduit/lineindex"
)

func TestBuild_Basic(t *testing.T) {
	data := []byte("line 1\nline 2\nline 3\n")
	idx := lineindex.Build(data)

	require.Equal(t, 3, idx.LineCount())
	require.Equal(t, 0, idx.ByteOfLineStart(1))
	require.Equal(t, 7, idx.ByteOfLineStart(2))
	require.Equal(t, 14, idx.ByteOfLineStart(3))
	require.Equal(t, len(data), idx.ByteOfLineEnd(3))
}

func TestBuild_NoTrailingNewline(t *testing.T) {
	data := []byte("a\nb\nc")
	idx := lineindex.Build(data)

	require.Equal(t, 3, idx.LineCount())
}

func TestBuild_TrailingNewlineNoEmptyLine(t *testing.T) {
	withNL := lineindex.Build([]byte("a\nb\n"))
	withoutNL := lineindex.Build([]byte("a\nb"))

	require.Equal(t, withoutNL.LineCount(), withNL.LineCount())
}

func TestLineOfByte_RoundTrip(t *testing.T) {
	data := []byte("aa\nbb\ncc\ndd\n")
	idx := lineindex.Build(data)

	for line := 1; line <= idx.LineCount(); line++ {
		start := idx.ByteOfLineStart(line)
		require.Equal(t, line, idx.LineOfByte(start), "line %d", line)
	}
}

func TestLineOfByte_OnePastEnd(t *testing.T) {
	data := []byte("aa\nbb\n")
	idx := lineindex.Build(data)

	// Open question, resolved: one-past-the-end resolves to the last line.
	require.Equal(t, idx.LineCount(), idx.LineOfByte(len(data)))
}

func TestContentRangeOfLine_StripsNewlineAndCR(t *testing.T) {
	data := []byte("a\r\nb\n")
	idx := lineindex.Build(data)

	span := idx.ContentRangeOfLine(1, data)
	require.Equal(t, "a", string(data[span.Start:span.End]))

	span = idx.ContentRangeOfLine(2, data)
	require.Equal(t, "b", string(data[span.Start:span.End]))
}

func TestPreviewWindow_Clamps(t *testing.T) {
	data := []byte("1\n2\n3\n4\n5\n")
	idx := lineindex.Build(data)

	win := idx.PreviewWindow(1, 1, 3)
	require.Equal(t, 1, win.Start)
	require.Equal(t, 4, win.End)

	win = idx.PreviewWindow(5, 5, 3)
	require.Equal(t, 2, win.Start)
	require.Equal(t, 5, win.End)
}

func TestLinesOfSpan(t *testing.T) {
	data := []byte("aa\nbb\ncc\n")
	idx := lineindex.Build(data)

	span := idx.SpanOfLines(2, 2)
	lines := idx.LinesOfSpan(span)
	require.Equal(t, lineindex.LineSpan{Start: 2, End: 2}, lines)
}
