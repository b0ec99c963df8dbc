package lineops_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abaveja313/conduit/pkg/conduit/lineops"
)

func TestApply_ReplaceRange(t *testing.T) {
	content := "a\nb\nc\nd\ne"

	newContent, added, removed := lineops.Apply(content, []lineops.Op{
		{Kind: lineops.ReplaceRange, Start: 2, End: 4, Content: "X\nY"},
	})

	require.Equal(t, "a\nX\nY\ne", newContent)
	require.Equal(t, 2, added)
	require.Equal(t, 3, removed)
}

func TestApply_DeleteRange_ClampsEnd(t *testing.T) {
	content := "a\nb\nc"

	newContent, added, removed := lineops.Apply(content, []lineops.Op{
		{Kind: lineops.DeleteRange, Start: 2, End: 100},
	})

	require.Equal(t, "a", newContent)
	require.Equal(t, 0, added)
	require.Equal(t, 2, removed)
}

func TestApply_InsertBefore_Append(t *testing.T) {
	content := "a\nb\nc"

	newContent, added, removed := lineops.Apply(content, []lineops.Op{
		{Kind: lineops.InsertBefore, Line: 4, Content: "d"},
	})

	require.Equal(t, "a\nb\nc\nd", newContent)
	require.Equal(t, 1, added)
	require.Equal(t, 0, removed)
}

func TestApply_InsertAfter(t *testing.T) {
	content := "a\nb\nc"

	newContent, _, _ := lineops.Apply(content, []lineops.Op{
		{Kind: lineops.InsertAfter, Line: 1, Content: "x"},
	})

	require.Equal(t, "a\nx\nb\nc", newContent)
}

func TestApply_InvalidRangesIgnored(t *testing.T) {
	content := "a\nb\nc"

	newContent, added, removed := lineops.Apply(content, []lineops.Op{
		{Kind: lineops.ReplaceRange, Start: 3, End: 1, Content: "z"},
		{Kind: lineops.DeleteRange, Start: 0, End: 1},
		{Kind: lineops.DeleteRange, Start: 10, End: 20},
	})

	require.Equal(t, content, newContent)
	require.Equal(t, 0, added)
	require.Equal(t, 0, removed)
}

func TestApply_TrailingNewlinePreserved(t *testing.T) {
	content := "a\nb\nc\n"

	newContent, _, _ := lineops.Apply(content, []lineops.Op{
		{Kind: lineops.ReplaceRange, Start: 2, End: 2, Content: "B"},
	})

	require.True(t, strings.HasSuffix(newContent, "\n"))
	require.Equal(t, "a\nB\nc\n", newContent)
}

func TestApply_NoTrailingNewlinePreserved(t *testing.T) {
	content := "a\nb\nc"

	newContent, _, _ := lineops.Apply(content, []lineops.Op{
		{Kind: lineops.ReplaceRange, Start: 2, End: 2, Content: "B"},
	})

	require.False(t, strings.HasSuffix(newContent, "\n"))
}

func TestApply_MultipleOps_DescendingOrderIndependence(t *testing.T) {
	content := "1\n2\n3\n4\n5"

	newContent, _, _ := lineops.Apply(content, []lineops.Op{
		{Kind: lineops.ReplaceRange, Start: 1, End: 1, Content: "ONE"},
		{Kind: lineops.DeleteRange, Start: 4, End: 4},
	})

	require.Equal(t, "ONE\n2\n3\n5", newContent)
}

func TestApply_LineCountInvariant(t *testing.T) {
	content := "a\nb\nc\nd\ne"
	originalLines := len(strings.Split(content, "\n"))

	newContent, added, removed := lineops.Apply(content, []lineops.Op{
		{Kind: lineops.ReplaceRange, Start: 2, End: 4, Content: "X\nY"},
	})

	newLines := len(strings.Split(newContent, "\n"))
	require.Equal(t, originalLines+added-removed, newLines)
}
