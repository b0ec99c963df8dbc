package preview_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abaveja313/conduit/pkg/conduit/lineindex"
	"github.com/abaveja313/conduit/pkg/conduit/preview"
)

func TestBuild_FindInFile(t *testing.T) {
	data := []byte("line 1\nline 2 match\nline 3\n")
	idx := lineindex.Build(data)

	hunk := preview.Build("src/main.txt", idx, data, 2, 2, 1,
		[]lineindex.LineSpan{{Start: 2, End: 2}}, 0)

	require.Equal(t, 1, hunk.PreviewStartLine)
	require.Equal(t, 3, hunk.PreviewEndLine)
	require.Equal(t, string(data), hunk.Excerpt)
	require.Equal(t, []lineindex.LineSpan{{Start: 2, End: 2}}, hunk.MatchedLineRanges)
}

func TestBuild_ClampsToFileBounds(t *testing.T) {
	data := []byte("only line\n")
	idx := lineindex.Build(data)

	hunk := preview.Build("f.txt", idx, data, 1, 1, 5, nil, 0)

	require.Equal(t, 1, hunk.PreviewStartLine)
	require.Equal(t, 1, hunk.PreviewEndLine)
}

func TestBuild_LossyUTF8(t *testing.T) {
	data := []byte{'a', 0xff, 'b', '\n'}
	idx := lineindex.Build(data)

	hunk := preview.Build("bin.dat", idx, data, 1, 1, 0, nil, 0)

	require.Contains(t, hunk.Excerpt, "�")
}

func TestBuild_CharBudgetTruncates(t *testing.T) {
	pad := func() string {
		b := make([]byte, 3000)
		for i := range b {
			b[i] = 'x'
		}

		return string(b)
	}

	data := []byte(pad() + "\n" + pad() + "\nmatch\n" + pad() + "\n" + pad() + "\n")
	idx := lineindex.Build(data)

	hunk := preview.Build("f.txt", idx, data, 3, 3, 2, nil, 100)

	require.Less(t, len(hunk.Excerpt), len(data))
	require.Contains(t, hunk.Excerpt, "match")
}
