package diffengine_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abaveja313/conduit/pkg/conduit/diffengine"
)

func TestCompute_Identical(t *testing.T) {
	d := diffengine.Compute("a.txt", "a\nb\nc\n", "a\nb\nc\n")

	require.Zero(t, d.Stats.LinesAdded)
	require.Zero(t, d.Stats.LinesRemoved)
	require.Zero(t, d.Stats.Regions)
	require.Empty(t, d.Regions)
}

func TestCompute_SingleEdit(t *testing.T) {
	d := diffengine.Compute("a.txt", "a\nb\nc\n", "a\nB\nc\n")

	require.Equal(t, 1, d.Stats.Regions)
	require.Equal(t, 1, d.Stats.LinesAdded)
	require.Equal(t, 1, d.Stats.LinesRemoved)

	r := d.Regions[0]
	require.Equal(t, 2, r.OriginalStart1B)
	require.Equal(t, 2, r.ModifiedStart1B)
	require.Equal(t, []string{"b"}, r.RemovedLines)
	require.Equal(t, []string{"B"}, r.AddedLines)
}

func TestCompute_PureInsertion(t *testing.T) {
	d := diffengine.Compute("a.txt", "a\nc\n", "a\nb\nc\n")

	require.Equal(t, 1, d.Stats.LinesAdded)
	require.Equal(t, 0, d.Stats.LinesRemoved)
}

func TestCompute_RoundTrip(t *testing.T) {
	original := "a\nb\nc\nd\n"
	modified := "a\nX\nc\nY\nd\n"

	d := diffengine.Compute("a.txt", original, modified)

	// Apply the recorded regions back onto `original`'s lines and confirm
	// we reproduce `modified` exactly — the spec's round-trip property.
	lines := strings.Split(strings.TrimSuffix(original, "\n"), "\n")

	// regions are ordered by original-line ascending; apply from the end
	// so earlier region offsets stay valid as we mutate.
	for i := len(d.Regions) - 1; i >= 0; i-- {
		r := d.Regions[i]
		start := r.OriginalStart1B - 1
		end := start + r.LinesRemoved

		rebuilt := append([]string{}, lines[:start]...)
		rebuilt = append(rebuilt, r.AddedLines...)
		rebuilt = append(rebuilt, lines[end:]...)
		lines = rebuilt
	}

	got := strings.Join(lines, "\n") + "\n"
	require.Equal(t, modified, got)
}

func TestComputeBatch(t *testing.T) {
	items := []struct{ Path, Original, Modified string }{
		{"a.txt", "a\n", "a\n"},
		{"b.txt", "a\n", "b\n"},
	}

	diffs := diffengine.ComputeBatch(items)
	require.Len(t, diffs, 2)
	require.Zero(t, diffs[0].Stats.Regions)
	require.Equal(t, 1, diffs[1].Stats.Regions)
}
