package conduit_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/abaveja313/conduit/pkg/conduit"
	"github.com/abaveja313/conduit/pkg/conduit/diffengine"
	"github.com/abaveja313/conduit/pkg/conduit/fileindex"
	"github.com/abaveja313/conduit/pkg/conduit/pathkey"
	"github.com/abaveja313/conduit/pkg/conduit/regexmatch"
)

func loadOne(t *testing.T, e *conduit.Engine, path, content string) {
	t.Helper()

	key, err := pathkey.New(path)
	require.NoError(t, err)

	err = e.Manager().LoadFiles(map[pathkey.Key]fileindex.Entry{
		key: fileindex.NewWithBytes(key, []byte(content), 0, true, ""),
	})
	require.NoError(t, err)
}

// Scenario 1: find-in-file.
func TestFind_SingleFileSingleMatch(t *testing.T) {
	e := conduit.New(conduit.Config{})

	loadOne(t, e, "src/main.txt", "line 1\nline 2 match\nline 3\n")

	hunks, stats, err := e.Find(conduit.FindOptions{
		Pattern: "match",
		Delta:   1,
		Space:   conduit.Active,
	})
	require.NoError(t, err)
	require.Len(t, hunks, 1)

	h := hunks[0]
	require.Equal(t, 1, h.PreviewStartLine)
	require.Equal(t, 3, h.PreviewEndLine)
	require.Len(t, h.MatchedLineRanges, 1)
	require.Equal(t, 2, h.MatchedLineRanges[0].Start)
	require.Equal(t, 2, h.MatchedLineRanges[0].End)
	require.Equal(t, "line 1\nline 2 match\nline 3\n", h.Excerpt)
	require.Equal(t, 1, stats.Matches)
	require.False(t, stats.Aborted)
}

// Scenario 2: line replace.
func TestReplaceLines_NetDeltaAndLineCounts(t *testing.T) {
	e := conduit.New(conduit.Config{})

	loadOne(t, e, "a.txt", "a\nb\nc\nd\ne")

	require.NoError(t, e.Manager().BeginStaging())

	result, err := e.ReplaceLines("a.txt", 2, 4, "X\nY")
	require.NoError(t, err)

	require.Equal(t, 3, result.Affected)
	require.Equal(t, -1, result.LinesAdded)
	require.Equal(t, 5, result.OriginalLines)
	require.Equal(t, 4, result.TotalLines)

	read, err := e.Read("a.txt", 1, 4, conduit.Staged)
	require.NoError(t, err)
	require.Equal(t, "a\nX\nY\ne", read.Text)
}

// Scenario 3: atomic promote, readers unaffected.
func TestActiveSnapshot_ReadersUnaffectedByPromote(t *testing.T) {
	e := conduit.New(conduit.Config{})

	require.NoError(t, e.Manager().BeginStaging())

	for _, p := range []string{"a.txt", "b.txt", "c.txt"} {
		key, err := pathkey.New(p)
		require.NoError(t, err)
		require.NoError(t, e.Manager().StageFile(key, fileindex.NewWithBytes(key, []byte("x"), 0, true, "")))
	}
	require.NoError(t, e.Manager().PromoteStaged())

	readerA := e.Manager().ActiveSnapshot()
	require.Equal(t, 3, readerA.Len())

	require.NoError(t, e.Manager().BeginStaging())
	key, err := pathkey.New("d.txt")
	require.NoError(t, err)
	require.NoError(t, e.Manager().StageFile(key, fileindex.NewWithBytes(key, []byte("y"), 0, true, "")))
	require.NoError(t, e.Manager().PromoteStaged())

	require.Equal(t, 3, readerA.Len())

	fresh := e.Manager().ActiveSnapshot()
	require.Equal(t, 4, fresh.Len())
}

// Scenario 4: move without copy.
func TestMoveFile_TrackedAsMoveNotSeparateDeletion(t *testing.T) {
	e := conduit.New(conduit.Config{})

	loadOne(t, e, "old/path.txt", "content")

	require.NoError(t, e.Manager().BeginStaging())

	dst, err := e.MoveFile("old/path.txt", "new/path.txt", 42)
	require.NoError(t, err)
	require.Equal(t, "new/path.txt", dst)

	moves := e.Manager().GetStagedMoves()
	oldKey, _ := pathkey.New("old/path.txt")
	newKey, _ := pathkey.New("new/path.txt")
	require.Equal(t, newKey, moves[oldKey])

	deletions := e.Manager().GetStagedDeletions()
	require.Contains(t, deletions, oldKey)

	staged := e.Manager().StagedIndex()
	entry, ok := staged.Get(newKey)
	require.True(t, ok)
	require.Equal(t, "content", string(entry.Bytes))
	require.Equal(t, int64(42), entry.ModTimeUnix)
}

// Scenario 5: diff summary.
func TestModifiedFilesSummary_CreatedModifiedDeleted(t *testing.T) {
	e := conduit.New(conduit.Config{})

	loadOne(t, e, "x.txt", "a\nb\nc\n")

	xKey, _ := pathkey.New("x.txt")
	zKey, _ := pathkey.New("z.txt")
	require.NoError(t, e.Manager().LoadFiles(map[pathkey.Key]fileindex.Entry{
		xKey: fileindex.NewWithBytes(xKey, []byte("a\nb\nc\n"), 0, true, ""),
		zKey: fileindex.NewWithBytes(zKey, []byte("1\n2\n3\n4\n5\n"), 0, true, ""),
	}))

	require.NoError(t, e.Manager().BeginStaging())

	_, err := e.Create("y.txt", []byte("new file"), 0, false)
	require.NoError(t, err)

	_, err = e.ReplaceLines("x.txt", 3, 3, "c\nd\ne")
	require.NoError(t, err)

	_, err = e.Delete("z.txt")
	require.NoError(t, err)
	require.NoError(t, e.Manager().UpdateLineStats(zKey))

	summary, err := e.ModifiedFilesSummary()
	require.NoError(t, err)
	require.Len(t, summary, 3)

	byPath := make(map[string]conduit.FileChangeSummary, len(summary))
	for _, s := range summary {
		byPath[s.Path] = s
	}

	require.Equal(t, conduit.Created, byPath["y.txt"].Status)
	require.Equal(t, conduit.Modified, byPath["x.txt"].Status)
	require.Equal(t, conduit.Deleted, byPath["z.txt"].Status)
	require.Equal(t, 5, byPath["z.txt"].LinesRemoved)
}

// Scenario 6: cancellation mid-scan.
func TestFind_AbortStopsScanButSucceeds(t *testing.T) {
	e := conduit.New(conduit.Config{})

	batch := make(map[pathkey.Key]fileindex.Entry)
	for i := range 50 {
		p := "file" + string(rune('A'+i%26)) + string(rune('0'+i/26)) + ".txt"
		key, err := pathkey.New(p)
		require.NoError(t, err)
		batch[key] = fileindex.NewWithBytes(key, []byte("needle here\n"), 0, true, "")
	}
	require.NoError(t, e.Manager().LoadFiles(batch))

	abort := &regexmatch.AbortFlag{}
	abort.Set()

	hunks, stats, err := e.Find(conduit.FindOptions{Pattern: "needle", Space: conduit.Active, Abort: abort})
	require.NoError(t, err)
	require.Empty(t, hunks)
	require.True(t, stats.Aborted)

	fresh := &regexmatch.AbortFlag{}
	hunks, stats, err = e.Find(conduit.FindOptions{Pattern: "needle", Space: conduit.Active, Abort: fresh})
	require.NoError(t, err)
	require.Len(t, hunks, 50)
	require.False(t, stats.Aborted)
	require.Equal(t, 50, stats.Matches)
}

func TestFind_CRLFOptionRejected(t *testing.T) {
	e := conduit.New(conduit.Config{})
	loadOne(t, e, "a.txt", "line\r\n")

	_, _, err := e.Find(conduit.FindOptions{
		Pattern:      "line",
		RegexOptions: regexmatch.Options{CRLF: true},
		Space:        conduit.Active,
	})
	require.ErrorIs(t, err, conduit.ErrPattern)
}

func TestCreate_ExistsWithoutOverwriteFails(t *testing.T) {
	e := conduit.New(conduit.Config{})
	require.NoError(t, e.Manager().BeginStaging())

	_, err := e.Create("a.txt", []byte("v1"), 0, false)
	require.NoError(t, err)

	_, err = e.Create("a.txt", []byte("v2"), 0, false)
	require.ErrorIs(t, err, conduit.ErrFileAlreadyExists)

	result, err := e.Create("a.txt", []byte("v2"), 0, true)
	require.NoError(t, err)
	require.False(t, result.Created)
}

func TestReplaceLines_InvalidRange(t *testing.T) {
	e := conduit.New(conduit.Config{})
	loadOne(t, e, "a.txt", "a\nb\nc\n")
	require.NoError(t, e.Manager().BeginStaging())

	_, err := e.ReplaceLines("a.txt", 3, 1, "x")
	require.ErrorIs(t, err, conduit.ErrInvalidRange)
}

func TestStageFile_ReadOnlyRejected(t *testing.T) {
	e := conduit.New(conduit.Config{})

	key, err := pathkey.New("ro.txt")
	require.NoError(t, err)
	require.NoError(t, e.Manager().LoadFiles(map[pathkey.Key]fileindex.Entry{
		key: fileindex.NewWithBytes(key, []byte("x"), 0, false, ""),
	}))

	require.NoError(t, e.Manager().BeginStaging())

	_, err = e.Create("ro.txt", []byte("y"), 0, true)
	require.ErrorIs(t, err, conduit.ErrReadOnlyFile)
}

func TestFileDiff_ComparesActiveAndStaged(t *testing.T) {
	e := conduit.New(conduit.Config{})
	loadOne(t, e, "a.txt", "one\ntwo\nthree\n")

	require.NoError(t, e.Manager().BeginStaging())
	_, err := e.ReplaceLines("a.txt", 2, 2, "TWO")
	require.NoError(t, err)

	diff, err := e.FileDiff("a.txt")
	require.NoError(t, err)

	want := diffengine.Stats{LinesAdded: 1, LinesRemoved: 1, Regions: 1}
	if diffDiff := cmp.Diff(want, diff.Stats); diffDiff != "" {
		t.Fatalf("unexpected diff stats (-want +got):\n%s", diffDiff)
	}
}

func TestRead_InvalidRange(t *testing.T) {
	e := conduit.New(conduit.Config{})
	loadOne(t, e, "a.txt", "a\nb\nc\n")

	_, err := e.Read("a.txt", 3, 1, conduit.Active)
	require.ErrorIs(t, err, conduit.ErrInvalidRange)
}

func TestWithSnapshot_RollsBackMultiStepEdit(t *testing.T) {
	e := conduit.New(conduit.Config{})
	loadOne(t, e, "a.txt", "a\nb\nc\n")
	loadOne(t, e, "b.txt", "x\ny\n")

	require.NoError(t, e.Manager().BeginStaging())

	err := e.Manager().WithSnapshot(func() error {
		if _, err := e.ReplaceLines("a.txt", 1, 1, "A"); err != nil {
			return err
		}

		// missing.txt doesn't exist in staging; moving a missing source
		// drives an error to force the rollback.
		_, err := e.MoveFile("missing.txt", "elsewhere.txt", 1)

		return err
	})
	require.Error(t, err)

	read, rerr := e.Read("a.txt", 1, 1, conduit.Staged)
	require.NoError(t, rerr)
	require.Equal(t, "a\n", read.Text) // rolled back
}
