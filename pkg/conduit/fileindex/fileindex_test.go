package fileindex_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abaveja313/conduit/pkg/conduit/fileindex"
	"github.com/abaveja313/conduit/pkg/conduit/pathkey"
)

func key(t *testing.T, raw string) pathkey.Key {
	t.Helper()

	k, err := pathkey.New(raw)
	require.NoError(t, err)

	return k
}

func TestUpsertGetRemove(t *testing.T) {
	idx := fileindex.New()
	k := key(t, "a.txt")

	err := idx.Upsert(k, fileindex.NewWithBytes(k, []byte("hello"), 0, true, ""))
	require.NoError(t, err)

	e, ok := idx.Get(k)
	require.True(t, ok)
	require.Equal(t, "hello", string(e.Bytes))

	existed := idx.Remove(k)
	require.True(t, existed)

	_, ok = idx.Get(k)
	require.False(t, ok)
}

func TestUpsert_ReadOnlyRejected(t *testing.T) {
	idx := fileindex.New()
	k := key(t, "ro.txt")

	err := idx.Upsert(k, fileindex.NewWithBytes(k, []byte("x"), 0, false, ""))
	require.NoError(t, err)

	err = idx.Upsert(k, fileindex.NewWithBytes(k, []byte("y"), 0, true, ""))
	require.ErrorIs(t, err, fileindex.ErrReadOnlyFile)
}

func TestOrderedKeySet_MirrorsMapAfterOps(t *testing.T) {
	idx := fileindex.New()

	paths := []string{"b.txt", "a.txt", "c/d.txt", "a.txt"}

	for _, p := range paths {
		k := key(t, p)
		require.NoError(t, idx.Upsert(k, fileindex.NewMetadataOnly(k, 0, true)))
	}

	idx.Remove(key(t, "b.txt"))

	var sorted []string

	idx.IterSorted(func(k pathkey.Key, _ fileindex.Entry) bool {
		sorted = append(sorted, k.String())

		return true
	})

	require.Equal(t, []string{"a.txt", "c/d.txt"}, sorted)
	require.Equal(t, idx.Len(), len(sorted))
}

func TestPathsByPrefix_LexicographicOrder(t *testing.T) {
	idx := fileindex.New()

	for _, p := range []string{"src/b.go", "src/a.go", "docs/readme.md", "src/c/d.go"} {
		k := key(t, p)
		require.NoError(t, idx.Upsert(k, fileindex.NewMetadataOnly(k, 0, true)))
	}

	got := idx.PathsByPrefix("src")

	var names []string
	for _, k := range got {
		names = append(names, k.String())
	}

	require.Equal(t, []string{"src/a.go", "src/b.go", "src/c/d.go"}, names)
}

func TestCandidates_IncludeExcludeGlobs(t *testing.T) {
	idx := fileindex.New()

	for _, p := range []string{"src/a.go", "src/a_test.go", "src/b.py"} {
		k := key(t, p)
		require.NoError(t, idx.Upsert(k, fileindex.NewMetadataOnly(k, 0, true)))
	}

	includes, err := pathkey.CompileGlobSet("**/*.go")
	require.NoError(t, err)

	excludes, err := pathkey.CompileGlobSet("**/*_test.go")
	require.NoError(t, err)

	got := idx.Candidates("src", includes, excludes)

	var names []string
	for _, k := range got {
		names = append(names, k.String())
	}

	require.Equal(t, []string{"src/a.go"}, names)
}

func TestClone_IsIndependent(t *testing.T) {
	idx := fileindex.New()
	k := key(t, "a.txt")
	require.NoError(t, idx.Upsert(k, fileindex.NewWithBytes(k, []byte("v1"), 0, true, "")))

	clone := idx.Clone()
	require.NoError(t, clone.Upsert(k, fileindex.NewWithBytes(k, []byte("v2"), 0, true, "")))

	original, _ := idx.Get(k)
	require.Equal(t, "v1", string(original.Bytes))

	cloned, _ := clone.Get(k)
	require.Equal(t, "v2", string(cloned.Bytes))
}

func TestTake(t *testing.T) {
	idx := fileindex.New()
	k := key(t, "a.txt")
	require.NoError(t, idx.Upsert(k, fileindex.NewWithBytes(k, []byte("v"), 0, true, "")))

	e, ok := idx.Take(k)
	require.True(t, ok)
	require.Equal(t, "v", string(e.Bytes))

	_, ok = idx.Get(k)
	require.False(t, ok)
}
