package pathkey_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abaveja313/conduit/pkg/conduit/pathkey"
)

func TestNew_Normalization(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"dot and dotdot collapse", "a/./b/../c", "a/c"},
		{"trailing separator stripped", "a/", "a"},
		{"root stays root", "/", "/"},
		{"backslash coerced", `a\b`, "a/b"},
		{"leading dotdot at relative root is kept", "../a", "../a"},
		{"dotdot above absolute root collapses", "/../a", "/a"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			k, err := pathkey.New(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.want, k.String())
		})
	}
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := pathkey.New("")
	require.Error(t, err)
	require.True(t, errors.Is(err, pathkey.ErrInvalidPath))

	_, err = pathkey.New("a\x01b")
	require.Error(t, err)
	require.True(t, errors.Is(err, pathkey.ErrInvalidPath))
}

func TestInterning_PointerIdentity(t *testing.T) {
	a, err := pathkey.New("src/main.go")
	require.NoError(t, err)

	b, err := pathkey.New("src/./main.go")
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.True(t, a == b) //nolint:staticcheck // intentional pointer-identity check
}

func TestExt(t *testing.T) {
	k, err := pathkey.New("src/main.go")
	require.NoError(t, err)
	require.Equal(t, ".go", k.Ext())

	dotfile, err := pathkey.New(".gitignore")
	require.NoError(t, err)
	require.Equal(t, "", dotfile.Ext())

	noExt, err := pathkey.New("README")
	require.NoError(t, err)
	require.Equal(t, "", noExt.Ext())
}

func TestStartsWith(t *testing.T) {
	k, err := pathkey.New("src/pkg/main.go")
	require.NoError(t, err)

	require.True(t, k.StartsWith("src/pkg"))
	require.True(t, k.StartsWith("src"))
	require.True(t, k.StartsWith(""))
	require.False(t, k.StartsWith("src/pk"))
	require.False(t, k.StartsWith("other"))
}

func TestGlobSet(t *testing.T) {
	set, err := pathkey.CompileGlobSet("**/*.go", "README*")
	require.NoError(t, err)

	k, err := pathkey.New("src/pkg/main.go")
	require.NoError(t, err)
	require.True(t, k.Matches(set))

	readme, err := pathkey.New("README.md")
	require.NoError(t, err)
	require.True(t, readme.Matches(set))

	other, err := pathkey.New("src/pkg/main.py")
	require.NoError(t, err)
	require.False(t, other.Matches(set))
}

func TestCompare_Lexicographic(t *testing.T) {
	a, _ := pathkey.New("a.go")
	b, _ := pathkey.New("b.go")

	require.Negative(t, pathkey.Compare(a, b))
	require.Positive(t, pathkey.Compare(b, a))
	require.Zero(t, pathkey.Compare(a, a))
}
