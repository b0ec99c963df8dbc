// Package pathkey provides canonical, interned path identifiers.
//
// A [Key] is cheap to compare and hash: normalization happens once, at
// construction time, and equal normalized strings always resolve to the
// same pointer. Callers never normalize a path twice.
package pathkey

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// ErrInvalidPath indicates a raw path failed normalization: empty input or
// a control character. Callers should use errors.Is(err, ErrInvalidPath).
var ErrInvalidPath = fmt.Errorf("invalid path")

// Key is a canonical, interned path identifier. The zero Key is not valid;
// obtain one via [New] or [FromCanonical]. Two Keys compare equal iff their
// underlying normalized strings are equal, and that comparison is a pointer
// comparison on the interned entry.
type Key struct {
	entry *entry
}

type entry struct {
	canonical string
}

// pool is the process-wide intern pool. Fast path under a read lock; slow
// path under a write lock with a double-check before insertion, mirroring
// the read-heavy/write-rare access pattern the teacher uses for the
// mmap-registry in pkg/slotcache (many readers touching shared state,
// rare writers mutating it).
type pool struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

var globalPool = &pool{entries: make(map[string]*entry)}

// New normalizes a raw path and returns its interned Key.
//
// Normalization: reject empty input or control characters; coerce `\` to
// `/`; collapse `.` and `..` segments; strip trailing separators except at
// the root `/`. Fails with [ErrInvalidPath] on empty input or control
// characters. In an absolute path, a `..` that would escape above `/` is
// dropped rather than rejected; leading `..` segments of a relative path
// are kept. Both are consistent with the Non-goal of not reconstituting a
// "real" filesystem path.
func New(raw string) (Key, error) {
	canonical, err := normalize(raw)
	if err != nil {
		return Key{}, err
	}

	return FromCanonical(canonical), nil
}

// FromCanonical interns a string that the caller guarantees is already in
// canonical form (no validation, no normalization). Used when a canonical
// string is reconstructed from storage (e.g. a cache key) and re-validating
// it would be redundant work on a hot path.
func FromCanonical(canonical string) Key {
	globalPool.mu.RLock()
	e, ok := globalPool.entries[canonical]
	globalPool.mu.RUnlock()

	if ok {
		return Key{entry: e}
	}

	globalPool.mu.Lock()
	defer globalPool.mu.Unlock()

	// Double-check: another goroutine may have interned this string while we
	// were waiting for the write lock.
	if e, ok := globalPool.entries[canonical]; ok {
		return Key{entry: e}
	}

	e = &entry{canonical: canonical}
	globalPool.entries[canonical] = e

	return Key{entry: e}
}

func normalize(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	for _, r := range raw {
		if r < 0x20 || r == 0x7f {
			return "", fmt.Errorf("%w: control character in %q", ErrInvalidPath, raw)
		}
	}

	s := strings.ReplaceAll(raw, "\\", "/")

	root := strings.HasPrefix(s, "/")

	segments := strings.Split(s, "/")
	out := make([]string, 0, len(segments))

	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 && out[len(out)-1] != ".." {
				out = out[:len(out)-1]
			} else if !root {
				out = append(out, "..")
			}
			// at root, ".." is a no-op: already at the top.
		default:
			out = append(out, seg)
		}
	}

	joined := strings.Join(out, "/")

	if root {
		return "/" + joined, nil
	}

	if joined == "" {
		return ".", nil
	}

	return joined, nil
}

// Valid reports whether k was constructed through New/FromCanonical (as
// opposed to being the zero value).
func (k Key) Valid() bool {
	return k.entry != nil
}

// String returns the canonical normalized path.
func (k Key) String() string {
	if k.entry == nil {
		return ""
	}

	return k.entry.canonical
}

// Ext returns the file extension (including the leading dot), derived from
// the canonical path. Returns "" if there is no dot in the final segment,
// or if the dot is the first character (a dotfile has no extension).
func (k Key) Ext() string {
	s := k.String()

	slash := strings.LastIndexByte(s, '/')
	base := s[slash+1:]

	dot := strings.LastIndexByte(base, '.')
	if dot <= 0 {
		return ""
	}

	return base[dot:]
}

// StartsWith reports whether k's canonical path has prefix as a path
// prefix (either an exact match, or prefix followed by `/`).
func (k Key) StartsWith(prefix string) bool {
	s := k.String()

	if s == prefix {
		return true
	}

	if prefix == "" {
		return true
	}

	return strings.HasPrefix(s, strings.TrimSuffix(prefix, "/")+"/")
}

// Matches reports whether k's canonical path matches the compiled glob set.
func (k Key) Matches(g *GlobSet) bool {
	return g.Match(k.String())
}

// Compare orders Keys lexicographically by canonical string. Suitable as a
// [slices.SortFunc] comparator for ordered key sets.
func Compare(a, b Key) int {
	return strings.Compare(a.String(), b.String())
}

// GlobSet is a compiled set of glob patterns matched with OR semantics: a
// path matches the set if it matches any one pattern. Patterns compile
// once via [CompileGlobSet] and are matched many times in the hot scan
// loop (see fileindex.Index.Candidates), so matching never re-parses a
// pattern string — the same tradeoff a code-search engine's glob layer
// makes, where compile cost is amortized but match cost is paid per file.
type GlobSet struct {
	globs []glob.Glob
}

// CompileGlobSet compiles one or more glob patterns using `/` as the path
// separator, so that `*` does not cross directory boundaries while `**`
// (when present) does, matching the conventions of shell and gitignore
// globs that the spec's "glob filtering" section assumes.
func CompileGlobSet(patterns ...string) (*GlobSet, error) {
	globs := make([]glob.Glob, 0, len(patterns))

	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compile glob %q: %w", pattern, err)
		}

		globs = append(globs, g)
	}

	return &GlobSet{globs: globs}, nil
}

// Match reports whether path matches any pattern in the set.
func (g *GlobSet) Match(path string) bool {
	if g == nil {
		return false
	}

	for _, pattern := range g.globs {
		if pattern.Match(path) {
			return true
		}
	}

	return false
}
