// Package fileindex holds the per-file metadata record and the ordered,
// structurally-shared mapping from path to record that the rest of the
// engine builds on.
package fileindex

import (
	"fmt"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/cespare/xxhash/v2"

	"github.com/abaveja313/conduit/pkg/conduit/pathkey"
)

// ErrReadOnlyFile indicates a mutation was attempted against an entry
// whose Editable flag is false.
var ErrReadOnlyFile = fmt.Errorf("read-only file")

// Entry is a per-file record. Mirrors the teacher's denormalized
// Summary/full-document split (internal/store/types.go): size and mtime
// are cheap to carry everywhere, while Bytes/SearchContent are the two
// possibly-absent payloads.
type Entry struct {
	Key              pathkey.Key
	Ext              string
	Size             int64
	ModTimeUnix      int64
	Bytes            []byte // original bytes as loaded; nil if metadata-only
	HasBytes         bool
	SearchContent    []byte // alternate UTF-8 view used by find/read/preview; nil if absent
	HasSearchContent bool
	Editable         bool
}

// NewMetadataOnly creates an Entry with no content, e.g. for a directory
// placeholder or a file the caller intends to populate later via
// UpdateBytes.
func NewMetadataOnly(key pathkey.Key, modTimeUnix int64, editable bool) Entry {
	return Entry{
		Key:         key,
		Ext:         extOrDerived("", key),
		ModTimeUnix: modTimeUnix,
		Editable:    editable,
	}
}

// NewWithBytes creates an Entry whose content and size derive from bytes.
// ext, if empty, is derived from key.
func NewWithBytes(key pathkey.Key, bytes []byte, modTimeUnix int64, editable bool, ext string) Entry {
	return Entry{
		Key:         key,
		Ext:         extOrDerived(ext, key),
		Size:        int64(len(bytes)),
		ModTimeUnix: modTimeUnix,
		Bytes:       bytes,
		HasBytes:    true,
		Editable:    editable,
	}
}

// NewWithSearchContent is like NewWithBytes but also records a distinct
// UTF-8 search_content view, for files that are decoded/transcoded from a
// binary format before indexing.
func NewWithSearchContent(key pathkey.Key, bytes, searchContent []byte, modTimeUnix int64, editable bool, ext string) Entry {
	e := NewWithBytes(key, bytes, modTimeUnix, editable, ext)
	e.SearchContent = searchContent
	e.HasSearchContent = true

	return e
}

func extOrDerived(ext string, key pathkey.Key) string {
	if ext != "" {
		return ext
	}

	return key.Ext()
}

// UpdateBytes replaces the entry's content, recomputing Size, and
// optionally the mtime (a nil newMtime leaves ModTimeUnix unchanged;
// callers that need "always bump" pass time.Now().Unix() explicitly).
func (e *Entry) UpdateBytes(newBytes []byte, newMtime *int64) {
	e.Bytes = newBytes
	e.HasBytes = true
	e.Size = int64(len(newBytes))

	if newMtime != nil {
		e.ModTimeUnix = *newMtime
	}
}

// ClearBytes drops the entry's content, leaving it metadata-only.
func (e *Entry) ClearBytes() {
	e.Bytes = nil
	e.HasBytes = false
	e.Size = 0
}

// SetModified updates the entry's mtime.
func (e *Entry) SetModified(mtime int64) {
	e.ModTimeUnix = mtime
}

// Content returns the view find/read/preview operations should use:
// SearchContent if present, else Bytes.
func (e *Entry) Content() ([]byte, bool) {
	if e.HasSearchContent {
		return e.SearchContent, true
	}

	if e.HasBytes {
		return e.Bytes, true
	}

	return nil, false
}

// keyHasher hashes a pathkey.Key by its canonical string via xxhash, the
// same hash the indexmgr line-index cache uses for its own keys — one
// hash primitive for the whole engine instead of two.
type keyHasher struct{}

func (keyHasher) Hash(k pathkey.Key) uint32 {
	return uint32(xxhash.Sum64String(k.String()))
}

func (keyHasher) Equal(a, b pathkey.Key) bool {
	return a == b
}

// keyComparer orders pathkey.Keys the same way pathkey.Compare does:
// lexicographically by canonical path.
type keyComparer struct{}

func (keyComparer) Compare(a, b pathkey.Key) int {
	return pathkey.Compare(a, b)
}

// Index maps pathkey.Key to Entry, with an ordered key set supporting
// prefix-range and glob-filtered enumeration.
//
// Both entries and ordered are backed by github.com/benbjohnson/immutable
// persistent collections (a hash array mapped trie and a B-tree,
// respectively) rather than a plain map and slice. Set/Delete on a
// persistent collection return a new root that shares the bulk of its
// structure with the original instead of copying it, so [Index.Clone] is
// a pointer copy — O(1), matching the original implementation's use of
// `im::HashMap`/`im::OrdSet` (Rust's structural-sharing collections) for
// exactly the same reason. Index itself does not track "am I the sole
// owner" — that bookkeeping lives one layer up, in indexmgr.StagingState,
// exactly like the teacher keeps it in the caller (Tx) rather than in the
// underlying map type.
type Index struct {
	entries *immutable.Map[pathkey.Key, Entry]
	ordered *immutable.SortedMap[pathkey.Key, struct{}] // key set, sorted by canonical path
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		entries: immutable.NewMap[pathkey.Key, Entry](keyHasher{}),
		ordered: immutable.NewSortedMap[pathkey.Key, struct{}](keyComparer{}),
	}
}

// Clone returns an independent Index backed by the same persistent
// structures as the receiver. Mutating the clone never affects the
// original: Upsert/Remove/Take replace idx.entries/idx.ordered with the
// new root returned by Set/Delete rather than mutating in place, so the
// receiver's root pointers stay valid. This is why Clone is a plain
// struct copy — there is nothing to deep-copy.
func (idx *Index) Clone() *Index {
	return &Index{entries: idx.entries, ordered: idx.ordered}
}

// Get returns the entry for key, if present.
func (idx *Index) Get(key pathkey.Key) (Entry, bool) {
	return idx.entries.Get(key)
}

// Upsert inserts or updates key's entry. Fails with [ErrReadOnlyFile] if an
// existing entry for key is not editable.
func (idx *Index) Upsert(key pathkey.Key, entry Entry) error {
	if existing, ok := idx.entries.Get(key); ok && !existing.Editable {
		return fmt.Errorf("%w: %s", ErrReadOnlyFile, key.String())
	}

	idx.entries = idx.entries.Set(key, entry)
	idx.ordered = idx.ordered.Set(key, struct{}{})

	return nil
}

// Remove deletes key's entry, reporting whether it existed.
func (idx *Index) Remove(key pathkey.Key) bool {
	if _, ok := idx.entries.Get(key); !ok {
		return false
	}

	idx.entries = idx.entries.Delete(key)
	idx.ordered = idx.ordered.Delete(key)

	return true
}

// Take removes and returns key's entry, if present.
func (idx *Index) Take(key pathkey.Key) (Entry, bool) {
	e, ok := idx.entries.Get(key)
	if !ok {
		return Entry{}, false
	}

	idx.entries = idx.entries.Delete(key)
	idx.ordered = idx.ordered.Delete(key)

	return e, true
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	return idx.entries.Len()
}

// Iter calls fn for every entry, in unspecified order. Iteration stops
// early if fn returns false.
func (idx *Index) Iter(fn func(pathkey.Key, Entry) bool) {
	itr := idx.entries.Iterator()

	for !itr.Done() {
		k, v := itr.Next()
		if !fn(k, v) {
			return
		}
	}
}

// IterSorted calls fn for every entry in lexicographic key order.
func (idx *Index) IterSorted(fn func(pathkey.Key, Entry) bool) {
	itr := idx.ordered.Iterator()

	for !itr.Done() {
		k, _ := itr.Next()

		v, _ := idx.entries.Get(k)
		if !fn(k, v) {
			return
		}
	}
}

// PathsByPrefix returns every key under the given path prefix (see
// [pathkey.Key.StartsWith]), in lexicographic order. Seeks directly to prefix in the ordered
// key set rather than scanning from the start, the same lower-bound seek
// the original does with `im::OrdSet::range`.
func (idx *Index) PathsByPrefix(prefix string) []pathkey.Key {
	var out []pathkey.Key

	itr := idx.ordered.IteratorAt(pathkey.FromCanonical(prefix))

	for !itr.Done() {
		k, _ := itr.Next()

		// Keys such as "src-x/a" or "src.txt" sort between "src" and
		// "src/a" without being under the path prefix "src", so only a key
		// that no longer shares the raw string prefix ends the scan.
		if !strings.HasPrefix(k.String(), prefix) {
			break
		}

		if k.StartsWith(prefix) {
			out = append(out, k)
		}
	}

	return out
}

// Candidates returns entries under prefix, filtered by optional include
// and exclude glob sets: a key must match the include set (if non-nil)
// and must not match the exclude set (if non-nil).
func (idx *Index) Candidates(prefix string, includes, excludes *pathkey.GlobSet) []pathkey.Key {
	keys := idx.PathsByPrefix(prefix)

	out := keys[:0]

	for _, k := range keys {
		if includes != nil && !k.Matches(includes) {
			continue
		}

		if excludes != nil && k.Matches(excludes) {
			continue
		}

		out = append(out, k)
	}

	return out
}
