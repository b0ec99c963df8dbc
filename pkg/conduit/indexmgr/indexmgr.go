// Package indexmgr owns the active/staged index lifecycle: lock-free
// snapshot reads, copy-on-write staging, atomic promotion, and the
// line-index cache.
//
// # Concurrency
//
// Lock ordering (mirroring the comment style the teacher uses in
// pkg/slotcache/lock.go for its own multi-level locking):
//
//  1. Manager.mu — guards the optional staging session. Writers
//     (StageFile, RemoveStagedFile, MoveStagedFile, PromoteStaged,
//     RevertStaged) hold it only for the duration of their own call.
//  2. lineCache's per-shard RWMutex — readers (GetLineIndex) take RLock;
//     the rare cache-miss path takes Lock to populate.
//
// Active-index reads never take a lock: [Manager.ActiveSnapshot] is an
// atomic pointer load, so a reader holds a stable, immutable Index
// reference for as long as it likes, regardless of concurrent promotions.
package indexmgr

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/abaveja313/conduit/pkg/conduit/diffengine"
	"github.com/abaveja313/conduit/pkg/conduit/fileindex"
	"github.com/abaveja313/conduit/pkg/conduit/lineindex"
	"github.com/abaveja313/conduit/pkg/conduit/pathkey"
)

// Sentinel errors. Each package in this module defines its own, following
// the teacher's convention of per-package errors.go files rather than a
// single shared error type hierarchy.
var (
	ErrStagingNotActive     = fmt.Errorf("staging not active")
	ErrStagingAlreadyActive = fmt.Errorf("staging already active")
	ErrFileNotFound         = fmt.Errorf("file not found")
	ErrMissingContent       = fmt.Errorf("entry has no content")
)

// ChangeStats is the per-file cumulative line-change record kept for the
// duration of one staging session.
type ChangeStats struct {
	LinesAdded        int
	LinesRemoved      int
	OriginalLineCount int
	CurrentLineCount  int
}

// StagingState is the writer-exclusive staging session. Copy-on-write:
// idx starts as a direct reference to the active index (begin_staging is
// O(1)); the first mutating call clones it (ensureOwned), after which
// further mutations in the same session apply in place.
type StagingState struct {
	idx      *fileindex.Index
	owned    bool
	modified map[pathkey.Key]struct{}
	changes  map[pathkey.Key]ChangeStats
	moves    map[pathkey.Key]pathkey.Key
}

func newStagingState(base *fileindex.Index) *StagingState {
	return &StagingState{
		idx:      base,
		modified: make(map[pathkey.Key]struct{}),
		changes:  make(map[pathkey.Key]ChangeStats),
		moves:    make(map[pathkey.Key]pathkey.Key),
	}
}

func (s *StagingState) ensureOwned() {
	if !s.owned {
		s.idx = s.idx.Clone()
		s.owned = true
	}
}

// clone produces an independent copy of the entire session, including a
// forced private copy of the index, so that mutating the original after
// cloning never affects the clone (and vice versa). Used by
// [Manager.snapshotLocked] to capture a restore point.
func (s *StagingState) clone() *StagingState {
	out := &StagingState{
		idx:      s.idx.Clone(),
		owned:    true,
		modified: make(map[pathkey.Key]struct{}, len(s.modified)),
		changes:  make(map[pathkey.Key]ChangeStats, len(s.changes)),
		moves:    make(map[pathkey.Key]pathkey.Key, len(s.moves)),
	}

	for k := range s.modified {
		out.modified[k] = struct{}{}
	}

	for k, v := range s.changes {
		out.changes[k] = v
	}

	for k, v := range s.moves {
		out.moves[k] = v
	}

	return out
}

// Manager owns the active index (atomically swappable) and at most one
// in-flight staging session.
type Manager struct {
	active atomic.Pointer[fileindex.Index]

	mu     sync.Mutex
	staged *StagingState

	cache *lineIndexCache
}

// New returns a Manager with an empty active index and no staging
// session.
func New() *Manager {
	m := &Manager{cache: newLineIndexCache()}
	m.active.Store(fileindex.New())

	return m
}

// ActiveSnapshot returns a stable handle to the current active index.
// Never blocks; does not observe any in-flight staging session.
func (m *Manager) ActiveSnapshot() *fileindex.Index {
	return m.active.Load()
}

// BeginStaging starts a session from a snapshot of active.
//
// Open question, resolved: calling BeginStaging while a session is
// already active returns [ErrStagingAlreadyActive] rather than being
// idempotent, per the spec's recommendation — silently reusing an
// in-flight session would let two unrelated callers corrupt each other's
// batch without either observing an error.
func (m *Manager) BeginStaging() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.staged != nil {
		return ErrStagingAlreadyActive
	}

	m.staged = newStagingState(m.active.Load())

	return nil
}

// StageFile stages key's entry for the in-flight session.
func (m *Manager) StageFile(key pathkey.Key, entry fileindex.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.staged == nil {
		return ErrStagingNotActive
	}

	m.staged.ensureOwned()

	if err := m.staged.idx.Upsert(key, entry); err != nil {
		return err
	}

	m.staged.modified[key] = struct{}{}
	m.cache.invalidateKey(key.String())

	return nil
}

// RemoveStagedFile COW-removes key from the in-flight session, dropping
// its change-stats entry and cached line index.
func (m *Manager) RemoveStagedFile(key pathkey.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.staged == nil {
		return ErrStagingNotActive
	}

	m.staged.ensureOwned()
	m.staged.idx.Remove(key)
	m.staged.modified[key] = struct{}{}
	delete(m.staged.changes, key)
	m.cache.invalidateKey(key.String())

	return nil
}

// MoveStagedFile atomically relocates an entry from src to dst without
// copying content, records the move, and bumps the entry's mtime.
func (m *Manager) MoveStagedFile(src, dst pathkey.Key, newMtime int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.staged == nil {
		return ErrStagingNotActive
	}

	m.staged.ensureOwned()

	entry, ok := m.staged.idx.Take(src)
	if !ok {
		return fmt.Errorf("%w: %s", ErrFileNotFound, src.String())
	}

	entry.Key = dst
	entry.SetModified(newMtime)

	if err := m.staged.idx.Upsert(dst, entry); err != nil {
		return err
	}

	m.staged.moves[src] = dst
	m.staged.modified[src] = struct{}{}
	m.staged.modified[dst] = struct{}{}
	m.cache.invalidateKey(src.String())
	m.cache.invalidateKey(dst.String())

	return nil
}

// PromoteStaged atomically publishes the staged index as the new active
// index, drops the session, and clears the line-index cache. Readers that
// already hold a prior snapshot (via ActiveSnapshot) keep seeing it.
func (m *Manager) PromoteStaged() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.staged == nil {
		return ErrStagingNotActive
	}

	m.active.Store(m.staged.idx)
	m.staged = nil
	m.cache.clear()

	return nil
}

// RevertStaged discards the in-flight session without publishing it.
func (m *Manager) RevertStaged() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.staged == nil {
		return ErrStagingNotActive
	}

	m.staged = nil

	return nil
}

// LoadFiles clears any in-flight staging session, begins a fresh one from
// the current active index, stages every entry in batch, and promotes — a
// single bulk update published in one swap. Active entries whose keys are
// not in batch are kept. Intended for initial load, not incremental edits.
func (m *Manager) LoadFiles(batch map[pathkey.Key]fileindex.Entry) error {
	m.mu.Lock()
	m.staged = newStagingState(m.active.Load())
	m.staged.ensureOwned()
	m.mu.Unlock()

	for k, e := range batch {
		if err := m.StageFile(k, e); err != nil {
			m.mu.Lock()
			m.staged = nil
			m.mu.Unlock()

			return err
		}
	}

	return m.PromoteStaged()
}

// AddFilesToStaging stages every entry in batch against the already
// in-flight session. Requires active staging.
func (m *Manager) AddFilesToStaging(batch map[pathkey.Key]fileindex.Entry) error {
	for k, e := range batch {
		if err := m.StageFile(k, e); err != nil {
			return err
		}
	}

	return nil
}

// UpdateLineStats recomputes cumulative lines_added/lines_removed for key
// by diffing the active (original) content against the staged (current)
// content, and records the result — including current_line_count — in the
// session's change-stats map. Recomputing the full original-vs-current
// diff on every call (rather than accumulating per-edit deltas) is what
// makes the stats "cumulative across the staging session" for free: no
// matter how many intermediate edits touched the file, the stats always
// reflect the net change from the session's starting point.
func (m *Manager) UpdateLineStats(key pathkey.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.staged == nil {
		return ErrStagingNotActive
	}

	originalEntry, hadOriginal := m.active.Load().Get(key)
	stagedEntry, hasStaged := m.staged.idx.Get(key)

	var originalContent, currentContent []byte

	if hadOriginal {
		originalContent, _ = originalEntry.Content()
	}

	if hasStaged {
		currentContent, _ = stagedEntry.Content()
	}

	diff := diffengine.Compute(key.String(), string(originalContent), string(currentContent))

	originalLines := lineindex.Build(originalContent).LineCount()
	if !hadOriginal || len(originalContent) == 0 {
		originalLines = 0
	}

	currentLines := lineindex.Build(currentContent).LineCount()
	if !hasStaged || len(currentContent) == 0 {
		currentLines = 0
	}

	m.staged.changes[key] = ChangeStats{
		LinesAdded:        diff.Stats.LinesAdded,
		LinesRemoved:      diff.Stats.LinesRemoved,
		OriginalLineCount: originalLines,
		CurrentLineCount:  currentLines,
	}

	return nil
}

// GetStagedModifications returns keys touched this session that still
// have a staged entry (created or edited, as opposed to deleted).
func (m *Manager) GetStagedModifications() []pathkey.Key {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.staged == nil {
		return nil
	}

	var out []pathkey.Key

	for k := range m.staged.modified {
		if _, ok := m.staged.idx.Get(k); ok {
			out = append(out, k)
		}
	}

	return out
}

// GetStagedDeletions returns keys touched this session that no longer
// have a staged entry.
func (m *Manager) GetStagedDeletions() []pathkey.Key {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.staged == nil {
		return nil
	}

	var out []pathkey.Key

	for k := range m.staged.modified {
		if _, ok := m.staged.idx.Get(k); !ok {
			out = append(out, k)
		}
	}

	return out
}

// GetStagedMoves returns a copy of the session's src->dst move map.
func (m *Manager) GetStagedMoves() map[pathkey.Key]pathkey.Key {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.staged == nil {
		return nil
	}

	out := make(map[pathkey.Key]pathkey.Key, len(m.staged.moves))
	for k, v := range m.staged.moves {
		out[k] = v
	}

	return out
}

// GetChangeStats returns a copy of the session's full change-stats map.
func (m *Manager) GetChangeStats() map[pathkey.Key]ChangeStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.staged == nil {
		return nil
	}

	out := make(map[pathkey.Key]ChangeStats, len(m.staged.changes))
	for k, v := range m.staged.changes {
		out[k] = v
	}

	return out
}

// GetFileChangeStats returns key's change stats, if recorded this
// session.
func (m *Manager) GetFileChangeStats(key pathkey.Key) (ChangeStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.staged == nil {
		return ChangeStats{}, false
	}

	cs, ok := m.staged.changes[key]

	return cs, ok
}

// StagedIndex returns the in-flight session's index, for read operations
// that target SearchSpace=Staged. Returns nil if no session is active.
func (m *Manager) StagedIndex() *fileindex.Index {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.staged == nil {
		return nil
	}

	return m.staged.idx
}

// Stats is a cheap, denormalized summary of the manager's current state:
// total files/bytes in the active index, and whether a staging session
// is open.
type Stats struct {
	TotalFiles  int
	TotalBytes  int64
	Staging     bool
	StagedFiles int
}

// Stats summarizes the active index (and the staging session, if one is
// open), mirroring the teacher's Summary/QueryOptions read-model split:
// a compact aggregate view callers can poll without walking the full
// index themselves.
func (m *Manager) Stats() Stats {
	active := m.active.Load()

	var totalBytes int64

	active.Iter(func(_ pathkey.Key, e fileindex.Entry) bool {
		totalBytes += e.Size

		return true
	})

	s := Stats{TotalFiles: active.Len(), TotalBytes: totalBytes}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.staged != nil {
		s.Staging = true
		s.StagedFiles = m.staged.idx.Len()
	}

	return s
}

// GetLineIndex returns the cached [lineindex.Index] for key within
// snapshot, building and caching it on miss. The cache key combines the
// path and the entry's mtime, so a file that changes mtime never serves a
// stale line index; staging operations additionally evict by path
// directly, covering in-place content edits that don't bump mtime.
func (m *Manager) GetLineIndex(key pathkey.Key, snapshot *fileindex.Index) (*lineindex.Index, error) {
	entry, ok := snapshot.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, key.String())
	}

	content, ok := entry.Content()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingContent, key.String())
	}

	path := key.String()

	if idx, ok := m.cache.get(path, entry.ModTimeUnix); ok {
		return idx, nil
	}

	idx := lineindex.Build(content)
	m.cache.put(path, entry.ModTimeUnix, idx)

	return idx, nil
}

// snapshotLocked captures the current staging session's state. Caller
// must hold m.mu.
func (m *Manager) snapshotLocked() (*StagingState, error) {
	if m.staged == nil {
		return nil, ErrStagingNotActive
	}

	return m.staged.clone(), nil
}

// SnapshotStaging captures the current staging session for later
// restoration via [Manager.RestoreStaging].
func (m *Manager) SnapshotStaging() (*StagingState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.snapshotLocked()
}

// RestoreStaging replaces the in-flight session with a previously
// captured snapshot.
func (m *Manager) RestoreStaging(snapshot *StagingState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.staged = snapshot
}

// WithSnapshot runs fn with the staging session's current state captured
// as a restore point; if fn returns an error, the session is rolled back
// to that point before the error is returned. Used to make multi-step
// edits (batch moves, line operations spanning several files) atomic from
// the caller's perspective.
func (m *Manager) WithSnapshot(fn func() error) error {
	snap, err := m.SnapshotStaging()
	if err != nil {
		return err
	}

	if err := fn(); err != nil {
		m.RestoreStaging(snap)

		return err
	}

	return nil
}
