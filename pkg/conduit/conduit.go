// Package conduit is the orchestrator-facing surface of the engine: an
// in-memory virtual filesystem with transactional staging; copy-on-write
// index snapshots for lock-free reads; regex find/preview/replace; and a
// line-operation/diff engine used to stage and inspect edits before they
// are atomically promoted.
//
// The package composes, but never duplicates, the lower-level packages
// under pkg/conduit: pathkey (canonical keys), fileindex (the per-file
// record and its ordered index), indexmgr (active/staged lifecycle),
// regexmatch/preview/replaceplan (search), lineops (line edits), and
// diffengine (change comparison). Engine is the single type a caller
// embeds; everything else is reached through it.
package conduit

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/abaveja313/conduit/pkg/conduit/diffengine"
	"github.com/abaveja313/conduit/pkg/conduit/fileindex"
	"github.com/abaveja313/conduit/pkg/conduit/indexmgr"
	"github.com/abaveja313/conduit/pkg/conduit/lineindex"
	"github.com/abaveja313/conduit/pkg/conduit/lineops"
	"github.com/abaveja313/conduit/pkg/conduit/pathkey"
	"github.com/abaveja313/conduit/pkg/conduit/preview"
	"github.com/abaveja313/conduit/pkg/conduit/regexmatch"
)

// SearchSpace selects which index a read-side operation targets.
type SearchSpace int

const (
	Active SearchSpace = iota
	Staged
)

// InsertPosition selects where InsertLines places new content relative to
// an anchor line.
type InsertPosition int

const (
	Before InsertPosition = iota
	After
)

// FileChangeStatus classifies one entry in a [ModifiedFilesSummary].
type FileChangeStatus int

const (
	Created FileChangeStatus = iota
	Modified
	Deleted
	Moved
)

func (s FileChangeStatus) String() string {
	switch s {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Moved:
		return "moved"
	default:
		return "unknown"
	}
}

// Config configures a new [Engine].
type Config struct {
	// Logger receives structured diagnostics; defaults to a no-op logger.
	Logger *zap.SugaredLogger
}

// Engine is the process-wide entry point into the virtual filesystem. The
// zero value is not usable; construct one with [New].
type Engine struct {
	im  *indexmgr.Manager
	log *zap.SugaredLogger
}

// New constructs an Engine with an empty active index.
func New(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = newDefaultLogger()
	}

	return &Engine{im: indexmgr.New(), log: log}
}

// Manager exposes the underlying [indexmgr.Manager] for callers (the
// staging lifecycle: BeginStaging/PromoteStaged/RevertStaged/LoadFiles/
// AddFilesToStaging/WithSnapshot and friends) that need it directly rather
// than through one of Engine's higher-level operations.
func (e *Engine) Manager() *indexmgr.Manager {
	return e.im
}

func (e *Engine) resolveSnapshot(space SearchSpace) (*fileindex.Index, error) {
	if space == Staged {
		if staged := e.im.StagedIndex(); staged != nil {
			return staged, nil
		}

		return nil, ErrStagingNotActive
	}

	return e.im.ActiveSnapshot(), nil
}

func keyFor(raw string) (pathkey.Key, error) {
	key, err := pathkey.New(raw)
	if err != nil {
		return pathkey.Key{}, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	return key, nil
}

// --- Find -------------------------------------------------------------

// FindOptions configures [Engine.Find].
type FindOptions struct {
	Pattern      string
	RegexOptions regexmatch.Options
	Includes     []string // glob patterns; a path must match at least one if non-empty
	Excludes     []string // glob patterns; a path must match none
	Prefix       string
	Delta        int // context lines around each match
	Space        SearchSpace
	CharBudget   int // 0 uses the preview package's default
	Abort        *regexmatch.AbortFlag
}

// SearchStats is lightweight scan telemetry returned alongside [Find]'s
// hunks: how much content was scanned, how many matches were found, and
// whether the scan was cut short by an abort flag.
type SearchStats struct {
	BytesScanned int64
	Matches      int
	Aborted      bool
}

// Find scans files under opts.Prefix in opts.Space, matching opts.Pattern,
// and returns one preview hunk per file with at least one match, plus
// scan statistics. A set abort flag stops the scan early and returns
// whatever hunks were already built, per the spec's cooperative-
// cancellation contract — that is a successful (non-error) result, not
// [ErrAborted]; Stats.Aborted distinguishes that case for callers that
// care.
func (e *Engine) Find(opts FindOptions) ([]preview.Hunk, SearchStats, error) {
	const op = "find"

	matcher, err := regexmatch.Compile(opts.Pattern, opts.RegexOptions)
	if err != nil {
		return nil, SearchStats{}, wrapErr(fmt.Errorf("%w: %v", ErrPattern, err), withOp(op))
	}

	snapshot, err := e.resolveSnapshot(opts.Space)
	if err != nil {
		return nil, SearchStats{}, wrapErr(err, withOp(op))
	}

	var includes, excludes *pathkey.GlobSet

	if len(opts.Includes) > 0 {
		includes, err = pathkey.CompileGlobSet(opts.Includes...)
		if err != nil {
			return nil, SearchStats{}, wrapErr(fmt.Errorf("%w: %v", ErrPattern, err), withOp(op))
		}
	}

	if len(opts.Excludes) > 0 {
		excludes, err = pathkey.CompileGlobSet(opts.Excludes...)
		if err != nil {
			return nil, SearchStats{}, wrapErr(fmt.Errorf("%w: %v", ErrPattern, err), withOp(op))
		}
	}

	candidates := snapshot.Candidates(opts.Prefix, includes, excludes)

	var (
		hunks []preview.Hunk
		stats SearchStats
	)

	for _, key := range candidates {
		if opts.Abort.IsSet() {
			stats.Aborted = true

			break
		}

		entry, ok := snapshot.Get(key)
		if !ok {
			continue
		}

		content, ok := entry.Content()
		if !ok {
			continue
		}

		idx, err := e.im.GetLineIndex(key, snapshot)
		if err != nil {
			e.log.Debugw("skipping file with no cacheable line index", "path", key.String(), "error", err)

			continue
		}

		stats.BytesScanned += int64(len(content))

		var matchedRanges []lineindex.LineSpan

		regexmatch.ForEachMatch(content, matcher, opts.Abort, func(span lineindex.ByteSpan, _ int) bool {
			matchedRanges = append(matchedRanges, idx.LinesOfSpan(span))

			return true
		})

		if len(matchedRanges) == 0 {
			continue
		}

		stats.Matches += len(matchedRanges)

		matchStart := matchedRanges[0].Start
		matchEnd := matchedRanges[len(matchedRanges)-1].End

		hunks = append(hunks, preview.Build(key.String(), idx, content, matchStart, matchEnd, opts.Delta, matchedRanges, opts.CharBudget))
	}

	return hunks, stats, nil
}

// --- Read -------------------------------------------------------------

// ReadResult is the output of [Engine.Read].
type ReadResult struct {
	Path       string
	Text       string
	StartLine  int
	EndLine    int
	TotalLines int
}

// Read returns the text of path's lines [startLine, endLine] (inclusive,
// 1-based), clamping endLine to the file's total line count. startLine
// must be >= 1 and <= endLine, or [ErrInvalidRange] is returned.
func (e *Engine) Read(path string, startLine, endLine int, space SearchSpace) (ReadResult, error) {
	const op = "read"

	key, err := keyFor(path)
	if err != nil {
		return ReadResult{}, wrapErr(err, withOp(op))
	}

	snapshot, err := e.resolveSnapshot(space)
	if err != nil {
		return ReadResult{}, wrapErr(err, withOp(op), withPath(path))
	}

	entry, ok := snapshot.Get(key)
	if !ok {
		return ReadResult{}, wrapErr(ErrFileNotFound, withOp(op), withPath(path))
	}

	content, ok := entry.Content()
	if !ok {
		return ReadResult{}, wrapErr(ErrMissingContent, withOp(op), withPath(path))
	}

	if startLine < 1 || startLine > endLine {
		return ReadResult{}, wrapErr(ErrInvalidRange, withOp(op), withPath(path))
	}

	idx, err := e.im.GetLineIndex(key, snapshot)
	if err != nil {
		return ReadResult{}, wrapErr(translate(err), withOp(op), withPath(path))
	}

	totalLines := idx.LineCount()

	clampedEnd := endLine
	if clampedEnd > totalLines {
		clampedEnd = totalLines
	}

	if startLine > totalLines {
		return ReadResult{}, wrapErr(ErrInvalidRange, withOp(op), withPath(path))
	}

	span := idx.SpanOfLines(startLine, clampedEnd)

	return ReadResult{
		Path:       path,
		Text:       string(content[span.Start:span.End]),
		StartLine:  startLine,
		EndLine:    clampedEnd,
		TotalLines: totalLines,
	}, nil
}

// --- Create / Delete ---------------------------------------------------

// CreateResult is the output of [Engine.Create].
type CreateResult struct {
	Path    string
	Size    int64
	Created bool // false if an existing entry was overwritten
}

// Create stages a new file at path with content. If the path already
// exists, it fails with [ErrFileAlreadyExists] unless allowOverwrite is
// set.
func (e *Engine) Create(path string, content []byte, mtime int64, allowOverwrite bool) (CreateResult, error) {
	const op = "create"

	key, err := keyFor(path)
	if err != nil {
		return CreateResult{}, wrapErr(err, withOp(op))
	}

	staged := e.im.StagedIndex()
	if staged == nil {
		return CreateResult{}, wrapErr(ErrStagingNotActive, withOp(op), withPath(path))
	}

	_, existed := staged.Get(key)
	if existed && !allowOverwrite {
		return CreateResult{}, wrapErr(ErrFileAlreadyExists, withOp(op), withPath(path))
	}

	entry := fileindex.NewWithBytes(key, content, mtime, true, "")

	if err := e.im.StageFile(key, entry); err != nil {
		return CreateResult{}, wrapErr(translate(err), withOp(op), withPath(path))
	}

	return CreateResult{Path: path, Size: entry.Size, Created: !existed}, nil
}

// DeleteResult is the output of [Engine.Delete].
type DeleteResult struct {
	Path    string
	Existed bool
}

// Delete removes path from the staged index.
func (e *Engine) Delete(path string) (DeleteResult, error) {
	const op = "delete"

	key, err := keyFor(path)
	if err != nil {
		return DeleteResult{}, wrapErr(err, withOp(op))
	}

	staged := e.im.StagedIndex()
	if staged == nil {
		return DeleteResult{}, wrapErr(ErrStagingNotActive, withOp(op), withPath(path))
	}

	_, existed := staged.Get(key)

	if err := e.im.RemoveStagedFile(key); err != nil {
		return DeleteResult{}, wrapErr(translate(err), withOp(op), withPath(path))
	}

	return DeleteResult{Path: path, Existed: existed}, nil
}

// --- Copy / Move --------------------------------------------------------

// CopyFile duplicates src's staged content to dst (a distinct copy, unlike
// MoveFile).
func (e *Engine) CopyFile(src, dst string, mtime int64) (string, error) {
	const op = "copy_file"

	srcKey, err := keyFor(src)
	if err != nil {
		return "", wrapErr(err, withOp(op))
	}

	dstKey, err := keyFor(dst)
	if err != nil {
		return "", wrapErr(err, withOp(op))
	}

	staged := e.im.StagedIndex()
	if staged == nil {
		return "", wrapErr(ErrStagingNotActive, withOp(op), withPath(src))
	}

	entry, ok := staged.Get(srcKey)
	if !ok {
		return "", wrapErr(ErrFileNotFound, withOp(op), withPath(src))
	}

	entry.Key = dstKey
	entry.ModTimeUnix = mtime

	if entry.HasBytes {
		dup := make([]byte, len(entry.Bytes))
		copy(dup, entry.Bytes)
		entry.Bytes = dup
	}

	if err := e.im.StageFile(dstKey, entry); err != nil {
		return "", wrapErr(translate(err), withOp(op), withPath(dst))
	}

	return dst, nil
}

// MoveFile relocates src's staged entry to dst without copying its bytes.
func (e *Engine) MoveFile(src, dst string, mtime int64) (string, error) {
	const op = "move_file"

	srcKey, err := keyFor(src)
	if err != nil {
		return "", wrapErr(err, withOp(op))
	}

	dstKey, err := keyFor(dst)
	if err != nil {
		return "", wrapErr(err, withOp(op))
	}

	if err := e.im.MoveStagedFile(srcKey, dstKey, mtime); err != nil {
		return "", wrapErr(translate(err), withOp(op), withPath(src))
	}

	return dst, nil
}

// --- Line operations -----------------------------------------------------

// LineOpResult is the output of [Engine.ReplaceLines], [Engine.DeleteLines],
// and [Engine.InsertLines]. Affected carries the raw per-call line count
// that operation type reports (lines replaced, deleted, or inserted);
// LinesAdded is the net delta (added - removed) for this call, matching
// the spec's literal response shape rather than the cumulative session
// totals tracked in ChangeStats.
type LineOpResult struct {
	Path          string
	Affected      int
	LinesAdded    int
	OriginalLines int
	TotalLines    int
}

func (e *Engine) applyLineOps(op, path string, ops []lineops.Op) (LineOpResult, error) {
	key, err := keyFor(path)
	if err != nil {
		return LineOpResult{}, wrapErr(err, withOp(op))
	}

	staged := e.im.StagedIndex()
	if staged == nil {
		return LineOpResult{}, wrapErr(ErrStagingNotActive, withOp(op), withPath(path))
	}

	entry, ok := staged.Get(key)
	if !ok {
		return LineOpResult{}, wrapErr(ErrFileNotFound, withOp(op), withPath(path))
	}

	content, ok := entry.Content()
	if !ok {
		return LineOpResult{}, wrapErr(ErrMissingContent, withOp(op), withPath(path))
	}

	newContent, added, removed := lineops.Apply(string(content), ops)

	entry.UpdateBytes([]byte(newContent), nil)

	if err := e.im.StageFile(key, entry); err != nil {
		return LineOpResult{}, wrapErr(translate(err), withOp(op), withPath(path))
	}

	if err := e.im.UpdateLineStats(key); err != nil {
		return LineOpResult{}, wrapErr(translate(err), withOp(op), withPath(path))
	}

	stats, _ := e.im.GetFileChangeStats(key)

	affected := removed
	if op == "insert_lines" {
		affected = added
	}

	return LineOpResult{
		Path:          path,
		Affected:      affected,
		LinesAdded:    added - removed,
		OriginalLines: stats.OriginalLineCount,
		TotalLines:    stats.CurrentLineCount,
	}, nil
}

// ReplaceLines replaces staged lines [start, end] of path with content,
// split on '\n'.
func (e *Engine) ReplaceLines(path string, start, end int, content string) (LineOpResult, error) {
	if start < 1 || start > end {
		return LineOpResult{}, wrapErr(ErrInvalidRange, withOp("replace_lines"), withPath(path))
	}

	return e.applyLineOps("replace_lines", path, []lineops.Op{
		{Kind: lineops.ReplaceRange, Start: start, End: end, Content: content},
	})
}

// DeleteLines removes staged lines [start, end] of path.
func (e *Engine) DeleteLines(path string, start, end int) (LineOpResult, error) {
	if start < 1 || start > end {
		return LineOpResult{}, wrapErr(ErrInvalidRange, withOp("delete_lines"), withPath(path))
	}

	return e.applyLineOps("delete_lines", path, []lineops.Op{
		{Kind: lineops.DeleteRange, Start: start, End: end},
	})
}

// InsertLines inserts content, split on '\n', before or after anchor line
// in path's staged content.
func (e *Engine) InsertLines(path string, anchor int, pos InsertPosition, content string) (LineOpResult, error) {
	kind := lineops.InsertBefore
	if pos == After {
		kind = lineops.InsertAfter
	}

	return e.applyLineOps("insert_lines", path, []lineops.Op{
		{Kind: kind, Line: anchor, Content: content},
	})
}

// --- Summaries & diffs ---------------------------------------------------

// FileChangeSummary is one entry of [Engine.ModifiedFilesSummary].
type FileChangeSummary struct {
	Path         string
	Status       FileChangeStatus
	FromPath     string // set only when Status == Moved
	LinesAdded   int
	LinesRemoved int
}

// ModifiedFilesSummary derives per-file change status for every file
// touched this staging session, joining moves, change-stats, and
// deletions against the active index.
func (e *Engine) ModifiedFilesSummary() ([]FileChangeSummary, error) {
	const op = "modified_files_summary"

	staged := e.im.StagedIndex()
	if staged == nil {
		return nil, wrapErr(ErrStagingNotActive, withOp(op))
	}

	active := e.im.ActiveSnapshot()
	moves := e.im.GetStagedMoves()
	changeStats := e.im.GetChangeStats()

	moveSources := make(map[pathkey.Key]pathkey.Key, len(moves)) // dst -> src
	isMoveSrc := make(map[pathkey.Key]bool, len(moves))

	for src, dst := range moves {
		moveSources[dst] = src
		isMoveSrc[src] = true
	}

	var out []FileChangeSummary

	for _, key := range e.im.GetStagedModifications() {
		cs := changeStats[key]

		if src, ok := moveSources[key]; ok {
			out = append(out, FileChangeSummary{
				Path:         key.String(),
				Status:       Moved,
				FromPath:     src.String(),
				LinesAdded:   cs.LinesAdded,
				LinesRemoved: cs.LinesRemoved,
			})

			continue
		}

		status := Created
		if _, existedActive := active.Get(key); existedActive {
			status = Modified
		}

		out = append(out, FileChangeSummary{
			Path:         key.String(),
			Status:       status,
			LinesAdded:   cs.LinesAdded,
			LinesRemoved: cs.LinesRemoved,
		})
	}

	for _, key := range e.im.GetStagedDeletions() {
		if isMoveSrc[key] {
			continue // already represented by the Moved entry at its destination
		}

		cs := changeStats[key]

		out = append(out, FileChangeSummary{
			Path:         key.String(),
			Status:       Deleted,
			LinesAdded:   cs.LinesAdded,
			LinesRemoved: cs.LinesRemoved,
		})
	}

	return out, nil
}

// FileDiff computes the diff between path's active and staged content.
func (e *Engine) FileDiff(path string) (diffengine.FileDiff, error) {
	const op = "file_diff"

	key, err := keyFor(path)
	if err != nil {
		return diffengine.FileDiff{}, wrapErr(err, withOp(op))
	}

	staged := e.im.StagedIndex()
	if staged == nil {
		return diffengine.FileDiff{}, wrapErr(ErrStagingNotActive, withOp(op), withPath(path))
	}

	active := e.im.ActiveSnapshot()

	var originalContent, currentContent []byte

	if entry, ok := active.Get(key); ok {
		originalContent, _ = entry.Content()
	}

	if entry, ok := staged.Get(key); ok {
		currentContent, _ = entry.Content()
	}

	return diffengine.Compute(path, string(originalContent), string(currentContent)), nil
}
