package conduit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abaveja313/conduit/pkg/conduit/fileindex"
	"github.com/abaveja313/conduit/pkg/conduit/indexmgr"
)

// Sentinel errors returned by the top-level engine API. Leaf packages
// (pathkey, fileindex, indexmgr, ...) define their own narrower sentinels;
// these are the ones orchestrator callers are expected to check with
// [errors.Is].
var (
	ErrFileNotFound      = errors.New("file not found")
	ErrFileAlreadyExists = errors.New("file already exists")
	ErrInvalidPath       = errors.New("invalid path")
	ErrInvalidRange      = errors.New("invalid line range")
	ErrReadOnlyFile      = errors.New("read-only file")
	ErrMissingContent    = errors.New("entry has no content")
	ErrPattern           = errors.New("invalid pattern")
	ErrEncoding          = errors.New("encoding error")
	ErrAborted           = errors.New("operation aborted")
	ErrStagingNotActive  = errors.New("staging not active")
)

// Error is the uniform error type returned by Engine's public methods. It
// appends the operation and, when known, the path that failed to the
// underlying error's message:
//
//	invalid line range (op=replace_lines path=src/main.go)
//
// Use [errors.As] to recover the structured fields, or [errors.Is] against
// one of this package's sentinels to classify the failure.
type Error struct {
	Op   string // operation name, e.g. "replace_lines"
	Path string // file path the operation targeted, if any
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	cause := ""
	if e.Err != nil {
		cause = e.Err.Error()
	}

	suffix := e.suffix()
	if suffix == "" {
		return cause
	}

	if cause == "" {
		return suffix
	}

	return cause + " " + suffix
}

// Unwrap returns the underlying error for [errors.Is]/[errors.As].
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

func (e *Error) suffix() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, "op="+e.Op)
	}

	if e.Path != "" {
		parts = append(parts, "path="+e.Path)
	}

	if len(parts) == 0 {
		return ""
	}

	return "(" + strings.Join(parts, " ") + ")"
}

// translate maps a leaf package's sentinel error onto this package's
// equivalent, joining both via a double %w so errors.Is succeeds against
// either the leaf sentinel (fileindex.ErrReadOnlyFile, ...) or this
// package's own (ErrReadOnlyFile, ...). Errors with no top-level
// equivalent (e.g. indexmgr.ErrStagingAlreadyActive, which only ever
// arises from a caller misusing the staging lifecycle directly through
// [Engine.Manager]) pass through unchanged.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fileindex.ErrReadOnlyFile):
		return fmt.Errorf("%w: %w", ErrReadOnlyFile, err)
	case errors.Is(err, indexmgr.ErrFileNotFound):
		return fmt.Errorf("%w: %w", ErrFileNotFound, err)
	case errors.Is(err, indexmgr.ErrStagingNotActive):
		return fmt.Errorf("%w: %w", ErrStagingNotActive, err)
	case errors.Is(err, indexmgr.ErrMissingContent):
		return fmt.Errorf("%w: %w", ErrMissingContent, err)
	default:
		return err
	}
}

// errOpt configures an [Error] during construction via [wrapErr].
type errOpt func(*Error)

func withOp(op string) errOpt {
	return func(e *Error) { e.Op = op }
}

func withPath(path string) errOpt {
	return func(e *Error) { e.Path = path }
}

// wrapErr attaches operation/path context to err, preserving err's
// identity for [errors.Is]/[errors.As]. Returns nil if err is nil. If err
// is already an *Error, its inner cause is reused (so messages don't
// nest) and the new options override any inherited fields.
func wrapErr(err error, opts ...errOpt) error {
	if err == nil {
		return nil
	}

	e := &Error{Err: err}

	var existing *Error
	if errors.As(err, &existing) {
		e.Op = existing.Op
		e.Path = existing.Path
		e.Err = existing.Err
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}
