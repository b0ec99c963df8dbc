// Package regexmatch wraps a compiled regular expression with the capture,
// replace-template, and cooperative-abort region-scan machinery the find
// and bulk-replace operations need.
//
// The matcher is backed by github.com/grafana/regexp rather than the
// standard library's regexp package. It is API-compatible with stdlib
// regexp (same RE2 engine, same Compile/FindSubmatchIndex surface) but is
// the library the pack's own code-search engine (sourcegraph/zoekt) uses
// for exactly this role, so we follow the corpus rather than reaching for
// stdlib directly.
package regexmatch

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/grafana/regexp"
)

// ErrCRLFUnsupported is returned by [Compile] when Options.CRLF is set.
// RE2 (the engine behind github.com/grafana/regexp) has no lookaround, so
// there is no way to rewrite a pattern's ^/$ anchors to mean "before/after
// \r\n" rather than "before/after \n" without risking a silently wrong
// match; compilation fails instead of producing a matcher that quietly
// ignores the option.
var ErrCRLFUnsupported = errors.New("crlf anchoring requested but unsupported by the RE2 engine")

// Options configures how a pattern compiles.
type Options struct {
	CaseInsensitive bool
	Unicode         bool // reserved: RE2 is unicode-aware by default; kept for interface parity with the spec's opt set.
	Word            bool // wrap the pattern in \b...\b
	CRLF            bool // treat \r\n as the line terminator for ^/$ anchoring; [Compile] rejects this with [ErrCRLFUnsupported] (RE2 has no lookaround to express it)
	Multiline       bool // ^/$ match at line boundaries, not just buffer boundaries
	DotAll          bool // '.' matches '\n'
}

// Matcher is a compiled regular expression plus the capture/replace helpers
// built on top of it.
type Matcher struct {
	re   *regexp.Regexp
	opts Options
}

// Compile builds a [Matcher] from pattern and opts. Failures are surfaced
// as wrapped errors; callers should treat any error here as the spec's
// `Pattern` error kind.
func Compile(pattern string, opts Options) (*Matcher, error) {
	if opts.CRLF {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, ErrCRLFUnsupported)
	}

	p := pattern

	if opts.Word {
		p = `\b(?:` + p + `)\b`
	}

	var flags string

	if opts.CaseInsensitive {
		flags += "i"
	}

	if opts.Multiline {
		flags += "m"
	}

	if opts.DotAll {
		flags += "s"
	}

	if flags != "" {
		p = "(?" + flags + ")" + p
	}

	re, err := regexp.Compile(p)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}

	return &Matcher{re: re, opts: opts}, nil
}

// NumSubexp returns the number of capturing groups in the pattern.
func (m *Matcher) NumSubexp() int {
	return m.re.NumSubexp()
}

// FindMatches enumerates non-overlapping matches of m over region, calling
// onMatch with each match's half-open byte span relative to region. The
// scan stops early if onMatch returns false.
func (m *Matcher) FindMatches(region []byte, onMatch func(start, end int) bool) {
	pos := 0

	for pos <= len(region) {
		loc := m.re.FindSubmatchIndex(region[pos:])
		if loc == nil {
			return
		}

		start, end := loc[0]+pos, loc[1]+pos
		if !onMatch(start, end) {
			return
		}

		if end == start {
			pos = end + 1 // avoid looping forever on a zero-width match
		} else {
			pos = end
		}
	}
}

// CapturesAt returns the byte spans (relative to region) of capture groups
// 1..N for the match starting at start. Group 0 (the whole match) is
// omitted, matching the spec's contract. Returns nil if no match starts
// exactly at start.
func (m *Matcher) CapturesAt(region []byte, start int) []*[2]int {
	loc := m.re.FindSubmatchIndex(region[start:])
	if loc == nil || loc[0] != 0 {
		return nil
	}

	groups := make([]*[2]int, m.re.NumSubexp())

	for g := 1; g <= m.re.NumSubexp(); g++ {
		lo, hi := loc[2*g], loc[2*g+1]
		if lo < 0 {
			groups[g-1] = nil

			continue
		}

		groups[g-1] = &[2]int{start + lo, start + hi}
	}

	return groups
}

// ReplaceAt expands template against the single match starting at start in
// region, appending the expansion to out and returning the updated slice
// along with the byte length of the original matched text (so callers can
// compute line-count shifts without re-matching).
//
// Template syntax: $1, ${1} (positional group reference), $name, ${name}
// (named group reference), and $$ (literal '$'), matching
// [regexp.Regexp.Expand]'s conventions.
func (m *Matcher) ReplaceAt(region []byte, start int, template []byte, out []byte) ([]byte, int, error) {
	loc := m.re.FindSubmatchIndex(region[start:])
	if loc == nil || loc[0] != 0 {
		return out, 0, fmt.Errorf("no match at offset %d", start)
	}

	// Expand needs offsets relative to `region[start:]`, matching `loc`.
	out = m.re.Expand(out, template, region[start:], loc)

	return out, loc[1] - loc[0], nil
}

// MatchRegion is a line-oriented chunk of the haystack yielded by
// [SearchRegions], carrying enough context to convert region-relative
// spans back to absolute ones.
type MatchRegion struct {
	FirstLine1Based   int
	Bytes             []byte
	LineCount         int
	AbsoluteByteStart int
}

// AbortFlag is a cheap, cheaply-shareable cooperative cancellation signal.
// The zero value means "not aborted". Safe for concurrent use. Cloning is
// just copying the pointer — a single AbortFlag is meant to be shared by
// every goroutine cooperating on one scan.
type AbortFlag struct {
	flag atomic.Bool
}

// Set marks the flag as aborted.
func (a *AbortFlag) Set() {
	if a == nil {
		return
	}

	a.flag.Store(true)
}

// IsSet reports whether the flag has been set.
func (a *AbortFlag) IsSet() bool {
	if a == nil {
		return false
	}

	return a.flag.Load()
}

// Reset clears the aborted state, for callers that intentionally reuse
// the same flag across scans instead of allocating a fresh one.
func (a *AbortFlag) Reset() {
	if a == nil {
		return
	}

	a.flag.Store(false)
}
