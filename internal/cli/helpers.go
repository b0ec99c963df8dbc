package cli

import (
	"fmt"
	"strconv"

	"github.com/abaveja313/conduit/pkg/conduit"
	"github.com/abaveja313/conduit/pkg/conduit/regexmatch"

	"github.com/bmatcuk/doublestar/v4"
)

func regexOptions(caseInsensitive bool) regexmatch.Options {
	return regexmatch.Options{CaseInsensitive: caseInsensitive, Multiline: true}
}

// ensureStaging begins a staging session if one isn't already active, so
// every mutating command works standalone without an explicit "begin"
// step first.
func ensureStaging(eng *conduit.Engine) error {
	if eng.Manager().StagedIndex() != nil {
		return nil
	}

	return eng.Manager().BeginStaging()
}

func parseLine(s string) (int, error) {
	return strconv.Atoi(s)
}

// validateGlobs pre-flights user-supplied --include/--exclude patterns
// with doublestar's `**`-aware validator before they reach the engine's
// own pathkey.GlobSet, so a typo'd pattern fails fast with a clear error
// instead of silently matching nothing.
func validateGlobs(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern: %s", p)
		}
	}

	return nil
}
