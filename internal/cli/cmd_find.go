package cli

import (
	"context"
	"errors"

	"github.com/abaveja313/conduit/pkg/conduit"

	flag "github.com/spf13/pflag"
)

var errFindPatternRequired = errors.New("pattern is required")

// FindCmd regex-searches the active or staged index and prints a bounded
// excerpt per matching file.
func FindCmd(eng *conduit.Engine) *Command {
	flagSet := flag.NewFlagSet("find", flag.ContinueOnError)
	prefix := flagSet.String("prefix", "", "Restrict the scan to this path prefix")
	delta := flagSet.Int("delta", 2, "Context lines around each match")
	staged := flagSet.Bool("staged", false, "Search the staged index instead of active")
	caseInsensitive := flagSet.Bool("ignore-case", false, "Case-insensitive match")
	includes := flagSet.StringArray("include", nil, "Glob a path must match (repeatable)")
	excludes := flagSet.StringArray("exclude", nil, "Glob a path must not match (repeatable)")

	return &Command{
		Flags: flagSet,
		Usage: "find <pattern> [flags]",
		Short: "Regex-search files and print bounded excerpts",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errFindPatternRequired
			}

			if err := validateGlobs(*includes); err != nil {
				return err
			}

			if err := validateGlobs(*excludes); err != nil {
				return err
			}

			space := conduit.Active
			if *staged {
				space = conduit.Staged
			}

			hunks, stats, err := eng.Find(conduit.FindOptions{
				Pattern:      args[0],
				RegexOptions: regexOptions(*caseInsensitive),
				Includes:     *includes,
				Excludes:     *excludes,
				Prefix:       *prefix,
				Delta:        *delta,
				Space:        space,
			})
			if err != nil {
				return err
			}

			for _, h := range hunks {
				o.Printf("--- %s (lines %d-%d) ---\n", h.Path, h.PreviewStartLine, h.PreviewEndLine)
				o.Println(h.Excerpt)
			}

			o.Printf("%d file(s) matched, %d match(es), %d bytes scanned\n", len(hunks), stats.Matches, stats.BytesScanned)

			if stats.Aborted {
				o.Printf("scan aborted early\n")
			}

			return nil
		},
	}
}
