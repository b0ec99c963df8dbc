package cli

import (
	"context"
	"errors"

	"github.com/abaveja313/conduit/pkg/conduit"

	flag "github.com/spf13/pflag"
)

var errDiffPathRequired = errors.New("path is required")

// DiffCmd prints the active-vs-staged diff for one file.
func DiffCmd(eng *conduit.Engine) *Command {
	return &Command{
		Flags: flag.NewFlagSet("diff", flag.ContinueOnError),
		Usage: "diff <path>",
		Short: "Show the active-vs-staged diff of a file",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errDiffPathRequired
			}

			fd, err := eng.FileDiff(args[0])
			if err != nil {
				return err
			}

			for _, r := range fd.Regions {
				o.Printf("@@ -%d,+%d @@\n", r.OriginalStart1B, r.ModifiedStart1B)

				for _, l := range r.RemovedLines {
					o.Printf("-%s\n", l)
				}

				for _, l := range r.AddedLines {
					o.Printf("+%s\n", l)
				}
			}

			o.Printf("%d region(s), +%d -%d\n", fd.Stats.Regions, fd.Stats.LinesAdded, fd.Stats.LinesRemoved)

			return nil
		},
	}
}
