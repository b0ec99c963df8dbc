package cli

import (
	"context"

	"github.com/abaveja313/conduit/pkg/conduit"

	flag "github.com/spf13/pflag"
)

// StatusCmd lists every file touched in the current staging session.
func StatusCmd(eng *conduit.Engine) *Command {
	return &Command{
		Flags: flag.NewFlagSet("status", flag.ContinueOnError),
		Usage: "status",
		Short: "List files changed in the current staging session",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			summary, err := eng.ModifiedFilesSummary()
			if err != nil {
				return err
			}

			for _, s := range summary {
				switch s.Status {
				case conduit.Moved:
					o.Printf("%-10s %s -> %s\n", s.Status, s.FromPath, s.Path)
				default:
					o.Printf("%-10s %s (+%d -%d)\n", s.Status, s.Path, s.LinesAdded, s.LinesRemoved)
				}
			}

			o.Printf("%d file(s) changed\n", len(summary))

			stats := eng.Manager().Stats()
			o.Printf("active: %d file(s), %d byte(s); staging: %t\n", stats.TotalFiles, stats.TotalBytes, stats.Staging)

			return nil
		},
	}
}

// CommitCmd atomically promotes the staged index to active.
func CommitCmd(eng *conduit.Engine) *Command {
	return &Command{
		Flags: flag.NewFlagSet("commit", flag.ContinueOnError),
		Usage: "commit",
		Short: "Promote the staged index to active",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			if err := eng.Manager().PromoteStaged(); err != nil {
				return err
			}

			o.Println("promoted")

			return nil
		},
	}
}

// RevertCmd discards the current staging session.
func RevertCmd(eng *conduit.Engine) *Command {
	return &Command{
		Flags: flag.NewFlagSet("revert", flag.ContinueOnError),
		Usage: "revert",
		Short: "Discard the current staging session",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			if err := eng.Manager().RevertStaged(); err != nil {
				return err
			}

			o.Println("reverted")

			return nil
		},
	}
}
