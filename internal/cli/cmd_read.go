package cli

import (
	"context"
	"errors"

	"github.com/abaveja313/conduit/pkg/conduit"

	flag "github.com/spf13/pflag"
)

var errReadArgsRequired = errors.New("usage: read <path> <start-line> <end-line>")

// ReadCmd prints a line range of one file.
func ReadCmd(eng *conduit.Engine) *Command {
	flagSet := flag.NewFlagSet("read", flag.ContinueOnError)
	staged := flagSet.Bool("staged", false, "Read from the staged index instead of active")

	return &Command{
		Flags: flagSet,
		Usage: "read <path> <start> <end> [flags]",
		Short: "Print a file's line range",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) != 3 {
				return errReadArgsRequired
			}

			start, err := parseLine(args[1])
			if err != nil {
				return err
			}

			end, err := parseLine(args[2])
			if err != nil {
				return err
			}

			space := conduit.Active
			if *staged {
				space = conduit.Staged
			}

			result, err := eng.Read(args[0], start, end, space)
			if err != nil {
				return err
			}

			o.Println(result.Text)

			return nil
		},
	}
}
