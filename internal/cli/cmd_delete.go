package cli

import (
	"context"
	"errors"

	"github.com/abaveja313/conduit/pkg/conduit"

	flag "github.com/spf13/pflag"
)

var errDeletePathRequired = errors.New("path is required")

// DeleteCmd stages a file deletion.
func DeleteCmd(eng *conduit.Engine) *Command {
	return &Command{
		Flags: flag.NewFlagSet("delete", flag.ContinueOnError),
		Usage: "delete <path>",
		Short: "Stage a file deletion",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errDeletePathRequired
			}

			if err := ensureStaging(eng); err != nil {
				return err
			}

			result, err := eng.Delete(args[0])
			if err != nil {
				return err
			}

			o.Printf("existed=%v %s\n", result.Existed, result.Path)

			return nil
		},
	}
}
