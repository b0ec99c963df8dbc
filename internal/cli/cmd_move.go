package cli

import (
	"context"
	"errors"
	"time"

	"github.com/abaveja313/conduit/pkg/conduit"

	flag "github.com/spf13/pflag"
)

var errMoveArgsRequired = errors.New("usage: move <src> <dst> [--copy]")

// MoveCmd relocates (or, with --copy, duplicates) a staged file.
func MoveCmd(eng *conduit.Engine) *Command {
	flagSet := flag.NewFlagSet("move", flag.ContinueOnError)
	asCopy := flagSet.Bool("copy", false, "Duplicate instead of relocating")

	return &Command{
		Flags: flagSet,
		Usage: "move <src> <dst> [flags]",
		Short: "Move or copy a staged file",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) != 2 {
				return errMoveArgsRequired
			}

			if err := ensureStaging(eng); err != nil {
				return err
			}

			var (
				dst string
				err error
			)

			if *asCopy {
				dst, err = eng.CopyFile(args[0], args[1], time.Now().Unix())
			} else {
				dst, err = eng.MoveFile(args[0], args[1], time.Now().Unix())
			}

			if err != nil {
				return err
			}

			o.Println(dst)

			return nil
		},
	}
}
