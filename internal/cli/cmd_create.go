package cli

import (
	"context"
	"errors"
	"time"

	"github.com/abaveja313/conduit/pkg/conduit"

	flag "github.com/spf13/pflag"
)

var errCreatePathRequired = errors.New("path is required")

// CreateCmd stages a new file.
func CreateCmd(eng *conduit.Engine) *Command {
	flagSet := flag.NewFlagSet("create", flag.ContinueOnError)
	content := flagSet.StringP("content", "c", "", "File content")
	overwrite := flagSet.Bool("overwrite", false, "Allow overwriting an existing path")

	return &Command{
		Flags: flagSet,
		Usage: "create <path> [flags]",
		Short: "Stage a new file",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errCreatePathRequired
			}

			if err := ensureStaging(eng); err != nil {
				return err
			}

			result, err := eng.Create(args[0], []byte(*content), time.Now().Unix(), *overwrite)
			if err != nil {
				return err
			}

			o.Printf("created=%v size=%d %s\n", result.Created, result.Size, result.Path)

			return nil
		},
	}
}
