package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/abaveja313/conduit/pkg/conduit"
	"github.com/abaveja313/conduit/pkg/conduit/fileindex"
	"github.com/abaveja313/conduit/pkg/conduit/pathkey"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"
)

var errExportDirRequired = errors.New("destination directory is required")

// ExportCmd flushes an index out to disk. Each file is written with
// [atomic.WriteFile] so a reader never observes a half-written file,
// mirroring how the ticket store persists a document: build the full
// content in memory, then swap it into place in one rename.
func ExportCmd(eng *conduit.Engine) *Command {
	flagSet := flag.NewFlagSet("export", flag.ContinueOnError)
	staged := flagSet.Bool("staged", false, "Export the staged index instead of active")

	return &Command{
		Flags: flagSet,
		Usage: "export <dir> [flags]",
		Short: "Write the index out to disk atomically",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errExportDirRequired
			}

			snapshot := eng.Manager().ActiveSnapshot()
			if *staged {
				snapshot = eng.Manager().StagedIndex()
				if snapshot == nil {
					return conduit.ErrStagingNotActive
				}
			}

			dest := args[0]

			count := 0
			var walkErr error

			snapshot.IterSorted(func(key pathkey.Key, entry fileindex.Entry) bool {
				content, ok := entry.Content()
				if !ok {
					return true
				}

				target := filepath.Join(dest, filepath.FromSlash(strings.TrimPrefix(key.String(), "/")))

				if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
					walkErr = err

					return false
				}

				r := strings.NewReader(string(content))
				if err := atomic.WriteFile(target, r); err != nil {
					walkErr = err

					return false
				}

				count++

				return true
			})

			if walkErr != nil {
				return walkErr
			}

			o.Printf("exported %d files to %s\n", count, dest)

			return nil
		},
	}
}
