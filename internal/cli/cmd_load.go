package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/abaveja313/conduit/pkg/conduit"
	"github.com/abaveja313/conduit/pkg/conduit/fileindex"
	"github.com/abaveja313/conduit/pkg/conduit/pathkey"

	flag "github.com/spf13/pflag"
)

// LoadCmd walks a directory on disk and stages its files on top of the
// engine's active index, publishing them in a single atomic promotion.
// Entries already in the active index that the walk does not produce are
// kept.
func LoadCmd(eng *conduit.Engine, cfg Config, workDir string) *Command {
	flagSet := flag.NewFlagSet("load", flag.ContinueOnError)
	root := flagSet.String("dir", "", "Directory to walk (default: config root_dir)")

	return &Command{
		Flags: flagSet,
		Usage: "load [--dir <dir>]",
		Short: "Seed the engine's active index by walking a directory",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			dir := *root
			if dir == "" {
				dir = cfg.RootDir
			}

			if !filepath.IsAbs(dir) {
				dir = filepath.Join(workDir, dir)
			}

			includes, err := pathkey.CompileGlobSet(cfg.Includes...)
			if err != nil {
				return err
			}

			excludes, err := pathkey.CompileGlobSet(cfg.Excludes...)
			if err != nil {
				return err
			}

			batch := make(map[pathkey.Key]fileindex.Entry)

			err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}

				if d.IsDir() {
					return nil
				}

				info, err := d.Info()
				if err != nil {
					return err
				}

				if cfg.MaxFileBytes > 0 && info.Size() > cfg.MaxFileBytes {
					o.ErrPrintln("skipping (too large):", path)

					return nil
				}

				rel, err := filepath.Rel(dir, path)
				if err != nil {
					return err
				}

				slashRel := filepath.ToSlash(rel)
				if (len(cfg.Includes) > 0 && !includes.Match(slashRel)) || excludes.Match(slashRel) {
					return nil
				}

				data, err := os.ReadFile(path) //nolint:gosec
				if err != nil {
					return err
				}

				key, err := pathkey.New(filepath.ToSlash(rel))
				if err != nil {
					return err
				}

				batch[key] = fileindex.NewWithBytes(key, data, info.ModTime().Unix(), true, "")

				return nil
			})
			if err != nil {
				return err
			}

			if err := eng.Manager().LoadFiles(batch); err != nil {
				return err
			}

			o.Printf("loaded %d files from %s\n", len(batch), dir)

			return nil
		},
	}
}
