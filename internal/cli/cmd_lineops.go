package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/abaveja313/conduit/pkg/conduit"

	flag "github.com/spf13/pflag"
)

var (
	errReplaceLinesArgs = errors.New("usage: replace-lines <path> <start> <end> <content>")
	errDeleteLinesArgs  = errors.New("usage: delete-lines <path> <start> <end>")
	errInsertLinesArgs  = errors.New("usage: insert-lines <path> <anchor> <before|after> <content>")
	errInsertPosition   = errors.New("position must be \"before\" or \"after\"")
)

func printLineOpResult(o *IO, r conduit.LineOpResult) {
	o.Printf("%s: affected=%d lines_added=%d original_lines=%d total_lines=%d\n",
		r.Path, r.Affected, r.LinesAdded, r.OriginalLines, r.TotalLines)
}

// ReplaceLinesCmd replaces a staged line range with new content.
func ReplaceLinesCmd(eng *conduit.Engine) *Command {
	return &Command{
		Flags: flag.NewFlagSet("replace-lines", flag.ContinueOnError),
		Usage: "replace-lines <path> <start> <end> <content>",
		Short: "Replace a staged line range",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) != 4 {
				return errReplaceLinesArgs
			}

			start, err := parseLine(args[1])
			if err != nil {
				return err
			}

			end, err := parseLine(args[2])
			if err != nil {
				return err
			}

			if err := ensureStaging(eng); err != nil {
				return err
			}

			result, err := eng.ReplaceLines(args[0], start, end, strings.ReplaceAll(args[3], "\\n", "\n"))
			if err != nil {
				return err
			}

			printLineOpResult(o, result)

			return nil
		},
	}
}

// DeleteLinesCmd removes a staged line range.
func DeleteLinesCmd(eng *conduit.Engine) *Command {
	return &Command{
		Flags: flag.NewFlagSet("delete-lines", flag.ContinueOnError),
		Usage: "delete-lines <path> <start> <end>",
		Short: "Delete a staged line range",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) != 3 {
				return errDeleteLinesArgs
			}

			start, err := parseLine(args[1])
			if err != nil {
				return err
			}

			end, err := parseLine(args[2])
			if err != nil {
				return err
			}

			if err := ensureStaging(eng); err != nil {
				return err
			}

			result, err := eng.DeleteLines(args[0], start, end)
			if err != nil {
				return err
			}

			printLineOpResult(o, result)

			return nil
		},
	}
}

// InsertLinesCmd inserts content before or after an anchor line.
func InsertLinesCmd(eng *conduit.Engine) *Command {
	return &Command{
		Flags: flag.NewFlagSet("insert-lines", flag.ContinueOnError),
		Usage: "insert-lines <path> <anchor> <before|after> <content>",
		Short: "Insert lines relative to an anchor",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) != 4 {
				return errInsertLinesArgs
			}

			anchor, err := parseLine(args[1])
			if err != nil {
				return err
			}

			var pos conduit.InsertPosition

			switch args[2] {
			case "before":
				pos = conduit.Before
			case "after":
				pos = conduit.After
			default:
				return errInsertPosition
			}

			if err := ensureStaging(eng); err != nil {
				return err
			}

			result, err := eng.InsertLines(args[0], anchor, pos, strings.ReplaceAll(args[3], "\\n", "\n"))
			if err != nil {
				return err
			}

			printLineOpResult(o, result)

			return nil
		},
	}
}
