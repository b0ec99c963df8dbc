package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/abaveja313/conduit/pkg/conduit"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".conduit_history")
}

// ReplCmd drives an interactive, readline-style session over the same
// command set `conduit <cmd>` exposes non-interactively, the way sloty's
// REPL reuses its command dispatch for both one-shot and interactive use.
func ReplCmd(eng *conduit.Engine, cfg Config, workDir string) *Command {
	return &Command{
		Flags: flag.NewFlagSet("repl", flag.ContinueOnError),
		Usage: "repl",
		Short: "Start an interactive shell",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return runRepl(ctx, eng, cfg, workDir, o)
		},
	}
}

func runRepl(ctx context.Context, eng *conduit.Engine, cfg Config, workDir string, o *IO) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	if f, err := os.Open(historyFile()); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	commands := allCommands(eng, cfg, workDir)
	commandMap := make(map[string]*Command, len(commands))

	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
	}

	o.Println("conduit interactive shell. Type 'help' or 'exit'.")

	for {
		input, err := line.Prompt("conduit> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				o.Println("bye")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		fields := strings.Fields(input)
		name, args := fields[0], fields[1:]

		switch name {
		case "exit", "quit":
			o.Println("bye")

			saveReplHistory(line)

			return nil
		case "help":
			printUsage(o.Out(), commands)

			continue
		}

		cmd, ok := commandMap[name]
		if !ok {
			o.ErrPrintln("unknown command:", name)

			continue
		}

		cmd.Run(ctx, o, args)
	}

	saveReplHistory(line)

	return nil
}

func saveReplHistory(line *liner.State) {
	path := historyFile()
	if path == "" {
		return
	}

	if f, err := os.Create(path); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}
