package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/command"
	"github.com/aretw0/arbor/pkg/domain"
)

// Engine is what the console needs from arbor.Engine.
type Engine interface {
	ExecuteLine(caller domain.Caller, line string) error
	CompleteLine(caller domain.Caller, line string) []string
	Describe() []command.Description
}

// ConsoleOptions configures RunConsole.
type ConsoleOptions struct {
	In     io.Reader
	// Out receives prompts and console messages. Share the same SyncWriter
	// with the operator caller so handler output does not interleave.
	Out    io.Writer
	Caller domain.Caller
	// Prompt prints a prompt before each line. Enable it for terminals only.
	Prompt bool
	Style  *tui.Style
	// Render turns markdown into terminal output. Nil prints it raw.
	Render func(string) (string, error)
	Logger *slog.Logger
}

// RunConsole reads command lines until EOF, an exit word, or ctx is done.
//
// Besides tree commands it understands:
//
//	?<partial line>   print completion candidates
//	tree              print the command tree
//	exit, quit, q     leave
func RunConsole(ctx context.Context, eng Engine, opts ConsoleOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Caller == nil {
		return fmt.Errorf("console: %w", domain.ErrUnknownCaller)
	}
	if _, ok := opts.Out.(*SyncWriter); !ok {
		opts.Out = NewSyncWriter(opts.Out)
	}
	c := &consoleLoop{eng: eng, opts: opts}
	return handleExecutionError(c.run(ctx))
}

type consoleLoop struct {
	eng  Engine
	opts ConsoleOptions
}

func (c *consoleLoop) system(format string, args ...any) {
	var style func(string) string
	if c.opts.Style != nil {
		style = c.opts.Style.System
	}
	printSystemMessage(c.opts.Out, style, format, args...)
}

func (c *consoleLoop) prompt() {
	if !c.opts.Prompt {
		return
	}
	p := "> "
	if c.opts.Style != nil {
		p = c.opts.Style.Prompt()
	}
	fmt.Fprint(c.opts.Out, p)
}

func (c *consoleLoop) run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		scanner := bufio.NewScanner(c.opts.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
			return
		}
		readErr <- io.EOF
	}()

	for {
		c.prompt()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case line := <-lines:
			if done := c.handle(line); done {
				return nil
			}
		}
	}
}

// handle processes one line and reports whether the console should exit.
func (c *consoleLoop) handle(line string) bool {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return false
	case trimmed == "exit" || trimmed == "quit" || trimmed == "q":
		return true
	case trimmed == "tree":
		c.printTree()
		return false
	case strings.HasPrefix(strings.TrimLeft(line, " \t"), "?"):
		partial := strings.TrimPrefix(strings.TrimLeft(line, " \t"), "?")
		candidates := c.eng.CompleteLine(c.opts.Caller, partial)
		if len(candidates) == 0 {
			c.system("No completions.")
		} else {
			c.system("%s", strings.Join(candidates, "  "))
		}
		return false
	}

	c.opts.Logger.Debug("console line", "line", trimmed)
	if err := c.eng.ExecuteLine(c.opts.Caller, trimmed); err != nil {
		if errors.Is(err, domain.ErrUnknownCommand) {
			c.system("Unknown command %q. Type 'tree' to list commands.", strings.Fields(trimmed)[0])
			return false
		}
		c.system("Error: %v", err)
	}
	return false
}

func (c *consoleLoop) printTree() {
	md := tui.TreeMarkdown(c.eng.Describe())
	out := md
	if c.opts.Render != nil {
		rendered, err := c.opts.Render(md)
		if err != nil {
			c.opts.Logger.Warn("failed to render tree", "err", err)
		} else {
			out = rendered
		}
	}
	fmt.Fprint(c.opts.Out, out)
}
