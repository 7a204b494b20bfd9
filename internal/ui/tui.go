// Package ui provides the interactive terminal interface.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist/internal/remote"
	"github.com/nibzard/tasklist/internal/todo"
)

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

// tuiConfig holds TUI configuration.
type tuiConfig struct {
	filter    todo.Filter
	logger    *log.Logger
	altScreen bool
	input     io.Reader
	output    io.Writer
}

// WithFilter sets the filter shown on start.
func WithFilter(f todo.Filter) TUIOption {
	return func(c *tuiConfig) {
		c.filter = f
	}
}

// WithLogger sets the logger used for user actions.
func WithLogger(l *log.Logger) TUIOption {
	return func(c *tuiConfig) {
		c.logger = l
	}
}

// WithAltScreen toggles the alternate screen buffer.
func WithAltScreen(enabled bool) TUIOption {
	return func(c *tuiConfig) {
		c.altScreen = enabled
	}
}

// WithIO replaces the terminal with the given reader and writer.
func WithIO(in io.Reader, out io.Writer) TUIOption {
	return func(c *tuiConfig) {
		c.input = in
		c.output = out
	}
}

// RunTUI runs the task list screen until the user quits or ctx is done.
// Store mutations from other goroutines and fetch status changes, including
// the timed clear, are forwarded to the program.
func RunTUI(ctx context.Context, store *todo.Store, syncer *remote.Syncer, opts ...TUIOption) error {
	c := &tuiConfig{
		filter:    todo.FilterAll,
		altScreen: true,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.input == nil && !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	model := NewModel(ctx, store, syncer, c.filter, c.logger)

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if c.altScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	if c.input != nil {
		progOpts = append(progOpts, tea.WithInput(c.input))
	}
	if c.output != nil {
		progOpts = append(progOpts, tea.WithOutput(c.output))
	}
	program := tea.NewProgram(model, progOpts...)

	// The store notifies while holding its lock and Send blocks until the
	// event loop receives, so forward from a fresh goroutine.
	unsubscribe := store.Subscribe(func([]todo.Task) {
		go program.Send(storeChangedMsg{})
	})
	defer unsubscribe()

	if syncer != nil {
		stop := syncer.Session().OnStatus(func(string) {
			go program.Send(statusChangedMsg{})
		})
		defer stop()
	}

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
