package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// WatchFunc watches the presentation source and reports reloads
type WatchFunc func(ctx context.Context, onChange func(error)) error

// Options configure the TUI
type Options struct {
	Start int
	Debug bool
	// Watch enables live reload when set
	Watch WatchFunc
}

// getTTY returns file handles for TUI input/output
// Uses /dev/tty when stdin or stdout are not a terminal, e.g. when the
// presentation itself is piped in
func getTTY() (in *os.File, out *os.File, cleanup func()) {
	var closers []func()
	in, out = os.Stdin, os.Stdout

	if !isTerminal(os.Stdout) {
		if tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0); err == nil {
			out = tty
			closers = append(closers, func() { tty.Close() })
		} else {
			out = os.Stderr
		}
		// Tell lipgloss to use the TTY for color detection
		lipgloss.SetDefaultRenderer(lipgloss.NewRenderer(out))
	}

	if !isTerminal(os.Stdin) {
		if tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0); err == nil {
			in = tty
			closers = append(closers, func() { tty.Close() })
		}
	}

	return in, out, func() {
		for _, c := range closers {
			c()
		}
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// Run shows the presentation until the user quits
func Run(p Presenter, opts Options) error {
	ttyIn, ttyOut, cleanup := getTTY()
	defer cleanup()

	m := newMainModel(p, opts.Start, opts.Debug)
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithOutput(ttyOut), tea.WithInput(ttyIn))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watchErr := make(chan error, 1)
	if opts.Watch != nil {
		go func() {
			watchErr <- opts.Watch(ctx, func(err error) {
				prog.Send(ReloadedMsg{Err: err})
			})
		}()
	}

	if _, err := prog.Run(); err != nil {
		return err
	}

	cancel()
	if opts.Watch != nil {
		return <-watchErr
	}
	return nil
}

// Confirm asks a yes/no question, defaulting to no
func Confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// ConfirmTTY asks on the terminal even when stdin is redirected
func ConfirmTTY(question string) (bool, error) {
	in, out, cleanup := getTTY()
	defer cleanup()
	return Confirm(in, out, question)
}
