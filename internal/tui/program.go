package tui

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pavelanni/aptitude/internal/practice"
)

// Run drives sess in the terminal until the user quits. Timers are stopped on exit.
func Run(ctx context.Context, sess *practice.Session, stdout io.Writer, opts Options) error {
	if stdout == nil {
		stdout = os.Stdout
	}
	events, cancel := sess.Subscribe()
	defer cancel()
	defer sess.StopAll()

	program := tea.NewProgram(NewModel(ctx, sess, events, opts), tea.WithOutput(stdout), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run terminal UI: %w", err)
	}
	return nil
}
