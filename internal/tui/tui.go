package tui

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kong/ideamixer/internal/iostreams"
	"github.com/kong/ideamixer/internal/log"
)

// Run shows the form until the user quits.
func Run(ctx context.Context, streams *iostreams.IOStreams, opts Options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// the form owns the terminal, errors stay in the log file and the result area
	log.DisableErrorMirroring()
	defer log.EnableErrorMirroring()

	m := newModel(ctx, opts)
	defer close(m.done)

	program := tea.NewProgram(m,
		tea.WithInput(streams.In),
		tea.WithOutput(streams.Out),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithoutSignalHandler(),
	)

	m.logger().Info("ui session start", slog.String("model", opts.Model))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}
	m.logger().Info("ui session end", slog.Bool("had_error", err != nil))
	return err
}
