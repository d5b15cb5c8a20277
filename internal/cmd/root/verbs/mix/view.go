package mix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kong/ideamixer/internal/cmd"
	"github.com/kong/ideamixer/internal/iostreams"
	"github.com/kong/ideamixer/internal/mixer"
)

// consoleView drives one run from the command line. Results go to the output
// stream; prompts, progress and failures go to the error stream. With quiet set
// only prompts are written, since the printed Outcome already carries the result.
type consoleView struct {
	streams *iostreams.IOStreams
	topics  []string
	quiet   bool
	logger  *slog.Logger

	// progress is only shown when the error stream is a terminal
	progress bool
	shown    bool
}

func newConsoleView(streams *iostreams.IOStreams, topics []string, quiet bool, logger *slog.Logger) *consoleView {
	return &consoleView{
		streams:  streams,
		topics:   topics,
		quiet:    quiet,
		logger:   logger,
		progress: !quiet && iostreams.IsTerminal(streams.ErrOut),
	}
}

func (v *consoleView) Topics() []string {
	return v.topics
}

func (v *consoleView) SetLoading(loading bool) {
	if !v.progress {
		return
	}
	if loading {
		fmt.Fprint(v.streams.ErrOut, mixer.LoadingLabel)
		v.shown = true
		return
	}
	v.eraseProgress()
}

// eraseProgress clears the progress label when it is still on screen.
func (v *consoleView) eraseProgress() {
	if !v.shown {
		return
	}
	fmt.Fprint(v.streams.ErrOut, "\r\x1b[K")
	v.shown = false
}

func (v *consoleView) ShowResult(markup string) {
	if v.quiet {
		return
	}
	v.eraseProgress()
	fmt.Fprintln(v.streams.Out, markup)
}

func (v *consoleView) ShowError(message string) {
	v.writeErr(message)
}

func (v *consoleView) ShowNotice(message string) {
	v.writeErr(message)
}

func (v *consoleView) Alert(message string) {
	v.writeErr(message)
}

func (v *consoleView) PromptForCredential(ctx context.Context) (string, bool) {
	key, err := cmd.PromptSecret(ctx, v.streams, mixer.CredentialPromptLabel+" ")
	if err != nil {
		if !errors.Is(err, cmd.ErrPromptCancelled) {
			v.logger.Warn("failed to read API key", slog.Any("error", err))
		}
		return "", false
	}
	return key, true
}

func (v *consoleView) writeErr(message string) {
	if v.quiet {
		return
	}
	v.eraseProgress()
	fmt.Fprintln(v.streams.ErrOut, message)
}
