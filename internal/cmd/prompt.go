package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kong/ideamixer/internal/iostreams"
	"golang.org/x/term"
)

// ErrPromptCancelled is returned when the user interrupts or closes a prompt.
var ErrPromptCancelled = errors.New("prompt cancelled")

// readPassword is swapped in tests
var readPassword = term.ReadPassword

type promptResult struct {
	line string
	err  error
}

// PromptSecret writes label to the error stream and reads one line without echo
// when the input is a terminal. Piped stdin is left alone in favour of /dev/tty.
func PromptSecret(ctx context.Context, streams *iostreams.IOStreams, label string) (string, error) {
	return prompt(ctx, streams, label, true)
}

// PromptLine is PromptSecret with echo.
func PromptLine(ctx context.Context, streams *iostreams.IOStreams, label string) (string, error) {
	return prompt(ctx, streams, label, false)
}

// Confirm asks a yes/no question and reports whether the answer was "y" or "yes".
func Confirm(ctx context.Context, streams *iostreams.IOStreams, question string) (bool, error) {
	answer, err := PromptLine(ctx, streams, question+" [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func prompt(ctx context.Context, streams *iostreams.IOStreams, label string, hidden bool) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	input, closeInput := promptInput(streams.In)
	defer closeInput()

	fmt.Fprint(streams.ErrOut, label)

	done := make(chan promptResult, 1)
	go func() {
		if fd, ok := iostreams.FileDescriptor(input); ok && hidden && iostreams.IsTerminal(input) {
			b, err := readPassword(fd)
			fmt.Fprintln(streams.ErrOut)
			done <- promptResult{line: string(b), err: err}
			return
		}
		line, err := bufio.NewReader(input).ReadString('\n')
		if errors.Is(err, io.EOF) && line != "" {
			err = nil
		}
		done <- promptResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(streams.ErrOut)
		return "", ErrPromptCancelled
	case res := <-done:
		if errors.Is(res.err, io.EOF) {
			return "", ErrPromptCancelled
		}
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return strings.TrimRight(res.line, "\r\n"), nil
	}
}

func promptInput(in io.Reader) (io.Reader, func()) {
	f, ok := in.(*os.File)
	if !ok || f.Fd() != os.Stdin.Fd() || iostreams.IsTerminal(f) {
		return in, func() {}
	}
	tty, err := iostreams.OpenTTY()
	if err != nil {
		return in, func() {}
	}
	return tty, func() { _ = tty.Close() }
}
