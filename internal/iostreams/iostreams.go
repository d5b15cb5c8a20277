package iostreams

import (
	"bytes"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

var osStreams *IOStreams

type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// Empty type to represent the _type_ IOStreams . Genesis is to support a key in a Context
type Key struct{}

// StreamsKey is a global instance of the Key type
var StreamsKey = Key{}

// Get a singleton instance of the OS IOStreams
func GetOSIOStreams() *IOStreams {
	if osStreams == nil {
		osStreams = &IOStreams{
			In:     os.Stdin,
			Out:    os.Stdout,
			ErrOut: os.Stderr,
		}
	}
	return osStreams
}

func NewTestIOStreams() (*IOStreams, *bytes.Buffer, *bytes.Buffer, *bytes.Buffer) {
	in := &bytes.Buffer{}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &IOStreams{
		In:     in,
		Out:    out,
		ErrOut: errOut,
	}, in, out, errOut
}

type fdHolder interface {
	Fd() uintptr
}

// terminalDetector is swapped in tests
var terminalDetector = func(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// IsTerminal reports whether the stream is attached to a terminal.
func IsTerminal(stream any) bool {
	f, ok := stream.(fdHolder)
	if !ok {
		return false
	}
	return terminalDetector(f.Fd())
}

// FileDescriptor returns the descriptor backing the stream, if any.
func FileDescriptor(stream any) (int, bool) {
	f, ok := stream.(fdHolder)
	if !ok {
		return 0, false
	}
	return int(f.Fd()), true
}

// TerminalWidth returns the column count of a terminal stream, or zero.
func TerminalWidth(stream any) int {
	fd, ok := FileDescriptor(stream)
	if !ok || !IsTerminal(stream) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}

// IsInteractive reports whether both input and error output are terminals,
// which is required before prompting the user.
func (s *IOStreams) IsInteractive() bool {
	return IsTerminal(s.In) && IsTerminal(s.ErrOut)
}

// OpenTTY opens the controlling terminal for prompts that must not consume stdin.
// The caller closes the returned file.
func OpenTTY() (*os.File, error) {
	return os.OpenFile("/dev/tty", os.O_RDWR, 0)
}
