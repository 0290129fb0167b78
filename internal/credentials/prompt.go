package credentials

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoTerminal is returned when a secret is needed but stdin is not a terminal.
var ErrNoTerminal = errors.New("cannot prompt: stdin is not a terminal")

// Prompter asks the user for input.
type Prompter interface {
	Line(prompt string) (string, error)
	Password(prompt string) (string, error)
}

// TerminalPrompter reads from a terminal without echoing passwords.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer

	reader *bufio.Reader
}

// NewTerminalPrompter prompts on stderr and reads stdin.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

// Line reads one line of visible input.
func (p *TerminalPrompter) Line(prompt string) (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	_, _ = fmt.Fprint(p.Out, prompt)
	line, err := p.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Password reads a line without echo.
func (p *TerminalPrompter) Password(prompt string) (string, error) {
	fd := int(p.In.Fd()) //nolint:gosec // file descriptors fit in int
	if !term.IsTerminal(fd) {
		return "", ErrNoTerminal
	}
	_, _ = fmt.Fprint(p.Out, prompt)
	b, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec // file descriptors fit in int
}
