package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var ErrPasswordMismatch = errors.New("passwords do not match")

type PasswordPrompter interface {
	// Run asks for a password once.
	Run() (string, error)
	// RunConfirmed asks for a new password twice and fails unless both entries match.
	RunConfirmed() (string, error)
}

// terminalPasswordPrompter reads passwords without echo when stdin is a terminal, and reads one
// line per password otherwise so that passwords can be piped in.
type terminalPasswordPrompter struct {
	label  string
	stdin  *os.File
	stdout io.Writer
	lines  *bufio.Reader
}

var _ PasswordPrompter = (*terminalPasswordPrompter)(nil)

func NewPasswordPrompter(label string, stdin *os.File, stdout io.Writer) (PasswordPrompter, error) {
	if stdin == nil {
		return nil, fmt.Errorf("stdin cannot be nil")
	}
	if stdout == nil {
		return nil, fmt.Errorf("stdout cannot be nil")
	}

	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("input label text cannot be empty")
	}

	return &terminalPasswordPrompter{
		label:  label,
		stdin:  stdin,
		stdout: stdout,
		lines:  bufio.NewReader(stdin),
	}, nil
}

func (pp *terminalPasswordPrompter) Run() (string, error) {
	return pp.prompt(pp.label)
}

func (pp *terminalPasswordPrompter) RunConfirmed() (string, error) {
	password, err := pp.prompt(pp.label)
	if err != nil {
		return "", err
	}
	confirmation, err := pp.prompt("Confirm " + strings.ToLower(pp.label[:1]) + pp.label[1:])
	if err != nil {
		return "", err
	}
	if password != confirmation {
		return "", ErrPasswordMismatch
	}
	return password, nil
}

func (pp *terminalPasswordPrompter) prompt(label string) (string, error) {
	if _, err := fmt.Fprint(pp.stdout, label, " "); err != nil {
		return "", fmt.Errorf("writing input label text: %w", err)
	}

	fd := int(pp.stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := pp.lines.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	password, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if _, err = fmt.Fprintln(pp.stdout); err != nil {
		return "", fmt.Errorf("writing newline: %w", err)
	}
	return string(password), nil
}

// MockPasswordPrompter returns canned answers.
type MockPasswordPrompter struct {
	Password     string
	Confirmation string
	Err          error
}

var _ PasswordPrompter = (*MockPasswordPrompter)(nil)

func (m *MockPasswordPrompter) Run() (string, error) {
	return m.Password, m.Err
}

func (m *MockPasswordPrompter) RunConfirmed() (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if m.Confirmation != "" && m.Confirmation != m.Password {
		return "", ErrPasswordMismatch
	}
	return m.Password, nil
}
