package command

import (
	"errors"
	"os/exec"
	"strings"
)

// WrapCommandError attaches what a failed child process printed to its error. A nil err
// stays nil.
func WrapCommandError(stdout []byte, err error) error {
	if err == nil {
		return nil
	}

	return &Error{
		Stdout: strings.TrimSpace(string(stdout)),
		err:    err,
	}
}

// Error is the failure of a child process together with its output
type Error struct {
	Stdout string

	err error
}

func (e *Error) Error() string {
	parts := []string{}
	if e.Stdout != "" {
		parts = append(parts, e.Stdout)
	}

	var exitError *exec.ExitError
	if errors.As(e.err, &exitError) {
		if stderr := strings.TrimSpace(string(exitError.Stderr)); stderr != "" {
			parts = append(parts, stderr)
		}
	}

	return strings.Join(append(parts, e.err.Error()), ": ")
}

// ExitCode returns the exit code of the process, or -1 if it didn't exit normally
func (e *Error) ExitCode() int {
	var exitError *exec.ExitError
	if errors.As(e.err, &exitError) {
		return exitError.ExitCode()
	}

	return -1
}

func (e *Error) Unwrap() error {
	return e.err
}
