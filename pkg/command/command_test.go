package command

import (
	"errors"
	"os/exec"
	"testing"

	"gotest.tools/assert"
)

func TestQuote(t *testing.T) {
	assert.Equal(t, "easytier-core", Quote("easytier-core"))
	assert.Equal(t, "'/opt/easy tier/easytier-core' --version", Quote("/opt/easy tier/easytier-core", "--version"))
}

func TestWrapCommandError(t *testing.T) {
	assert.NilError(t, WrapCommandError([]byte("out"), nil))

	cause := &exec.ExitError{Stderr: []byte("boom")}
	err := WrapCommandError([]byte("partial"), cause)
	assert.Assert(t, errors.Is(err, cause))
	assert.ErrorContains(t, err, "partial: boom: ")

	var commandErr *Error
	assert.Assert(t, errors.As(err, &commandErr))
	assert.Equal(t, -1, commandErr.ExitCode())
}
