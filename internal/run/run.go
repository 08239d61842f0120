// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package run executes the external tools the plugins drive: juju,
// charm, docker and kubectl.
package run

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/kballard/go-shellquote"
)

var logger = loggo.GetLogger("juju-helpers.run")

// Runner executes external commands.
type Runner interface {
	// Run executes the named command with stdio inherited from the
	// calling process, so interactive commands (charm login, juju
	// deploy) behave as if invoked directly.
	Run(ctx context.Context, name string, args ...string) error

	// Output executes the named command and returns its stdout.
	// Stderr is passed through to the calling process.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewRunner returns a Runner backed by os/exec, wiring the command's
// stdio to the given streams.
func NewRunner(stdin io.Reader, stdout, stderr io.Writer) Runner {
	return &execRunner{stdin: stdin, stdout: stdout, stderr: stderr}
}

// DefaultRunner returns a Runner attached to the process stdio.
func DefaultRunner() Runner {
	return NewRunner(os.Stdin, os.Stdout, os.Stderr)
}

type execRunner struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Run implements Runner.Run.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) error {
	logger.Debugf("running %s %s", name, shellquote.Join(args...))
	command := exec.CommandContext(ctx, name, args...)
	command.Stdin = r.stdin
	command.Stdout = r.stdout
	command.Stderr = r.stderr
	if err := command.Run(); err != nil {
		return errors.Annotatef(err, "running %s %s", name, shellquote.Join(args...))
	}
	return nil
}

// Output implements Runner.Output.
func (r *execRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	logger.Debugf("running %s %s", name, shellquote.Join(args...))
	command := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	command.Stdin = r.stdin
	command.Stdout = &out
	command.Stderr = r.stderr
	if err := command.Run(); err != nil {
		return nil, errors.Annotatef(err, "running %s %s", name, shellquote.Join(args...))
	}
	return out.Bytes(), nil
}
