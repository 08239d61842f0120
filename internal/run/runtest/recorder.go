// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package runtest provides a fake command runner for tests.
package runtest

import (
	"context"
	"strings"
	"sync"

	"github.com/juju/errors"
	"github.com/kballard/go-shellquote"
)

// Call records a single command execution.
type Call struct {
	Name string
	Args []string
}

// String renders the call the way it would appear on a shell.
func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + shellquote.Join(c.Args...)
}

// Recorder is a run.Runner that records every invocation instead of
// executing it. Canned stdout and errors are matched by command name
// prefix, in the order registered. Safe for concurrent use, since
// production code runs commands from multiple goroutines.
type Recorder struct {
	mu    sync.Mutex
	Calls []Call

	outputs []cannedOutput
	errors  []cannedError
}

type cannedOutput struct {
	prefix string
	stdout string
}

type cannedError struct {
	prefix string
	err    error
}

// SetOutput arranges for the next Output call whose rendered command
// line starts with prefix to return stdout.
func (r *Recorder) SetOutput(prefix, stdout string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs = append(r.outputs, cannedOutput{prefix: prefix, stdout: stdout})
}

// SetError arranges for the next Run or Output call whose rendered
// command line starts with prefix to fail with err.
func (r *Recorder) SetError(prefix string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, cannedError{prefix: prefix, err: err})
}

// Run implements run.Runner.
func (r *Recorder) Run(ctx context.Context, name string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	call := Call{Name: name, Args: args}
	r.Calls = append(r.Calls, call)
	return r.matchError(call)
}

// Output implements run.Runner.
func (r *Recorder) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	call := Call{Name: name, Args: args}
	r.Calls = append(r.Calls, call)
	if err := r.matchError(call); err != nil {
		return nil, err
	}
	line := call.String()
	for i, canned := range r.outputs {
		if strings.HasPrefix(line, canned.prefix) {
			r.outputs = append(r.outputs[:i], r.outputs[i+1:]...)
			return []byte(canned.stdout), nil
		}
	}
	return nil, errors.Errorf("no canned output for %q", line)
}

// CommandLines returns every recorded call rendered as a shell line.
func (r *Recorder) CommandLines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := make([]string, len(r.Calls))
	for i, call := range r.Calls {
		lines[i] = call.String()
	}
	return lines
}

// matchError is called with the mutex held.
func (r *Recorder) matchError(call Call) error {
	line := call.String()
	for i, canned := range r.errors {
		if strings.HasPrefix(line, canned.prefix) {
			r.errors = append(r.errors[:i], r.errors[i+1:]...)
			return canned.err
		}
	}
	return nil
}
