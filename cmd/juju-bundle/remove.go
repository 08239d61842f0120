// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"github.com/juju/cmd/v4"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/knkski/juju-helpers/internal/bundle"
	"github.com/knkski/juju-helpers/internal/juju"
	"github.com/knkski/juju-helpers/internal/run"
)

func newRemoveCommand() cmd.Command {
	return &removeCommand{runner: run.DefaultRunner()}
}

const removeDoc = `
Removes a bundle from the current model.

Only applications named by the bundle (or the subset selected with
--app) are removed; anything else deployed to the model is left
untouched.
`

type removeCommand struct {
	cmd.CommandBase

	runner run.Runner

	apps       []string
	bundleFile string
}

// Info implements cmd.Command.
func (c *removeCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "remove",
		Purpose: "Remove a bundle from the current model.",
		Doc:     removeDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *removeCommand) SetFlags(f *gnuflag.FlagSet) {
	f.Var(cmd.NewAppendStringsValue(&c.apps), "a", "select particular apps to remove")
	f.Var(cmd.NewAppendStringsValue(&c.apps), "app", "")
	f.StringVar(&c.bundleFile, "b", "bundle.yaml", "the bundle file to remove")
	f.StringVar(&c.bundleFile, "bundle", "bundle.yaml", "")
}

// Init implements cmd.Command.
func (c *removeCommand) Init(args []string) error {
	return cmd.CheckEmpty(args)
}

// Run implements cmd.Command.
func (c *removeCommand) Run(ctx *cmd.Context) error {
	b, err := bundle.Read(c.bundleFile)
	if err != nil {
		return errors.Trace(err)
	}
	apps, err := b.ApplicationSubset(c.apps)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(removeApplications(ctx, c.runner, apps))
}

// removeApplications removes each of the given applications from the
// current model, one remove-application per app.
func removeApplications(ctx *cmd.Context, runner run.Runner, apps map[string]*bundle.Application) error {
	for _, name := range bundle.SortedNames(apps) {
		if err := juju.RemoveApplication(ctx, runner, name); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
