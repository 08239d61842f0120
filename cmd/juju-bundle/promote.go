// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"

	"github.com/juju/cmd/v4"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/knkski/juju-helpers/internal/bundle"
	"github.com/knkski/juju-helpers/internal/charm"
	"github.com/knkski/juju-helpers/internal/run"
)

func newPromoteCommand() cmd.Command {
	return &promoteCommand{runner: run.DefaultRunner()}
}

const promoteDoc = `
Promotes a published bundle from one channel to another.

The bundle's metadata is fetched from the charm store at the --from
channel, each charm it names with a "source" field is released to the
--to channel at the revision the bundle pins, and finally the bundle
revision itself is released.
`

type promoteCommand struct {
	cmd.CommandBase

	runner run.Runner

	bundleName string
	fromRaw    string
	toRaw      string
	excluded   []string

	from charm.Channel
	to   charm.Channel
}

// Info implements cmd.Command.
func (c *promoteCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "promote",
		Purpose: "Promote a published bundle between channels.",
		Doc:     promoteDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *promoteCommand) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.bundleName, "b", "", "the bundle to promote")
	f.StringVar(&c.bundleName, "bundle", "", "")
	f.StringVar(&c.fromRaw, "from", "", "the channel to promote from")
	f.StringVar(&c.toRaw, "to", "", "the channel to promote to")
	f.Var(cmd.NewAppendStringsValue(&c.excluded), "e", "select particular apps to exclude from promoting")
	f.Var(cmd.NewAppendStringsValue(&c.excluded), "exclude", "")
}

// Init implements cmd.Command.
func (c *promoteCommand) Init(args []string) error {
	if c.bundleName == "" {
		return errors.NotValidf("missing --bundle name")
	}
	var err error
	if c.from, err = charm.ParseChannel(c.fromRaw); err != nil {
		return errors.Annotate(err, "--from")
	}
	if c.to, err = charm.ParseChannel(c.toRaw); err != nil {
		return errors.Annotate(err, "--to")
	}
	// A bare track like "1.0" means that track's stable channel.
	c.from = c.from.Normalize()
	c.to = c.to.Normalize()
	return cmd.CheckEmpty(args)
}

// Run implements cmd.Command.
func (c *promoteCommand) Run(ctx *cmd.Context) error {
	revision, b, err := bundle.ReadStore(ctx, c.runner, c.bundleName, c.from)
	if err != nil {
		return errors.Trace(err)
	}
	ctx.Infof("Found bundle revision %d", revision)

	excluded := make(map[string]bool, len(c.excluded))
	for _, name := range c.excluded {
		excluded[name] = true
	}

	for _, name := range bundle.SortedNames(b.Applications) {
		app := b.Applications[name]
		if excluded[name] || app.Source == "" {
			continue
		}
		ctx.Infof("Promoting %s to %s.", name, c.to)
		if err := charm.Release(ctx, c.runner, app.Charm, c.to); err != nil {
			return errors.Trace(err)
		}
	}

	ctx.Infof("Bundle charms successfully promoted, promoting bundle.")
	return errors.Trace(charm.Release(ctx, c.runner, fmt.Sprintf("%s-%d", c.bundleName, revision), c.to))
}
