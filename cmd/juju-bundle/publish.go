// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/juju/cmd/v4"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"golang.org/x/sync/errgroup"

	"github.com/knkski/juju-helpers/internal/bundle"
	"github.com/knkski/juju-helpers/internal/charm"
	"github.com/knkski/juju-helpers/internal/run"
)

func newPublishCommand() cmd.Command {
	return &publishCommand{runner: run.DefaultRunner()}
}

const publishDoc = `
Builds and publishes a bundle to the charm store.

Each application carrying both a "charm" store URL and a "source"
field is built from source, pushed to the store, and released to the
edge channel. A copy of the bundle pinned to the exact revisions just
pushed is then uploaded and released to edge as well.

Charms are built and pushed in parallel unless --serial is set.
`

type publishCommand struct {
	cmd.CommandBase

	runner run.Runner

	bundleFile string
	csURL      string
	serial     bool
	prune      bool
}

// Info implements cmd.Command.
func (c *publishCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "publish",
		Purpose: "Publish a bundle and its charms to the charm store.",
		Doc:     publishDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *publishCommand) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.bundleFile, "b", "bundle.yaml", "the bundle file to publish")
	f.StringVar(&c.bundleFile, "bundle", "bundle.yaml", "")
	f.StringVar(&c.csURL, "url", "", "the charm store URL for the bundle")
	f.BoolVar(&c.serial, "serial", false, "build and publish one charm at a time")
	f.BoolVar(&c.prune, "prune", false, "prune docker between charms (requires --serial)")
}

// Init implements cmd.Command.
func (c *publishCommand) Init(args []string) error {
	if c.csURL == "" {
		return errors.NotValidf("missing bundle charm store --url")
	}
	if c.prune && !c.serial {
		return errors.New("to use --prune, you must set the --serial flag as well")
	}
	return cmd.CheckEmpty(args)
}

// Run implements cmd.Command.
func (c *publishCommand) Run(ctx *cmd.Context) error {
	b, err := bundle.Read(c.bundleFile)
	if err != nil {
		return errors.Trace(err)
	}

	// Log in up front so charm push doesn't spawn a login page
	// per charm.
	ctx.Infof("Logging in to charm store, this may open up a browser window.")
	if err := charm.Login(ctx, c.runner); err != nil {
		return errors.Trace(err)
	}

	// Only apps with both a source to build and a store URL to push
	// to can be published.
	apps := make(map[string]*bundle.Application)
	for name, app := range b.Applications {
		if app.Charm != "" && app.Source != "" {
			apps[name] = app
		}
	}
	names := bundle.SortedNames(apps)
	ctx.Infof("Publishing %d apps:", len(apps))
	for _, name := range names {
		ctx.Infof("%s", name)
	}

	revisions, err := c.publishCharms(ctx, b, apps)
	if err != nil {
		return errors.Trace(err)
	}

	// Pin each published app to the exact revision just pushed, so
	// the uploaded bundle deploys what this run built.
	pinned := b.Data
	pinned.Applications = make(map[string]*bundle.Application, len(b.Applications))
	for name, app := range b.Applications {
		pinned.Applications[name] = app
	}
	for name, revURL := range revisions {
		app := pinned.Applications[name].Copy()
		app.Charm = revURL
		pinned.Applications[name] = app
	}

	dir, err := os.MkdirTemp("", "juju-bundle-publish-")
	if err != nil {
		return errors.Trace(err)
	}
	defer os.RemoveAll(dir)

	pinnedBundle := &bundle.Bundle{Data: pinned, Path: filepath.Join(dir, "bundle.yaml")}
	if err := pinnedBundle.Write(pinnedBundle.Path); err != nil {
		return errors.Trace(err)
	}
	// charm push expects the bundle directory to carry a README.
	if err := copyFile(
		filepath.Join(filepath.Dir(c.bundleFile), "README.md"),
		filepath.Join(dir, "README.md"),
	); err != nil {
		return errors.Trace(err)
	}

	bundleURL, err := charm.Push(ctx, c.runner, dir, c.csURL, nil)
	if err != nil {
		return errors.Trace(err)
	}
	ctx.Infof("Pushed bundle as %s", bundleURL)
	return errors.Trace(charm.Release(ctx, c.runner, bundleURL.String(), charm.Channel{Risk: charm.Edge}))
}

// publishCharms builds, pushes, and releases each publishable app to
// edge, returning the revision URL the store assigned per app.
func (c *publishCommand) publishCharms(ctx *cmd.Context, b *bundle.Bundle, apps map[string]*bundle.Application) (map[string]string, error) {
	var (
		mu        sync.Mutex
		revisions = make(map[string]string, len(apps))
	)
	publish := func(ctx context.Context, name string, app *bundle.Application) error {
		revURL, err := c.publishCharm(ctx, b.Path, name, app)
		if err != nil {
			return errors.Annotatef(err, "application %q", name)
		}
		mu.Lock()
		revisions[name] = revURL
		mu.Unlock()
		return nil
	}

	if c.serial {
		for _, name := range bundle.SortedNames(apps) {
			if err := publish(ctx, name, apps[name]); err != nil {
				return nil, errors.Trace(err)
			}
			if c.prune {
				if err := c.runner.Run(ctx, "docker", "system", "prune", "-af"); err != nil {
					return nil, errors.Trace(err)
				}
			}
		}
		return revisions, nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, name := range bundle.SortedNames(apps) {
		name, app := name, apps[name]
		group.Go(func() error {
			return publish(groupCtx, name, app)
		})
	}
	if err := group.Wait(); err != nil {
		return nil, errors.Trace(err)
	}
	return revisions, nil
}

func (c *publishCommand) publishCharm(ctx context.Context, bundlePath, name string, app *bundle.Application) (string, error) {
	src, err := charm.ReadSource(charm.ResolveSourcePath(bundlePath, app.Source))
	if err != nil {
		return "", errors.Trace(err)
	}
	builtDir, err := src.Build(ctx, c.runner, name)
	if err != nil {
		return "", errors.Trace(err)
	}
	revURL, err := charm.Push(ctx, c.runner, builtDir, app.Charm, app.Resources)
	if err != nil {
		return "", errors.Trace(err)
	}
	if err := charm.Release(ctx, c.runner, revURL.String(), charm.Channel{Risk: charm.Edge}); err != nil {
		return "", errors.Trace(err)
	}
	return revURL.String(), nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(os.WriteFile(dst, data, 0644))
}
