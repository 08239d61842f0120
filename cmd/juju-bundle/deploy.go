// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/cmd/v4"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"golang.org/x/sync/errgroup"

	"github.com/knkski/juju-helpers/internal/bundle"
	"github.com/knkski/juju-helpers/internal/charm"
	"github.com/knkski/juju-helpers/internal/juju"
	"github.com/knkski/juju-helpers/internal/run"
)

func newDeployCommand() cmd.Command {
	return &deployCommand{
		runner: run.DefaultRunner(),
		clock:  clock.WallClock,
	}
}

const deployDoc = `
Deploys a bundle, optionally building and/or recreating it.

Applications with a "source:" field are built from their charm source
tree when --build is passed or when they declare no "charm:" field.
Relative sources resolve against the bundle file's directory, others
against $CHARM_SOURCE_DIR.

If a subset of apps is chosen with --app, bundle relations are only
included when both endpoints are selected.

Any arguments after the flags are passed through to ` + "`juju deploy`" + `;
use "--" before passthrough arguments that start with a dash:

    juju bundle deploy --build -- --trust
`

type deployCommand struct {
	cmd.CommandBase

	runner run.Runner
	clock  clock.Clock

	recreate      bool
	upgradeCharms bool
	build         bool
	wait          int
	apps          []string
	bundleFile    string
	deployArgs    []string
}

// Info implements cmd.Command.
func (c *deployCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "deploy",
		Args:    "[-- deploy-args ...]",
		Purpose: "Deploy a bundle, building charms as necessary.",
		Doc:     deployDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *deployCommand) SetFlags(f *gnuflag.FlagSet) {
	f.BoolVar(&c.recreate, "recreate", false, "remove the bundle before deploying it")
	f.BoolVar(&c.upgradeCharms, "upgrade-charms", false, "run upgrade-charm on each charm instead of redeploying")
	f.BoolVar(&c.build, "build", false, "build charms from source before deploying (requires source: fields)")
	f.IntVar(&c.wait, "wait", 60, "seconds to wait for the model to stabilize before deploying")
	f.Var(cmd.NewAppendStringsValue(&c.apps), "a", "select particular apps to deploy")
	f.Var(cmd.NewAppendStringsValue(&c.apps), "app", "")
	f.StringVar(&c.bundleFile, "b", "bundle.yaml", "the bundle file to deploy")
	f.StringVar(&c.bundleFile, "bundle", "bundle.yaml", "")
}

// AllowInterspersedFlags implements cmd.Command. Positional arguments
// are collected verbatim for juju deploy, flags and all.
func (c *deployCommand) AllowInterspersedFlags() bool {
	return false
}

// Init implements cmd.Command.
func (c *deployCommand) Init(args []string) error {
	if c.wait < 0 {
		return errors.NotValidf("negative wait %d", c.wait)
	}
	c.deployArgs = args
	return nil
}

// Run implements cmd.Command.
func (c *deployCommand) Run(ctx *cmd.Context) error {
	ctx.Infof("Building and deploying bundle from %s", c.bundleFile)

	b, err := bundle.Read(c.bundleFile)
	if err != nil {
		return errors.Trace(err)
	}
	apps, err := b.ApplicationSubset(c.apps)
	if err != nil {
		return errors.Trace(err)
	}
	buildCount := 0
	for _, app := range apps {
		if app.Source != "" {
			buildCount++
		}
	}
	ctx.Infof("Found %d total applications", len(apps))
	ctx.Infof("Found %d applications to build", buildCount)

	b.PruneRelations(apps)

	resolved, err := c.resolveCharms(ctx, b, apps)
	if err != nil {
		return errors.Trace(err)
	}
	b.Applications = resolved

	if c.upgradeCharms {
		return errors.Trace(c.runUpgrades(ctx, resolved))
	}

	tempBundle, err := b.WriteTemp()
	if err != nil {
		return errors.Trace(err)
	}
	defer os.Remove(tempBundle)

	if c.recreate {
		ctx.Infof("Removing bundle before deploy.")
		if err := removeApplications(ctx, c.runner, resolved); err != nil {
			return errors.Trace(err)
		}
	}

	if c.wait > 0 {
		ctx.Infof("Waiting for stability before deploying.")
		timeout := time.Duration(c.wait) * time.Second
		if err := juju.WaitForStability(ctx, c.runner, c.clock, timeout); err != nil {
			return errors.Trace(err)
		}
	}

	ctx.Infof("Deploying bundle.")
	return errors.Trace(juju.Deploy(ctx, c.runner, tempBundle, c.deployArgs))
}

// resolveCharms decides, per application, whether to deploy the
// declared charm or a fresh build of its source, building sources in
// parallel. The returned applications carry the final charm
// references and any resources defaulted from charm metadata.
func (c *deployCommand) resolveCharms(ctx *cmd.Context, b *bundle.Bundle, apps map[string]*bundle.Application) (map[string]*bundle.Application, error) {
	var (
		mu       sync.Mutex
		resolved = make(map[string]*bundle.Application, len(apps))
	)
	group, groupCtx := errgroup.WithContext(ctx)
	for _, name := range bundle.SortedNames(apps) {
		name, app := name, apps[name]
		group.Go(func() error {
			switch {
			// A declared charm is used as-is unless a build was
			// explicitly requested for an app that can honor it.
			// juju itself rejects the source field, so it never
			// reaches the written bundle.
			case app.Charm != "" && (!c.build || app.Source == ""):
				kept := app
				if app.Source != "" {
					kept = app.Copy()
					kept.Source = ""
				}
				mu.Lock()
				resolved[name] = kept
				mu.Unlock()
				return nil

			case app.Charm == "" && app.Source == "":
				return errors.Errorf("application %q has neither `charm` nor `source` set", name)

			default:
				built, err := c.buildCharm(groupCtx, b.Path, name, app)
				if err != nil {
					return errors.Trace(err)
				}
				mu.Lock()
				resolved[name] = built
				mu.Unlock()
				return nil
			}
		})
	}
	if err := group.Wait(); err != nil {
		return nil, errors.Trace(err)
	}
	return resolved, nil
}

func (c *deployCommand) buildCharm(ctx context.Context, bundlePath, name string, app *bundle.Application) (*bundle.Application, error) {
	src, err := charm.ReadSource(charm.ResolveSourcePath(bundlePath, app.Source))
	if err != nil {
		return nil, errors.Annotatef(err, "application %q", name)
	}
	builtPath, err := src.Build(ctx, c.runner, name)
	if err != nil {
		return nil, errors.Trace(err)
	}

	built := app.Copy()
	built.Charm = builtPath
	// juju itself has no use for the source field.
	built.Source = ""
	for resName, res := range src.Meta.Resources {
		if res.UpstreamSource == "" {
			continue
		}
		if built.Resources == nil {
			built.Resources = make(map[string]string)
		}
		if _, pinned := built.Resources[resName]; !pinned {
			built.Resources[resName] = res.UpstreamSource
		}
	}
	return built, nil
}

func (c *deployCommand) runUpgrades(ctx *cmd.Context, apps map[string]*bundle.Application) error {
	for _, name := range bundle.SortedNames(apps) {
		app := apps[name]
		args := juju.UpgradeArgs{Channel: app.Channel}
		if isLocalCharm(app.Charm) {
			args = juju.UpgradeArgs{Path: app.Charm}
		}
		if err := juju.UpgradeCharm(ctx, c.runner, name, args); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// isLocalCharm reports whether a charm reference is a filesystem path
// rather than a store URL.
func isLocalCharm(ref string) bool {
	return len(ref) > 0 && (ref[0] == '/' || ref[0] == '.')
}
