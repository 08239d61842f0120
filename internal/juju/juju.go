// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package juju drives the juju CLI on behalf of the plugins. The
// plugins deliberately shell out rather than dialing the controller
// API: they compose the same commands a human operator would run.
package juju

import (
	"context"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/knkski/juju-helpers/internal/run"
)

var logger = loggo.GetLogger("juju-helpers.juju")

// Deploy deploys a bundle file, passing any extra arguments straight
// through to `juju deploy`.
func Deploy(ctx context.Context, runner run.Runner, bundlePath string, extraArgs []string) error {
	args := append([]string{"deploy", bundlePath}, extraArgs...)
	return errors.Annotate(runner.Run(ctx, "juju", args...), "deploying bundle")
}

// RemoveApplication removes a single application from the current
// model. Applications the bundle does not name are never touched.
func RemoveApplication(ctx context.Context, runner run.Runner, name string) error {
	return errors.Annotatef(runner.Run(ctx, "juju", "remove-application", name),
		"removing application %q", name)
}

// UpgradeArgs qualifies an UpgradeCharm call.
type UpgradeArgs struct {
	// Path points at a locally built charm to switch the
	// application to.
	Path string

	// Channel selects the store channel to upgrade from.
	Channel string
}

// UpgradeCharm runs `juju upgrade-charm` for one application.
func UpgradeCharm(ctx context.Context, runner run.Runner, name string, args UpgradeArgs) error {
	cmdArgs := []string{"upgrade-charm", name}
	if args.Path != "" {
		cmdArgs = append(cmdArgs, "--path", args.Path)
	}
	if args.Channel != "" {
		cmdArgs = append(cmdArgs, "--channel", args.Channel)
	}
	return errors.Annotatef(runner.Run(ctx, "juju", cmdArgs...), "upgrading charm for %q", name)
}

// Whoami reports the current controller and model, as `juju switch`
// sees them. Model is empty when no model is selected.
func Whoami(ctx context.Context, runner run.Runner) (controller, model string, err error) {
	out, err := runner.Output(ctx, "juju", "switch")
	if err != nil {
		return "", "", errors.Annotate(err, "resolving current model")
	}
	target := strings.TrimSpace(string(out))
	if target == "" {
		return "", "", errors.New("no controller selected, run `juju switch` first")
	}
	if i := strings.Index(target, ":"); i >= 0 {
		return target[:i], target[i+1:], nil
	}
	return target, "", nil
}
