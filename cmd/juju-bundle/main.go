// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// juju-bundle is a juju plugin for working with bundles and the
// charms contained therein: deploying (building them first when
// required), removing, publishing and promoting.
package main

import (
	"fmt"
	"os"

	"github.com/juju/cmd/v4"

	"github.com/knkski/juju-helpers/internal/paths"
)

// version matches the juju-helpers snap version.
const version = "0.1.0"

const bundleDoc = `
juju-bundle operates on a bundle and the charms it is composed of.

Bundle applications may carry a "source:" field naming the charm's
source tree; juju-bundle builds those charms on demand and rewrites
the bundle to deploy the built artifacts, so that a single command
takes a bundle from source to a running model.
`

func newBundleSuperCommand() *cmd.SuperCommand {
	bundleCmd := cmd.NewSuperCommand(cmd.SuperCommandParams{
		Name:        "juju-bundle",
		UsagePrefix: "juju",
		Purpose:     "Deploy, remove, publish, and promote bundles and their charms.",
		Doc:         bundleDoc,
		Version:     version,
		Log: &cmd.Log{
			DefaultConfig: os.Getenv(paths.JujuLoggingConfigEnvKey),
		},
	})
	bundleCmd.Register(newDeployCommand())
	bundleCmd.Register(newRemoveCommand())
	bundleCmd.Register(newPublishCommand())
	bundleCmd.Register(newPromoteCommand())
	return bundleCmd
}

func main() {
	ctx, err := cmd.DefaultContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	os.Exit(cmd.Main(newBundleSuperCommand(), ctx, os.Args[1:]))
}
