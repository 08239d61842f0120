// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// juju-kubectl is a juju plugin that forwards an invocation to
// kubectl, pointed at the Kubernetes cluster backing the current juju
// model. The model's cloud and credential are resolved through the
// juju client, assembled into a throwaway kubeconfig, and the model
// name becomes the kubectl namespace unless the caller picks one.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/juju/cmd/v4"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/knkski/juju-helpers/internal/juju"
	"github.com/knkski/juju-helpers/internal/kube"
	"github.com/knkski/juju-helpers/internal/paths"
	"github.com/knkski/juju-helpers/internal/run"
)

const description = "Run kubectl against the current juju model's Kubernetes cluster."

type kubectlCommand struct {
	runner run.Runner
	args   []string
}

// run resolves the current model down to a kubeconfig and execs
// kubectl with it. Every kubectl flag and argument the caller gave is
// forwarded untouched.
func (c *kubectlCommand) run(ctx *cmd.Context) error {
	controller, model, err := juju.Whoami(ctx, c.runner)
	if err != nil {
		return errors.Trace(err)
	}
	if model == "" {
		return errors.Errorf("no model selected on controller %q, run `juju switch <model>` first", controller)
	}

	detail, err := juju.ShowModel(ctx, c.runner, model)
	if err != nil {
		return errors.Trace(err)
	}
	cloud, err := juju.ShowCloud(ctx, c.runner, detail.Cloud)
	if err != nil {
		return errors.Trace(err)
	}
	if !cloud.IsKubernetes() {
		return errors.NotSupportedf("model %q is on cloud type %q, kubectl", detail.Name, cloud.Type)
	}
	cred, err := juju.CloudCredential(ctx, c.runner, detail.Cloud, detail.Credential.Name)
	if err != nil {
		return errors.Trace(err)
	}

	config, err := kube.Config(controller, cloud, cred)
	if err != nil {
		return errors.Trace(err)
	}
	kubeconfig, err := kube.WriteTemp(config)
	if err != nil {
		return errors.Trace(err)
	}
	defer os.Remove(kubeconfig)

	args := []string{"--kubeconfig", kubeconfig}
	if !hasNamespaceFlag(c.args) {
		args = append(args, "-n", detail.ShortName)
	}
	args = append(args, c.args...)
	return errors.Trace(c.runner.Run(ctx, "kubectl", args...))
}

// hasNamespaceFlag reports whether the caller picked their own
// kubectl namespace, in which case the model's is not injected.
func hasNamespaceFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-n" || arg == "--namespace" || strings.HasPrefix(arg, "--namespace=") || strings.HasPrefix(arg, "-n=") {
			return true
		}
	}
	return false
}

func main() {
	args := os.Args[1:]
	// juju interrogates plugins with --description when listing them.
	if len(args) == 1 && args[0] == "--description" {
		fmt.Println(description)
		return
	}
	if config := os.Getenv(paths.JujuLoggingConfigEnvKey); config != "" {
		if err := loggo.ConfigureLoggers(config); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR %v\n", err)
			os.Exit(2)
		}
	}
	ctx, err := cmd.DefaultContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR %v\n", err)
		os.Exit(2)
	}

	command := &kubectlCommand{runner: run.DefaultRunner(), args: args}
	if err := command.run(ctx); err != nil {
		cmd.WriteError(ctx.Stderr, err)
		os.Exit(1)
	}
}
