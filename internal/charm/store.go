// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm

import (
	"context"
	"fmt"
	"sort"

	"github.com/juju/errors"
	"gopkg.in/yaml.v2"

	"github.com/knkski/juju-helpers/internal/run"
)

// Login ensures the charm tooling has a store session, so that later
// push operations don't each spawn a browser window.
func Login(ctx context.Context, runner run.Runner) error {
	return errors.Annotate(runner.Run(ctx, "charm", "login"), "charm store login")
}

// Push uploads the charm or bundle in dir to the store under csURL,
// attaching the given resources, and returns the revision URL the
// store assigned.
func Push(ctx context.Context, runner run.Runner, dir, csURL string, resources map[string]string) (*URL, error) {
	args := []string{"push", dir, csURL}
	for _, name := range sortedKeys(resources) {
		args = append(args, "--resource", fmt.Sprintf("%s=%s", name, resources[name]))
	}
	out, err := runner.Output(ctx, "charm", args...)
	if err != nil {
		return nil, errors.Annotatef(err, "pushing %q to %q", dir, csURL)
	}

	// `charm push` reports the assigned revision as a "url:" line.
	var result struct {
		URL string `yaml:"url"`
	}
	if err := yaml.Unmarshal(out, &result); err != nil || result.URL == "" {
		return nil, errors.Errorf("cannot find revision URL in charm push output: %q", string(out))
	}
	revURL, err := ParseURL(result.URL)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return revURL, nil
}

// Release releases an exact store revision to the given channel.
func Release(ctx context.Context, runner run.Runner, revURL string, channel Channel) error {
	err := runner.Run(ctx, "charm", "release", revURL, "--channel", channel.String())
	return errors.Annotatef(err, "releasing %q to %q", revURL, channel)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
