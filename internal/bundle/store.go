// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package bundle

import (
	"context"

	"github.com/juju/errors"
	"gopkg.in/yaml.v2"

	"github.com/knkski/juju-helpers/internal/charm"
	"github.com/knkski/juju-helpers/internal/run"
)

// ReadStore fetches a bundle's released revision and content from the
// charm store for the given channel. The returned bundle has no Path,
// so relative charm sources cannot be resolved from it.
func ReadStore(ctx context.Context, runner run.Runner, name string, channel charm.Channel) (int, *Bundle, error) {
	out, err := runner.Output(ctx, "charm", "show", name,
		"id", "bundle-metadata", "--channel", channel.String(), "--format", "yaml")
	if err != nil {
		return -1, nil, errors.Annotatef(err, "fetching bundle %q from channel %q", name, channel)
	}

	var result struct {
		ID struct {
			Revision int `yaml:"Revision"`
		} `yaml:"id"`
		Metadata Data `yaml:"bundle-metadata"`
	}
	if err := yaml.Unmarshal(out, &result); err != nil {
		return -1, nil, errors.Annotatef(err, "parsing charm show output for %q", name)
	}
	if len(result.Metadata.Applications) == 0 {
		return -1, nil, errors.NotFoundf("bundle metadata for %q in channel %q", name, channel)
	}
	return result.ID.Revision, &Bundle{Data: result.Metadata}, nil
}
