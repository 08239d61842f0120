// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package charm models the charm-side concepts the bundle plugin
// works with: store channels and URLs, source trees and the charm
// store operations performed on them.
package charm

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/knkski/juju-helpers/internal/paths"
	"github.com/knkski/juju-helpers/internal/run"
)

var logger = loggo.GetLogger("juju-helpers.charm")

// Source is a charm source tree on disk, identified by its
// metadata.yaml.
type Source struct {
	// Path is the root of the source tree.
	Path string

	// Meta is the parsed metadata.yaml.
	Meta *Metadata
}

// ReadSource loads the charm source tree rooted at path.
func ReadSource(path string) (*Source, error) {
	f, err := os.Open(filepath.Join(path, "metadata.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundf("charm source at %q", path)
		}
		return nil, errors.Trace(err)
	}
	defer f.Close()

	meta, err := ReadMetadata(f)
	if err != nil {
		return nil, errors.Annotatef(err, "charm source at %q", path)
	}
	return &Source{Path: path, Meta: meta}, nil
}

// ResolveSourcePath turns a bundle application's `source:` value into
// a charm source directory. Values starting with "." are relative to
// the bundle file; anything else lives under the charm source dir.
func ResolveSourcePath(bundlePath, source string) string {
	if strings.HasPrefix(source, ".") {
		return filepath.Join(filepath.Dir(bundlePath), source)
	}
	return filepath.Join(paths.CharmSourceDir(), source)
}

// Build builds the source tree with the charm tooling and returns the
// path of the built charm. charm-tools writes its output under
// $CHARM_BUILD_DIR (falling back to $JUJU_REPOSITORY/builds), which is
// the same resolution CharmBuildDir performs.
func (s *Source) Build(ctx context.Context, runner run.Runner, appName string) (string, error) {
	logger.Infof("building charm %q for application %q", s.Meta.Name, appName)
	if err := runner.Run(ctx, "charm", "build", s.Path); err != nil {
		return "", errors.Annotatef(err, "building charm for application %q", appName)
	}
	return filepath.Join(paths.CharmBuildDir(), s.Meta.Name), nil
}
