// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/juju/errors"
	jujutesting "github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/knkski/juju-helpers/internal/charm"
	"github.com/knkski/juju-helpers/internal/paths"
	"github.com/knkski/juju-helpers/internal/run/runtest"
)

type sourceSuite struct {
	jujutesting.IsolationSuite
}

var _ = gc.Suite(&sourceSuite{})

func (s *sourceSuite) writeSource(c *gc.C, meta string) string {
	dir := c.MkDir()
	err := os.WriteFile(filepath.Join(dir, "metadata.yaml"), []byte(meta), 0644)
	c.Assert(err, jc.ErrorIsNil)
	return dir
}

func (s *sourceSuite) TestReadSource(c *gc.C) {
	dir := s.writeSource(c, "name: foo\nsummary: a charm\n")
	src, err := charm.ReadSource(dir)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(src.Path, gc.Equals, dir)
	c.Assert(src.Meta.Name, gc.Equals, "foo")
}

func (s *sourceSuite) TestReadSourceMissing(c *gc.C) {
	_, err := charm.ReadSource(c.MkDir())
	c.Assert(err, jc.Satisfies, errors.IsNotFound)
}

func (s *sourceSuite) TestBuildInvokesCharmTools(c *gc.C) {
	s.PatchEnvironment(paths.CharmBuildDirEnvKey, "/tmp/builds")
	dir := s.writeSource(c, "name: foo\n")
	src, err := charm.ReadSource(dir)
	c.Assert(err, jc.ErrorIsNil)

	recorder := &runtest.Recorder{}
	built, err := src.Build(context.Background(), recorder, "foo-app")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(built, gc.Equals, filepath.Join("/tmp/builds", "foo"))
	c.Assert(recorder.CommandLines(), gc.DeepEquals, []string{
		"charm build " + dir,
	})
}

func (s *sourceSuite) TestResolveSourcePathRelative(c *gc.C) {
	got := charm.ResolveSourcePath("/bundles/kubeflow/bundle.yaml", "./charms/ambassador")
	c.Assert(got, gc.Equals, filepath.Join("/bundles/kubeflow", "charms/ambassador"))
}

func (s *sourceSuite) TestResolveSourcePathFromSourceDir(c *gc.C) {
	s.PatchEnvironment(paths.CharmSourceDirEnvKey, "/src/charms")
	got := charm.ResolveSourcePath("/bundles/kubeflow/bundle.yaml", "ambassador")
	c.Assert(got, gc.Equals, filepath.Join("/src/charms", "ambassador"))
}
