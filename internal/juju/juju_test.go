// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package juju_test

import (
	"context"

	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/knkski/juju-helpers/internal/juju"
	"github.com/knkski/juju-helpers/internal/run/runtest"
)

type jujuSuite struct{}

var _ = gc.Suite(&jujuSuite{})

func (s *jujuSuite) TestDeployPassesExtraArgs(c *gc.C) {
	recorder := &runtest.Recorder{}
	err := juju.Deploy(context.Background(), recorder, "/tmp/bundle.yaml", []string{"--trust", "--map-machines=existing"})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(recorder.CommandLines(), gc.DeepEquals, []string{
		"juju deploy /tmp/bundle.yaml --trust --map-machines=existing",
	})
}

func (s *jujuSuite) TestRemoveApplication(c *gc.C) {
	recorder := &runtest.Recorder{}
	err := juju.RemoveApplication(context.Background(), recorder, "ambassador")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(recorder.CommandLines(), gc.DeepEquals, []string{
		"juju remove-application ambassador",
	})
}

func (s *jujuSuite) TestUpgradeCharmWithPath(c *gc.C) {
	recorder := &runtest.Recorder{}
	err := juju.UpgradeCharm(context.Background(), recorder, "tf-serving", juju.UpgradeArgs{Path: "/tmp/builds/tf-serving"})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(recorder.CommandLines(), gc.DeepEquals, []string{
		"juju upgrade-charm tf-serving --path /tmp/builds/tf-serving",
	})
}

func (s *jujuSuite) TestUpgradeCharmFromStore(c *gc.C) {
	recorder := &runtest.Recorder{}
	err := juju.UpgradeCharm(context.Background(), recorder, "ambassador", juju.UpgradeArgs{})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(recorder.CommandLines(), gc.DeepEquals, []string{
		"juju upgrade-charm ambassador",
	})
}

func (s *jujuSuite) TestWhoami(c *gc.C) {
	recorder := &runtest.Recorder{}
	recorder.SetOutput("juju switch", "mk8s:admin/kubeflow\n")

	controller, model, err := juju.Whoami(context.Background(), recorder)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(controller, gc.Equals, "mk8s")
	c.Assert(model, gc.Equals, "admin/kubeflow")
}

func (s *jujuSuite) TestWhoamiNoModel(c *gc.C) {
	recorder := &runtest.Recorder{}
	recorder.SetOutput("juju switch", "mk8s\n")

	controller, model, err := juju.Whoami(context.Background(), recorder)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(controller, gc.Equals, "mk8s")
	c.Assert(model, gc.Equals, "")
}

func (s *jujuSuite) TestWhoamiNothingSelected(c *gc.C) {
	recorder := &runtest.Recorder{}
	recorder.SetOutput("juju switch", "\n")

	_, _, err := juju.Whoami(context.Background(), recorder)
	c.Assert(err, gc.ErrorMatches, "no controller selected.*")
}
