// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"path/filepath"

	"github.com/juju/cmd/v4"
	"github.com/juju/cmd/v4/cmdtesting"
	jujutesting "github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/knkski/juju-helpers/internal/run/runtest"
)

type removeSuite struct {
	jujutesting.IsolationSuite

	recorder   *runtest.Recorder
	bundleFile string
}

var _ = gc.Suite(&removeSuite{})

func (s *removeSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)

	s.recorder = &runtest.Recorder{}
	s.bundleFile = filepath.Join(c.MkDir(), "bundle.yaml")
	writeFile(c, s.bundleFile, testBundle)
}

func (s *removeSuite) run(c *gc.C, args ...string) (*cmd.Context, error) {
	command := &removeCommand{runner: s.recorder}
	return cmdtesting.RunCommand(c, command, append([]string{"-b", s.bundleFile}, args...)...)
}

func (s *removeSuite) TestRemovesEveryApplication(c *gc.C) {
	_, err := s.run(c)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(s.recorder.CommandLines(), gc.DeepEquals, []string{
		"juju remove-application ambassador",
		"juju remove-application tf-serving",
	})
}

func (s *removeSuite) TestRemovesSubset(c *gc.C) {
	_, err := s.run(c, "-a", "tf-serving")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(s.recorder.CommandLines(), gc.DeepEquals, []string{
		"juju remove-application tf-serving",
	})
}

func (s *removeSuite) TestUnknownAppFails(c *gc.C) {
	_, err := s.run(c, "-a", "seldon")
	c.Assert(err, gc.ErrorMatches, `application "seldon".* not found`)
	c.Assert(s.recorder.Calls, gc.HasLen, 0)
}

func (s *removeSuite) TestRejectsPositionalArgs(c *gc.C) {
	err := cmdtesting.InitCommand(&removeCommand{}, []string{"ambassador"})
	c.Assert(err, gc.ErrorMatches, `unrecognized args: \["ambassador"\]`)
}
