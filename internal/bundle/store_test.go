// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package bundle_test

import (
	"context"

	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/knkski/juju-helpers/internal/bundle"
	"github.com/knkski/juju-helpers/internal/charm"
	"github.com/knkski/juju-helpers/internal/run/runtest"
)

type storeSuite struct{}

var _ = gc.Suite(&storeSuite{})

const showOutput = `
id:
  Id: cs:~knkski/bundle/kubeflow-40
  Revision: 40
bundle-metadata:
  applications:
    ambassador:
      charm: cs:~knkski/ambassador-3
      source: ./charms/ambassador
    tf-serving:
      charm: cs:~knkski/tf-serving-7
`

func (s *storeSuite) TestReadStore(c *gc.C) {
	recorder := &runtest.Recorder{}
	recorder.SetOutput("charm show", showOutput)

	rev, b, err := bundle.ReadStore(context.Background(), recorder, "kubeflow", charm.Channel{Risk: charm.Edge})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(rev, gc.Equals, 40)
	c.Assert(b.Path, gc.Equals, "")
	c.Assert(b.Applications, gc.HasLen, 2)
	c.Assert(b.Applications["ambassador"].Source, gc.Equals, "./charms/ambassador")
	c.Assert(recorder.CommandLines(), gc.DeepEquals, []string{
		"charm show kubeflow id bundle-metadata --channel edge --format yaml",
	})
}

func (s *storeSuite) TestReadStoreNoMetadata(c *gc.C) {
	recorder := &runtest.Recorder{}
	recorder.SetOutput("charm show", "id:\n  Revision: 3\n")

	_, _, err := bundle.ReadStore(context.Background(), recorder, "kubeflow", charm.Channel{Risk: charm.Edge})
	c.Assert(err, jc.Satisfies, errors.IsNotFound)
}

func (s *storeSuite) TestReadStoreCommandFails(c *gc.C) {
	recorder := &runtest.Recorder{}
	recorder.SetError("charm show", errors.New("no such bundle"))

	_, _, err := bundle.ReadStore(context.Background(), recorder, "kubeflow", charm.Channel{Risk: charm.Edge})
	c.Assert(err, gc.ErrorMatches, `fetching bundle "kubeflow" from channel "edge": no such bundle`)
}
