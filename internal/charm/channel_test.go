// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm_test

import (
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/knkski/juju-helpers/internal/charm"
)

type channelSuite struct{}

var _ = gc.Suite(&channelSuite{})

func (s *channelSuite) TestParseRiskOnly(c *gc.C) {
	ch, err := charm.ParseChannel("edge")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(ch, gc.DeepEquals, charm.Channel{Risk: charm.Edge})
}

func (s *channelSuite) TestParseTrackOnly(c *gc.C) {
	ch, err := charm.ParseChannel("1.0")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(ch, gc.DeepEquals, charm.Channel{Track: "1.0"})
}

func (s *channelSuite) TestParseTrackAndRisk(c *gc.C) {
	ch, err := charm.ParseChannel("1.0/beta")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(ch, gc.DeepEquals, charm.Channel{Track: "1.0", Risk: charm.Beta})
}

func (s *channelSuite) TestParseInvalidRisk(c *gc.C) {
	_, err := charm.ParseChannel("1.0/nope")
	c.Assert(err, gc.ErrorMatches, `risk in channel "1.0/nope" not valid`)

	_, err = charm.ParseChannel("candidate/hotfix")
	c.Assert(err, gc.ErrorMatches, `risk in channel "candidate/hotfix" not valid`)
}

func (s *channelSuite) TestParseEmptyComponents(c *gc.C) {
	_, err := charm.ParseChannel("")
	c.Assert(err, gc.ErrorMatches, `empty channel not valid`)

	_, err = charm.ParseChannel("/stable")
	c.Assert(err, gc.ErrorMatches, `track in channel "/stable" not valid`)
}

func (s *channelSuite) TestParseTooManyComponents(c *gc.C) {
	_, err := charm.ParseChannel("1.0/stable/hotfix")
	c.Assert(err, gc.ErrorMatches, `channel is malformed and has too many components "1.0/stable/hotfix"`)
}

func (s *channelSuite) TestNormalize(c *gc.C) {
	ch := charm.Channel{Track: "1.0"}.Normalize()
	c.Assert(ch, gc.DeepEquals, charm.Channel{Track: "1.0", Risk: charm.Stable})

	ch = charm.Channel{Risk: charm.Edge}.Normalize()
	c.Assert(ch, gc.DeepEquals, charm.Channel{Risk: charm.Edge})
}

func (s *channelSuite) TestString(c *gc.C) {
	c.Assert(charm.Channel{Risk: charm.Edge}.String(), gc.Equals, "edge")
	c.Assert(charm.Channel{Track: "1.0", Risk: charm.Edge}.String(), gc.Equals, "1.0/edge")
}
