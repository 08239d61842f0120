// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package juju_test

import (
	"context"
	"time"

	"github.com/juju/clock/testclock"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/knkski/juju-helpers/internal/juju"
	"github.com/knkski/juju-helpers/internal/run/runtest"
)

type statusSuite struct{}

var _ = gc.Suite(&statusSuite{})

const settledStatus = `{
  "applications": {
    "ambassador": {
      "application-status": {"current": "active"},
      "units": {
        "ambassador/0": {
          "juju-status": {"current": "idle"},
          "workload-status": {"current": "active"}
        }
      }
    }
  }
}`

const busyStatus = `{
  "applications": {
    "ambassador": {
      "units": {
        "ambassador/0": {
          "juju-status": {"current": "executing"},
          "workload-status": {"current": "maintenance"}
        }
      }
    }
  }
}`

const erroredStatus = `{
  "applications": {
    "ambassador": {
      "units": {
        "ambassador/0": {
          "juju-status": {"current": "idle"},
          "workload-status": {"current": "error", "message": "hook failed"}
        }
      }
    }
  }
}`

func (s *statusSuite) TestGetStatus(c *gc.C) {
	recorder := &runtest.Recorder{}
	recorder.SetOutput("juju status", settledStatus)

	status, err := juju.GetStatus(context.Background(), recorder)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(status.Applications, gc.HasLen, 1)
	unit := status.Applications["ambassador"].Units["ambassador/0"]
	c.Assert(unit.AgentStatus.Current, gc.Equals, "idle")
	c.Assert(unit.WorkloadStatus.Current, gc.Equals, "active")
	c.Assert(recorder.CommandLines(), gc.DeepEquals, []string{
		"juju status --format=json",
	})
}

func (s *statusSuite) TestWaitForStabilitySettled(c *gc.C) {
	recorder := &runtest.Recorder{}
	recorder.SetOutput("juju status", settledStatus)

	clk := testclock.NewDilatedWallClock(time.Millisecond)
	err := juju.WaitForStability(context.Background(), recorder, clk, time.Minute)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(recorder.Calls, gc.HasLen, 1)
}

func (s *statusSuite) TestWaitForStabilityRetriesUntilSettled(c *gc.C) {
	recorder := &runtest.Recorder{}
	recorder.SetOutput("juju status", busyStatus)
	recorder.SetOutput("juju status", settledStatus)

	clk := testclock.NewDilatedWallClock(time.Millisecond)
	err := juju.WaitForStability(context.Background(), recorder, clk, time.Minute)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(recorder.Calls, gc.HasLen, 2)
}

func (s *statusSuite) TestWaitForStabilityUnitErrorIsFatal(c *gc.C) {
	recorder := &runtest.Recorder{}
	recorder.SetOutput("juju status", erroredStatus)

	clk := testclock.NewDilatedWallClock(time.Millisecond)
	err := juju.WaitForStability(context.Background(), recorder, clk, time.Minute)
	c.Assert(err, gc.ErrorMatches, ".*units in error state: ambassador/0")
	c.Assert(recorder.Calls, gc.HasLen, 1)
}

func (s *statusSuite) TestWaitForStabilityZeroTimeoutSkips(c *gc.C) {
	recorder := &runtest.Recorder{}
	err := juju.WaitForStability(context.Background(), recorder, testclock.NewDilatedWallClock(time.Millisecond), 0)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(recorder.Calls, gc.HasLen, 0)
}
