// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package juju

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/retry"

	"github.com/knkski/juju-helpers/internal/run"
)

// StatusValue is one status entry of `juju status --format=json`.
type StatusValue struct {
	Current string `json:"current"`
	Message string `json:"message"`
}

// UnitStatus is the per-unit slice of the status document.
type UnitStatus struct {
	AgentStatus    StatusValue `json:"juju-status"`
	WorkloadStatus StatusValue `json:"workload-status"`
}

// ApplicationStatus is the per-application slice of the status
// document.
type ApplicationStatus struct {
	Status StatusValue           `json:"application-status"`
	Units  map[string]UnitStatus `json:"units"`
}

// Status is the subset of the juju status document the plugins need.
type Status struct {
	Applications map[string]ApplicationStatus `json:"applications"`
}

// GetStatus fetches and parses the current model's status.
func GetStatus(ctx context.Context, runner run.Runner) (*Status, error) {
	out, err := runner.Output(ctx, "juju", "status", "--format=json")
	if err != nil {
		return nil, errors.Annotate(err, "fetching model status")
	}
	var status Status
	if err := json.Unmarshal(out, &status); err != nil {
		return nil, errors.Annotate(err, "parsing model status")
	}
	return &status, nil
}

// busyUnits returns the units still settling: agent not yet idle, or
// workload mid-maintenance. A workload in error is reported
// separately since waiting won't fix it.
func (s *Status) busyUnits() (busy []string, inError []string) {
	for _, appName := range sortedAppNames(s.Applications) {
		app := s.Applications[appName]
		for unitName, unit := range app.Units {
			switch {
			case unit.WorkloadStatus.Current == "error":
				inError = append(inError, unitName)
			case unit.AgentStatus.Current != "idle",
				unit.WorkloadStatus.Current == "maintenance":
				busy = append(busy, unitName)
			}
		}
	}
	return busy, inError
}

// errUnitsInError is fatal for the wait loop.
type errUnitsInError struct {
	units []string
}

func (e *errUnitsInError) Error() string {
	return "units in error state: " + joinNames(e.units)
}

// WaitForStability polls the model until every unit agent is idle and
// no workload is in error, or until timeout elapses. A zero timeout
// returns immediately.
func WaitForStability(ctx context.Context, runner run.Runner, clk clock.Clock, timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}
	err := retry.Call(retry.CallArgs{
		Clock:       clk,
		Delay:       5 * time.Second,
		MaxDuration: timeout,
		Stop:        ctx.Done(),
		IsFatalError: func(err error) bool {
			_, fatal := errors.Cause(err).(*errUnitsInError)
			return fatal
		},
		Func: func() error {
			status, err := GetStatus(ctx, runner)
			if err != nil {
				return errors.Trace(err)
			}
			busy, inError := status.busyUnits()
			if len(inError) > 0 {
				return &errUnitsInError{units: inError}
			}
			if len(busy) > 0 {
				logger.Debugf("waiting for units to settle: %s", joinNames(busy))
				return errors.Errorf("units still settling: %s", joinNames(busy))
			}
			return nil
		},
	})
	return errors.Annotate(err, "waiting for model to stabilize")
}

func sortedAppNames(apps map[string]ApplicationStatus) []string {
	names := make([]string, 0, len(apps))
	for name := range apps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func joinNames(names []string) string {
	sort.Strings(names)
	return strings.Join(names, ", ")
}
