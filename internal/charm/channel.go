// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
)

// Risk describes the stability grade of a store channel.
type Risk string

const (
	Stable    Risk = "stable"
	Candidate Risk = "candidate"
	Beta      Risk = "beta"
	Edge      Risk = "edge"
)

// Risks lists the valid channel risks, most to least stable.
var Risks = []Risk{
	Stable,
	Candidate,
	Beta,
	Edge,
}

func isRisk(potential string) bool {
	for _, risk := range Risks {
		if potential == string(risk) {
			return true
		}
	}
	return false
}

// Channel identifies a charm store channel as <track>/<risk>. Risk
// alone is the common case for the bundle plugin (publish releases
// to edge, promote moves between risks).
type Channel struct {
	Track string
	Risk  Risk
}

// ParseChannel parses a string representing a store channel.
func ParseChannel(s string) (Channel, error) {
	if s == "" {
		return Channel{}, errors.NotValidf("empty channel")
	}

	p := strings.Split(s, "/")
	switch len(p) {
	case 1:
		if isRisk(p[0]) {
			return Channel{Risk: Risk(p[0])}, nil
		}
		return Channel{Track: p[0]}, nil
	case 2:
		if !isRisk(p[1]) {
			return Channel{}, errors.NotValidf("risk in channel %q", s)
		}
		if p[0] == "" {
			return Channel{}, errors.NotValidf("track in channel %q", s)
		}
		return Channel{Track: p[0], Risk: Risk(p[1])}, nil
	default:
		return Channel{}, errors.Errorf("channel is malformed and has too many components %q", s)
	}
}

// Normalize returns the channel with an empty risk lifted to stable.
func (ch Channel) Normalize() Channel {
	risk := ch.Risk
	if risk == "" {
		risk = Stable
	}
	return Channel{Track: ch.Track, Risk: risk}
}

func (ch Channel) String() string {
	path := string(ch.Risk)
	if track := ch.Track; track != "" {
		path = fmt.Sprintf("%s/%s", track, path)
	}
	return path
}
