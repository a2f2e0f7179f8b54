/*
Copyright (c) the aprsbot authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package radiosonde tracks weather balloon probes through their
// aprs.fi object reports.
package radiosonde

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/hamnet/aprsbot/providers"
	"github.com/hamnet/aprsbot/providers/aprsfi"
)

// Phase of a balloon flight.
type Phase int

const (
	PhaseUnknown Phase = iota
	PhaseAscent
	PhaseDescent
)

func (p Phase) String() string {
	switch p {
	case PhaseAscent:
		return "ascending"
	case PhaseDescent:
		return "descending"
	default:
		return "unknown"
	}
}

// Status is the current state of a probe.
type Status struct {
	Callsign  string
	Lat       float64
	Lon       float64
	Altitude  float64 // meters
	ClimbRate float64 // m/s, negative when falling
	Phase     Phase
	// Profile estimates for the remaining flight.
	AscentRate    float64
	DescentRate   float64
	BurstAltitude float64
	LastSeen      time.Time
}

// PositionSource is the aprs.fi lookup the tracker needs.
type PositionSource interface {
	Position(ctx context.Context, callsign string) (*aprsfi.Position, error)
}

// Tracker resolves probe states.
type Tracker struct {
	src PositionSource
}

// New creates a Tracker on top of an aprs.fi client.
func New(src PositionSource) *Tracker {
	return &Tracker{src: src}
}

var climbRe = regexp.MustCompile(`(?i)Clb=(-?[0-9]\d*(?:\.\d+)?)`)

// climbFromComment extracts the Clb= rate probes embed in their
// beacon comment.
func climbFromComment(comment string) (float64, bool) {
	m := climbRe.FindStringSubmatch(comment)
	if m == nil {
		return 0, false
	}
	clmb, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, true
	}
	return clmb, true
}

// flightProfile estimates ascent rate, descent rate and burst
// altitude from the current climb rate and altitude. Standard burst
// altitudes step up in 5 km bands.
func flightProfile(clmb, altitude float64) (ascent, descent, burst float64) {
	if clmb >= 0 {
		ascent = clmb
		descent = 5
		switch {
		case altitude < 25000:
			burst = 25000
		case altitude < 30000:
			burst = 30000
		case altitude < 35000:
			burst = 35000
		default:
			burst = 38000
		}
		return ascent, descent, burst
	}
	return 0, -clmb, altitude + 1
}

// Status looks up a probe and derives its flight state.
func (t *Tracker) Status(ctx context.Context, callsign string) (*Status, error) {
	pos, err := t.src.Position(ctx, callsign)
	if err != nil {
		return nil, err
	}

	st := &Status{
		Callsign: pos.Callsign,
		Lat:      pos.Lat,
		Lon:      pos.Lon,
		Altitude: pos.Altitude,
		LastSeen: pos.LastTime,
	}
	clmb, ok := climbFromComment(pos.Comment)
	if !ok {
		return nil, providers.Errorf(providers.KindSemantic, "radiosonde",
			"%s reports no climb rate, not a probe?", pos.Callsign)
	}
	st.ClimbRate = clmb
	if clmb >= 0 {
		st.Phase = PhaseAscent
	} else {
		st.Phase = PhaseDescent
	}
	st.AscentRate, st.DescentRate, st.BurstAltitude = flightProfile(clmb, pos.Altitude)
	return st, nil
}
