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

package celestial

import (
	"fmt"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// DefaultMinElevation is the elevation in degrees a satellite must
// rise above for a pass to count.
const DefaultMinElevation = 10.0

// Pass is one satellite pass over an observer.
type Pass struct {
	Rise         time.Time
	RiseAzimuth  float64 // degrees
	Culmination  time.Time
	MaxElevation float64 // degrees
	Set          time.Time
	SetAzimuth   float64 // degrees
	Visible      bool    // satellite sunlit while the observer is in twilight or darkness
}

// Observer is a ground position for pass predictions.
type Observer struct {
	Lat float64 // degrees
	Lon float64 // degrees
	Alt float64 // meters above sea level
}

const passStep = 30 * time.Second

// Passes runs SGP4 over a time window and returns the passes exceeding
// minElevation, in chronological order, at most max of them.
func Passes(line1, line2 string, obs Observer, start time.Time, window time.Duration, minElevation float64, max int) ([]Pass, error) {
	if len(line1) < 69 || len(line2) < 69 || line1[0] != '1' || line2[0] != '2' {
		return nil, fmt.Errorf("malformed tle")
	}
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	if minElevation <= 0 {
		minElevation = DefaultMinElevation
	}

	coords := satellite.LatLong{
		Latitude:  obs.Lat * deg,
		Longitude: obs.Lon * deg,
	}
	altKm := obs.Alt / 1000

	var passes []Pass
	var cur *Pass
	var curVisible bool
	start = start.UTC()

	for t := start; !t.After(start.Add(window)); t = t.Add(passStep) {
		el, az, eci := observe(sat, coords, altKm, t)
		above := el >= minElevation

		switch {
		case above && cur == nil:
			cur = &Pass{Rise: t, RiseAzimuth: az, Culmination: t, MaxElevation: el}
			curVisible = false
		case above:
			if el > cur.MaxElevation {
				cur.MaxElevation = el
				cur.Culmination = t
			}
		case cur != nil:
			cur.Set = t
			cur.SetAzimuth = az
			cur.Visible = curVisible
			passes = append(passes, *cur)
			cur = nil
			if max > 0 && len(passes) >= max {
				return passes, nil
			}
		}
		if cur != nil && !curVisible {
			if sunAltitude(obs.Lat, obs.Lon, t) < -6 && satSunlit(eci.X, eci.Y, eci.Z, t) {
				curVisible = true
			}
		}
	}
	// a pass still in progress at the end of the window is dropped
	return passes, nil
}

// VisiblePasses filters Passes down to the ones an observer could see.
func VisiblePasses(line1, line2 string, obs Observer, start time.Time, window time.Duration, minElevation float64, max int) ([]Pass, error) {
	all, err := Passes(line1, line2, obs, start, window, minElevation, 0)
	if err != nil {
		return nil, err
	}
	visible := make([]Pass, 0, len(all))
	for _, p := range all {
		if p.Visible {
			visible = append(visible, p)
			if max > 0 && len(visible) >= max {
				break
			}
		}
	}
	return visible, nil
}

// observe propagates the satellite to an instant and returns elevation
// and azimuth in degrees plus the ECI position.
func observe(sat satellite.Satellite, coords satellite.LatLong, altKm float64, t time.Time) (el, az float64, eci satellite.Vector3) {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	pos, _ := satellite.Propagate(sat, y, int(mo), d, h, mi, s)
	jday := satellite.JDay(y, int(mo), d, h, mi, s)
	la := satellite.ECIToLookAngles(pos, coords, altKm, jday)
	return la.El / deg, normalizeDeg(la.Az / deg), pos
}
