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
	"math"
	"time"
)

// Low-precision lunar ephemeris (truncated Meeus series). Good to a
// few arc minutes, which keeps rise and set times within a minute or
// two of the almanac values.

// moonEquatorial returns the geocentric right ascension and
// declination of the moon in degrees.
func moonEquatorial(t time.Time) (raDeg, decDeg float64) {
	d := daysSinceJ2000(t)

	meanLon := normalizeDeg(218.316 + 13.176396*d)
	meanAnom := normalizeDeg(134.963 + 13.064993*d)
	ascArg := normalizeDeg(93.272 + 13.229350*d)

	eclLon := (meanLon + 6.289*math.Sin(meanAnom*deg)) * deg
	eclLat := 5.128 * math.Sin(ascArg*deg) * deg

	obliquity := 23.4397 * deg
	sinLon := math.Sin(eclLon)
	raDeg = math.Atan2(sinLon*math.Cos(obliquity)-math.Tan(eclLat)*math.Sin(obliquity), math.Cos(eclLon)) / deg
	decDeg = math.Asin(math.Sin(eclLat)*math.Cos(obliquity)+math.Cos(eclLat)*math.Sin(obliquity)*sinLon) / deg
	return normalizeDeg(raDeg), decDeg
}

// moonAltitude is the apparent altitude of the moon for an observer,
// in degrees, roughly corrected for parallax.
func moonAltitude(lat, lon float64, t time.Time) float64 {
	ra, dec := moonEquatorial(t)
	// Horizontal parallax raises the rise/set threshold by about 0.95
	// degrees net of refraction; fold it into the altitude instead.
	return altitudeDeg(ra, dec, lat, lon, t) + 0.125
}

// moonRiseSet scans one calendar day for horizon crossings. A zero
// time means the moon does not cross the horizon that day.
func moonRiseSet(lat, lon float64, date time.Time) (rise, set time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	const step = 10 * time.Minute

	prev := moonAltitude(lat, lon, start)
	for t := start.Add(step); !t.After(start.Add(24 * time.Hour)); t = t.Add(step) {
		cur := moonAltitude(lat, lon, t)
		if prev < 0 && cur >= 0 && rise.IsZero() {
			rise = refineCrossing(lat, lon, t.Add(-step), t, true)
		}
		if prev >= 0 && cur < 0 && set.IsZero() {
			set = refineCrossing(lat, lon, t.Add(-step), t, false)
		}
		prev = cur
	}
	return rise, set
}

// refineCrossing bisects a horizon crossing down to a few seconds.
func refineCrossing(lat, lon float64, lo, hi time.Time, rising bool) time.Time {
	for hi.Sub(lo) > 5*time.Second {
		mid := lo.Add(hi.Sub(lo) / 2)
		above := moonAltitude(lat, lon, mid) >= 0
		if above == rising {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi.Truncate(time.Second)
}

// MoonPhase returns the illuminated fraction of the moon (0 to 1) and
// whether it is waxing.
func MoonPhase(t time.Time) (illuminated float64, waxing bool) {
	d := daysSinceJ2000(t)
	// Elongation of the moon from the sun.
	sunLon := normalizeDeg(280.459 + 0.98564736*d)
	sunAnom := normalizeDeg(357.529 + 0.98560028*d)
	sunEcl := sunLon + 1.915*math.Sin(sunAnom*deg)

	moonLon := normalizeDeg(218.316 + 13.176396*d)
	moonAnom := normalizeDeg(134.963 + 13.064993*d)
	moonEcl := moonLon + 6.289*math.Sin(moonAnom*deg)

	elong := normalizeDeg(moonEcl - sunEcl)
	illuminated = (1 - math.Cos(elong*deg)) / 2
	return illuminated, elong < 180
}
