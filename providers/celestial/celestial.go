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

// Package celestial computes sun, moon and satellite events for an
// observer position. Everything here is pure computation, no network.
package celestial

import (
	"math"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// RiseSetTimes holds the next sun and moon events within one day of
// the requested date. Zero times mean the event does not occur (polar
// day or night, or the moon staying above or below the horizon).
type RiseSetTimes struct {
	Sunrise  time.Time
	Sunset   time.Time
	Moonrise time.Time
	Moonset  time.Time
}

// RiseSet computes sun and moon rise and set for a calendar day at an
// observer position. All times are UTC.
func RiseSet(lat, lon float64, date time.Time) RiseSetTimes {
	date = date.UTC()
	var rs RiseSetTimes
	rs.Sunrise, rs.Sunset = sunrise.SunriseSunset(lat, lon, date.Year(), date.Month(), date.Day())
	rs.Moonrise, rs.Moonset = moonRiseSet(lat, lon, date)
	return rs
}

const deg = math.Pi / 180

// normalizeDeg wraps an angle into [0, 360).
func normalizeDeg(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// daysSinceJ2000 returns fractional days since the J2000.0 epoch.
func daysSinceJ2000(t time.Time) float64 {
	return t.Sub(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)).Hours() / 24
}

// gmstDeg returns Greenwich mean sidereal time in degrees.
func gmstDeg(t time.Time) float64 {
	d := daysSinceJ2000(t)
	return normalizeDeg(280.46061837 + 360.98564736629*d)
}

// altitudeDeg converts equatorial coordinates to the altitude above
// the horizon for an observer.
func altitudeDeg(raDeg, decDeg, lat, lon float64, t time.Time) float64 {
	ha := (gmstDeg(t) + lon - raDeg) * deg
	latR := lat * deg
	decR := decDeg * deg
	sinAlt := math.Sin(latR)*math.Sin(decR) + math.Cos(latR)*math.Cos(decR)*math.Cos(ha)
	return math.Asin(sinAlt) / deg
}
