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

// sunEquatorial returns the geocentric right ascension and declination
// of the sun in degrees (low-precision series).
func sunEquatorial(t time.Time) (raDeg, decDeg float64) {
	d := daysSinceJ2000(t)

	meanLon := normalizeDeg(280.459 + 0.98564736*d)
	meanAnom := normalizeDeg(357.529 + 0.98560028*d)
	eclLon := (meanLon + 1.915*math.Sin(meanAnom*deg) + 0.020*math.Sin(2*meanAnom*deg)) * deg

	obliquity := (23.439 - 0.00000036*d) * deg
	raDeg = math.Atan2(math.Cos(obliquity)*math.Sin(eclLon), math.Cos(eclLon)) / deg
	decDeg = math.Asin(math.Sin(obliquity)*math.Sin(eclLon)) / deg
	return normalizeDeg(raDeg), decDeg
}

// sunAltitude is the altitude of the sun above the horizon in degrees.
func sunAltitude(lat, lon float64, t time.Time) float64 {
	ra, dec := sunEquatorial(t)
	return altitudeDeg(ra, dec, lat, lon, t)
}

// sunDirectionECI is the unit vector from the earth's center toward
// the sun in the ECI frame.
func sunDirectionECI(t time.Time) (x, y, z float64) {
	ra, dec := sunEquatorial(t)
	raR, decR := ra*deg, dec*deg
	return math.Cos(decR) * math.Cos(raR), math.Cos(decR) * math.Sin(raR), math.Sin(decR)
}

const earthRadiusKm = 6371.0

// satSunlit reports whether a satellite at an ECI position (km) is
// outside the earth's shadow cylinder.
func satSunlit(x, y, z float64, t time.Time) bool {
	sx, sy, sz := sunDirectionECI(t)
	along := x*sx + y*sy + z*sz
	if along >= 0 {
		return true // on the sun side of the earth
	}
	px, py, pz := x-along*sx, y-along*sy, z-along*sz
	return math.Sqrt(px*px+py*py+pz*pz) > earthRadiusKm
}
