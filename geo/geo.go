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

/*
Package geo provides the pure geodesic helpers used when formatting
position reports: Maidenhead grid, DMS, UTM and MGRS notations, plus
great-circle distance and bearing.
*/
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Unit conversion factors.
const (
	KmPerMile    = 1.609344
	FeetPerMeter = 3.28084
)

// Distance returns the great-circle distance between two points in km.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	return orbgeo.DistanceHaversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2}) / 1000.0
}

// Bearing returns the initial bearing from point 1 to point 2 in degrees,
// normalized to 0..360.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	b := orbgeo.Bearing(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
	if b < 0 {
		b += 360
	}
	return b
}

// ToDMS formats one coordinate axis as degrees/minutes/seconds.
// axis is "lat" or "lon" and selects the hemisphere letters.
func ToDMS(value float64, axis string) string {
	hemi := "N"
	if axis == "lon" {
		hemi = "E"
		if value < 0 {
			hemi = "W"
		}
	} else if value < 0 {
		hemi = "S"
	}
	value = math.Abs(value)
	deg := int(value)
	minf := (value - float64(deg)) * 60
	min := int(minf)
	sec := (minf - float64(min)) * 60
	return fmt.Sprintf("%02d.%02d'%05.2f\"%s", deg, min, sec, hemi)
}
