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

package geo

import (
	"fmt"
	"math"
)

// WGS84 constants for the transverse Mercator projection.
const (
	utmK0 = 0.9996
	utmR  = 6378137.0
	utmE  = 0.00669438
)

var (
	utmE2  = utmE * utmE
	utmE3  = utmE2 * utmE
	utmEP2 = utmE / (1 - utmE)

	utmM1 = 1 - utmE/4 - 3*utmE2/64 - 5*utmE3/256
	utmM2 = 3*utmE/8 + 3*utmE2/32 + 45*utmE3/1024
	utmM3 = 15*utmE2/256 + 45*utmE3/1024
	utmM4 = 35 * utmE3 / 3072
)

const utmZoneLetters = "CDEFGHJKLMNPQRSTUVWXX"

// UTM holds a coordinate in Universal Transverse Mercator notation.
type UTM struct {
	ZoneNumber int
	ZoneLetter string
	Easting    int
	Northing   int
}

func (u UTM) String() string {
	return fmt.Sprintf("%d%s %d %d", u.ZoneNumber, u.ZoneLetter, u.Easting, u.Northing)
}

// utmZoneNumber returns the UTM zone, including the Norway and Svalbard
// exceptions.
func utmZoneNumber(lat, lon float64) int {
	if lat >= 56 && lat < 64 && lon >= 3 && lon < 12 {
		return 32
	}
	if lat >= 72 && lat <= 84 && lon >= 0 {
		switch {
		case lon < 9:
			return 31
		case lon < 21:
			return 33
		case lon < 33:
			return 35
		case lon < 42:
			return 37
		}
	}
	return int((lon+180)/6) + 1
}

func utmZoneLetter(lat float64) string {
	if lat < -80 || lat > 84 {
		return ""
	}
	return string(utmZoneLetters[int(lat+80)>>3])
}

// ToUTM converts a coordinate pair to UTM notation.
func ToUTM(lat, lon float64) UTM {
	zone := utmZoneNumber(lat, lon)
	letter := utmZoneLetter(lat)

	latRad := lat * math.Pi / 180
	latSin, latCos := math.Sincos(latRad)
	latTan := latSin / latCos
	t := latTan * latTan

	lonRad := lon * math.Pi / 180
	centralLon := float64((zone-1)*6-180+3) * math.Pi / 180

	n := utmR / math.Sqrt(1-utmE*latSin*latSin)
	c := utmEP2 * latCos * latCos

	a := latCos * (lonRad - centralLon)
	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	m := utmR * (utmM1*latRad -
		utmM2*math.Sin(2*latRad) +
		utmM3*math.Sin(4*latRad) -
		utmM4*math.Sin(6*latRad))

	easting := utmK0*n*(a+
		a3/6*(1-t+c)+
		a5/120*(5-18*t+t*t+72*c-58*utmEP2)) + 500000

	northing := utmK0 * (m + n*latTan*(a2/2+
		a4/24*(5-t+9*c+4*c*c)+
		a6/720*(61-58*t+t*t+600*c-330*utmEP2)))
	if lat < 0 {
		northing += 10000000
	}

	return UTM{
		ZoneNumber: zone,
		ZoneLetter: letter,
		Easting:    int(math.Round(easting)),
		Northing:   int(math.Round(northing)),
	}
}

const (
	mgrsColumns = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	mgrsRows    = "ABCDEFGHJKLMNPQRSTUV"
)

// ToMGRS converts a coordinate pair to the Military Grid Reference System
// notation with 1-meter precision, derived from the UTM projection.
func ToMGRS(lat, lon float64) string {
	u := ToUTM(lat, lon)

	setColumn := ((u.ZoneNumber - 1) % 3) * 8
	column := setColumn + u.Easting/100000 - 1

	row := u.Northing / 100000 % 20
	if u.ZoneNumber%2 == 0 {
		row = (row + 5) % 20
	}

	return fmt.Sprintf("%d%s%c%c%05d%05d",
		u.ZoneNumber, u.ZoneLetter,
		mgrsColumns[column%24], mgrsRows[row],
		u.Easting%100000, u.Northing%100000)
}
