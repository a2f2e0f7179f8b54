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
	"strings"
)

// ToMaidenhead converts a coordinate pair to a 6-character grid locator.
func ToMaidenhead(lat, lon float64) string {
	lon += 180
	lat += 90

	a := byte('A' + int(lon/20))
	b := byte('A' + int(lat/10))
	c := byte('0' + int(math.Mod(lon, 20)/2))
	d := byte('0' + int(math.Mod(lat, 10)))
	e := byte('a' + int(math.Mod(lon, 2)*12))
	f := byte('a' + int(math.Mod(lat, 1)*24))

	return string([]byte{a, b, c, d, e, f})
}

// FromMaidenhead converts a 4- or 6-character grid locator to the lat/lon
// of the locator's center.
func FromMaidenhead(locator string) (lat, lon float64, err error) {
	loc := strings.ToUpper(locator)
	if len(loc) != 4 && len(loc) != 6 {
		return 0, 0, fmt.Errorf("invalid locator %q", locator)
	}
	if loc[0] < 'A' || loc[0] > 'R' || loc[1] < 'A' || loc[1] > 'R' ||
		loc[2] < '0' || loc[2] > '9' || loc[3] < '0' || loc[3] > '9' {
		return 0, 0, fmt.Errorf("invalid locator %q", locator)
	}

	lon = float64(loc[0]-'A')*20 + float64(loc[2]-'0')*2
	lat = float64(loc[1]-'A')*10 + float64(loc[3]-'0')

	if len(loc) == 6 {
		if loc[4] < 'A' || loc[4] > 'X' || loc[5] < 'A' || loc[5] > 'X' {
			return 0, 0, fmt.Errorf("invalid locator %q", locator)
		}
		lon += float64(loc[4]-'A') * 2.0 / 24
		lat += float64(loc[5]-'A') * 1.0 / 24
		lon += 1.0 / 24
		lat += 0.5 / 24
	} else {
		lon += 1
		lat += 0.5
	}

	return lat - 90, lon - 180, nil
}
