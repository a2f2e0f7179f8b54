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

package refcache

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/hamnet/aprsbot/geo"
)

// Airport is one entry of the aviationweather station catalog.
type Airport struct {
	ICAO  string
	IATA  string
	Name  string
	Lat   float64
	Lon   float64
	Metar bool
}

// AirportIndex answers ICAO/IATA lookups and nearest-airport queries.
type AirportIndex struct {
	byICAO map[string]*Airport
	byIATA map[string]*Airport
	all    []*Airport
}

// ParseStations reads the fixed-column stations.txt catalog. Comment
// lines start with '!'; column group headers repeat the "CD  STATION"
// banner. Coordinates are whole degrees + minutes.
func ParseStations(r io.Reader) (*AirportIndex, error) {
	idx := &AirportIndex{
		byICAO: make(map[string]*Airport),
		byIATA: make(map[string]*Airport),
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 63 || line[0] == '!' || strings.HasPrefix(line, "CD  STATION") {
			continue
		}
		icao := strings.TrimSpace(line[20:24])
		if icao == "" {
			continue
		}
		lat, ok1 := parseDegMin(line[39:41], line[42:44], line[44:45], "S")
		lon, ok2 := parseDegMin(line[47:50], line[51:53], line[53:54], "W")
		if !ok1 || !ok2 {
			continue
		}
		metar := line[62:63]
		a := &Airport{
			ICAO:  icao,
			IATA:  strings.TrimSpace(line[26:29]),
			Name:  strings.TrimSpace(line[3:19]),
			Lat:   lat,
			Lon:   lon,
			Metar: metar == "X" || metar == "Z",
		}
		idx.all = append(idx.all, a)
		idx.byICAO[a.ICAO] = a
		if a.IATA != "" {
			idx.byIATA[a.IATA] = a
		}
	}
	return idx, scanner.Err()
}

func parseDegMin(deg, min, hemi, negative string) (float64, bool) {
	d, err := strconv.Atoi(strings.TrimSpace(deg))
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(min))
	if err != nil {
		return 0, false
	}
	v := float64(d) + float64(m)/60
	if hemi == negative {
		v = -v
	}
	return v, true
}

// ByICAO returns the airport for an ICAO code, nil if unknown.
func (idx *AirportIndex) ByICAO(code string) *Airport {
	if idx == nil {
		return nil
	}
	return idx.byICAO[strings.ToUpper(code)]
}

// ByIATA returns the airport for an IATA code, nil if unknown.
func (idx *AirportIndex) ByIATA(code string) *Airport {
	if idx == nil {
		return nil
	}
	return idx.byIATA[strings.ToUpper(code)]
}

// NearestMetar returns the closest METAR-capable airport to the given
// position, nil when the index is empty.
func (idx *AirportIndex) NearestMetar(lat, lon float64) *Airport {
	if idx == nil {
		return nil
	}
	var best *Airport
	bestDist := 0.0
	for _, a := range idx.all {
		if !a.Metar {
			continue
		}
		d := geo.Distance(lat, lon, a.Lat, a.Lon)
		if best == nil || d < bestDist {
			best, bestDist = a, d
		}
	}
	return best
}

// Len returns the number of catalog entries.
func (idx *AirportIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.all)
}
