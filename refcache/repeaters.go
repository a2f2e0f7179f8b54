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
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/hamnet/aprsbot/geo"
)

// Repeater is one entry of the repeatermap.de directory.
type Repeater struct {
	Callsign string
	Mode     string
	Band     string
	RxMHz    float64
	TxMHz    float64
	Lat      float64
	Lon      float64
	QTH      string
	Locator  string
	Remarks  string
}

// RepeaterIndex answers nearest-repeater queries with band/mode
// filters.
type RepeaterIndex struct {
	all []*Repeater
}

// rawDirectory mirrors the repeatermap.de API shape.
type rawDirectory struct {
	Relais []rawRepeater `json:"relais"`
}

type rawRepeater struct {
	ID      json.Number `json:"id"`
	Call    string      `json:"call"`
	Mode    string      `json:"mode"`
	Rx      float64     `json:"rx"`
	Tx      float64     `json:"tx"`
	Lat     float64     `json:"lat"`
	Lon     float64     `json:"lon"`
	QTH     string      `json:"qth"`
	Locator string      `json:"locator"`
	Remarks string      `json:"remarks"`
}

// bandEdges maps band names to MHz ranges, most specific first.
var bandEdges = []struct {
	name     string
	from, to float64
}{
	{"2200m", 0.13, 0.14},
	{"630m", 0.47, 0.48},
	{"160m", 1.8, 2.0},
	{"80m", 3.5, 4.0},
	{"60m", 5.0, 5.9},
	{"40m", 7.0, 7.3},
	{"30m", 10.0, 10.2},
	{"20m", 14.0, 14.4},
	{"17m", 18.0, 18.2},
	{"15m", 21.0, 22.0},
	{"12m", 24.0, 25.0},
	{"10m", 28.0, 30.0},
	{"6m", 50.0, 54.0},
	{"4m", 70.0, 71.0},
	{"2m", 144.0, 148.0},
	{"1.25m", 219.0, 225.0},
	{"70cm", 420.0, 450.0},
	{"33cm", 900.0, 930.0},
	{"23cm", 1200.0, 1300.0},
	{"13cm", 2300.0, 2500.0},
	{"9cm", 3300.0, 3500.0},
	{"6cm", 5600.0, 5900.0},
	{"5cm", 5600.0, 6000.0},
	{"3cm", 10000.0, 10500.0},
	{"2cm", 24000.0, 24300.0},
	{"6mm", 47000.0, 47200.0},
	{"4mm", 76000.0, 78200.0},
	{"2,5mm", 122000.0, 123000.0},
	{"2mm", 134000.0, 141000.0},
	{"1.2mm", 241000.0, 250000.0},
}

// BandName guesses the amateur band for a frequency in MHz.
func BandName(mhz float64) string {
	for _, b := range bandEdges {
		if mhz >= b.from && mhz <= b.to {
			return b.name
		}
	}
	return ""
}

// ParseRepeaters reads the repeatermap.de JSON directory. MMDVM
// hotspots are filtered out; entries without coordinates fall back to
// their Maidenhead locator.
func ParseRepeaters(r io.Reader) (*RepeaterIndex, error) {
	var raw rawDirectory
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	idx := &RepeaterIndex{}
	for _, e := range raw.Relais {
		if e.ID.String() == "" || strings.Contains(strings.ToLower(e.Remarks), "mmdvm") {
			continue
		}
		lat, lon := e.Lat, e.Lon
		if lat == 0 && lon == 0 && e.Locator != "" {
			var err error
			lat, lon, err = geo.FromMaidenhead(e.Locator)
			if err != nil {
				continue
			}
		}
		idx.all = append(idx.all, &Repeater{
			Callsign: e.Call,
			Mode:     strings.ToUpper(e.Mode),
			Band:     BandName(e.Rx),
			RxMHz:    e.Rx,
			TxMHz:    e.Tx,
			Lat:      lat,
			Lon:      lon,
			QTH:      e.QTH,
			Locator:  e.Locator,
			Remarks:  e.Remarks,
		})
	}
	return idx, nil
}

// NearbyRepeater pairs a directory entry with its distance from the
// query position.
type NearbyRepeater struct {
	*Repeater
	DistanceKm float64
	Bearing    float64
}

// Nearest returns the n closest repeaters matching the optional band
// and mode filters. Mode matching folds case; "" matches everything.
func (idx *RepeaterIndex) Nearest(lat, lon float64, band, mode string, n int) []NearbyRepeater {
	if idx == nil || n <= 0 {
		return nil
	}
	mode = strings.ToUpper(mode)

	var out []NearbyRepeater
	for _, rp := range idx.all {
		if band != "" && rp.Band != band {
			continue
		}
		if mode != "" && rp.Mode != mode {
			continue
		}
		out = append(out, NearbyRepeater{
			Repeater:   rp,
			DistanceKm: geo.Distance(lat, lon, rp.Lat, rp.Lon),
			Bearing:    geo.Bearing(lat, lon, rp.Lat, rp.Lon),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Len returns the number of directory entries.
func (idx *RepeaterIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.all)
}
