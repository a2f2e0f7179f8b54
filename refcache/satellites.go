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
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Frequency is one transponder entry for a satellite.
type Frequency struct {
	Uplink   string
	Downlink string
	Mode     string
}

// Satellite couples the orbital elements with the transponder table.
type Satellite struct {
	Name        string
	Line1       string
	Line2       string
	Frequencies []Frequency
}

// SatIndex answers satellite lookups by catalog name.
type SatIndex struct {
	byName map[string]*Satellite
}

// Celestrak name lines either carry an alias in parentheses
// ("ISS (ZARYA)") or are used verbatim with spaces dash-joined.
var tleAliasRe = regexp.MustCompile(`^.*\((.*)\)$`)

func tleKey(nameLine string) string {
	name := strings.TrimSpace(nameLine)
	if m := tleAliasRe.FindStringSubmatch(name); m != nil {
		name = m[1]
	}
	key := strings.ToUpper(strings.ReplaceAll(name, " ", "-"))
	if key == "ZARYA" {
		key = "ISS"
	}
	return key
}

// ParseTLE reads a Celestrak three-line-element file.
func ParseTLE(r io.Reader) (*SatIndex, error) {
	idx := &SatIndex{byName: make(map[string]*Satellite)}
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		if l := strings.TrimRight(scanner.Text(), " \r"); l != "" {
			lines = append(lines, l)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines)%3 != 0 {
		return nil, fmt.Errorf("tle: %d lines, not a multiple of 3", len(lines))
	}
	for i := 0; i < len(lines); i += 3 {
		idx.byName[tleKey(lines[i])] = &Satellite{
			Name:  tleKey(lines[i]),
			Line1: lines[i+1],
			Line2: lines[i+2],
		}
	}
	return idx, nil
}

// LoadFrequencies merges a transponder table into the index. Two
// layouts are accepted: the JE9PEL list as downloaded
// (name;number;uplink;downlink;beacon;mode;callsign;status, semicolon
// separated) and the short comma form name,uplink,downlink,mode.
// Entries for unknown satellites are skipped.
func (idx *SatIndex) LoadFrequencies(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	cr := csv.NewReader(bytes.NewReader(raw))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	je9pel := bytes.ContainsRune(raw, ';')
	if je9pel {
		cr.Comma = ';'
	}
	records, err := cr.ReadAll()
	if err != nil {
		return err
	}
	for _, rec := range records {
		var freq Frequency
		var key string
		switch {
		case je9pel && len(rec) >= 6:
			key = tleKey(rec[0])
			freq = Frequency{
				Uplink:   strings.TrimSpace(rec[2]),
				Downlink: strings.TrimSpace(rec[3]),
				Mode:     strings.TrimSpace(rec[5]),
			}
		case !je9pel && len(rec) >= 4:
			key = tleKey(rec[0])
			freq = Frequency{
				Uplink:   strings.TrimSpace(rec[1]),
				Downlink: strings.TrimSpace(rec[2]),
				Mode:     strings.TrimSpace(rec[3]),
			}
		default:
			continue
		}
		if freq.Uplink == "" && freq.Downlink == "" {
			continue
		}
		sat, ok := idx.byName[key]
		if !ok {
			continue
		}
		sat.Frequencies = append(sat.Frequencies, freq)
	}
	return nil
}

// ByName returns the satellite for a catalog name, nil if unknown.
func (idx *SatIndex) ByName(name string) *Satellite {
	if idx == nil {
		return nil
	}
	return idx.byName[tleKey(name)]
}

// Len returns the number of satellites.
func (idx *SatIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.byName)
}
