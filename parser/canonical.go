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

package parser

import (
	"fmt"
	"strings"
)

// Canonical renders the command back into a message body that re-parses
// to an equivalent record. Used by the aprsctl parse debug command and
// by the round-trip tests.
func (c *Command) Canonical() string {
	var parts []string

	switch c.Action {
	case ActionWx:
		parts = append(parts, "wx")
	case ActionMetar:
		parts = append(parts, "metar")
	case ActionTaf:
		parts = append(parts, "taf")
	case ActionMetarTafFull:
		parts = append(parts, "metar")
	case ActionCwop:
		parts = append(parts, "cwop")
	case ActionWhereIs:
		parts = append(parts, "whereis")
	case ActionWhereAmI:
		parts = append(parts, "whereami")
	case ActionRiseSet:
		parts = append(parts, "riseset")
	case ActionSatPass:
		parts = append(parts, "satpass")
	case ActionVisPass:
		parts = append(parts, "vispass")
	case ActionSatFreq:
		parts = append(parts, "satfreq")
	case ActionRepeater:
		parts = append(parts, "repeater")
	case ActionOsmCategory:
		parts = append(parts, "osm")
	case ActionDapnet:
		parts = append(parts, "dapnet")
	case ActionDapnetHighPri:
		parts = append(parts, "dapnethp")
	case ActionPosMsg:
		parts = append(parts, "posmsg")
	case ActionFortune:
		parts = append(parts, "fortuneteller")
	case ActionSonde:
		parts = append(parts, "sonde")
	case ActionHelp:
		parts = append(parts, "help")
	default:
		return ""
	}

	switch c.Target.Kind {
	case TargetOtherCallsign:
		parts = append(parts, strings.ToLower(c.Target.Callsign))
	case TargetLatLon:
		parts = append(parts, fmt.Sprintf("%g/%g", c.Target.Lat, c.Target.Lon))
	case TargetGrid:
		parts = append(parts, "grid", strings.ToLower(c.Target.Grid))
	case TargetZip:
		parts = append(parts, "zip", fmt.Sprintf("%s;%s", c.Target.Zip, strings.ToLower(c.Target.Country)))
	case TargetCityCountry:
		loc := strings.ToLower(c.Target.City)
		if c.Target.State != "" {
			loc += "," + strings.ToLower(c.Target.State)
		}
		loc += ";" + strings.ToLower(c.Target.Country)
		parts = append(parts, loc)
	case TargetIcao:
		if c.Action == ActionMetar || c.Action == ActionTaf || c.Action == ActionMetarTafFull {
			parts = append(parts, strings.ToLower(c.Target.Icao))
		} else {
			parts = append(parts, "icao", strings.ToLower(c.Target.Icao))
		}
	case TargetIata:
		if c.Action == ActionMetar || c.Action == ActionTaf || c.Action == ActionMetarTafFull {
			parts = append(parts, strings.ToLower(c.Target.Iata))
		} else {
			parts = append(parts, "iata", strings.ToLower(c.Target.Iata))
		}
	case TargetSatellite:
		parts = append(parts, strings.ToLower(c.Target.Satellite))
	case TargetCwopStation:
		parts = append(parts, strings.ToLower(c.Target.CwopID))
	case TargetOsmPhrase:
		parts = append(parts, c.Target.OsmPhrase)
	case TargetEmail:
		parts = append(parts, c.Target.Email)
	case TargetDapnetUser:
		parts = append(parts, strings.ToLower(c.Target.DapnetUser))
	case TargetRepeaterFilter:
		if c.Target.Band != "" {
			parts = append(parts, c.Target.Band)
		}
		if c.Target.Mode != "" {
			parts = append(parts, c.Target.Mode)
		}
	}

	if c.Text != "" {
		parts = append(parts, c.Text)
	}

	// pager messages carry free text; modifiers do not apply
	if c.Action == ActionDapnet || c.Action == ActionDapnetHighPri {
		return strings.Join(parts, " ")
	}

	if c.Action == ActionMetarTafFull {
		parts = append(parts, "full")
	}

	switch {
	case c.HourOffset > 0:
		parts = append(parts, fmt.Sprintf("%dh", c.HourOffset))
	case c.DayOffset == 1:
		parts = append(parts, "tomorrow")
	case c.DayOffset > 1:
		parts = append(parts, fmt.Sprintf("%dd", c.DayOffset))
	}

	if c.Daytime != DaytimeFull {
		parts = append(parts, c.Daytime.String())
	}

	parts = append(parts, c.Units.String(), "lang", c.Language)

	if c.TopN > 1 {
		parts = append(parts, fmt.Sprintf("top%d", c.TopN))
	}
	if c.ForceUnicode {
		parts = append(parts, "unicode")
	}

	return strings.Join(parts, " ")
}
