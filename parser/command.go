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

// Action is the primary intent extracted from a message body.
type Action int

// All actions the bot understands. Unknown yields a canned help pointer.
const (
	ActionUnknown Action = iota
	ActionWx
	ActionMetar
	ActionTaf
	ActionMetarTafFull
	ActionCwop
	ActionWhereIs
	ActionWhereAmI
	ActionRiseSet
	ActionSatPass
	ActionVisPass
	ActionSatFreq
	ActionRepeater
	ActionOsmCategory
	ActionDapnet
	ActionDapnetHighPri
	ActionPosMsg
	ActionFortune
	ActionSonde
	ActionHelp
)

var actionNames = map[Action]string{
	ActionUnknown:       "unknown",
	ActionWx:            "wx",
	ActionMetar:         "metar",
	ActionTaf:           "taf",
	ActionMetarTafFull:  "metar full",
	ActionCwop:          "cwop",
	ActionWhereIs:       "whereis",
	ActionWhereAmI:      "whereami",
	ActionRiseSet:       "riseset",
	ActionSatPass:       "satpass",
	ActionVisPass:       "vispass",
	ActionSatFreq:       "satfreq",
	ActionRepeater:      "repeater",
	ActionOsmCategory:   "osm",
	ActionDapnet:        "dapnet",
	ActionDapnetHighPri: "dapnethp",
	ActionPosMsg:        "posmsg",
	ActionFortune:       "fortuneteller",
	ActionSonde:         "sonde",
	ActionHelp:          "help",
}

func (a Action) String() string { return actionNames[a] }

// TargetKind tags the target variant of a Command.
type TargetKind int

// Target variants. TargetUserPosition is the fallback: the sender's last
// known position.
const (
	TargetUserPosition TargetKind = iota
	TargetOtherCallsign
	TargetLatLon
	TargetGrid
	TargetZip
	TargetCityCountry
	TargetIcao
	TargetIata
	TargetSatellite
	TargetCwopStation
	TargetOsmPhrase
	TargetEmail
	TargetDapnetUser
	TargetRepeaterFilter
)

// Target is the symbolic reference a command applies to. Only the fields
// belonging to Kind are set; the Dispatcher resolves the symbol into
// coordinates.
type Target struct {
	Kind TargetKind

	Callsign   string
	Lat, Lon   float64
	Grid       string
	Zip        string
	City       string
	State      string
	Country    string
	Icao       string
	Iata       string
	Satellite  string
	CwopID     string
	OsmPhrase  string
	Email      string
	DapnetUser string
	Band       string
	Mode       string
}

// Daytime is the requested window of the day.
type Daytime int

// Daytime windows. Full aggregates all four.
const (
	DaytimeFull Daytime = iota
	DaytimeMorning
	DaytimeDay
	DaytimeEvening
	DaytimeNight
)

func (d Daytime) String() string {
	switch d {
	case DaytimeMorning:
		return "morning"
	case DaytimeDay:
		return "daytime"
	case DaytimeEvening:
		return "evening"
	case DaytimeNight:
		return "night"
	}
	return "full"
}

// Units selects the unit system for rendered values.
type Units int

// Supported unit systems.
const (
	UnitsMetric Units = iota
	UnitsImperial
)

func (u Units) String() string {
	if u == UnitsImperial {
		return "imperial"
	}
	return "metric"
}

// Command is the structured record produced by the parser. Exactly one
// Action per record; coordinate resolution happens in the Dispatcher.
type Command struct {
	Action Action
	Target Target

	// DayOffset is 0 for today, 1..7 for later days. HourOffset is
	// 1..47 when an Nh offset was given; the two are exclusive.
	DayOffset  int
	HourOffset int

	Daytime      Daytime
	Units        Units
	Language     string
	TopN         int
	ForceUnicode bool

	// Text carries free text for dapnet messages.
	Text string

	// Sender identity and ack bookkeeping, carried through from the
	// inbound frame.
	Sender string
	MsgNo  string
}
