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
Package parser turns the free-text body of an APRS message into a
structured Command. The parser is deterministic and priority-ordered:
the first successful match wins the action and target, later matches
only fill modifiers, and every match is excised from the working copy so
it cannot trigger twice. The priority order is the user-visible
contract; a bare target that collides with an earlier category (e.g. the
OSM word "pub" vs. IATA code PUB) loses the collision and has to be
disambiguated with its explicit keyword.
*/
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Lookup validates bare tokens against the reference catalogs. Bare
// airport codes, satellite names and OSM categories only match when the
// lookup confirms them; keyword-prefixed forms match by shape alone.
type Lookup interface {
	ValidICAO(code string) bool
	ValidIATA(code string) bool
	ValidSatellite(name string) bool
	OsmCategory(word string) bool
}

// Parser holds the catalog lookup and configuration defaults.
type Parser struct {
	lookup       Lookup
	forceUnicode bool
}

// New creates a Parser. lookup may be nil, in which case bare airport,
// satellite and OSM tokens never match.
func New(lookup Lookup, forceUnicodeDefault bool) *Parser {
	return &Parser{lookup: lookup, forceUnicode: forceUnicodeDefault}
}

var (
	reDapnet   = regexp.MustCompile(`(?:^|\s)(dapnethp|dapnet)\s+([a-z0-9-]+)\s+(.+)$`)
	rePosMsg   = regexp.MustCompile(`(?:^|\s)(?:posmsg|posrpt)\s+([a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,})`)
	reSonde    = regexp.MustCompile(`(?:^|\s)sonde\s+([a-z0-9-]+)`)
	reSatCmd   = regexp.MustCompile(`(?:^|\s)(satpass|vispass|satfreq)\b(?:\s+([a-z0-9()-]+))?`)
	reCwop     = regexp.MustCompile(`(?:^|\s)cwop\b(?:\s+([a-z0-9-]+))?`)
	reMetarTaf = regexp.MustCompile(`(?:^|\s)(metar|taf)\b(?:\s+([a-z0-9-]+))?`)
	reIcaoKw   = regexp.MustCompile(`(?:^|\s)icao\s*([a-z0-9]{4})\b`)
	reIataKw   = regexp.MustCompile(`(?:^|\s)iata\s*([a-z0-9]{3})\b`)
	reWhereIs  = regexp.MustCompile(`(?:^|\s)whereis\s+([a-z0-9-]+)`)
	reWhereAmI = regexp.MustCompile(`(?:^|\s)whereami(?:$|\s)`)
	reRiseSet  = regexp.MustCompile(`(?:^|\s)riseset\b(?:\s+([a-z0-9-]+))?`)
	reRepeater = regexp.MustCompile(`(?:^|\s)repeater(?:$|\s)`)
	reBand     = regexp.MustCompile(`(?:^|\s)(\d+\.?\d*(?:cm|m))(?:$|\s)`)
	reMode     = regexp.MustCompile(`(?:^|\s)(fm|dstar|d-star|dmr|c4fm|ysf|tetra|atv)(?:$|\s)`)
	reFortune  = regexp.MustCompile(`(?:^|\s)(?:fortuneteller|magic8ball|magic8|m8b)(?:$|\s)`)
	reHelp     = regexp.MustCompile(`(?:^|\s)(?:help|info)(?:$|\s)`)
	reGridKw   = regexp.MustCompile(`(?:^|\s)(?:grid|mh)\s*([a-r]{2}[0-9]{2}(?:[a-x]{2})?)(?:$|\s)`)
	reZipKw    = regexp.MustCompile(`(?:^|\s)zip\s*([0-9]{3,10})(?:\s*;\s*([a-z]{2}))?`)
	reWx       = regexp.MustCompile(`(?:^|\s)(?:wx|forecast)(?:$|\s)`)
	reOsmKw    = regexp.MustCompile(`(?:^|\s)osm\s+([a-z_]+)`)
	reLang     = regexp.MustCompile(`(?:^|\s)(?:lang|lng)\s+([a-z]{2})(?:$|\s)`)

	reCityStateCountry = regexp.MustCompile(`([^\d,;]+),\s*([^\d,;]+);\s*([a-z]{2})(?:$|\s)`)
	reCityCountry      = regexp.MustCompile(`([^\d,;]+);\s*([a-z]{2})(?:$|\s)`)
	reLatLon           = regexp.MustCompile(`(?:^|\s)(-?\d+\.?\d*)/(-?\d+\.?\d*)(?:$|\s)`)
	reZipBare          = regexp.MustCompile(`(?:^|\s)([0-9]{5})(?:$|\s)`)
	reGridBare         = regexp.MustCompile(`^[a-r]{2}[0-9]{2}(?:[a-x]{2})?$`)
	reCallsignSSID     = regexp.MustCompile(`^[a-z0-9]{1,3}[0-9][a-z0-9]{0,3}-[a-z0-9]{1,2}$`)
	reCallsignShape    = regexp.MustCompile(`^[a-z]{1,2}[0-9][a-z0-9]{0,3}[a-z](?:-[a-z0-9]{1,2})?$`)

	reUnitsImperial = regexp.MustCompile(`^[aknw][a-z]{0,2}[0-9]`)
	reUnitsImpDX    = regexp.MustCompile(`^(a8|d5|el|5l|5m|6z|xy|xz)`)

	reHourOffset = regexp.MustCompile(`^([1-9]|[1-3][0-9]|4[0-7])h$`)
	reDayOffset  = regexp.MustCompile(`^([1-7])d$`)
	reTopN       = regexp.MustCompile(`^top([2-5])$`)
)

// reserved guards keyword arguments: a modifier word following an action
// keyword is not its target.
var reserved = map[string]struct{}{
	"today": {}, "tomorrow": {}, "current": {}, "now": {},
	"monday": {}, "mon": {}, "tuesday": {}, "tue": {}, "wednesday": {}, "wed": {},
	"thursday": {}, "thu": {}, "friday": {}, "fri": {}, "saturday": {}, "sat": {},
	"sunday": {}, "sun": {},
	"full": {}, "morn": {}, "morning": {}, "day": {}, "daytime": {}, "noon": {},
	"eve": {}, "evening": {}, "nite": {}, "night": {}, "tonite": {}, "tonight": {},
	"mtr": {}, "metric": {}, "imp": {}, "imperial": {}, "unicode": {},
	"lang": {}, "lng": {},
}

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

// languages is the ISO-639-1 set accepted for the lang modifier.
// Unknown codes silently fall back to "en".
var languages = map[string]struct{}{
	"af": {}, "ar": {}, "az": {}, "bg": {}, "ca": {}, "cz": {}, "da": {}, "de": {},
	"el": {}, "en": {}, "es": {}, "eu": {}, "fa": {}, "fi": {}, "fr": {}, "gl": {},
	"he": {}, "hi": {}, "hr": {}, "hu": {}, "id": {}, "it": {}, "ja": {}, "kr": {},
	"la": {}, "lt": {}, "mk": {}, "nl": {}, "no": {}, "pl": {}, "pt": {}, "ro": {},
	"ru": {}, "se": {}, "sk": {}, "sl": {}, "sr": {}, "th": {}, "tr": {}, "ua": {},
	"vi": {}, "zh": {},
}

// state carries the working copy through the match passes.
type state struct {
	rest      string
	cmd       *Command
	duty      bool // action/target found
	dateSet   bool
	fullSeen  bool
	tonight   bool
	actionSet bool
}

// extract runs re against the working copy, excises the first match and
// returns the submatches (nil if no match).
func (s *state) extract(re *regexp.Regexp) []string {
	m := re.FindStringSubmatchIndex(s.rest)
	if m == nil {
		return nil
	}
	groups := make([]string, 0, len(m)/2)
	for i := 0; i < len(m); i += 2 {
		if m[i] < 0 {
			groups = append(groups, "")
		} else {
			groups = append(groups, s.rest[m[i]:m[i+1]])
		}
	}
	s.rest = strings.TrimSpace(s.rest[:m[0]] + " " + s.rest[m[1]:])
	return groups
}

// Parse analyzes one message body. sender is the transmitting callsign
// (used for the unit-system default and the position fallback), now
// anchors relative dates. Parse never fails; an uninterpretable body
// yields ActionUnknown.
func (p *Parser) Parse(body, sender string, now time.Time) *Command {
	cmd := &Command{
		Sender:       strings.ToUpper(sender),
		Language:     "en",
		TopN:         1,
		ForceUnicode: p.forceUnicode,
		Units:        unitsForCallsign(sender),
	}

	s := &state{
		rest: strings.Join(strings.Fields(strings.ToLower(body)), " "),
		cmd:  cmd,
	}
	if s.rest == "" {
		cmd.Action = ActionUnknown
		return cmd
	}

	// modifiers are excised before the bare-target pass so a date or
	// daytime word in front of a city name cannot be absorbed into it
	p.matchActions(s)
	p.matchModifiers(s, now)
	p.matchBareTargets(s)
	p.resolve(s)
	return cmd
}

func (s *state) setAction(a Action) {
	if !s.actionSet {
		s.cmd.Action = a
		s.actionSet = true
	}
	s.duty = true
}

func (s *state) setTarget(t Target) {
	if !s.duty || s.cmd.Target.Kind == TargetUserPosition {
		s.cmd.Target = t
	}
	s.duty = true
}

// argOrEmpty drops keyword arguments that are really modifiers.
func argOrEmpty(s *state, arg string) string {
	if arg == "" {
		return ""
	}
	if _, ok := reserved[arg]; ok {
		s.rest = strings.TrimSpace(s.rest + " " + arg)
		return ""
	}
	return arg
}

// matchActions runs the explicit action keywords in priority order.
func (p *Parser) matchActions(s *state) {
	if m := s.extract(reDapnet); m != nil {
		if m[1] == "dapnethp" {
			s.setAction(ActionDapnetHighPri)
		} else {
			s.setAction(ActionDapnet)
		}
		s.cmd.Target = Target{Kind: TargetDapnetUser, DapnetUser: strings.ToUpper(m[2])}
		s.cmd.Text = m[3]
		s.rest = "" // the rest of the line is the pager text
		return
	}
	if m := s.extract(rePosMsg); m != nil {
		s.setAction(ActionPosMsg)
		s.setTarget(Target{Kind: TargetEmail, Email: m[1]})
	}
	if m := s.extract(reSonde); m != nil {
		s.setAction(ActionSonde)
		s.setTarget(Target{Kind: TargetOtherCallsign, Callsign: strings.ToUpper(m[1])})
	}
	if m := s.extract(reSatCmd); m != nil {
		switch m[1] {
		case "satpass":
			s.setAction(ActionSatPass)
		case "vispass":
			s.setAction(ActionVisPass)
		default:
			s.setAction(ActionSatFreq)
		}
		if sat := argOrEmpty(s, m[2]); sat != "" {
			s.setTarget(Target{Kind: TargetSatellite, Satellite: normalizeSatName(sat)})
		}
	}
	if m := s.extract(reCwop); m != nil {
		s.setAction(ActionCwop)
		if id := argOrEmpty(s, m[1]); id != "" {
			s.setTarget(Target{Kind: TargetCwopStation, CwopID: strings.ToUpper(id)})
		}
	}
	if m := s.extract(reMetarTaf); m != nil {
		if m[1] == "taf" {
			s.setAction(ActionTaf)
		} else {
			s.setAction(ActionMetar)
		}
		if arg := argOrEmpty(s, m[2]); arg != "" {
			switch {
			case reCallsignSSID.MatchString(arg):
				s.setTarget(Target{Kind: TargetOtherCallsign, Callsign: strings.ToUpper(arg)})
			case len(arg) == 4:
				s.setTarget(Target{Kind: TargetIcao, Icao: strings.ToUpper(arg)})
			case len(arg) == 3:
				s.setTarget(Target{Kind: TargetIata, Iata: strings.ToUpper(arg)})
			default:
				s.setTarget(Target{Kind: TargetOtherCallsign, Callsign: strings.ToUpper(arg)})
			}
		}
	}
	if m := s.extract(reIcaoKw); m != nil {
		s.setAction(ActionMetar)
		s.setTarget(Target{Kind: TargetIcao, Icao: strings.ToUpper(m[1])})
	}
	if m := s.extract(reIataKw); m != nil {
		s.setAction(ActionMetar)
		s.setTarget(Target{Kind: TargetIata, Iata: strings.ToUpper(m[1])})
	}
	if m := s.extract(reWhereIs); m != nil {
		s.setAction(ActionWhereIs)
		s.setTarget(Target{Kind: TargetOtherCallsign, Callsign: strings.ToUpper(m[1])})
	}
	if s.extract(reWhereAmI) != nil {
		s.setAction(ActionWhereAmI)
		s.setTarget(Target{Kind: TargetUserPosition})
	}
	if m := s.extract(reRiseSet); m != nil {
		s.setAction(ActionRiseSet)
		if cs := argOrEmpty(s, m[1]); cs != "" {
			s.setTarget(Target{Kind: TargetOtherCallsign, Callsign: strings.ToUpper(cs)})
		}
	}
	if s.extract(reRepeater) != nil {
		s.setAction(ActionRepeater)
		t := Target{Kind: TargetRepeaterFilter}
		// band and mode are accepted in either order
		if bm := s.extract(reBand); bm != nil {
			t.Band = bm[1]
		}
		if mm := s.extract(reMode); mm != nil {
			t.Mode = normalizeMode(mm[1])
		}
		if t.Band == "" {
			if bm := s.extract(reBand); bm != nil {
				t.Band = bm[1]
			}
		}
		s.setTarget(t)
	}
	if m := s.extract(reOsmKw); m != nil {
		s.setAction(ActionOsmCategory)
		s.setTarget(Target{Kind: TargetOsmPhrase, OsmPhrase: m[1]})
	}
	if s.extract(reFortune) != nil {
		s.setAction(ActionFortune)
	}
	if s.extract(reHelp) != nil {
		s.setAction(ActionHelp)
	}
	if m := s.extract(reGridKw); m != nil {
		s.setTarget(Target{Kind: TargetGrid, Grid: strings.ToUpper(m[1])})
	}
	if m := s.extract(reZipKw); m != nil {
		country := strings.ToUpper(m[2])
		if country == "" {
			country = "US"
		}
		s.setTarget(Target{Kind: TargetZip, Zip: m[1], Country: country})
	}
	if s.extract(reWx) != nil {
		s.setAction(ActionWx)
	}
}

// matchBareTargets recognizes targets given without their keyword. They
// only fire while no target was claimed by an action keyword.
func (p *Parser) matchBareTargets(s *state) {
	if s.duty && s.cmd.Target.Kind != TargetUserPosition {
		return
	}

	// bare 5-digit zip implies the US
	if m := s.extract(reZipBare); m != nil {
		s.setTarget(Target{Kind: TargetZip, Zip: m[1], Country: "US"})
		return
	}

	// airport codes, grids, satellites and OSM words are scanned
	// token-wise so modifiers in between do not break them
	fields := strings.Fields(s.rest)
	for i, tok := range fields {
		if _, ok := reserved[tok]; ok {
			continue
		}
		switch {
		case len(tok) == 4 && p.lookup != nil && p.lookup.ValidICAO(tok):
			s.setTarget(Target{Kind: TargetIcao, Icao: strings.ToUpper(tok)})
			s.setAction(ActionMetar)
		case len(tok) == 3 && p.lookup != nil && p.lookup.ValidIATA(tok):
			s.setTarget(Target{Kind: TargetIata, Iata: strings.ToUpper(tok)})
			s.setAction(ActionMetar)
		case reGridBare.MatchString(tok):
			s.setTarget(Target{Kind: TargetGrid, Grid: strings.ToUpper(tok)})
		case p.lookup != nil && p.lookup.OsmCategory(tok):
			s.setAction(ActionOsmCategory)
			s.setTarget(Target{Kind: TargetOsmPhrase, OsmPhrase: tok})
		case p.lookup != nil && p.lookup.ValidSatellite(tok):
			s.setAction(ActionSatPass)
			s.setTarget(Target{Kind: TargetSatellite, Satellite: normalizeSatName(tok)})
		case reCallsignSSID.MatchString(tok) || reCallsignShape.MatchString(tok):
			s.setTarget(Target{Kind: TargetOtherCallsign, Callsign: strings.ToUpper(tok)})
		default:
			continue
		}
		// excise by position, the same word may occur inside an
		// earlier token
		rest := append(append([]string(nil), fields[:i]...), fields[i+1:]...)
		s.rest = strings.Join(rest, " ")
		return
	}

	// lat/lon pair, either sign
	if m := s.extract(reLatLon); m != nil {
		lat, err1 := strconv.ParseFloat(m[1], 64)
		lon, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil && lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180 {
			s.setTarget(Target{Kind: TargetLatLon, Lat: lat, Lon: lon})
			return
		}
	}

	// city, state; country / city; country / city, state
	if m := s.extract(reCityStateCountry); m != nil {
		s.setTarget(Target{
			Kind:    TargetCityCountry,
			City:    title(m[1]),
			State:   strings.ToUpper(strings.TrimSpace(m[2])),
			Country: strings.ToUpper(m[3]),
		})
		return
	}
	if m := s.extract(reCityCountry); m != nil {
		s.setTarget(Target{
			Kind:    TargetCityCountry,
			City:    title(m[1]),
			Country: strings.ToUpper(m[2]),
		})
		return
	}
}

// matchModifiers scans the remaining tokens for date, daytime, unit,
// language, top-N and unicode modifiers. They may appear in any position.
func (p *Parser) matchModifiers(s *state, now time.Time) {
	if m := s.extract(reLang); m != nil {
		if _, ok := languages[m[1]]; ok {
			s.cmd.Language = m[1]
		}
	}

	// matched tokens are dropped by position so a modifier word
	// occurring inside an earlier token (e.g. "sun" in a place name)
	// is left alone
	var keep []string
	for _, tok := range strings.Fields(s.rest) {
		if !s.modifierToken(tok, now) {
			keep = append(keep, tok)
		}
	}
	s.rest = strings.Join(keep, " ")
}

// modifierToken consumes tok when it is a date, daytime, unit, top-N or
// unicode modifier.
func (s *state) modifierToken(tok string, now time.Time) bool {
	switch tok {
	case "today", "current", "now":
		s.cmd.DayOffset = 0
		s.dateSet = true
	case "tomorrow":
		s.cmd.DayOffset = 1
		s.dateSet = true
	case "full":
		s.fullSeen = true
		s.cmd.Daytime = DaytimeFull
	case "morn", "morning":
		s.cmd.Daytime = DaytimeMorning
	case "day", "daytime", "noon":
		s.cmd.Daytime = DaytimeDay
	case "eve", "evening":
		s.cmd.Daytime = DaytimeEvening
	case "nite", "night":
		s.cmd.Daytime = DaytimeNight
	case "tonite", "tonight":
		s.cmd.Daytime = DaytimeNight
		s.tonight = true
	case "mtr", "metric":
		s.cmd.Units = UnitsMetric
	case "imp", "imperial":
		s.cmd.Units = UnitsImperial
	case "unicode":
		s.cmd.ForceUnicode = true
	default:
		if wd, ok := weekdays[tok]; ok {
			off := int(wd-now.Weekday()+7) % 7
			if off == 0 {
				// same weekday means next week
				off = 7
			}
			s.cmd.DayOffset = off
			s.dateSet = true
		} else if m := reHourOffset.FindStringSubmatch(tok); m != nil {
			s.cmd.HourOffset, _ = strconv.Atoi(m[1])
			s.dateSet = true
		} else if m := reDayOffset.FindStringSubmatch(tok); m != nil {
			s.cmd.DayOffset, _ = strconv.Atoi(m[1])
			s.dateSet = true
		} else if m := reTopN.FindStringSubmatch(tok); m != nil {
			s.cmd.TopN, _ = strconv.Atoi(m[1])
		} else {
			return false
		}
	}
	return true
}

// resolve applies the cross-field rules once all matches are in.
func (p *Parser) resolve(s *state) {
	cmd := s.cmd

	// tonite implies today unless a specific day was requested
	if s.tonight && !s.dateSet {
		cmd.DayOffset = 0
	}

	if !s.actionSet {
		if s.duty || s.dateSet || s.rest == "" {
			// a target or date without an action defaults to a
			// weather report
			cmd.Action = ActionWx
			s.actionSet = true
		} else {
			cmd.Action = ActionUnknown
			return
		}
	}

	// "metar full" means the combined METAR+TAF report
	if s.fullSeen && cmd.Action == ActionMetar {
		cmd.Action = ActionMetarTafFull
	}
}

// unitsForCallsign derives the default unit system from the sender's
// country prefix: US, Liberia and Myanmar use the imperial system.
func unitsForCallsign(callsign string) Units {
	call := strings.ToLower(callsign)
	if reUnitsImperial.MatchString(call) || reUnitsImpDX.MatchString(call) {
		return UnitsImperial
	}
	return UnitsMetric
}

// normalizeSatName maps satellite aliases to catalog names. Names with
// embedded spaces are carried dash-joined.
func normalizeSatName(name string) string {
	n := strings.ToUpper(strings.ReplaceAll(name, " ", "-"))
	if n == "ZARYA" {
		return "ISS"
	}
	return n
}

// normalizeMode folds repeater mode aliases.
func normalizeMode(mode string) string {
	switch mode {
	case "ysf":
		return "c4fm"
	case "d-star":
		return "dstar"
	}
	return mode
}

// title uppercases the first letter of every word of a city name.
func title(raw string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
