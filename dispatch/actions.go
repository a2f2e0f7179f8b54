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

package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hamnet/aprsbot/fragment"
	"github.com/hamnet/aprsbot/geo"
	"github.com/hamnet/aprsbot/parser"
	"github.com/hamnet/aprsbot/providers"
	"github.com/hamnet/aprsbot/providers/celestial"
	"github.com/hamnet/aprsbot/providers/cwop"
	"github.com/hamnet/aprsbot/providers/openweather"
	"github.com/hamnet/aprsbot/refcache"
)

// Local shorthands for the provider result types.
type (
	forecast     = openweather.Forecast
	dayForecast  = openweather.DayForecast
	hourForecast = openweather.HourForecast
	cwopReport   = cwop.Report
)

func topN(cmd *parser.Command) int {
	if cmd.TopN > 0 {
		return cmd.TopN
	}
	return 1
}

// positionalLabel prefers the geocoded place name for targets that
// arrive as bare coordinates or callsigns.
func (dp *Dispatcher) positionalLabel(ctx context.Context, cmd *parser.Command, pos *position) string {
	switch cmd.Target.Kind {
	case parser.TargetCityCountry, parser.TargetZip:
		return pos.Label
	default:
		return dp.placeLabel(ctx, pos.Lat, pos.Lon)
	}
}

func (dp *Dispatcher) wx(ctx context.Context, cmd *parser.Command) (*fragment.Response, error) {
	if dp.d.Weather == nil {
		return nil, errDisabled("openweather")
	}
	pos, err := dp.resolve(ctx, cmd)
	if err != nil {
		return nil, err
	}
	fc, err := dp.d.Weather.Forecast(ctx, pos.Lat, pos.Lon, cmd.Units.String(), cmd.Language)
	if err != nil {
		return nil, err
	}
	label := dp.positionalLabel(ctx, cmd, pos)

	if cmd.HourOffset > 0 {
		return dp.wxHourly(cmd, fc, label)
	}
	return dp.wxDaily(cmd, fc, label)
}

func (dp *Dispatcher) wxDaily(cmd *parser.Command, fc *forecast, label string) (*fragment.Response, error) {
	const op = "openweather"
	wantY, wantM, wantD := dp.d.Clock.Now().UTC().Add(fc.UTCOffset).AddDate(0, 0, cmd.DayOffset).Date()
	var day *dayForecast
	for i := range fc.Days {
		y, m, d := fc.Days[i].Date.Add(fc.UTCOffset).Date()
		if y == wantY && m == wantM && d == wantD {
			day = &fc.Days[i]
			break
		}
	}
	if day == nil {
		return nil, providers.Errorf(providers.KindSemantic, op, "no forecast for the requested day")
	}

	tokens := []string{fmtDate(day.Date.Add(fc.UTCOffset)), label}
	if day.Summary != "" {
		tokens = append(tokens, day.Summary)
	}
	switch cmd.Daytime {
	case parser.DaytimeMorning:
		tokens = append(tokens, "morn:"+fmtTemp(day.TempMorn, cmd.Units))
	case parser.DaytimeDay:
		tokens = append(tokens, "day:"+fmtTemp(day.TempDay, cmd.Units))
	case parser.DaytimeEvening:
		tokens = append(tokens, "eve:"+fmtTemp(day.TempEve, cmd.Units))
	case parser.DaytimeNight:
		tokens = append(tokens, "nite:"+fmtTemp(day.TempNight, cmd.Units))
	default:
		tokens = append(tokens,
			"morn:"+fmtTemp(day.TempMorn, cmd.Units),
			"day:"+fmtTemp(day.TempDay, cmd.Units),
			"eve:"+fmtTemp(day.TempEve, cmd.Units),
			"nite:"+fmtTemp(day.TempNight, cmd.Units))
	}
	tokens = append(tokens,
		fmt.Sprintf("sunrise/set %s/%sUTC", fmtEvent(day.Sunrise), fmtEvent(day.Sunset)),
		fmt.Sprintf("clouds:%d%%", day.CloudPct),
		fmt.Sprintf("uvi:%.1f", day.UVI),
		fmt.Sprintf("hPa:%d", day.Pressure),
		fmt.Sprintf("hum:%d%%", day.Humidity),
		"dewpt:"+fmtTemp(day.DewPoint, cmd.Units),
		fmt.Sprintf("wndspd:%.0f%s", day.WindSpeed, speedUnit(cmd.Units)),
		fmt.Sprintf("wnddeg:%d", day.WindDeg))

	r := &fragment.Response{}
	r.AddLine(tokens...)
	return r, nil
}

func (dp *Dispatcher) wxHourly(cmd *parser.Command, fc *forecast, label string) (*fragment.Response, error) {
	const op = "openweather"
	want := dp.d.Clock.Now().UTC().Add(time.Duration(cmd.HourOffset) * time.Hour)
	var hour *hourForecast
	best := time.Duration(1<<63 - 1)
	for i := range fc.Hours {
		diff := fc.Hours[i].Time.Sub(want)
		if diff < 0 {
			diff = -diff
		}
		if diff < best {
			best = diff
			hour = &fc.Hours[i]
		}
	}
	if hour == nil || best > time.Hour {
		return nil, providers.Errorf(providers.KindSemantic, op, "no forecast for the requested hour")
	}

	local := hour.Time.Add(fc.UTCOffset)
	r := &fragment.Response{}
	tokens := []string{fmtDate(local), fmtClock(local), label}
	if hour.Summary != "" {
		tokens = append(tokens, hour.Summary)
	}
	tokens = append(tokens, fmtTemp(hour.Temp, cmd.Units))
	r.AddLine(tokens...)
	return r, nil
}

func (dp *Dispatcher) metarTaf(ctx context.Context, cmd *parser.Command, withMetar, withTaf bool) (*fragment.Response, error) {
	if dp.d.Aviation == nil {
		return nil, errDisabled("metar")
	}
	icao, err := dp.metarICAO(ctx, cmd)
	if err != nil {
		return nil, err
	}

	r := &fragment.Response{}
	if withMetar {
		report, err := dp.d.Aviation.Report(ctx, icao)
		if err != nil {
			return nil, err
		}
		r.AddText(report)
	}
	if withTaf {
		taf, err := dp.d.Aviation.TAF(ctx, icao)
		if err != nil {
			return nil, err
		}
		if withMetar {
			r.AddLine(fragment.MetarTafSeparator)
		}
		r.AddText(taf)
	}
	return r, nil
}

// metarICAO picks the reporting station: an explicit airport if it
// publishes METARs, otherwise the closest one that does.
func (dp *Dispatcher) metarICAO(ctx context.Context, cmd *parser.Command) (string, error) {
	const op = "metar"
	airports := dp.d.Store.Airports()

	var ap *refcache.Airport
	switch cmd.Target.Kind {
	case parser.TargetIcao:
		ap = airports.ByICAO(cmd.Target.Icao)
		if ap == nil {
			// not in the directory, let the upstream decide
			return strings.ToUpper(cmd.Target.Icao), nil
		}
	case parser.TargetIata:
		ap = airports.ByIATA(cmd.Target.Iata)
		if ap == nil {
			return "", providers.Errorf(providers.KindSemantic, op, "unknown IATA code %s", strings.ToUpper(cmd.Target.Iata))
		}
	default:
		pos, err := dp.resolve(ctx, cmd)
		if err != nil {
			return "", err
		}
		ap = airports.NearestMetar(pos.Lat, pos.Lon)
		if ap == nil {
			return "", providers.Errorf(providers.KindSemantic, op, "no reporting airport nearby")
		}
	}
	if !ap.Metar {
		near := airports.NearestMetar(ap.Lat, ap.Lon)
		if near == nil {
			return "", providers.Errorf(providers.KindSemantic, op, "%s does not publish METARs", ap.ICAO)
		}
		ap = near
	}
	return ap.ICAO, nil
}

func (dp *Dispatcher) cwop(ctx context.Context, cmd *parser.Command) (*fragment.Response, error) {
	if dp.d.WxStations == nil {
		return nil, errDisabled("cwop")
	}
	units := cmd.Units.String()

	var report *cwopReport
	var err error
	if cmd.Target.Kind == parser.TargetCwopStation {
		report, err = dp.d.WxStations.ByID(ctx, cmd.Target.CwopID, units)
	} else {
		var pos *position
		pos, err = dp.resolve(ctx, cmd)
		if err != nil {
			return nil, err
		}
		report, err = dp.d.WxStations.Nearest(ctx, pos.Lat, pos.Lon, units)
	}
	if err != nil {
		return nil, err
	}

	tokens := []string{"CWOP", report.ID}
	if ts, terr := time.Parse("20060102150405", report.Time); terr == nil {
		tokens = append(tokens, fmtDateTime(ts))
	}
	tokens = append(tokens,
		report.Temperature+tempLetter(cmd.Units),
		fmt.Sprintf("Wind %sdeg %s%s Gust %s%s", report.WindDirection,
			report.WindSpeed, groundSpeedUnit(cmd.Units),
			report.WindGust, groundSpeedUnit(cmd.Units)),
		fmt.Sprintf("Rain(1h/24h/mn) %s/%s/%s", report.Rain1h, report.Rain24h, report.RainMidnight),
		"Hum "+report.Humidity+"%",
		report.Pressure+"mb")

	r := &fragment.Response{}
	r.AddLine(tokens...)
	return r, nil
}

func (dp *Dispatcher) whereis(ctx context.Context, cmd *parser.Command) (*fragment.Response, error) {
	pos, err := dp.resolve(ctx, cmd)
	if err != nil {
		return nil, err
	}

	tokens := []string{"Pos", pos.Label,
		"Grid " + geo.ToMaidenhead(pos.Lat, pos.Lon),
		"DMS " + geo.ToDMS(pos.Lat, "lat") + "/" + geo.ToDMS(pos.Lon, "lon"),
	}

	// Distance from the requester when asking about something else.
	if cmd.Target.Kind != parser.TargetUserPosition && dp.d.Positions != nil {
		if own, err := dp.callsignPosition(ctx, cmd.Sender); err == nil {
			km := geo.Distance(own.Lat, own.Lon, pos.Lat, pos.Lon)
			brg := geo.Bearing(own.Lat, own.Lon, pos.Lat, pos.Lon)
			tokens = append(tokens, "Dst "+fmtDistance(km, cmd.Units), "Brg "+fmtBearing(brg))
		}
	}

	tokens = append(tokens,
		"UTM "+geo.ToUTM(pos.Lat, pos.Lon).String(),
		"MGRS "+geo.ToMGRS(pos.Lat, pos.Lon),
		fmt.Sprintf("LatLon %.5f/%.5f", pos.Lat, pos.Lon))
	if pos.Altitude > 0 {
		tokens = append(tokens, "Alt "+fmtAltitude(pos.Altitude, cmd.Units))
	}
	tokens = append(tokens, "Addr "+dp.placeLabel(ctx, pos.Lat, pos.Lon))
	if !pos.LastSeen.IsZero() {
		tokens = append(tokens, "Last "+fmtDateTime(pos.LastSeen))
	}

	r := &fragment.Response{}
	r.AddLine(tokens...)
	return r, nil
}

func (dp *Dispatcher) riseset(ctx context.Context, cmd *parser.Command) (*fragment.Response, error) {
	pos, err := dp.resolve(ctx, cmd)
	if err != nil {
		return nil, err
	}
	date := dp.d.Clock.Now().UTC().AddDate(0, 0, cmd.DayOffset)
	rs := celestial.RiseSet(pos.Lat, pos.Lon, date)

	r := &fragment.Response{}
	r.AddLine("RiseSet", dp.positionalLabel(ctx, cmd, pos), fmtDate(date), "GMT",
		fmt.Sprintf("sr/ss %s/%s", fmtEvent(rs.Sunrise), fmtEvent(rs.Sunset)),
		fmt.Sprintf("mr/ms %s/%s", fmtEvent(rs.Moonrise), fmtEvent(rs.Moonset)))
	return r, nil
}

func (dp *Dispatcher) satellite(name string) (*refcache.Satellite, error) {
	sat := dp.d.Store.Satellites().ByName(name)
	if sat == nil {
		return nil, providers.Errorf(providers.KindSemantic, "satellites", "unknown satellite %s", strings.ToUpper(name))
	}
	return sat, nil
}

func (dp *Dispatcher) satpass(ctx context.Context, cmd *parser.Command, visibleOnly bool) (*fragment.Response, error) {
	sat, err := dp.satellite(cmd.Target.Satellite)
	if err != nil {
		return nil, err
	}

	// The observer is always the sender, passes make no sense for a
	// third-party position.
	obsCmd := *cmd
	obsCmd.Target = parser.Target{Kind: parser.TargetUserPosition}
	pos, err := dp.resolve(ctx, &obsCmd)
	if err != nil {
		return nil, err
	}
	obs := celestial.Observer{Lat: pos.Lat, Lon: pos.Lon, Alt: pos.Altitude}

	start := dp.d.Clock.Now().UTC()
	if cmd.HourOffset > 0 {
		start = start.Add(time.Duration(cmd.HourOffset) * time.Hour)
	} else {
		start = start.AddDate(0, 0, cmd.DayOffset)
		// a daytime request pins the prediction start to that window
		if h, ok := daytimeHour(cmd.Daytime); ok {
			y, m, d := start.Date()
			start = time.Date(y, m, d, h, 0, 0, 0, time.UTC)
		}
	}

	predict := celestial.Passes
	if visibleOnly {
		predict = celestial.VisiblePasses
	}
	passes, err := predict(sat.Line1, sat.Line2, obs, start, 24*time.Hour, dp.d.MinPassElevation, topN(cmd))
	if err != nil {
		return nil, providers.E(providers.KindInternal, "satellites", err)
	}
	if len(passes) == 0 {
		return nil, providers.Errorf(providers.KindSemantic, "satellites", "no %s pass over %s in the next 24h", sat.Name, pos.Label)
	}

	r := &fragment.Response{}
	r.AddLine(sat.Name, "UTC")
	for i, p := range passes {
		tokens := []string{itemTag(i),
			"rise " + p.Rise.Format("02-Jan 15:04"), "az" + fmtBearing(p.RiseAzimuth),
			fmt.Sprintf("max el%.0f", p.MaxElevation),
			"set " + p.Set.Format("15:04"), "az" + fmtBearing(p.SetAzimuth),
		}
		if p.Visible {
			tokens = append(tokens, "vis")
		}
		r.AddLine(tokens...)
	}
	return r, nil
}

// daytimeHour maps a daytime window to the hour its forecast slot
// starts at. Full has no fixed hour.
func daytimeHour(d parser.Daytime) (int, bool) {
	switch d {
	case parser.DaytimeNight:
		return 0, true
	case parser.DaytimeMorning:
		return 6, true
	case parser.DaytimeDay:
		return 12, true
	case parser.DaytimeEvening:
		return 18, true
	}
	return 0, false
}

func (dp *Dispatcher) satfreq(cmd *parser.Command) (*fragment.Response, error) {
	sat, err := dp.satellite(cmd.Target.Satellite)
	if err != nil {
		return nil, err
	}
	if len(sat.Frequencies) == 0 {
		return nil, providers.Errorf(providers.KindSemantic, "satellites", "no frequency data for %s", sat.Name)
	}

	r := &fragment.Response{}
	r.AddLine(sat.Name)
	for i, f := range sat.Frequencies {
		tokens := []string{itemTag(i)}
		if f.Uplink != "" {
			tokens = append(tokens, "up "+f.Uplink)
		}
		if f.Downlink != "" {
			tokens = append(tokens, "dn "+f.Downlink)
		}
		if f.Mode != "" {
			tokens = append(tokens, f.Mode)
		}
		r.AddLine(tokens...)
	}
	return r, nil
}

func (dp *Dispatcher) repeater(ctx context.Context, cmd *parser.Command) (*fragment.Response, error) {
	obsCmd := *cmd
	obsCmd.Target = parser.Target{Kind: parser.TargetUserPosition}
	pos, err := dp.resolve(ctx, &obsCmd)
	if err != nil {
		return nil, err
	}

	nearby := dp.d.Store.Repeaters().Nearest(pos.Lat, pos.Lon, cmd.Target.Band, cmd.Target.Mode, topN(cmd))
	if len(nearby) == 0 {
		return nil, providers.Errorf(providers.KindSemantic, "repeaters", "no matching repeater found")
	}

	r := &fragment.Response{}
	for i, rp := range nearby {
		tokens := []string{itemTag(i), rp.Callsign}
		// a filter the user gave is not echoed back
		if cmd.Target.Mode == "" {
			tokens = append(tokens, rp.Mode)
		}
		if cmd.Target.Band == "" && rp.Band != "" {
			tokens = append(tokens, rp.Band)
		}
		tokens = append(tokens,
			fmt.Sprintf("%.4fMHz", rp.RxMHz),
			fmtDistance(rp.DistanceKm, cmd.Units),
			fmtBearing(rp.Bearing),
		)
		if rp.Locator != "" {
			tokens = append(tokens, rp.Locator)
		}
		if rp.QTH != "" {
			tokens = append(tokens, rp.QTH)
		}
		r.AddLine(tokens...)
	}
	return r, nil
}

func (dp *Dispatcher) osm(ctx context.Context, cmd *parser.Command) (*fragment.Response, error) {
	if dp.d.Geocoder == nil {
		return nil, errDisabled("nominatim")
	}
	obsCmd := *cmd
	obsCmd.Target = parser.Target{Kind: parser.TargetUserPosition}
	pos, err := dp.resolve(ctx, &obsCmd)
	if err != nil {
		return nil, err
	}

	places, err := dp.d.Geocoder.FindNearby(ctx, cmd.Target.OsmPhrase, pos.Lat, pos.Lon, topN(cmd))
	if err != nil {
		return nil, err
	}

	r := &fragment.Response{}
	for i, p := range places {
		km := geo.Distance(pos.Lat, pos.Lon, p.Lat, p.Lon)
		brg := geo.Bearing(pos.Lat, pos.Lon, p.Lat, p.Lon)
		r.AddLine(itemTag(i), p.Name, fmtDistance(km, cmd.Units), fmtBearing(brg))
	}
	return r, nil
}

func (dp *Dispatcher) dapnet(ctx context.Context, cmd *parser.Command, highPriority bool) (*fragment.Response, error) {
	if dp.d.Pager == nil {
		return nil, errDisabled("dapnet")
	}
	confirmation, err := dp.d.Pager.Send(ctx, cmd.Sender, cmd.Target.DapnetUser, cmd.Text, highPriority)
	if err != nil {
		return nil, err
	}
	r := &fragment.Response{}
	r.AddText(confirmation)
	return r, nil
}

func (dp *Dispatcher) posmsg(ctx context.Context, cmd *parser.Command) (*fragment.Response, error) {
	if dp.d.Mailer == nil || !dp.d.Mailer.Enabled() {
		return nil, errDisabled("mail")
	}
	pos, err := dp.callsignPosition(ctx, cmd.Sender)
	if err != nil {
		return nil, err
	}
	if err := dp.d.Mailer.SendPosition(ctx, cmd.Target.Email, cmd.Sender, pos.Lat, pos.Lon, pos.LastSeen); err != nil {
		return nil, err
	}
	r := &fragment.Response{}
	r.AddText("Position report sent to " + cmd.Target.Email)
	return r, nil
}

func (dp *Dispatcher) sonde(ctx context.Context, cmd *parser.Command) (*fragment.Response, error) {
	if dp.d.Sondes == nil {
		return nil, errDisabled("radiosonde")
	}
	st, err := dp.d.Sondes.Status(ctx, cmd.Target.Callsign)
	if err != nil {
		return nil, err
	}

	tokens := []string{st.Callsign, st.Phase.String(),
		"alt " + fmtAltitude(st.Altitude, cmd.Units),
		fmt.Sprintf("clb %.1fm/s", st.ClimbRate),
		fmt.Sprintf("burst ~%s", fmtAltitude(st.BurstAltitude, cmd.Units)),
		"Grid " + geo.ToMaidenhead(st.Lat, st.Lon),
		fmt.Sprintf("%.4f/%.4f", st.Lat, st.Lon),
	}
	if !st.LastSeen.IsZero() {
		tokens = append(tokens, "Last "+fmtDateTime(st.LastSeen))
	}

	r := &fragment.Response{}
	r.AddLine(tokens...)
	return r, nil
}
