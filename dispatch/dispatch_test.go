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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/hamnet/aprsbot/fragment"
	"github.com/hamnet/aprsbot/parser"
	"github.com/hamnet/aprsbot/providers"
	"github.com/hamnet/aprsbot/providers/aprsfi"
	"github.com/hamnet/aprsbot/providers/cwop"
	"github.com/hamnet/aprsbot/providers/nominatim"
	"github.com/hamnet/aprsbot/providers/openweather"
	"github.com/hamnet/aprsbot/providers/radiosonde"
	"github.com/hamnet/aprsbot/refcache"
	"github.com/hamnet/aprsbot/stats"
)

var anchor = time.Date(2021, 1, 16, 12, 0, 0, 0, time.UTC)

const (
	issLine1 = "1 25544U 98067A   21015.54627907  .00001207  00000-0  30026-4 0  9995"
	issLine2 = "2 25544  51.6449  85.0992 0000410 168.5197 298.4815 15.49284234265268"
)

func stationLine(name, icao, iata string, latDeg, latMin int, ns string, lonDeg, lonMin int, ew string, metar bool) string {
	line := []byte(strings.Repeat(" ", 70))
	paste := func(at int, s string) { copy(line[at:], s) }
	paste(3, name)
	paste(20, icao)
	paste(26, iata)
	paste(39, fmt.Sprintf("%02d %02d%s", latDeg, latMin, ns))
	paste(47, fmt.Sprintf("%03d %02d%s", lonDeg, lonMin, ew))
	if metar {
		paste(62, "X")
	}
	return string(line)
}

func testStore(t *testing.T) *refcache.Store {
	t.Helper()
	dir := t.TempDir()

	stations := strings.Join([]string{
		stationLine("FRANKFURT/MAIN", "EDDF", "FRA", 50, 2, "N", 8, 34, "E", true),
		stationLine("NEW YORK/JFK", "KJFK", "JFK", 40, 38, "N", 73, 46, "W", true),
		stationLine("NO METAR FIELD", "XXXX", "", 50, 30, "N", 9, 0, "E", false),
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stations.txt"), []byte(stations), 0644))

	tle := "ISS (ZARYA)\n" + issLine1 + "\n" + issLine2 + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "amateur.tle"), []byte(tle), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "satfreq.csv"),
		[]byte("ISS (ZARYA),145.990,145.800,FM APRS\n"), 0644))

	repeaters := `{"relais":[
	 {"id":1,"call":"DB0XYZ","mode":"c4fm","rx":438.5,"tx":430.9,"lat":51.5,"lon":8.3,"qth":"Paderborn","remarks":""},
	 {"id":2,"call":"DB0ABC","mode":"fm","rx":145.6,"tx":145.0,"lat":51.9,"lon":9.5,"qth":"Holzminden","remarks":""}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "repeatermap.json"), []byte(repeaters), 0644))

	store, err := refcache.NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Load())
	return store
}

type stubWeather struct {
	fc  *openweather.Forecast
	err error
	// captured
	lat, lon    float64
	units, lang string
}

func (s *stubWeather) Forecast(ctx context.Context, lat, lon float64, units, lang string) (*openweather.Forecast, error) {
	s.lat, s.lon, s.units, s.lang = lat, lon, units, lang
	return s.fc, s.err
}

type stubPositions struct {
	byCall map[string]*aprsfi.Position
}

func (s *stubPositions) Position(ctx context.Context, callsign string) (*aprsfi.Position, error) {
	if p, ok := s.byCall[strings.ToUpper(callsign)]; ok {
		return p, nil
	}
	return nil, providers.Errorf(providers.KindSemantic, "aprsfi", "no position for %s", strings.ToUpper(callsign))
}

type stubGeocoder struct {
	place  *nominatim.Place
	nearby []*nominatim.Place
}

func (s *stubGeocoder) Geocode(ctx context.Context, city, state, country string) (*nominatim.Place, error) {
	return s.place, nil
}

func (s *stubGeocoder) GeocodeZip(ctx context.Context, zip, country string) (*nominatim.Place, error) {
	return s.place, nil
}

func (s *stubGeocoder) Reverse(ctx context.Context, lat, lon float64) (*nominatim.Place, error) {
	return s.place, nil
}

func (s *stubGeocoder) FindNearby(ctx context.Context, category string, lat, lon float64, n int) ([]*nominatim.Place, error) {
	if len(s.nearby) == 0 {
		return nil, providers.Errorf(providers.KindSemantic, "nominatim", "no %s found nearby", category)
	}
	if len(s.nearby) > n {
		return s.nearby[:n], nil
	}
	return s.nearby, nil
}

type stubAviation struct {
	metar, taf string
	lastICAO   string
}

func (s *stubAviation) Report(ctx context.Context, icao string) (string, error) {
	s.lastICAO = icao
	return s.metar, nil
}

func (s *stubAviation) TAF(ctx context.Context, icao string) (string, error) {
	s.lastICAO = icao
	return s.taf, nil
}

type stubCwop struct {
	report *cwop.Report
}

func (s *stubCwop) ByID(ctx context.Context, id, units string) (*cwop.Report, error) {
	return s.report, nil
}

func (s *stubCwop) Nearest(ctx context.Context, lat, lon float64, units string) (*cwop.Report, error) {
	return s.report, nil
}

type stubPager struct {
	from, to, text string
	highPriority   bool
	err            error
}

func (s *stubPager) Send(ctx context.Context, fromCallsign, toCallsign, text string, highPriority bool) (string, error) {
	s.from, s.to, s.text, s.highPriority = fromCallsign, toCallsign, text, highPriority
	if s.err != nil {
		return "", s.err
	}
	return "DAPNET message dispatch to " + toCallsign + " via 'dl-all' successful", nil
}

type stubMailer struct {
	enabled   bool
	recipient string
	callsign  string
}

func (s *stubMailer) Enabled() bool { return s.enabled }

func (s *stubMailer) SendPosition(ctx context.Context, recipient, callsign string, lat, lon float64, lastSeen time.Time) error {
	s.recipient, s.callsign = recipient, callsign
	return nil
}

type stubSondes struct {
	status *radiosonde.Status
}

func (s *stubSondes) Status(ctx context.Context, callsign string) (*radiosonde.Status, error) {
	return s.status, nil
}

// payloads renders a response and joins the fragment payloads, which is
// what the requester ultimately reads.
func payloads(t *testing.T, r *fragment.Response) string {
	t.Helper()
	require.NotNil(t, r)
	frags := fragment.New(fragment.NewCounter()).Render(r, true, false)
	parts := make([]string, 0, len(frags))
	for _, f := range frags {
		parts = append(parts, f.Payload)
	}
	return strings.Join(parts, " ")
}

func holzminden() *nominatim.Place {
	return &nominatim.Place{
		Name:        "Holzminden, Niedersachsen, Deutschland",
		Lat:         51.8295,
		Lon:         9.4476,
		City:        "Holzminden",
		Zipcode:     "37603",
		CountryCode: "DE",
	}
}

func testForecast() *openweather.Forecast {
	return &openweather.Forecast{
		UTCOffset: time.Hour,
		Days: []openweather.DayForecast{
			{
				Date:      time.Date(2021, 1, 16, 11, 0, 0, 0, time.UTC),
				Summary:   "Bedeckt",
				TempMorn:  -3, TempDay: -1, TempEve: -2, TempNight: -4,
				Sunrise:  time.Date(2021, 1, 16, 7, 31, 0, 0, time.UTC),
				Sunset:   time.Date(2021, 1, 16, 16, 5, 0, 0, time.UTC),
				CloudPct: 90, Humidity: 87, Pressure: 1019, DewPoint: -5,
				UVI: 0.3, WindSpeed: 2, WindDeg: 240,
			},
			{
				Date:    time.Date(2021, 1, 17, 11, 0, 0, 0, time.UTC),
				Summary: "leichter Schnee",
				TempDay: 0,
			},
		},
		Hours: []openweather.HourForecast{
			{Time: time.Date(2021, 1, 16, 15, 0, 0, 0, time.UTC), Temp: -2, Summary: "Bedeckt"},
			{Time: time.Date(2021, 1, 16, 16, 0, 0, 0, time.UTC), Temp: -3, Summary: "Bedeckt"},
		},
	}
}

func testDispatcher(t *testing.T, mutate func(*Deps)) *Dispatcher {
	t.Helper()
	mock := clock.NewMock()
	mock.Set(anchor)
	d := Deps{
		Store:     testStore(t),
		Weather:   &stubWeather{fc: testForecast()},
		Positions: &stubPositions{byCall: map[string]*aprsfi.Position{
			"DF1JSL-1": {Callsign: "DF1JSL-1", Lat: 51.84, Lon: 9.45, Altitude: 90, LastTime: anchor.Add(-10 * time.Minute)},
			"DF1JSL-8": {Callsign: "DF1JSL-8", Lat: 51.90, Lon: 9.55, Altitude: 120, LastTime: anchor.Add(-5 * time.Minute)},
		}},
		Geocoder:   &stubGeocoder{place: holzminden()},
		Aviation:   &stubAviation{metar: "EDDF 161150Z 24008KT 9999 BKN046 02/M02 Q1018", taf: "TAF EDDF 161100Z 1612/1718 24008KT"},
		WxStations: &stubCwop{report: &cwop.Report{ID: "AT166", Time: "20210116120500", Temperature: "-2.8", WindDirection: "240", WindSpeed: "11.1", WindGust: "18.5", Rain1h: "0.00", Rain24h: "0.25", RainMidnight: "0.25", Humidity: "87", Pressure: "1018.2"}},
		Pager:      &stubPager{},
		Mailer:     &stubMailer{enabled: true},
		Sondes:     &stubSondes{},
		Stats:      stats.New(),
		Clock:      mock,
	}
	if mutate != nil {
		mutate(&d)
	}
	return New(d)
}

func cmdWith(action parser.Action, target parser.Target) *parser.Command {
	return &parser.Command{
		Action:   action,
		Target:   target,
		Language: "de",
		Sender:   "DF1JSL-1",
		TopN:     1,
	}
}

func TestWxDailyForCity(t *testing.T) {
	dp := testDispatcher(t, nil)
	cmd := cmdWith(parser.ActionWx, parser.Target{Kind: parser.TargetCityCountry, City: "Holzminden", Country: "DE"})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "16-Jan-21")
	require.Contains(t, out, "Holzminden;DE")
	require.Contains(t, out, "Bedeckt")
	require.Contains(t, out, "morn:-3c")
	require.Contains(t, out, "day:-1c")
	require.Contains(t, out, "eve:-2c")
	require.Contains(t, out, "nite:-4c")
	require.Contains(t, out, "sunrise/set 07:31/16:05UTC")
	require.Contains(t, out, "clouds:90%")
	require.Contains(t, out, "hum:87%")
	require.Contains(t, out, "wnddeg:240")
}

func TestWxSingleDaytime(t *testing.T) {
	dp := testDispatcher(t, nil)
	cmd := cmdWith(parser.ActionWx, parser.Target{Kind: parser.TargetCityCountry, City: "Holzminden", Country: "DE"})
	cmd.Daytime = parser.DaytimeMorning

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "morn:-3c")
	require.NotContains(t, out, "day:-1c")
	require.NotContains(t, out, "nite:")
}

func TestWxTomorrow(t *testing.T) {
	dp := testDispatcher(t, nil)
	cmd := cmdWith(parser.ActionWx, parser.Target{Kind: parser.TargetCityCountry, City: "Holzminden", Country: "DE"})
	cmd.DayOffset = 1

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "17-Jan-21")
	require.Contains(t, out, "leichter Schnee")
}

func TestWxHourOffset(t *testing.T) {
	dp := testDispatcher(t, nil)
	cmd := cmdWith(parser.ActionWx, parser.Target{Kind: parser.TargetCityCountry, City: "Holzminden", Country: "DE"})
	cmd.HourOffset = 3 // 15:00 UTC, matches the first hourly entry

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "16:00") // 15:00 UTC in local time
	require.Contains(t, out, "-2c")
}

func TestWxUsesSenderPositionByDefault(t *testing.T) {
	w := &stubWeather{fc: testForecast()}
	dp := testDispatcher(t, func(d *Deps) { d.Weather = w })
	cmd := cmdWith(parser.ActionWx, parser.Target{Kind: parser.TargetUserPosition})

	payloads(t, dp.Dispatch(context.Background(), cmd))
	require.InDelta(t, 51.84, w.lat, 1e-9)
	require.InDelta(t, 9.45, w.lon, 1e-9)
	require.Equal(t, "metric", w.units)
	require.Equal(t, "de", w.lang)
}

func TestWxImperialUnitsPassThrough(t *testing.T) {
	w := &stubWeather{fc: testForecast()}
	dp := testDispatcher(t, func(d *Deps) { d.Weather = w })
	cmd := cmdWith(parser.ActionWx, parser.Target{Kind: parser.TargetUserPosition})
	cmd.Units = parser.UnitsImperial

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Equal(t, "imperial", w.units)
	require.Contains(t, out, "morn:-3f")
}

func TestWxDisabled(t *testing.T) {
	dp := testDispatcher(t, func(d *Deps) { d.Weather = nil })
	cmd := cmdWith(parser.ActionWx, parser.Target{Kind: parser.TargetUserPosition})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "not enabled")
}

func TestMetarByIATA(t *testing.T) {
	av := &stubAviation{metar: "EDDF 161150Z ..."}
	dp := testDispatcher(t, func(d *Deps) { d.Aviation = av })
	cmd := cmdWith(parser.ActionMetar, parser.Target{Kind: parser.TargetIata, Iata: "fra"})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Equal(t, "EDDF", av.lastICAO)
	require.Contains(t, out, "EDDF 161150Z")
}

func TestMetarFullCarriesSeparator(t *testing.T) {
	dp := testDispatcher(t, nil)
	cmd := cmdWith(parser.ActionMetarTafFull, parser.Target{Kind: parser.TargetIcao, Icao: "eddf"})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "Q1018")
	require.Contains(t, out, fragment.MetarTafSeparator)
	require.Contains(t, out, "TAF EDDF")
}

func TestMetarRedirectsToReportingAirport(t *testing.T) {
	av := &stubAviation{metar: "x"}
	dp := testDispatcher(t, func(d *Deps) { d.Aviation = av })
	// XXXX has no METAR flag; EDDF is the nearest reporting airport.
	cmd := cmdWith(parser.ActionMetar, parser.Target{Kind: parser.TargetIcao, Icao: "xxxx"})

	payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Equal(t, "EDDF", av.lastICAO)
}

func TestMetarNearestForPosition(t *testing.T) {
	av := &stubAviation{metar: "x"}
	dp := testDispatcher(t, func(d *Deps) { d.Aviation = av })
	cmd := cmdWith(parser.ActionMetar, parser.Target{Kind: parser.TargetUserPosition})

	payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Equal(t, "EDDF", av.lastICAO)
}

func TestCwopByStation(t *testing.T) {
	dp := testDispatcher(t, nil)
	cmd := cmdWith(parser.ActionCwop, parser.Target{Kind: parser.TargetCwopStation, CwopID: "AT166"})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "CWOP AT166")
	require.Contains(t, out, "16-Jan-21 12:05UTC")
	require.Contains(t, out, "-2.8c")
	require.Contains(t, out, "Wind 240deg 11.1km/h Gust 18.5km/h")
	require.Contains(t, out, "Rain(1h/24h/mn) 0.00/0.25/0.25")
	require.Contains(t, out, "Hum 87%")
	require.Contains(t, out, "1018.2mb")
}

func TestWhereis(t *testing.T) {
	dp := testDispatcher(t, nil)
	cmd := cmdWith(parser.ActionWhereIs, parser.Target{Kind: parser.TargetOtherCallsign, Callsign: "DF1JSL-8"})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "Pos DF1JSL-8")
	require.Contains(t, out, "Grid ")
	require.Contains(t, out, "DMS ")
	require.Contains(t, out, "UTM ")
	require.Contains(t, out, "MGRS ")
	require.Contains(t, out, "Alt 120m")
	require.Contains(t, out, "Dst ")
	require.Contains(t, out, "Brg ")
	require.Contains(t, out, "Addr Holzminden;DE")
	require.Contains(t, out, "Last 16-Jan-21 11:55UTC")
	require.Contains(t, out, "LatLon 51.90000/9.55000")

	// fixed token order: Grid, DMS, Dst, Brg, UTM, MGRS, LatLon, Addr, Last
	prev := -1
	for _, tok := range []string{"Grid ", "DMS ", "Dst ", "Brg ", "UTM ", "MGRS ", "LatLon ", "Addr ", "Last "} {
		at := strings.Index(out, tok)
		require.Greater(t, at, prev, tok)
		prev = at
	}
}

func TestWhereami(t *testing.T) {
	dp := testDispatcher(t, nil)
	cmd := cmdWith(parser.ActionWhereAmI, parser.Target{Kind: parser.TargetUserPosition})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "Pos DF1JSL-1")
	require.NotContains(t, out, "Dst ")
}

func TestRiseSet(t *testing.T) {
	dp := testDispatcher(t, nil)
	cmd := cmdWith(parser.ActionRiseSet, parser.Target{Kind: parser.TargetUserPosition})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "RiseSet")
	require.Contains(t, out, "16-Jan-21")
	require.Contains(t, out, "GMT")
	require.Contains(t, out, "sr/ss ")
	require.Contains(t, out, "mr/ms ")
}

func TestSatPass(t *testing.T) {
	dp := testDispatcher(t, nil)
	cmd := cmdWith(parser.ActionSatPass, parser.Target{Kind: parser.TargetSatellite, Satellite: "iss"})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "ISS UTC")
	require.Contains(t, out, "#1 rise ")
	require.Contains(t, out, "max el")
	require.Contains(t, out, "set ")
}

func TestSatPassDaytimeWindow(t *testing.T) {
	dp := testDispatcher(t, nil)
	cmd := cmdWith(parser.ActionSatPass, parser.Target{Kind: parser.TargetSatellite, Satellite: "iss"})
	cmd.Daytime = parser.DaytimeNight
	cmd.TopN = 3

	// "night" pins the prediction start to midnight, so the listed
	// passes cover the whole of the 16th instead of starting at noon
	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "#1 rise 16-Jan")
}

func TestDaytimeHour(t *testing.T) {
	for d, want := range map[parser.Daytime]int{
		parser.DaytimeNight:   0,
		parser.DaytimeMorning: 6,
		parser.DaytimeDay:     12,
		parser.DaytimeEvening: 18,
	} {
		h, ok := daytimeHour(d)
		require.True(t, ok)
		require.Equal(t, want, h)
	}
	_, ok := daytimeHour(parser.DaytimeFull)
	require.False(t, ok)
}

func TestSatPassUnknownSatellite(t *testing.T) {
	dp := testDispatcher(t, nil)
	cmd := cmdWith(parser.ActionSatPass, parser.Target{Kind: parser.TargetSatellite, Satellite: "ao-91"})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "Sorry")
	require.Contains(t, out, "AO-91")
}

func TestSatFreq(t *testing.T) {
	dp := testDispatcher(t, nil)
	cmd := cmdWith(parser.ActionSatFreq, parser.Target{Kind: parser.TargetSatellite, Satellite: "zarya"})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "ISS")
	require.Contains(t, out, "#1 up 145.990 dn 145.800 FM APRS")
}

func TestRepeaterNearest(t *testing.T) {
	dp := testDispatcher(t, nil)
	cmd := cmdWith(parser.ActionRepeater, parser.Target{Kind: parser.TargetRepeaterFilter})
	cmd.TopN = 2

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	// DB0ABC is a few km away, DB0XYZ some 80km; an unfiltered request
	// lists mode and band for each hit
	require.Contains(t, out, "#1 DB0ABC FM 2m 145.6000MHz")
	require.Contains(t, out, "#2 DB0XYZ C4FM 70cm 438.5000MHz")
	require.Contains(t, out, "Holzminden")
}

func TestRepeaterBandFilter(t *testing.T) {
	dp := testDispatcher(t, nil)
	cmd := cmdWith(parser.ActionRepeater, parser.Target{Kind: parser.TargetRepeaterFilter, Band: "70cm"})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "DB0XYZ")
	require.NotContains(t, out, "DB0ABC")
	// the band the user asked for is not echoed back
	require.Contains(t, out, "#1 DB0XYZ C4FM 438.5000MHz")
}

func TestRepeaterModeFilterNotEchoed(t *testing.T) {
	dp := testDispatcher(t, nil)
	cmd := cmdWith(parser.ActionRepeater, parser.Target{Kind: parser.TargetRepeaterFilter, Mode: "fm"})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "#1 DB0ABC 2m 145.6000MHz")
	require.NotContains(t, out, "DB0XYZ")
}

func TestOsmNearby(t *testing.T) {
	dp := testDispatcher(t, func(d *Deps) {
		d.Geocoder = &stubGeocoder{place: holzminden(), nearby: []*nominatim.Place{
			{Name: "Rats-Apotheke, Holzminden", Lat: 51.8288, Lon: 9.4489},
			{Name: "Sonnen-Apotheke, Holzminden", Lat: 51.8301, Lon: 9.4521},
		}}
	})
	cmd := cmdWith(parser.ActionOsmCategory, parser.Target{Kind: parser.TargetOsmPhrase, OsmPhrase: "pharmacy"})
	cmd.TopN = 2

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "#1 Rats-Apotheke, Holzminden")
	require.Contains(t, out, "#2 Sonnen-Apotheke, Holzminden")
}

func TestDapnet(t *testing.T) {
	pager := &stubPager{}
	dp := testDispatcher(t, func(d *Deps) { d.Pager = pager })
	cmd := cmdWith(parser.ActionDapnet, parser.Target{Kind: parser.TargetDapnetUser, DapnetUser: "DF1JSL"})
	cmd.Text = "see you at the club station"

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Equal(t, "DF1JSL-1", pager.from)
	require.Equal(t, "DF1JSL", pager.to)
	require.Equal(t, "see you at the club station", pager.text)
	require.False(t, pager.highPriority)
	require.Contains(t, out, "successful")
}

func TestDapnetHighPriority(t *testing.T) {
	pager := &stubPager{}
	dp := testDispatcher(t, func(d *Deps) { d.Pager = pager })
	cmd := cmdWith(parser.ActionDapnetHighPri, parser.Target{Kind: parser.TargetDapnetUser, DapnetUser: "DF1JSL"})
	cmd.Text = "urgent"

	payloads(t, dp.Dispatch(context.Background(), cmd))
	require.True(t, pager.highPriority)
}

func TestPosMsg(t *testing.T) {
	mailer := &stubMailer{enabled: true}
	dp := testDispatcher(t, func(d *Deps) { d.Mailer = mailer })
	cmd := cmdWith(parser.ActionPosMsg, parser.Target{Kind: parser.TargetEmail, Email: "someone@example.org"})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Equal(t, "someone@example.org", mailer.recipient)
	require.Equal(t, "DF1JSL-1", mailer.callsign)
	require.Contains(t, out, "Position report sent to someone@example.org")
}

func TestPosMsgDisabled(t *testing.T) {
	dp := testDispatcher(t, func(d *Deps) { d.Mailer = &stubMailer{enabled: false} })
	cmd := cmdWith(parser.ActionPosMsg, parser.Target{Kind: parser.TargetEmail, Email: "a@b"})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "not enabled")
}

func TestSonde(t *testing.T) {
	dp := testDispatcher(t, func(d *Deps) {
		d.Sondes = &stubSondes{status: &radiosonde.Status{
			Callsign:      "D12345678",
			Lat:           51.9,
			Lon:           9.5,
			Altitude:      12345,
			ClimbRate:     4.8,
			Phase:         radiosonde.PhaseAscent,
			AscentRate:    4.8,
			DescentRate:   5,
			BurstAltitude: 25000,
			LastSeen:      anchor.Add(-2 * time.Minute),
		}}
	})
	cmd := cmdWith(parser.ActionSonde, parser.Target{Kind: parser.TargetOtherCallsign, Callsign: "D12345678"})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "D12345678 ascending")
	require.Contains(t, out, "alt 12345m")
	require.Contains(t, out, "clb 4.8m/s")
	require.Contains(t, out, "burst ~25000m")
}

func TestFortuneAnswers(t *testing.T) {
	dp := testDispatcher(t, nil)
	cmd := cmdWith(parser.ActionFortune, parser.Target{})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.NotEmpty(t, out)
}

func TestHelp(t *testing.T) {
	dp := testDispatcher(t, nil)
	cmd := cmdWith(parser.ActionHelp, parser.Target{})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "Commands:")
	require.Contains(t, out, "wx")
}

func TestUnknown(t *testing.T) {
	dp := testDispatcher(t, nil)
	cmd := cmdWith(parser.ActionUnknown, parser.Target{})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "did not understand")
	require.Contains(t, out, "help")
}

func TestFailureTexts(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want string
	}{
		{providers.Errorf(providers.KindDisabled, "x", "off"), "not enabled"},
		{providers.Errorf(providers.KindTransport, "x", "down"), "temporarily unavailable"},
		{providers.Errorf(providers.KindProvider, "x", "500"), "temporarily unavailable"},
		{providers.Errorf(providers.KindSemantic, "x", "no data for KXYZ"), "Sorry: no data for KXYZ"},
		{providers.Errorf(providers.KindInternal, "x", "bug"), "Unable to process"},
		{context.DeadlineExceeded, "Unable to process"},
	} {
		require.Contains(t, failureText(tc.err), tc.want)
	}
}

func TestProviderErrorCounted(t *testing.T) {
	st := stats.New()
	dp := testDispatcher(t, func(d *Deps) {
		d.Stats = st
		d.Weather = &stubWeather{err: providers.Errorf(providers.KindTransport, "openweather", "down")}
	})
	cmd := cmdWith(parser.ActionWx, parser.Target{Kind: parser.TargetUserPosition})

	out := payloads(t, dp.Dispatch(context.Background(), cmd))
	require.Contains(t, out, "temporarily unavailable")
	require.Equal(t, 1.0, testutil.ToFloat64(st.ProviderErrors))
}
