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

// Package dispatch turns parsed commands into responses. It is the
// only component that resolves symbolic targets (callsigns, grids,
// city names, zip codes) into coordinates; providers receive plain
// lat/lon.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"

	"github.com/hamnet/aprsbot/fragment"
	"github.com/hamnet/aprsbot/parser"
	"github.com/hamnet/aprsbot/providers"
	"github.com/hamnet/aprsbot/providers/aprsfi"
	"github.com/hamnet/aprsbot/providers/celestial"
	"github.com/hamnet/aprsbot/providers/cwop"
	"github.com/hamnet/aprsbot/providers/fortune"
	"github.com/hamnet/aprsbot/providers/nominatim"
	"github.com/hamnet/aprsbot/providers/openweather"
	"github.com/hamnet/aprsbot/providers/radiosonde"
	"github.com/hamnet/aprsbot/refcache"
	"github.com/hamnet/aprsbot/stats"
)

// Weather delivers forecasts.
type Weather interface {
	Forecast(ctx context.Context, lat, lon float64, units, lang string) (*openweather.Forecast, error)
}

// Positions looks up station positions.
type Positions interface {
	Position(ctx context.Context, callsign string) (*aprsfi.Position, error)
}

// Geocoder resolves place descriptions and points of interest.
type Geocoder interface {
	Geocode(ctx context.Context, city, state, country string) (*nominatim.Place, error)
	GeocodeZip(ctx context.Context, zip, country string) (*nominatim.Place, error)
	Reverse(ctx context.Context, lat, lon float64) (*nominatim.Place, error)
	FindNearby(ctx context.Context, category string, lat, lon float64, n int) ([]*nominatim.Place, error)
}

// Aviation delivers raw METAR and TAF reports.
type Aviation interface {
	Report(ctx context.Context, icao string) (string, error)
	TAF(ctx context.Context, icao string) (string, error)
}

// WxStations delivers CWOP observations.
type WxStations interface {
	ByID(ctx context.Context, id, units string) (*cwop.Report, error)
	Nearest(ctx context.Context, lat, lon float64, units string) (*cwop.Report, error)
}

// Pager sends DAPNET messages.
type Pager interface {
	Send(ctx context.Context, fromCallsign, toCallsign, text string, highPriority bool) (string, error)
}

// Mailer sends position report emails.
type Mailer interface {
	Enabled() bool
	SendPosition(ctx context.Context, recipient, callsign string, lat, lon float64, lastSeen time.Time) error
}

// Sondes tracks radiosonde flights.
type Sondes interface {
	Status(ctx context.Context, callsign string) (*radiosonde.Status, error)
}

// Deps are the collaborators a Dispatcher needs. Store is mandatory,
// nil provider fields surface as disabled features.
type Deps struct {
	Store      *refcache.Store
	Weather    Weather
	Positions  Positions
	Geocoder   Geocoder
	Aviation   Aviation
	WxStations WxStations
	Pager      Pager
	Mailer     Mailer
	Sondes     Sondes
	Stats      *stats.Stats
	Clock      clock.Clock

	// MinPassElevation is the satellite pass threshold in degrees.
	MinPassElevation float64
}

// Dispatcher executes commands.
type Dispatcher struct {
	d Deps
}

// New creates a Dispatcher.
func New(d Deps) *Dispatcher {
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.MinPassElevation <= 0 {
		d.MinPassElevation = celestial.DefaultMinElevation
	}
	return &Dispatcher{d: d}
}

// Dispatch executes one command and always produces a response; any
// provider failure is mapped to its user-visible text.
func (dp *Dispatcher) Dispatch(ctx context.Context, cmd *parser.Command) *fragment.Response {
	resp, err := dp.run(ctx, cmd)
	if err != nil {
		if dp.d.Stats != nil {
			dp.d.Stats.ProviderErrors.Inc()
		}
		log.Warnf("request %q from %s failed: %v", cmd.Action, cmd.Sender, err)
		r := &fragment.Response{}
		r.AddText(failureText(err))
		return r
	}
	return resp
}

func (dp *Dispatcher) run(ctx context.Context, cmd *parser.Command) (*fragment.Response, error) {
	switch cmd.Action {
	case parser.ActionWx:
		return dp.wx(ctx, cmd)
	case parser.ActionMetar:
		return dp.metarTaf(ctx, cmd, true, false)
	case parser.ActionTaf:
		return dp.metarTaf(ctx, cmd, false, true)
	case parser.ActionMetarTafFull:
		return dp.metarTaf(ctx, cmd, true, true)
	case parser.ActionCwop:
		return dp.cwop(ctx, cmd)
	case parser.ActionWhereIs, parser.ActionWhereAmI:
		return dp.whereis(ctx, cmd)
	case parser.ActionRiseSet:
		return dp.riseset(ctx, cmd)
	case parser.ActionSatPass, parser.ActionVisPass:
		return dp.satpass(ctx, cmd, cmd.Action == parser.ActionVisPass)
	case parser.ActionSatFreq:
		return dp.satfreq(cmd)
	case parser.ActionRepeater:
		return dp.repeater(ctx, cmd)
	case parser.ActionOsmCategory:
		return dp.osm(ctx, cmd)
	case parser.ActionDapnet, parser.ActionDapnetHighPri:
		return dp.dapnet(ctx, cmd, cmd.Action == parser.ActionDapnetHighPri)
	case parser.ActionPosMsg:
		return dp.posmsg(ctx, cmd)
	case parser.ActionSonde:
		return dp.sonde(ctx, cmd)
	case parser.ActionFortune:
		r := &fragment.Response{}
		r.AddText(fortune.Tell(cmd.Language))
		return r, nil
	case parser.ActionHelp:
		return helpResponse(), nil
	default:
		return unknownResponse(), nil
	}
}

func helpResponse() *fragment.Response {
	r := &fragment.Response{}
	r.AddText("Commands: wx metar taf cwop whereis whereami riseset satpass vispass satfreq repeater osm dapnet posmsg sonde fortuneteller")
	r.AddText("Modifiers: today..sunday Nd Nh morn day eve nite mtr imp lang xx top2..top5 unicode")
	return r
}

func unknownResponse() *fragment.Response {
	r := &fragment.Response{}
	r.AddText("Sorry, I did not understand your request. Send 'help' for usage")
	return r
}

// failureText maps a provider failure class to the canned text the
// requester sees.
func failureText(err error) string {
	switch providers.KindOf(err) {
	case providers.KindDisabled:
		return "This feature is not enabled on this instance"
	case providers.KindTransport, providers.KindProvider:
		return "The service is temporarily unavailable, please try again later"
	case providers.KindSemantic:
		var pe *providers.Error
		if errors.As(err, &pe) && pe.Err != nil {
			return "Sorry: " + pe.Err.Error()
		}
		return "Sorry, no data found for your request"
	default:
		return "Unable to process your request"
	}
}

// errDisabled is returned for features whose provider is not wired.
func errDisabled(op string) error {
	return providers.Errorf(providers.KindDisabled, op, "not configured")
}
