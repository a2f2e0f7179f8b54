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

	"github.com/hamnet/aprsbot/geo"
	"github.com/hamnet/aprsbot/parser"
	"github.com/hamnet/aprsbot/providers"
	"github.com/hamnet/aprsbot/providers/nominatim"
)

// position is a resolved target: coordinates plus a display label.
type position struct {
	Lat   float64
	Lon   float64
	Label string
	// Altitude and LastSeen are only set for callsign targets.
	Altitude float64
	LastSeen time.Time
}

// resolve turns a symbolic target into coordinates. Only positional
// target kinds are accepted; actions with non-positional targets
// (satellites, pager users, email) never call it.
func (dp *Dispatcher) resolve(ctx context.Context, cmd *parser.Command) (*position, error) {
	const op = "resolve"
	t := cmd.Target

	switch t.Kind {
	case parser.TargetUserPosition:
		return dp.callsignPosition(ctx, cmd.Sender)

	case parser.TargetOtherCallsign:
		return dp.callsignPosition(ctx, t.Callsign)

	case parser.TargetLatLon:
		return &position{Lat: t.Lat, Lon: t.Lon, Label: fmt.Sprintf("%.4f/%.4f", t.Lat, t.Lon)}, nil

	case parser.TargetGrid:
		lat, lon, err := geo.FromMaidenhead(t.Grid)
		if err != nil {
			return nil, providers.E(providers.KindSemantic, op, err)
		}
		return &position{Lat: lat, Lon: lon, Label: strings.ToUpper(t.Grid[:2]) + t.Grid[2:]}, nil

	case parser.TargetZip:
		if dp.d.Geocoder == nil {
			return nil, errDisabled(op)
		}
		country := t.Country
		if country == "" {
			country = "us"
		}
		place, err := dp.d.Geocoder.GeocodeZip(ctx, t.Zip, country)
		if err != nil {
			return nil, err
		}
		return placePosition(place), nil

	case parser.TargetCityCountry:
		if dp.d.Geocoder == nil {
			return nil, errDisabled(op)
		}
		place, err := dp.d.Geocoder.Geocode(ctx, t.City, t.State, t.Country)
		if err != nil {
			return nil, err
		}
		return placePosition(place), nil

	case parser.TargetIcao, parser.TargetIata:
		airports := dp.d.Store.Airports()
		ap := airports.ByICAO(t.Icao)
		if t.Kind == parser.TargetIata {
			ap = airports.ByIATA(t.Iata)
		}
		if ap == nil {
			return nil, providers.Errorf(providers.KindSemantic, op, "unknown airport")
		}
		return &position{Lat: ap.Lat, Lon: ap.Lon, Label: ap.ICAO}, nil
	}

	return nil, providers.Errorf(providers.KindInternal, op, "target kind %d has no position", t.Kind)
}

func (dp *Dispatcher) callsignPosition(ctx context.Context, callsign string) (*position, error) {
	if dp.d.Positions == nil {
		return nil, errDisabled("aprsfi")
	}
	pos, err := dp.d.Positions.Position(ctx, callsign)
	if err != nil {
		return nil, err
	}
	return &position{
		Lat:      pos.Lat,
		Lon:      pos.Lon,
		Label:    pos.Callsign,
		Altitude: pos.Altitude,
		LastSeen: pos.LastTime,
	}, nil
}

func placePosition(place *nominatim.Place) *position {
	label := place.City
	if label == "" {
		label = place.Name
	}
	if place.CountryCode != "" {
		label += ";" + place.CountryCode
	}
	return &position{Lat: place.Lat, Lon: place.Lon, Label: label}
}

// placeLabel reverse geocodes coordinates into "City;CC", falling back
// to bare coordinates when the geocoder is unavailable.
func (dp *Dispatcher) placeLabel(ctx context.Context, lat, lon float64) string {
	if dp.d.Geocoder != nil {
		if place, err := dp.d.Geocoder.Reverse(ctx, lat, lon); err == nil {
			return placePosition(place).Label
		}
	}
	return fmt.Sprintf("%.2f/%.2f", lat, lon)
}
