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

// Package aprsfi looks up station positions through the aprs.fi API.
// Results are cached for a few minutes, stations do not move that fast.
package aprsfi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/hamnet/aprsbot/providers"
)

// DefaultBaseURL is the aprs.fi API endpoint.
const DefaultBaseURL = "https://api.aprs.fi/api/get"

const cacheTTL = 5 * time.Minute

// Position is the last known whereabouts of a station.
type Position struct {
	Callsign string
	Lat      float64
	Lon      float64
	Altitude float64 // meters, 0 when not reported
	Comment  string
	LastTime time.Time
}

// Client talks to aprs.fi.
type Client struct {
	apiKey  string
	baseURL string
	hc      *http.Client
	cache   *gocache.Cache
}

// New creates a Client. An empty apiKey leaves the provider disabled.
func New(apiKey string) *Client {
	return NewWithBaseURL(apiKey, DefaultBaseURL, providers.NewHTTPClient())
}

// NewWithBaseURL is used by tests to point at a stub server.
func NewWithBaseURL(apiKey, baseURL string, hc *http.Client) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		hc:      hc,
		cache:   gocache.New(cacheTTL, 2*cacheTTL),
	}
}

type rawEntry struct {
	Name     string `json:"name"`
	Lat      string `json:"lat"`
	Lng      string `json:"lng"`
	Altitude string `json:"altitude"`
	Comment  string `json:"comment"`
	LastTime string `json:"lasttime"`
}

type rawResponse struct {
	Result  string     `json:"result"`
	Found   int        `json:"found"`
	Entries []rawEntry `json:"entries"`
}

// Position returns the most recent position report for a callsign.
func (c *Client) Position(ctx context.Context, callsign string) (*Position, error) {
	const op = "aprsfi"
	if c.apiKey == "" {
		return nil, providers.Errorf(providers.KindDisabled, op, "no api key configured")
	}
	callsign = strings.ToUpper(callsign)
	if cached, ok := c.cache.Get(callsign); ok {
		return cached.(*Position), nil
	}

	q := url.Values{}
	q.Set("name", callsign)
	q.Set("what", "loc")
	q.Set("apikey", c.apiKey)
	q.Set("format", "json")

	var raw rawResponse
	if err := providers.GetJSON(ctx, c.hc, op, c.baseURL+"?"+q.Encode(), &raw); err != nil {
		return nil, err
	}
	if raw.Result != "ok" {
		return nil, providers.Errorf(providers.KindProvider, op, "result %q", raw.Result)
	}
	if raw.Found == 0 || len(raw.Entries) == 0 {
		return nil, providers.Errorf(providers.KindSemantic, op, "no position for %s", callsign)
	}

	e := raw.Entries[0]
	pos := &Position{Callsign: callsign, Comment: e.Comment}
	var err error
	if pos.Lat, err = strconv.ParseFloat(e.Lat, 64); err != nil {
		return nil, providers.E(providers.KindFormat, op, fmt.Errorf("lat %q", e.Lat))
	}
	if pos.Lon, err = strconv.ParseFloat(e.Lng, 64); err != nil {
		return nil, providers.E(providers.KindFormat, op, fmt.Errorf("lng %q", e.Lng))
	}
	if e.Altitude != "" {
		pos.Altitude, _ = strconv.ParseFloat(e.Altitude, 64)
	}
	if ts, err := strconv.ParseInt(e.LastTime, 10, 64); err == nil {
		pos.LastTime = time.Unix(ts, 0).UTC()
	}

	c.cache.SetDefault(callsign, pos)
	return pos, nil
}
