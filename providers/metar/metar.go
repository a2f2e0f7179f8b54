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

// Package metar fetches raw METAR and TAF reports from aviationweather.gov.
package metar

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/hamnet/aprsbot/providers"
)

// DefaultBaseURL is the aviationweather.gov data API.
const DefaultBaseURL = "https://aviationweather.gov/api/data"

// Client fetches aviation weather reports.
type Client struct {
	baseURL string
	hc      *http.Client
}

// New creates a Client against aviationweather.gov.
func New() *Client {
	return NewWithBaseURL(DefaultBaseURL, providers.NewHTTPClient())
}

// NewWithBaseURL is used by tests to point at a stub server.
func NewWithBaseURL(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, hc: hc}
}

func (c *Client) fetch(ctx context.Context, kind, icao string) (string, error) {
	const op = "metar"
	icao = strings.ToUpper(icao)
	q := url.Values{}
	q.Set("ids", icao)
	q.Set("format", "raw")
	body, err := providers.GetText(ctx, c.hc, op, c.baseURL+"/"+kind+"?"+q.Encode())
	if err != nil {
		return "", err
	}
	report := strings.TrimSpace(body)
	if report == "" {
		return "", providers.Errorf(providers.KindSemantic, op, "no %s for %s", kind, icao)
	}
	// TAF responses span multiple continuation lines, flatten them.
	return strings.Join(strings.Fields(report), " "), nil
}

// Report returns the latest raw METAR for an ICAO identifier.
func (c *Client) Report(ctx context.Context, icao string) (string, error) {
	return c.fetch(ctx, "metar", icao)
}

// TAF returns the latest raw TAF for an ICAO identifier.
func (c *Client) TAF(ctx context.Context, icao string) (string, error) {
	return c.fetch(ctx, "taf", icao)
}
