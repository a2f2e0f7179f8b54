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

// Package dwd fetches the active severe-weather warnings published by
// Deutscher Wetterdienst, keyed by warncell id. The upstream serves
// JSONP; the wrapper is stripped before decoding.
package dwd

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hamnet/aprsbot/providers"
)

// DefaultBaseURL is the DWD warnapp feed.
const DefaultBaseURL = "https://www.dwd.de/DWD/warnungen/warnapp/json/warnings.json"

// Warning is one active warning for a warncell.
type Warning struct {
	Event string
	End   time.Time
}

// Client fetches the warning feed.
type Client struct {
	baseURL string
	hc      *http.Client
}

// New creates a Client against the public feed.
func New() *Client {
	return NewWithBaseURL(DefaultBaseURL, providers.NewHTTPClient())
}

// NewWithBaseURL is used by tests to point at a stub server.
func NewWithBaseURL(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, hc: hc}
}

// Warnings returns the currently active warnings grouped by warncell
// id. Entries without an event name or end time are dropped.
func (c *Client) Warnings(ctx context.Context) (map[string][]Warning, error) {
	const op = "dwd"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, providers.E(providers.KindInternal, op, err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, providers.E(providers.KindTransport, op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, providers.Errorf(providers.KindProvider, op, "warning feed: HTTP%d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providers.E(providers.KindTransport, op, err)
	}

	// the feed is JSONP: warnWetter.loadWarnings({...});
	text := strings.TrimSpace(string(body))
	text = strings.TrimPrefix(text, "warnWetter.loadWarnings(")
	text = strings.TrimSuffix(text, ";")
	text = strings.TrimSuffix(text, ")")

	var payload struct {
		Warnings map[string][]struct {
			Event string `json:"event"`
			End   int64  `json:"end"`
		} `json:"warnings"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, providers.E(providers.KindFormat, op, err)
	}

	out := make(map[string][]Warning, len(payload.Warnings))
	for cell, raw := range payload.Warnings {
		for _, w := range raw {
			if w.Event == "" || w.End == 0 {
				continue
			}
			out[cell] = append(out[cell], Warning{
				Event: w.Event,
				End:   time.UnixMilli(w.End).UTC(),
			})
		}
	}
	return out, nil
}
