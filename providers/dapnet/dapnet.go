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

// Package dapnet sends pager messages through the DAPNET API on
// hampager.de.
package dapnet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/hamnet/aprsbot/fragment"
	"github.com/hamnet/aprsbot/providers"
)

// DefaultBaseURL is the DAPNET calls endpoint.
const DefaultBaseURL = "http://www.hampager.de/api/calls"

// DefaultTransmitterGroup reaches all German transmitters.
const DefaultTransmitterGroup = "dl-all"

// Pager frames carry at most this many characters.
const maxPagerText = 80

// ssidRe matches a callsign with an SSID suffix.
var ssidRe = regexp.MustCompile(`(?i)^([a-z0-9]{1,3}[0-9][a-z0-9]{0,3})-[a-z0-9]{1,2}$`)

// Client posts pager calls to DAPNET.
type Client struct {
	login            string
	password         string
	transmitterGroup string
	baseURL          string
	hc               *http.Client
}

// New creates a Client. An empty or "N0CALL" login leaves the provider
// disabled.
func New(login, password string) *Client {
	return NewWithBaseURL(login, password, DefaultTransmitterGroup, DefaultBaseURL, providers.NewHTTPClient())
}

// NewWithBaseURL is used by tests to point at a stub server.
func NewWithBaseURL(login, password, transmitterGroup, baseURL string, hc *http.Client) *Client {
	if transmitterGroup == "" {
		transmitterGroup = DefaultTransmitterGroup
	}
	return &Client{
		login:            login,
		password:         password,
		transmitterGroup: transmitterGroup,
		baseURL:          baseURL,
		hc:               hc,
	}
}

// stripSSID reduces an APRS callsign like DF1JSL-8 to its base call.
func stripSSID(callsign string) string {
	if m := ssidRe.FindStringSubmatch(callsign); m != nil {
		return m[1]
	}
	return callsign
}

type call struct {
	Text                  string   `json:"text"`
	CallSignNames         []string `json:"callSignNames"`
	TransmitterGroupNames []string `json:"transmitterGroupNames"`
	Emergency             bool     `json:"emergency"`
}

// Send delivers a pager message to a callsign. The text is reduced to
// plain ASCII and truncated to the pager frame size, minus the
// "FROM: " prefix DAPNET users expect.
func (c *Client) Send(ctx context.Context, fromCallsign, toCallsign, text string, highPriority bool) (string, error) {
	const op = "dapnet"
	if c.login == "" || strings.EqualFold(c.login, "N0CALL") {
		return "", providers.Errorf(providers.KindDisabled, op, "no credentials configured")
	}

	from := strings.ToUpper(stripSSID(fromCallsign))
	to := strings.ToUpper(stripSSID(toCallsign))

	msg := fragment.Transliterate(text)
	if max := maxPagerText - len(from) - 2; len(msg) > max {
		msg = msg[:max]
	}

	body, err := json.Marshal(call{
		Text:                  fmt.Sprintf("%s: %s", from, msg),
		CallSignNames:         []string{to},
		TransmitterGroupNames: []string{c.transmitterGroup},
		Emergency:             highPriority,
	})
	if err != nil {
		return "", providers.E(providers.KindInternal, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", providers.E(providers.KindInternal, op, err)
	}
	req.SetBasicAuth(c.login, c.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", providers.E(providers.KindTransport, op, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusCreated {
		return "", providers.Errorf(providers.KindProvider, op, "dispatch to %s failed: HTTP%d", to, resp.StatusCode)
	}
	return fmt.Sprintf("DAPNET message dispatch to %s via '%s' successful", to, c.transmitterGroup), nil
}
