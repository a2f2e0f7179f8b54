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

// Package cwop retrieves Citizen Weather Observer Program station
// reports by scraping findu.com, which only serves HTML.
package cwop

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/hamnet/aprsbot/providers"
)

// DefaultBaseURL is the findu.com CGI root.
const DefaultBaseURL = "http://www.findu.com/cgi-bin"

// Report is one CWOP weather observation. String fields mirror the
// findu table cells, empty when the station did not report the value.
type Report struct {
	ID            string
	Time          string // YYYYMMDDHHMMSS
	Temperature   string
	WindDirection string
	WindSpeed     string
	WindGust      string
	Rain1h        string
	Rain24h       string
	RainMidnight  string
	Humidity      string
	Pressure      string
}

// Client scrapes findu.com.
type Client struct {
	baseURL string
	hc      *http.Client
}

// New creates a Client against findu.com.
func New() *Client {
	return NewWithBaseURL(DefaultBaseURL, providers.NewHTTPClient())
}

// NewWithBaseURL is used by tests to point at a stub server.
func NewWithBaseURL(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, hc: hc}
}

// ByID returns the most recent report from a specific CWOP station.
func (c *Client) ByID(ctx context.Context, id, units string) (*Report, error) {
	const op = "cwop"
	id = strings.ToUpper(id)
	url := fmt.Sprintf("%s/wx.cgi?call=%s&last=1&units=%s", c.baseURL, id, units)
	body, err := providers.GetText(ctx, c.hc, op, url)
	if err != nil {
		return nil, err
	}
	if strings.Contains(strings.ToLower(body), "sorry") {
		return nil, providers.Errorf(providers.KindSemantic, op, "no weather reports for %s", id)
	}
	rows, err := tableRows(body)
	if err != nil {
		return nil, providers.E(providers.KindFormat, op, err)
	}
	if len(rows) < 2 || len(rows[1]) < 10 {
		return nil, providers.Errorf(providers.KindFormat, op, "unexpected table layout for %s", id)
	}
	r := rows[1]
	return &Report{
		ID:            id,
		Time:          r[0],
		Temperature:   r[1],
		WindDirection: r[2],
		WindSpeed:     r[3],
		WindGust:      r[4],
		Rain1h:        r[5],
		Rain24h:       r[6],
		RainMidnight:  r[7],
		Humidity:      r[8],
		Pressure:      r[9],
	}, nil
}

// Nearest finds the closest station to a position and returns its
// latest report. The wxnear CGI ignores units, so a second request for
// the station itself is required.
func (c *Client) Nearest(ctx context.Context, lat, lon float64, units string) (*Report, error) {
	const op = "cwop"
	url := fmt.Sprintf("%s/wxnear.cgi?lat=%f&lon=%f&noold=1&limits=1", c.baseURL, lat, lon)
	body, err := providers.GetText(ctx, c.hc, op, url)
	if err != nil {
		return nil, err
	}
	if strings.Contains(strings.ToLower(body), "sorry") {
		return nil, providers.Errorf(providers.KindSemantic, op, "no station near %g/%g", lat, lon)
	}
	rows, err := tableRows(body)
	if err != nil {
		return nil, providers.E(providers.KindFormat, op, err)
	}
	if len(rows) < 2 || len(rows[1]) < 1 || rows[1][0] == "" {
		return nil, providers.Errorf(providers.KindFormat, op, "unexpected table layout near %g/%g", lat, lon)
	}
	return c.ByID(ctx, rows[1][0], units)
}

// tableRows extracts the cell texts of the first table in an HTML page.
func tableRows(body string) ([][]string, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	table := findFirst(doc, "table")
	if table == nil {
		return nil, fmt.Errorf("no table in response")
	}
	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []string
			for cell := n.FirstChild; cell != nil; cell = cell.NextSibling {
				if cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th") {
					row = append(row, strings.TrimSpace(text(cell)))
				}
			}
			rows = append(rows, row)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return rows, nil
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
