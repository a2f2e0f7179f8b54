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

// Package nominatim geocodes place names and finds nearby points of
// interest through the OSM Nominatim service.
package nominatim

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

// DefaultBaseURL is the public Nominatim instance.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Geocoded results are effectively static, cache them generously.
const cacheTTL = 6 * time.Hour

// Place is a geocoded location.
type Place struct {
	Name        string
	Lat         float64
	Lon         float64
	City        string
	Zipcode     string
	CountryCode string // ISO 3166-1 alpha-2, upper case
}

// Client queries a Nominatim server.
type Client struct {
	baseURL string
	hc      *http.Client
	cache   *gocache.Cache
}

// New creates a Client against the public Nominatim instance.
func New() *Client {
	return NewWithBaseURL(DefaultBaseURL, providers.NewHTTPClient())
}

// NewWithBaseURL is used by tests to point at a stub server.
func NewWithBaseURL(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL: baseURL,
		hc:      hc,
		cache:   gocache.New(cacheTTL, 2*cacheTTL),
	}
}

type rawAddress struct {
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	Postcode    string `json:"postcode"`
	CountryCode string `json:"country_code"`
}

type rawPlace struct {
	DisplayName string     `json:"display_name"`
	Lat         string     `json:"lat"`
	Lon         string     `json:"lon"`
	Address     rawAddress `json:"address"`
}

func (r *rawPlace) place() (*Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("lat %q", r.Lat)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("lon %q", r.Lon)
	}
	city := r.Address.City
	if city == "" {
		city = r.Address.Town
	}
	if city == "" {
		city = r.Address.Village
	}
	return &Place{
		Name:        r.DisplayName,
		Lat:         lat,
		Lon:         lon,
		City:        city,
		Zipcode:     r.Address.Postcode,
		CountryCode: strings.ToUpper(r.Address.CountryCode),
	}, nil
}

func (c *Client) search(ctx context.Context, q url.Values, limit int) ([]*Place, error) {
	const op = "nominatim"
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("limit", strconv.Itoa(limit))
	key := q.Encode()
	if cached, ok := c.cache.Get(key); ok {
		return cached.([]*Place), nil
	}

	var raw []rawPlace
	if err := providers.GetJSON(ctx, c.hc, op, c.baseURL+"/search?"+key, &raw); err != nil {
		return nil, err
	}
	places := make([]*Place, 0, len(raw))
	for i := range raw {
		p, err := raw[i].place()
		if err != nil {
			return nil, providers.E(providers.KindFormat, op, err)
		}
		places = append(places, p)
	}
	c.cache.SetDefault(key, places)
	return places, nil
}

// Geocode resolves a free-form city[,state][;country] description to
// coordinates.
func (c *Client) Geocode(ctx context.Context, city, state, country string) (*Place, error) {
	q := url.Values{}
	query := city
	if state != "" {
		query += ", " + state
	}
	q.Set("q", query)
	if country != "" {
		q.Set("countrycodes", strings.ToLower(country))
	}
	places, err := c.search(ctx, q, 1)
	if err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, providers.Errorf(providers.KindSemantic, "nominatim", "no match for %q", query)
	}
	return places[0], nil
}

// GeocodeZip resolves a postal code within a country.
func (c *Client) GeocodeZip(ctx context.Context, zip, country string) (*Place, error) {
	q := url.Values{}
	q.Set("postalcode", zip)
	q.Set("countrycodes", strings.ToLower(country))
	places, err := c.search(ctx, q, 1)
	if err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, providers.Errorf(providers.KindSemantic, "nominatim", "no match for zip %s;%s", zip, country)
	}
	return places[0], nil
}

// Reverse turns coordinates back into a human-readable place.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Place, error) {
	const op = "nominatim"
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	key := "rev:" + q.Encode()
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*Place), nil
	}

	var raw rawPlace
	if err := providers.GetJSON(ctx, c.hc, op, c.baseURL+"/reverse?"+q.Encode(), &raw); err != nil {
		return nil, err
	}
	if raw.Lat == "" {
		return nil, providers.Errorf(providers.KindSemantic, op, "no place at %g/%g", lat, lon)
	}
	p, err := raw.place()
	if err != nil {
		return nil, providers.E(providers.KindFormat, op, err)
	}
	c.cache.SetDefault(key, p)
	return p, nil
}

// FindNearby searches for points of interest matching an OSM special
// phrase around a position, nearest first.
func (c *Client) FindNearby(ctx context.Context, category string, lat, lon float64, n int) ([]*Place, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("%s near %.5f,%.5f", category, lat, lon))
	places, err := c.search(ctx, q, n)
	if err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, providers.Errorf(providers.KindSemantic, "nominatim", "no %s found nearby", category)
	}
	return places, nil
}
