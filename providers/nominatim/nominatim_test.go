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

package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hamnet/aprsbot/providers"
)

const searchFixture = `[
  {
    "display_name": "Holzminden, Landkreis Holzminden, Niedersachsen, 37603, Deutschland",
    "lat": "51.8295138",
    "lon": "9.4476045",
    "address": {
      "town": "Holzminden",
      "postcode": "37603",
      "country_code": "de"
    }
  }
]`

func TestGeocode(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "Holzminden", r.URL.Query().Get("q"))
		require.Equal(t, "de", r.URL.Query().Get("countrycodes"))
		require.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		require.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, srv.Client())
	p, err := c.Geocode(context.Background(), "Holzminden", "", "DE")
	require.NoError(t, err)
	require.InDelta(t, 51.8295138, p.Lat, 1e-9)
	require.InDelta(t, 9.4476045, p.Lon, 1e-9)
	require.Equal(t, "Holzminden", p.City)
	require.Equal(t, "37603", p.Zipcode)
	require.Equal(t, "DE", p.CountryCode)

	// cached
	_, err = c.Geocode(context.Background(), "Holzminden", "", "DE")
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestGeocodeWithState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Mountain View, CA", r.URL.Query().Get("q"))
		require.Equal(t, "us", r.URL.Query().Get("countrycodes"))
		w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, srv.Client())
	_, err := c.Geocode(context.Background(), "Mountain View", "CA", "US")
	require.NoError(t, err)
}

func TestGeocodeNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, srv.Client())
	_, err := c.Geocode(context.Background(), "Nowhereville", "", "")
	require.Equal(t, providers.KindSemantic, providers.KindOf(err))
}

func TestGeocodeZip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "37603", r.URL.Query().Get("postalcode"))
		require.Equal(t, "de", r.URL.Query().Get("countrycodes"))
		w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, srv.Client())
	p, err := c.GeocodeZip(context.Background(), "37603", "DE")
	require.NoError(t, err)
	require.Equal(t, "Holzminden", p.City)
}

func TestReverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reverse", r.URL.Path)
		require.Equal(t, "51.8295", r.URL.Query().Get("lat"))
		w.Write([]byte(`{
		  "display_name": "Holzminden, Niedersachsen, Deutschland",
		  "lat": "51.8295138",
		  "lon": "9.4476045",
		  "address": {"town": "Holzminden", "postcode": "37603", "country_code": "de"}
		}`))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, srv.Client())
	p, err := c.Reverse(context.Background(), 51.8295, 9.4476)
	require.NoError(t, err)
	require.Equal(t, "Holzminden", p.City)
	require.Equal(t, "DE", p.CountryCode)
}

func TestReverseNoPlace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Unable to geocode"}`))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, srv.Client())
	_, err := c.Reverse(context.Background(), 0, 0)
	require.Equal(t, providers.KindSemantic, providers.KindOf(err))
}

func TestFindNearby(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "pharmacy near 51.82950,9.44760", r.URL.Query().Get("q"))
		require.Equal(t, "3", r.URL.Query().Get("limit"))
		w.Write([]byte(`[
		  {"display_name": "Rats-Apotheke, Holzminden", "lat": "51.8288", "lon": "9.4489",
		   "address": {"town": "Holzminden", "country_code": "de"}},
		  {"display_name": "Sonnen-Apotheke, Holzminden", "lat": "51.8301", "lon": "9.4521",
		   "address": {"town": "Holzminden", "country_code": "de"}}
		]`))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, srv.Client())
	places, err := c.FindNearby(context.Background(), "pharmacy", 51.8295, 9.4476, 3)
	require.NoError(t, err)
	require.Len(t, places, 2)
	require.Equal(t, "Rats-Apotheke, Holzminden", places[0].Name)
}

func TestFindNearbyNone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, srv.Client())
	_, err := c.FindNearby(context.Background(), "pub", 51.8295, 9.4476, 3)
	require.Equal(t, providers.KindSemantic, providers.KindOf(err))
}
