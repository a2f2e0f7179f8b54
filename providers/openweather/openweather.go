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

// Package openweather fetches daily and hourly forecasts from the
// OpenWeatherMap One Call API.
package openweather

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hamnet/aprsbot/providers"
)

// DefaultBaseURL is the One Call endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/3.0/onecall"

// DayForecast is one daily forecast entry, already in the requested
// unit system.
type DayForecast struct {
	Date      time.Time
	Summary   string
	TempMorn  float64
	TempDay   float64
	TempEve   float64
	TempNight float64
	Sunrise   time.Time
	Sunset    time.Time
	CloudPct  int
	Humidity  int
	Pressure  int
	DewPoint  float64
	UVI       float64
	WindSpeed float64
	WindDeg   int
}

// HourForecast is one hourly forecast entry.
type HourForecast struct {
	Time    time.Time
	Temp    float64
	Summary string
}

// Forecast is the per-position result. UTCOffset shifts timestamps to
// the position's local time for daytime-window selection.
type Forecast struct {
	UTCOffset time.Duration
	Days      []DayForecast
	Hours     []HourForecast
}

// Client talks to OpenWeatherMap.
type Client struct {
	apiKey  string
	baseURL string
	hc      *http.Client
}

// New creates a Client. An empty apiKey leaves the provider disabled.
func New(apiKey string) *Client {
	return &Client{apiKey: apiKey, baseURL: DefaultBaseURL, hc: providers.NewHTTPClient()}
}

// NewWithBaseURL is used by tests to point at a stub server.
func NewWithBaseURL(apiKey, baseURL string, hc *http.Client) *Client {
	return &Client{apiKey: apiKey, baseURL: baseURL, hc: hc}
}

type rawWeather struct {
	Description string `json:"description"`
}

type rawDaily struct {
	Dt      int64 `json:"dt"`
	Sunrise int64 `json:"sunrise"`
	Sunset  int64 `json:"sunset"`
	Temp    struct {
		Morn  float64 `json:"morn"`
		Day   float64 `json:"day"`
		Eve   float64 `json:"eve"`
		Night float64 `json:"night"`
	} `json:"temp"`
	Pressure  int          `json:"pressure"`
	Humidity  int          `json:"humidity"`
	DewPoint  float64      `json:"dew_point"`
	UVI       float64      `json:"uvi"`
	Clouds    int          `json:"clouds"`
	WindSpeed float64      `json:"wind_speed"`
	WindDeg   int          `json:"wind_deg"`
	Weather   []rawWeather `json:"weather"`
}

type rawHourly struct {
	Dt      int64        `json:"dt"`
	Temp    float64      `json:"temp"`
	Weather []rawWeather `json:"weather"`
}

type rawOneCall struct {
	TimezoneOffset int64       `json:"timezone_offset"`
	Daily          []rawDaily  `json:"daily"`
	Hourly         []rawHourly `json:"hourly"`
}

// Forecast fetches the daily and hourly forecast for a position.
// units is "metric" or "imperial", lang an ISO-639-1 code.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, units, lang string) (*Forecast, error) {
	const op = "openweather"
	if c.apiKey == "" {
		return nil, providers.Errorf(providers.KindDisabled, op, "no api key configured")
	}

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%g", lat))
	q.Set("lon", fmt.Sprintf("%g", lon))
	q.Set("units", units)
	q.Set("lang", lang)
	q.Set("exclude", "minutely,alerts")
	q.Set("appid", c.apiKey)

	var raw rawOneCall
	if err := providers.GetJSON(ctx, c.hc, op, c.baseURL+"?"+q.Encode(), &raw); err != nil {
		return nil, err
	}
	if len(raw.Daily) == 0 {
		return nil, providers.Errorf(providers.KindSemantic, op, "no forecast for %g/%g", lat, lon)
	}

	f := &Forecast{UTCOffset: time.Duration(raw.TimezoneOffset) * time.Second}
	for _, d := range raw.Daily {
		day := DayForecast{
			Date:      time.Unix(d.Dt, 0).UTC(),
			TempMorn:  d.Temp.Morn,
			TempDay:   d.Temp.Day,
			TempEve:   d.Temp.Eve,
			TempNight: d.Temp.Night,
			Sunrise:   time.Unix(d.Sunrise, 0).UTC(),
			Sunset:    time.Unix(d.Sunset, 0).UTC(),
			CloudPct:  d.Clouds,
			Humidity:  d.Humidity,
			Pressure:  d.Pressure,
			DewPoint:  d.DewPoint,
			UVI:       d.UVI,
			WindSpeed: d.WindSpeed,
			WindDeg:   d.WindDeg,
		}
		if len(d.Weather) > 0 {
			day.Summary = d.Weather[0].Description
		}
		f.Days = append(f.Days, day)
	}
	for _, h := range raw.Hourly {
		hour := HourForecast{Time: time.Unix(h.Dt, 0).UTC(), Temp: h.Temp}
		if len(h.Weather) > 0 {
			hour.Summary = h.Weather[0].Description
		}
		f.Hours = append(f.Hours, hour)
	}
	return f, nil
}
