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

package celestial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// ISS TLE with an epoch of 2021-01-15.
const (
	issLine1 = "1 25544U 98067A   21015.54627907  .00001207  00000-0  30026-4 0  9995"
	issLine2 = "2 25544  51.6449  85.0992 0000410 168.5197 298.4815 15.49284234265268"
)

// Holzminden, Germany
const (
	obsLat = 51.8295
	obsLon = 9.4476
)

func TestRiseSetWinterDay(t *testing.T) {
	date := time.Date(2021, 1, 16, 0, 0, 0, 0, time.UTC)
	rs := RiseSet(obsLat, obsLon, date)

	// Mid-January at 52N: sun up roughly 07:30 to 16:00 UTC.
	require.False(t, rs.Sunrise.IsZero())
	require.False(t, rs.Sunset.IsZero())
	require.True(t, rs.Sunrise.After(time.Date(2021, 1, 16, 6, 30, 0, 0, time.UTC)))
	require.True(t, rs.Sunrise.Before(time.Date(2021, 1, 16, 8, 30, 0, 0, time.UTC)))
	require.True(t, rs.Sunset.After(time.Date(2021, 1, 16, 15, 0, 0, 0, time.UTC)))
	require.True(t, rs.Sunset.Before(time.Date(2021, 1, 16, 17, 0, 0, 0, time.UTC)))
	require.True(t, rs.Sunrise.Before(rs.Sunset))

	// The waxing crescent rose mid-morning and set in the evening.
	require.False(t, rs.Moonrise.IsZero())
	require.False(t, rs.Moonset.IsZero())
	require.True(t, rs.Moonrise.Before(rs.Moonset))
	require.Equal(t, 16, rs.Moonrise.Day())
}

func TestRiseSetPolarNight(t *testing.T) {
	// Longyearbyen in January: the sun never rises.
	rs := RiseSet(78.22, 15.65, time.Date(2021, 1, 16, 0, 0, 0, 0, time.UTC))
	require.True(t, rs.Sunrise.IsZero() || rs.Sunrise.Equal(rs.Sunset))
}

func TestMoonAltitudeContinuity(t *testing.T) {
	// The altitude curve must not jump between adjacent samples,
	// otherwise the crossing scan cannot be trusted.
	start := time.Date(2021, 1, 16, 0, 0, 0, 0, time.UTC)
	prev := moonAltitude(obsLat, obsLon, start)
	for i := 1; i <= 24*60; i++ {
		cur := moonAltitude(obsLat, obsLon, start.Add(time.Duration(i)*time.Minute))
		require.Less(t, absf(cur-prev), 1.0, "jump at minute %d", i)
		prev = cur
	}
}

func TestMoonPhase(t *testing.T) {
	// Full moon on 2021-01-28, new moon on 2021-01-13.
	full, _ := MoonPhase(time.Date(2021, 1, 28, 19, 0, 0, 0, time.UTC))
	require.Greater(t, full, 0.95)
	nw, waxing := MoonPhase(time.Date(2021, 1, 13, 5, 0, 0, 0, time.UTC))
	require.Less(t, nw, 0.05)
	_ = waxing

	grow, waxing := MoonPhase(time.Date(2021, 1, 20, 12, 0, 0, 0, time.UTC))
	require.True(t, waxing)
	require.Greater(t, grow, 0.3)
	require.Less(t, grow, 0.8)
}

func TestPasses(t *testing.T) {
	start := time.Date(2021, 1, 16, 0, 0, 0, 0, time.UTC)
	obs := Observer{Lat: obsLat, Lon: obsLon, Alt: 90}

	passes, err := Passes(issLine1, issLine2, obs, start, 24*time.Hour, 10, 0)
	require.NoError(t, err)
	// The ISS crosses a mid-latitude site several times a day.
	require.NotEmpty(t, passes)

	for _, p := range passes {
		require.True(t, p.Rise.Before(p.Set))
		require.True(t, !p.Culmination.Before(p.Rise) && !p.Culmination.After(p.Set))
		require.GreaterOrEqual(t, p.MaxElevation, 10.0)
		require.LessOrEqual(t, p.MaxElevation, 90.0)
		require.GreaterOrEqual(t, p.RiseAzimuth, 0.0)
		require.Less(t, p.RiseAzimuth, 360.0)
		require.GreaterOrEqual(t, p.SetAzimuth, 0.0)
		require.Less(t, p.SetAzimuth, 360.0)
		// an ISS pass lasts minutes, not hours
		require.Less(t, p.Set.Sub(p.Rise), 30*time.Minute)
	}
}

func TestPassesLimit(t *testing.T) {
	start := time.Date(2021, 1, 16, 0, 0, 0, 0, time.UTC)
	obs := Observer{Lat: obsLat, Lon: obsLon}

	one, err := Passes(issLine1, issLine2, obs, start, 24*time.Hour, 10, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
}

func TestVisiblePassesSubset(t *testing.T) {
	start := time.Date(2021, 1, 16, 0, 0, 0, 0, time.UTC)
	obs := Observer{Lat: obsLat, Lon: obsLon}

	all, err := Passes(issLine1, issLine2, obs, start, 24*time.Hour, 10, 0)
	require.NoError(t, err)
	visible, err := VisiblePasses(issLine1, issLine2, obs, start, 24*time.Hour, 10, 0)
	require.NoError(t, err)
	require.LessOrEqual(t, len(visible), len(all))
	for _, p := range visible {
		require.True(t, p.Visible)
	}
}

func TestPassesMalformedTLE(t *testing.T) {
	_, err := Passes("garbage", issLine2, Observer{}, time.Now(), time.Hour, 10, 0)
	require.Error(t, err)
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
