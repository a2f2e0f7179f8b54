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
	"fmt"
	"time"

	"github.com/hamnet/aprsbot/geo"
	"github.com/hamnet/aprsbot/parser"
)

// Compact value formatting shared by the action renderers. Every token
// must survive fragmenting, so no token contains a space unless it is
// allowed to be torn apart.

func fmtDate(t time.Time) string {
	return t.Format("02-Jan-06")
}

func fmtClock(t time.Time) string {
	return t.Format("15:04")
}

func fmtDateTime(t time.Time) string {
	return t.Format("02-Jan-06 15:04") + "UTC"
}

func tempLetter(u parser.Units) string {
	if u == parser.UnitsImperial {
		return "f"
	}
	return "c"
}

func fmtTemp(v float64, u parser.Units) string {
	return fmt.Sprintf("%.0f%s", v, tempLetter(u))
}

func speedUnit(u parser.Units) string {
	if u == parser.UnitsImperial {
		return "mph"
	}
	return "m/s"
}

// groundSpeedUnit is for surface reports, which use km/h rather than
// the m/s the forecast API returns.
func groundSpeedUnit(u parser.Units) string {
	if u == parser.UnitsImperial {
		return "mph"
	}
	return "km/h"
}

func fmtDistance(km float64, u parser.Units) string {
	if u == parser.UnitsImperial {
		return fmt.Sprintf("%.0fmi", km/geo.KmPerMile)
	}
	return fmt.Sprintf("%.0fkm", km)
}

func fmtAltitude(meters float64, u parser.Units) string {
	if u == parser.UnitsImperial {
		return fmt.Sprintf("%.0fft", meters*geo.FeetPerMeter)
	}
	return fmt.Sprintf("%.0fm", meters)
}

func fmtBearing(degrees float64) string {
	return fmt.Sprintf("%.0fdeg", degrees)
}

// fmtEvent renders a rise/set instant, "--:--" when it does not occur.
func fmtEvent(t time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	return fmtClock(t.UTC())
}

// itemTag numbers top-N list entries.
func itemTag(i int) string {
	return fmt.Sprintf("#%d", i+1)
}
