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

package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hamnet/aprsbot/aprs"
	"github.com/hamnet/aprsbot/config"
	"github.com/hamnet/aprsbot/providers/dwd"
	"github.com/hamnet/aprsbot/session"
)

type sentLine struct {
	cat  session.Category
	line string
}

type captureSender struct {
	lines []sentLine
}

func (c *captureSender) Send(cat session.Category, line string) error {
	c.lines = append(c.lines, sentLine{cat, line})
	return nil
}

func TestDWDBulletins(t *testing.T) {
	cells := []config.Warncell{
		{ID: "103255000", Abbrev: "BIE"},
		{ID: "105762000", Abbrev: "HX"},
	}
	end := time.Date(2021, 1, 17, 17, 0, 0, 0, time.UTC)
	warns := map[string][]dwd.Warning{
		"103255000": {
			{Event: "STURMBÖEN", End: end},
			{Event: "GLÄTTE", End: end.Add(5 * time.Hour)},
		},
		"105762000": {{Event: "FROST", End: end}},
		"999999999": {{Event: "HITZE", End: end}}, // not configured
	}

	bs := dwdBulletins(cells, warns)
	require.Len(t, bs, 3)

	// slots count up across cells, umlauts are transliterated
	require.Equal(t, "BLN0WXBIE", bs[0].ID)
	require.Equal(t, "DWD Warnung vor STURMBOEEN in BIE bis 17-Jan 17h", bs[0].Text)
	require.Equal(t, "BLN1WXBIE", bs[1].ID)
	require.Equal(t, "DWD Warnung vor GLAETTE in BIE bis 17-Jan 22h", bs[1].Text)
	require.Equal(t, "BLN2WXHX", bs[2].ID)
	require.Equal(t, "DWD Warnung vor FROST in HX bis 17-Jan 17h", bs[2].Text)
}

func TestDWDBulletinsTruncatesAndCaps(t *testing.T) {
	cells := []config.Warncell{{ID: "1", Abbrev: "BIE"}}
	end := time.Date(2021, 1, 17, 17, 0, 0, 0, time.UTC)

	long := []dwd.Warning{{Event: strings.Repeat("X", 80), End: end}}
	bs := dwdBulletins(cells, map[string][]dwd.Warning{"1": long})
	require.Len(t, bs[0].Text, aprs.PayloadMax)

	// only ten bulletin slots exist
	var many []dwd.Warning
	for i := 0; i < 12; i++ {
		many = append(many, dwd.Warning{Event: "REGEN", End: end})
	}
	bs = dwdBulletins(cells, map[string][]dwd.Warning{"1": many})
	require.Len(t, bs, 10)
	require.Equal(t, "BLN9WXBIE", bs[9].ID)
}

func TestDWDJobSendsBulletins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`warnWetter.loadWarnings({"warnings":{` +
			`"103255000":[{"event":"STURMBÖEN","end":1610902800000}]}});`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.APRSIS.Callsign = "DF1JSL-1"
	cfg.APRSIS.Passcode = aprs.Passcode("DF1JSL-1")
	cfg.DWD.Warncells = []config.Warncell{{ID: "103255000", Abbrev: "BIE"}}

	snd := &captureSender{}
	job := dwdJob(cfg, dwd.NewWithBaseURL(srv.URL, srv.Client()), snd)
	require.Equal(t, "dwd-bulletins", job.Name)
	require.True(t, job.RunAtStart)
	require.Equal(t, cfg.Bulletin.Interval, job.Interval)

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, snd.lines, 1)
	require.Equal(t, session.CategoryBulletin, snd.lines[0].cat)
	require.Equal(t,
		"DF1JSL-1>APRS::BLN0WXBIE:DWD Warnung vor STURMBOEEN in BIE bis 17-Jan 17h",
		snd.lines[0].line)
}
