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

package dwd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hamnet/aprsbot/providers"
)

const feedFixture = `warnWetter.loadWarnings({"time":1610896500000,"warnings":{` +
	`"103255000":[{"event":"STURMBÖEN","end":1610902800000},{"event":"GLÄTTE","end":1610920800000}],` +
	`"105762000":[{"event":"FROST","end":0},{"event":"","end":1610902800000}]` +
	`}});`

func TestWarnings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedFixture))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, srv.Client())
	warns, err := c.Warnings(context.Background())
	require.NoError(t, err)

	require.Len(t, warns["103255000"], 2)
	require.Equal(t, "STURMBÖEN", warns["103255000"][0].Event)
	require.Equal(t, time.Date(2021, 1, 17, 17, 0, 0, 0, time.UTC), warns["103255000"][0].End)

	// event without a name and event without an end are both dropped
	require.Empty(t, warns["105762000"])
}

func TestWarningsPlainJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"warnings":{"103255000":[{"event":"FROST","end":1610902800000}]}}`))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, srv.Client())
	warns, err := c.Warnings(context.Background())
	require.NoError(t, err)
	require.Len(t, warns["103255000"], 1)
}

func TestWarningsFeedDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, srv.Client())
	_, err := c.Warnings(context.Background())
	require.Equal(t, providers.KindProvider, providers.KindOf(err))
	require.Contains(t, err.Error(), "HTTP503")
}

func TestWarningsBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, srv.Client())
	_, err := c.Warnings(context.Background())
	require.Equal(t, providers.KindFormat, providers.KindOf(err))
}
