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

// Package stats exposes the daemon's counters on a prometheus endpoint.
package stats

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stats carries the daemon counters. All fields are safe for concurrent
// use.
type Stats struct {
	registry *prometheus.Registry

	FramesIn       prometheus.Counter
	FramesFiltered prometheus.Counter
	Duplicates     prometheus.Counter
	AcksOut        prometheus.Counter
	Responses      prometheus.Counter
	Fragments      prometheus.Counter
	Beacons        prometheus.Counter
	Bulletins      prometheus.Counter
	ProviderErrors prometheus.Counter
	Reconnects     prometheus.Counter
}

// New creates the counter set on a private registry.
func New() *Stats {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	c := func(name, help string) prometheus.Counter {
		return f.NewCounter(prometheus.CounterOpts{
			Namespace: "aprsbot",
			Name:      name,
			Help:      help,
		})
	}
	return &Stats{
		registry:       reg,
		FramesIn:       c("frames_in_total", "Inbound frames parsed from the stream"),
		FramesFiltered: c("frames_filtered_total", "Inbound frames dropped by admission"),
		Duplicates:     c("duplicates_total", "Inbound frames suppressed as duplicates"),
		AcksOut:        c("acks_out_total", "Acknowledgements sent"),
		Responses:      c("responses_total", "Requests answered"),
		Fragments:      c("fragments_total", "Response fragments sent"),
		Beacons:        c("beacons_total", "Position beacons sent"),
		Bulletins:      c("bulletins_total", "Bulletin lines sent"),
		ProviderErrors: c("provider_errors_total", "Failed provider calls"),
		Reconnects:     c("reconnects_total", "Upstream reconnects"),
	}
}

// Serve exposes /metrics on addr until ctx is canceled.
func (s *Stats) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
