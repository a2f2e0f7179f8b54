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

// Package bot wires the daemon together: session, ingress, parser,
// dispatcher and scheduler, with the monitoring endpoint on the side.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/hamnet/aprsbot/ack"
	"github.com/hamnet/aprsbot/aprs"
	"github.com/hamnet/aprsbot/config"
	"github.com/hamnet/aprsbot/dedup"
	"github.com/hamnet/aprsbot/dispatch"
	"github.com/hamnet/aprsbot/fragment"
	"github.com/hamnet/aprsbot/ingress"
	"github.com/hamnet/aprsbot/parser"
	"github.com/hamnet/aprsbot/providers/aprsfi"
	"github.com/hamnet/aprsbot/providers/cwop"
	"github.com/hamnet/aprsbot/providers/dapnet"
	"github.com/hamnet/aprsbot/providers/dwd"
	"github.com/hamnet/aprsbot/providers/mail"
	"github.com/hamnet/aprsbot/providers/metar"
	"github.com/hamnet/aprsbot/providers/nominatim"
	"github.com/hamnet/aprsbot/providers/openweather"
	"github.com/hamnet/aprsbot/providers/radiosonde"
	"github.com/hamnet/aprsbot/refcache"
	"github.com/hamnet/aprsbot/scheduler"
	"github.com/hamnet/aprsbot/session"
	"github.com/hamnet/aprsbot/stats"
)

// Agent is the client name announced in the APRS-IS login.
const Agent = "aprsbot"

// mailPruneInterval is how often the Sent folder is swept.
const mailPruneInterval = 24 * time.Hour

// Bot is the assembled daemon.
type Bot struct {
	cfg   *config.Config
	st    *stats.Stats
	store *refcache.Store
	sess  *session.Session
	ing   *ingress.Ingress
	par   *parser.Parser
	disp  *dispatch.Dispatcher
	sched *scheduler.Scheduler
	clk   clock.Clock
}

// New builds a Bot from a validated configuration. version goes into
// the APRS-IS login line.
func New(cfg *config.Config, version string) (*Bot, error) {
	store, err := refcache.NewStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("loading reference data: %w", err)
	}

	st := stats.New()
	tracker := ack.NewTracker()
	cache := dedup.New(cfg.Dedup.TTL, cfg.Dedup.Capacity)

	filter := cfg.APRSIS.Filter
	if filter == "" {
		filter = "g/" + strings.Join(cfg.APRSIS.Addressees, "/")
	}
	sess := session.New(session.Config{
		Addr:     cfg.APRSIS.Addr(),
		Callsign: cfg.APRSIS.Callsign,
		Passcode: cfg.APRSIS.Passcode,
		Filter:   filter,
		Agent:    Agent,
		Version:  version,
		ReadOnly: cfg.APRSIS.ReadOnly(),
		Delays: session.Delays{
			Message: cfg.Pacing.Message,
			Ack:     cfg.Pacing.Ack,
			Other:   cfg.Pacing.Other,
		},
		OnReconnect: st.Reconnects.Inc,
	})

	ing := ingress.New(ingress.Config{
		Callsign:   cfg.APRSIS.Callsign,
		ToCall:     cfg.APRSIS.ToCall,
		Addressees: cfg.APRSIS.Addressees,
	}, cache, tracker, sess, st)

	par := parser.New(refcache.NewCatalog(store, cfg.OsmCategories), cfg.ForceUnicode)

	positions := aprsfi.New(cfg.Providers.AprsFiKey)
	mailer := mail.New(mail.Config{
		SMTPAddr:      fmt.Sprintf("%s:%d", cfg.Mail.SMTPServer, cfg.Mail.SMTPPort),
		IMAPAddr:      fmt.Sprintf("%s:%d", cfg.Mail.IMAPServer, cfg.Mail.IMAPPort),
		Username:      cfg.Mail.User,
		Password:      cfg.Mail.Password,
		From:          cfg.Mail.User,
		SentRetention: cfg.Mail.SentRetention,
	})

	disp := dispatch.New(dispatch.Deps{
		Store:            store,
		Weather:          openweather.New(cfg.Providers.OpenWeatherKey),
		Positions:        positions,
		Geocoder:         nominatim.New(),
		Aviation:         metar.New(),
		WxStations:       cwop.New(),
		Pager:            dapnet.New(cfg.Dapnet.Login, cfg.Dapnet.Password),
		Mailer:           mailer,
		Sondes:           radiosonde.New(positions),
		Stats:            st,
		MinPassElevation: cfg.MinPassElevation,
	})

	jobs := refreshJobs(store, cfg, mailer)
	if len(cfg.DWD.Warncells) > 0 {
		jobs = append(jobs, dwdJob(cfg, dwd.New(), sess))
	}
	sched := scheduler.New(scheduler.Deps{
		Callsign: cfg.APRSIS.Callsign,
		ToCall:   cfg.APRSIS.ToCall,
		Beacon:   cfg.Beacon,
		Bulletin: cfg.Bulletin,
		Sender:   sess,
		Tracker:  tracker,
		Counter:  fragment.NewCounter(),
		Stats:    st,
		Jobs:     jobs,
	})

	return &Bot{
		cfg:   cfg,
		st:    st,
		store: store,
		sess:  sess,
		ing:   ing,
		par:   par,
		disp:  disp,
		sched: sched,
		clk:   clock.New(),
	}, nil
}

// refreshJobs builds the background jobs: reference-data refreshes run
// immediately when the on-disk copy is stale, and the mail Sent folder
// is swept daily when the feature is on.
func refreshJobs(store *refcache.Store, cfg *config.Config, mailer *mail.Client) []scheduler.Job {
	jobs := []scheduler.Job{
		{
			Name:       "airports",
			Interval:   cfg.Refresh.Airports,
			RunAtStart: store.AirportsStale(cfg.Refresh.Airports),
			Run: func(ctx context.Context) error {
				return store.RefreshAirports(ctx, refcache.StationsURL)
			},
		},
		{
			Name:       "satellites",
			Interval:   cfg.Refresh.Satellites,
			RunAtStart: store.SatellitesStale(cfg.Refresh.Satellites),
			Run: func(ctx context.Context) error {
				return store.RefreshSatellites(ctx, refcache.TLEURL, refcache.FrequenciesURL)
			},
		},
		{
			Name:       "repeaters",
			Interval:   cfg.Refresh.Repeaters,
			RunAtStart: store.RepeatersStale(cfg.Refresh.Repeaters),
			Run: func(ctx context.Context) error {
				return store.RefreshRepeaters(ctx, refcache.RepeatersURL)
			},
		},
	}
	if mailer.Enabled() {
		jobs = append(jobs, scheduler.Job{
			Name:     "mail-prune",
			Interval: mailPruneInterval,
			Run: func(ctx context.Context) error {
				_, err := mailer.PruneSent(ctx)
				return err
			},
		})
	}
	return jobs
}

// Run operates the daemon until ctx is canceled or a component fails.
func (b *Bot) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return b.sess.Run(gctx) })
	g.Go(func() error { return b.ing.Run(gctx, b.sess.Frames()) })
	g.Go(func() error { return b.sched.Run(gctx) })
	g.Go(func() error { return b.worker(gctx) })
	if b.cfg.MonitoringAddr != "" {
		g.Go(func() error { return b.st.Serve(gctx, b.cfg.MonitoringAddr) })
	}

	err := g.Wait()
	if ctx.Err() != nil {
		return nil // clean shutdown
	}
	return err
}

// worker consumes admitted frames in arrival order. One request is
// fully answered before the next is picked up.
func (b *Bot) worker(ctx context.Context) error {
	for {
		select {
		case f := <-b.ing.Requests():
			b.handle(ctx, f)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (b *Bot) handle(ctx context.Context, f *aprs.Frame) {
	cmd := b.par.Parse(f.Body, f.Source, b.clk.Now().UTC())
	log.Infof("request from %s: %q -> %s", f.Source, f.Body, cmd.Action)

	resp := b.disp.Dispatch(ctx, cmd)
	if err := b.sched.Respond(f, resp, cmd.ForceUnicode); err != nil {
		log.Warnf("response to %s failed: %v", f.Source, err)
	}
}
