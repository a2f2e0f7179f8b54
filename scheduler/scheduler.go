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

/*
Package scheduler drives the daemon's periodic outbound traffic and the
reference-data refresh jobs. Beacons go out at startup and then on
interval, bulletins go out on interval in BLN0..BLN2 order, and refresh
jobs run concurrently with an optional immediate first run. Response
fragments are pushed through Respond on demand. Everything outbound
passes through the session, which enforces the per-category pacing.
*/
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/hamnet/aprsbot/ack"
	"github.com/hamnet/aprsbot/aprs"
	"github.com/hamnet/aprsbot/config"
	"github.com/hamnet/aprsbot/fragment"
	"github.com/hamnet/aprsbot/session"
	"github.com/hamnet/aprsbot/stats"
)

// Sender is the outbound side, satisfied by *session.Session.
type Sender interface {
	Send(cat session.Category, line string) error
}

// Job is one periodic background task. RunAtStart schedules an
// immediate first run before the interval kicks in.
type Job struct {
	Name       string
	Interval   time.Duration
	RunAtStart bool
	Run        func(ctx context.Context) error
}

// Deps are the collaborators a Scheduler needs.
type Deps struct {
	Callsign string
	ToCall   string
	Beacon   config.Beacon
	Bulletin config.Bulletin

	Sender  Sender
	Tracker *ack.Tracker
	Counter *fragment.Counter
	Stats   *stats.Stats
	Clock   clock.Clock
	Jobs    []Job
}

// Scheduler multiplexes beacons, bulletins and refresh jobs.
type Scheduler struct {
	d    Deps
	frag *fragment.Fragmenter
}

// New creates a Scheduler.
func New(d Deps) *Scheduler {
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.Counter == nil {
		d.Counter = fragment.NewCounter()
	}
	return &Scheduler{d: d, frag: fragment.New(d.Counter)}
}

// Run operates all periodic tasks until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.beaconLoop(ctx) })
	g.Go(func() error { return s.bulletinLoop(ctx) })
	for _, job := range s.d.Jobs {
		job := job
		g.Go(func() error { return s.jobLoop(ctx, job) })
	}
	return g.Wait()
}

// Respond renders a response for an inbound frame and sends the
// fragments in order. Fragments get fresh outbound ids only when the
// inbound frame carried one; the first fragment to a reply-ack station
// additionally confirms the inbound id in-band.
func (s *Scheduler) Respond(f *aprs.Frame, resp *fragment.Response, forceUnicode bool) error {
	if resp == nil || resp.Empty() {
		return nil
	}
	frags := s.frag.Render(resp, forceUnicode, f.MsgNo != "")
	replyAck := f.MsgNo != "" && s.d.Tracker.UsesReplyAck(f.Source)

	for i, fr := range frags {
		ackNo := ""
		if i == 0 && replyAck {
			ackNo = f.MsgNo
		}
		line := aprs.EncodeMessage(s.d.Callsign, s.d.ToCall, f.Source, fr.Payload, fr.MsgNo, ackNo)
		if err := s.d.Sender.Send(session.CategoryMessage, line); err != nil {
			return fmt.Errorf("fragment %d/%d to %s: %w", i+1, len(frags), f.Source, err)
		}
		s.d.Tracker.Track(f.Source, fr.MsgNo)
		s.d.Stats.Fragments.Inc()
	}
	s.d.Stats.Responses.Inc()
	return nil
}

// beaconLoop sends the position beacon at startup and then on interval.
// A zero position disables beaconing.
func (s *Scheduler) beaconLoop(ctx context.Context) error {
	b := s.d.Beacon
	if b.Latitude == 0 && b.Longitude == 0 {
		log.Info("no beacon position configured, beaconing disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	s.sendBeacon()
	t := s.d.Clock.Ticker(b.Interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.sendBeacon()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Scheduler) sendBeacon() {
	b := s.d.Beacon
	line := aprs.EncodeBeacon(s.d.Callsign, s.d.ToCall,
		aprs.LatToAPRS(b.Latitude), aprs.LonToAPRS(b.Longitude),
		b.Table, b.Symbol, b.Alias, b.AltitudeFt)
	if err := s.d.Sender.Send(session.CategoryBeacon, line); err != nil {
		log.Warnf("beacon failed: %v", err)
		return
	}
	s.d.Stats.Beacons.Inc()
}

// bulletinLoop sends the configured bulletin texts on interval. The
// lines go out back to back so BLN0..BLN2 never interleave with each
// other; pacing between them is the session's concern.
func (s *Scheduler) bulletinLoop(ctx context.Context) error {
	if len(s.d.Bulletin.Texts) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	t := s.d.Clock.Ticker(s.d.Bulletin.Interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.sendBulletins()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Scheduler) sendBulletins() {
	for i, text := range s.d.Bulletin.Texts {
		line := aprs.EncodeBulletin(s.d.Callsign, s.d.ToCall, fmt.Sprintf("BLN%d", i), text)
		if err := s.d.Sender.Send(session.CategoryBulletin, line); err != nil {
			log.Warnf("bulletin BLN%d failed: %v", i, err)
			return
		}
		s.d.Stats.Bulletins.Inc()
	}
}

func (s *Scheduler) jobLoop(ctx context.Context, job Job) error {
	run := func() {
		if err := job.Run(ctx); err != nil {
			log.Warnf("job %s failed: %v", job.Name, err)
		}
	}

	if job.RunAtStart {
		run()
	}
	t := s.d.Clock.Ticker(job.Interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			run()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
