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
Package ingress admits inbound frames for processing. A frame passes
when it is a text message addressed to one of the configured
addressees and is not a duplicate of a recently seen frame. Admitted
frames are acked right away (when they carry a message id) and queued
for the dispatcher; the queue keeps ingress responsive while a
response is being computed. Duplicates are suppressed completely: no
ack, no response.
*/
package ingress

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/hamnet/aprsbot/ack"
	"github.com/hamnet/aprsbot/aprs"
	"github.com/hamnet/aprsbot/dedup"
	"github.com/hamnet/aprsbot/session"
	"github.com/hamnet/aprsbot/stats"
)

// Sender is the outbound side, satisfied by *session.Session.
type Sender interface {
	Send(cat session.Category, line string) error
}

// Config identifies our own station for ack generation and admission.
type Config struct {
	Callsign   string
	ToCall     string
	Addressees []string
}

// Ingress filters, dedups and acks the inbound stream.
type Ingress struct {
	cfg        Config
	addressees map[string]struct{}
	cache      *dedup.Cache
	tracker    *ack.Tracker
	sender     Sender
	st         *stats.Stats
	out        chan *aprs.Frame
}

// New creates an Ingress. The request queue holds admitted frames until
// the dispatcher picks them up.
func New(cfg Config, cache *dedup.Cache, tracker *ack.Tracker, sender Sender, st *stats.Stats) *Ingress {
	set := make(map[string]struct{}, len(cfg.Addressees))
	for _, a := range cfg.Addressees {
		set[strings.ToUpper(a)] = struct{}{}
	}
	return &Ingress{
		cfg:        cfg,
		addressees: set,
		cache:      cache,
		tracker:    tracker,
		sender:     sender,
		st:         st,
		out:        make(chan *aprs.Frame, 16),
	}
}

// Requests returns the queue of admitted frames, in arrival order.
func (i *Ingress) Requests() <-chan *aprs.Frame {
	return i.out
}

// Run consumes frames until ctx is canceled.
func (i *Ingress) Run(ctx context.Context, frames <-chan *aprs.Frame) error {
	for {
		select {
		case f := <-frames:
			i.process(ctx, f)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (i *Ingress) process(ctx context.Context, f *aprs.Frame) {
	i.st.FramesIn.Inc()

	// acknowledgement content is consumed here, pure acks go no further
	if i.tracker.ObserveInbound(f) {
		return
	}
	if f.Format != aprs.FormatMessage {
		i.st.FramesFiltered.Inc()
		return
	}
	if _, ok := i.addressees[f.Addressee]; !ok {
		i.st.FramesFiltered.Inc()
		return
	}

	if !i.cache.InsertIfAbsent(dedup.NewKey(f.Source, f.MsgNo, f.Body)) {
		log.Debugf("duplicate from %s dropped: %q", f.Source, f.Body)
		i.st.Duplicates.Inc()
		return
	}

	// ack before any response fragment. Stations speaking reply-ack get
	// the in-band trailer on the response instead of a separate line.
	if f.MsgNo != "" && !i.tracker.UsesReplyAck(f.Source) {
		line := aprs.EncodeAck(i.cfg.Callsign, i.cfg.ToCall, f.Source, f.MsgNo)
		if err := i.sender.Send(session.CategoryAck, line); err != nil {
			log.Warnf("ack to %s failed: %v", f.Source, err)
		} else {
			i.st.AcksOut.Inc()
		}
	}

	select {
	case i.out <- f:
	case <-ctx.Done():
	}
}
