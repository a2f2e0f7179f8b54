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
Package session owns the APRS-IS connection. It is the only component
that touches the socket: inbound lines are parsed into frames and put on
a channel, outbound writes go through Send which serializes them and
enforces the per-category pacing delay. Connection loss triggers a
reconnect with exponential backoff; the rest of the daemon never sees
transport errors.
*/
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/hamnet/aprsbot/aprs"
)

// Category classifies an outbound write for pacing purposes.
type Category int

// Outbound categories.
const (
	CategoryMessage Category = iota
	CategoryAck
	CategoryBeacon
	CategoryBulletin
)

func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "message"
	case CategoryAck:
		return "ack"
	case CategoryBeacon:
		return "beacon"
	case CategoryBulletin:
		return "bulletin"
	}
	return "unknown"
}

// State is the connection lifecycle phase, exposed for monitoring.
type State int32

// Session states.
const (
	StateDisconnected State = iota
	StateConnecting
	StateRunning
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateRunning:
		return "running"
	case StateReconnecting:
		return "reconnecting"
	}
	return "disconnected"
}

// Delays are the minimum gaps between consecutive writes, keyed by the
// category of the write about to happen.
type Delays struct {
	Message time.Duration
	Ack     time.Duration
	Other   time.Duration
}

// Config describes the upstream server and login identity.
type Config struct {
	Addr     string
	Callsign string
	Passcode int
	Filter   string
	Agent    string
	Version  string
	ReadOnly bool
	Delays   Delays

	// OnReconnect is called every time an established connection is
	// lost and a new attempt starts. Optional.
	OnReconnect func()
}

// DialFunc opens the transport. Swapped out by tests.
type DialFunc func(ctx context.Context) (net.Conn, error)

// ErrNotConnected is returned by Send while no connection is up.
var ErrNotConnected = errors.New("session: not connected")

// Session is a single APRS-IS client connection with automatic
// reconnect.
type Session struct {
	cfg  Config
	dial DialFunc
	clk  clock.Clock

	mu        sync.Mutex
	conn      net.Conn
	lastWrite time.Time

	state  atomic.Int32
	frames chan *aprs.Frame
}

// New creates a session dialing cfg.Addr over TCP.
func New(cfg Config) *Session {
	d := &net.Dialer{Timeout: 30 * time.Second}
	return NewWithDialer(cfg, func(ctx context.Context) (net.Conn, error) {
		return d.DialContext(ctx, "tcp", cfg.Addr)
	}, clock.New())
}

// NewWithDialer creates a session with an explicit transport and clock.
func NewWithDialer(cfg Config, dial DialFunc, clk clock.Clock) *Session {
	return &Session{
		cfg:    cfg,
		dial:   dial,
		clk:    clk,
		frames: make(chan *aprs.Frame, 64),
	}
}

// Frames returns the inbound frame stream. The channel stays open
// across reconnects.
func (s *Session) Frames() <-chan *aprs.Frame {
	return s.frames
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// Run connects, logs in and consumes the inbound stream until ctx is
// canceled. Connection loss is handled internally with exponential
// backoff between attempts.
func (s *Session) Run(ctx context.Context) error {
	for {
		s.setState(StateConnecting)
		conn, err := s.connect(ctx)
		if err != nil {
			s.setState(StateDisconnected)
			return err
		}
		if err := s.login(conn); err != nil {
			log.Warnf("login failed: %v", err)
			conn.Close()
			s.setState(StateReconnecting)
			continue
		}

		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
		s.setState(StateRunning)
		log.Infof("connected to %s as %s", s.cfg.Addr, s.cfg.Callsign)

		stop := context.AfterFunc(ctx, func() { conn.Close() })
		s.readLoop(ctx, conn)
		stop()

		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()

		if ctx.Err() != nil {
			s.setState(StateDisconnected)
			return ctx.Err()
		}
		s.setState(StateReconnecting)
		if s.cfg.OnReconnect != nil {
			s.cfg.OnReconnect()
		}
		log.Warn("connection lost, reconnecting")
	}
}

func (s *Session) connect(ctx context.Context) (net.Conn, error) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0 // retry until canceled
	var conn net.Conn
	err := backoff.Retry(func() error {
		var err error
		conn, err = s.dial(ctx)
		if err != nil {
			log.Warnf("dial %s: %v", s.cfg.Addr, err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
	return conn, err
}

// login writes the APRS-IS login line. A read-only session still logs
// in; the no-call passcode keeps the server side receive-only.
func (s *Session) login(conn net.Conn) error {
	line := fmt.Sprintf("user %s pass %d vers %s %s",
		s.cfg.Callsign, s.cfg.Passcode, s.cfg.Agent, s.cfg.Version)
	if s.cfg.Filter != "" {
		line += " filter " + s.cfg.Filter
	}
	_, err := fmt.Fprintf(conn, "%s\r\n", line)
	return err
}

func (s *Session) readLoop(ctx context.Context, conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		frame, err := aprs.ParseFrame(line)
		if err != nil {
			if errors.Is(err, aprs.ErrServerComment) {
				s.handleComment(line)
			} else {
				// malformed inbound is dropped silently
				log.Debugf("dropping line: %v", err)
			}
			continue
		}
		select {
		case s.frames <- frame:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) handleComment(line string) {
	log.Debugf("server: %s", line)
	if strings.Contains(line, "logresp") && strings.Contains(line, "unverified") && !s.cfg.ReadOnly {
		log.Warnf("server did not verify login: %s", line)
	}
}

func (s *Session) delay(cat Category) time.Duration {
	switch cat {
	case CategoryMessage:
		return s.cfg.Delays.Message
	case CategoryAck:
		return s.cfg.Delays.Ack
	}
	return s.cfg.Delays.Other
}

// Send writes one outbound line, sleeping first if the previous write
// was too recent. In read-only mode the line goes to the log instead of
// the socket.
func (s *Session) Send(cat Category, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.ReadOnly {
		log.Infof("read-only, suppressed %s: %s", cat, line)
		return nil
	}
	if s.conn == nil {
		return ErrNotConnected
	}
	if wait := s.delay(cat) - s.clk.Since(s.lastWrite); wait > 0 {
		s.clk.Sleep(wait)
	}
	if _, err := fmt.Fprintf(s.conn, "%s\r\n", line); err != nil {
		return err
	}
	s.lastWrite = s.clk.Now()
	log.Debugf("sent %s: %s", cat, line)
	return nil
}
