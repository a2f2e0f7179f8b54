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

// Package mail sends position report emails and keeps the account's
// Sent folder from growing without bound.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	log "github.com/sirupsen/logrus"

	"github.com/hamnet/aprsbot/providers"
)

// Config carries the account settings. Empty Username disables the
// provider.
type Config struct {
	SMTPAddr      string // host:port
	IMAPAddr      string // host:port, TLS
	Username      string
	Password      string
	From          string
	SentFolder    string        // defaults to "Sent"
	SentRetention time.Duration // messages older than this are pruned
}

// Client sends mail and prunes the Sent folder.
type Client struct {
	cfg  Config
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	dial func(addr string) (imapConn, error)
}

// imapConn is the slice of go-imap's client used here, split out so
// tests can fake a server.
type imapConn interface {
	Login(username, password string) error
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	UidStore(seqset *imap.SeqSet, item imap.StoreItem, value interface{}, ch chan *imap.Message) error
	Expunge(ch chan uint32) error
	Logout() error
}

// New creates a Client for an account.
func New(cfg Config) *Client {
	if cfg.SentFolder == "" {
		cfg.SentFolder = "Sent"
	}
	return &Client{
		cfg:  cfg,
		send: smtp.SendMail,
		dial: func(addr string) (imapConn, error) {
			c, err := client.DialTLS(addr, nil)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

// Enabled reports whether account credentials are configured.
func (c *Client) Enabled() bool {
	return c.cfg.Username != ""
}

// PositionBody renders the mail body for a station position report.
func PositionBody(callsign string, lat, lon float64, lastSeen time.Time) string {
	return fmt.Sprintf("Position of %s: %.5f/%.5f (seen %s)\nhttps://aprs.fi/%s\n",
		callsign, lat, lon, lastSeen.UTC().Format("02-Jan-06 15:04Z"), callsign)
}

// SendPosition mails a station's position to a recipient.
func (c *Client) SendPosition(ctx context.Context, recipient, callsign string, lat, lon float64, lastSeen time.Time) error {
	const op = "mail"
	if !c.Enabled() {
		return providers.Errorf(providers.KindDisabled, op, "no account configured")
	}
	if err := ctx.Err(); err != nil {
		return providers.E(providers.KindInternal, op, err)
	}

	callsign = strings.ToUpper(callsign)
	msg := strings.Join([]string{
		"From: " + c.cfg.From,
		"To: " + recipient,
		fmt.Sprintf("Subject: APRS position report for %s", callsign),
		"",
		PositionBody(callsign, lat, lon, lastSeen),
	}, "\r\n")

	auth := smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, smtpHost(c.cfg.SMTPAddr))
	if err := c.send(c.cfg.SMTPAddr, auth, c.cfg.From, []string{recipient}, []byte(msg)); err != nil {
		return providers.E(providers.KindTransport, op, err)
	}
	log.Infof("mailed position of %s to %s", callsign, recipient)
	return nil
}

// PruneSent deletes messages in the Sent folder older than the
// configured retention. Returns the number of messages removed.
func (c *Client) PruneSent(ctx context.Context) (int, error) {
	const op = "mail"
	if !c.Enabled() {
		return 0, providers.Errorf(providers.KindDisabled, op, "no account configured")
	}
	if c.cfg.SentRetention <= 0 {
		return 0, providers.Errorf(providers.KindInternal, op, "retention not configured")
	}

	conn, err := c.dial(c.cfg.IMAPAddr)
	if err != nil {
		return 0, providers.E(providers.KindTransport, op, err)
	}
	defer conn.Logout()

	if err := conn.Login(c.cfg.Username, c.cfg.Password); err != nil {
		return 0, providers.E(providers.KindProvider, op, err)
	}
	if _, err := conn.Select(c.cfg.SentFolder, false); err != nil {
		return 0, providers.E(providers.KindProvider, op, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Before = time.Now().Add(-c.cfg.SentRetention)
	uids, err := conn.UidSearch(criteria)
	if err != nil {
		return 0, providers.E(providers.KindProvider, op, err)
	}
	if len(uids) == 0 {
		return 0, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := conn.UidStore(seqset, item, []interface{}{imap.DeletedFlag}, nil); err != nil {
		return 0, providers.E(providers.KindProvider, op, err)
	}
	if err := conn.Expunge(nil); err != nil {
		return 0, providers.E(providers.KindProvider, op, err)
	}
	log.Infof("pruned %d sent mails older than %s", len(uids), c.cfg.SentRetention)
	return len(uids), nil
}

func smtpHost(addr string) string {
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[:i]
	}
	return addr
}
