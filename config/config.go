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

// Package config loads and validates the daemon configuration from an
// ini file. Credentials use the "N0CALL" sentinel (or an empty value)
// to disable the feature they belong to instead of failing validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-ini/ini"

	"github.com/hamnet/aprsbot/aprs"
)

// APRSIS is the upstream connection section.
type APRSIS struct {
	Callsign   string
	Passcode   int
	Server     string
	Port       int
	Filter     string
	ToCall     string
	Addressees []string
}

// Addr returns the host:port dial target.
func (a *APRSIS) Addr() string {
	return fmt.Sprintf("%s:%d", a.Server, a.Port)
}

// ReadOnly reports whether outbound transmission is disabled.
func (a *APRSIS) ReadOnly() bool {
	return a.Callsign == aprs.NoCall
}

// Beacon is the position beacon section. Latitude/Longitude are decimal
// degrees; rendering to the fixed-width APRS notation happens at send
// time.
type Beacon struct {
	Latitude   float64
	Longitude  float64
	Table      string
	Symbol     string
	AltitudeFt int
	Alias      string
	Interval   time.Duration
}

// Bulletin is the periodic bulletin section, texts for BLN0..BLN2.
type Bulletin struct {
	Interval time.Duration
	Texts    []string
}

// Pacing holds the per-category inter-packet delays.
type Pacing struct {
	Message time.Duration
	Ack     time.Duration
	Other   time.Duration
}

// Dedup sizes the duplicate-suppression cache.
type Dedup struct {
	TTL      time.Duration
	Capacity int
}

// Refresh holds the reference-data refresh intervals.
type Refresh struct {
	Satellites time.Duration
	Repeaters  time.Duration
	Airports   time.Duration
}

// Providers carries third-party API credentials. An empty or N0CALL
// value disables the provider.
type Providers struct {
	AprsFiKey      string
	OpenWeatherKey string
}

// Dapnet carries the DAPNET API credentials.
type Dapnet struct {
	Login    string
	Password string
}

// Enabled reports whether pager transmission is configured.
func (d *Dapnet) Enabled() bool {
	return d.Login != "" && d.Login != aprs.NoCall && d.Password != ""
}

// Warncell maps a DWD warncell id to the short region tag used in the
// bulletin name and text.
type Warncell struct {
	ID     string
	Abbrev string
}

// DWD is the severe-weather broadcast section. An empty warncell list
// disables the feature.
type DWD struct {
	Warncells []Warncell
}

// Mail carries the SMTP/IMAP credentials for position reports by mail.
type Mail struct {
	SMTPServer    string
	SMTPPort      int
	IMAPServer    string
	IMAPPort      int
	User          string
	Password      string
	SentRetention time.Duration
}

// Enabled reports whether the mail feature is configured.
func (m *Mail) Enabled() bool {
	return m.User != "" && m.User != aprs.NoCall && m.SMTPServer != ""
}

// Config is the complete daemon configuration.
type Config struct {
	APRSIS   APRSIS
	Beacon   Beacon
	Bulletin Bulletin
	Pacing   Pacing
	Dedup    Dedup
	Refresh  Refresh

	Providers Providers
	Dapnet    Dapnet
	DWD       DWD
	Mail      Mail

	DataDir          string
	MonitoringAddr   string
	ForceUnicode     bool
	MinPassElevation float64
	OsmCategories    []string
}

// Default returns the built-in configuration. Callsign defaults to the
// no-call sentinel, so an unconfigured daemon observes without
// transmitting.
func Default() *Config {
	return &Config{
		APRSIS: APRSIS{
			Callsign: aprs.NoCall,
			Server:   "euro.aprs2.net",
			Port:     14580,
			ToCall:   "APRS",
		},
		Beacon: Beacon{
			Table:    "/",
			Symbol:   "?",
			Interval: 30 * time.Minute,
		},
		Bulletin: Bulletin{
			Interval: 4 * time.Hour,
		},
		Pacing: Pacing{
			Message: 6 * time.Second,
			Ack:     2 * time.Second,
			Other:   6 * time.Second,
		},
		Dedup: Dedup{
			TTL:      time.Hour,
			Capacity: 2160,
		},
		Refresh: Refresh{
			Satellites: 2 * 24 * time.Hour,
			Repeaters:  7 * 24 * time.Hour,
			Airports:   30 * 24 * time.Hour,
		},
		// no retention default: a mail-enabled config must set
		// sent_retention explicitly or fail validation
		Mail: Mail{
			SMTPPort: 465,
			IMAPPort: 993,
		},
		DataDir:          "data",
		MonitoringAddr:   ":8980",
		MinPassElevation: 10,
	}
}

// Load reads the ini file at path on top of the defaults and validates
// the result.
func Load(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	c := Default()
	if err := c.apply(file); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) apply(file *ini.File) error {
	s := file.Section("aprsis")
	c.APRSIS.Callsign = strings.ToUpper(s.Key("callsign").MustString(c.APRSIS.Callsign))
	c.APRSIS.Server = s.Key("server").MustString(c.APRSIS.Server)
	c.APRSIS.Port = s.Key("port").MustInt(c.APRSIS.Port)
	c.APRSIS.Filter = s.Key("filter").MustString(c.APRSIS.Filter)
	c.APRSIS.ToCall = s.Key("tocall").MustString(c.APRSIS.ToCall)
	if s.HasKey("passcode") {
		c.APRSIS.Passcode = s.Key("passcode").MustInt(0)
	} else {
		c.APRSIS.Passcode = aprs.Passcode(c.APRSIS.Callsign)
	}
	if s.HasKey("addressees") {
		c.APRSIS.Addressees = splitList(s.Key("addressees").String())
	}
	if len(c.APRSIS.Addressees) == 0 {
		c.APRSIS.Addressees = []string{c.APRSIS.Callsign}
	}
	for i, a := range c.APRSIS.Addressees {
		c.APRSIS.Addressees[i] = strings.ToUpper(a)
	}

	s = file.Section("beacon")
	c.Beacon.Latitude = s.Key("latitude").MustFloat64(c.Beacon.Latitude)
	c.Beacon.Longitude = s.Key("longitude").MustFloat64(c.Beacon.Longitude)
	c.Beacon.Table = s.Key("table").MustString(c.Beacon.Table)
	c.Beacon.Symbol = s.Key("symbol").MustString(c.Beacon.Symbol)
	c.Beacon.AltitudeFt = s.Key("altitude_ft").MustInt(c.Beacon.AltitudeFt)
	c.Beacon.Alias = s.Key("alias").MustString(c.Beacon.Alias)
	c.Beacon.Interval = s.Key("interval").MustDuration(c.Beacon.Interval)

	s = file.Section("bulletin")
	c.Bulletin.Interval = s.Key("interval").MustDuration(c.Bulletin.Interval)
	c.Bulletin.Texts = nil
	for i := 0; i < 3; i++ {
		key := fmt.Sprintf("bln%d", i)
		if s.HasKey(key) {
			c.Bulletin.Texts = append(c.Bulletin.Texts, s.Key(key).String())
		}
	}

	s = file.Section("pacing")
	c.Pacing.Message = s.Key("message").MustDuration(c.Pacing.Message)
	c.Pacing.Ack = s.Key("ack").MustDuration(c.Pacing.Ack)
	c.Pacing.Other = s.Key("other").MustDuration(c.Pacing.Other)

	s = file.Section("dedup")
	c.Dedup.TTL = s.Key("ttl").MustDuration(c.Dedup.TTL)
	c.Dedup.Capacity = s.Key("capacity").MustInt(c.Dedup.Capacity)

	s = file.Section("refresh")
	c.Refresh.Satellites = s.Key("satellites").MustDuration(c.Refresh.Satellites)
	c.Refresh.Repeaters = s.Key("repeaters").MustDuration(c.Refresh.Repeaters)
	c.Refresh.Airports = s.Key("airports").MustDuration(c.Refresh.Airports)

	s = file.Section("providers")
	c.Providers.AprsFiKey = s.Key("aprsfi_api_key").MustString("")
	c.Providers.OpenWeatherKey = s.Key("openweathermap_api_key").MustString("")

	s = file.Section("dapnet")
	c.Dapnet.Login = s.Key("login").MustString("")
	c.Dapnet.Password = s.Key("password").MustString("")

	s = file.Section("dwd")
	if s.HasKey("warncells") {
		for _, pair := range splitList(s.Key("warncells").String()) {
			id, tag, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("dwd: warncell %q not in id=tag form", pair)
			}
			tag = strings.ToUpper(strings.TrimSpace(tag))
			if len(tag) > 3 {
				tag = tag[:3]
			}
			c.DWD.Warncells = append(c.DWD.Warncells, Warncell{
				ID:     strings.TrimSpace(id),
				Abbrev: tag,
			})
		}
	}

	s = file.Section("mail")
	c.Mail.SMTPServer = s.Key("smtp_server").MustString(c.Mail.SMTPServer)
	c.Mail.SMTPPort = s.Key("smtp_port").MustInt(c.Mail.SMTPPort)
	c.Mail.IMAPServer = s.Key("imap_server").MustString(c.Mail.IMAPServer)
	c.Mail.IMAPPort = s.Key("imap_port").MustInt(c.Mail.IMAPPort)
	c.Mail.User = s.Key("user").MustString(c.Mail.User)
	c.Mail.Password = s.Key("password").MustString(c.Mail.Password)
	c.Mail.SentRetention = s.Key("sent_retention").MustDuration(c.Mail.SentRetention)

	s = file.Section("general")
	c.DataDir = s.Key("data_dir").MustString(c.DataDir)
	c.MonitoringAddr = s.Key("monitoring_addr").MustString(c.MonitoringAddr)
	c.ForceUnicode = s.Key("force_unicode").MustBool(c.ForceUnicode)
	c.MinPassElevation = s.Key("min_pass_elevation").MustFloat64(c.MinPassElevation)
	if s.HasKey("osm_categories") {
		c.OsmCategories = splitList(s.Key("osm_categories").String())
	}
	return nil
}

// Validate enforces the cross-field rules. It is called by Load but
// exported so hand-built configs in tests go through the same checks.
func (c *Config) Validate() error {
	if c.APRSIS.Callsign == "" {
		return fmt.Errorf("aprsis: callsign must not be empty")
	}
	if c.APRSIS.Server == "" || c.APRSIS.Port <= 0 {
		return fmt.Errorf("aprsis: server and port are required")
	}
	if !c.APRSIS.ReadOnly() && c.APRSIS.Passcode != aprs.Passcode(c.APRSIS.Callsign) {
		return fmt.Errorf("aprsis: passcode does not match callsign %s", c.APRSIS.Callsign)
	}
	if c.Beacon.Latitude < -90 || c.Beacon.Latitude > 90 {
		return fmt.Errorf("beacon: latitude %v out of range", c.Beacon.Latitude)
	}
	if c.Beacon.Longitude < -180 || c.Beacon.Longitude > 180 {
		return fmt.Errorf("beacon: longitude %v out of range", c.Beacon.Longitude)
	}
	if c.Beacon.Interval <= 0 || c.Bulletin.Interval <= 0 {
		return fmt.Errorf("beacon/bulletin intervals must be positive")
	}
	if c.Pacing.Message <= 0 || c.Pacing.Ack <= 0 || c.Pacing.Other <= 0 {
		return fmt.Errorf("pacing delays must be positive")
	}
	if c.Dedup.TTL <= 0 || c.Dedup.Capacity <= 0 {
		return fmt.Errorf("dedup ttl and capacity must be positive")
	}
	if c.Refresh.Satellites <= 0 || c.Refresh.Repeaters <= 0 || c.Refresh.Airports <= 0 {
		return fmt.Errorf("refresh intervals must be positive")
	}
	for _, wc := range c.DWD.Warncells {
		if wc.ID == "" || wc.Abbrev == "" {
			return fmt.Errorf("dwd: warncell id and tag must not be empty")
		}
	}
	if c.Mail.Enabled() && c.Mail.SentRetention <= 0 {
		return fmt.Errorf("mail: sent_retention must be positive when mail is enabled")
	}
	if c.DataDir == "" {
		return fmt.Errorf("general: data_dir must not be empty")
	}
	if c.MinPassElevation < 0 || c.MinPassElevation >= 90 {
		return fmt.Errorf("general: min_pass_elevation %v out of range", c.MinPassElevation)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
