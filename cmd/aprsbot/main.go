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

package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/hamnet/aprsbot/bot"
	"github.com/hamnet/aprsbot/config"
)

// Version is announced in the APRS-IS login line.
const Version = "0.1.0"

func main() {
	var configPath string
	var logLevel string
	var monitoringPort int

	flag.StringVar(&configPath, "config", "aprsbot.ini", "Path to the configuration file")
	flag.StringVar(&logLevel, "loglevel", "info", "Set a log level. Can be: debug, info, warning, error")
	flag.IntVar(&monitoringPort, "monitoringport", 0, "Override the monitoring port from the config")

	flag.Parse()

	switch logLevel {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warning":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.Fatalf("Unrecognized log level: %v", logLevel)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if monitoringPort > 0 {
		cfg.MonitoringAddr = fmt.Sprintf(":%d", monitoringPort)
	}
	if cfg.APRSIS.ReadOnly() {
		log.Warn("no callsign configured, running receive-only")
	}

	b, err := bot.New(cfg, Version)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infof("aprsbot %s starting as %s", Version, cfg.APRSIS.Callsign)
	if err := b.Run(ctx); err != nil {
		log.Fatal(err)
	}
	log.Info("shutdown complete")
}
