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

package cmd

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hamnet/aprsbot/parser"
	"github.com/hamnet/aprsbot/refcache"
)

var (
	parseSenderFlag string
	parseDataFlag   string
)

func init() {
	RootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseSenderFlag, "sender", "s", "N0CALL-1", "callsign the message pretends to come from")
	parseCmd.Flags().StringVarP(&parseDataFlag, "data", "d", "", "reference data dir; without it bare airport/satellite/osm tokens never match")
}

var parseCmd = &cobra.Command{
	Use:   "parse <message>",
	Short: "Run a message body through the command parser and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ConfigureVerbosity()

		var lookup parser.Lookup
		if parseDataFlag != "" {
			store, err := refcache.NewStore(parseDataFlag)
			if err != nil {
				return err
			}
			if err := store.Load(); err != nil {
				return err
			}
			lookup = refcache.NewCatalog(store, nil)
		} else {
			log.Debug("no reference data, bare catalog tokens disabled")
		}

		body := strings.Join(args, " ")
		c := parser.New(lookup, false).Parse(body, strings.ToUpper(parseSenderFlag), time.Now().UTC())
		fmt.Println(c.Canonical())
		return nil
	},
}
