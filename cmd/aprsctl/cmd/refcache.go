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
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/hamnet/aprsbot/config"
	"github.com/hamnet/aprsbot/refcache"
)

var freshString = color.GreenString("fresh")
var staleString = color.RedString("stale")

func init() {
	RootCmd.AddCommand(refcacheCmd)
}

var refcacheCmd = &cobra.Command{
	Use:   "refcache <dir>",
	Short: "Show the status of the reference data under a data directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ConfigureVerbosity()

		store, err := refcache.NewStore(args[0])
		if err != nil {
			return err
		}
		if err := store.Load(); err != nil {
			return err
		}

		// staleness judged against the default refresh intervals
		refresh := config.Default().Refresh

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"dataset", "entries", "refreshed", "status"})
		table.Append(row("airports", store.Airports().Len(),
			store.LastRefresh("stations.txt"), store.AirportsStale(refresh.Airports)))
		table.Append(row("satellites", store.Satellites().Len(),
			store.LastRefresh("amateur.tle"), store.SatellitesStale(refresh.Satellites)))
		table.Append(row("repeaters", store.Repeaters().Len(),
			store.LastRefresh("repeatermap.json"), store.RepeatersStale(refresh.Repeaters)))
		table.Render()
		return nil
	},
}

func row(name string, entries int, refreshed time.Time, stale bool) []string {
	when := "never"
	if !refreshed.IsZero() {
		when = refreshed.UTC().Format(time.RFC3339)
	}
	status := freshString
	if stale {
		status = staleString
	}
	return []string{name, fmt.Sprintf("%d", entries), when, status}
}
