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

package bot

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/hamnet/aprsbot/aprs"
	"github.com/hamnet/aprsbot/config"
	"github.com/hamnet/aprsbot/fragment"
	"github.com/hamnet/aprsbot/providers/dwd"
	"github.com/hamnet/aprsbot/scheduler"
	"github.com/hamnet/aprsbot/session"
)

// dwdBulletin is one rendered severe-weather bulletin.
type dwdBulletin struct {
	ID   string
	Text string
}

// dwdBulletins renders the active warnings for the configured warncells
// into bulletins named BLN<n>WX<tag>, n counting up from 0 across all
// cells. At most ten bulletin slots exist; overflow is dropped.
func dwdBulletins(cells []config.Warncell, warns map[string][]dwd.Warning) []dwdBulletin {
	var out []dwdBulletin
	slot := 0
	for _, cell := range cells {
		for _, w := range warns[cell.ID] {
			if slot > 9 {
				return out
			}
			text := fmt.Sprintf("DWD Warnung vor %s in %s bis %s",
				strings.ToUpper(fragment.Transliterate(w.Event)),
				cell.Abbrev,
				w.End.UTC().Format("02-Jan 15h"))
			if len(text) > aprs.PayloadMax {
				text = text[:aprs.PayloadMax]
			}
			out = append(out, dwdBulletin{
				ID:   fmt.Sprintf("BLN%dWX%s", slot, cell.Abbrev),
				Text: text,
			})
			slot++
		}
	}
	return out
}

// dwdJob broadcasts the active DWD warnings for the configured
// warncells on the bulletin interval.
func dwdJob(cfg *config.Config, warnings *dwd.Client, snd scheduler.Sender) scheduler.Job {
	return scheduler.Job{
		Name:       "dwd-bulletins",
		Interval:   cfg.Bulletin.Interval,
		RunAtStart: true,
		Run: func(ctx context.Context) error {
			warns, err := warnings.Warnings(ctx)
			if err != nil {
				return err
			}
			for _, b := range dwdBulletins(cfg.DWD.Warncells, warns) {
				line := aprs.EncodeBulletin(cfg.APRSIS.Callsign, cfg.APRSIS.ToCall, b.ID, b.Text)
				if err := snd.Send(session.CategoryBulletin, line); err != nil {
					log.Warnf("bulletin %s failed: %v", b.ID, err)
					return err
				}
			}
			return nil
		},
	}
}
