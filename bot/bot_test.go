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
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/hamnet/aprsbot/aprs"
	"github.com/hamnet/aprsbot/config"
	"github.com/hamnet/aprsbot/providers/mail"
	"github.com/hamnet/aprsbot/refcache"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNewWithDefaults(t *testing.T) {
	b, err := New(testConfig(t), "1.0.0")
	require.NoError(t, err)
	require.NotNil(t, b.sess)
	require.NotNil(t, b.disp)
	require.NotNil(t, b.sched)
}

func TestRefreshJobs(t *testing.T) {
	cfg := testConfig(t)
	store, err := refcache.NewStore(cfg.DataDir)
	require.NoError(t, err)

	jobs := refreshJobs(store, cfg, mail.New(mail.Config{}))
	require.Len(t, jobs, 3)
	for _, j := range jobs {
		// nothing on disk yet, every dataset is stale
		require.True(t, j.RunAtStart, j.Name)
		require.Positive(t, j.Interval)
	}
}

func TestRefreshJobsWithMail(t *testing.T) {
	cfg := testConfig(t)
	store, err := refcache.NewStore(cfg.DataDir)
	require.NoError(t, err)

	mailer := mail.New(mail.Config{
		SMTPAddr:      "smtp.example.org:465",
		IMAPAddr:      "imap.example.org:993",
		Username:      "bot@example.org",
		Password:      "secret",
		SentRetention: 72 * time.Hour,
	})
	jobs := refreshJobs(store, cfg, mailer)
	require.Len(t, jobs, 4)
	require.Equal(t, "mail-prune", jobs[3].Name)
	require.False(t, jobs[3].RunAtStart)
}

// A read-only bot (the default no-call identity) must process a request
// end to end without a connection; outbound lines are suppressed by the
// session but still counted.
func TestHandleReadOnly(t *testing.T) {
	b, err := New(testConfig(t), "1.0.0")
	require.NoError(t, err)

	f := &aprs.Frame{
		Source:    "DF1JSL-1",
		Addressee: "N0CALL",
		Body:      "help",
		MsgNo:     "17",
		Format:    aprs.FormatMessage,
	}
	b.handle(context.Background(), f)

	require.Equal(t, 1.0, testutil.ToFloat64(b.st.Responses))
	require.Positive(t, testutil.ToFloat64(b.st.Fragments))
}
