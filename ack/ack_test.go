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

package ack

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hamnet/aprsbot/aprs"
)

func TestLegacyAckConfirms(t *testing.T) {
	tr := NewTracker()
	tr.Track("DF1JSL-8", "00001")
	require.Equal(t, 1, tr.Pending())

	f, err := aprs.ParseFrame("DF1JSL-8>APRS::DF1JSL-1 :ack00001")
	require.NoError(t, err)
	require.True(t, tr.ObserveInbound(f), "pure ack must not be dispatched")
	require.Equal(t, 0, tr.Pending())
}

func TestRejConfirms(t *testing.T) {
	tr := NewTracker()
	tr.Track("DF1JSL-8", "00002")

	f, err := aprs.ParseFrame("DF1JSL-8>APRS::DF1JSL-1 :rej00002")
	require.NoError(t, err)
	require.True(t, tr.ObserveInbound(f))
	require.Equal(t, 0, tr.Pending())
}

func TestReplyAckTrailerConfirms(t *testing.T) {
	tr := NewTracker()
	tr.Track("DF1JSL-8", "AA")
	require.False(t, tr.UsesReplyAck("DF1JSL-8"))

	// a regular message whose trailer confirms our outbound AA
	f, err := aprs.ParseFrame("DF1JSL-8>APRS::DF1JSL-1 :wx{MM}AA")
	require.NoError(t, err)
	require.False(t, tr.ObserveInbound(f), "message with trailer still carries a request")
	require.Equal(t, 0, tr.Pending())
	require.True(t, tr.UsesReplyAck("DF1JSL-8"))
	require.False(t, tr.UsesReplyAck("W1AW"))
}

func TestConfirmUnknown(t *testing.T) {
	tr := NewTracker()
	require.False(t, tr.Confirm("DF1JSL-8", "99999"))
}

func TestPendingBounded(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < maxPending+50; i++ {
		tr.Track("DF1JSL-8", fmt.Sprintf("%05d", i+1))
	}
	require.Equal(t, maxPending, tr.Pending())
	// the oldest entries were evicted
	require.False(t, tr.Confirm("DF1JSL-8", "00001"))
	require.True(t, tr.Confirm("DF1JSL-8", fmt.Sprintf("%05d", maxPending+50)))
}

func TestTrackEmptyMsgNoIgnored(t *testing.T) {
	tr := NewTracker()
	tr.Track("DF1JSL-8", "")
	require.Equal(t, 0, tr.Pending())
}
