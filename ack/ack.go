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
Package ack tracks message acknowledgement state. Two forms exist on the
air: the legacy "ack<id>"/"rej<id>" message and the reply-ack trailer
"{MM}AA" riding on a regular message. The tracker records which senders
speak reply-ack (our responses to them carry the trailer instead of a
separate ack line) and which outbound ids are still unconfirmed. There
is no retransmit; unconfirmed entries age out by count.
*/
package ack

import (
	"container/list"
	"sync"

	"github.com/hamnet/aprsbot/aprs"
)

// maxPending bounds the unconfirmed-outbound table.
const maxPending = 1024

type key struct {
	callsign string
	msgNo    string
}

// Tracker is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	replyAck map[string]bool
	pending  map[key]*list.Element
	order    *list.List // of key, oldest first
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		replyAck: make(map[string]bool),
		pending:  make(map[key]*list.Element),
		order:    list.New(),
	}
}

// ObserveInbound inspects a frame for acknowledgement content: legacy
// ack/rej frames and reply-ack trailers both confirm pending outbound
// ids. It returns true when the frame is a pure acknowledgement that
// must not reach the dispatcher.
func (t *Tracker) ObserveInbound(f *aprs.Frame) bool {
	switch f.Format {
	case aprs.FormatAck, aprs.FormatRej:
		t.Confirm(f.Source, f.MsgNo)
		return true
	case aprs.FormatMessage:
		if f.AckMsgNo != "" {
			t.mu.Lock()
			t.replyAck[f.Source] = true
			t.mu.Unlock()
			t.Confirm(f.Source, f.AckMsgNo)
		}
	}
	return false
}

// Track registers an outbound message id awaiting confirmation.
func (t *Tracker) Track(callsign, msgNo string) {
	if msgNo == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key{callsign: callsign, msgNo: msgNo}
	if _, ok := t.pending[k]; ok {
		return
	}
	for len(t.pending) >= maxPending {
		oldest := t.order.Front()
		delete(t.pending, oldest.Value.(key))
		t.order.Remove(oldest)
	}
	t.pending[k] = t.order.PushBack(k)
}

// Confirm removes a pending outbound id, reporting whether it was known.
func (t *Tracker) Confirm(callsign, msgNo string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key{callsign: callsign, msgNo: msgNo}
	el, ok := t.pending[k]
	if !ok {
		return false
	}
	t.order.Remove(el)
	delete(t.pending, k)
	return true
}

// UsesReplyAck reports whether the station has been seen using the
// reply-ack form; responses to it carry the in-band trailer.
func (t *Tracker) UsesReplyAck(callsign string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.replyAck[callsign]
}

// Pending returns the number of unconfirmed outbound ids.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
