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
Package fragment renders a Response into APRS message payloads. The
protocol caps a message body at 67 bytes, so a response is flowed
greedily: a token that fits is appended to the current payload, a token
that does not opens the next one. Tokens are atomic units ("Grid
JO41du", "morn:-3c") that must never be torn across a payload boundary;
only a token that alone exceeds the ceiling is split, first on word
boundaries and as a last resort by a hard chop.
*/
package fragment

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hamnet/aprsbot/aprs"
)

// MetarTafSeparator divides the METAR part from the TAF part in a
// combined report.
const MetarTafSeparator = "##"

// Response is an ordered list of semantic lines; each line is a list of
// atomic tokens. Lines only group tokens for the producer's benefit,
// the renderer flows all tokens into one stream.
type Response struct {
	lines [][]string
}

// AddLine appends one semantic line. Empty tokens are dropped.
func (r *Response) AddLine(tokens ...string) {
	line := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t != "" {
			line = append(line, t)
		}
	}
	if len(line) > 0 {
		r.lines = append(r.lines, line)
	}
}

// AddText appends a line splitting free text on whitespace, so the
// renderer may wrap it anywhere between words.
func (r *Response) AddText(text string) {
	r.AddLine(strings.Fields(text)...)
}

// Empty reports whether no tokens were added.
func (r *Response) Empty() bool {
	return len(r.lines) == 0
}

// Fragment is one outbound payload with its assigned message id (empty
// when the inbound frame carried none).
type Fragment struct {
	Payload string
	MsgNo   string
}

// Counter issues outbound message ids: five decimal digits, starting at
// 00001 and wrapping after 99999. Safe for concurrent use.
type Counter struct {
	mu   sync.Mutex
	next int
}

// NewCounter returns a Counter positioned at 00001.
func NewCounter() *Counter {
	return &Counter{next: 1}
}

// Next returns the next message id.
func (c *Counter) Next() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	if c.next > 99999 {
		c.next = 1
	}
	return fmt.Sprintf("%05d", id)
}

// Fragmenter renders responses, drawing outbound ids from a shared
// counter.
type Fragmenter struct {
	counter *Counter
}

// New creates a Fragmenter around the given id counter.
func New(counter *Counter) *Fragmenter {
	return &Fragmenter{counter: counter}
}

// Render flows the response into payloads of at most aprs.PayloadMax
// bytes. Unless forceUnicode is set, every token passes through the
// transliteration pass first. withMsgNo assigns each payload a fresh id
// (the inbound frame carried one); otherwise ids stay empty.
func (f *Fragmenter) Render(r *Response, forceUnicode, withMsgNo bool) []Fragment {
	payloads := renderPayloads(r, forceUnicode)
	frags := make([]Fragment, 0, len(payloads))
	for _, p := range payloads {
		fr := Fragment{Payload: p}
		if withMsgNo {
			fr.MsgNo = f.counter.Next()
		}
		frags = append(frags, fr)
	}
	return frags
}

func renderPayloads(r *Response, forceUnicode bool) []string {
	var out []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}

	var emit func(tok string)
	emit = func(tok string) {
		if tok == "" {
			return
		}
		switch {
		case cur.Len() == 0 && len(tok) <= aprs.PayloadMax:
			cur.WriteString(tok)
		case cur.Len() > 0 && cur.Len()+1+len(tok) <= aprs.PayloadMax:
			cur.WriteString(" ")
			cur.WriteString(tok)
		default:
			flush()
			if len(tok) <= aprs.PayloadMax {
				cur.WriteString(tok)
				return
			}
			// oversized token: prefer word boundaries
			if words := strings.Fields(tok); len(words) > 1 {
				for _, w := range words {
					emit(w)
				}
				return
			}
			for _, chunk := range chop(tok, aprs.PayloadMax) {
				emit(chunk)
			}
		}
	}

	for _, line := range r.lines {
		for _, tok := range line {
			if !forceUnicode {
				tok = Transliterate(tok)
			}
			emit(tok)
		}
	}
	flush()
	return out
}

// chop hard-splits a single word into byte-limited chunks, backing off
// to the previous rune boundary so multi-byte runes stay whole.
func chop(s string, limit int) []string {
	var chunks []string
	for len(s) > limit {
		cut := limit
		for cut > 0 && !isRuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		chunks = append(chunks, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

func isRuneStart(b byte) bool {
	return b&0xc0 != 0x80
}
