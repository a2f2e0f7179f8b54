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

package aprs

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrServerComment marks APRS-IS housekeeping lines starting with '#'.
var ErrServerComment = errors.New("aprs-is server comment")

// ErrNotMessage marks frames whose payload is not an addressed text message.
var ErrNotMessage = errors.New("not an aprs message frame")

// Frame is one parsed APRS-IS line.
type Frame struct {
	// Source is the sending station, SSID included (e.g. "DF1JSL-8").
	Source string
	// Dest is the AX.25 destination (the "tocall").
	Dest string
	// Path is the digipeater path, if any.
	Path []string
	// Addressee is the station the message is directed at, trailing
	// padding stripped.
	Addressee string
	// Body is the message text without the message-id suffix.
	Body string
	// MsgNo is the message-id carried in the body, "" if absent.
	MsgNo string
	// AckMsgNo is the id confirmed by a reply-ack trailer ({MM}AA), "" if absent.
	AckMsgNo string
	// Format tags the payload variant.
	Format Format
}

var ackRe = regexp.MustCompile(`^(ack|rej)([A-Za-z0-9]{1,5})$`)

// defectiveMsgNoRe matches the non-standard "body{12345}" message-id
// framing some clients emit instead of "body{12345".
var defectiveMsgNoRe = regexp.MustCompile(`^(.*)\{([A-Za-z0-9]{1,5})\}\s*$`)

// ParseFrame parses a single APRS-IS text line into a Frame.
// Lines starting with '#' yield ErrServerComment. Frames that are not
// addressed text messages are returned with Format set accordingly so the
// caller can count and drop them.
func ParseFrame(line string) (*Frame, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.HasPrefix(line, "#") {
		return nil, ErrServerComment
	}

	gt := strings.Index(line, ">")
	if gt <= 0 {
		return nil, fmt.Errorf("malformed frame %q: no source", line)
	}
	colon := strings.Index(line, ":")
	if colon < 0 || colon < gt {
		return nil, fmt.Errorf("malformed frame %q: no payload", line)
	}

	f := &Frame{Source: strings.ToUpper(line[:gt])}

	header := strings.Split(line[gt+1:colon], ",")
	f.Dest = header[0]
	if len(header) > 1 {
		f.Path = header[1:]
	}

	payload := line[colon+1:]
	// An addressed message payload is ":ADDRESSEE:text", addressee padded
	// to 9 characters.
	if len(payload) < 11 || payload[0] != ':' || payload[10] != ':' {
		f.Format = FormatOther
		return f, nil
	}
	f.Addressee = strings.ToUpper(strings.TrimSpace(payload[1:10]))
	body := payload[11:]

	if m := ackRe.FindStringSubmatch(body); m != nil {
		if m[1] == "ack" {
			f.Format = FormatAck
		} else {
			f.Format = FormatRej
		}
		f.MsgNo = m[2]
		return f, nil
	}

	f.Format = FormatMessage
	f.Body, f.MsgNo, f.AckMsgNo = splitMsgNo(body)
	return f, nil
}

// splitMsgNo separates the message-id suffix from a message body.
// Three variants exist in the wild:
//
//	body{12345     standard (aprs101.pdf pg. 71)
//	body{MM}AA     reply-ack (the trailer also confirms our outbound AA)
//	body{12345}    defective framing, repaired here
func splitMsgNo(body string) (text, msgNo, ackMsgNo string) {
	idx := strings.LastIndex(body, "{")
	if idx < 0 {
		return body, "", ""
	}
	suffix := body[idx+1:]
	if j := strings.Index(suffix, "}"); j >= 0 {
		// Either reply-ack "{MM}AA" or the defective "{12345}".
		if m := defectiveMsgNoRe.FindStringSubmatch(body); m != nil {
			return m[1], m[2], ""
		}
		return body[:idx], suffix[:j], suffix[j+1:]
	}
	if len(suffix) >= 1 && len(suffix) <= 5 {
		return body[:idx], suffix, ""
	}
	return body, "", ""
}

// RepairMsgNo applies the defective message-id recovery pass to a body
// whose standard parsing did not find an id. It returns the cleaned body
// and the extracted id ("" if none found).
func RepairMsgNo(body string) (string, string) {
	m := defectiveMsgNoRe.FindStringSubmatch(body)
	if m == nil {
		return body, ""
	}
	return m[1], m[2]
}
