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
Package aprs implements the subset of the APRS-IS wire format the bot
needs: parsing inbound text frames (messages, acks, rejects, reply-acks),
encoding outbound messages, beacons and bulletins, and the APRS-IS
passcode algorithm.
*/
package aprs

// PayloadMax is the APRS message payload ceiling in bytes (aprs101.pdf ch. 14).
const PayloadMax = 67

// NoCall is the sentinel callsign that puts a subsystem into read-only
// or disabled mode.
const NoCall = "N0CALL"

// Format classifies the payload of an inbound frame.
type Format int

// Supported inbound frame formats. Everything that is not a text message
// directed at a station is lumped into FormatOther and ignored upstream.
const (
	FormatOther Format = iota
	FormatMessage
	FormatAck
	FormatRej
)

func (f Format) String() string {
	switch f {
	case FormatMessage:
		return "message"
	case FormatAck:
		return "ack"
	case FormatRej:
		return "rej"
	}
	return "other"
}
