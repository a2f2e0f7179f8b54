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
	"fmt"
	"math"
)

// EncodeMessage renders a full APRS-IS message line. msgNo and ackMsgNo
// are optional; a non-empty ackMsgNo turns the suffix into the reply-ack
// form "{msgNo}ackMsgNo".
func EncodeMessage(src, tocall, addressee, text, msgNo, ackMsgNo string) string {
	line := fmt.Sprintf("%s>%s::%-9s:%s", src, tocall, addressee, text)
	if msgNo != "" {
		line += "{" + msgNo
		if ackMsgNo != "" {
			line += "}" + ackMsgNo
		}
	}
	return line
}

// EncodeAck renders the legacy acknowledgement for a received message-id.
func EncodeAck(src, tocall, addressee, msgNo string) string {
	return fmt.Sprintf("%s>%s::%-9s:ack%s", src, tocall, addressee, msgNo)
}

// EncodeRej renders the legacy rejection for a received message-id.
func EncodeRej(src, tocall, addressee, msgNo string) string {
	return fmt.Sprintf("%s>%s::%-9s:rej%s", src, tocall, addressee, msgNo)
}

// EncodeBulletin renders one bulletin line. The addressee is the bulletin
// identifier (BLN0..BLN9).
func EncodeBulletin(src, tocall, bulletinID, text string) string {
	return fmt.Sprintf("%s>%s::%-9s:%s", src, tocall, bulletinID, text)
}

// EncodeBeacon renders a position beacon without timestamp. lat and lon
// are already in the fixed-width APRS notation (ddmm.mmN / dddmm.mmE),
// altFeet is appended as /A=nnnnnn when positive.
func EncodeBeacon(src, tocall, lat, lon, table, symbol, comment string, altFeet int) string {
	payload := fmt.Sprintf("=%s%s%s%s%s", lat, table, lon, symbol, comment)
	if altFeet > 0 {
		payload += fmt.Sprintf("/A=%06d", altFeet)
	}
	return fmt.Sprintf("%s>%s:%s", src, tocall, payload)
}

// LatToAPRS converts decimal degrees to the 8-character APRS latitude
// notation ddmm.mmN.
func LatToAPRS(lat float64) string {
	hemi := "N"
	if lat < 0 {
		hemi = "S"
		lat = -lat
	}
	deg := math.Floor(lat)
	min := (lat - deg) * 60
	return fmt.Sprintf("%02.0f%05.2f%s", deg, min, hemi)
}

// LonToAPRS converts decimal degrees to the 9-character APRS longitude
// notation dddmm.mmE.
func LonToAPRS(lon float64) string {
	hemi := "E"
	if lon < 0 {
		hemi = "W"
		lon = -lon
	}
	deg := math.Floor(lon)
	min := (lon - deg) * 60
	return fmt.Sprintf("%03.0f%05.2f%s", deg, min, hemi)
}
