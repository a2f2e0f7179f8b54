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

import "strings"

// Passcode computes the APRS-IS login passcode for a callsign.
// The SSID is ignored. The N0CALL sentinel yields -1, which APRS-IS
// servers treat as a receive-only login.
func Passcode(callsign string) int {
	call := strings.ToUpper(callsign)
	if i := strings.Index(call, "-"); i >= 0 {
		call = call[:i]
	}
	if call == NoCall {
		return -1
	}

	hash := 0x73e2
	for i := 0; i < len(call); i += 2 {
		hash ^= int(call[i]) << 8
		if i+1 < len(call) {
			hash ^= int(call[i+1])
		}
	}
	return hash & 0x7fff
}
