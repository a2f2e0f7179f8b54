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

package fragment

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// replacements carries the characters whose conventional ASCII spelling
// is not just the base letter. Applied before the diacritic strip so
// "ü" becomes "ue", not "u".
var replacements = map[rune]string{
	'ä': "ae", 'Ä': "Ae",
	'ö': "oe", 'Ö': "Oe",
	'ü': "ue", 'Ü': "Ue",
	'ß': "ss", 'ẞ': "SS",
	'ø': "oe", 'Ø': "Oe",
	'å': "aa", 'Å': "Aa",
	'æ': "ae", 'Æ': "Ae",
	'œ': "oe", 'Œ': "Oe",
	'ð': "d", 'Ð': "D",
	'þ': "th", 'Þ': "Th",
	'đ': "d", 'Đ': "D",
	'ł': "l", 'Ł': "L",
	'°': "deg",
	'€': "EUR",
	'–': "-", '—': "-",
	'‘': "'", '’': "'",
	'“': `"`, '”': `"`,
}

var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Transliterate reduces a string to 7-bit ASCII: conventional spellings
// from the replacement table, then diacritic removal, then anything
// still outside ASCII is dropped.
func Transliterate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if rep, ok := replacements[r]; ok {
			b.WriteString(rep)
			continue
		}
		b.WriteRune(r)
	}

	stripped, _, err := transform.String(diacriticStripper, b.String())
	if err != nil {
		stripped = b.String()
	}

	var out strings.Builder
	out.Grow(len(stripped))
	for _, r := range stripped {
		if r < 128 {
			out.WriteRune(r)
		}
	}
	return out.String()
}
