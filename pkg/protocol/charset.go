// MLED
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of MLED.
//
// MLED is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// MLED is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with MLED.  If not, see <http://www.gnu.org/licenses/>.

package protocol

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// transliterations covers letters whose decomposition does not reduce to a
// plain Latin letter, plus the Polish set the sign is most often fed.
//
//nolint:gosmopolitan // intentional non-ASCII transliteration table
var transliterations = strings.NewReplacer(
	"ą", "a", "ć", "c", "ę", "e", "ł", "l", "ń", "n", "ó", "o", "ś", "s", "ż", "z", "ź", "z",
	"Ą", "A", "Ć", "C", "Ę", "E", "Ł", "L", "Ń", "N", "Ó", "O", "Ś", "S", "Ż", "Z", "Ź", "Z",
	"ß", "ss", "Æ", "AE", "æ", "ae", "Œ", "OE", "œ", "oe",
)

// IsDeviceSafe reports whether r can be sent to the sign verbatim.
func IsDeviceSafe(r rune) bool {
	return (r >= 32 && r <= 126) || (r >= 224 && r <= 255)
}

func deviceRune(r rune) rune {
	if r == Delimiter || !IsDeviceSafe(r) {
		return Replacement
	}
	return r
}

// Sanitize maps arbitrary text onto the characters the sign can display.
// It never fails: anything that cannot be represented becomes '*'. The
// markup delimiter '^' is always replaced so plain text can never inject a
// directive. Sanitize is idempotent.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}

	// transliterate after decomposing: ǽ only becomes æ once its accent
	// is stripped
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	s, _, err := transform.String(t, text)
	if err != nil {
		// transform only fails on invalid UTF-8 state; map the input as is
		// so the result is still device-safe
		s = text
	}
	return strings.Map(deviceRune, transliterations.Replace(s))
}

// Truncate returns at most n characters of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Len returns the number of characters in s, which for sanitized text is
// also its encoded byte length.
func Len(s string) int {
	return len([]rune(s))
}
