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
	"fmt"
	"strconv"
)

// Directive names understood by the sign.
const (
	DirColorSet      = "cs"
	DirRunTime       = "rt"
	DirFlashStart    = "fs"
	DirFlashEnd      = "fe"
	DirFlashLine     = "fd"
	DirIdentify      = "ic"
	colorResetMarkup = "^cs 0^"
)

// WrapColor encloses text in a colour directive. NoColor leaves the text
// untouched so the sign uses its default colour.
func WrapColor(text string, c Color) string {
	if c == NoColor {
		return text
	}
	return colorSetMarkup(c) + text + colorResetMarkup
}

// ColorOverhead is the number of characters WrapColor adds for c.
func ColorOverhead(c Color) int {
	if c == NoColor {
		return 0
	}
	return len(colorSetMarkup(c)) + len(colorResetMarkup)
}

func colorSetMarkup(c Color) string {
	return "^" + DirColorSet + " " + strconv.Itoa(int(c)) + "^"
}

// RunTime builds the directive that makes the sign run its own countdown
// display starting from text, e.g. RunTime(2, "10:00") is "^rt 2 10:00^".
func RunTime(flags int, text string) string {
	return fmt.Sprintf("^%s %d %s^", DirRunTime, flags, text)
}

// FlashFragment makes only text flash, for on units, optionally coloured.
func FlashFragment(flags, on int, c Color, text string) string {
	return flashOpen(DirFlashStart, flags, on, c) + text + "^" + DirFlashEnd + "^"
}

// FlashLine makes the whole line flash.
func FlashLine(flags, on int, c Color) string {
	return flashOpen(DirFlashLine, flags, on, c)
}

func flashOpen(dir string, flags, on int, c Color) string {
	if c == NoColor {
		return fmt.Sprintf("^%s %d %d^", dir, flags, on)
	}
	return fmt.Sprintf("^%s %d %d %d^", dir, flags, on, int(c))
}

// Identify builds the identification directive sent when the link opens.
func Identify(a, b int) string {
	return fmt.Sprintf("^%s %d %d^", DirIdentify, a, b)
}

// Greeting is the payload shown briefly after connecting.
func Greeting() string {
	return Identify(5, 7) + WrapColor("MLED", Blue)
}

// MaxTextLen is the user text budget. With rainbow on the text must leave
// room for the widest colour directive the cycle can pick.
func MaxTextLen(rainbow bool) int {
	if !rainbow {
		return MaxPayload
	}
	return max(0, MaxPayload-ColorOverhead(LightBlue))
}
