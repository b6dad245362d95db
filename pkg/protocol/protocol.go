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

// Package protocol implements the MLED sign wire format.
//
// A frame addresses one physical row of the sign:
//
//	[STX:0x02][LINE:"1".."15"][BRIGHTNESS:"1"|"2"|"3"][PAYLOAD:0..64][LF:0x0A]
//
// The payload is Latin-1 text restricted to the device-safe ranges 32-126
// and 224-255. In-band directives are delimited by '^', for example
// "^cs 3^TEXT^cs 0^" renders TEXT in colour slot 3.
package protocol

import (
	"errors"
	"time"
)

// Framing bytes.
const (
	STX byte = 0x02
	LF  byte = 0x0A
)

// Serial link parameters. The sign does not negotiate these.
const (
	BaudRate = 9600
	DataBits = 8
)

const (
	// MaxPayload is the payload budget of a single frame, markup included.
	MaxPayload = 64

	// MaxFinishText is the longest countdown finish message shown.
	MaxFinishText = 30

	// MinLine and MaxLine bound the addressable rows.
	MinLine = 1
	MaxLine = 15

	MinBrightness = 1
	MaxBrightness = 3

	// GreetingClearDelay is how long the identification frame stays up
	// after the link is opened.
	GreetingClearDelay = 3 * time.Second
)

// Markup delimiter and the character substituted for anything the sign
// cannot render.
const (
	Delimiter   = '^'
	Replacement = '*'
)

var (
	ErrInvalidBrightness = errors.New("brightness must be 1, 2 or 3")
	ErrInvalidLine       = errors.New("line must be between 1 and 15")
	ErrPayloadTooLong    = errors.New("payload too long, max 64 characters")
	ErrUnsafePayload     = errors.New("payload contains characters outside the device set")
	ErrFitFailed         = errors.New("payload does not fit after truncation")
)
