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
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/text/encoding/charmap"
)

// Line selects a physical row of the sign.
type Line int

// Valid reports whether l is an addressable row.
func (l Line) Valid() bool {
	return l >= MinLine && l <= MaxLine
}

func (l Line) String() string {
	return strconv.Itoa(int(l))
}

// Brightness is the per-frame intensity level.
type Brightness int

// Valid reports whether b is one of 1, 2 or 3.
func (b Brightness) Valid() bool {
	return b >= MinBrightness && b <= MaxBrightness
}

func (b Brightness) String() string {
	return strconv.Itoa(int(b))
}

// Frame is one complete command as sent over the wire.
type Frame []byte

// Payload returns the payload part of the frame.
func (f Frame) Payload(l Line) []byte {
	head := 1 + len(l.String()) + 1
	if len(f) < head+1 {
		return nil
	}
	return f[head : len(f)-1]
}

// Encode builds a frame. It is pure and never returns a partial frame.
func Encode(l Line, b Brightness, payload string) (Frame, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBrightness, int(b))
	}
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLine, int(l))
	}

	encoded, err := charmap.ISO8859_1.NewEncoder().String(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsafePayload, err)
	}
	if len(encoded) > MaxPayload {
		return nil, fmt.Errorf("%w: %d characters", ErrPayloadTooLong, len(encoded))
	}
	for i := range len(encoded) {
		if !IsDeviceSafe(rune(encoded[i])) {
			return nil, fmt.Errorf("%w: byte 0x%02x at %d", ErrUnsafePayload, encoded[i], i)
		}
	}

	line := l.String()
	frame := make(Frame, 0, 3+len(line)+len(encoded))
	frame = append(frame, STX)
	frame = append(frame, line...)
	frame = append(frame, byte('0'+b))
	frame = append(frame, encoded...)
	frame = append(frame, LF)
	return frame, nil
}

// Blank builds the frame that clears a line.
func Blank(l Line, b Brightness) (Frame, error) {
	return Encode(l, b, "")
}

// EncodeFitted wraps already sanitized text in colour c and encodes it. When
// the wrapped payload is too long the text is cut to what the budget allows
// next to the markup and encoded once more. A second failure means the
// budget arithmetic is wrong and is reported as ErrFitFailed.
func EncodeFitted(l Line, b Brightness, text string, c Color) (Frame, error) {
	frame, err := Encode(l, b, WrapColor(text, c))
	if err == nil {
		return frame, nil
	}
	if !errors.Is(err, ErrPayloadTooLong) {
		return nil, err
	}

	allowed := max(0, MaxPayload-ColorOverhead(c))
	frame, err = Encode(l, b, WrapColor(Truncate(text, allowed), c))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFitFailed, err)
	}
	return frame, nil
}
