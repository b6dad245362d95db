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

package display

import (
	"github.com/ZaparooProject/mled/pkg/protocol"
)

// Rainbow hands out palette colours in a fixed cycle.
type Rainbow struct {
	palette []protocol.Color
	next    int
}

// NewRainbow cycles through every colour code from Red to LightBlue.
func NewRainbow() *Rainbow {
	palette := make([]protocol.Color, 0, protocol.LightBlue)
	for c := protocol.Red; c <= protocol.LightBlue; c++ {
		palette = append(palette, c)
	}
	return &Rainbow{palette: palette}
}

// Next returns the next colour, wrapping after the last one.
func (r *Rainbow) Next() protocol.Color {
	c := r.palette[r.next]
	r.next = (r.next + 1) % len(r.palette)
	return c
}

func (r *Rainbow) Reset() {
	r.next = 0
}
