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
	"strings"
)

// Color is a device colour slot. NoColor selects the sign's default.
type Color int

const (
	NoColor Color = iota
	Red
	Green
	Blue
	Yellow
	Magenta
	Cyan
	White
	Orange
	DeepPink
	LightBlue
)

// colorNames is ordered the way frontends list the choices.
var colorNames = []string{
	"Default", "Red", "Green", "Blue", "Yellow", "Magenta",
	"Cyan", "White", "Orange", "Deep pink", "Light Blue",
}

// ColorNames returns the display names of all colours, Default first.
func ColorNames() []string {
	names := make([]string, len(colorNames))
	copy(names, colorNames)
	return names
}

func (c Color) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Color(%d)", int(c))
	}
	return colorNames[c]
}

// Valid reports whether c is NoColor or one of the ten device slots.
func (c Color) Valid() bool {
	return c >= NoColor && c <= LightBlue
}

// ParseColor resolves a display name, case-insensitively. An empty name is
// the default colour.
func ParseColor(name string) (Color, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return NoColor, nil
	}
	for i, n := range colorNames {
		if strings.EqualFold(n, name) {
			return Color(i), nil
		}
	}
	return NoColor, fmt.Errorf("unknown color: %q", name)
}

// MarshalText encodes the colour by name for TOML and JSON.
func (c Color) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid color: %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText accepts a colour name.
func (c *Color) UnmarshalText(b []byte) error {
	parsed, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
