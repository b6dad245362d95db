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

package tui

import (
	"github.com/ZaparooProject/mled/pkg/helpers/syncutil"
	"github.com/ZaparooProject/mled/pkg/protocol"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Theme defines the colours used by the panel.
type Theme struct {
	Name                     string
	DisplayName              string
	AccentColorName          string
	TextColorName            string
	SecondaryColor           string
	WarningColorName         string
	ErrorColorName           string
	PrimitiveBackgroundColor tcell.Color
	ContrastBackgroundColor  tcell.Color
	BorderColor              tcell.Color
	PrimaryTextColor         tcell.Color
	SecondaryTextColor       tcell.Color
	InverseTextColor         tcell.Color
	FieldFocusedBg           tcell.Color
	FieldUnfocusedBg         tcell.Color
}

// ThemeDefault is the dark blue/yellow theme.
var ThemeDefault = Theme{
	Name:        "default",
	DisplayName: "Default (Dark Blue)",

	PrimitiveBackgroundColor: tcell.ColorDarkBlue,
	ContrastBackgroundColor:  tcell.ColorBlue,
	BorderColor:              tcell.ColorLightYellow,
	PrimaryTextColor:         tcell.ColorWhite,
	SecondaryTextColor:       tcell.ColorGray,
	InverseTextColor:         tcell.ColorDarkBlue,
	FieldFocusedBg:           tcell.ColorBlue,
	FieldUnfocusedBg:         tcell.ColorDarkBlue,

	AccentColorName:  "yellow",
	TextColorName:    "white",
	SecondaryColor:   "gray",
	WarningColorName: "yellow",
	ErrorColorName:   "red",
}

// ThemeHighContrast uses a black background with bright yellow.
var ThemeHighContrast = Theme{
	Name:        "high_contrast",
	DisplayName: "High Contrast",

	PrimitiveBackgroundColor: tcell.NewHexColor(0x000000),
	ContrastBackgroundColor:  tcell.NewHexColor(0x000000),
	BorderColor:              tcell.ColorYellow,
	PrimaryTextColor:         tcell.ColorWhite,
	SecondaryTextColor:       tcell.ColorWhite,
	InverseTextColor:         tcell.NewHexColor(0x000000),
	FieldFocusedBg:           tcell.ColorYellow,
	FieldUnfocusedBg:         tcell.NewHexColor(0x000000),

	AccentColorName:  "yellow",
	TextColorName:    "white",
	SecondaryColor:   "white",
	WarningColorName: "yellow",
	ErrorColorName:   "red",
}

// ThemeMonogreen is green on black, like the sign itself at night.
var ThemeMonogreen = Theme{
	Name:        "monogreen",
	DisplayName: "Mono Green (Retro)",

	PrimitiveBackgroundColor: tcell.ColorBlack,
	ContrastBackgroundColor:  tcell.NewHexColor(0x0A1A0A),
	BorderColor:              tcell.ColorGreen,
	PrimaryTextColor:         tcell.ColorGreen,
	SecondaryTextColor:       tcell.ColorDarkGreen,
	InverseTextColor:         tcell.ColorBlack,
	FieldFocusedBg:           tcell.ColorDarkGreen,
	FieldUnfocusedBg:         tcell.ColorBlack,

	AccentColorName:  "green",
	TextColorName:    "green",
	SecondaryColor:   "darkgreen",
	WarningColorName: "yellow",
	ErrorColorName:   "red",
}

// AvailableThemes maps theme names to theme definitions.
var AvailableThemes = map[string]*Theme{
	"default":       &ThemeDefault,
	"high_contrast": &ThemeHighContrast,
	"monogreen":     &ThemeMonogreen,
}

var (
	currentTheme = &ThemeDefault
	themeMu      syncutil.RWMutex
)

// CurrentTheme returns the currently active theme.
func CurrentTheme() *Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

// SetCurrentTheme sets the current theme by name. An empty name selects
// the default. Returns false if the theme name is not found.
func SetCurrentTheme(name string) bool {
	if name == "" {
		name = ThemeDefault.Name
	}
	theme, ok := AvailableThemes[name]
	if !ok {
		return false
	}
	themeMu.Lock()
	currentTheme = theme
	themeMu.Unlock()
	ApplyTheme(theme)
	return true
}

// ApplyTheme applies the given theme to tview's global styles.
func ApplyTheme(theme *Theme) {
	tview.Styles.PrimitiveBackgroundColor = theme.PrimitiveBackgroundColor
	tview.Styles.ContrastBackgroundColor = theme.ContrastBackgroundColor
	tview.Styles.BorderColor = theme.BorderColor
	tview.Styles.PrimaryTextColor = theme.PrimaryTextColor
	tview.Styles.SecondaryTextColor = theme.SecondaryTextColor
	tview.Styles.InverseTextColor = theme.InverseTextColor
}

// signColorTags are tview colour tags approximating each sign colour.
var signColorTags = map[protocol.Color]string{
	protocol.Red:       "red",
	protocol.Green:     "green",
	protocol.Blue:      "blue",
	protocol.Yellow:    "yellow",
	protocol.Magenta:   "fuchsia",
	protocol.Cyan:      "aqua",
	protocol.White:     "white",
	protocol.Orange:    "orange",
	protocol.DeepPink:  "deeppink",
	protocol.LightBlue: "lightblue",
}

// colorSwatch renders the colour's name in that colour.
func colorSwatch(c protocol.Color) string {
	tag, ok := signColorTags[c]
	if !ok {
		tag = CurrentTheme().TextColorName
	}
	return "[" + tag + "]" + tview.Escape(c.String()) + "[-]"
}
