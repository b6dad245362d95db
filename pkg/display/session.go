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

// Scroll speed levels.
const (
	SpeedStatic = 0
	SpeedSlow   = 1
	SpeedMedium = 2
	SpeedFast   = 3
)

// Finish hold bounds, in seconds.
const (
	MinFinishHold = 1
	MaxFinishHold = 180
)

// Settings is the complete user-adjustable state of a session.
type Settings struct {
	FinishText  string              `json:"finishText"`
	Line        protocol.Line       `json:"line" validate:"min=1,max=15"`
	Brightness  protocol.Brightness `json:"brightness" validate:"min=1,max=3"`
	TextColor   protocol.Color      `json:"textColor" validate:"color"`
	UpColor     protocol.Color      `json:"upColor" validate:"color"`
	DownColor   protocol.Color      `json:"downColor" validate:"color"`
	ScrollSpeed int                 `json:"scrollSpeed" validate:"min=0,max=3"`
	DownMinutes int                 `json:"downMinutes" validate:"min=0,max=99"`
	DownSeconds int                 `json:"downSeconds" validate:"min=0,max=59"`
	FinishHold  int                 `json:"finishHold"`
	Rainbow     bool                `json:"rainbow"`
	FinishFlash bool                `json:"finishFlash"`
}

// DefaultSettings mirrors what a freshly opened control panel shows.
func DefaultSettings() Settings {
	return Settings{
		Line:        7,
		Brightness:  1,
		TextColor:   protocol.NoColor,
		UpColor:     protocol.Green,
		DownColor:   protocol.NoColor,
		ScrollSpeed: SpeedStatic,
		DownMinutes: 10,
		DownSeconds: 0,
		FinishHold:  5,
	}
}

// FinishHoldSeconds returns the finish hold clamped to its bounds.
func (s *Settings) FinishHoldSeconds() int {
	return min(MaxFinishHold, max(MinFinishHold, s.FinishHold))
}

// Session is the state shared by the engines of one terminal. It is owned
// by the ModeLock and handed to the engines by pointer.
type Session struct {
	saved    *savedDisplay
	Settings Settings
}

// savedDisplay holds the settings a temporary override replaced. A field
// the user sets while the override is active is kept on Restore.
type savedDisplay struct {
	color     protocol.Color
	speed     int
	userColor bool
	userSpeed bool
}

// Override replaces the scroll speed and text colour until Restore. Nested
// overrides keep the first saved values so Restore always returns to what
// the user had chosen.
func (s *Session) Override(speed int, c protocol.Color) {
	if s.saved == nil {
		s.saved = &savedDisplay{speed: s.Settings.ScrollSpeed, color: s.Settings.TextColor}
	}
	s.Settings.ScrollSpeed = speed
	s.Settings.TextColor = c
}

// Restore undoes an active override. It reports whether one was active.
func (s *Session) Restore() bool {
	if s.saved == nil {
		return false
	}
	if !s.saved.userSpeed {
		s.Settings.ScrollSpeed = s.saved.speed
	}
	if !s.saved.userColor {
		s.Settings.TextColor = s.saved.color
	}
	s.saved = nil
	return true
}

// Apply replaces the settings with a user edit.
//
//nolint:gocritic // settings struct copied for immutability
func (s *Session) Apply(next Settings) {
	if s.saved != nil {
		if next.ScrollSpeed != s.Settings.ScrollSpeed {
			s.saved.userSpeed = true
		}
		if next.TextColor != s.Settings.TextColor {
			s.saved.userColor = true
		}
	}
	s.Settings = next
}

// Overridden reports whether an override is active.
func (s *Session) Overridden() bool {
	return s.saved != nil
}
