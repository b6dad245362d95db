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
	"fmt"
)

// Mode is the feature currently holding the sign.
type Mode int

const (
	ModeIdle Mode = iota
	ModeText
	ModeCountUp
	ModeCountDown
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeText:
		return "text"
	case ModeCountUp:
		return "countup"
	case ModeCountDown:
		return "countdown"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Affordances lists which controls a frontend should offer in the current
// mode. Clear is always available.
type Affordances struct {
	Send           bool `json:"send"`
	Scroll         bool `json:"scroll"`
	StaticSpeed    bool `json:"staticSpeed"`
	TextColor      bool `json:"textColor"`
	CountUpStart   bool `json:"countUpStart"`
	CountUpStop    bool `json:"countUpStop"`
	CountDownStart bool `json:"countDownStart"`
	CountDownStop  bool `json:"countDownStop"`
	Clear          bool `json:"clear"`
}

// AffordancesFor derives the control state for a mode. Rainbow mode always
// scrolls in palette colours, so the static speed and colour picker are
// withdrawn while it is on.
func AffordancesFor(m Mode, rainbow bool) Affordances {
	text := m == ModeIdle || m == ModeText
	up := m == ModeIdle || m == ModeCountUp
	down := m == ModeIdle || m == ModeCountDown
	return Affordances{
		Send:           text,
		Scroll:         text,
		StaticSpeed:    text && !rainbow,
		TextColor:      text && !rainbow,
		CountUpStart:   up,
		CountUpStop:    up,
		CountDownStart: down,
		CountDownStop:  down,
		Clear:          true,
	}
}

// ModeLock enforces that at most one feature drives the sign at a time.
// A feature acquires the lock when it starts and only Release (called by
// clear) returns the sign to idle.
type ModeLock struct {
	session  *Session
	onChange func(Mode)
	mode     Mode
}

func NewModeLock(session *Session, onChange func(Mode)) *ModeLock {
	if session == nil {
		session = &Session{Settings: DefaultSettings()}
	}
	return &ModeLock{session: session, onChange: onChange}
}

func (l *ModeLock) Mode() Mode {
	return l.mode
}

func (l *ModeLock) Session() *Session {
	return l.session
}

// Check reports ErrModeConflict when m cannot start in the current mode.
func (l *ModeLock) Check(m Mode) error {
	if l.mode != ModeIdle && l.mode != m {
		return fmt.Errorf("%w: %s is active", ErrModeConflict, l.mode)
	}
	return nil
}

// Acquire moves the lock to m. Acquiring the mode already held succeeds.
func (l *ModeLock) Acquire(m Mode) error {
	if err := l.Check(m); err != nil {
		return err
	}
	l.set(m)
	return nil
}

// Release returns the lock to idle.
func (l *ModeLock) Release() {
	l.set(ModeIdle)
}

func (l *ModeLock) Affordances() Affordances {
	return AffordancesFor(l.mode, l.session.Settings.Rainbow)
}

func (l *ModeLock) set(m Mode) {
	changed := l.mode != m
	l.mode = m
	if changed && l.onChange != nil {
		l.onChange(m)
	}
}
