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
	"errors"

	"github.com/rs/zerolog/log"
)

var (
	ErrModeConflict    = errors.New("another feature is active")
	ErrEmptyText       = errors.New("text is empty")
	ErrInvalidDuration = errors.New("countdown duration must not be negative")
	ErrNotConnected    = errors.New("not connected")
	ErrWriteFailed     = errors.New("write failed")
)

// NoticeLevel grades how prominently a frontend should show a notice.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarn
	NoticeError
)

func (l NoticeLevel) String() string {
	switch l {
	case NoticeInfo:
		return "info"
	case NoticeWarn:
		return "warning"
	case NoticeError:
		return "error"
	default:
		return "unknown"
	}
}

// Notice is a user-facing message produced by an action or a background
// tick. Notices never change terminal state.
type Notice struct {
	Err     error
	Message string
	Level   NoticeLevel
}

// Listener receives notices and mode changes. Calls happen on the
// scheduler goroutine and must not block.
type Listener interface {
	Notice(n Notice)
	ModeChanged(m Mode)
}

// LogListener writes notices to the global logger.
type LogListener struct{}

func (LogListener) Notice(n Notice) {
	ev := log.Info()
	switch n.Level {
	case NoticeWarn:
		ev = log.Warn()
	case NoticeError:
		ev = log.Error()
	case NoticeInfo:
	}
	ev.Err(n.Err).Msg(n.Message)
}

func (LogListener) ModeChanged(m Mode) {
	log.Debug().Stringer("mode", m).Msg("mode changed")
}

type multiListener []Listener

func (ml multiListener) Notice(n Notice) {
	for _, l := range ml {
		l.Notice(n)
	}
}

func (ml multiListener) ModeChanged(m Mode) {
	for _, l := range ml {
		l.ModeChanged(m)
	}
}

// MultiListener fans out to every non-nil listener.
func MultiListener(listeners ...Listener) Listener {
	ml := make(multiListener, 0, len(listeners))
	for _, l := range listeners {
		if l != nil {
			ml = append(ml, l)
		}
	}
	return ml
}
