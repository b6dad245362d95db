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

// Package scheduler provides the delayed-callback facility the display
// engines run on. Every callback of a scheduler runs on one goroutine, so
// the state it touches needs no locking.
package scheduler

import (
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrStopped is returned when work is submitted to a loop that has exited.
var ErrStopped = errors.New("scheduler stopped")

// Handle refers to one scheduled callback. Cancel is idempotent and safe to
// call after the callback has already run.
type Handle interface {
	Cancel()
}

// Scheduler runs fn once after d.
type Scheduler interface {
	After(d time.Duration, fn func()) Handle
	Clock() clockwork.Clock
}

type noopHandle struct{}

func (noopHandle) Cancel() {}

// Noop is a Handle that refers to nothing.
var Noop Handle = noopHandle{}
