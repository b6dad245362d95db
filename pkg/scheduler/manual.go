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

package scheduler

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Manual is a deterministic scheduler on virtual time. Callbacks only run
// inside Advance or RunNext, on the caller's goroutine, in due-time order
// (ties in scheduling order). It is not safe for concurrent use.
type Manual struct {
	clock *clockwork.FakeClock
	jobs  []*manualJob
	seq   uint64
}

type manualJob struct {
	due      time.Time
	fn       func()
	seq      uint64
	canceled bool
}

func (j *manualJob) Cancel() {
	j.canceled = true
}

// NewManual returns a Manual scheduler whose clock starts at start, or at a
// fixed reference time when start is zero.
func NewManual(start time.Time) *Manual {
	if start.IsZero() {
		start = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	return &Manual{clock: clockwork.NewFakeClockAt(start)}
}

func (m *Manual) Clock() clockwork.Clock {
	return m.clock
}

// Now is shorthand for the current virtual time.
func (m *Manual) Now() time.Time {
	return m.clock.Now()
}

func (m *Manual) After(d time.Duration, fn func()) Handle {
	m.seq++
	j := &manualJob{
		due: m.clock.Now().Add(max(0, d)),
		fn:  fn,
		seq: m.seq,
	}
	m.jobs = append(m.jobs, j)
	return j
}

// Pending returns the number of callbacks still waiting to run.
func (m *Manual) Pending() int {
	n := 0
	for _, j := range m.jobs {
		if !j.canceled {
			n++
		}
	}
	return n
}

// NextDue returns when the next pending callback is due.
func (m *Manual) NextDue() (time.Time, bool) {
	j := m.next(time.Time{})
	if j == nil {
		return time.Time{}, false
	}
	return j.due, true
}

// next picks the earliest pending job due at or before limit, or the
// earliest overall when limit is zero, and drops canceled jobs.
func (m *Manual) next(limit time.Time) *manualJob {
	var best *manualJob
	live := m.jobs[:0]
	for _, j := range m.jobs {
		if j.canceled {
			continue
		}
		live = append(live, j)
		if !limit.IsZero() && j.due.After(limit) {
			continue
		}
		if best == nil || j.due.Before(best.due) || (j.due.Equal(best.due) && j.seq < best.seq) {
			best = j
		}
	}
	m.jobs = live
	return best
}

func (m *Manual) remove(target *manualJob) {
	for i, j := range m.jobs {
		if j == target {
			m.jobs = append(m.jobs[:i], m.jobs[i+1:]...)
			return
		}
	}
}

func (m *Manual) runJob(j *manualJob) {
	m.remove(j)
	if now := m.clock.Now(); j.due.After(now) {
		m.clock.Advance(j.due.Sub(now))
	}
	j.canceled = true
	j.fn()
}

// Advance moves virtual time forward by d, running every callback that
// becomes due, including ones scheduled by callbacks along the way. It
// returns the number of callbacks run.
func (m *Manual) Advance(d time.Duration) int {
	target := m.clock.Now().Add(d)
	ran := 0
	for {
		j := m.next(target)
		if j == nil {
			break
		}
		m.runJob(j)
		ran++
	}
	if now := m.clock.Now(); target.After(now) {
		m.clock.Advance(target.Sub(now))
	}
	return ran
}

// RunNext jumps to the next pending callback and runs it.
func (m *Manual) RunNext() bool {
	j := m.next(time.Time{})
	if j == nil {
		return false
	}
	m.runJob(j)
	return true
}
