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
	"time"

	"github.com/ZaparooProject/mled/pkg/protocol"
	"github.com/ZaparooProject/mled/pkg/scheduler"
)

// scrollGap separates the end of the text from its next pass.
const scrollGap = "   "

// ScrollDelay returns the time between scroll steps for a speed level.
// Unknown levels fall back to the slowest speed.
func ScrollDelay(speed int) time.Duration {
	switch speed {
	case SpeedMedium:
		return 350 * time.Millisecond
	case SpeedFast:
		return 220 * time.Millisecond
	default:
		return 550 * time.Millisecond
	}
}

// ScrollEngine rotates text across the line one character per step.
type ScrollEngine struct {
	sched   scheduler.Scheduler
	session *Session
	out     *sender
	rainbow *Rainbow
	job     jobSlot
	buf     []rune
	delay   time.Duration
	pos     int
	color   protocol.Color
	cycle   bool
}

func newScrollEngine(sched scheduler.Scheduler, session *Session, out *sender, rainbow *Rainbow) *ScrollEngine {
	return &ScrollEngine{
		sched:   sched,
		session: session,
		out:     out,
		rainbow: rainbow,
	}
}

// Start shows text at the session's scroll speed. A non-zero color
// overrides the session text colour for this text, and cycle picks the next
// rainbow colour each time the text completes a full pass. At speed 0 the
// text is sent once and nothing is scheduled.
func (s *ScrollEngine) Start(text string, color protocol.Color, cycle bool) {
	s.Stop()

	base := protocol.Truncate(protocol.Sanitize(text), protocol.MaxPayload)
	s.color = color
	s.cycle = cycle

	speed := s.session.Settings.ScrollSpeed
	if speed == SpeedStatic {
		s.out.sendColored(base, s.activeColor())
		return
	}

	s.buf = []rune(base + scrollGap)
	s.pos = 0
	s.delay = ScrollDelay(speed)
	s.job.replace(s.sched.After(0, s.step))
}

// Stop cancels the pending step. The line keeps whatever was last sent.
func (s *ScrollEngine) Stop() {
	s.job.cancel()
	s.buf = nil
	s.pos = 0
	s.delay = 0
	s.color = protocol.NoColor
	s.cycle = false
}

func (s *ScrollEngine) Running() bool {
	return s.job.pending()
}

// Buffer returns the rotating text including the trailing gap.
func (s *ScrollEngine) Buffer() string {
	return string(s.buf)
}

// Position is the number of steps taken since the buffer last wrapped.
func (s *ScrollEngine) Position() int {
	return s.pos
}

func (s *ScrollEngine) activeColor() protocol.Color {
	if s.color != protocol.NoColor {
		return s.color
	}
	return s.session.Settings.TextColor
}

func (s *ScrollEngine) step() {
	s.job.clear()
	if len(s.buf) == 0 {
		return
	}

	first := s.buf[0]
	copy(s.buf, s.buf[1:])
	s.buf[len(s.buf)-1] = first

	window := protocol.Truncate(string(s.buf), protocol.MaxPayload)
	s.out.sendColored(window, s.activeColor())

	s.pos = (s.pos + 1) % len(s.buf)
	if s.cycle && s.pos == 0 {
		s.color = s.rainbow.Next()
	}

	s.job.replace(s.sched.After(s.delay, s.step))
}
