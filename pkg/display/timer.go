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
	"strings"
	"time"

	"github.com/ZaparooProject/mled/pkg/protocol"
	"github.com/ZaparooProject/mled/pkg/scheduler"
)

// TickInterval is how often a running count-up is redrawn.
const TickInterval = 100 * time.Millisecond

// shortFinish is the longest finish message shown without scrolling.
const shortFinish = 8

// TimerKind tells which timer, if any, is running.
type TimerKind int

const (
	TimerNone TimerKind = iota
	TimerUp
	TimerDown
)

func (k TimerKind) String() string {
	switch k {
	case TimerUp:
		return "up"
	case TimerDown:
		return "down"
	default:
		return "none"
	}
}

func (k TimerKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// FormatElapsed renders a count-up reading. Under a minute it is "SS.CC",
// otherwise "MM:SS.CC". Centiseconds are truncated.
func FormatElapsed(d time.Duration) string {
	d = max(0, d)
	cs := int64(d / (10 * time.Millisecond))
	minutes := cs / 6000
	seconds := cs / 100 % 60
	cs %= 100
	if minutes == 0 {
		return fmt.Sprintf("%02d.%02d", seconds, cs)
	}
	return fmt.Sprintf("%02d:%02d.%02d", minutes, seconds, cs)
}

// FormatRemaining renders a countdown reading as "MM:SS", rounding down.
func FormatRemaining(d time.Duration) string {
	total := int64(max(0, d) / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// TimerEngine drives the count-up and countdown features and the message
// shown when a countdown finishes.
type TimerEngine struct {
	sched     scheduler.Scheduler
	session   *Session
	out       *sender
	scroll    *ScrollEngine
	clearLine func()
	start     time.Time
	end       time.Time
	job       jobSlot
	kind      TimerKind
	finishing bool
}

func newTimerEngine(
	sched scheduler.Scheduler,
	session *Session,
	out *sender,
	scroll *ScrollEngine,
	clearLine func(),
) *TimerEngine {
	return &TimerEngine{
		sched:     sched,
		session:   session,
		out:       out,
		scroll:    scroll,
		clearLine: clearLine,
	}
}

func (t *TimerEngine) Kind() TimerKind {
	return t.kind
}

func (t *TimerEngine) now() time.Time {
	return t.sched.Clock().Now()
}

// StartUp starts counting up from zero. The first reading is sent at once.
func (t *TimerEngine) StartUp() {
	t.job.cancel()
	t.endFinish()
	t.kind = TimerUp
	t.start = t.now()
	t.end = time.Time{}
	t.tick()
}

func (t *TimerEngine) tick() {
	t.job.clear()
	if t.kind != TimerUp {
		return
	}
	elapsed := t.now().Sub(t.start)
	t.out.sendPayload(protocol.WrapColor(FormatElapsed(elapsed), t.session.Settings.UpColor))
	t.job.replace(t.sched.After(TickInterval, t.tick))
}

// StartDown hands the countdown to the sign's own run-time directive and
// schedules the finish sequence for when it reaches zero.
func (t *TimerEngine) StartDown(minutes, seconds int) error {
	if minutes < 0 || seconds < 0 {
		return fmt.Errorf("%w: %d:%d", ErrInvalidDuration, minutes, seconds)
	}
	total := time.Duration(minutes*60+seconds) * time.Second

	t.job.cancel()
	t.endFinish()
	t.out.sendPayload(protocol.WrapColor(
		protocol.RunTime(2, FormatRemaining(total)),
		t.session.Settings.DownColor,
	))

	t.kind = TimerDown
	t.start = t.now()
	t.end = t.start.Add(total)
	if total > 0 {
		t.job.replace(t.sched.After(total, t.finish))
	}
	return nil
}

// Elapsed returns how long the count-up has run.
func (t *TimerEngine) Elapsed() time.Duration {
	if t.kind != TimerUp {
		return 0
	}
	return t.now().Sub(t.start)
}

// Remaining returns how long the countdown has left.
func (t *TimerEngine) Remaining() time.Duration {
	if t.kind != TimerDown {
		return 0
	}
	return max(0, t.end.Sub(t.now()))
}

// Stop freezes the running timer on the sign and discards it. With no timer
// running it does nothing, so a finish message on screen is left alone.
func (t *TimerEngine) Stop() bool {
	set := &t.session.Settings
	switch t.kind {
	case TimerUp:
		elapsed := t.Elapsed()
		t.job.cancel()
		t.out.sendPayload(protocol.WrapColor(FormatElapsed(elapsed), set.UpColor))
	case TimerDown:
		remaining := t.Remaining()
		t.job.cancel()
		t.out.sendPayload(protocol.WrapColor(FormatRemaining(remaining), set.DownColor))
	case TimerNone:
		return false
	}
	t.kind = TimerNone
	return true
}

// Reset discards timer state and any pending timer callback without
// sending anything.
func (t *TimerEngine) Reset() {
	t.job.cancel()
	t.endFinish()
	t.kind = TimerNone
	t.start = time.Time{}
	t.end = time.Time{}
}

// finish runs when a countdown reaches zero. A short message is shown in
// place, optionally flashing; a longer one scrolls slowly in the countdown
// colour. Either way the line is cleared after the hold time.
func (t *TimerEngine) finish() {
	t.job.clear()
	t.kind = TimerNone

	set := &t.session.Settings
	msg := strings.TrimSpace(set.FinishText)
	if msg == "" {
		return
	}
	msg = protocol.Truncate(protocol.Sanitize(msg), protocol.MaxFinishText)
	t.finishing = true
	c := set.DownColor
	hold := time.Duration(set.FinishHoldSeconds()) * time.Second

	if protocol.Len(msg) <= shortFinish {
		payload := protocol.WrapColor(msg, c)
		if set.FinishFlash {
			payload = protocol.FlashFragment(0, 1, c, msg)
		}
		t.out.sendPayload(payload)
		t.job.replace(t.sched.After(hold, t.finishDone))
		return
	}

	if set.FinishFlash {
		t.out.sendPayload(protocol.FlashLine(0, 1, c))
	}
	t.session.Override(SpeedSlow, c)
	t.scroll.Start(msg, c, false)
	t.job.replace(t.sched.After(hold, t.finishDone))
}

func (t *TimerEngine) finishDone() {
	t.job.clear()
	t.clearLine()
}

// Finishing reports whether a finish message is on the sign.
func (t *TimerEngine) Finishing() bool {
	return t.finishing
}

// endFinish drops a finish message whose hold was cut short: its scroll
// stops and the speed and colour it borrowed go back.
func (t *TimerEngine) endFinish() {
	if !t.finishing {
		return
	}
	t.finishing = false
	t.scroll.Stop()
	t.session.Restore()
}
