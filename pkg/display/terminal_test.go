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
	"strings"
	"testing"
	"time"

	"github.com/ZaparooProject/mled/pkg/protocol"
	"github.com/ZaparooProject/mled/pkg/scheduler"
	"github.com/ZaparooProject/mled/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	notices []Notice
	modes   []Mode
}

func (r *recordingListener) Notice(n Notice) {
	r.notices = append(r.notices, n)
}

func (r *recordingListener) ModeChanged(m Mode) {
	r.modes = append(r.modes, m)
}

func (r *recordingListener) last() Notice {
	if len(r.notices) == 0 {
		return Notice{}
	}
	return r.notices[len(r.notices)-1]
}

type harness struct {
	term     *Terminal
	sched    *scheduler.Manual
	tr       *mocks.RecordingTransport
	listener *recordingListener
}

func newHarness(t *testing.T, edit func(*Settings)) *harness {
	t.Helper()

	settings := DefaultSettings()
	if edit != nil {
		edit(&settings)
	}
	h := &harness{
		sched:    scheduler.NewManual(time.Time{}),
		tr:       mocks.NewRecordingTransport(),
		listener: &recordingListener{},
	}
	h.term = New(h.sched, h.tr, WithListener(h.listener), WithSettings(settings))
	require.Equal(t, settings, h.term.Settings())
	return h
}

func (h *harness) payloads() []string {
	line := h.term.Settings().Line
	frames := h.tr.Frames()
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = string(protocol.Frame(f).Payload(line))
	}
	return out
}

func (h *harness) lastPayload() string {
	p := h.payloads()
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

func TestSendText_Static(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	require.NoError(t, h.term.SendText("HELLO"))

	assert.Equal(t, []string{"HELLO"}, h.payloads())
	assert.Equal(t, []byte("\x0271HELLO\n"), h.tr.Last())
	assert.Equal(t, ModeText, h.term.Mode())
	assert.Equal(t, 0, h.sched.Pending())
}

func TestSendText_StaticColoredAndSanitized(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(s *Settings) {
		s.TextColor = protocol.Red
	})
	require.NoError(t, h.term.SendText("Zażółć ^x"))

	assert.Equal(t, []string{"^cs 1^Zazolc *x^cs 0^"}, h.payloads())
}

func TestSendText_StaticTooLongIsTruncated(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(s *Settings) {
		s.TextColor = protocol.Red
	})
	long := strings.Repeat("A", 70)
	require.NoError(t, h.term.SendText(long))

	got := h.lastPayload()
	assert.Len(t, got, protocol.MaxPayload)
	assert.Equal(t, protocol.WrapColor(long[:protocol.MaxPayload-12], protocol.Red), got)
}

func TestSendText_Empty(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	err := h.term.SendText("   ")
	require.ErrorIs(t, err, ErrEmptyText)

	assert.Equal(t, ModeIdle, h.term.Mode())
	assert.Equal(t, 0, h.tr.Count())
	assert.Equal(t, NoticeWarn, h.listener.last().Level)
}

func TestSendText_Scrolls(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(s *Settings) {
		s.ScrollSpeed = SpeedSlow
	})
	require.NoError(t, h.term.SendText("AB"))
	assert.Equal(t, "AB   ", h.term.ScrollBuffer())
	assert.Equal(t, 0, h.tr.Count(), "first step runs from the scheduler")

	h.sched.Advance(0)
	assert.Equal(t, []string{"B   A"}, h.payloads())

	h.sched.Advance(549 * time.Millisecond)
	assert.Equal(t, 1, h.tr.Count())

	h.sched.Advance(time.Millisecond)
	assert.Equal(t, "   AB", h.lastPayload())

	h.sched.Advance(3 * 550 * time.Millisecond)
	assert.Equal(t, []string{"B   A", "   AB", "  AB ", " AB  ", "AB   "}, h.payloads())
	assert.Equal(t, 0, h.term.scroll.Position())
	assert.True(t, h.term.Snapshot().Scrolling)
}

func TestSendText_ReplacesRunningScroll(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(s *Settings) {
		s.ScrollSpeed = SpeedFast
	})
	require.NoError(t, h.term.SendText("ONE"))
	h.sched.Advance(time.Second)
	require.NoError(t, h.term.SendText("TWO"))

	assert.Equal(t, 1, h.sched.Pending())
	assert.Equal(t, "TWO   ", h.term.ScrollBuffer())
}

func TestSendText_Rainbow(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	require.NoError(t, h.term.SetRainbow(true))
	assert.Equal(t, SpeedSlow, h.term.Settings().ScrollSpeed)
	assert.Equal(t, 51, h.term.MaxTextLen())

	require.NoError(t, h.term.SendText("AB"))
	h.sched.Advance(0)
	h.sched.Advance(4 * 550 * time.Millisecond)

	payloads := h.payloads()
	require.Len(t, payloads, 5)
	for _, p := range payloads {
		assert.True(t, strings.HasPrefix(p, "^cs 1^"), p)
	}

	h.sched.Advance(550 * time.Millisecond)
	assert.Equal(t, "^cs 2^B   A^cs 0^", h.lastPayload())
}

func TestCountUp(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	require.NoError(t, h.term.StartCountUp())
	assert.Equal(t, ModeCountUp, h.term.Mode())
	assert.Equal(t, []string{"^cs 2^00.00^cs 0^"}, h.payloads())

	h.sched.Advance(5230 * time.Millisecond)
	assert.Equal(t, "^cs 2^05.20^cs 0^", h.lastPayload())
	assert.Equal(t, "05.23", h.term.Snapshot().Elapsed)

	h.term.StopTimer()
	assert.Equal(t, "^cs 2^05.23^cs 0^", h.lastPayload())
	assert.Equal(t, 0, h.sched.Pending())
	assert.Equal(t, ModeCountUp, h.term.Mode(), "stop keeps the lock until clear")
	assert.Equal(t, TimerNone, h.term.Snapshot().Timer)

	sent := h.tr.Count()
	h.term.StopTimer()
	assert.Equal(t, sent, h.tr.Count())
}

func TestCountUp_PastAMinute(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	require.NoError(t, h.term.StartCountUp())
	h.sched.Advance(75 * time.Second)

	assert.Equal(t, "^cs 2^01:15.00^cs 0^", h.lastPayload())
}

func TestCountDown_EmptyFinishMessage(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(s *Settings) {
		s.DownColor = protocol.Red
	})
	require.NoError(t, h.term.StartCountDown())

	assert.Equal(t, []string{"^cs 1^^rt 2 10:00^^cs 0^"}, h.payloads())
	assert.Equal(t, ModeCountDown, h.term.Mode())
	assert.Equal(t, "10:00", h.term.Snapshot().Remaining)

	h.sched.Advance(600 * time.Second)
	assert.Equal(t, 1, h.tr.Count())
	assert.Equal(t, 0, h.sched.Pending())
	assert.Equal(t, TimerNone, h.term.Snapshot().Timer)
	assert.Equal(t, ModeCountDown, h.term.Mode())
}

func TestCountDown_Stop(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	require.NoError(t, h.term.StartCountDownFrom(1, 30))
	h.sched.Advance(10500 * time.Millisecond)
	h.term.StopTimer()

	assert.Equal(t, []string{"^rt 2 01:30^", "01:19"}, h.payloads())
	assert.Equal(t, 0, h.sched.Pending())
}

func TestCountDown_ZeroDoesNotSchedule(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(s *Settings) {
		s.FinishText = "DONE"
	})
	require.NoError(t, h.term.StartCountDownFrom(0, 0))

	assert.Equal(t, []string{"^rt 2 00:00^"}, h.payloads())
	assert.Equal(t, 0, h.sched.Pending())
}

func TestCountDown_InvalidDuration(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	err := h.term.StartCountDownFrom(-1, 0)
	require.ErrorIs(t, err, ErrInvalidDuration)
	assert.Equal(t, ModeIdle, h.term.Mode())
	assert.Equal(t, 0, h.tr.Count())
}

func TestCountDown_ShortFinishMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		want  string
		flash bool
	}{
		{name: "steady", want: "^cs 1^GO^cs 0^"},
		{name: "flashing", flash: true, want: "^fs 0 1 1^GO^fe^"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, func(s *Settings) {
				s.DownColor = protocol.Red
				s.FinishText = "  GO "
				s.FinishFlash = tt.flash
				s.FinishHold = 5
			})
			require.NoError(t, h.term.StartCountDownFrom(0, 2))
			h.sched.Advance(2 * time.Second)
			assert.Equal(t, tt.want, h.lastPayload())
			assert.Equal(t, ModeCountDown, h.term.Mode())

			h.sched.Advance(5 * time.Second)
			assert.Empty(t, h.lastPayload())
			assert.Equal(t, ModeIdle, h.term.Mode())
			assert.Equal(t, []Mode{ModeCountDown, ModeIdle}, h.listener.modes)
		})
	}
}

func TestCountDown_LongFinishMessageScrolls(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(s *Settings) {
		s.DownColor = protocol.Blue
		s.FinishText = "Time is up, please stop writing now"
		s.FinishFlash = true
		s.FinishHold = 3
		s.ScrollSpeed = SpeedFast
		s.TextColor = protocol.Yellow
	})
	require.NoError(t, h.term.StartCountDownFrom(0, 1))
	h.sched.Advance(time.Second)

	payloads := h.payloads()
	require.Len(t, payloads, 3)
	assert.Equal(t, "^fd 0 1 3^", payloads[1])
	// the message is cut to 30 characters before it scrolls
	assert.Equal(t, "^cs 3^ime is up, please stop writin   T^cs 0^", payloads[2])
	assert.Equal(t, "ime is up, please stop writin   T", h.term.ScrollBuffer())

	set := h.term.Settings()
	assert.Equal(t, SpeedSlow, set.ScrollSpeed)
	assert.Equal(t, protocol.Blue, set.TextColor)

	h.sched.Advance(3 * time.Second)
	assert.Empty(t, h.lastPayload())
	assert.Equal(t, ModeIdle, h.term.Mode())
	assert.Equal(t, 0, h.sched.Pending())

	set = h.term.Settings()
	assert.Equal(t, SpeedFast, set.ScrollSpeed)
	assert.Equal(t, protocol.Yellow, set.TextColor)
}

func TestCountDown_StopAfterFinishLeavesMessage(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(s *Settings) {
		s.FinishText = "GO"
	})
	require.NoError(t, h.term.StartCountDownFrom(0, 1))
	h.sched.Advance(time.Second)
	sent := h.tr.Count()

	h.term.StopTimer()
	assert.Equal(t, sent, h.tr.Count())
	assert.Equal(t, 1, h.sched.Pending())
}

func newFinishHarness(t *testing.T) *harness {
	t.Helper()
	return newHarness(t, func(s *Settings) {
		s.FinishText = "COUNTDOWN FINISHED"
		s.FinishHold = 5
		s.ScrollSpeed = SpeedFast
		s.TextColor = protocol.Yellow
	})
}

func TestCountDown_RestartDuringFinishStopsScroll(t *testing.T) {
	t.Parallel()

	h := newFinishHarness(t)
	require.NoError(t, h.term.StartCountDownFrom(0, 1))
	h.sched.Advance(2 * time.Second)
	require.True(t, h.term.Snapshot().Scrolling)

	require.NoError(t, h.term.StartCountDownFrom(0, 30))
	assert.Equal(t, "^rt 2 00:30^", h.lastPayload())
	assert.False(t, h.term.Snapshot().Scrolling)
	assert.Empty(t, h.term.ScrollBuffer())

	set := h.term.Settings()
	assert.Equal(t, SpeedFast, set.ScrollSpeed)
	assert.Equal(t, protocol.Yellow, set.TextColor)

	sent := h.tr.Count()
	h.sched.Advance(10 * time.Second)
	assert.Equal(t, sent, h.tr.Count(), "nothing may be sent while the sign counts down")
	assert.Equal(t, 1, h.sched.Pending())
	assert.Equal(t, ModeCountDown, h.term.Mode())
	assert.Equal(t, TimerDown, h.term.Snapshot().Timer)
}

func TestClear_DuringFinishRestoresSettings(t *testing.T) {
	t.Parallel()

	h := newFinishHarness(t)
	require.NoError(t, h.term.StartCountDownFrom(0, 1))
	h.sched.Advance(2 * time.Second)
	require.Equal(t, SpeedSlow, h.term.Settings().ScrollSpeed)

	h.term.Clear()
	assert.Empty(t, h.lastPayload())
	assert.Equal(t, ModeIdle, h.term.Mode())
	assert.Equal(t, 0, h.sched.Pending())

	set := h.term.Settings()
	assert.Equal(t, SpeedFast, set.ScrollSpeed)
	assert.Equal(t, protocol.Yellow, set.TextColor)
}

func TestClear_KeepsSpeedSetDuringFinish(t *testing.T) {
	t.Parallel()

	h := newFinishHarness(t)
	require.NoError(t, h.term.StartCountDownFrom(0, 1))
	h.sched.Advance(2 * time.Second)

	require.NoError(t, h.term.UpdateSettings(func(s *Settings) {
		s.ScrollSpeed = SpeedMedium
	}))
	h.term.Clear()

	set := h.term.Settings()
	assert.Equal(t, SpeedMedium, set.ScrollSpeed)
	assert.Equal(t, protocol.Yellow, set.TextColor)
}

func TestScroll_StopClearsState(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(s *Settings) {
		s.Rainbow = true
		s.ScrollSpeed = SpeedSlow
	})
	require.NoError(t, h.term.SendText("HELLO"))
	h.sched.Advance(0)
	h.sched.Advance(3 * 550 * time.Millisecond)
	require.Equal(t, 4, h.term.scroll.Position())
	require.True(t, h.term.scroll.cycle)

	h.term.scroll.Stop()
	assert.Empty(t, h.term.scroll.Buffer())
	assert.Equal(t, 0, h.term.scroll.Position())
	assert.False(t, h.term.scroll.Running())
	assert.False(t, h.term.scroll.cycle)
	assert.Equal(t, protocol.NoColor, h.term.scroll.color)
	assert.Equal(t, 0, h.sched.Pending())

	sent := h.tr.Count()
	h.sched.Advance(5 * time.Second)
	assert.Equal(t, sent, h.tr.Count())
}

func TestModeConflict(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	require.NoError(t, h.term.StartCountDown())
	sent := h.tr.Count()

	err := h.term.SendText("hello")
	require.ErrorIs(t, err, ErrModeConflict)
	assert.Equal(t, msgTextLocked, h.listener.last().Message)

	require.ErrorIs(t, h.term.StartCountUp(), ErrModeConflict)
	assert.Equal(t, msgTimerLocked, h.listener.last().Message)

	assert.Equal(t, ModeCountDown, h.term.Mode())
	assert.Equal(t, TimerDown, h.term.Snapshot().Timer)
	assert.Equal(t, sent, h.tr.Count())
	assert.Equal(t, 1, h.sched.Pending())
}

func TestClear(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(s *Settings) {
		s.ScrollSpeed = SpeedMedium
	})
	require.NoError(t, h.term.SendText("scrolling"))
	h.sched.Advance(time.Second)

	h.term.Clear()
	assert.Empty(t, h.lastPayload())
	assert.Equal(t, ModeIdle, h.term.Mode())
	assert.Equal(t, 0, h.sched.Pending())
	assert.Equal(t, []Mode{ModeText, ModeIdle}, h.listener.modes)

	require.NoError(t, h.term.StartCountUp())
	assert.Equal(t, ModeCountUp, h.term.Mode())
}

func TestClear_WhenIdleStillBlanks(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.term.Clear()

	assert.Equal(t, []string{""}, h.payloads())
	assert.Empty(t, h.listener.modes)
}

func TestSend_NotConnected(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.tr.SetOpen(false)

	require.NoError(t, h.term.SendText("hello"))
	assert.Equal(t, ModeText, h.term.Mode())
	assert.Equal(t, 0, h.tr.Count())

	n := h.listener.last()
	assert.Equal(t, NoticeWarn, n.Level)
	require.ErrorIs(t, n.Err, ErrNotConnected)
	assert.False(t, h.term.Snapshot().Connected)
}

func TestSend_WriteFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	ioErr := errors.New("device gone")
	h.tr.FailWith(ioErr)

	require.NoError(t, h.term.StartCountUp())
	n := h.listener.last()
	assert.Equal(t, NoticeError, n.Level)
	require.ErrorIs(t, n.Err, ErrWriteFailed)
	require.ErrorIs(t, n.Err, ioErr)

	h.tr.FailWith(nil)
	h.sched.Advance(100 * time.Millisecond)
	assert.Equal(t, "^cs 2^00.10^cs 0^", h.lastPayload())
}

func TestSend_MockTransport(t *testing.T) {
	t.Parallel()

	tr := mocks.NewMockTransport()
	tr.SetupConnected()
	term := New(scheduler.NewManual(time.Time{}), tr, WithListener(&recordingListener{}))

	term.Clear()
	tr.AssertCalled(t, "Write", []byte("\x0271\n"))
}

func TestGreet(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.term.Greet()
	assert.Equal(t, []string{"^ic 5 7^^cs 3^MLED^cs 0^"}, h.payloads())

	h.sched.Advance(protocol.GreetingClearDelay)
	assert.Equal(t, []string{"^ic 5 7^^cs 3^MLED^cs 0^", ""}, h.payloads())
	assert.Equal(t, ModeIdle, h.term.Mode())
}

func TestClose_CancelsPendingWork(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.term.Greet()
	require.NoError(t, h.term.StartCountUp())
	h.term.Close()

	assert.Equal(t, 0, h.sched.Pending())
}

func TestUpdateSettings(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	err := h.term.UpdateSettings(func(s *Settings) {
		s.Line = 16
	})
	require.Error(t, err)
	assert.Equal(t, protocol.Line(7), h.term.Settings().Line)

	require.NoError(t, h.term.UpdateSettings(func(s *Settings) {
		s.Line = 3
		s.Brightness = 2
	}))
	require.NoError(t, h.term.SendText("x"))
	assert.Equal(t, []byte("\x0232x\n"), h.tr.Last())
}

func TestWithSettings_InvalidFallsBack(t *testing.T) {
	t.Parallel()

	bad := DefaultSettings()
	bad.Brightness = 9
	term := New(scheduler.NewManual(time.Time{}), mocks.NewRecordingTransport(),
		WithListener(&recordingListener{}), WithSettings(bad))

	assert.Equal(t, DefaultSettings(), term.Settings())
}
