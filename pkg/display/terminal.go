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

// Package display orchestrates what an MLED sign shows: free text that is
// static or scrolling, a count-up stopwatch, and a countdown with a finish
// message. Exactly one feature holds the sign at a time.
//
// A Terminal is not safe for concurrent use. Every method and every
// callback it schedules must run on the same scheduler goroutine, which is
// what scheduler.Loop provides.
package display

import (
	"fmt"
	"strings"

	"github.com/ZaparooProject/mled/pkg/protocol"
	"github.com/ZaparooProject/mled/pkg/scheduler"
	"github.com/ZaparooProject/mled/pkg/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	msgTextLocked  = "Active timer. Press Clear to unlock."
	msgTimerLocked = "Another feature is active. Press Clear first."
	msgEmptyText   = "Text field is empty."
)

// Snapshot is a read-only view of a terminal for frontends.
type Snapshot struct {
	Session     string      `json:"session"`
	Mode        Mode        `json:"mode"`
	Timer       TimerKind   `json:"timer"`
	Settings    Settings    `json:"settings"`
	Affordances Affordances `json:"affordances"`
	Remaining   string      `json:"remaining,omitempty"`
	Elapsed     string      `json:"elapsed,omitempty"`
	Connected   bool        `json:"connected"`
	Scrolling   bool        `json:"scrolling"`
}

// Option configures a Terminal.
type Option func(*Terminal)

// WithListener sets where notices and mode changes go. The default logs
// them.
func WithListener(l Listener) Option {
	return func(t *Terminal) {
		t.listener = l
	}
}

// WithSettings sets the initial settings. Invalid settings are ignored in
// favour of the defaults.
func WithSettings(s Settings) Option {
	return func(t *Terminal) {
		if err := validation.Default.Validate(&s); err != nil {
			log.Warn().Err(err).Msg("ignoring invalid initial display settings")
			return
		}
		t.session.Settings = s
	}
}

// Terminal is the control surface for one sign.
type Terminal struct {
	sched     scheduler.Scheduler
	listener  Listener
	transport Transport
	session   *Session
	lock      *ModeLock
	out       *sender
	rainbow   *Rainbow
	scroll    *ScrollEngine
	timer     *TimerEngine
	greet     jobSlot
	log       zerolog.Logger
	id        string
}

// New creates a terminal writing to tr and scheduling on sched.
func New(sched scheduler.Scheduler, tr Transport, opts ...Option) *Terminal {
	t := &Terminal{
		sched:     sched,
		transport: tr,
		listener:  LogListener{},
		session:   &Session{Settings: DefaultSettings()},
		rainbow:   NewRainbow(),
		id:        uuid.NewString(),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.log = log.With().Str("session", t.id).Logger()
	t.lock = NewModeLock(t.session, t.modeChanged)
	t.out = &sender{
		transport: tr,
		session:   t.session,
		listener:  t.listener,
		log:       t.log,
	}
	t.scroll = newScrollEngine(sched, t.session, t.out, t.rainbow)
	t.timer = newTimerEngine(sched, t.session, t.out, t.scroll, t.Clear)

	t.log.Info().Msg("display session started")
	return t
}

func (t *Terminal) modeChanged(m Mode) {
	t.log.Debug().Stringer("mode", m).Msg("mode changed")
	if t.listener != nil {
		t.listener.ModeChanged(m)
	}
}

func (t *Terminal) notify(level NoticeLevel, err error, msg string) {
	if t.listener != nil {
		t.listener.Notice(Notice{Level: level, Err: err, Message: msg})
	}
}

// ID identifies the session in logs.
func (t *Terminal) ID() string {
	return t.id
}

func (t *Terminal) Mode() Mode {
	return t.lock.Mode()
}

func (t *Terminal) Affordances() Affordances {
	return t.lock.Affordances()
}

func (t *Terminal) Settings() Settings {
	return t.session.Settings
}

// ScrollBuffer exposes the scroll engine's rotating text.
func (t *Terminal) ScrollBuffer() string {
	return t.scroll.Buffer()
}

func (t *Terminal) Snapshot() Snapshot {
	s := Snapshot{
		Session:     t.id,
		Mode:        t.lock.Mode(),
		Timer:       t.timer.Kind(),
		Settings:    t.session.Settings,
		Affordances: t.lock.Affordances(),
		Connected:   t.transport != nil && t.transport.IsOpen(),
		Scrolling:   t.scroll.Running(),
	}
	switch t.timer.Kind() {
	case TimerUp:
		s.Elapsed = FormatElapsed(t.timer.Elapsed())
	case TimerDown:
		s.Remaining = FormatRemaining(t.timer.Remaining())
	case TimerNone:
	}
	return s
}

// UpdateSettings applies fn to a copy of the settings and keeps the result
// if it validates. Turning rainbow on forces the slow scroll speed. A speed
// or colour set while a finish message borrows them survives Clear.
func (t *Terminal) UpdateSettings(fn func(*Settings)) error {
	next := t.session.Settings
	fn(&next)
	if next.Rainbow && !t.session.Settings.Rainbow {
		next.ScrollSpeed = SpeedSlow
	}
	if next.Rainbow && next.ScrollSpeed == SpeedStatic {
		next.ScrollSpeed = SpeedSlow
	}
	if err := validation.Default.Validate(&next); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	t.session.Apply(next)
	return nil
}

// SetRainbow toggles rainbow mode.
func (t *Terminal) SetRainbow(on bool) error {
	return t.UpdateSettings(func(s *Settings) {
		s.Rainbow = on
	})
}

// MaxTextLen is the longest text SendText will show in full.
func (t *Terminal) MaxTextLen() int {
	return protocol.MaxTextLen(t.session.Settings.Rainbow)
}

// SendText shows text on the line, scrolling it unless the speed is static.
// In rainbow mode the text always scrolls and changes colour each pass.
func (t *Terminal) SendText(text string) error {
	if err := t.lock.Check(ModeText); err != nil {
		t.notify(NoticeInfo, err, msgTextLocked)
		return err
	}
	if strings.TrimSpace(text) == "" {
		t.notify(NoticeWarn, ErrEmptyText, msgEmptyText)
		return ErrEmptyText
	}
	if err := t.lock.Acquire(ModeText); err != nil {
		return err
	}

	t.scroll.Stop()
	set := &t.session.Settings
	switch {
	case set.Rainbow:
		first := t.rainbow.Next()
		set.ScrollSpeed = SpeedSlow
		t.scroll.Start(text, first, true)
	case set.ScrollSpeed != SpeedStatic:
		t.scroll.Start(text, protocol.NoColor, false)
	default:
		t.out.sendColored(text, set.TextColor)
	}
	t.log.Debug().Str("text", text).Msg("text sent")
	return nil
}

// StartCountUp starts the stopwatch.
func (t *Terminal) StartCountUp() error {
	if err := t.lock.Acquire(ModeCountUp); err != nil {
		t.notify(NoticeInfo, err, msgTimerLocked)
		return err
	}
	t.timer.StartUp()
	return nil
}

// StartCountDown starts a countdown from the configured duration.
func (t *Terminal) StartCountDown() error {
	set := t.session.Settings
	return t.StartCountDownFrom(set.DownMinutes, set.DownSeconds)
}

// StartCountDownFrom starts a countdown from minutes and seconds.
func (t *Terminal) StartCountDownFrom(minutes, seconds int) error {
	if err := t.lock.Check(ModeCountDown); err != nil {
		t.notify(NoticeInfo, err, msgTimerLocked)
		return err
	}
	if minutes < 0 || seconds < 0 {
		err := fmt.Errorf("%w: %d:%d", ErrInvalidDuration, minutes, seconds)
		t.notify(NoticeWarn, err, "Countdown duration is invalid.")
		return err
	}
	if err := t.lock.Acquire(ModeCountDown); err != nil {
		return err
	}
	return t.timer.StartDown(minutes, seconds)
}

// StopTimer freezes the running timer on the sign. The mode stays locked
// until Clear.
func (t *Terminal) StopTimer() {
	if t.timer.Stop() {
		t.log.Debug().Msg("timer stopped")
	}
}

// Clear stops everything, blanks the line and unlocks the sign.
func (t *Terminal) Clear() {
	t.scroll.Stop()
	t.timer.Reset()
	t.session.Restore()
	t.out.sendBlank()
	t.lock.Release()
}

// Greet shows the identification banner and blanks it shortly after.
func (t *Terminal) Greet() {
	t.out.sendPayload(protocol.Greeting())
	t.greet.replace(t.sched.After(protocol.GreetingClearDelay, func() {
		t.greet.clear()
		t.out.sendBlank()
	}))
}

// Close cancels every pending callback. The sign keeps what it shows.
func (t *Terminal) Close() {
	t.scroll.Stop()
	t.timer.Reset()
	t.greet.cancel()
	t.log.Info().Msg("display session closed")
}
