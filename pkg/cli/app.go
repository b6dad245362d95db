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

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ZaparooProject/mled/pkg/api"
	"github.com/ZaparooProject/mled/pkg/config"
	"github.com/ZaparooProject/mled/pkg/display"
	"github.com/ZaparooProject/mled/pkg/scheduler"
	"github.com/ZaparooProject/mled/pkg/transport"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	pollInterval = 250 * time.Millisecond
	stopTimeout  = 2 * time.Second
)

var ErrNoPort = errors.New("no serial port configured, use -port")

// App owns the display loop, the serial link and the terminal.
type App struct {
	cfg       *config.Instance
	loop      *scheduler.Loop
	serial    *transport.Serial
	notices   *api.NoticeLog
	term      *display.Terminal
	listener  display.Listener
	listPorts api.PortLister
}

// NewApp builds an app on the wall clock. Transport options are passed to
// the serial link.
func NewApp(cfg *config.Instance, opts ...transport.Option) *App {
	return newApp(cfg, clockwork.NewRealClock(), opts...)
}

func newApp(cfg *config.Instance, clock clockwork.Clock, opts ...transport.Option) *App {
	a := &App{
		cfg:       cfg,
		loop:      scheduler.NewLoop(clock),
		notices:   api.NewNoticeLog(),
		listPorts: transport.ListPorts,
	}
	opts = append(opts, transport.WithDisconnectHandler(a.disconnected))
	a.serial = transport.NewSerial(opts...)
	return a
}

func (a *App) Loop() *scheduler.Loop {
	return a.loop
}

// NewTerminal creates the terminal from the configured settings. Extra
// listeners get notices and mode changes alongside the log and the API.
func (a *App) NewTerminal(extra ...display.Listener) *display.Terminal {
	listeners := append([]display.Listener{display.LogListener{}, a.notices}, extra...)
	a.listener = display.MultiListener(listeners...)
	a.term = display.New(a.loop, a.serial,
		display.WithListener(a.listener),
		display.WithSettings(a.cfg.DisplaySettings()),
	)
	return a.term
}

// disconnected runs inside Serial.Write, which is only called from the
// loop goroutine.
func (a *App) disconnected(path string, err error) {
	if a.listener == nil {
		return
	}
	a.listener.Notice(display.Notice{
		Level:   display.NoticeError,
		Err:     err,
		Message: "Sign disconnected from " + path,
	})
}

// Connect opens path and remembers it for this run. The greeting is shown
// when the config asks for it.
func (a *App) Connect(path string) error {
	if err := a.serial.Open(path); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	a.cfg.SetSerialPort(path)
	if a.term != nil && a.cfg.GreetOnConnect() {
		a.loop.Post(a.term.Greet)
	}
	return nil
}

func (a *App) Disconnect() error {
	if err := a.serial.Close(); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

func (a *App) Ports() ([]transport.PortInfo, error) {
	return a.listPorts(false)
}

// Port is the open port, or the configured one when closed.
func (a *App) Port() string {
	if p := a.serial.Path(); p != "" {
		return p
	}
	return a.cfg.SerialPort()
}

// Run runs the loop, the API when enabled and ui when given, until ctx is
// done or ui returns. NewTerminal must have been called.
func (a *App) Run(ctx context.Context, ui func(context.Context) error) error {
	if a.term == nil {
		return errors.New("terminal not created")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.loop.Run(ctx)
	})

	if port := a.cfg.SerialPort(); port != "" {
		if err := a.Connect(port); err != nil {
			log.Warn().Err(err).Msg("could not open configured port")
		}
	}

	if a.cfg.APIEnabled() {
		srv := api.NewServer(a.cfg, a.loop, a.term,
			api.WithNotices(a.notices),
			api.WithPortLister(a.listPorts),
		)
		g.Go(func() error {
			return srv.Serve(ctx)
		})
	}

	if ui != nil {
		g.Go(func() error {
			defer cancel()
			return ui(ctx)
		})
	}

	err := g.Wait()
	a.shutdown()
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// shutdown runs after the loop has stopped, so the terminal can be used
// from here.
func (a *App) shutdown() {
	a.term.Close()
	if err := a.serial.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing serial port")
	}
}

// RunOnce performs act and returns when it is done: static text once sent,
// a countdown when its finish sequence is over, anything else when ctx is
// done. An interrupted count-up is stopped first so the sign keeps the
// final reading.
func (a *App) RunOnce(ctx context.Context, act Action) error {
	if act.Kind == ActionNone {
		return nil
	}
	port := strings.TrimSpace(a.cfg.SerialPort())
	if port == "" {
		return ErrNoPort
	}
	if a.term == nil {
		a.NewTerminal()
	}
	// no greeting: its delayed blank would wipe what act sends
	if err := a.serial.Open(port); err != nil {
		return fmt.Errorf("run once: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g := new(errgroup.Group)
	g.Go(func() error {
		return a.loop.Run(loopCtx)
	})
	defer func() {
		cancel()
		_ = g.Wait()
		a.shutdown()
	}()

	var (
		actErr error
		static bool
	)
	if err := a.loop.Call(ctx, func() {
		actErr = a.perform(act)
		set := a.term.Settings()
		static = act.Kind == ActionSend && set.ScrollSpeed == display.SpeedStatic && !set.Rainbow
	}); err != nil {
		return fmt.Errorf("run once: %w", err)
	}
	if actErr != nil {
		return actErr
	}
	if static {
		return nil
	}

	done := a.doneFunc(act)
	ticker := a.loop.Clock().NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if act.Kind == ActionCountUp {
				stopCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
				err := a.loop.Call(stopCtx, a.term.StopTimer)
				stop()
				if err != nil {
					return fmt.Errorf("stopping count-up: %w", err)
				}
			}
			return nil
		case <-ticker.Chan():
			var snap display.Snapshot
			if err := a.loop.Call(ctx, func() { snap = a.term.Snapshot() }); err != nil {
				continue
			}
			if done(snap) {
				return nil
			}
		}
	}
}

func (a *App) perform(act Action) error {
	switch act.Kind {
	case ActionSend:
		return a.term.SendText(act.Text)
	case ActionCountUp:
		return a.term.StartCountUp()
	case ActionCountDown:
		return a.term.StartCountDownFrom(act.Minutes, act.Seconds)
	case ActionNone:
	}
	return nil
}

// doneFunc reports when a running action has nothing left to show. A
// countdown without a finish message is done at zero; with one, once the
// line has been cleared after the hold.
func (*App) doneFunc(act Action) func(display.Snapshot) bool {
	if act.Kind != ActionCountDown {
		return func(display.Snapshot) bool { return false }
	}
	zero := act.Minutes == 0 && act.Seconds == 0
	return func(snap display.Snapshot) bool {
		if snap.Mode == display.ModeIdle {
			return true
		}
		finish := strings.TrimSpace(snap.Settings.FinishText) != ""
		if finish && !zero {
			return false
		}
		return snap.Timer != display.TimerDown || snap.Remaining == "00:00"
	}
}
