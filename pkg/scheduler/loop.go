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
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// QueueSize bounds the number of callbacks waiting to run.
const QueueSize = 256

// Loop is the production scheduler: a single dispatch goroutine fed by
// clock timers and by other goroutines through Post and Call.
type Loop struct {
	clock   clockwork.Clock
	queue   chan func()
	done    chan struct{}
	running atomic.Bool
}

// NewLoop creates a loop reading time from clock, or the wall clock when
// clock is nil. Nothing runs until Run is called.
func NewLoop(clock clockwork.Clock) *Loop {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Loop{
		clock: clock,
		queue: make(chan func(), QueueSize),
		done:  make(chan struct{}),
	}
}

func (l *Loop) Clock() clockwork.Clock {
	return l.clock
}

type loopJob struct {
	timer clockwork.Timer
	fn    func()
	done  atomic.Bool
}

func (j *loopJob) Cancel() {
	if j.done.Swap(true) {
		return
	}
	if j.timer != nil {
		j.timer.Stop()
	}
}

func (j *loopJob) run() {
	// a job canceled after its timer fired but before it reached the front
	// of the queue must not run
	if j.done.Swap(true) {
		return
	}
	j.fn()
}

// After schedules fn on the loop goroutine once d has elapsed.
func (l *Loop) After(d time.Duration, fn func()) Handle {
	j := &loopJob{fn: fn}
	j.timer = l.clock.AfterFunc(d, func() {
		l.Post(j.run)
	})
	return j
}

// Post queues fn to run on the loop goroutine. It returns false if the loop
// has stopped. Post must not be called from the loop goroutine while the
// queue is full.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for loop: %w", ctx.Err())
	case <-l.done:
		return ErrStopped
	}
}

// Run dispatches callbacks until ctx is done. It may only be called once.
func (l *Loop) Run(ctx context.Context) error {
	if l.running.Swap(true) {
		return errors.New("loop already running")
	}
	defer close(l.done)

	log.Debug().Msg("scheduler: loop started")
	defer log.Debug().Msg("scheduler: loop stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.queue:
			l.dispatch(fn)
		}
	}
}

func (*Loop) dispatch(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Stack().Msg("scheduler: callback panicked")
		}
	}()
	fn()
}
