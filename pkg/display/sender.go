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
	"fmt"

	"github.com/ZaparooProject/mled/pkg/protocol"
	"github.com/ZaparooProject/mled/pkg/scheduler"
	"github.com/rs/zerolog"
)

// Transport is the byte sink frames are written to.
type Transport interface {
	Write(frame []byte) error
	IsOpen() bool
}

// sender encodes payloads for the session's line and brightness and hands
// them to the transport. Failures become notices; nothing is returned to
// the engines because a lost frame never changes their state.
type sender struct {
	transport Transport
	session   *Session
	listener  Listener
	log       zerolog.Logger
}

// sendColored sanitizes text and sends it wrapped in colour c, cutting it to
// fit the payload budget when needed.
func (s *sender) sendColored(text string, c protocol.Color) {
	set := &s.session.Settings
	frame, err := protocol.EncodeFitted(set.Line, set.Brightness, protocol.Sanitize(text), c)
	if err != nil {
		s.encodeFailed(err)
		return
	}
	s.write(frame)
}

// sendPayload sends a payload that already carries directives.
func (s *sender) sendPayload(payload string) {
	set := &s.session.Settings
	frame, err := protocol.Encode(set.Line, set.Brightness, payload)
	if err != nil {
		s.encodeFailed(err)
		return
	}
	s.write(frame)
}

func (s *sender) sendBlank() {
	s.sendPayload("")
}

func (s *sender) encodeFailed(err error) {
	if errors.Is(err, protocol.ErrFitFailed) {
		s.log.Error().Err(err).Msg("payload did not fit after truncation")
		return
	}
	s.notify(NoticeError, err, "Could not encode frame")
}

func (s *sender) write(frame protocol.Frame) {
	if s.transport == nil || !s.transport.IsOpen() {
		s.notify(NoticeWarn, ErrNotConnected, "Not connected")
		return
	}
	if err := s.transport.Write(frame); err != nil {
		s.notify(NoticeError, fmt.Errorf("%w: %w", ErrWriteFailed, err), "Serial write failed")
		return
	}
	s.log.Debug().Bytes("frame", frame).Msg("frame sent")
}

func (s *sender) notify(level NoticeLevel, err error, msg string) {
	if s.listener != nil {
		s.listener.Notice(Notice{Level: level, Err: err, Message: msg})
	}
}

// jobSlot holds at most one pending callback for a feature. Scheduling into
// an occupied slot cancels the previous callback.
type jobSlot struct {
	h scheduler.Handle
}

func (j *jobSlot) replace(h scheduler.Handle) {
	if j.h != nil {
		j.h.Cancel()
	}
	j.h = h
}

func (j *jobSlot) cancel() {
	if j.h != nil {
		j.h.Cancel()
		j.h = nil
	}
}

// clear forgets the handle without canceling it. Callbacks call it when
// they fire so the slot reads empty.
func (j *jobSlot) clear() {
	j.h = nil
}

func (j *jobSlot) pending() bool {
	return j.h != nil
}
