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

// Package transport carries encoded frames to the sign over a serial line.
package transport

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ZaparooProject/mled/pkg/helpers/syncutil"
	"github.com/ZaparooProject/mled/pkg/protocol"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

var (
	ErrNotConnected = errors.New("serial port not connected")
	ErrWrite        = errors.New("serial write failed")
	ErrNoPath       = errors.New("no serial port selected")
)

// Port is the part of a serial port the transport needs.
type Port interface {
	Write(p []byte) (n int, err error)
	Close() error
}

// PortFactory opens a serial port.
type PortFactory func(path string, mode *serial.Mode) (Port, error)

// DefaultPortFactory opens real serial ports.
func DefaultPortFactory(path string, mode *serial.Mode) (Port, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}

// Mode is the line configuration the sign expects: 9600 baud, 8N1.
func Mode() *serial.Mode {
	return &serial.Mode{
		BaudRate: protocol.BaudRate,
		DataBits: protocol.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Option configures a Serial.
type Option func(*Serial)

// WithPortFactory replaces how ports are opened.
func WithPortFactory(f PortFactory) Option {
	return func(s *Serial) {
		s.factory = f
	}
}

// WithDisconnectHandler is called, without the lock held, when a write
// fails because the device went away.
func WithDisconnectHandler(fn func(path string, err error)) Option {
	return func(s *Serial) {
		s.onDisconnect = fn
	}
}

// Serial is a frame transport over one serial port at a time. It is safe
// for concurrent use.
type Serial struct {
	port         Port
	factory      PortFactory
	onDisconnect func(path string, err error)
	path         string
	mu           syncutil.Mutex
}

func NewSerial(opts ...Option) *Serial {
	s := &Serial{factory: DefaultPortFactory}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to path, closing any port already open.
func (s *Serial) Open(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrNoPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.closeLocked(); err != nil {
		log.Warn().Err(err).Msg("error closing previous port")
	}
	port, err := s.factory(path, Mode())
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	s.port = port
	s.path = path
	log.Info().Str("port", path).Int("baud", protocol.BaudRate).Msg("serial port opened")
	return nil
}

// Close disconnects. Closing a closed transport is a no-op.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Serial) closeLocked() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	log.Info().Str("port", s.path).Msg("serial port closed")
	if err != nil {
		return fmt.Errorf("closing %s: %w", s.path, err)
	}
	return nil
}

func (s *Serial) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port != nil
}

// Path returns the last port opened.
func (s *Serial) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Write sends one frame. A write that fails because the device was
// unplugged also closes the port.
func (s *Serial) Write(frame []byte) error {
	s.mu.Lock()
	if s.port == nil {
		s.mu.Unlock()
		return ErrNotConnected
	}

	n, err := s.port.Write(frame)
	if err == nil && n != len(frame) {
		err = io.ErrShortWrite
	}
	if err == nil {
		s.mu.Unlock()
		return nil
	}

	path := s.path
	disconnected := IsDisconnectionError(err)
	if disconnected {
		_ = s.port.Close()
		s.port = nil
		log.Warn().Str("port", path).Err(err).Msg("serial device disconnected")
	}
	s.mu.Unlock()

	if disconnected && s.onDisconnect != nil {
		s.onDisconnect(path, err)
	}
	return fmt.Errorf("%w: %w", ErrWrite, err)
}

// IsDisconnectionError reports whether err means the device is gone rather
// than misconfigured.
func IsDisconnectionError(err error) bool {
	if err == nil {
		return false
	}

	var portErr serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortNotFound, serial.PortClosed, serial.InvalidSerialPort:
			return true
		case serial.PortBusy, serial.PermissionDenied, serial.InvalidSpeed,
			serial.InvalidDataBits, serial.InvalidParity, serial.InvalidStopBits,
			serial.InvalidTimeoutValue, serial.ErrorEnumeratingPorts, serial.FunctionNotImplemented:
			return false
		default:
			return false
		}
	}

	// OS-level errors that the serial library passes through unwrapped
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "device not configured") ||
		strings.Contains(errStr, "input/output error") ||
		strings.Contains(errStr, "no such device") ||
		strings.Contains(errStr, "device not found") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "device disconnected")
}
