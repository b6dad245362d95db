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

package mocks

import (
	"bytes"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockTransport is a testify mock of a frame sink.
type MockTransport struct {
	mock.Mock
}

func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

func (m *MockTransport) Write(frame []byte) error {
	args := m.Called(frame)
	return args.Error(0)
}

func (m *MockTransport) IsOpen() bool {
	args := m.Called()
	return args.Bool(0)
}

// SetupConnected makes the mock report an open link that accepts writes.
func (m *MockTransport) SetupConnected() {
	m.On("IsOpen").Return(true)
	m.On("Write", mock.Anything).Return(nil)
}

// RecordingTransport keeps a copy of every frame written to it. It starts
// open; SetOpen and FailWith change how later writes behave.
type RecordingTransport struct {
	err    error
	frames [][]byte
	mu     sync.Mutex
	closed bool
}

func NewRecordingTransport() *RecordingTransport {
	return &RecordingTransport{}
}

func (r *RecordingTransport) Write(frame []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, bytes.Clone(frame))
	return nil
}

func (r *RecordingTransport) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.closed
}

func (r *RecordingTransport) SetOpen(open bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = !open
}

// FailWith makes every following write return err. A nil err restores
// normal writes.
func (r *RecordingTransport) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Frames returns copies of the frames written so far.
func (r *RecordingTransport) Frames() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.frames))
	for i, f := range r.frames {
		out[i] = bytes.Clone(f)
	}
	return out
}

// Last returns the most recent frame, or nil.
func (r *RecordingTransport) Last() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return nil
	}
	return bytes.Clone(r.frames[len(r.frames)-1])
}

func (r *RecordingTransport) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *RecordingTransport) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
}
