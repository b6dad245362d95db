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

package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	frame, err := Encode(7, 1, "HELLO")
	require.NoError(t, err)
	assert.Equal(t, Frame("\x0271HELLO\n"), frame)
	assert.Equal(t, []byte("HELLO"), frame.Payload(7))
}

func TestEncode_TwoDigitLine(t *testing.T) {
	t.Parallel()

	frame, err := Encode(12, 3, "x")
	require.NoError(t, err)
	assert.Equal(t, Frame("\x02123x\n"), frame)
}

func TestEncode_EmptyPayload(t *testing.T) {
	t.Parallel()

	frame, err := Blank(1, 2)
	require.NoError(t, err)
	assert.Equal(t, Frame{STX, '1', '2', LF}, frame)
}

func TestEncode_Latin1HighRange(t *testing.T) {
	t.Parallel()

	frame, err := Encode(1, 1, "ø")
	require.NoError(t, err)
	assert.Equal(t, Frame{STX, '1', '1', 0xF8, LF}, frame)
}

func TestEncode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr    error
		name       string
		payload    string
		line       Line
		brightness Brightness
	}{
		{name: "brightness zero", line: 1, brightness: 0, wantErr: ErrInvalidBrightness},
		{name: "brightness four", line: 1, brightness: 4, wantErr: ErrInvalidBrightness},
		{name: "line zero", line: 0, brightness: 1, wantErr: ErrInvalidLine},
		{name: "line sixteen", line: 16, brightness: 1, wantErr: ErrInvalidLine},
		{name: "too long", line: 1, brightness: 1, payload: strings.Repeat("a", 65), wantErr: ErrPayloadTooLong},
		{name: "not latin1", line: 1, brightness: 1, payload: "日", wantErr: ErrUnsafePayload},
		{name: "latin1 but unsafe", line: 1, brightness: 1, payload: "\u00a9", wantErr: ErrUnsafePayload},
		{name: "control byte", line: 1, brightness: 1, payload: "a\nb", wantErr: ErrUnsafePayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			frame, err := Encode(tt.line, tt.brightness, tt.payload)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, frame)
		})
	}
}

func TestEncode_ExactlyMaxPayload(t *testing.T) {
	t.Parallel()

	frame, err := Encode(1, 1, strings.Repeat("a", MaxPayload))
	require.NoError(t, err)
	assert.Len(t, frame, 3+1+MaxPayload)
}

func TestEncodeFitted_TruncatesOnce(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("b", MaxPayload)
	frame, err := EncodeFitted(7, 1, text, Red)
	require.NoError(t, err)

	payload := string(frame.Payload(7))
	assert.Len(t, payload, MaxPayload)
	assert.Equal(t, WrapColor(strings.Repeat("b", MaxPayload-ColorOverhead(Red)), Red), payload)
}

func TestEncodeFitted_NoColorFits(t *testing.T) {
	t.Parallel()

	frame, err := EncodeFitted(7, 1, "short", NoColor)
	require.NoError(t, err)
	assert.Equal(t, "short", string(frame.Payload(7)))
}

func TestEncodeFitted_OtherErrorsPassThrough(t *testing.T) {
	t.Parallel()

	_, err := EncodeFitted(7, 9, "x", Red)
	require.ErrorIs(t, err, ErrInvalidBrightness)
	assert.NotErrorIs(t, err, ErrFitFailed)
}
