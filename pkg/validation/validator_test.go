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

package validation

import (
	"encoding/json"
	"testing"

	"github.com/ZaparooProject/mled/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMinMax(t *testing.T) {
	t.Parallel()

	type testStruct struct {
		Line  int `validate:"min=1,max=15"`
		Speed int `validate:"min=0,max=3"`
	}

	tests := []struct {
		name    string
		wantMsg string
		line    int
		speed   int
	}{
		{name: "valid", line: 7, speed: 0},
		{name: "line too low", line: 0, speed: 1, wantMsg: "line must be at least 1"},
		{name: "line too high", line: 16, speed: 1, wantMsg: "line must be at most 15"},
		{name: "speed too high", line: 1, speed: 4, wantMsg: "speed must be at most 3"},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := v.Validate(&testStruct{Line: tt.line, Speed: tt.speed})
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidateColor(t *testing.T) {
	t.Parallel()

	type codeStruct struct {
		Color protocol.Color `validate:"color"`
	}
	type nameStruct struct {
		Color string `validate:"color"`
	}

	v := NewValidator()
	require.NoError(t, v.Validate(&codeStruct{Color: protocol.LightBlue}))
	require.NoError(t, v.Validate(&codeStruct{Color: protocol.NoColor}))
	require.Error(t, v.Validate(&codeStruct{Color: protocol.Color(11)}))

	require.NoError(t, v.Validate(&nameStruct{Color: "deep pink"}))
	require.NoError(t, v.Validate(&nameStruct{Color: ""}))
	err := v.Validate(&nameStruct{Color: "ultraviolet"})
	require.Error(t, err)

	var ve *Error
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "color", ve.Fields[0].Tag)
	assert.Equal(t, "Color", ve.Fields[0].Field)
}

func TestValidateHostPort(t *testing.T) {
	t.Parallel()

	type testStruct struct {
		Listen string `validate:"hostport"`
	}

	tests := []struct {
		value     string
		wantError bool
	}{
		{value: "", wantError: false},
		{value: "127.0.0.1:7497", wantError: false},
		{value: ":8080", wantError: false},
		{value: "localhost", wantError: true},
		{value: "localhost:0", wantError: true},
		{value: "localhost:70000", wantError: true},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			err := v.Validate(&testStruct{Listen: tt.value})
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "host:port")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseMMSS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in        string
		minutes   int
		seconds   int
		wantError bool
	}{
		{in: "10:00", minutes: 10},
		{in: "0:05", seconds: 5},
		{in: " 99:59 ", minutes: 99, seconds: 59},
		{in: "1:60", wantError: true},
		{in: "100:00", wantError: true},
		{in: "-1:00", wantError: true},
		{in: "10", wantError: true},
		{in: "ab:cd", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			m, s, err := ParseMMSS(tt.in)
			if tt.wantError {
				require.ErrorIs(t, err, ErrInvalidMMSS)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.minutes, m)
			assert.Equal(t, tt.seconds, s)
		})
	}
}

func TestValidateAndUnmarshal(t *testing.T) {
	t.Parallel()

	type params struct {
		Duration string `json:"duration" validate:"required,mmss"`
	}

	var p params
	require.ErrorIs(t, ValidateAndUnmarshal(nil, &p), ErrMissingParams)
	require.ErrorIs(t, ValidateAndUnmarshal(json.RawMessage(`{`), &p), ErrInvalidParams)

	err := ValidateAndUnmarshal(json.RawMessage(`{"duration":"7"}`), &p)
	var ve *Error
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "like 10:00")

	require.NoError(t, ValidateAndUnmarshal(json.RawMessage(`{"duration":"02:30"}`), &p))
	assert.Equal(t, "02:30", p.Duration)
}
