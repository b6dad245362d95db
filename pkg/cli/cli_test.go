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
	"flag"
	"io"
	"testing"

	"github.com/ZaparooProject/mled/pkg/validation"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := flag.NewFlagSet("mled", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := SetupFlags(fs)
	require.NoError(t, f.Parse(args))
	return f
}

func TestFlags_Action(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		name    string
		args    []string
		want    Action
	}{
		{
			name: "none",
			want: Action{Kind: ActionNone},
		},
		{
			name: "send",
			args: []string{"-send", "Hello"},
			want: Action{Kind: ActionSend, Text: "Hello"},
		},
		{
			name:    "send empty",
			args:    []string{"-send", " "},
			wantErr: ErrEmptyFlag,
		},
		{
			name: "countup",
			args: []string{"-countup"},
			want: Action{Kind: ActionCountUp},
		},
		{
			name: "countdown",
			args: []string{"-countdown", "02:30"},
			want: Action{Kind: ActionCountDown, Minutes: 2, Seconds: 30},
		},
		{
			name:    "countdown invalid",
			args:    []string{"-countdown", "2:75"},
			wantErr: validation.ErrInvalidMMSS,
		},
		{
			name:    "conflicting",
			args:    []string{"-countup", "-send", "Hi"},
			wantErr: ErrConflictingFlags,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := parseFlags(t, tt.args...)

			got, err := f.Action()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlags_ParseError(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("mled", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := SetupFlags(fs)
	assert.Error(t, f.Parse([]string{"-nope"}))
}

func TestSetup(t *testing.T) {
	// replaces the global logger
	oldLogger := log.Logger
	oldLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = oldLogger
		zerolog.SetGlobalLevel(oldLevel)
	})

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg/config.toml", []byte(`
config_schema = 1
debug_logging = true

[serial]
port = "/dev/ttyUSB0"
`), 0o600))

	f := parseFlags(t, "-config", "/cfg/config.toml", "-port", "/dev/ttyACM1", "-daemon")
	cfg, err := Setup(f, fs, t.TempDir(), nil)
	require.NoError(t, err)

	assert.Equal(t, "/cfg/config.toml", cfg.Path())
	assert.Equal(t, "/dev/ttyACM1", cfg.SerialPort(), "flag overrides the file")
	assert.True(t, cfg.APIEnabled(), "daemon mode serves the API")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestSetup_InvalidConfig(t *testing.T) {
	oldLogger := log.Logger
	oldLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = oldLogger
		zerolog.SetGlobalLevel(oldLevel)
	})

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg/config.toml", []byte("config_schema = 9\n"), 0o600))

	f := parseFlags(t, "-config", "/cfg/config.toml")
	_, err := Setup(f, fs, t.TempDir(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}
