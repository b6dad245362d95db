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

// Package cli parses command line flags and wires the sign controller
// together for the mled binary.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ZaparooProject/mled/pkg/config"
	"github.com/ZaparooProject/mled/pkg/helpers"
	"github.com/ZaparooProject/mled/pkg/validation"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var (
	ErrConflictingFlags = errors.New("only one of -send, -countup and -countdown may be used")
	ErrEmptyFlag        = errors.New("flag requires a value")
)

type Flags struct {
	fs        *flag.FlagSet
	Port      *string
	Config    *string
	Send      *string
	CountDown *string
	ListPorts *bool
	AllPorts  *bool
	CountUp   *bool
	Daemon    *bool
	Debug     *bool
	Version   *bool
}

// SetupFlags defines the mled flags on fs.
func SetupFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		fs: fs,
		Port: fs.String(
			"port",
			"",
			"serial port of the sign, overrides the config file",
		),
		Config: fs.String(
			"config",
			"",
			"path to the config file (default $"+config.CfgEnv+" or the user config dir)",
		),
		Send: fs.String(
			"send",
			"",
			"show text on the sign and exit once it is static",
		),
		CountDown: fs.String(
			"countdown",
			"",
			"run a countdown of MM:SS and exit when it finishes",
		),
		ListPorts: fs.Bool(
			"list-ports",
			false,
			"print likely serial ports and exit",
		),
		AllPorts: fs.Bool(
			"all",
			false,
			"with -list-ports, print every serial port",
		),
		CountUp: fs.Bool(
			"countup",
			false,
			"run the stopwatch until interrupted",
		),
		Daemon: fs.Bool(
			"daemon",
			false,
			"run the HTTP API in the foreground with no UI",
		),
		Debug: fs.Bool(
			"debug",
			false,
			"enable debug logging",
		),
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
	}
}

func (f *Flags) Parse(args []string) error {
	if err := f.fs.Parse(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	return nil
}

func (f *Flags) isPassed(name string) bool {
	found := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// ActionKind is a one-shot command given on the command line.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionSend
	ActionCountUp
	ActionCountDown
)

type Action struct {
	Text    string
	Kind    ActionKind
	Minutes int
	Seconds int
}

// Action returns the one-shot command requested, if any.
func (f *Flags) Action() (Action, error) {
	var act Action
	n := 0
	if f.isPassed("send") {
		n++
		if strings.TrimSpace(*f.Send) == "" {
			return Action{}, fmt.Errorf("-send: %w", ErrEmptyFlag)
		}
		act = Action{Kind: ActionSend, Text: *f.Send}
	}
	if *f.CountUp {
		n++
		act = Action{Kind: ActionCountUp}
	}
	if f.isPassed("countdown") {
		n++
		m, s, err := validation.ParseMMSS(*f.CountDown)
		if err != nil {
			return Action{}, fmt.Errorf("-countdown: %w", err)
		}
		act = Action{Kind: ActionCountDown, Minutes: m, Seconds: s}
	}
	if n > 1 {
		return Action{}, ErrConflictingFlags
	}
	return act, nil
}

// Setup initializes logging and loads the user config. Flags that override
// config values are applied to the returned instance without saving.
func Setup(f *Flags, fs afero.Fs, logDir string, writers []io.Writer) (*config.Instance, error) {
	if err := helpers.InitLogging(logDir, *f.Debug, writers...); err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(fs, *f.Config, config.BaseDefaults)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if *f.Debug || cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if port := strings.TrimSpace(*f.Port); port != "" {
		cfg.SetSerialPort(port)
	}
	if *f.Daemon {
		cfg.SetAPIEnabled(true)
	}

	log.Info().
		Str("version", config.AppVersion).
		Str("config", cfg.Path()).
		Msg("mled starting")
	return cfg, nil
}
