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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/mled/pkg/cli"
	"github.com/ZaparooProject/mled/pkg/config"
	"github.com/ZaparooProject/mled/pkg/helpers"
	"github.com/ZaparooProject/mled/pkg/transport"
	"github.com/ZaparooProject/mled/pkg/ui/tui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags(flag.CommandLine)
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	if *flags.Version {
		_, _ = fmt.Printf("MLED v%s\n", config.AppVersion)
		return nil
	}

	if *flags.ListPorts {
		ports, err := transport.ListPorts(*flags.AllPorts)
		if err != nil {
			return fmt.Errorf("listing ports: %w", err)
		}
		for _, p := range ports {
			_, _ = fmt.Println(p.Label())
		}
		return nil
	}

	act, err := flags.Action()
	if err != nil {
		return err
	}

	// the panel owns the terminal, so logs only go to stderr without it
	var logWriters []io.Writer
	if *flags.Daemon || act.Kind != cli.ActionNone {
		logWriters = []io.Writer{os.Stderr}
	}

	cfg, err := cli.Setup(flags, afero.NewOsFs(), helpers.LogDir(), logWriters)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %v\n", r)
			log.Fatal().Msgf("panic: %v", r)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(cfg)

	if act.Kind != cli.ActionNone {
		return app.RunOnce(ctx, act)
	}

	if *flags.Daemon {
		app.NewTerminal()
		err = app.Run(ctx, nil)
	} else {
		if !tui.SetCurrentTheme(cfg.UITheme()) {
			log.Warn().Str("theme", cfg.UITheme()).Msg("unknown theme, using default")
		}
		panel := tui.NewPanel(app.Loop(), app)
		panel.Bind(app.NewTerminal(panel.Listener()))
		err = app.Run(ctx, panel.Run)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
