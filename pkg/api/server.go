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

// Package api serves a small local HTTP API for driving the sign from
// scripts and other machines. Every handler runs its terminal work on the
// display loop.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ZaparooProject/mled/pkg/api/middleware"
	"github.com/ZaparooProject/mled/pkg/config"
	"github.com/ZaparooProject/mled/pkg/display"
	"github.com/ZaparooProject/mled/pkg/transport"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 16 << 10
)

// Runner executes fn on the goroutine that owns the terminal.
type Runner interface {
	Call(ctx context.Context, fn func()) error
}

// PortLister enumerates serial ports.
type PortLister func(all bool) ([]transport.PortInfo, error)

// Option configures a Server.
type Option func(*Server)

// WithPortLister replaces serial port enumeration.
func WithPortLister(fn PortLister) Option {
	return func(s *Server) {
		s.listPorts = fn
	}
}

// WithNotices attaches the notice log served in /api/state.
func WithNotices(n *NoticeLog) Option {
	return func(s *Server) {
		s.notices = n
	}
}

type Server struct {
	runner    Runner
	term      *display.Terminal
	cfg       *config.Instance
	limiter   *middleware.IPRateLimiter
	listPorts PortLister
	notices   *NoticeLog
}

func NewServer(cfg *config.Instance, runner Runner, term *display.Terminal, opts ...Option) *Server {
	perSecond, burst := cfg.APIRateLimit()
	s := &Server{
		runner:    runner,
		term:      term,
		cfg:       cfg,
		limiter:   middleware.NewIPRateLimiter(perSecond, burst),
		listPorts: transport.ListPorts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.NoCache)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(chimw.RequestSize(maxBodyBytes))

	origins := s.cfg.APIAllowedOrigins()
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.HTTPRateLimitMiddleware(s.limiter))

		r.Get("/state", s.handleState)
		r.Put("/settings", s.handleSettings)
		r.Post("/text", s.handleText)
		r.Post("/clear", s.handleClear)
		r.Post("/countup", s.handleCountUp)
		r.Post("/countdown", s.handleCountDown)
		r.Post("/stop", s.handleStop)
		r.Get("/ports", s.handlePorts)
	})

	return r
}

// Serve listens on the configured address until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	addr := s.cfg.APIListen()
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.limiter.StartCleanup(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("api server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	<-errCh
	log.Info().Msg("api server stopped")
	return nil
}
