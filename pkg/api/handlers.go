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

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ZaparooProject/mled/pkg/display"
	"github.com/ZaparooProject/mled/pkg/protocol"
	"github.com/ZaparooProject/mled/pkg/scheduler"
	"github.com/ZaparooProject/mled/pkg/validation"
	"github.com/rs/zerolog/log"
)

// StateResponse is returned by GET /api/state.
type StateResponse struct {
	display.Snapshot
	Notices []NoticeEntry `json:"notices"`
}

// TextRequest is the body of POST /api/text.
type TextRequest struct {
	Text string `json:"text" validate:"required,max=256"`
}

// CountdownRequest is the optional body of POST /api/countdown.
type CountdownRequest struct {
	Duration string `json:"duration" validate:"omitempty,mmss"`
}

// SettingsRequest is the body of PUT /api/settings. Omitted fields are left
// unchanged.
type SettingsRequest struct {
	Line        *int            `json:"line" validate:"omitempty,min=1,max=15"`
	Brightness  *int            `json:"brightness" validate:"omitempty,min=1,max=3"`
	TextColor   *protocol.Color `json:"textColor" validate:"omitempty,color"`
	UpColor     *protocol.Color `json:"upColor" validate:"omitempty,color"`
	DownColor   *protocol.Color `json:"downColor" validate:"omitempty,color"`
	ScrollSpeed *int            `json:"scrollSpeed" validate:"omitempty,min=0,max=3"`
	Countdown   *string         `json:"countdown" validate:"omitempty,mmss"`
	FinishText  *string         `json:"finishText" validate:"omitempty,max=30"`
	FinishHold  *int            `json:"finishHold" validate:"omitempty,min=1,max=180"`
	Rainbow     *bool           `json:"rainbow"`
	FinishFlash *bool           `json:"finishFlash"`
}

func (req *SettingsRequest) apply(s *display.Settings) {
	if req.Line != nil {
		s.Line = protocol.Line(*req.Line)
	}
	if req.Brightness != nil {
		s.Brightness = protocol.Brightness(*req.Brightness)
	}
	if req.TextColor != nil {
		s.TextColor = *req.TextColor
	}
	if req.UpColor != nil {
		s.UpColor = *req.UpColor
	}
	if req.DownColor != nil {
		s.DownColor = *req.DownColor
	}
	if req.ScrollSpeed != nil {
		s.ScrollSpeed = *req.ScrollSpeed
	}
	if req.Countdown != nil {
		// already validated
		s.DownMinutes, s.DownSeconds, _ = validation.ParseMMSS(*req.Countdown)
	}
	if req.FinishText != nil {
		s.FinishText = *req.FinishText
	}
	if req.FinishHold != nil {
		s.FinishHold = *req.FinishHold
	}
	if req.Rainbow != nil {
		s.Rainbow = *req.Rainbow
	}
	if req.FinishFlash != nil {
		s.FinishFlash = *req.FinishFlash
	}
}

type errorResponse struct {
	Error  string                  `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write api response")
	}
}

func statusFor(err error) int {
	var ve *validation.Error
	switch {
	case errors.Is(err, display.ErrModeConflict):
		return http.StatusConflict
	case errors.As(err, &ve),
		errors.Is(err, validation.ErrInvalidParams),
		errors.Is(err, validation.ErrMissingParams),
		errors.Is(err, display.ErrEmptyText),
		errors.Is(err, validation.ErrInvalidMMSS),
		errors.Is(err, display.ErrInvalidDuration):
		return http.StatusBadRequest
	case errors.Is(err, scheduler.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	var ve *validation.Error
	if errors.As(err, &ve) {
		resp.Fields = ve.Fields
	}
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("api request failed")
	}
	writeJSON(w, status, resp)
}

func readBody(r *http.Request) (json.RawMessage, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, validation.ErrInvalidParams
	}
	return data, nil
}

// run executes fn on the display loop and reports its error, or the loop's.
func (s *Server) run(r *http.Request, fn func() error) error {
	var actionErr error
	if err := s.runner.Call(r.Context(), func() {
		actionErr = fn()
	}); err != nil {
		return err
	}
	return actionErr
}

func (s *Server) state(r *http.Request) (StateResponse, error) {
	var resp StateResponse
	err := s.run(r, func() error {
		resp.Snapshot = s.term.Snapshot()
		return nil
	})
	resp.Notices = s.notices.Recent()
	return resp, err
}

func (s *Server) respondState(w http.ResponseWriter, r *http.Request) {
	resp, err := s.state(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.respondState(w, r)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req SettingsRequest
	if err := validation.ValidateAndUnmarshal(body, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.run(r, func() error {
		return s.term.UpdateSettings(req.apply)
	}); err != nil {
		writeError(w, err)
		return
	}
	s.respondState(w, r)
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req TextRequest
	if err := validation.ValidateAndUnmarshal(body, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.run(r, func() error {
		return s.term.SendText(req.Text)
	}); err != nil {
		writeError(w, err)
		return
	}
	s.respondState(w, r)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.run(r, func() error {
		s.term.Clear()
		return nil
	}); err != nil {
		writeError(w, err)
		return
	}
	s.respondState(w, r)
}

func (s *Server) handleCountUp(w http.ResponseWriter, r *http.Request) {
	if err := s.run(r, s.term.StartCountUp); err != nil {
		writeError(w, err)
		return
	}
	s.respondState(w, r)
}

func (s *Server) handleCountDown(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	start := s.term.StartCountDown
	if len(body) > 0 {
		var req CountdownRequest
		if err := validation.ValidateAndUnmarshal(body, &req); err != nil {
			writeError(w, err)
			return
		}
		if req.Duration != "" {
			minutes, seconds, err := validation.ParseMMSS(req.Duration)
			if err != nil {
				writeError(w, err)
				return
			}
			start = func() error {
				return s.term.StartCountDownFrom(minutes, seconds)
			}
		}
	}

	if err := s.run(r, start); err != nil {
		writeError(w, err)
		return
	}
	s.respondState(w, r)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.run(r, func() error {
		s.term.StopTimer()
		return nil
	}); err != nil {
		writeError(w, err)
		return
	}
	s.respondState(w, r)
}

func (s *Server) handlePorts(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	ports, err := s.listPorts(all)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ports": ports})
}
