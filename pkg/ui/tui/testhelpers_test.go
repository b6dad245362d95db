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

package tui

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/require"
)

// TestScreen wraps a SimulationScreen with helpers for reading what a
// primitive drew.
type TestScreen struct {
	tcell.SimulationScreen
	t *testing.T
}

func NewTestScreen(t *testing.T, width, height int) *TestScreen {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	require.NotNil(t, sim, "failed to create simulation screen")
	require.NoError(t, sim.Init(), "failed to initialize simulation screen")
	sim.SetSize(width, height)
	t.Cleanup(sim.Fini)

	return &TestScreen{SimulationScreen: sim, t: t}
}

// Render draws p over the whole screen.
func (s *TestScreen) Render(p tview.Primitive) {
	width, height := s.Size()
	p.SetRect(0, 0, width, height)
	p.Draw(s)
	s.Show()
}

// GetLineContent returns the text of row y without trailing spaces.
func (s *TestScreen) GetLineContent(y int) string {
	cells, width, height := s.GetContents()
	if y < 0 || y >= height {
		return ""
	}

	var sb strings.Builder
	for x := range width {
		cell := cells[y*width+x]
		if len(cell.Runes) > 0 {
			sb.WriteRune(cell.Runes[0])
		} else {
			sb.WriteRune(' ')
		}
	}
	return strings.TrimRight(sb.String(), " ")
}

// GetScreenText returns every row joined by newlines.
func (s *TestScreen) GetScreenText() string {
	_, _, height := s.GetContents()
	lines := make([]string, 0, height)
	for y := range height {
		lines = append(lines, s.GetLineContent(y))
	}
	return strings.Join(lines, "\n")
}

func (s *TestScreen) ContainsText(text string) bool {
	return strings.Contains(s.GetScreenText(), text)
}
