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

package config

import (
	"sync"
	"testing"
	"time"

	"github.com/ZaparooProject/mled/pkg/display"
	"github.com/ZaparooProject/mled/pkg/helpers/syncutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDisplaySettings_NoRecursiveLock guards against DisplaySettings
// calling another locked accessor while holding RLock. With -tags=deadlock,
// go-deadlock panics on recursive locks.
func TestDisplaySettings_NoRecursiveLock(t *testing.T) {
	t.Parallel()
	t.Logf("deadlock detection enabled: %v", syncutil.DeadlockEnabled)

	cfg := &Instance{}

	done := make(chan struct{})
	go func() {
		_ = cfg.DisplaySettings()
		_ = cfg.APIListen()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("accessors deadlocked")
	}
}

func TestInstance_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	cfg, err := NewConfig(afero.NewMemMapFs(), testPath, BaseDefaults)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s := display.DefaultSettings()
			s.DownMinutes = i
			cfg.SetDisplaySettings(s)
			cfg.SetSerialPort("/dev/ttyUSB0")
		}()
		go func() {
			defer wg.Done()
			_ = cfg.DisplaySettings()
			_ = cfg.SerialPort()
			_ = cfg.APIAllowedOrigins()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent access deadlocked")
	}
	assert.Equal(t, "/dev/ttyUSB0", cfg.SerialPort())
}
