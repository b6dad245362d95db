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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZaparooProject/mled/pkg/display"
	"github.com/ZaparooProject/mled/pkg/helpers/syncutil"
	"github.com/ZaparooProject/mled/pkg/protocol"
	"github.com/ZaparooProject/mled/pkg/validation"
	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const SchemaVersion = 1

var ErrSchemaMismatch = errors.New("schema version mismatch")

type Values struct {
	Serial       Serial  `toml:"serial"`
	API          API     `toml:"api"`
	Timer        Timer   `toml:"timer"`
	Display      Display `toml:"display"`
	UI           UI      `toml:"ui"`
	ConfigSchema int     `toml:"config_schema"`
	DebugLogging bool    `toml:"debug_logging"`
}

type UI struct {
	Theme string `toml:"theme,omitempty" validate:"omitempty,oneof=default high_contrast monogreen"`
}

type Serial struct {
	Port  string `toml:"port,omitempty"`
	Greet bool   `toml:"greet"`
}

type Display struct {
	Line        int            `toml:"line" validate:"min=1,max=15"`
	Brightness  int            `toml:"brightness" validate:"min=1,max=3"`
	TextColor   protocol.Color `toml:"text_color" validate:"color"`
	ScrollSpeed int            `toml:"scroll_speed" validate:"min=0,max=3"`
	Rainbow     bool           `toml:"rainbow"`
}

type Timer struct {
	Countdown   string         `toml:"countdown" validate:"mmss"`
	FinishText  string         `toml:"finish_text,omitempty" validate:"max=30"`
	UpColor     protocol.Color `toml:"up_color" validate:"color"`
	DownColor   protocol.Color `toml:"down_color" validate:"color"`
	FinishHold  int            `toml:"finish_hold" validate:"min=1,max=180"`
	FinishFlash bool           `toml:"finish_flash"`
}

type API struct {
	Listen         string   `toml:"listen" validate:"hostport"`
	AllowedOrigins []string `toml:"allowed_origins,omitempty"`
	RateLimit      float64  `toml:"rate_limit" validate:"gte=0"`
	RateBurst      int      `toml:"rate_burst" validate:"gte=0"`
	Enabled        bool     `toml:"enabled"`
}

// BaseDefaults match what the control panel shows on first start.
var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Serial: Serial{
		Greet: true,
	},
	Display: Display{
		Line:        7,
		Brightness:  1,
		TextColor:   protocol.NoColor,
		ScrollSpeed: display.SpeedStatic,
	},
	Timer: Timer{
		UpColor:    protocol.Green,
		DownColor:  protocol.NoColor,
		Countdown:  "10:00",
		FinishHold: 5,
	},
	API: API{
		Listen:    "127.0.0.1:7497",
		RateLimit: 20,
		RateBurst: 40,
	},
}

// DefaultPath is where the config file lives unless MLED_CFG says otherwise.
func DefaultPath() string {
	if p := os.Getenv(CfgEnv); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, AppName, CfgFile)
}

// Instance is the loaded configuration. It is safe for concurrent use.
type Instance struct {
	fs       afero.Fs
	cfgPath  string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

// NewConfig loads cfgPath from fs on top of defaults. A missing file is not
// an error; the defaults are used and nothing is written until Save.
//
//nolint:gocritic // config struct copied for immutability
func NewConfig(fs afero.Fs, cfgPath string, defaults Values) (*Instance, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if cfgPath == "" {
		cfgPath = DefaultPath()
	}
	log.Debug().Str("path", cfgPath).Msg("config path")

	cfg := &Instance{
		fs:       fs,
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Instance) Path() string {
	return c.cfgPath
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := afero.ReadFile(c.fs, c.cfgPath)
	if errors.Is(err, os.ErrNotExist) {
		log.Info().Str("path", c.cfgPath).Msg("no config file, using defaults")
		c.vals = c.defaults
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top so fields not
	// present in the file keep their default values.
	newVals := c.defaults
	if err := toml.Unmarshal(data, &newVals); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return ErrSchemaMismatch
	}

	if err := validation.Default.Validate(&newVals); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	c.vals = newVals
	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	c.vals.ConfigSchema = SchemaVersion
	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := c.fs.MkdirAll(filepath.Dir(c.cfgPath), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := afero.WriteFile(c.fs, c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}

func (c *Instance) SerialPort() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Serial.Port
}

func (c *Instance) SetSerialPort(port string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Serial.Port = port
}

// GreetOnConnect reports whether the identification banner is shown after
// the port opens.
func (c *Instance) GreetOnConnect() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Serial.Greet
}

func (c *Instance) APIEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.API.Enabled
}

func (c *Instance) SetAPIEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.API.Enabled = enabled
}

func (c *Instance) APIListen() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.API.Listen == "" {
		return BaseDefaults.API.Listen
	}
	return c.vals.API.Listen
}

func (c *Instance) APIAllowedOrigins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	origins := make([]string, len(c.vals.API.AllowedOrigins))
	copy(origins, c.vals.API.AllowedOrigins)
	return origins
}

// APIRateLimit returns requests per second and burst per client IP. A zero
// rate disables limiting.
func (c *Instance) APIRateLimit() (float64, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.API.RateLimit, c.vals.API.RateBurst
}

// UITheme is the terminal panel theme name. Empty means the default theme.
func (c *Instance) UITheme() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.UI.Theme
}

// DisplaySettings builds the initial session settings from the config.
func (c *Instance) DisplaySettings() display.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := display.DefaultSettings()
	d := c.vals.Display
	t := c.vals.Timer
	s.Line = protocol.Line(d.Line)
	s.Brightness = protocol.Brightness(d.Brightness)
	s.TextColor = d.TextColor
	s.ScrollSpeed = d.ScrollSpeed
	s.Rainbow = d.Rainbow
	if s.Rainbow && s.ScrollSpeed == display.SpeedStatic {
		s.ScrollSpeed = display.SpeedSlow
	}
	s.UpColor = t.UpColor
	s.DownColor = t.DownColor
	if m, sec, err := validation.ParseMMSS(t.Countdown); err == nil {
		s.DownMinutes, s.DownSeconds = m, sec
	}
	s.FinishText = t.FinishText
	s.FinishHold = t.FinishHold
	s.FinishFlash = t.FinishFlash
	return s
}

// SetDisplaySettings stores session settings so Save persists them as the
// new defaults.
//
//nolint:gocritic // settings struct copied for immutability
func (c *Instance) SetDisplaySettings(s display.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.vals.Display = Display{
		Line:        int(s.Line),
		Brightness:  int(s.Brightness),
		TextColor:   s.TextColor,
		ScrollSpeed: s.ScrollSpeed,
		Rainbow:     s.Rainbow,
	}
	c.vals.Timer = Timer{
		UpColor:     s.UpColor,
		DownColor:   s.DownColor,
		Countdown:   fmt.Sprintf("%02d:%02d", s.DownMinutes, s.DownSeconds),
		FinishText:  protocol.Truncate(s.FinishText, protocol.MaxFinishText),
		FinishHold:  s.FinishHoldSeconds(),
		FinishFlash: s.FinishFlash,
	}
}
