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

package transport

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// PortInfo describes a serial port a sign might be attached to.
type PortInfo struct {
	Name    string `json:"name"`
	Product string `json:"product,omitempty"`
	VID     string `json:"vid,omitempty"`
	PID     string `json:"pid,omitempty"`
	Serial  string `json:"serial,omitempty"`
	USB     bool   `json:"usb"`
}

// Label is a short human-readable description for port pickers.
func (p PortInfo) Label() string {
	if !p.USB {
		return p.Name
	}
	if p.Product != "" {
		return fmt.Sprintf("%s (%s)", p.Name, p.Product)
	}
	return fmt.Sprintf("%s (USB %s:%s)", p.Name, strings.ToLower(p.VID), strings.ToLower(p.PID))
}

// likelyAdapter reports whether a port name looks like a USB serial adapter
// rather than a built-in or virtual tty.
func likelyAdapter(name string) bool {
	switch runtime.GOOS {
	case "windows":
		return strings.HasPrefix(strings.ToUpper(name), "COM")
	case "darwin":
		return strings.HasPrefix(name, "/dev/tty.usb") || strings.HasPrefix(name, "/dev/cu.usb")
	default:
		return strings.HasPrefix(name, "/dev/ttyUSB") || strings.HasPrefix(name, "/dev/ttyACM")
	}
}

// ListPorts returns the serial ports found on the system, sorted by name.
// Unless all is set, only USB ports and names that look like USB adapters
// are returned.
func ListPorts(all bool) ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		log.Debug().Err(err).Msg("detailed port enumeration failed, falling back to names")
		names, nameErr := serial.GetPortsList()
		if nameErr != nil {
			return nil, fmt.Errorf("failed to get serial ports list: %w", nameErr)
		}
		ports := make([]PortInfo, 0, len(names))
		for _, n := range names {
			ports = append(ports, PortInfo{Name: n})
		}
		return filterPorts(ports, all), nil
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:    d.Name,
			USB:     d.IsUSB,
			VID:     d.VID,
			PID:     d.PID,
			Serial:  d.SerialNumber,
			Product: d.Product,
		})
	}
	return filterPorts(ports, all), nil
}

func filterPorts(ports []PortInfo, all bool) []PortInfo {
	out := make([]PortInfo, 0, len(ports))
	for _, p := range ports {
		if all || p.USB || likelyAdapter(p.Name) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b PortInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
