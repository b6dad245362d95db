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

//nolint:revive // custom validation tags (color, mmss, etc.) are unknown to revive
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ZaparooProject/mled/pkg/protocol"
	"github.com/go-playground/validator/v10"
)

var (
	ErrMissingParams = errors.New("missing params")
	ErrInvalidParams = errors.New("invalid params")
	ErrInvalidMMSS   = errors.New("invalid minutes:seconds value")
)

// Validator wraps go-playground/validator with the custom tags used by the
// display settings, the config file and the HTTP API.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("color", validateColor)
	_ = v.RegisterValidation("mmss", validateMMSS)
	_ = v.RegisterValidation("hostport", validateHostPort)
	_ = v.RegisterValidation("duration", validateDuration)

	return &Validator{validate: v}
}

// Default is the shared validator instance.
var Default = NewValidator()

// Validate validates a struct and returns an *Error if any field fails.
func (v *Validator) Validate(params any) error {
	if err := v.validate.Struct(params); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewError(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// ValidateAndUnmarshal unmarshals JSON params and validates them.
// Returns ErrMissingParams if params is empty, ErrInvalidParams if unmarshal
// fails, or an *Error if validation fails.
func ValidateAndUnmarshal[T any](params json.RawMessage, dest *T) error {
	if len(params) == 0 {
		return ErrMissingParams
	}
	if err := json.Unmarshal(params, dest); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return Default.Validate(dest)
}

// ParseMMSS parses "MM:SS" into minutes and seconds. Seconds must be below
// 60 and minutes below 100.
func ParseMMSS(s string) (minutes, seconds int, err error) {
	mm, ss, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMMSS, s)
	}
	minutes, err = strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes > 99 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMMSS, s)
	}
	seconds, err = strconv.Atoi(ss)
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMMSS, s)
	}
	return minutes, seconds, nil
}

// validateColor accepts protocol colour codes and colour names.
func validateColor(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return protocol.Color(field.Int()).Valid()
	case reflect.String:
		_, err := protocol.ParseColor(field.String())
		return err == nil
	default:
		return false
	}
}

func validateMMSS(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	_, _, err := ParseMMSS(val)
	return err == nil
}

func validateHostPort(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	_, port, err := net.SplitHostPort(val)
	if err != nil {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n > 0 && n < 65536
}

func validateDuration(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	_, err := time.ParseDuration(val)
	return err == nil
}
