// Copyright 2020-2021 The OS-NVR Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package config loads and validates the compressor's tunable settings from
// YAML, the same way the teacher's pkg/storage loads env.yaml: unmarshal,
// apply defaults, then validate field by field with plain error messages.
package config

import (
	"fmt"

	yaml "gopkg.in/yaml.v2"

	"animclip/pkg/format"
)

// CompressionSettings are the tunable knobs of the compression pipeline that
// are not per-track (those live on track.Description): segmenter sizing
// (§4.6), the error-correction build flag (§4.2), and the decompression
// defaults a blob is expected to be consumed with (§6).
type CompressionSettings struct {
	// IdealNumSamples is the target sample count per segment (§4.6).
	IdealNumSamples uint32 `yaml:"idealNumSamples"`

	// MaxNumSamples is the hard cap on samples per segment (§4.6).
	MaxNumSamples uint32 `yaml:"maxNumSamples"`

	// EnableErrorCorrection turns on the post-constant-detection object
	// space correction pass (§4.2), off by default.
	EnableErrorCorrection bool `yaml:"enableErrorCorrection"`

	// DefaultPrecision is used for tracks whose Description.Precision is
	// zero, so a caller doesn't have to fill every field by hand.
	DefaultPrecision float32 `yaml:"defaultPrecision"`

	// DefaultShellDistance is used the same way for Description.ShellDistance.
	DefaultShellDistance float32 `yaml:"defaultShellDistance"`

	// RotationFormat, TranslationFormat and ScaleFormat pick the sub-track
	// encoding for the whole clip (§3 "Track stream"). Left at their YAML
	// zero value (0) they default to the variable, bit-rate-searched
	// formats; set a format's raw counterpart to request reference
	// fidelity for that channel (§4.2 "raw ... no tolerance").
	RotationFormat    format.RotationFormat `yaml:"rotationFormat"`
	TranslationFormat format.VectorFormat   `yaml:"translationFormat"`
	ScaleFormat       format.VectorFormat   `yaml:"scaleFormat"`
}

// DefaultCompressionSettings returns the settings this package falls back
// to when a field is left at its YAML zero value.
func DefaultCompressionSettings() CompressionSettings {
	return CompressionSettings{
		IdealNumSamples:       16,
		MaxNumSamples:         31,
		EnableErrorCorrection: false,
		DefaultPrecision:      0.01,
		DefaultShellDistance:  1.0,
		RotationFormat:        format.RotationFormatQuatDropWVariable,
		TranslationFormat:     format.VectorFormatVec3Variable,
		ScaleFormat:           format.VectorFormatVec3Variable,
	}
}

// ParseCompressionSettings unmarshals a YAML document into
// CompressionSettings, fills unset numeric fields from
// DefaultCompressionSettings, and validates the result.
func ParseCompressionSettings(doc []byte) (CompressionSettings, error) {
	settings := CompressionSettings{}
	if err := yaml.Unmarshal(doc, &settings); err != nil {
		return CompressionSettings{}, fmt.Errorf("could not unmarshal compression settings: %w", err)
	}

	defaults := DefaultCompressionSettings()
	if settings.IdealNumSamples == 0 {
		settings.IdealNumSamples = defaults.IdealNumSamples
	}
	if settings.MaxNumSamples == 0 {
		settings.MaxNumSamples = defaults.MaxNumSamples
	}
	if settings.DefaultPrecision == 0 {
		settings.DefaultPrecision = defaults.DefaultPrecision
	}
	if settings.DefaultShellDistance == 0 {
		settings.DefaultShellDistance = defaults.DefaultShellDistance
	}

	if err := settings.Validate(); err != nil {
		return CompressionSettings{}, err
	}
	return settings, nil
}

// Validate checks the invariants required by §4.6: a positive ideal sample
// count that does not exceed the maximum.
func (s CompressionSettings) Validate() error {
	if s.IdealNumSamples == 0 {
		return fmt.Errorf("idealNumSamples must be positive")
	}
	if s.MaxNumSamples < s.IdealNumSamples {
		return fmt.Errorf("maxNumSamples (%d) must be >= idealNumSamples (%d)",
			s.MaxNumSamples, s.IdealNumSamples)
	}
	if s.DefaultPrecision <= 0 {
		return fmt.Errorf("defaultPrecision must be positive")
	}
	if s.DefaultShellDistance <= 0 {
		return fmt.Errorf("defaultShellDistance must be positive")
	}
	return nil
}
