// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"errors"
	"fmt"
)

var errZeroLimit = errors.New("limit must be greater than zero")

// Config holds the limits every registry operation is checked against.
// It is fixed at genesis and never changes for the lifetime of the chain.
type Config struct {
	MaxVinLength          uint32 `serialize:"true" yaml:"maxVinLength" json:"maxVinLength"`
	MaxManufacturerLength uint32 `serialize:"true" yaml:"maxManufacturerLength" json:"maxManufacturerLength"`
	MaxModelLength        uint32 `serialize:"true" yaml:"maxModelLength" json:"maxModelLength"`
	MaxIdentifierLength   uint32 `serialize:"true" yaml:"maxIdentifierLength" json:"maxIdentifierLength"`
	MaxVehicles           uint32 `serialize:"true" yaml:"maxVehicles" json:"maxVehicles"`
	// VINPrefix bounds the length of a vehicle key. Since keys are VINs,
	// the effective VIN bound is min(MaxVinLength, VINPrefix).
	VINPrefix uint32 `serialize:"true" yaml:"vinPrefix" json:"vinPrefix"`

	// MaxIdentifiersPerVehicle bounds the identifier set of a single record.
	MaxIdentifiersPerVehicle uint32 `serialize:"true" yaml:"maxIdentifiersPerVehicle" json:"maxIdentifiersPerVehicle"`
	// RequireCIDIdentifiers rejects identifiers that don't decode as a CID.
	RequireCIDIdentifiers bool `serialize:"true" yaml:"requireCIDIdentifiers" json:"requireCIDIdentifiers"`
}

// DefaultConfig returns the limits used by the reference runtime.
func DefaultConfig() Config {
	return Config{
		MaxVinLength:             32,
		MaxManufacturerLength:    32,
		MaxModelLength:           32,
		MaxIdentifierLength:      64,
		MaxVehicles:              100_000,
		VINPrefix:                32,
		MaxIdentifiersPerVehicle: 64,
	}
}

// Verify returns an error if any limit is unset.
func (c Config) Verify() error {
	limits := []struct {
		name  string
		value uint32
	}{
		{"maxVinLength", c.MaxVinLength},
		{"maxManufacturerLength", c.MaxManufacturerLength},
		{"maxModelLength", c.MaxModelLength},
		{"maxIdentifierLength", c.MaxIdentifierLength},
		{"maxVehicles", c.MaxVehicles},
		{"vinPrefix", c.VINPrefix},
		{"maxIdentifiersPerVehicle", c.MaxIdentifiersPerVehicle},
	}
	for _, l := range limits {
		if l.value == 0 {
			return fmt.Errorf("%s: %w", l.name, errZeroLimit)
		}
	}
	return nil
}

// maxKeyLength is the bound applied to VINs used as vehicle keys.
func (c Config) maxKeyLength() uint32 {
	if c.VINPrefix < c.MaxVinLength {
		return c.VINPrefix
	}
	return c.MaxVinLength
}
