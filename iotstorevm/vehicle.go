// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
)

var (
	ErrEmptyVin           = errors.New("vin must not be empty")
	ErrTooManyIdentifiers = errors.New("too many identifiers")
	ErrInvalidIdentifier  = errors.New("identifier is not a valid CID")
	errKeyMismatch        = errors.New("vehicle key does not match its vin")
)

// VehicleKey identifies a record in the registry. It is the record's VIN.
type VehicleKey string

func (k VehicleKey) Bytes() []byte  { return []byte(k) }
func (k VehicleKey) String() string { return string(k) }

// Vehicle is a registry record.
type Vehicle struct {
	Vin          string   `serialize:"true" json:"vin"`
	Manufacturer string   `serialize:"true" json:"manufacturer"`
	Model        string   `serialize:"true" json:"model"`
	Identifiers  []string `serialize:"true" json:"identifiers"`
}

// Key returns the key [v] is stored under.
func (v *Vehicle) Key() VehicleKey { return VehicleKey(v.Vin) }

// Copy returns a deep copy of [v].
func (v *Vehicle) Copy() *Vehicle {
	cp := *v
	cp.Identifiers = append([]string(nil), v.Identifiers...)
	return &cp
}

// HasIdentifier reports whether [id] is in the identifier set.
func (v *Vehicle) HasIdentifier(id string) bool {
	for _, existing := range v.Identifiers {
		if existing == id {
			return true
		}
	}
	return false
}

// Verify checks every field of [v] against [cfg].
func (v *Vehicle) Verify(cfg Config) error {
	if len(v.Vin) == 0 {
		return ErrEmptyVin
	}
	if _, err := BindString(v.Vin, cfg.maxKeyLength(), "vin"); err != nil {
		return err
	}
	if _, err := BindString(v.Manufacturer, cfg.MaxManufacturerLength, "manufacturer"); err != nil {
		return err
	}
	if _, err := BindString(v.Model, cfg.MaxModelLength, "model"); err != nil {
		return err
	}
	if uint64(len(v.Identifiers)) > uint64(cfg.MaxIdentifiersPerVehicle) {
		return fmt.Errorf("%w: %d > %d", ErrTooManyIdentifiers, len(v.Identifiers), cfg.MaxIdentifiersPerVehicle)
	}
	seen := make(map[string]struct{}, len(v.Identifiers))
	for _, id := range v.Identifiers {
		if err := verifyIdentifier(id, cfg); err != nil {
			return err
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("duplicate identifier %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func verifyIdentifier(id string, cfg Config) error {
	if _, err := BindString(id, cfg.MaxIdentifierLength, "identifier"); err != nil {
		return err
	}
	if !cfg.RequireCIDIdentifiers {
		return nil
	}
	if _, err := cid.Decode(id); err != nil {
		return fmt.Errorf("%w: %q: %s", ErrInvalidIdentifier, id, err)
	}
	return nil
}
