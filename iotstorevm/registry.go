// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateVin       = errors.New("vehicle with this vin is already registered")
	ErrRegistryFull       = errors.New("registry is full")
	ErrDetailsMismatch    = errors.New("manufacturer or model does not match the registered vehicle")
	ErrVinPrefixNotFound  = errors.New("no vehicle matches vin prefix")
	ErrNoIdentifiersFound = errors.New("no identifiers found for vehicle")
)

// IdentifierMatch is a single result of a VehicleIdentifiers query.
type IdentifierMatch struct {
	Identifier string     `json:"identifier"`
	Key        VehicleKey `json:"key"`
}

// Registry applies register/update/deregister transitions to a
// VehicleState. Each operation either commits fully and emits its event to
// the sink, or returns an error and leaves the store untouched.
//
// A Registry isn't safe for concurrent mutation; callers serialize
// transitions.
type Registry struct {
	cfg      Config
	vehicles VehicleState
	sink     EventSink
}

// NewRegistry returns a registry over [vehicles]. A nil sink discards events.
func NewRegistry(cfg Config, vehicles VehicleState, sink EventSink) *Registry {
	if sink == nil {
		sink = noopSink{}
	}
	return &Registry{
		cfg:      cfg,
		vehicles: vehicles,
		sink:     sink,
	}
}

// Register adds a new vehicle keyed by its VIN.
func (r *Registry) Register(vin, manufacturer, model string, identifiers []string) (VehicleKey, error) {
	key, err := r.bindKey(vin)
	if err != nil {
		return "", err
	}
	mfr, err := BindString(manufacturer, r.cfg.MaxManufacturerLength, "manufacturer")
	if err != nil {
		return "", err
	}
	mdl, err := BindString(model, r.cfg.MaxModelLength, "model")
	if err != nil {
		return "", err
	}
	ids, err := r.bindIdentifiers(identifiers)
	if err != nil {
		return "", err
	}
	if uint64(len(ids)) > uint64(r.cfg.MaxIdentifiersPerVehicle) {
		return "", fmt.Errorf("%w: %d > %d", ErrTooManyIdentifiers, len(ids), r.cfg.MaxIdentifiersPerVehicle)
	}

	has, err := r.vehicles.HasVehicle(key)
	if err != nil {
		return "", err
	}
	if has {
		return "", fmt.Errorf("%w: %s", ErrDuplicateVin, key)
	}

	v := &Vehicle{
		Vin:          key.String(),
		Manufacturer: mfr.String(),
		Model:        mdl.String(),
		Identifiers:  boundedStrings(ids),
	}
	switch err := r.vehicles.PutNewVehicle(key, v); {
	case errors.Is(err, ErrCapacityExceeded):
		return "", fmt.Errorf("%w: %d vehicles", ErrRegistryFull, r.cfg.MaxVehicles)
	case errors.Is(err, ErrKeyExists):
		return "", fmt.Errorf("%w: %s", ErrDuplicateVin, key)
	case err != nil:
		return "", err
	}

	r.sink.Emit(Event{
		Kind:         VehicleRegistered,
		Key:          key,
		Manufacturer: v.Manufacturer,
		Model:        v.Model,
		Added:        v.Identifiers,
	})
	return key, nil
}

// UpdateIdentifiers removes [remove] and then adds [add] to the identifier
// set of the vehicle at [key]. Removing an absent identifier and adding a
// present one are no-ops.
func (r *Registry) UpdateIdentifiers(key VehicleKey, add, remove []string) error {
	if _, err := r.bindKey(key.String()); err != nil {
		return err
	}
	toAdd, err := r.bindIdentifiers(add)
	if err != nil {
		return err
	}

	var added, removed []string
	_, err = r.vehicles.UpdateVehicle(key, func(v *Vehicle) error {
		added, removed = applyIdentifierChanges(v, boundedStrings(toAdd), remove)
		return nil
	})
	if err != nil {
		return err
	}

	r.sink.Emit(Event{
		Kind:    VehicleUpdated,
		Key:     key,
		Added:   added,
		Removed: removed,
	})
	return nil
}

// UpdateDetails corrects the manufacturer and model of the vehicle at [key].
func (r *Registry) UpdateDetails(key VehicleKey, manufacturer, model string) error {
	if _, err := r.bindKey(key.String()); err != nil {
		return err
	}
	mfr, err := BindString(manufacturer, r.cfg.MaxManufacturerLength, "manufacturer")
	if err != nil {
		return err
	}
	mdl, err := BindString(model, r.cfg.MaxModelLength, "model")
	if err != nil {
		return err
	}

	_, err = r.vehicles.UpdateVehicle(key, func(v *Vehicle) error {
		v.Manufacturer = mfr.String()
		v.Model = mdl.String()
		return nil
	})
	if err != nil {
		return err
	}

	r.sink.Emit(Event{
		Kind:         VehicleUpdated,
		Key:          key,
		Manufacturer: mfr.String(),
		Model:        mdl.String(),
	})
	return nil
}

// Deregister removes the vehicle at [key].
func (r *Registry) Deregister(key VehicleKey) error {
	if _, err := r.bindKey(key.String()); err != nil {
		return err
	}
	prior, err := r.vehicles.DeleteVehicle(key)
	if err != nil {
		return err
	}

	r.sink.Emit(Event{
		Kind:         VehicleDeregistered,
		Key:          key,
		Manufacturer: prior.Manufacturer,
		Model:        prior.Model,
		Removed:      prior.Identifiers,
	})
	return nil
}

// AddIdentifier attaches [identifier] to the vehicle with [vin], registering
// the vehicle first if it isn't known yet. An existing vehicle must have the
// same manufacturer and model.
func (r *Registry) AddIdentifier(vin, manufacturer, model, identifier string) (VehicleKey, error) {
	key, err := r.bindKey(vin)
	if err != nil {
		return "", err
	}
	existing, err := r.vehicles.GetVehicle(key)
	switch {
	case errors.Is(err, ErrNotFound):
		return r.Register(vin, manufacturer, model, []string{identifier})
	case err != nil:
		return "", err
	}

	if existing.Manufacturer != manufacturer || existing.Model != model {
		return "", fmt.Errorf("%w: %s", ErrDetailsMismatch, key)
	}
	return key, r.UpdateIdentifiers(key, []string{identifier}, nil)
}

// Get returns the vehicle at [key].
func (r *Registry) Get(key VehicleKey) (*Vehicle, error) {
	return r.vehicles.GetVehicle(key)
}

// Count returns the number of registered vehicles.
func (r *Registry) Count() (uint64, error) {
	return r.vehicles.VehicleCount()
}

// VehicleIdentifiers returns every identifier of every vehicle whose VIN
// starts with [vinPrefix] and whose manufacturer and model match.
func (r *Registry) VehicleIdentifiers(manufacturer, model, vinPrefix string) ([]IdentifierMatch, error) {
	prefix, err := BindString(vinPrefix, r.cfg.VINPrefix, "vin prefix")
	if err != nil {
		return nil, err
	}

	var (
		matchedVin bool
		matches    []IdentifierMatch
	)
	err = r.vehicles.IterateVINPrefix(prefix.Bytes(), func(v *Vehicle) error {
		matchedVin = true
		if v.Manufacturer != manufacturer || v.Model != model {
			return nil
		}
		for _, id := range v.Identifiers {
			matches = append(matches, IdentifierMatch{Identifier: id, Key: v.Key()})
		}
		return nil
	})
	switch {
	case err != nil:
		return nil, err
	case !matchedVin:
		return nil, fmt.Errorf("%w: %q", ErrVinPrefixNotFound, vinPrefix)
	case len(matches) == 0:
		return nil, fmt.Errorf("%w: %s %s %q", ErrNoIdentifiersFound, manufacturer, model, vinPrefix)
	}
	return matches, nil
}

func (r *Registry) bindKey(vin string) (VehicleKey, error) {
	if len(vin) == 0 {
		return "", ErrEmptyVin
	}
	b, err := BindString(vin, r.cfg.maxKeyLength(), "vin")
	if err != nil {
		return "", err
	}
	return VehicleKey(b.String()), nil
}

func (r *Registry) bindIdentifiers(raw []string) ([]Bounded, error) {
	ids, err := BindAll(raw, r.cfg.MaxIdentifierLength, "identifier")
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := verifyIdentifier(id.String(), r.cfg); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// applyIdentifierChanges mutates [v] and returns the identifiers that were
// actually added and removed.
func applyIdentifierChanges(v *Vehicle, add, remove []string) (added, removed []string) {
	drop := make(map[string]struct{}, len(remove))
	for _, id := range remove {
		drop[id] = struct{}{}
	}
	kept := v.Identifiers[:0:0]
	for _, id := range v.Identifiers {
		if _, ok := drop[id]; ok {
			removed = append(removed, id)
			continue
		}
		kept = append(kept, id)
	}
	v.Identifiers = kept

	for _, id := range add {
		if v.HasIdentifier(id) {
			continue
		}
		v.Identifiers = append(v.Identifiers, id)
		added = append(added, id)
	}
	return added, removed
}

