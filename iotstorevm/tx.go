// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

var (
	_ Tx = &RegisterTx{}
	_ Tx = &UpdateIdentifiersTx{}
	_ Tx = &UpdateDetailsTx{}
	_ Tx = &DeregisterTx{}
	_ Tx = &AddIdentifierTx{}
)

// Tx is a transition request against the registry. Every tx carries a
// nonce so that a transition can be repeated under a new ID.
type Tx interface {
	// Execute applies the transition to [r]. It must be deterministic.
	Execute(r *Registry) error
	// Kind names the transition for logs and metrics.
	Kind() string
	// SyntacticVerify checks the tx against [cfg] without reading state.
	SyntacticVerify(cfg Config) error
}

// RegisterTx registers a new vehicle.
type RegisterTx struct {
	Vin          string   `serialize:"true" json:"vin"`
	Manufacturer string   `serialize:"true" json:"manufacturer"`
	Model        string   `serialize:"true" json:"model"`
	Identifiers  []string `serialize:"true" json:"identifiers"`
	Nonce        uint64   `serialize:"true" json:"nonce"`
}

func (t *RegisterTx) Execute(r *Registry) error {
	_, err := r.Register(t.Vin, t.Manufacturer, t.Model, t.Identifiers)
	return err
}

func (*RegisterTx) Kind() string { return "register" }

func (t *RegisterTx) SyntacticVerify(cfg Config) error {
	if err := verifyKey(t.Vin, cfg); err != nil {
		return err
	}
	if err := verifyDetails(t.Manufacturer, t.Model, cfg); err != nil {
		return err
	}
	return verifyIdentifiers(t.Identifiers, cfg)
}

// UpdateIdentifiersTx edits the identifier set of a vehicle.
type UpdateIdentifiersTx struct {
	Key    VehicleKey `serialize:"true" json:"key"`
	Add    []string   `serialize:"true" json:"add"`
	Remove []string   `serialize:"true" json:"remove"`
	Nonce  uint64     `serialize:"true" json:"nonce"`
}

func (t *UpdateIdentifiersTx) Execute(r *Registry) error {
	return r.UpdateIdentifiers(t.Key, t.Add, t.Remove)
}

func (*UpdateIdentifiersTx) Kind() string { return "updateIdentifiers" }

func (t *UpdateIdentifiersTx) SyntacticVerify(cfg Config) error {
	if err := verifyKey(t.Key.String(), cfg); err != nil {
		return err
	}
	return verifyIdentifiers(t.Add, cfg)
}

// UpdateDetailsTx corrects a vehicle's manufacturer and model.
type UpdateDetailsTx struct {
	Key          VehicleKey `serialize:"true" json:"key"`
	Manufacturer string     `serialize:"true" json:"manufacturer"`
	Model        string     `serialize:"true" json:"model"`
	Nonce        uint64     `serialize:"true" json:"nonce"`
}

func (t *UpdateDetailsTx) Execute(r *Registry) error {
	return r.UpdateDetails(t.Key, t.Manufacturer, t.Model)
}

func (*UpdateDetailsTx) Kind() string { return "updateDetails" }

func (t *UpdateDetailsTx) SyntacticVerify(cfg Config) error {
	if err := verifyKey(t.Key.String(), cfg); err != nil {
		return err
	}
	return verifyDetails(t.Manufacturer, t.Model, cfg)
}

// DeregisterTx removes a vehicle.
type DeregisterTx struct {
	Key   VehicleKey `serialize:"true" json:"key"`
	Nonce uint64     `serialize:"true" json:"nonce"`
}

func (t *DeregisterTx) Execute(r *Registry) error {
	return r.Deregister(t.Key)
}

func (*DeregisterTx) Kind() string { return "deregister" }

func (t *DeregisterTx) SyntacticVerify(cfg Config) error {
	return verifyKey(t.Key.String(), cfg)
}

// AddIdentifierTx attaches an identifier to a vehicle, registering the
// vehicle if needed.
type AddIdentifierTx struct {
	Vin          string `serialize:"true" json:"vin"`
	Manufacturer string `serialize:"true" json:"manufacturer"`
	Model        string `serialize:"true" json:"model"`
	Identifier   string `serialize:"true" json:"identifier"`
	Nonce        uint64 `serialize:"true" json:"nonce"`
}

func (t *AddIdentifierTx) Execute(r *Registry) error {
	_, err := r.AddIdentifier(t.Vin, t.Manufacturer, t.Model, t.Identifier)
	return err
}

func (*AddIdentifierTx) Kind() string { return "addIdentifier" }

func (t *AddIdentifierTx) SyntacticVerify(cfg Config) error {
	if err := verifyKey(t.Vin, cfg); err != nil {
		return err
	}
	if err := verifyDetails(t.Manufacturer, t.Model, cfg); err != nil {
		return err
	}
	return verifyIdentifiers([]string{t.Identifier}, cfg)
}

func verifyKey(vin string, cfg Config) error {
	if len(vin) == 0 {
		return ErrEmptyVin
	}
	_, err := BindString(vin, cfg.maxKeyLength(), "vin")
	return err
}

func verifyDetails(manufacturer, model string, cfg Config) error {
	if _, err := BindString(manufacturer, cfg.MaxManufacturerLength, "manufacturer"); err != nil {
		return err
	}
	_, err := BindString(model, cfg.MaxModelLength, "model")
	return err
}

func verifyIdentifiers(identifiers []string, cfg Config) error {
	if uint64(len(identifiers)) > uint64(cfg.MaxIdentifiersPerVehicle) {
		return fmt.Errorf("%w: %d > %d", ErrTooManyIdentifiers, len(identifiers), cfg.MaxIdentifiersPerVehicle)
	}
	for _, id := range identifiers {
		if err := verifyIdentifier(id, cfg); err != nil {
			return err
		}
	}
	return nil
}

// txWrapper lets the codec marshal a Tx with its type ID.
type txWrapper struct {
	Tx Tx `serialize:"true"`
}

// TxBytes returns the canonical encoding of [tx].
func TxBytes(tx Tx) ([]byte, error) {
	return Codec.Marshal(CodecVersion, &txWrapper{Tx: tx})
}

// TxID returns the ID of [tx]: the hash of its canonical encoding.
func TxID(tx Tx) (ids.ID, error) {
	b, err := TxBytes(tx)
	if err != nil {
		return ids.Empty, err
	}
	return hashing.ComputeHash256Array(b), nil
}

// ParseTx decodes a Tx produced by TxBytes.
func ParseTx(b []byte) (Tx, error) {
	w := txWrapper{}
	if _, err := Codec.Unmarshal(b, &w); err != nil {
		return nil, err
	}
	return w.Tx, nil
}
