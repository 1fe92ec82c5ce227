// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var errBadGenesisBytes = errors.New("couldn't parse genesis")

// Genesis fixes the chain's limits and its first block's timestamp.
// It is read from YAML; JSON documents parse as well.
type Genesis struct {
	Config    Config `yaml:"config" json:"config"`
	Timestamp int64  `yaml:"timestamp" json:"timestamp"`
}

// DefaultGenesis returns a genesis with DefaultConfig limits.
func DefaultGenesis() *Genesis {
	return &Genesis{Config: DefaultConfig()}
}

// ParseGenesis parses [b]. Limits missing from [b] keep their defaults.
// Empty input yields DefaultGenesis.
func ParseGenesis(b []byte) (*Genesis, error) {
	g := DefaultGenesis()
	if err := yaml.Unmarshal(b, g); err != nil {
		return nil, fmt.Errorf("%w: %s", errBadGenesisBytes, err)
	}
	if err := g.Config.Verify(); err != nil {
		return nil, fmt.Errorf("%w: %s", errBadGenesisBytes, err)
	}
	return g, nil
}

// Bytes returns the YAML encoding of [g].
func (g *Genesis) Bytes() ([]byte, error) {
	return yaml.Marshal(g)
}
