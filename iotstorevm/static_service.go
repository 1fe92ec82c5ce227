// (c) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"fmt"
	"net/http"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

// StaticService defines the base service for the vehicle registry vm. Its
// methods don't touch chain state.
type StaticService struct{}

// CreateStaticService ...
func CreateStaticService() *StaticService {
	return &StaticService{}
}

// ComputeIdentifierArgs are arguments for ComputeIdentifier
type ComputeIdentifierArgs struct {
	Data     string              `json:"data"`
	Encoding formatting.Encoding `json:"encoding"`
}

// ComputeIdentifierReply is the reply from ComputeIdentifier
type ComputeIdentifierReply struct {
	Identifier string `json:"identifier"`
}

// ComputeIdentifier returns the CIDv1 (raw codec, sha2-256) of the decoded
// [args.Data]. The result fits the default identifier bound.
func (ss *StaticService) ComputeIdentifier(_ *http.Request, args *ComputeIdentifierArgs, reply *ComputeIdentifierReply) error {
	data, err := formatting.Decode(args.Encoding, args.Data)
	if err != nil {
		return fmt.Errorf("couldn't decode data: %w", err)
	}
	id, err := ComputeIdentifier(data)
	if err != nil {
		return err
	}
	reply.Identifier = id
	return nil
}

// ComputeIdentifier returns the CIDv1 string of [data].
func ComputeIdentifier(data []byte) (string, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("couldn't hash data: %w", err)
	}
	return cid.NewCidV1(cid.Raw, mh).String(), nil
}

// HashFieldArgs are arguments for HashField
type HashFieldArgs struct {
	Value string `json:"value"`
}

// HashFieldReply is the reply from HashField
type HashFieldReply struct {
	Hash      string `json:"hash"`
	Multihash string `json:"multihash"`
}

// HashField returns the sha256 of [args.Value], hex encoded and as a base58
// multihash.
func (ss *StaticService) HashField(_ *http.Request, args *HashFieldArgs, reply *HashFieldReply) error {
	digest := hashing.ComputeHash256([]byte(args.Value))
	hash, err := formatting.EncodeWithChecksum(formatting.Hex, digest)
	if err != nil {
		return err
	}
	mh, err := multihash.Encode(digest, multihash.SHA2_256)
	if err != nil {
		return err
	}
	reply.Hash = hash
	reply.Multihash = multihash.Multihash(mh).B58String()
	return nil
}

// BuildGenesisArgs are arguments for BuildGenesis. Zero limits take their
// default value.
type BuildGenesisArgs struct {
	Config    Config `json:"config"`
	Timestamp int64  `json:"timestamp"`
}

// BuildGenesisReply is the reply from BuildGenesis
type BuildGenesisReply struct {
	Genesis string `json:"genesis"`
}

// BuildGenesis returns the YAML genesis for [args].
func (ss *StaticService) BuildGenesis(_ *http.Request, args *BuildGenesisArgs, reply *BuildGenesisReply) error {
	g := &Genesis{
		Config:    withDefaults(args.Config),
		Timestamp: args.Timestamp,
	}
	if err := g.Config.Verify(); err != nil {
		return err
	}
	b, err := g.Bytes()
	if err != nil {
		return err
	}
	reply.Genesis = string(b)
	return nil
}

func withDefaults(c Config) Config {
	d := DefaultConfig()
	fill := func(v *uint32, def uint32) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&c.MaxVinLength, d.MaxVinLength)
	fill(&c.MaxManufacturerLength, d.MaxManufacturerLength)
	fill(&c.MaxModelLength, d.MaxModelLength)
	fill(&c.MaxIdentifierLength, d.MaxIdentifierLength)
	fill(&c.MaxVehicles, d.MaxVehicles)
	fill(&c.VINPrefix, d.VINPrefix)
	fill(&c.MaxIdentifiersPerVehicle, d.MaxIdentifiersPerVehicle)
	return c
}
