// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

func TestStaticComputeIdentifier(t *testing.T) {
	require := require.New(t)
	ss := CreateStaticService()

	data, err := formatting.EncodeWithChecksum(formatting.Hex, []byte("firmware image"))
	require.NoError(err)
	reply := ComputeIdentifierReply{}
	require.NoError(ss.ComputeIdentifier(nil, &ComputeIdentifierArgs{Data: data, Encoding: formatting.Hex}, &reply))

	c, err := cid.Decode(reply.Identifier)
	require.NoError(err)
	require.EqualValues(1, c.Version())
	require.EqualValues(cid.Raw, c.Type())
	decoded, err := multihash.Decode(c.Hash())
	require.NoError(err)
	require.EqualValues(multihash.SHA2_256, decoded.Code)
	require.Equal(hashing.ComputeHash256([]byte("firmware image")), decoded.Digest)

	// identifiers computed this way fit the default bound
	require.NoError(verifyIdentifier(reply.Identifier, Config{MaxIdentifierLength: DefaultConfig().MaxIdentifierLength, RequireCIDIdentifiers: true}))

	err = ss.ComputeIdentifier(nil, &ComputeIdentifierArgs{Data: "not hex", Encoding: formatting.Hex}, &reply)
	require.Error(err)
}

func TestStaticHashField(t *testing.T) {
	require := require.New(t)
	ss := CreateStaticService()

	reply := HashFieldReply{}
	require.NoError(ss.HashField(nil, &HashFieldArgs{Value: "1HGCM82633A004352"}, &reply))

	digest, err := formatting.Decode(formatting.Hex, reply.Hash)
	require.NoError(err)
	require.Equal(hashing.ComputeHash256([]byte("1HGCM82633A004352")), digest)

	mh, err := multihash.FromB58String(reply.Multihash)
	require.NoError(err)
	decoded, err := multihash.Decode(mh)
	require.NoError(err)
	require.Equal(digest, decoded.Digest)
}

func TestStaticBuildGenesis(t *testing.T) {
	require := require.New(t)
	ss := CreateStaticService()

	reply := BuildGenesisReply{}
	require.NoError(ss.BuildGenesis(nil, &BuildGenesisArgs{
		Config:    Config{MaxVehicles: 2, RequireCIDIdentifiers: true},
		Timestamp: 1700000000,
	}, &reply))

	g, err := ParseGenesis([]byte(reply.Genesis))
	require.NoError(err)
	want := DefaultConfig()
	want.MaxVehicles = 2
	want.RequireCIDIdentifiers = true
	require.Equal(want, g.Config)
	require.EqualValues(1700000000, g.Timestamp)
}
