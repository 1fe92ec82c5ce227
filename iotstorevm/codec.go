// (c) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	// CodecVersion is the current default codec version
	CodecVersion = 0
)

// Codecs do serialization and deserialization
var (
	Codec codec.Manager
)

func init() {
	c := linearcodec.NewDefault()
	Codec = codec.NewDefaultManager()

	errs := wrappers.Errs{}

	// The registration order fixes the type IDs on the wire. Append only.
	errs.Add(
		c.RegisterType(&RegisterTx{}),
		c.RegisterType(&UpdateIdentifiersTx{}),
		c.RegisterType(&UpdateDetailsTx{}),
		c.RegisterType(&DeregisterTx{}),
		c.RegisterType(&AddIdentifierTx{}),
	)

	errs.Add(
		Codec.RegisterCodec(CodecVersion, c),
	)
	if errs.Errored() {
		panic(errs.Err)
	}
}
