// (c) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"errors"
	"time"

	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

var errBlockWrongVersion = errors.New("wrong block codec version")

// Block is a block on the chain.
// Each block contains:
// 1) The transitions it applies to the registry, in order
// 2) A timestamp
type Block struct {
	PrntID ids.ID `serialize:"true" json:"parentID"`  // parent's ID
	Hght   uint64 `serialize:"true" json:"height"`    // This block's height. The genesis block is at height 0.
	Tmstmp int64  `serialize:"true" json:"timestamp"` // Time this block was proposed at
	Txs    []Tx   `serialize:"true" json:"txs"`       // Transitions to apply

	id    ids.ID // hold this block's ID
	bytes []byte // this block's encoded bytes

	// Populated by Verify. [onAccept] holds the registry writes of this
	// block, layered on the accepted registry or on [parent]'s writes when
	// [parent] was still processing.
	parent   *Block
	onAccept *versiondb.Database
	events   []Event
}

// ID returns the ID of this block
func (b *Block) ID() ids.ID { return b.id }

// Parent returns [b]'s parent's ID
func (b *Block) Parent() ids.ID { return b.PrntID }

// Height returns this block's height. The genesis block has height 0.
func (b *Block) Height() uint64 { return b.Hght }

// Timestamp returns this block's time. The genesis block has time 0.
func (b *Block) Timestamp() time.Time { return time.Unix(b.Tmstmp, 0) }

// Bytes returns the byte repr. of this block
func (b *Block) Bytes() []byte { return b.bytes }

// TxIDs returns the IDs of the block's transactions in order.
func (b *Block) TxIDs() ([]ids.ID, error) {
	txIDs := make([]ids.ID, len(b.Txs))
	for i, tx := range b.Txs {
		txID, err := TxID(tx)
		if err != nil {
			return nil, err
		}
		txIDs[i] = txID
	}
	return txIDs, nil
}

// newBlock encodes a block and fills in its ID.
func newBlock(parentID ids.ID, height uint64, timestamp int64, txs []Tx) (*Block, error) {
	blk := &Block{
		PrntID: parentID,
		Hght:   height,
		Tmstmp: timestamp,
		Txs:    txs,
	}
	bytes, err := Codec.Marshal(CodecVersion, blk)
	if err != nil {
		return nil, err
	}
	blk.bytes = bytes
	blk.id = hashing.ComputeHash256Array(bytes)
	return blk, nil
}

// ParseBlock parses [b] to a Block
func ParseBlock(b []byte) (*Block, error) {
	blk := &Block{}
	parsedVersion, err := Codec.Unmarshal(b, blk)
	if err != nil {
		return nil, err
	}
	if parsedVersion != CodecVersion {
		return nil, errBlockWrongVersion
	}
	blk.bytes = b
	blk.id = hashing.ComputeHash256Array(b)
	return blk, nil
}
