// (c) 2021-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"encoding/binary"
	"fmt"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	blockCacheSize = 8192
)

var (
	blockIndexPrefix  = []byte("block")
	heightIndexPrefix = []byte("height")
	lastAcceptedKey   = []byte("lastAccepted")

	_ BlockState = &blockState{}
)

// BlockState stores accepted blocks by ID and by height.
type BlockState interface {
	GetBlock(blkID ids.ID) (*Block, error)
	PutBlock(blk *Block) error
	GetBlockIDAtHeight(height uint64) (ids.ID, error)

	GetLastAccepted() (ids.ID, error)
	SetLastAccepted(ids.ID) error

	ClearCache()
}

type blockState struct {
	blkCache    cache.Cacher
	blockDB     database.Database
	heightIndex database.Database
	metaDB      database.Database
}

func NewBlockState(db database.Database) BlockState {
	return &blockState{
		blkCache:    &cache.LRU{Size: blockCacheSize},
		blockDB:     prefixdb.New(blockIndexPrefix, db),
		heightIndex: prefixdb.New(heightIndexPrefix, db),
		metaDB:      db,
	}
}

func (s *blockState) GetBlock(blkID ids.ID) (*Block, error) {
	if blkIntf, ok := s.blkCache.Get(blkID); ok {
		if blkIntf == nil {
			return nil, database.ErrNotFound
		}
		return blkIntf.(*Block), nil
	}

	blkBytes, err := s.blockDB.Get(blkID[:])
	if err == database.ErrNotFound {
		s.blkCache.Put(blkID, nil)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	blk, err := ParseBlock(blkBytes)
	if err != nil {
		return nil, err
	}

	s.blkCache.Put(blkID, blk)
	return blk, nil
}

func (s *blockState) PutBlock(blk *Block) error {
	blkID := blk.ID()
	if err := s.blockDB.Put(blkID[:], blk.Bytes()); err != nil {
		return fmt.Errorf("failed to put block %s into block index: %w", blkID, err)
	}
	if err := s.heightIndex.Put(heightKey(blk.Height()), blkID[:]); err != nil {
		return fmt.Errorf("failed to put block %s into height index: %w", blkID, err)
	}
	s.blkCache.Put(blkID, blk)
	return nil
}

func (s *blockState) GetBlockIDAtHeight(height uint64) (ids.ID, error) {
	blkIDBytes, err := s.heightIndex.Get(heightKey(height))
	switch {
	case err == database.ErrNotFound:
		return ids.ID{}, err
	case err != nil:
		return ids.ID{}, fmt.Errorf("failed to get height index at %d: %w", height, err)
	}
	blkID, err := ids.ToID(blkIDBytes)
	if err != nil {
		return ids.ID{}, fmt.Errorf("failed to parse blkIDBytes at height %d: %w", height, err)
	}
	return blkID, nil
}

func (s *blockState) GetLastAccepted() (ids.ID, error) {
	blkIDBytes, err := s.metaDB.Get(lastAcceptedKey)
	if err != nil {
		return ids.ID{}, err
	}
	return ids.ToID(blkIDBytes)
}

func (s *blockState) SetLastAccepted(blkID ids.ID) error {
	return s.metaDB.Put(lastAcceptedKey, blkID[:])
}

func (s *blockState) ClearCache() {
	s.blkCache.Flush()
}

func heightKey(height uint64) []byte {
	heightBytes := make([]byte, wrappers.LongLen)
	binary.BigEndian.PutUint64(heightBytes, height)
	return heightBytes
}
