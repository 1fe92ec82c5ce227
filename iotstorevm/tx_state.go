// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
)

const (
	txStatusCacheSize = 4096
)

var (
	errTxStatusWrongVersion = errors.New("wrong tx status codec version")

	_ TxState = &txState{}
)

// Status of a submitted transaction.
type Status uint8

const (
	Unknown Status = iota
	Processing
	Accepted
	Dropped
)

func (s Status) String() string {
	switch s {
	case Processing:
		return "Processing"
	case Accepted:
		return "Accepted"
	case Dropped:
		return "Dropped"
	default:
		return "Unknown"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	for _, status := range []Status{Unknown, Processing, Accepted, Dropped} {
		if status.String() == str {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown tx status %q", str)
}

// TxStatus records the outcome of a transaction.
type TxStatus struct {
	Status  Status `serialize:"true" json:"status"`
	BlockID ids.ID `serialize:"true" json:"blockID"`
	Height  uint64 `serialize:"true" json:"height"`
	Error   string `serialize:"true" json:"error,omitempty"`
}

// TxState indexes the status of accepted transactions.
type TxState interface {
	GetTxStatus(txID ids.ID) (TxStatus, error)
	PutTxStatus(txID ids.ID, status TxStatus) error
}

type txState struct {
	statusCache cache.Cacher
	txDB        database.Database
}

func NewTxState(db database.Database) TxState {
	return &txState{
		statusCache: &cache.LRU{Size: txStatusCacheSize},
		txDB:        db,
	}
}

func (s *txState) GetTxStatus(txID ids.ID) (TxStatus, error) {
	if status, ok := s.statusCache.Get(txID); ok {
		return status.(TxStatus), nil
	}
	statusBytes, err := s.txDB.Get(txID[:])
	if err != nil {
		return TxStatus{}, err
	}
	status := TxStatus{}
	parsedVersion, err := Codec.Unmarshal(statusBytes, &status)
	if err != nil {
		return TxStatus{}, err
	}
	if parsedVersion != CodecVersion {
		return TxStatus{}, errTxStatusWrongVersion
	}
	s.statusCache.Put(txID, status)
	return status, nil
}

func (s *txState) PutTxStatus(txID ids.ID, status TxStatus) error {
	statusBytes, err := Codec.Marshal(CodecVersion, &status)
	if err != nil {
		return err
	}
	if err := s.txDB.Put(txID[:], statusBytes); err != nil {
		return err
	}
	s.statusCache.Put(txID, status)
	return nil
}
