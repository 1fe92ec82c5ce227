// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

var (
	eventLogPrefix = []byte("log")
	nextEventKey   = []byte("next")

	errEventWrongVersion = errors.New("wrong event codec version")

	_ EventState = &eventState{}
)

// EventState is the append-only event log. Events are stored under their
// big-endian sequence number so iteration returns them in order.
type EventState interface {
	AppendEvent(Event) (uint64, error)
	// GetEvents returns at most [limit] events starting at sequence [start].
	GetEvents(start uint64, limit int) ([]Event, error)
	EventCount() (uint64, error)
}

type eventState struct {
	logDB  database.Database
	metaDB database.Database
}

func NewEventState(db database.Database) EventState {
	return &eventState{
		logDB:  prefixdb.New(eventLogPrefix, db),
		metaDB: db,
	}
}

func (s *eventState) AppendEvent(e Event) (uint64, error) {
	seq, err := s.EventCount()
	if err != nil {
		return 0, err
	}
	eventBytes, err := Codec.Marshal(CodecVersion, &e)
	if err != nil {
		return 0, err
	}
	if err := s.logDB.Put(seqKey(seq), eventBytes); err != nil {
		return 0, fmt.Errorf("failed to append event %d: %w", seq, err)
	}
	if err := s.metaDB.Put(nextEventKey, seqKey(seq+1)); err != nil {
		return 0, err
	}
	return seq, nil
}

func (s *eventState) GetEvents(start uint64, limit int) ([]Event, error) {
	it := s.logDB.NewIteratorWithStart(seqKey(start))
	defer it.Release()

	events := []Event{}
	for len(events) < limit && it.Next() {
		e := Event{}
		parsedVersion, err := Codec.Unmarshal(it.Value(), &e)
		if err != nil {
			return nil, err
		}
		if parsedVersion != CodecVersion {
			return nil, errEventWrongVersion
		}
		events = append(events, e)
	}
	return events, it.Error()
}

func (s *eventState) EventCount() (uint64, error) {
	nextBytes, err := s.metaDB.Get(nextEventKey)
	switch {
	case err == database.ErrNotFound:
		return 0, nil
	case err != nil:
		return 0, err
	case len(nextBytes) != wrappers.LongLen:
		return 0, fmt.Errorf("malformed event sequence of length %d", len(nextBytes))
	}
	return binary.BigEndian.Uint64(nextBytes), nil
}

func seqKey(seq uint64) []byte {
	b := make([]byte, wrappers.LongLen)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
