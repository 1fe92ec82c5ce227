// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
)

var (
	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	singletonStatePrefix = []byte("singleton")
	blockStatePrefix     = []byte("block")
	eventStatePrefix     = []byte("event")
	txStatePrefix        = []byte("tx")
	vehicleStatePrefix   = []byte("vehicle")

	_ State = &state{}
)

// State is a wrapper around SingletonState, BlockState, EventState and
// TxState. It also exposes the accepted vehicle registry database and a few
// methods needed for managing database commits and close.
type State interface {
	SingletonState
	BlockState
	EventState
	TxState

	// VehicleDB is the accepted registry database. Blocks under
	// verification layer their writes on top of it.
	VehicleDB() database.Database
	// Vehicles is a cached view of the accepted registry.
	Vehicles() VehicleState

	Commit() error
	Abort()
	Close() error
}

type state struct {
	SingletonState
	BlockState
	EventState
	TxState

	vehicleDB database.Database
	vehicles  VehicleState

	baseDB *versiondb.Database
}

// NewState opens the state stored in [db]. [cfg] bounds the accepted
// vehicle view and must be the config fixed at genesis.
func NewState(db database.Database, cfg Config) State {
	// create a new baseDB
	baseDB := versiondb.New(db)

	vehicleDB := prefixdb.New(vehicleStatePrefix, baseDB)

	// return state with created sub state components
	return &state{
		SingletonState: NewSingletonState(prefixdb.New(singletonStatePrefix, baseDB)),
		BlockState:     NewBlockState(prefixdb.New(blockStatePrefix, baseDB)),
		EventState:     NewEventState(prefixdb.New(eventStatePrefix, baseDB)),
		TxState:        NewTxState(prefixdb.New(txStatePrefix, baseDB)),
		vehicleDB:      vehicleDB,
		vehicles:       NewCachedVehicleState(vehicleDB, cfg),
		baseDB:         baseDB,
	}
}

func (s *state) VehicleDB() database.Database { return s.vehicleDB }

func (s *state) Vehicles() VehicleState { return s.vehicles }

// Commit commits pending operations to baseDB
func (s *state) Commit() error {
	return s.baseDB.Commit()
}

// Abort drops pending operations that weren't committed
func (s *state) Abort() {
	s.baseDB.Abort()
}

// Close closes the underlying base database
func (s *state) Close() error {
	return s.baseDB.Close()
}
