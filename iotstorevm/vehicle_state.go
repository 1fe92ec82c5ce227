// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	vehicleCacheSize = 8192
)

var (
	ErrNotFound         = errors.New("vehicle not found")
	ErrKeyExists        = errors.New("vehicle key already exists")
	ErrCapacityExceeded = errors.New("vehicle capacity exceeded")

	errVehicleWrongVersion = errors.New("wrong vehicle codec version")

	recordPrefix = []byte("record")
	metaPrefix   = []byte("meta")
	countKey     = []byte("count")

	_ VehicleState = &vehicleState{}
)

// VehicleState is the vehicle record store. Every mutation is applied to a
// fresh versiondb layer and committed only if it fully succeeds.
type VehicleState interface {
	GetVehicle(key VehicleKey) (*Vehicle, error)
	HasVehicle(key VehicleKey) (bool, error)
	VehicleCount() (uint64, error)

	PutNewVehicle(key VehicleKey, v *Vehicle) error
	UpdateVehicle(key VehicleKey, mutate func(*Vehicle) error) (*Vehicle, error)
	DeleteVehicle(key VehicleKey) (*Vehicle, error)

	// IterateVINPrefix calls [f] for every record whose key starts with
	// [prefix], in key order. Iteration stops at the first error.
	IterateVINPrefix(prefix []byte, f func(*Vehicle) error) error

	EvictVehicle(key VehicleKey)
	ClearCache()
}

type vehicleState struct {
	cfg Config
	db  database.Database

	// nil when uncached
	vehicleCache cache.Cacher
	records      database.Database
	meta         database.Database
}

// NewVehicleState returns an uncached store on [db]. Use this for
// short-lived views such as a block being verified.
//
// Sub-stores are always nested: prefixdb.New would merge them into a
// prefixdb [db] and lay keys out differently than a versiondb over it.
func NewVehicleState(db database.Database, cfg Config) VehicleState {
	return &vehicleState{
		cfg:     cfg,
		db:      db,
		records: prefixdb.NewNested(recordPrefix, db),
		meta:    prefixdb.NewNested(metaPrefix, db),
	}
}

// NewCachedVehicleState returns a store on [db] that keeps recently read
// records in an LRU.
func NewCachedVehicleState(db database.Database, cfg Config) VehicleState {
	s := NewVehicleState(db, cfg).(*vehicleState)
	s.vehicleCache = &cache.LRU{Size: vehicleCacheSize}
	return s
}

func (s *vehicleState) GetVehicle(key VehicleKey) (*Vehicle, error) {
	if s.vehicleCache != nil {
		if v, ok := s.vehicleCache.Get(key); ok {
			if v == nil {
				return nil, ErrNotFound
			}
			return v.(*Vehicle).Copy(), nil
		}
	}

	v, err := getVehicle(s.records, key)
	switch {
	case errors.Is(err, ErrNotFound):
		if s.vehicleCache != nil {
			s.vehicleCache.Put(key, nil)
		}
		return nil, err
	case err != nil:
		return nil, err
	}

	if s.vehicleCache != nil {
		s.vehicleCache.Put(key, v.Copy())
	}
	return v, nil
}

func (s *vehicleState) HasVehicle(key VehicleKey) (bool, error) {
	_, err := s.GetVehicle(key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *vehicleState) VehicleCount() (uint64, error) {
	return getCount(s.meta)
}

func (s *vehicleState) PutNewVehicle(key VehicleKey, v *Vehicle) error {
	if v.Key() != key {
		return errKeyMismatch
	}
	if err := v.Verify(s.cfg); err != nil {
		return err
	}

	vdb := versiondb.New(s.db)
	defer vdb.Abort()
	records := prefixdb.NewNested(recordPrefix, vdb)
	meta := prefixdb.NewNested(metaPrefix, vdb)

	if has, err := records.Has(key.Bytes()); err != nil {
		return err
	} else if has {
		return fmt.Errorf("%w: %s", ErrKeyExists, key)
	}
	count, err := getCount(meta)
	if err != nil {
		return err
	}
	if count >= uint64(s.cfg.MaxVehicles) {
		return fmt.Errorf("%w: %d/%d", ErrCapacityExceeded, count, s.cfg.MaxVehicles)
	}

	if err := putVehicle(records, v); err != nil {
		return err
	}
	if err := putCount(meta, count+1); err != nil {
		return err
	}
	if err := vdb.Commit(); err != nil {
		return err
	}
	s.EvictVehicle(key)
	return nil
}

func (s *vehicleState) UpdateVehicle(key VehicleKey, mutate func(*Vehicle) error) (*Vehicle, error) {
	vdb := versiondb.New(s.db)
	defer vdb.Abort()
	records := prefixdb.NewNested(recordPrefix, vdb)

	current, err := getVehicle(records, key)
	if err != nil {
		return nil, err
	}
	updated := current.Copy()
	if err := mutate(updated); err != nil {
		return nil, err
	}
	if updated.Key() != key {
		return nil, errKeyMismatch
	}
	if err := updated.Verify(s.cfg); err != nil {
		return nil, err
	}

	if err := putVehicle(records, updated); err != nil {
		return nil, err
	}
	if err := vdb.Commit(); err != nil {
		return nil, err
	}
	s.EvictVehicle(key)
	return updated.Copy(), nil
}

func (s *vehicleState) DeleteVehicle(key VehicleKey) (*Vehicle, error) {
	vdb := versiondb.New(s.db)
	defer vdb.Abort()
	records := prefixdb.NewNested(recordPrefix, vdb)
	meta := prefixdb.NewNested(metaPrefix, vdb)

	prior, err := getVehicle(records, key)
	if err != nil {
		return nil, err
	}
	count, err := getCount(meta)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("vehicle count underflow removing %s", key)
	}

	if err := records.Delete(key.Bytes()); err != nil {
		return nil, err
	}
	if err := putCount(meta, count-1); err != nil {
		return nil, err
	}
	if err := vdb.Commit(); err != nil {
		return nil, err
	}
	s.EvictVehicle(key)
	return prior, nil
}

func (s *vehicleState) IterateVINPrefix(prefix []byte, f func(*Vehicle) error) error {
	it := s.records.NewIteratorWithPrefix(prefix)
	defer it.Release()

	for it.Next() {
		v, err := parseVehicle(it.Value())
		if err != nil {
			return fmt.Errorf("failed to parse vehicle %q: %w", it.Key(), err)
		}
		if err := f(v); err != nil {
			return err
		}
	}
	return it.Error()
}

func (s *vehicleState) EvictVehicle(key VehicleKey) {
	if s.vehicleCache != nil {
		s.vehicleCache.Evict(key)
	}
}

func (s *vehicleState) ClearCache() {
	if s.vehicleCache != nil {
		s.vehicleCache.Flush()
	}
}

func getVehicle(db database.KeyValueReader, key VehicleKey) (*Vehicle, error) {
	vehicleBytes, err := db.Get(key.Bytes())
	switch {
	case err == database.ErrNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	case err != nil:
		return nil, err
	}
	return parseVehicle(vehicleBytes)
}

func parseVehicle(b []byte) (*Vehicle, error) {
	v := &Vehicle{}
	parsedVersion, err := Codec.Unmarshal(b, v)
	if err != nil {
		return nil, err
	}
	if parsedVersion != CodecVersion {
		return nil, errVehicleWrongVersion
	}
	return v, nil
}

func putVehicle(db database.KeyValueWriter, v *Vehicle) error {
	vehicleBytes, err := Codec.Marshal(CodecVersion, v)
	if err != nil {
		return err
	}
	return db.Put(v.Key().Bytes(), vehicleBytes)
}

func getCount(db database.KeyValueReader) (uint64, error) {
	countBytes, err := db.Get(countKey)
	switch {
	case err == database.ErrNotFound:
		return 0, nil
	case err != nil:
		return 0, err
	case len(countBytes) != wrappers.LongLen:
		return 0, fmt.Errorf("malformed vehicle count of length %d", len(countBytes))
	}
	return binary.BigEndian.Uint64(countBytes), nil
}

func putCount(db database.KeyValueWriter, count uint64) error {
	countBytes := make([]byte, wrappers.LongLen)
	binary.BigEndian.PutUint64(countBytes, count)
	return db.Put(countKey, countBytes)
}
