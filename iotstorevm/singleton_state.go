// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"errors"

	"github.com/ava-labs/avalanchego/database"
)

const (
	IsInitializedKey byte = iota
	ConfigKey
)

var (
	isInitializedKey = []byte{IsInitializedKey}
	configKey        = []byte{ConfigKey}

	errConfigWrongVersion = errors.New("wrong config codec version")

	_ SingletonState = &singletonState{}
)

// SingletonState is a thin wrapper around a database to provide, caching,
// serialization, and de-serialization of the initialization status and of
// the limits fixed at genesis.
type SingletonState interface {
	IsInitialized() (bool, error)
	SetInitialized() error

	GetConfig() (Config, error)
	PutConfig(Config) error
}

type singletonState struct {
	singletonDB database.Database
}

func NewSingletonState(db database.Database) SingletonState {
	return &singletonState{
		singletonDB: db,
	}
}

func (s *singletonState) IsInitialized() (bool, error) {
	return s.singletonDB.Has(isInitializedKey)
}

func (s *singletonState) SetInitialized() error {
	return s.singletonDB.Put(isInitializedKey, nil)
}

func (s *singletonState) GetConfig() (Config, error) {
	configBytes, err := s.singletonDB.Get(configKey)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{}
	parsedVersion, err := Codec.Unmarshal(configBytes, &cfg)
	if err != nil {
		return Config{}, err
	}
	if parsedVersion != CodecVersion {
		return Config{}, errConfigWrongVersion
	}
	return cfg, nil
}

func (s *singletonState) PutConfig(cfg Config) error {
	configBytes, err := Codec.Marshal(CodecVersion, &cfg)
	if err != nil {
		return err
	}
	return s.singletonDB.Put(configKey, configBytes)
}
