// (c) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/json"
)

const (
	defaultEventsLimit = 100
	maxEventsLimit     = 1024
)

var (
	errCannotGetLastAccepted = errors.New("cannot get last accepted block")
	errNoTx                  = errors.New("no tx given")
)

// Service is the API service for this VM
type Service struct{ vm *VM }

// TxReply is the reply of every method that queues a tx.
type TxReply struct {
	TxID ids.ID `json:"txID"`
}

// RegisterArgs are the arguments to Register
type RegisterArgs struct {
	Vin          string   `json:"vin"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	Identifiers  []string `json:"identifiers"`
}

// Register queues a RegisterTx.
func (s *Service) Register(_ *http.Request, args *RegisterArgs, reply *TxReply) error {
	return s.submit(&RegisterTx{
		Vin:          args.Vin,
		Manufacturer: args.Manufacturer,
		Model:        args.Model,
		Identifiers:  args.Identifiers,
		Nonce:        s.vm.NextNonce(),
	}, reply)
}

// UpdateIdentifiersArgs are the arguments to UpdateIdentifiers
type UpdateIdentifiersArgs struct {
	Key    VehicleKey `json:"key"`
	Add    []string   `json:"add"`
	Remove []string   `json:"remove"`
}

// UpdateIdentifiers queues an UpdateIdentifiersTx.
func (s *Service) UpdateIdentifiers(_ *http.Request, args *UpdateIdentifiersArgs, reply *TxReply) error {
	return s.submit(&UpdateIdentifiersTx{
		Key:    args.Key,
		Add:    args.Add,
		Remove: args.Remove,
		Nonce:  s.vm.NextNonce(),
	}, reply)
}

// UpdateDetailsArgs are the arguments to UpdateDetails
type UpdateDetailsArgs struct {
	Key          VehicleKey `json:"key"`
	Manufacturer string     `json:"manufacturer"`
	Model        string     `json:"model"`
}

// UpdateDetails queues an UpdateDetailsTx.
func (s *Service) UpdateDetails(_ *http.Request, args *UpdateDetailsArgs, reply *TxReply) error {
	return s.submit(&UpdateDetailsTx{
		Key:          args.Key,
		Manufacturer: args.Manufacturer,
		Model:        args.Model,
		Nonce:        s.vm.NextNonce(),
	}, reply)
}

// KeyArgs is an API request where the only argument is a vehicle key
type KeyArgs struct {
	Key VehicleKey `json:"key"`
}

// Deregister queues a DeregisterTx.
func (s *Service) Deregister(_ *http.Request, args *KeyArgs, reply *TxReply) error {
	return s.submit(&DeregisterTx{Key: args.Key, Nonce: s.vm.NextNonce()}, reply)
}

// AddVehicleIdentifierArgs are the arguments to AddVehicleIdentifier
type AddVehicleIdentifierArgs struct {
	Vin          string `json:"vin"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Identifier   string `json:"identifier"`
}

// AddVehicleIdentifier queues an AddIdentifierTx.
func (s *Service) AddVehicleIdentifier(_ *http.Request, args *AddVehicleIdentifierArgs, reply *TxReply) error {
	return s.submit(&AddIdentifierTx{
		Vin:          args.Vin,
		Manufacturer: args.Manufacturer,
		Model:        args.Model,
		Identifier:   args.Identifier,
		Nonce:        s.vm.NextNonce(),
	}, reply)
}

// IssueTxArgs are the arguments to IssueTx
type IssueTxArgs struct {
	Tx       string              `json:"tx"`
	Encoding formatting.Encoding `json:"encoding"`
}

// IssueTx queues a tx given in its canonical encoding.
func (s *Service) IssueTx(_ *http.Request, args *IssueTxArgs, reply *TxReply) error {
	if len(args.Tx) == 0 {
		return errNoTx
	}
	txBytes, err := formatting.Decode(args.Encoding, args.Tx)
	if err != nil {
		return fmt.Errorf("problem decoding tx: %w", err)
	}
	tx, err := ParseTx(txBytes)
	if err != nil {
		return fmt.Errorf("problem parsing tx: %w", err)
	}
	return s.submit(tx, reply)
}

func (s *Service) submit(tx Tx, reply *TxReply) error {
	txID, err := s.vm.SubmitTx(tx)
	if err != nil {
		return err
	}
	reply.TxID = txID
	return nil
}

// GetVehicleReply is the reply from GetVehicle
type GetVehicleReply struct {
	Vehicle *Vehicle `json:"vehicle"`
}

// GetVehicle returns the accepted record at [args.Key].
func (s *Service) GetVehicle(_ *http.Request, args *KeyArgs, reply *GetVehicleReply) error {
	v, err := s.vm.GetVehicle(args.Key)
	if err != nil {
		return err
	}
	reply.Vehicle = v
	return nil
}

// GetVehicleIdentifiersArgs are the arguments to GetVehicleIdentifiers
type GetVehicleIdentifiersArgs struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	VinPrefix    string `json:"vinPrefix"`
}

// GetVehicleIdentifiersReply is the reply from GetVehicleIdentifiers
type GetVehicleIdentifiersReply struct {
	Identifiers []IdentifierMatch `json:"identifiers"`
}

// GetVehicleIdentifiers returns the identifiers of the accepted vehicles
// matching [args].
func (s *Service) GetVehicleIdentifiers(_ *http.Request, args *GetVehicleIdentifiersArgs, reply *GetVehicleIdentifiersReply) error {
	matches, err := s.vm.VehicleIdentifiers(args.Manufacturer, args.Model, args.VinPrefix)
	if err != nil {
		return err
	}
	reply.Identifiers = matches
	return nil
}

// GetEventsArgs are the arguments to GetEvents
type GetEventsArgs struct {
	Start json.Uint64 `json:"start"`
	// Defaults to 100, capped at 1024
	Limit json.Uint32 `json:"limit"`
}

// GetEventsReply is the reply from GetEvents
type GetEventsReply struct {
	Events []Event     `json:"events"`
	Next   json.Uint64 `json:"next"`
	Total  json.Uint64 `json:"total"`
}

// GetEvents pages through the accepted event log.
func (s *Service) GetEvents(_ *http.Request, args *GetEventsArgs, reply *GetEventsReply) error {
	limit := int(args.Limit)
	switch {
	case limit == 0:
		limit = defaultEventsLimit
	case limit > maxEventsLimit:
		limit = maxEventsLimit
	}

	events, total, err := s.vm.GetEvents(uint64(args.Start), limit)
	if err != nil {
		return err
	}
	reply.Events = events
	reply.Next = args.Start + json.Uint64(len(events))
	reply.Total = json.Uint64(total)
	return nil
}

// TxIDArgs is an API request where the only argument is a tx ID
type TxIDArgs struct {
	TxID ids.ID `json:"txID"`
}

// GetTxStatus returns the status of [args.TxID].
func (s *Service) GetTxStatus(_ *http.Request, args *TxIDArgs, reply *TxStatus) error {
	status, err := s.vm.GetTxStatus(args.TxID)
	if err != nil {
		return err
	}
	*reply = status
	return nil
}

// GetBlockArgs are the arguments to GetBlock
type GetBlockArgs struct {
	// ID of the block we're getting.
	// If left blank, gets the latest block
	ID *ids.ID `json:"id"`
}

// GetBlockReply is the reply from GetBlock
type GetBlockReply struct {
	ID        ids.ID              `json:"id"`        // String repr. of ID of block
	ParentID  ids.ID              `json:"parentID"`  // String repr. of ID of block's parent
	Height    json.Uint64         `json:"height"`    // Height of block
	Timestamp json.Uint64         `json:"timestamp"` // Timestamp of block
	TxIDs     []ids.ID            `json:"txIDs"`     // IDs of the block's txs, in order
	Bytes     string              `json:"bytes"`     // Encoded block
	Encoding  formatting.Encoding `json:"encoding"`
}

// GetBlock gets the block whose ID is [args.ID]
// If [args.ID] is empty, get the latest block
func (s *Service) GetBlock(_ *http.Request, args *GetBlockArgs, reply *GetBlockReply) error {
	var (
		id  ids.ID
		err error
	)
	if args.ID == nil {
		id, err = s.vm.LastAccepted(context.Background())
		if err != nil {
			return errCannotGetLastAccepted
		}
	} else {
		id = *args.ID
	}

	blk, err := s.vm.GetBlock(context.Background(), id)
	if err != nil {
		return err
	}
	txIDs, err := blk.TxIDs()
	if err != nil {
		return err
	}

	reply.ID = blk.ID()
	reply.ParentID = blk.Parent()
	reply.Height = json.Uint64(blk.Height())
	reply.Timestamp = json.Uint64(blk.Tmstmp)
	reply.TxIDs = txIDs
	reply.Encoding = formatting.Hex
	reply.Bytes, err = formatting.EncodeWithChecksum(formatting.Hex, blk.Bytes())
	return err
}

// GetConfigReply is the reply from GetConfig
type GetConfigReply struct {
	Config   Config      `json:"config"`
	Vehicles json.Uint64 `json:"vehicles"`
}

// GetConfig returns the chain's limits and the number of accepted vehicles.
func (s *Service) GetConfig(_ *http.Request, _ *struct{}, reply *GetConfigReply) error {
	count, err := s.vm.VehicleCount()
	if err != nil {
		return err
	}
	reply.Config = s.vm.Config()
	reply.Vehicles = json.Uint64(count)
	return nil
}
