// (c) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/rpc/v2/json2"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/iotstorevm/iotstorevm"
)

// Client defines iotstorevm client operations.
type Client interface {
	// Register queues the registration of a vehicle
	Register(ctx context.Context, vin, manufacturer, model string, identifiers []string) (ids.ID, error)
	// UpdateIdentifiers queues an identifier set edit
	UpdateIdentifiers(ctx context.Context, key iotstorevm.VehicleKey, add, remove []string) (ids.ID, error)
	// UpdateDetails queues a manufacturer/model correction
	UpdateDetails(ctx context.Context, key iotstorevm.VehicleKey, manufacturer, model string) (ids.ID, error)
	// Deregister queues the removal of a vehicle
	Deregister(ctx context.Context, key iotstorevm.VehicleKey) (ids.ID, error)
	// AddVehicleIdentifier queues attaching an identifier, registering the
	// vehicle if needed
	AddVehicleIdentifier(ctx context.Context, vin, manufacturer, model, identifier string) (ids.ID, error)
	// IssueTx queues an already encoded tx
	IssueTx(ctx context.Context, txBytes []byte) (ids.ID, error)

	// GetVehicle fetches an accepted record
	GetVehicle(ctx context.Context, key iotstorevm.VehicleKey) (*iotstorevm.Vehicle, error)
	// GetVehicleIdentifiers fetches identifiers by manufacturer, model and
	// VIN prefix
	GetVehicleIdentifiers(ctx context.Context, manufacturer, model, vinPrefix string) ([]iotstorevm.IdentifierMatch, error)
	// GetEvents fetches a page of the event log and the next start
	GetEvents(ctx context.Context, start uint64, limit uint32) ([]iotstorevm.Event, uint64, error)
	// GetTxStatus fetches the status of a tx
	GetTxStatus(ctx context.Context, txID ids.ID) (iotstorevm.TxStatus, error)
	// GetBlock fetches a block, the last accepted one if [blockID] is nil
	GetBlock(ctx context.Context, blockID *ids.ID) (*iotstorevm.Block, error)
	// GetConfig fetches the chain limits and the vehicle count
	GetConfig(ctx context.Context) (iotstorevm.Config, uint64, error)

	// ComputeIdentifier asks the static API for the CID of [data]
	ComputeIdentifier(ctx context.Context, data []byte) (string, error)
	// BuildGenesis asks the static API for a genesis document
	BuildGenesis(ctx context.Context, cfg iotstorevm.Config, timestamp int64) ([]byte, error)
}

// New creates a new client object. [uri] is the node's base URI, such as
// http://127.0.0.1:9650.
func New(uri string) Client {
	uri = strings.TrimSuffix(uri, "/")
	return &client{
		endpoint:       uri + "/ext/" + iotstorevm.ServiceName,
		staticEndpoint: uri + "/ext/" + iotstorevm.ServiceName + "/static",
		http:           http.DefaultClient,
	}
}

type client struct {
	endpoint       string
	staticEndpoint string
	http           *http.Client
}

func (cli *client) sendRequest(ctx context.Context, endpoint, method string, args, reply interface{}) error {
	body, err := json2.EncodeClientRequest(iotstorevm.ServiceName+"."+method, args)
	if err != nil {
		return fmt.Errorf("failed to encode client params: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := cli.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to issue request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("received status code: %d", resp.StatusCode)
	}
	if err := json2.DecodeClientResponse(resp.Body, reply); err != nil {
		return fmt.Errorf("failed to decode client response: %w", err)
	}
	return nil
}

func (cli *client) submit(ctx context.Context, method string, args interface{}) (ids.ID, error) {
	resp := new(iotstorevm.TxReply)
	if err := cli.sendRequest(ctx, cli.endpoint, method, args, resp); err != nil {
		return ids.Empty, err
	}
	return resp.TxID, nil
}

func (cli *client) Register(ctx context.Context, vin, manufacturer, model string, identifiers []string) (ids.ID, error) {
	return cli.submit(ctx, "register", &iotstorevm.RegisterArgs{
		Vin:          vin,
		Manufacturer: manufacturer,
		Model:        model,
		Identifiers:  identifiers,
	})
}

func (cli *client) UpdateIdentifiers(ctx context.Context, key iotstorevm.VehicleKey, add, remove []string) (ids.ID, error) {
	return cli.submit(ctx, "updateIdentifiers", &iotstorevm.UpdateIdentifiersArgs{
		Key:    key,
		Add:    add,
		Remove: remove,
	})
}

func (cli *client) UpdateDetails(ctx context.Context, key iotstorevm.VehicleKey, manufacturer, model string) (ids.ID, error) {
	return cli.submit(ctx, "updateDetails", &iotstorevm.UpdateDetailsArgs{
		Key:          key,
		Manufacturer: manufacturer,
		Model:        model,
	})
}

func (cli *client) Deregister(ctx context.Context, key iotstorevm.VehicleKey) (ids.ID, error) {
	return cli.submit(ctx, "deregister", &iotstorevm.KeyArgs{Key: key})
}

func (cli *client) AddVehicleIdentifier(ctx context.Context, vin, manufacturer, model, identifier string) (ids.ID, error) {
	return cli.submit(ctx, "addVehicleIdentifier", &iotstorevm.AddVehicleIdentifierArgs{
		Vin:          vin,
		Manufacturer: manufacturer,
		Model:        model,
		Identifier:   identifier,
	})
}

func (cli *client) IssueTx(ctx context.Context, txBytes []byte) (ids.ID, error) {
	encoded, err := formatting.EncodeWithChecksum(formatting.Hex, txBytes)
	if err != nil {
		return ids.Empty, err
	}
	return cli.submit(ctx, "issueTx", &iotstorevm.IssueTxArgs{
		Tx:       encoded,
		Encoding: formatting.Hex,
	})
}

func (cli *client) GetVehicle(ctx context.Context, key iotstorevm.VehicleKey) (*iotstorevm.Vehicle, error) {
	resp := new(iotstorevm.GetVehicleReply)
	err := cli.sendRequest(ctx, cli.endpoint, "getVehicle", &iotstorevm.KeyArgs{Key: key}, resp)
	if err != nil {
		return nil, err
	}
	return resp.Vehicle, nil
}

func (cli *client) GetVehicleIdentifiers(ctx context.Context, manufacturer, model, vinPrefix string) ([]iotstorevm.IdentifierMatch, error) {
	resp := new(iotstorevm.GetVehicleIdentifiersReply)
	err := cli.sendRequest(ctx, cli.endpoint, "getVehicleIdentifiers", &iotstorevm.GetVehicleIdentifiersArgs{
		Manufacturer: manufacturer,
		Model:        model,
		VinPrefix:    vinPrefix,
	}, resp)
	if err != nil {
		return nil, err
	}
	return resp.Identifiers, nil
}

func (cli *client) GetEvents(ctx context.Context, start uint64, limit uint32) ([]iotstorevm.Event, uint64, error) {
	resp := new(iotstorevm.GetEventsReply)
	err := cli.sendRequest(ctx, cli.endpoint, "getEvents", &iotstorevm.GetEventsArgs{
		Start: json.Uint64(start),
		Limit: json.Uint32(limit),
	}, resp)
	if err != nil {
		return nil, 0, err
	}
	return resp.Events, uint64(resp.Next), nil
}

func (cli *client) GetTxStatus(ctx context.Context, txID ids.ID) (iotstorevm.TxStatus, error) {
	resp := iotstorevm.TxStatus{}
	err := cli.sendRequest(ctx, cli.endpoint, "getTxStatus", &iotstorevm.TxIDArgs{TxID: txID}, &resp)
	return resp, err
}

func (cli *client) GetBlock(ctx context.Context, blockID *ids.ID) (*iotstorevm.Block, error) {
	resp := new(iotstorevm.GetBlockReply)
	err := cli.sendRequest(ctx, cli.endpoint, "getBlock", &iotstorevm.GetBlockArgs{ID: blockID}, resp)
	if err != nil {
		return nil, err
	}
	blkBytes, err := formatting.Decode(resp.Encoding, resp.Bytes)
	if err != nil {
		return nil, err
	}
	blk, err := iotstorevm.ParseBlock(blkBytes)
	if err != nil {
		return nil, err
	}
	if blk.ID() != resp.ID {
		return nil, fmt.Errorf("block bytes hash to %s, expected %s", blk.ID(), resp.ID)
	}
	return blk, nil
}

func (cli *client) GetConfig(ctx context.Context) (iotstorevm.Config, uint64, error) {
	resp := new(iotstorevm.GetConfigReply)
	err := cli.sendRequest(ctx, cli.endpoint, "getConfig", &struct{}{}, resp)
	if err != nil {
		return iotstorevm.Config{}, 0, err
	}
	return resp.Config, uint64(resp.Vehicles), nil
}

func (cli *client) ComputeIdentifier(ctx context.Context, data []byte) (string, error) {
	encoded, err := formatting.EncodeWithChecksum(formatting.Hex, data)
	if err != nil {
		return "", err
	}
	resp := new(iotstorevm.ComputeIdentifierReply)
	err = cli.sendRequest(ctx, cli.staticEndpoint, "computeIdentifier", &iotstorevm.ComputeIdentifierArgs{
		Data:     encoded,
		Encoding: formatting.Hex,
	}, resp)
	return resp.Identifier, err
}

func (cli *client) BuildGenesis(ctx context.Context, cfg iotstorevm.Config, timestamp int64) ([]byte, error) {
	resp := new(iotstorevm.BuildGenesisReply)
	err := cli.sendRequest(ctx, cli.staticEndpoint, "buildGenesis", &iotstorevm.BuildGenesisArgs{
		Config:    cfg,
		Timestamp: timestamp,
	}, resp)
	if err != nil {
		return nil, err
	}
	return []byte(resp.Genesis), nil
}
