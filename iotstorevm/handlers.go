// (c) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"github.com/gorilla/rpc/v2"

	"github.com/ava-labs/avalanchego/snow/engine/common"
	cjson "github.com/ava-labs/avalanchego/utils/json"
)

// ServiceName is the JSON-RPC namespace of both services.
const ServiceName = "iotstore"

func newServer(service interface{}) (*rpc.Server, error) {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	return server, server.RegisterService(service, ServiceName)
}

// CreateHandlers returns a map where:
// Keys: The path extension for this VM's API (empty in this case)
// Values: The handler for the API
func (vm *VM) CreateHandlers() (map[string]*common.HTTPHandler, error) {
	server, err := newServer(&Service{vm: vm})
	if err != nil {
		return nil, err
	}
	return map[string]*common.HTTPHandler{
		"": {LockOptions: common.NoLock, Handler: server},
	}, nil
}

// CreateStaticHandlers returns a map where:
// Keys: The path extension for this VM's static API
// Values: The handler for that static API
func CreateStaticHandlers() (map[string]*common.HTTPHandler, error) {
	server, err := newServer(CreateStaticService())
	if err != nil {
		return nil, err
	}
	return map[string]*common.HTTPHandler{
		"": {LockOptions: common.NoLock, Handler: server},
	}, nil
}
