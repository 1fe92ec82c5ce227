// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/snow/engine/common"

	"github.com/ava-labs/iotstorevm/iotstorevm"
)

func newTestServer(t *testing.T) (*iotstorevm.VM, Client) {
	t.Helper()
	require := require.New(t)

	vm := &iotstorevm.VM{}
	require.NoError(vm.Initialize(context.Background(), memdb.New(), nil, nil, make(chan common.Message, 1), nil))
	t.Cleanup(func() { _ = vm.Shutdown(context.Background()) })

	handlers, err := vm.CreateHandlers()
	require.NoError(err)
	staticHandlers, err := iotstorevm.CreateStaticHandlers()
	require.NoError(err)

	mux := http.NewServeMux()
	mux.Handle("/ext/iotstore", handlers[""].Handler)
	mux.Handle("/ext/iotstore/static", staticHandlers[""].Handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return vm, New(server.URL)
}

func acceptPending(t *testing.T, vm *iotstorevm.VM) {
	t.Helper()
	require := require.New(t)
	ctx := context.Background()

	blk, err := vm.BuildBlock(ctx)
	require.NoError(err)
	require.NoError(vm.Verify(ctx, blk))
	require.NoError(vm.SetPreference(ctx, blk.ID()))
	require.NoError(vm.Accept(ctx, blk))
}

func TestClient(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	vm, cli := newTestServer(t)

	id, err := cli.ComputeIdentifier(ctx, []byte("firmware image"))
	require.NoError(err)

	registerID, err := cli.Register(ctx, "1HGCM82633A004352", "Honda", "Accord", []string{id})
	require.NoError(err)
	status, err := cli.GetTxStatus(ctx, registerID)
	require.NoError(err)
	require.Equal(iotstorevm.Processing, status.Status)

	_, err = cli.Register(ctx, "", "Honda", "Accord", nil)
	require.Error(err)
	require.Contains(err.Error(), iotstorevm.ErrEmptyVin.Error())

	acceptPending(t, vm)

	status, err = cli.GetTxStatus(ctx, registerID)
	require.NoError(err)
	require.Equal(iotstorevm.Accepted, status.Status)

	v, err := cli.GetVehicle(ctx, "1HGCM82633A004352")
	require.NoError(err)
	require.Equal([]string{id}, v.Identifiers)

	_, err = cli.UpdateIdentifiers(ctx, "1HGCM82633A004352", []string{"obd-1"}, []string{id})
	require.NoError(err)
	_, err = cli.UpdateDetails(ctx, "1HGCM82633A004352", "Honda", "Civic")
	require.NoError(err)
	_, err = cli.AddVehicleIdentifier(ctx, "2HGCM82633A004352", "Honda", "Civic", "gps-1")
	require.NoError(err)
	acceptPending(t, vm)

	matches, err := cli.GetVehicleIdentifiers(ctx, "Honda", "Civic", "")
	require.NoError(err)
	require.Equal([]iotstorevm.IdentifierMatch{
		{Identifier: "obd-1", Key: "1HGCM82633A004352"},
		{Identifier: "gps-1", Key: "2HGCM82633A004352"},
	}, matches)

	events, next, err := cli.GetEvents(ctx, 0, 0)
	require.NoError(err)
	require.Len(events, 4)
	require.EqualValues(4, next)
	require.Equal(iotstorevm.VehicleRegistered, events[3].Kind)

	blk, err := cli.GetBlock(ctx, nil)
	require.NoError(err)
	require.EqualValues(2, blk.Height())
	parent, err := cli.GetBlock(ctx, func() *ids.ID { id := blk.Parent(); return &id }())
	require.NoError(err)
	require.EqualValues(1, parent.Height())

	cfg, count, err := cli.GetConfig(ctx)
	require.NoError(err)
	require.Equal(iotstorevm.DefaultConfig(), cfg)
	require.EqualValues(2, count)

	txBytes, err := iotstorevm.TxBytes(&iotstorevm.DeregisterTx{Key: "2HGCM82633A004352"})
	require.NoError(err)
	_, err = cli.IssueTx(ctx, txBytes)
	require.NoError(err)
	_, err = cli.Deregister(ctx, "1HGCM82633A004352")
	require.NoError(err)
	acceptPending(t, vm)

	_, err = cli.GetVehicle(ctx, "1HGCM82633A004352")
	require.Error(err)
	require.Contains(err.Error(), iotstorevm.ErrNotFound.Error())

	// a deregistered vehicle can be added again with the same fields
	_, err = cli.AddVehicleIdentifier(ctx, "2HGCM82633A004352", "Honda", "Civic", "gps-1")
	require.NoError(err)
	acceptPending(t, vm)
	v, err = cli.GetVehicle(ctx, "2HGCM82633A004352")
	require.NoError(err)
	require.Equal([]string{"gps-1"}, v.Identifiers)

	genesis, err := cli.BuildGenesis(ctx, iotstorevm.Config{MaxVehicles: 5}, 0)
	require.NoError(err)
	g, err := iotstorevm.ParseGenesis(genesis)
	require.NoError(err)
	require.EqualValues(5, g.Config.MaxVehicles)
}
