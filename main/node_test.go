// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/database/memdb"

	"github.com/ava-labs/iotstorevm/iotstorevm"
)

func TestParamsDBDir(t *testing.T) {
	require := require.New(t)

	p, err := getParams(nil)
	require.NoError(err)
	require.Empty(p.dbDir)

	p, err = getParams([]string{"--db-dir", "/tmp/iotstore"})
	require.NoError(err)
	require.Equal("/tmp/iotstore", p.dbDir)

	t.Setenv("IOTSTORE_DB_DIR", "/var/lib/iotstore")
	p, err = getParams(nil)
	require.NoError(err)
	require.Equal("/var/lib/iotstore", p.dbDir)
}

func TestOpenDBInMemory(t *testing.T) {
	db, err := openDB("")
	require.NoError(t, err)
	require.IsType(t, &memdb.Database{}, db)
	require.NoError(t, db.Close())
}

func TestNodeRestartKeepsChain(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	const vin = "1HGCM82633A004352"

	p := &params{
		dbDir:         t.TempDir(),
		httpHost:      "127.0.0.1",
		buildInterval: time.Second,
	}
	n, err := newNode(p)
	require.NoError(err)

	_, err = n.vm.SubmitTx(&iotstorevm.RegisterTx{
		Vin:          vin,
		Manufacturer: "Honda",
		Model:        "Accord",
		Nonce:        n.vm.NextNonce(),
	})
	require.NoError(err)
	n.buildAndAccept(ctx)
	lastAccepted, err := n.vm.LastAccepted(ctx)
	require.NoError(err)
	require.NoError(n.close(ctx))

	restarted, err := newNode(p)
	require.NoError(err)
	defer func() { require.NoError(restarted.close(ctx)) }()

	restartedLastAccepted, err := restarted.vm.LastAccepted(ctx)
	require.NoError(err)
	require.Equal(lastAccepted, restartedLastAccepted)

	v, err := restarted.vm.GetVehicle(vin)
	require.NoError(err)
	require.Equal("Accord", v.Model)
}
