// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/iotstorevm/client"
	"github.com/ava-labs/iotstorevm/iotstorevm"
)

type fakeClient struct {
	client.Client

	uri        string
	registered []string
}

func (f *fakeClient) Register(_ context.Context, vin, manufacturer, model string, identifiers []string) (ids.ID, error) {
	f.registered = append(f.registered, vin, manufacturer, model)
	f.registered = append(f.registered, identifiers...)
	return ids.ID{1}, nil
}

func (f *fakeClient) GetVehicle(_ context.Context, key iotstorevm.VehicleKey) (*iotstorevm.Vehicle, error) {
	if key != "1HGCM82633A004352" {
		return nil, iotstorevm.ErrNotFound
	}
	return &iotstorevm.Vehicle{Vin: key.String(), Manufacturer: "Honda", Model: "Accord"}, nil
}

func execute(t *testing.T, fake *fakeClient, args ...string) (string, error) {
	t.Helper()

	newClient = func(uri string) client.Client {
		fake.uri = uri
		return fake
	}
	t.Cleanup(func() { newClient = client.New })

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRegisterCommand(t *testing.T) {
	require := require.New(t)
	fake := &fakeClient{}

	out, err := execute(t, fake,
		"register",
		"--uri", "http://node:9650",
		"--vin", "1HGCM82633A004352",
		"--manufacturer", "Honda",
		"--model", "Accord",
		"-i", "obd-1", "-i", "gps-1",
	)
	require.NoError(err)
	require.Equal("http://node:9650", fake.uri)
	require.Equal([]string{"1HGCM82633A004352", "Honda", "Accord", "obd-1", "gps-1"}, fake.registered)

	reply := txResult{}
	require.NoError(json.Unmarshal([]byte(out), &reply))
	require.Equal(ids.ID{1}, reply.TxID)
}

func TestGetCommand(t *testing.T) {
	require := require.New(t)

	out, err := execute(t, &fakeClient{}, "get", "1HGCM82633A004352")
	require.NoError(err)
	v := iotstorevm.Vehicle{}
	require.NoError(json.Unmarshal([]byte(out), &v))
	require.Equal("Accord", v.Model)

	_, err = execute(t, &fakeClient{}, "get", "missing")
	require.ErrorIs(err, iotstorevm.ErrNotFound)

	_, err = execute(t, &fakeClient{}, "get")
	require.Error(err)
}

func TestGenesisCommand(t *testing.T) {
	require := require.New(t)

	out, err := execute(t, &fakeClient{}, "genesis", "--timestamp", "1700000000")
	require.NoError(err)
	g, err := iotstorevm.ParseGenesis([]byte(out))
	require.NoError(err)
	require.EqualValues(1700000000, g.Timestamp)
	require.Equal(iotstorevm.DefaultConfig(), g.Config)
}
