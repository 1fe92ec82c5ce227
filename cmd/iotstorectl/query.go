// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/iotstorevm/client"
	"github.com/ava-labs/iotstorevm/iotstorevm"
)

var (
	vinPrefix   string
	eventsStart uint64
	eventsLimit uint32
	dataFile    string
	genesisTime int64
)

var getCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Show an accepted vehicle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, cli client.Client) (interface{}, error) {
			return cli.GetVehicle(ctx, iotstorevm.VehicleKey(args[0]))
		})(cmd, args)
	},
}

var identifiersCmd = &cobra.Command{
	Use:   "identifiers",
	Short: "List identifiers by manufacturer, model and VIN prefix",
	Args:  cobra.NoArgs,
	RunE: withClient(func(ctx context.Context, cli client.Client) (interface{}, error) {
		return cli.GetVehicleIdentifiers(ctx, manufacturer, model, vinPrefix)
	}),
}

type eventsResult struct {
	Events []iotstorevm.Event `json:"events"`
	Next   uint64             `json:"next"`
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Page through the accepted event log",
	Args:  cobra.NoArgs,
	RunE: withClient(func(ctx context.Context, cli client.Client) (interface{}, error) {
		events, next, err := cli.GetEvents(ctx, eventsStart, eventsLimit)
		if err != nil {
			return nil, err
		}
		return eventsResult{Events: events, Next: next}, nil
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status TXID",
	Short: "Show the status of a tx",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		txID, err := ids.FromString(args[0])
		if err != nil {
			return fmt.Errorf("invalid tx ID %q: %w", args[0], err)
		}
		return withClient(func(ctx context.Context, cli client.Client) (interface{}, error) {
			return cli.GetTxStatus(ctx, txID)
		})(cmd, args)
	},
}

type blockResult struct {
	ID        ids.ID   `json:"id"`
	ParentID  ids.ID   `json:"parentID"`
	Height    uint64   `json:"height"`
	Timestamp string   `json:"timestamp"`
	TxIDs     []ids.ID `json:"txIDs"`
}

var blockCmd = &cobra.Command{
	Use:   "block [BLOCKID]",
	Short: "Show a block, the last accepted one by default",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var blkID *ids.ID
		if len(args) == 1 {
			id, err := ids.FromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid block ID %q: %w", args[0], err)
			}
			blkID = &id
		}
		return withClient(func(ctx context.Context, cli client.Client) (interface{}, error) {
			blk, err := cli.GetBlock(ctx, blkID)
			if err != nil {
				return nil, err
			}
			txIDs, err := blk.TxIDs()
			if err != nil {
				return nil, err
			}
			return blockResult{
				ID:        blk.ID(),
				ParentID:  blk.Parent(),
				Height:    blk.Height(),
				Timestamp: blk.Timestamp().UTC().Format(time.RFC3339),
				TxIDs:     txIDs,
			}, nil
		})(cmd, args)
	},
}

type configResult struct {
	Config   iotstorevm.Config `json:"config"`
	Vehicles uint64            `json:"vehicles"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the chain limits and the number of vehicles",
	Args:  cobra.NoArgs,
	RunE: withClient(func(ctx context.Context, cli client.Client) (interface{}, error) {
		cfg, count, err := cli.GetConfig(ctx)
		if err != nil {
			return nil, err
		}
		return configResult{Config: cfg, Vehicles: count}, nil
	}),
}

type identifierResult struct {
	Identifier string `json:"identifier"`
}

var computeIdentifierCmd = &cobra.Command{
	Use:   "compute-identifier",
	Short: "Compute the CID identifier of a file",
	Args:  cobra.NoArgs,
	RunE: withClient(func(ctx context.Context, cli client.Client) (interface{}, error) {
		data, err := os.ReadFile(dataFile)
		if err != nil {
			return nil, err
		}
		id, err := cli.ComputeIdentifier(ctx, data)
		if err != nil {
			return nil, err
		}
		return identifierResult{Identifier: id}, nil
	}),
}

var genesisCmd = &cobra.Command{
	Use:   "genesis",
	Short: "Print a genesis document with default limits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g := iotstorevm.DefaultGenesis()
		g.Timestamp = genesisTime
		b, err := g.Bytes()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

func init() {
	identifiersCmd.Flags().StringVar(&manufacturer, "manufacturer", "", "manufacturer")
	identifiersCmd.Flags().StringVar(&model, "model", "", "model")
	identifiersCmd.Flags().StringVar(&vinPrefix, "vin-prefix", "", "VIN prefix")

	eventsCmd.Flags().Uint64Var(&eventsStart, "start", 0, "sequence number of the first event")
	eventsCmd.Flags().Uint32Var(&eventsLimit, "limit", 0, "maximum number of events, 0 for the server default")

	computeIdentifierCmd.Flags().StringVarP(&dataFile, "file", "f", "", "file to compute the identifier of")
	_ = computeIdentifierCmd.MarkFlagRequired("file")

	genesisCmd.Flags().Int64Var(&genesisTime, "timestamp", 0, "unix timestamp of the genesis block")
}
