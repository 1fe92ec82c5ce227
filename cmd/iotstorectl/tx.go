// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/iotstorevm/client"
	"github.com/ava-labs/iotstorevm/iotstorevm"
)

var (
	vin          string
	manufacturer string
	model        string
	identifiers  []string
	removeIDs    []string
	identifier   string
)

type txResult struct {
	TxID ids.ID `json:"txID"`
}

func txResultOf(txID ids.ID, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return txResult{TxID: txID}, nil
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a vehicle",
	Long: `Queue the registration of a vehicle keyed by its VIN.

Examples:
  iotstorectl register --vin 1HGCM82633A004352 --manufacturer Honda --model Accord
  iotstorectl register --vin 1HGCM82633A004352 --manufacturer Honda --model Accord -i sensor-1 -i sensor-2`,
	Args: cobra.NoArgs,
	RunE: withClient(func(ctx context.Context, cli client.Client) (interface{}, error) {
		return txResultOf(cli.Register(ctx, vin, manufacturer, model, identifiers))
	}),
}

var updateIdentifiersCmd = &cobra.Command{
	Use:   "update-identifiers KEY",
	Short: "Add and remove identifiers of a vehicle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, cli client.Client) (interface{}, error) {
			return txResultOf(cli.UpdateIdentifiers(ctx, iotstorevm.VehicleKey(args[0]), identifiers, removeIDs))
		})(cmd, args)
	},
}

var updateDetailsCmd = &cobra.Command{
	Use:   "update-details KEY",
	Short: "Correct the manufacturer and model of a vehicle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, cli client.Client) (interface{}, error) {
			return txResultOf(cli.UpdateDetails(ctx, iotstorevm.VehicleKey(args[0]), manufacturer, model))
		})(cmd, args)
	},
}

var deregisterCmd = &cobra.Command{
	Use:   "deregister KEY",
	Short: "Remove a vehicle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, cli client.Client) (interface{}, error) {
			return txResultOf(cli.Deregister(ctx, iotstorevm.VehicleKey(args[0])))
		})(cmd, args)
	},
}

var addIdentifierCmd = &cobra.Command{
	Use:   "add-identifier",
	Short: "Attach an identifier to a vehicle, registering it if needed",
	Args:  cobra.NoArgs,
	RunE: withClient(func(ctx context.Context, cli client.Client) (interface{}, error) {
		return txResultOf(cli.AddVehicleIdentifier(ctx, vin, manufacturer, model, identifier))
	}),
}

func init() {
	registerCmd.Flags().StringVar(&vin, "vin", "", "vehicle identification number")
	registerCmd.Flags().StringVar(&manufacturer, "manufacturer", "", "manufacturer")
	registerCmd.Flags().StringVar(&model, "model", "", "model")
	registerCmd.Flags().StringSliceVarP(&identifiers, "identifier", "i", nil, "identifier (repeatable)")
	_ = registerCmd.MarkFlagRequired("vin")

	updateIdentifiersCmd.Flags().StringSliceVarP(&identifiers, "add", "a", nil, "identifier to add (repeatable)")
	updateIdentifiersCmd.Flags().StringSliceVarP(&removeIDs, "remove", "r", nil, "identifier to remove (repeatable)")

	updateDetailsCmd.Flags().StringVar(&manufacturer, "manufacturer", "", "manufacturer")
	updateDetailsCmd.Flags().StringVar(&model, "model", "", "model")

	addIdentifierCmd.Flags().StringVar(&vin, "vin", "", "vehicle identification number")
	addIdentifierCmd.Flags().StringVar(&manufacturer, "manufacturer", "", "manufacturer")
	addIdentifierCmd.Flags().StringVar(&model, "model", "", "model")
	addIdentifierCmd.Flags().StringVar(&identifier, "identifier", "", "identifier to attach")
	_ = addIdentifierCmd.MarkFlagRequired("vin")
	_ = addIdentifierCmd.MarkFlagRequired("identifier")
}
