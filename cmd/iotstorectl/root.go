// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ava-labs/iotstorevm/client"
	"github.com/ava-labs/iotstorevm/iotstorevm"
)

const (
	uriKey     = "uri"
	timeoutKey = "timeout"
)

// newClient is swapped in tests.
var newClient = client.New

var rootCmd = &cobra.Command{
	Use:           "iotstorectl",
	Short:         "Command line client for the iotstorevm vehicle registry",
	Version:       iotstorevm.Version,
	SilenceUsage:  true,
}

func init() {
	viper.SetEnvPrefix("IOTSTORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String(uriKey, "http://127.0.0.1:9650", "base URI of the node")
	rootCmd.PersistentFlags().Duration(timeoutKey, 10*time.Second, "request timeout")
	_ = viper.BindPFlag(uriKey, rootCmd.PersistentFlags().Lookup(uriKey))
	_ = viper.BindPFlag(timeoutKey, rootCmd.PersistentFlags().Lookup(timeoutKey))

	rootCmd.AddCommand(
		registerCmd,
		updateIdentifiersCmd,
		updateDetailsCmd,
		deregisterCmd,
		addIdentifierCmd,
		getCmd,
		identifiersCmd,
		eventsCmd,
		statusCmd,
		blockCmd,
		configCmd,
		computeIdentifierCmd,
		genesisCmd,
	)
}

// withClient runs [f] with a client for the configured node and a request
// context bounded by --timeout.
func withClient(f func(ctx context.Context, cli client.Client) (interface{}, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), viper.GetDuration(timeoutKey))
		defer cancel()

		out, err := f(ctx, newClient(viper.GetString(uriKey)))
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("couldn't format reply: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
