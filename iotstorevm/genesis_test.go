// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseGenesis(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    func() *Genesis
		wantErr bool
	}{
		{
			name:  "empty uses defaults",
			input: "",
			want:  DefaultGenesis,
		},
		{
			name: "partial override",
			input: `
config:
  maxVehicles: 2
  maxVinLength: 17
timestamp: 1700000000
`,
			want: func() *Genesis {
				g := DefaultGenesis()
				g.Config.MaxVehicles = 2
				g.Config.MaxVinLength = 17
				g.Timestamp = 1700000000
				return g
			},
		},
		{
			name:  "json is yaml",
			input: `{"config": {"requireCIDIdentifiers": true}}`,
			want: func() *Genesis {
				g := DefaultGenesis()
				g.Config.RequireCIDIdentifiers = true
				return g
			},
		},
		{
			name:    "zero limit",
			input:   "config:\n  maxVehicles: 0\n",
			wantErr: true,
		},
		{
			name:    "malformed",
			input:   "config: [",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			g, err := ParseGenesis([]byte(tt.input))
			if tt.wantErr {
				require.ErrorIs(err, errBadGenesisBytes)
				return
			}
			require.NoError(err)
			require.Equal(tt.want(), g)
		})
	}
}

func TestGenesisBytesRoundTrip(t *testing.T) {
	require := require.New(t)

	g := DefaultGenesis()
	g.Config.MaxVehicles = 7
	g.Timestamp = 42
	b, err := g.Bytes()
	require.NoError(err)

	parsed, err := ParseGenesis(b)
	require.NoError(err)
	require.Equal(g, parsed)
}

func TestConfigMaxKeyLength(t *testing.T) {
	require := require.New(t)

	cfg := DefaultConfig()
	cfg.MaxVinLength = 17
	cfg.VINPrefix = 32
	require.EqualValues(17, cfg.maxKeyLength())

	cfg.VINPrefix = 11
	require.EqualValues(11, cfg.maxKeyLength())
}
