// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBindBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		maxLen  uint32
		wantErr bool
	}{
		{name: "empty", raw: "", maxLen: 4},
		{name: "under", raw: "abc", maxLen: 4},
		{name: "exact", raw: "abcd", maxLen: 4},
		{name: "over by one", raw: "abcde", maxLen: 4, wantErr: true},
		{name: "multibyte counts bytes", raw: "ééé", maxLen: 5, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			b, err := BindString(tt.raw, tt.maxLen, "field")
			if tt.wantErr {
				require.ErrorIs(err, ErrTooLong)
				require.Contains(err.Error(), "field")
				require.True(b.IsEmpty())
				return
			}
			require.NoError(err)
			require.Equal(tt.raw, b.String())
			require.Equal([]byte(tt.raw), b.Bytes())
			require.Equal(len(tt.raw), b.Len())
		})
	}
}

func TestBindZeroValue(t *testing.T) {
	require := require.New(t)

	var b Bounded
	require.True(b.IsEmpty())
	require.Equal("", b.String())
	require.Zero(b.Len())
}

func TestBindAllDeduplicates(t *testing.T) {
	require := require.New(t)

	bs, err := BindAll([]string{"b", "a", "b", "c", "a"}, 1, "identifier")
	require.NoError(err)
	require.Equal([]string{"b", "a", "c"}, boundedStrings(bs))

	_, err = BindAll([]string{"a", "toolong"}, 1, "identifier")
	require.ErrorIs(err, ErrTooLong)
}

func TestBindProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		maxLen := rapid.Uint32Range(0, 64).Draw(t, "maxLen")
		raw := rapid.StringN(0, 96, -1).Draw(t, "raw")

		b, err := Bind([]byte(raw), maxLen, "value")
		if uint64(len(raw)) <= uint64(maxLen) {
			if err != nil {
				t.Fatalf("unexpected error binding %d bytes with max %d: %s", len(raw), maxLen, err)
			}
			if b.String() != raw {
				t.Fatalf("bound value %q != %q", b.String(), raw)
			}
			return
		}
		if !errors.Is(err, ErrTooLong) {
			t.Fatalf("expected ErrTooLong binding %d bytes with max %d, got %v", len(raw), maxLen, err)
		}
	})
}

func TestBindAllProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.SliceOf(rapid.StringMatching(`[a-c]{1,2}`)).Draw(t, "raw")

		bs, err := BindAll(raw, 2, "identifier")
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		seen := map[string]bool{}
		for _, b := range bs {
			if seen[b.String()] {
				t.Fatalf("duplicate %q in %v", b.String(), boundedStrings(bs))
			}
			seen[b.String()] = true
		}
		for _, r := range raw {
			if !seen[r] {
				t.Fatalf("%q missing from %v", r, boundedStrings(bs))
			}
		}
		if len(raw) > 0 && bs[0].String() != raw[0] {
			t.Fatalf("first element %q != %q", bs[0].String(), raw[0])
		}
	})
}
