// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
)

func newTestRegistry(cfg Config) (*Registry, database.Database, *EventRecorder) {
	db := memdb.New()
	events := &EventRecorder{}
	return NewRegistry(cfg, NewCachedVehicleState(db, cfg), events), db, events
}

func TestRegistryCapacityExample(t *testing.T) {
	require := require.New(t)
	r, db, events := newTestRegistry(testConfig())

	key, err := r.Register("1HGCM82633A004352", "Honda", "Accord", nil)
	require.NoError(err)
	require.Equal(VehicleKey("1HGCM82633A004352"), key)

	_, err = r.Register("2HGCM82633A004352", "Honda", "Accord", nil)
	require.NoError(err)
	count, err := r.Count()
	require.NoError(err)
	require.EqualValues(2, count)

	before := dumpDB(t, db)
	events.Reset()
	_, err = r.Register("3HGCM82633A004352", "Honda", "Accord", nil)
	require.ErrorIs(err, ErrRegistryFull)
	require.Equal(before, dumpDB(t, db))
	require.Empty(events.Events)
}

func TestRegistryRegister(t *testing.T) {
	require := require.New(t)
	r, _, events := newTestRegistry(testConfig())

	key, err := r.Register("1HGCM82633A004352", "Honda", "Accord", []string{"obd-1", "gps-1", "obd-1"})
	require.NoError(err)

	v, err := r.Get(key)
	require.NoError(err)
	require.Equal(&Vehicle{
		Vin:          "1HGCM82633A004352",
		Manufacturer: "Honda",
		Model:        "Accord",
		Identifiers:  []string{"obd-1", "gps-1"},
	}, v)

	require.Equal([]Event{{
		Kind:         VehicleRegistered,
		Key:          key,
		Manufacturer: "Honda",
		Model:        "Accord",
		Added:        []string{"obd-1", "gps-1"},
	}}, events.Events)
}

func TestRegistryRegisterDuplicateVin(t *testing.T) {
	require := require.New(t)
	r, db, events := newTestRegistry(testConfig())

	_, err := r.Register("1HGCM82633A004352", "Honda", "Accord", nil)
	require.NoError(err)
	before := dumpDB(t, db)
	events.Reset()

	_, err = r.Register("1HGCM82633A004352", "Toyota", "Camry", nil)
	require.ErrorIs(err, ErrDuplicateVin)
	require.Equal(before, dumpDB(t, db))
	require.Empty(events.Events)

	count, err := r.Count()
	require.NoError(err)
	require.EqualValues(1, count)
}

func TestRegistryRegisterRejectsInvalidInput(t *testing.T) {
	long := func(n int) string { return strings.Repeat("x", n) }
	tests := []struct {
		name         string
		vin          string
		manufacturer string
		model        string
		identifiers  []string
		wantErr      error
	}{
		{name: "empty vin", vin: "", wantErr: ErrEmptyVin},
		{name: "vin over max", vin: long(18), wantErr: ErrTooLong},
		{name: "manufacturer over max", vin: "V", manufacturer: long(17), wantErr: ErrTooLong},
		{name: "model over max", vin: "V", model: long(17), wantErr: ErrTooLong},
		{name: "identifier over max", vin: "V", identifiers: []string{long(9)}, wantErr: ErrTooLong},
		{name: "too many identifiers", vin: "V", identifiers: []string{"a", "b", "c", "d"}, wantErr: ErrTooManyIdentifiers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			r, db, events := newTestRegistry(testConfig())

			_, err := r.Register(tt.vin, tt.manufacturer, tt.model, tt.identifiers)
			require.ErrorIs(err, tt.wantErr)
			require.Empty(dumpDB(t, db))
			require.Empty(events.Events)
		})
	}
}

func TestRegistryVINPrefixBoundsKey(t *testing.T) {
	require := require.New(t)
	cfg := testConfig()
	cfg.VINPrefix = 11
	r, _, _ := newTestRegistry(cfg)

	_, err := r.Register("1HGCM82633A004352", "Honda", "Accord", nil)
	require.ErrorIs(err, ErrTooLong)

	_, err = r.Register("1HGCM82633A", "Honda", "Accord", nil)
	require.NoError(err)
}

func TestRegistryUpdateIdentifiers(t *testing.T) {
	require := require.New(t)
	r, db, events := newTestRegistry(testConfig())

	key, err := r.Register("1HGCM82633A004352", "Honda", "Accord", []string{"a", "b"})
	require.NoError(err)
	events.Reset()

	// removals apply before additions
	require.NoError(r.UpdateIdentifiers(key, []string{"b", "c"}, []string{"b", "missing"}))
	v, err := r.Get(key)
	require.NoError(err)
	require.Equal([]string{"a", "b", "c"}, v.Identifiers)
	require.Equal([]Event{{
		Kind:    VehicleUpdated,
		Key:     key,
		Added:   []string{"b", "c"},
		Removed: []string{"b"},
	}}, events.Events)

	before := dumpDB(t, db)
	events.Reset()

	err = r.UpdateIdentifiers(key, []string{"toolong-id"}, []string{"a"})
	require.ErrorIs(err, ErrTooLong)
	err = r.UpdateIdentifiers(key, []string{"d"}, nil)
	require.ErrorIs(err, ErrTooManyIdentifiers)
	err = r.UpdateIdentifiers("2HGCM82633A004352", []string{"d"}, nil)
	require.ErrorIs(err, ErrNotFound)
	err = r.UpdateIdentifiers(VehicleKey(strings.Repeat("x", 18)), nil, nil)
	require.ErrorIs(err, ErrTooLong)

	require.Equal(before, dumpDB(t, db))
	require.Empty(events.Events)
}

func TestRegistryUpdateDetails(t *testing.T) {
	require := require.New(t)
	r, _, events := newTestRegistry(testConfig())

	key, err := r.Register("1HGCM82633A004352", "Honda", "Accord", nil)
	require.NoError(err)
	events.Reset()

	require.NoError(r.UpdateDetails(key, "Honda", "Civic"))
	v, err := r.Get(key)
	require.NoError(err)
	require.Equal("Civic", v.Model)
	require.Len(events.Events, 1)
	require.Equal(VehicleUpdated, events.Events[0].Kind)

	err = r.UpdateDetails(key, "Honda", strings.Repeat("x", 17))
	require.ErrorIs(err, ErrTooLong)
	err = r.UpdateDetails("missing", "Honda", "Civic")
	require.ErrorIs(err, ErrNotFound)
}

func TestRegistryRoundTripLeavesNoTrace(t *testing.T) {
	require := require.New(t)
	r, db, events := newTestRegistry(testConfig())
	empty := dumpDB(t, db)

	key, err := r.Register("1HGCM82633A004352", "Honda", "Accord", []string{"a"})
	require.NoError(err)
	require.NoError(r.UpdateIdentifiers(key, []string{"b"}, []string{"a"}))
	require.NoError(r.Deregister(key))

	_, err = r.Get(key)
	require.ErrorIs(err, ErrNotFound)
	count, err := r.Count()
	require.NoError(err)
	require.Zero(count)

	// only the record counter remains, back at zero
	after := dumpDB(t, db)
	for k := range empty {
		delete(after, k)
	}
	require.Len(after, 1)

	kinds := []EventKind{}
	for _, e := range events.Events {
		kinds = append(kinds, e.Kind)
	}
	require.Equal([]EventKind{VehicleRegistered, VehicleUpdated, VehicleDeregistered}, kinds)
	require.Equal([]string{"b"}, events.Events[2].Removed)

	err = r.Deregister(key)
	require.ErrorIs(err, ErrNotFound)
}

func TestRegistryAddIdentifier(t *testing.T) {
	require := require.New(t)
	r, _, events := newTestRegistry(testConfig())

	key, err := r.AddIdentifier("1HGCM82633A004352", "Honda", "Accord", "a")
	require.NoError(err)
	require.Equal(VehicleRegistered, events.Events[0].Kind)

	_, err = r.AddIdentifier("1HGCM82633A004352", "Honda", "Accord", "b")
	require.NoError(err)
	require.Equal(VehicleUpdated, events.Events[1].Kind)

	v, err := r.Get(key)
	require.NoError(err)
	require.Equal([]string{"a", "b"}, v.Identifiers)

	_, err = r.AddIdentifier("1HGCM82633A004352", "Toyota", "Accord", "c")
	require.ErrorIs(err, ErrDetailsMismatch)
	require.Len(events.Events, 2)
}

func TestRegistryVehicleIdentifiers(t *testing.T) {
	require := require.New(t)
	cfg := testConfig()
	cfg.MaxVehicles = 10
	r, _, _ := newTestRegistry(cfg)

	_, err := r.Register("1HGCM1", "Honda", "Accord", []string{"a", "b"})
	require.NoError(err)
	_, err = r.Register("1HGCM2", "Honda", "Accord", []string{"c"})
	require.NoError(err)
	_, err = r.Register("1HGCM3", "Honda", "Civic", []string{"d"})
	require.NoError(err)
	_, err = r.Register("1HGCM4", "Honda", "Accord", nil)
	require.NoError(err)

	matches, err := r.VehicleIdentifiers("Honda", "Accord", "1HGCM")
	require.NoError(err)
	require.Equal([]IdentifierMatch{
		{Identifier: "a", Key: "1HGCM1"},
		{Identifier: "b", Key: "1HGCM1"},
		{Identifier: "c", Key: "1HGCM2"},
	}, matches)

	_, err = r.VehicleIdentifiers("Honda", "Accord", "2")
	require.ErrorIs(err, ErrVinPrefixNotFound)
	_, err = r.VehicleIdentifiers("Honda", "Accord", "1HGCM4")
	require.ErrorIs(err, ErrNoIdentifiersFound)
	_, err = r.VehicleIdentifiers("Honda", "Accord", strings.Repeat("1", 18))
	require.ErrorIs(err, ErrTooLong)
}

func TestRegistryRequireCIDIdentifiers(t *testing.T) {
	require := require.New(t)
	cfg := testConfig()
	cfg.MaxIdentifierLength = 64
	cfg.RequireCIDIdentifiers = true
	r, _, _ := newTestRegistry(cfg)

	id, err := ComputeIdentifier([]byte("firmware image"))
	require.NoError(err)

	_, err = r.Register("1HGCM82633A004352", "Honda", "Accord", []string{"not-a-cid"})
	require.ErrorIs(err, ErrInvalidIdentifier)
	_, err = r.Register("1HGCM82633A004352", "Honda", "Accord", []string{id})
	require.NoError(err)
}

// Every successful register grows the registry by one and reads back the
// submitted record, every failed one leaves the store untouched.
func TestRegistryRegisterProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := testConfig()
		cfg.MaxVehicles = rapid.Uint32Range(1, 8).Draw(t, "maxVehicles")
		r, db, _ := newTestRegistry(cfg)

		registered := map[string]bool{}
		n := rapid.IntRange(1, 16).Draw(t, "n")
		for i := 0; i < n; i++ {
			vin := rapid.StringMatching(`[A-Z0-9]{1,20}`).Draw(t, fmt.Sprintf("vin%d", i))
			ids := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z]{1,8}`), 0, 3, rapid.ID[string]).Draw(t, fmt.Sprintf("ids%d", i))

			before, err := r.Count()
			if err != nil {
				t.Fatal(err)
			}
			snapshot := dumpDBRapid(t, db)

			key, err := r.Register(vin, "Honda", "Accord", ids)
			if err != nil {
				after, _ := r.Count()
				if after != before {
					t.Fatalf("failed register changed count %d -> %d", before, after)
				}
				if !mapsEqual(snapshot, dumpDBRapid(t, db)) {
					t.Fatalf("failed register (%s) changed the store", err)
				}
				switch {
				case len(vin) > 17, registered[vin], before == uint64(cfg.MaxVehicles):
				default:
					t.Fatalf("unexpected register failure: %s", err)
				}
				continue
			}

			registered[vin] = true
			after, _ := r.Count()
			if after != before+1 {
				t.Fatalf("count %d -> %d after register", before, after)
			}
			v, err := r.Get(key)
			if err != nil {
				t.Fatal(err)
			}
			if v.Vin != vin || len(v.Identifiers) != len(ids) {
				t.Fatalf("read back %+v for vin %q ids %v", v, vin, ids)
			}
		}
	})
}

func dumpDBRapid(t *rapid.T, db database.Database) map[string]string {
	it := db.NewIterator()
	defer it.Release()

	kvs := map[string]string{}
	for it.Next() {
		kvs[string(it.Key())] = string(it.Value())
	}
	if err := it.Error(); err != nil {
		t.Fatal(err)
	}
	return kvs
}

func mapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func TestRegistrySinkSeesOnlyCommittedTransitions(t *testing.T) {
	require := require.New(t)
	cfg := testConfig()
	db := memdb.New()
	vehicles := NewVehicleState(db, cfg)

	var counts []uint64
	r := NewRegistry(cfg, vehicles, EventSinkFunc(func(Event) {
		count, err := vehicles.VehicleCount()
		require.NoError(err)
		counts = append(counts, count)
	}))

	_, err := r.Register("1HGCM82633A004352", "Honda", "Accord", nil)
	require.NoError(err)
	_, err = r.Register("1HGCM82633A004352", "Honda", "Accord", nil)
	require.ErrorIs(err, ErrDuplicateVin)
	require.NoError(r.Deregister("1HGCM82633A004352"))

	require.Equal([]uint64{1, 0}, counts)
}
