// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"encoding/json"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
)

// EventKind is the type of a registry event.
type EventKind uint8

const (
	VehicleRegistered EventKind = iota + 1
	VehicleUpdated
	VehicleDeregistered
)

func (k EventKind) String() string {
	switch k {
	case VehicleRegistered:
		return "VehicleRegistered"
	case VehicleUpdated:
		return "VehicleUpdated"
	case VehicleDeregistered:
		return "VehicleDeregistered"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

func (k EventKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *EventKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, kind := range []EventKind{VehicleRegistered, VehicleUpdated, VehicleDeregistered} {
		if kind.String() == s {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", s)
}

// Event describes a successful registry transition.
//
// Height and TxID are zero when the event comes straight from a Registry;
// the VM fills them in when the event is appended to the event log.
type Event struct {
	Kind         EventKind  `serialize:"true" json:"kind"`
	Key          VehicleKey `serialize:"true" json:"key"`
	Manufacturer string     `serialize:"true" json:"manufacturer,omitempty"`
	Model        string     `serialize:"true" json:"model,omitempty"`
	Added        []string   `serialize:"true" json:"added,omitempty"`
	Removed      []string   `serialize:"true" json:"removed,omitempty"`

	Height uint64 `serialize:"true" json:"height"`
	TxID   ids.ID `serialize:"true" json:"txID"`
}

// EventSink receives events after the transition producing them committed.
type EventSink interface {
	Emit(Event)
}

// EventSinkFunc adapts a function to an EventSink.
type EventSinkFunc func(Event)

func (f EventSinkFunc) Emit(e Event) { f(e) }

// EventRecorder buffers emitted events in order.
type EventRecorder struct {
	Events []Event
}

func (r *EventRecorder) Emit(e Event) { r.Events = append(r.Events, e) }

// Reset drops all buffered events.
func (r *EventRecorder) Reset() { r.Events = nil }

type noopSink struct{}

func (noopSink) Emit(Event) {}
