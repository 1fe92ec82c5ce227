// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iotstorevm

import (
	"errors"
	"fmt"
)

// ErrTooLong is returned when a value exceeds its configured bound.
var ErrTooLong = errors.New("value exceeds maximum length")

// Bounded is a value whose length has been checked against a limit.
// The zero value is the empty string.
type Bounded struct {
	value string
}

// Bind returns [raw] as a Bounded value iff len(raw) <= maxLen.
// [field] is only used to annotate the error.
func Bind(raw []byte, maxLen uint32, field string) (Bounded, error) {
	return BindString(string(raw), maxLen, field)
}

// BindString is Bind for strings.
func BindString(raw string, maxLen uint32, field string) (Bounded, error) {
	if uint64(len(raw)) > uint64(maxLen) {
		return Bounded{}, fmt.Errorf("%w: %s is %d bytes, max %d", ErrTooLong, field, len(raw), maxLen)
	}
	return Bounded{value: raw}, nil
}

// BindAll binds every element of [raw] and returns them as an ordered set:
// duplicates after the first occurrence are dropped.
func BindAll(raw []string, maxLen uint32, field string) ([]Bounded, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]Bounded, 0, len(raw))
	for _, r := range raw {
		b, err := BindString(r, maxLen, field)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, b)
	}
	return out, nil
}

func (b Bounded) String() string { return b.value }
func (b Bounded) Bytes() []byte  { return []byte(b.value) }
func (b Bounded) Len() int       { return len(b.value) }
func (b Bounded) IsEmpty() bool  { return len(b.value) == 0 }

func boundedStrings(bs []Bounded) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.value
	}
	return out
}
