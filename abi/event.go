package abi

import (
	"fmt"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/desktable/aioweb3/ethtypes"
)

// FieldDesc describes one ordered field of an event: its name, ABI
// type, and whether it is an indexed (topic-carried) argument.
type FieldDesc struct {
	Name    string
	Type    string
	Indexed bool
}

// EventSpec is an event name plus its ordered field descriptors. It
// derives and caches its canonical signature and signature hash on
// construction — the first log topic for any emission of this event.
type EventSpec struct {
	Name      string
	Fields    []FieldDesc
	Signature string
	SigHash   ethtypes.Hash

	indexed    []FieldDesc
	nonIndexed []FieldDesc
	indexedArg map[int]gethabi.Argument // position within indexed -> single-value Argument
	dataArgs   gethabi.Arguments
}

// NewEventSpec validates the field ABI types and derives the event's
// signature hash.
func NewEventSpec(name string, fields []FieldDesc) (EventSpec, error) {
	types := make([]string, len(fields))
	for i, f := range fields {
		types[i] = f.Type
	}
	sig := Signature(name, types)
	sigHash := ethtypes.HashFromBytes(crypto.Keccak256([]byte(sig)))

	var indexed, nonIndexed []FieldDesc
	for _, f := range fields {
		if f.Indexed {
			indexed = append(indexed, f)
		} else {
			nonIndexed = append(nonIndexed, f)
		}
	}

	indexedArg := make(map[int]gethabi.Argument, len(indexed))
	for i, f := range indexed {
		typ, err := gethabi.NewType(f.Type, "", nil)
		if err != nil {
			return EventSpec{}, fmt.Errorf("abi: event %s indexed field %s: %w", name, f.Name, err)
		}
		indexedArg[i] = gethabi.Argument{Name: f.Name, Type: typ}
	}

	dataTypes := make([]string, len(nonIndexed))
	for i, f := range nonIndexed {
		dataTypes[i] = f.Type
	}
	dataArgs, err := argsFromTypes(dataTypes)
	if err != nil {
		return EventSpec{}, fmt.Errorf("abi: event %s data fields: %w", name, err)
	}

	return EventSpec{
		Name:       name,
		Fields:     fields,
		Signature:  sig,
		SigHash:    sigHash,
		indexed:    indexed,
		nonIndexed: nonIndexed,
		indexedArg: indexedArg,
		dataArgs:   dataArgs,
	}, nil
}

// NumIndexed returns the number of indexed fields.
func (e EventSpec) NumIndexed() int {
	return len(e.indexed)
}
