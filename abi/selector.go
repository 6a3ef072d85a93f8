package abi

import (
	"fmt"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/desktable/aioweb3/ethtypes"
)

// SelectorLength is the number of bytes in a function selector.
const SelectorLength = 4

// Selector derives the 4-byte function selector:
// keccak256(Signature(name, inputTypes))[:4].
func Selector(name string, inputTypes []string) [SelectorLength]byte {
	hash := crypto.Keccak256([]byte(Signature(name, inputTypes)))
	var sel [SelectorLength]byte
	copy(sel[:], hash[:SelectorLength])
	return sel
}

// MethodCall is an immutable description of a contract method: its
// name, ordered input/output ABI types, and an optional bound contract
// address. Bind returns a new value rather than mutating the receiver.
type MethodCall struct {
	Name        string
	InputTypes  []string
	OutputTypes []string
	to          *ethtypes.Address

	inputArgs  gethabi.Arguments
	outputArgs gethabi.Arguments
}

// NewMethodCall validates the input/output type strings and returns a
// ready-to-use, unbound MethodCall.
func NewMethodCall(name string, inputTypes, outputTypes []string) (MethodCall, error) {
	inArgs, err := argsFromTypes(inputTypes)
	if err != nil {
		return MethodCall{}, fmt.Errorf("abi: method %s inputs: %w", name, err)
	}
	outArgs, err := argsFromTypes(outputTypes)
	if err != nil {
		return MethodCall{}, fmt.Errorf("abi: method %s outputs: %w", name, err)
	}
	return MethodCall{
		Name:        name,
		InputTypes:  inputTypes,
		OutputTypes: outputTypes,
		inputArgs:   inArgs,
		outputArgs:  outArgs,
	}, nil
}

// Bind returns a copy of the MethodCall bound to contract address addr.
func (m MethodCall) Bind(addr ethtypes.Address) MethodCall {
	bound := m
	a := addr
	bound.to = &a
	return bound
}

// To returns the bound contract address, if any.
func (m MethodCall) To() (ethtypes.Address, bool) {
	if m.to == nil {
		return ethtypes.Address{}, false
	}
	return *m.to, true
}

// Selector returns this method's 4-byte selector.
func (m MethodCall) Selector() [SelectorLength]byte {
	return Selector(m.Name, m.InputTypes)
}

// EncodeInput builds call data: selector || abi-encode(InputTypes, args).
func (m MethodCall) EncodeInput(args ...interface{}) ([]byte, error) {
	packed, err := m.inputArgs.Pack(args...)
	if err != nil {
		return nil, fmt.Errorf("abi: encode input for %s: %w", m.Name, err)
	}
	sel := m.Selector()
	out := make([]byte, 0, len(sel)+len(packed))
	out = append(out, sel[:]...)
	out = append(out, packed...)
	return out, nil
}

// DecodeOutput ABI-decodes a raw `eth_call` result against OutputTypes,
// returning every decoded value positionally. See DecodeOutputUnwrapped
// for the single-output convenience form.
func (m MethodCall) DecodeOutput(raw []byte) ([]interface{}, error) {
	values, err := m.outputArgs.UnpackValues(raw)
	if err != nil {
		return nil, fmt.Errorf("abi: decode output for %s: %w", m.Name, err)
	}
	return values, nil
}

// DecodeOutputUnwrapped is DecodeOutput followed by single-value
// unwrapping: it returns the lone decoded value directly when
// len(OutputTypes) == 1, otherwise the full slice as interface{}.
func (m MethodCall) DecodeOutputUnwrapped(raw []byte) (interface{}, error) {
	values, err := m.DecodeOutput(raw)
	if err != nil {
		return nil, err
	}
	if len(values) == 1 {
		return values[0], nil
	}
	return values, nil
}
