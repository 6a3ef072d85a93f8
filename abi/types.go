// Package abi composes keccak-256 selector/event-signature derivation
// and Solidity ABI encode/decode into higher-level operations: function
// call input/output codecs and event log parsing. The keccak-256 hash
// and the ABI packing/unpacking algorithms themselves are taken as
// external primitives rather than reimplemented, both coming from
// go-ethereum's crypto and accounts/abi packages, the same libraries
// used in ethereum/signer.go and
// admin1douyin-bsi-ethereum-commented/accounts/abi.
package abi

import (
	"fmt"
	"strings"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
)

// argsFromTypes builds an abi.Arguments value from bare ABI type
// strings ("uint256", "address", "address[]", ...). Names are
// synthesized (arg0, arg1, ...) since positional (un-named) packing
// and unpacking is all MethodCall/EventSpec need.
func argsFromTypes(types []string) (gethabi.Arguments, error) {
	args := make(gethabi.Arguments, 0, len(types))
	for i, t := range types {
		typ, err := gethabi.NewType(t, "", nil)
		if err != nil {
			return nil, fmt.Errorf("abi: invalid type %q at position %d: %w", t, i, err)
		}
		args = append(args, gethabi.Argument{Name: fmt.Sprintf("arg%d", i), Type: typ})
	}
	return args, nil
}

// Signature renders the canonical "Name(t1,t2,...)" form used for both
// function selectors and event signature hashes: no spaces, positional
// types in declaration order.
func Signature(name string, types []string) string {
	return fmt.Sprintf("%s(%s)", name, strings.Join(types, ","))
}
