// Package ethtypes defines the wire schema for the Ethereum JSON-RPC
// client: addresses, hex quantities, transaction and receipt shapes,
// blocks, logs, and the JSON-RPC envelopes themselves. Every integer
// field on the wire is a hex quantity and is coerced to a Go integer
// type at the schema boundary; every address is normalized to lowercase
// on parse.
package ethtypes

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// AddressLength is the number of bytes in an Ethereum address.
const AddressLength = 20

// Address is a 20-byte Ethereum account or contract identifier. The
// zero value is the all-zero address. Construction always
// lowercase-normalizes and never checks an EIP-55 checksum; the
// mixed-case form is computed by Checksum.
type Address [AddressLength]byte

// NewAddress parses a 0x-prefixed (or bare) 40-hex-character string
// into an Address, lowercase-normalizing it. It does not require or
// verify an EIP-55 checksum.
func NewAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s) != AddressLength*2 {
		return a, fmt.Errorf("ethtypes: address %q must be %d hex characters", s, AddressLength*2)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("ethtypes: invalid address hex %q: %w", s, err)
	}
	copy(a[:], b)
	return a, nil
}

// MustAddress is NewAddress but panics on error; intended for tests
// and compile-time constants.
func MustAddress(s string) Address {
	a, err := NewAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the lowercase 0x-prefixed hex form.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the all-zero address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Bytes returns the raw 20 address bytes.
func (a Address) Bytes() []byte {
	return a[:]
}

// Checksum returns the EIP-55 mixed-case checksummed form, computing
// it on each call rather than at construction. The casing of the
// string the address was parsed from is not kept, so no input
// checksum is validated.
func (a Address) Checksum() string {
	unchecksummed := hex.EncodeToString(a[:])
	hash := crypto.Keccak256([]byte(unchecksummed))

	result := make([]byte, len(unchecksummed))
	for i, c := range []byte(unchecksummed) {
		if c >= '0' && c <= '9' {
			result[i] = c
			continue
		}
		// nibble i selects bit (i%2==0 -> high nibble) of hash[i/2]
		var nibble byte
		if i%2 == 0 {
			nibble = hash[i/2] >> 4
		} else {
			nibble = hash[i/2] & 0x0f
		}
		if nibble >= 8 {
			result[i] = c - 32 // to uppercase
		} else {
			result[i] = c
		}
	}
	return "0x" + string(result)
}

// ToEventTopic returns the 32-byte, 0x-prefixed event-topic form of the
// address: twelve zero bytes followed by the 20 address bytes, as used
// when an indexed `address` event argument fills a log topic.
func (a Address) ToEventTopic() string {
	return "0x" + strings.Repeat("0", 24) + hex.EncodeToString(a[:])
}

// MarshalJSON encodes the address in lowercase hex form.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes a 0x-prefixed hex string into the address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := NewAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
