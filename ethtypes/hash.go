package ethtypes

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// HashLength is the number of bytes in a block hash, transaction hash,
// or log topic.
const HashLength = 32

// Hash is a 32-byte hex value: block hashes, transaction hashes, and
// log topics (including the event signature hash) are all this shape.
type Hash [HashLength]byte

// NewHash parses a 0x-prefixed (or bare) 64-hex-character string.
func NewHash(s string) (Hash, error) {
	var h Hash
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s) != HashLength*2 {
		return h, fmt.Errorf("ethtypes: hash %q must be %d hex characters", s, HashLength*2)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("ethtypes: invalid hash hex %q: %w", s, err)
	}
	copy(h[:], b)
	return h, nil
}

// MustHash is NewHash but panics on error.
func MustHash(s string) Hash {
	h, err := NewHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

// HashFromBytes truncates/pads b (left-padding with zeros) into a Hash.
// Used by the codec layer when packing an ABI-encoded value into a
// 32-byte topic slot.
func HashFromBytes(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := NewHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
