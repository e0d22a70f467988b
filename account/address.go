// Package account identifies vault participants.
//
// An Address is the 20-byte HASH160 of a compressed secp256k1 public key,
// the same hash used by P2PKH outputs. Depositor keys are derived from a
// BIP39 mnemonic along m/44'/236'/{account}'/0/{index}.
package account

import (
	"encoding/hex"
	"fmt"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
)

// AddressSize is the byte length of an Address.
const AddressSize = 20

// Address identifies an account holding base-asset or share balances.
type Address [AddressSize]byte

// Zero is the unset address. Ledgers refuse to credit it.
var Zero Address

// FromPublicKey computes HASH160(pubkey) = RIPEMD160(SHA256(pubkey)).
func FromPublicKey(pub *ec.PublicKey) Address {
	var a Address
	copy(a[:], bsvhash.Hash160(pub.Compressed()))
	return a
}

// ParseAddress decodes a 40-character hex address. A "0x" prefix is accepted.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if len(b) != AddressSize {
		return a, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, AddressSize, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// String returns the lowercase hex encoding.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Short returns the first four bytes in hex, for log lines and tables.
func (a Address) Short() string {
	return hex.EncodeToString(a[:4])
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == Zero
}
