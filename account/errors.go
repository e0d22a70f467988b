package account

import "errors"

var (
	// ErrInvalidAddress indicates a malformed hex address.
	ErrInvalidAddress = errors.New("account: invalid address")

	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("account: invalid BIP39 mnemonic")

	// ErrInvalidEntropy indicates entropy bits is not 128 or 256.
	ErrInvalidEntropy = errors.New("account: entropy bits must be 128 or 256")

	// ErrIndexOutOfRange indicates a derivation index exceeds the non-hardened max.
	ErrIndexOutOfRange = errors.New("account: index exceeds maximum (2^31-1)")

	// ErrDerivationFailed indicates BIP32 key derivation failed.
	ErrDerivationFailed = errors.New("account: key derivation failed")

	// ErrEmptyName indicates a blank depositor name.
	ErrEmptyName = errors.New("account: name must not be empty")
)
