package ledger

import "errors"

var (
	// ErrInsufficientBalance indicates a transfer or burn exceeds the holder's balance.
	ErrInsufficientBalance = errors.New("ledger: amount exceeds balance")

	// ErrInsufficientAllowance indicates a pull exceeds what the owner authorized.
	ErrInsufficientAllowance = errors.New("ledger: insufficient allowance")

	// ErrAllowanceBelowZero indicates a decrease larger than the current allowance.
	ErrAllowanceBelowZero = errors.New("ledger: decreased allowance below zero")

	// ErrZeroAddress indicates a transfer, mint or approval involving the zero address.
	ErrZeroAddress = errors.New("ledger: zero address")

	// ErrSupplyOverflow indicates a mint would overflow the total supply.
	ErrSupplyOverflow = errors.New("ledger: total supply overflow")

	// ErrConservationViolated indicates balances no longer sum to the total supply.
	ErrConservationViolated = errors.New("ledger: balance conservation violated")
)
