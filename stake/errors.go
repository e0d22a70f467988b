package stake

import "errors"

var (
	// ErrInsufficientAllowance indicates the caller authorized the vault to pull
	// less base asset than the deposit amount.
	ErrInsufficientAllowance = errors.New("stake: insufficient allowance")

	// ErrInsufficientShareBalance indicates a redemption exceeds the caller's shares.
	ErrInsufficientShareBalance = errors.New("stake: burn amount exceeds balance")

	// ErrUnknownPosition indicates the position id was never created for the caller.
	ErrUnknownPosition = errors.New("stake: unknown position")

	// ErrNoPositions indicates the account has never entered the vault.
	ErrNoPositions = errors.New("stake: account has no positions")

	// ErrDegenerateVaultState indicates outstanding shares with an empty reserve.
	ErrDegenerateVaultState = errors.New("stake: degenerate vault state")

	// ErrZeroAmount indicates a deposit or redemption of zero.
	ErrZeroAmount = errors.New("stake: amount must be positive")

	// ErrOverflow indicates a share or payout quotient does not fit in 64 bits.
	ErrOverflow = errors.New("stake: arithmetic overflow")

	// ErrInvalidSchedule indicates an exit-tax schedule that is empty or unordered.
	ErrInvalidSchedule = errors.New("stake: invalid exit-tax schedule")

	// ErrNilCollaborator indicates a missing base or share ledger.
	ErrNilCollaborator = errors.New("stake: nil asset ledger")

	// ErrZeroVaultAddress indicates the vault custody address is unset.
	ErrZeroVaultAddress = errors.New("stake: zero vault address")

	// ErrVaultCaller indicates the vault custody address tried to enter or leave.
	ErrVaultCaller = errors.New("stake: vault custody address cannot enter or leave")
)
