package ledger

import "github.com/bitfsorg/stakevault-go/account"

// MockToken is a test double covering both the base-asset and share-asset
// capabilities. Nil function fields fall through to the embedded Token, so a
// test only overrides the calls it wants to fail.
type MockToken struct {
	*Token

	TransferFn     func(from, to account.Address, amount uint64) error
	TransferFromFn func(spender, from, to account.Address, amount uint64) error
	MintFn         func(to account.Address, amount uint64) error
	BurnFn         func(from account.Address, amount uint64) error
}

// NewMockToken wraps a fresh Token.
func NewMockToken(symbol string) *MockToken {
	return &MockToken{Token: NewToken(symbol)}
}

func (m *MockToken) Transfer(from, to account.Address, amount uint64) error {
	if m.TransferFn != nil {
		return m.TransferFn(from, to, amount)
	}
	return m.Token.Transfer(from, to, amount)
}

func (m *MockToken) TransferFrom(spender, from, to account.Address, amount uint64) error {
	if m.TransferFromFn != nil {
		return m.TransferFromFn(spender, from, to, amount)
	}
	return m.Token.TransferFrom(spender, from, to, amount)
}

func (m *MockToken) Mint(to account.Address, amount uint64) error {
	if m.MintFn != nil {
		return m.MintFn(to, amount)
	}
	return m.Token.Mint(to, amount)
}

func (m *MockToken) Burn(from account.Address, amount uint64) error {
	if m.BurnFn != nil {
		return m.BurnFn(from, amount)
	}
	return m.Token.Burn(from, amount)
}
