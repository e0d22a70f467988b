package account

import (
	"fmt"
	"strings"
	"sync"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	"github.com/bsv-blockchain/go-sdk/compat/bip39"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"
)

const (
	// BIP44 path constants.
	PurposeBIP44     = 44
	CoinType         = 236
	DepositorAccount = 2
	VaultAccount     = 3

	// Mnemonic entropy sizes.
	Mnemonic12Words = 128
	Mnemonic24Words = 256

	// MaxIndex is the largest non-hardened child index.
	MaxIndex = 1<<31 - 1

	// Hardened is the BIP32 hardened offset.
	Hardened = 0x80000000
)

// KeyPair holds a derived key and the address it controls.
type KeyPair struct {
	PublicKey *ec.PublicKey
	Address   Address
	Path      string
}

// Keyring derives depositor addresses from a single seed and remembers which
// name was assigned which index, so a scenario can refer to "alice" and get
// the same address every run.
type Keyring struct {
	depositors *bip32.ExtendedKey // m/44'/236'/2'/0
	vaults     *bip32.ExtendedKey // m/44'/236'/3'/0

	mu    sync.Mutex
	names map[string]uint32
	next  uint32
}

// GenerateMnemonic creates a new BIP39 mnemonic with the specified entropy bits.
func GenerateMnemonic(entropyBits int) (string, error) {
	if entropyBits != Mnemonic12Words && entropyBits != Mnemonic24Words {
		return "", ErrInvalidEntropy
	}
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("account: generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("account: generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic checks if a mnemonic string is valid BIP39.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

// NewKeyring builds a keyring from a BIP39 mnemonic and optional passphrase.
func NewKeyring(mnemonic, passphrase string) (*Keyring, error) {
	if !ValidateMnemonic(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("account: derive seed: %w", err)
	}
	master, err := bip32.NewMaster(seed, &chaincfg.MainNet)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}

	depositors, err := deriveChain(master, DepositorAccount)
	if err != nil {
		return nil, err
	}
	vaults, err := deriveChain(master, VaultAccount)
	if err != nil {
		return nil, err
	}

	return &Keyring{
		depositors: depositors,
		vaults:     vaults,
		names:      make(map[string]uint32),
	}, nil
}

// deriveChain derives m/44'/236'/account'/0.
func deriveChain(master *bip32.ExtendedKey, account uint32) (*bip32.ExtendedKey, error) {
	purpose, err := master.Child(PurposeBIP44 + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: purpose derivation: %w", ErrDerivationFailed, err)
	}
	coin, err := purpose.Child(CoinType + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: coin type derivation: %w", ErrDerivationFailed, err)
	}
	acct, err := coin.Child(account + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: account derivation: %w", ErrDerivationFailed, err)
	}
	chain, err := acct.Child(0)
	if err != nil {
		return nil, fmt.Errorf("%w: chain derivation: %w", ErrDerivationFailed, err)
	}
	return chain, nil
}

// Depositor derives the key pair at m/44'/236'/2'/0/index.
func (k *Keyring) Depositor(index uint32) (*KeyPair, error) {
	return derive(k.depositors, index, fmt.Sprintf("m/44'/236'/%d'/0/%d", DepositorAccount, index))
}

// Vault derives the custody key pair for the vault instance at index.
func (k *Keyring) Vault(index uint32) (*KeyPair, error) {
	return derive(k.vaults, index, fmt.Sprintf("m/44'/236'/%d'/0/%d", VaultAccount, index))
}

// Named returns the depositor address bound to name, assigning the next free
// index on first use. Names are case-insensitive.
func (k *Keyring) Named(name string) (Address, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Zero, ErrEmptyName
	}

	k.mu.Lock()
	idx, ok := k.names[key]
	if !ok {
		idx = k.next
		k.names[key] = idx
		k.next++
	}
	k.mu.Unlock()

	kp, err := k.Depositor(idx)
	if err != nil {
		return Zero, err
	}
	return kp.Address, nil
}

// Names returns the assigned names and their indices.
func (k *Keyring) Names() map[string]uint32 {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make(map[string]uint32, len(k.names))
	for n, i := range k.names {
		out[n] = i
	}
	return out
}

func derive(chain *bip32.ExtendedKey, index uint32, path string) (*KeyPair, error) {
	if index > MaxIndex {
		return nil, ErrIndexOutOfRange
	}
	child, err := chain.Child(index)
	if err != nil {
		return nil, fmt.Errorf("%w: index derivation: %w", ErrDerivationFailed, err)
	}
	priv, err := child.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: extract EC private key: %w", ErrDerivationFailed, err)
	}
	pub := priv.PubKey()
	if pub == nil {
		return nil, fmt.Errorf("%w: derive public key", ErrDerivationFailed)
	}
	return &KeyPair{
		PublicKey: pub,
		Address:   FromPublicKey(pub),
		Path:      path,
	}, nil
}
