// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"strings"

	"github.com/bitfsorg/stakevault-go/account"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if err := validateSymbols(cfg.BaseSymbol, cfg.ShareSymbol); err != nil {
		return err
	}

	// An empty mnemonic means "generate one on first use".
	if cfg.Mnemonic != "" && !account.ValidateMnemonic(cfg.Mnemonic) {
		return ErrInvalidMnemonic
	}

	return nil
}

// validateSymbols checks that both ledgers are named and distinguishable.
func validateSymbols(base, share string) error {
	if strings.TrimSpace(base) == "" || strings.TrimSpace(share) == "" {
		return fmt.Errorf("%w: symbol must not be empty", ErrInvalidSymbol)
	}
	if strings.EqualFold(base, share) {
		return fmt.Errorf("%w: base and share symbols are both %q", ErrInvalidSymbol, base)
	}
	return nil
}
