// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and saves the stakevault configuration file.
//
// The file is plain "key = value" lines. Blank lines and lines starting with
// '#' are skipped, unknown keys are ignored so older binaries can read newer
// files, and unset keys keep their defaults.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// configFileName is the name of the config file inside the data directory.
	configFileName = "config"

	// dataDirName is the default data directory under the user's home.
	dataDirName = ".stakevault"
)

// Config holds the stakevault settings.
type Config struct {
	DataDir     string // journal and config location
	LogLevel    string // debug, info, warn or error
	LogFile     string // empty means stderr
	BaseSymbol  string // symbol of the staked asset
	ShareSymbol string // symbol of the vault's share token
	Mnemonic    string // BIP39 phrase for named scenario accounts
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		DataDir:     DefaultDataDir(),
		LogLevel:    "info",
		BaseSymbol:  "SUSHI",
		ShareSymbol: "xSUSHI",
	}
}

// DefaultDataDir returns ~/.stakevault, or .stakevault in the working
// directory if the home directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return dataDirName
	}
	return filepath.Join(home, dataDirName)
}

// ConfigPath returns the config file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, configFileName)
}

// LoadConfig reads the config file at path on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		applyKey(&cfg, key, value)
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path, creating parent directories. The file is
// written 0600 since it may hold a mnemonic.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# StakeVault Configuration\n")
	b.WriteString("#\n")
	b.WriteString("# key = value, one per line. Unset keys use built-in defaults.\n\n")
	writeKey(&b, "datadir", cfg.DataDir)
	writeKey(&b, "loglevel", cfg.LogLevel)
	writeKey(&b, "logfile", cfg.LogFile)
	writeKey(&b, "base_symbol", cfg.BaseSymbol)
	writeKey(&b, "share_symbol", cfg.ShareSymbol)
	writeKey(&b, "mnemonic", cfg.Mnemonic)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// parseKeyValue splits a line on the first '='.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return strings.ToLower(key), strings.TrimSpace(value), nil
}

func applyKey(cfg *Config, key, value string) {
	switch key {
	case "datadir":
		cfg.DataDir = value
	case "loglevel":
		cfg.LogLevel = value
	case "logfile":
		cfg.LogFile = value
	case "base_symbol":
		cfg.BaseSymbol = value
	case "share_symbol":
		cfg.ShareSymbol = value
	case "mnemonic":
		cfg.Mnemonic = value
	}
}

func writeKey(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "%s = %s\n", key, value)
}
