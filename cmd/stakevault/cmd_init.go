package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bitfsorg/stakevault-go/account"
	"github.com/bitfsorg/stakevault-go/config"
)

var initForce bool

// initCmd writes a config file with a fresh mnemonic.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the data directory and a config file",
	Long: `Writes a config file into the data directory. A new BIP39 mnemonic is
generated so scenario account names map to the same addresses on every run.

An existing config file is left alone unless --force is given.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.ConfigPath(cfg.DataDir)
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	c := cfg
	if c.Mnemonic == "" || initForce {
		m, err := account.GenerateMnemonic(account.Mnemonic12Words)
		if err != nil {
			return err
		}
		c.Mnemonic = m
	}
	if err := config.SaveConfig(path, c); err != nil {
		return err
	}

	logger.Info("wrote config", zap.String("path", path))
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s\n", path)
	return nil
}
