// Command stakevault replays staking scenarios against a pooled vault and
// inspects the resulting event journal.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bitfsorg/stakevault-go/config"
)

var (
	// Global flags
	verbose bool
	dataDir string

	// Loaded in PersistentPreRunE.
	cfg    config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "stakevault",
	Short: "Pooled staking vault simulator",
	Long: `stakevault replays deposit and redemption scenarios against a pooled
staking vault with a time-weighted exit tax.

Depositors lock a base asset and receive shares. Redeeming shares pays out a
proportional claim on the reserve, reduced by an exit tax that depends on the
age of the referenced deposit. The tax stays in the pool.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}
		logger, err = buildLogger(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "datadir", "", "data directory (default ~/.stakevault)")

	rootCmd.AddCommand(initCmd, simulateCmd, scheduleCmd, historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file from the data directory. A missing file
// yields the defaults; the --datadir flag overrides the configured directory.
func loadConfig() (config.Config, error) {
	dir := dataDir
	if dir == "" {
		dir = config.DefaultDataDir()
	}

	c, err := config.LoadConfig(config.ConfigPath(dir))
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return c, err
	}
	if dataDir != "" {
		c.DataDir = dataDir
	}
	if err := config.ValidateConfig(c); err != nil {
		return c, err
	}
	return c, nil
}

func buildLogger(c config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if c.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(c.LogFile), 0700); err != nil {
			return nil, err
		}
		zc.OutputPaths = []string{c.LogFile}
		zc.ErrorOutputPaths = []string{c.LogFile}
	}
	return zc.Build()
}

// journalPath is where simulate records events and history reads them.
func journalPath() string {
	return filepath.Join(cfg.DataDir, "journal.db")
}
