// Package common holds the setup shared by the v2t subcommands.
package common

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"upload-whisper/internal/app/logger"
	"upload-whisper/internal/config"
)

const (
	FlagConfig  = "config"
	FlagVerbose = "verbose"
)

// LoadConfig reads the configuration selected by the --config flag.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(FlagConfig)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Bootstrap loads the configuration and builds the logger. --verbose forces
// debug level.
func Bootstrap(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Log.Level
	if verbose, _ := cmd.Flags().GetBool(FlagVerbose); verbose {
		level = "debug"
	}

	log, err := logger.New(cfg.Log.Development, level)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, log, nil
}
