// Package main is the entry point for the microcred CLI.
package main

import (
	"fmt"
	"os"

	"github.com/microcred/microcred-core/internal/config"
	"github.com/microcred/microcred-core/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "microcred",
	Short: "Microcredential issuance and verification",
	Long: `Issue and verify signed skill microcredentials.

An issuer signs credentials with its Ed25519 key. Verifiers accept a
credential only when its issuer is in their local trust store and the
signature checks out against the trusted key.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		config.LoadDotEnv()

		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		cfg = c

		logger = logging.New(logging.Config{
			Env:         c.Log.Env,
			Level:       c.Log.Level,
			ServiceName: "microcred",
		}, cmd.ErrOrStderr())
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
