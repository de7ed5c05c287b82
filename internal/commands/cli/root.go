// Package cli provides the CLI command structure for go_rki.
package cli

import (
	"errors"
	"fmt"

	"github.com/andrei-cloud/go_rki/internal/config"
	"github.com/andrei-cloud/go_rki/internal/logging"
	"github.com/spf13/cobra"
)

// ErrReported marks a failure whose message has already been printed.
var ErrReported = errors.New("failure already reported")

var cfgFile string

// NewRootCommand creates and returns the root command with all subcommands.
func NewRootCommand() (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:   "go_rki <private-key.pem> <passphrase> <wrapped-tmk> <tr31-key-block> [base64|hex]",
		Short: "Recover a TR-31 protected IPEK from an RSA wrapped TMK",
		Long: `Decrypts the RSA-OAEP wrapped Terminal Master Key with the host private key
and uses it to unwrap the TR-31 key block (versions A, B, D) carrying the IPEK.

Pass "-" as passphrase to be prompted for it. The wrapped TMK format defaults
to base64; a leading 'R' on the key block is ignored.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 4 || len(args) > 5 {
				_ = cmd.Usage()

				return fmt.Errorf("accepts 4 or 5 arg(s), received %d", len(args))
			}

			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Initialize configuration before running any command.
			if err := config.Initialize(cfgFile, cmd.Flags()); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg := config.Get()
			logging.Configure(cfg.Log.Level, cfg.Log.Format)

			return nil
		},
		RunE: runExtract,
	}

	// Add persistent flags that affect all commands.
	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "config file (default is $HOME/.go_rki/config.yaml)")

	// Add global flags that can override config file settings.
	rootCmd.PersistentFlags().
		String("log-level", "info", "logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "logging format (human, json)")
	rootCmd.PersistentFlags().
		Bool("openssl", false, "fall back to the openssl binary for OAEP SHA-256")
	rootCmd.PersistentFlags().String("openssl-path", "openssl", "path to the openssl binary")
	rootCmd.PersistentFlags().
		Duration("openssl-timeout", 0, "timeout of one openssl invocation (default from config)")

	// Register all commands.
	if err := RegisterCommands(rootCmd); err != nil {
		return nil, fmt.Errorf("failed to register commands: %w", err)
	}

	return rootCmd, nil
}
