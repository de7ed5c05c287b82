// Package server provides server-related CLI commands.
package server

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andrei-cloud/go_rki/internal/config"
	"github.com/andrei-cloud/go_rki/internal/logic"
	"github.com/andrei-cloud/go_rki/internal/rki"
	"github.com/andrei-cloud/go_rki/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the key recovery server",
		Long: `Start a TCP server answering NC (diagnostics) and K0 (IPEK recovery)
commands with the configured host private key.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	// Add serve command specific flags that can override config.
	cmd.Flags().String("host", "localhost", "Server host")
	cmd.Flags().Int("port", 1600, "Server port")
	cmd.Flags().String("key", "", "host private key PEM file")
	cmd.Flags().String("passphrase", "", "host private key passphrase")

	return cmd
}

// newService loads the host key named in cfg and builds the command service.
func newService(cfg *config.Config) (*logic.Service, error) {
	if cfg.RSA.KeyPath == "" {
		return nil, errors.New("no private key configured, set rsa.key_path or --key")
	}

	pemData, err := os.ReadFile(cfg.RSA.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}

	u := &rki.Unwrapper{}
	if cfg.OpenSSL.Enabled {
		u.Fallback = rki.OpenSSLDecryptor{Path: cfg.OpenSSL.Path, Timeout: cfg.OpenSSL.Timeout}
	}

	return logic.NewService(pemData, cfg.RSA.Passphrase, u)
}

func runServe(_ *cobra.Command, _ []string) error {
	// Get configuration.
	cfg := config.Get()

	svc, err := newService(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}

	log.Debug().
		Str("key_path", cfg.RSA.KeyPath).
		Bool("openssl_fallback", cfg.OpenSSL.Enabled).
		Str("firmware", logic.FirmwareVersion).
		Msg("service ready")

	// Initialize the server with configured host and port.
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv, err := server.NewServer(serverAddr, svc)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stopChan)

	<-stopChan
	log.Info().Msg("shutting down server...")

	if err := srv.Stop(); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	return nil
}
