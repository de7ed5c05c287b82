package cli

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/andrei-cloud/go_rki/internal/config"
	"github.com/andrei-cloud/go_rki/internal/logging"
	"github.com/andrei-cloud/go_rki/internal/rki"
	"github.com/andrei-cloud/go_rki/pkg/cryptoutils"
	"github.com/andrei-cloud/go_rki/pkg/tr31"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// promptPassphrase reads the passphrase interactively when "-" is given.
var promptPassphrase = runPassphraseTUI

func runExtract(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg := config.Get()

	keyPath, passphrase, wrapped, keyBlock := args[0], args[1], args[2], args[3]
	formatArg := cfg.TMK.Format
	if len(args) == 5 {
		formatArg = args[4]
	}

	format, err := rki.ParseFormat(formatArg)
	if err != nil {
		fmt.Fprintln(out, "Error: format must be 'base64' or 'hex'.")

		return ErrReported
	}

	pemData, err := os.ReadFile(keyPath)
	if err != nil {
		log.Error().Err(err).Str("path", keyPath).Msg("failed to read private key")
		fmt.Fprintln(out, "Failed to read the private key PEM file.")

		return ErrReported
	}

	if passphrase == "-" {
		passphrase, err = promptPassphrase(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("read passphrase: %w", err)
		}
	}

	u := &rki.Unwrapper{}
	if cfg.OpenSSL.Enabled {
		u.Fallback = rki.OpenSSLDecryptor{Path: cfg.OpenSSL.Path, Timeout: cfg.OpenSSL.Timeout}
	}

	tmk, err := u.UnwrapTMK(cmd.Context(), pemData, passphrase, wrapped, format)
	if err != nil {
		log.Error().Err(err).Msg("TMK decryption failed")
		fmt.Fprintln(out, "TMK decryption failed.")

		return ErrReported
	}

	fmt.Fprintln(out, "=== RESULT ===")
	fmt.Fprintf(
		out,
		"Decrypted TMK: %s (leading %s indicates default string-to-key parameters)\n",
		tmk,
		rki.TMKPrefix,
	)

	res, err := rki.IPEKFromTMK(tmk, rki.NormalizeKeyBlock(keyBlock))
	if err != nil {
		log.Error().Err(err).Msg("IPEK extraction failed")
		fmt.Fprintln(out, "IPEK extraction failed.")

		return ErrReported
	}
	defer cryptoutils.Zeroize(res.PlainKey)

	printResult(out, res)

	return nil
}

func printResult(out io.Writer, res *tr31.Result) {
	fmt.Fprintf(out, "Valid IPEK: %s\n", hex.EncodeToString(res.PlainKey))

	fmt.Fprintf(out, "MAC Verification: %s (Version %s)\n", res.MAC, res.Version)

	kcv := "unavailable"
	if raw, err := res.KCV(); err == nil {
		kcv = cryptoutils.Raw2Str(raw)
	}
	fmt.Fprintf(out, "IPEK KCV: %s\n", kcv)

	info := res.Describe()
	fmt.Fprintf(out, "Key Usage: %s - %s\n", info.KeyUsage, info.KeyUsageMeaning())

	logging.LogExtraction(res.Version.String(), res.MAC.String(), kcv)
}
