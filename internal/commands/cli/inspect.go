package cli

import (
	"fmt"
	"io"

	"github.com/andrei-cloud/go_rki/internal/rki"
	"github.com/andrei-cloud/go_rki/pkg/tr31"
	"github.com/spf13/cobra"
)

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <tr31-key-block>",
		Short: "Decode a key block header without decrypting it",
		Long: `Parses the key block structure and prints the header fields.
No key is needed and no cryptography is performed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := tr31.Parse(rki.NormalizeKeyBlock(args[0]))
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Invalid key block: %v\n", err)

				return ErrReported
			}

			printKeyBlock(cmd.OutOrStdout(), kb)

			return nil
		},
	}
}

func printKeyBlock(out io.Writer, kb *tr31.KeyBlock) {
	h := kb.Describe()

	fmt.Fprintln(out, "=== KEY BLOCK ===")
	fmt.Fprintf(out, "Header:          %s\n", kb.Header)
	fmt.Fprintf(out, "Version:         %s\n", h.Version)
	fmt.Fprintf(out, "Length:          %d\n", h.Length)
	fmt.Fprintf(out, "Key Usage:       %s - %s\n", h.KeyUsage, h.KeyUsageMeaning())
	fmt.Fprintf(out, "Algorithm:       %c - %s\n", h.Algorithm, h.AlgorithmMeaning())
	fmt.Fprintf(out, "Mode of Use:     %c - %s\n", h.ModeOfUse, h.ModeOfUseMeaning())
	fmt.Fprintf(out, "Key Version:     %s - %s\n", h.KeyVersion, h.KeyVersionMeaning())
	fmt.Fprintf(out, "Exportability:   %c - %s\n", h.Exportability, h.ExportabilityMeaning())
	fmt.Fprintf(out, "Optional Blocks: %d\n", h.OptionalBlocks)
	fmt.Fprintf(out, "Encrypted Key:   %d bytes\n", len(kb.EncryptedKey))
	fmt.Fprintf(out, "MAC:             %X\n", kb.MAC)
}
