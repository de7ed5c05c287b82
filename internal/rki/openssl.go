package rki

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultOpenSSLTimeout bounds one external decryption.
const DefaultOpenSSLTimeout = 10 * time.Second

// OpenSSLDecryptor runs "openssl pkeyutl" for OAEP SHA-256 decryption.
// The key and ciphertext are written to a private directory that is removed
// before DecryptOAEPSHA256 returns. The passphrase is sent on stdin.
type OpenSSLDecryptor struct {
	Path    string        // openssl binary, defaults to "openssl" on PATH.
	Timeout time.Duration // defaults to DefaultOpenSSLTimeout.
	TempDir string        // parent of the work directory, defaults to os.TempDir().
}

// DecryptOAEPSHA256 implements ExternalDecryptor.
func (d OpenSSLDecryptor) DecryptOAEPSHA256(
	ctx context.Context,
	pemData []byte,
	passphrase string,
	ciphertext []byte,
) ([]byte, error) {
	workDir, err := os.MkdirTemp(d.TempDir, "go_rki-oaep-")
	if err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	keyFile := filepath.Join(workDir, "key.pem")
	if err := os.WriteFile(keyFile, pemData, 0o600); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}
	inFile := filepath.Join(workDir, "tmk.bin")
	if err := os.WriteFile(inFile, ciphertext, 0o600); err != nil {
		return nil, fmt.Errorf("write ciphertext file: %w", err)
	}

	path := d.Path
	if path == "" {
		path = "openssl"
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultOpenSSLTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path,
		"pkeyutl", "-decrypt",
		"-inkey", keyFile,
		"-passin", "stdin",
		"-pkeyopt", "rsa_padding_mode:oaep",
		"-pkeyopt", "rsa_oaep_md:sha256",
		"-pkeyopt", "rsa_mgf1_md:sha256",
		"-in", inFile,
	)
	cmd.Stdin = strings.NewReader(passphrase + "\n")
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("openssl pkeyutl timed out after %s", timeout)
		}

		return nil, fmt.Errorf("openssl pkeyutl: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, errors.New("openssl pkeyutl produced no output")
	}

	return stdout.Bytes(), nil
}
