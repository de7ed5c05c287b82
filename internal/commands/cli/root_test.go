package cli

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andrei-cloud/go_rki/internal/rki/rkitest"
	"github.com/andrei-cloud/go_rki/pkg/tr31/tr31test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTMK  = "0000800089e88cf7931444f334bd7547fc3f380c"
	testIPEK = "6ac292faa1315b4d858ab3a3d7d5933a"
)

type fixture struct {
	keyPath string
	wrapped string
	hexTMK  string
}

// newFixture writes an encrypted host key and returns the TMK wrapped for it.
// It isolates the command from config files of the machine.
func newFixture(t *testing.T) fixture {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	key, err := rkitest.Key()
	require.NoError(t, err)
	pemData, err := rkitest.EncryptedPKCS8PEM(key, "secret")
	require.NoError(t, err)

	keyPath := filepath.Join(dir, "host.pem")
	require.NoError(t, os.WriteFile(keyPath, pemData, 0o600))

	tmk, err := hex.DecodeString(testTMK)
	require.NoError(t, err)
	wrapped, err := rkitest.WrapBase64SHA256(&key.PublicKey, tmk)
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(wrapped)
	require.NoError(t, err)

	return fixture{keyPath: keyPath, wrapped: wrapped, hexTMK: hex.EncodeToString(raw)}
}

func keyBlock(t *testing.T, version byte) string {
	t.Helper()

	kbpk, err := hex.DecodeString(testTMK[8:])
	require.NoError(t, err)
	ipek, err := hex.DecodeString(testIPEK)
	require.NoError(t, err)

	block, err := tr31test.Wrap(kbpk, tr31test.Header(version, len(ipek)), ipek)
	require.NoError(t, err)

	return block
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root, err := NewRootCommand()
	require.NoError(t, err)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err = root.Execute()

	return out.String(), err
}

func TestExtractVersions(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		version byte
		mac     string
	}{
		{'A', "MAC Verification: PASSED (Version A)"},
		{'B', "MAC Verification: PASSED (Version B)"},
		{'D', "MAC Verification: Not applicable (Version D)"},
	}

	for _, tt := range tests {
		out, err := execute(t, fx.keyPath, "secret", fx.wrapped, "R"+keyBlock(t, tt.version))
		require.NoError(t, err, "version %c", tt.version)

		assert.Contains(t, out, "=== RESULT ===")
		assert.Contains(t, out, "Decrypted TMK: "+testTMK)
		assert.Contains(t, out, "Valid IPEK: "+testIPEK)
		assert.Contains(t, out, tt.mac)
		assert.Contains(t, out, "IPEK KCV: ")
		assert.Contains(t, out, "Key Usage: B1 - DUKPT Initial Key (IPEK)")
	}
}

func TestExtractHexFormat(t *testing.T) {
	fx := newFixture(t)

	out, err := execute(t, fx.keyPath, "secret", fx.hexTMK, keyBlock(t, 'B'), "hex")
	require.NoError(t, err)
	assert.Contains(t, out, "Valid IPEK: "+testIPEK)
}

func TestExtractMACFailure(t *testing.T) {
	fx := newFixture(t)

	block := keyBlock(t, 'A')
	last := "0"
	if strings.HasSuffix(block, "0") {
		last = "1"
	}
	block = block[:len(block)-1] + last

	out, err := execute(t, fx.keyPath, "secret", fx.wrapped, block)
	require.NoError(t, err)
	assert.Contains(t, out, "MAC Verification: FAILED (Version A)")
}

func TestExtractFailures(t *testing.T) {
	fx := newFixture(t)
	block := keyBlock(t, 'A')

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			"bad format",
			[]string{fx.keyPath, "secret", fx.wrapped, block, "der"},
			"Error: format must be 'base64' or 'hex'.",
		},
		{
			"missing key file",
			[]string{filepath.Join(t.TempDir(), "absent.pem"), "secret", fx.wrapped, block},
			"Failed to read the private key PEM file.",
		},
		{
			"wrong passphrase",
			[]string{fx.keyPath, "wrong", fx.wrapped, block},
			"TMK decryption failed.",
		},
		{
			"hex given as base64",
			[]string{fx.keyPath, "secret", fx.hexTMK + "!", block},
			"TMK decryption failed.",
		},
		{
			"bad key block",
			[]string{fx.keyPath, "secret", fx.wrapped, block[:20]},
			"IPEK extraction failed.",
		},
	}

	for _, tt := range tests {
		out, err := execute(t, tt.args...)
		require.ErrorIs(t, err, ErrReported, tt.name)
		assert.Contains(t, out, tt.want, tt.name)
		assert.NotContains(t, out, "Valid IPEK", tt.name)
	}
}

func TestExtractPromptsForPassphrase(t *testing.T) {
	fx := newFixture(t)

	orig := promptPassphrase
	t.Cleanup(func() { promptPassphrase = orig })
	prompted := false
	promptPassphrase = func(_ io.Reader, _ io.Writer) (string, error) {
		prompted = true

		return "secret", nil
	}

	out, err := execute(t, fx.keyPath, "-", fx.wrapped, keyBlock(t, 'B'))
	require.NoError(t, err)
	assert.True(t, prompted)
	assert.Contains(t, out, "Valid IPEK: "+testIPEK)
}

func TestRootArgumentCount(t *testing.T) {
	newFixture(t)

	for _, args := range [][]string{{}, {"a", "b", "c"}, {"a", "b", "c", "d", "e", "f"}} {
		out, err := execute(t, args...)
		require.Error(t, err)
		assert.Contains(t, out, "Usage:")
	}
}

func TestInspect(t *testing.T) {
	newFixture(t)

	out, err := execute(t, "inspect", "R"+keyBlock(t, 'B'))
	require.NoError(t, err)
	assert.Contains(t, out, "Version:         B")
	assert.Contains(t, out, "Key Usage:       B1 - DUKPT Initial Key (IPEK)")
	assert.Contains(t, out, "Algorithm:       T - Triple DEA")
	assert.Contains(t, out, "Mode of Use:     X - Key derivation only")
	assert.Contains(t, out, "Exportability:   N - Non-exportable")

	out, err = execute(t, "inspect", "Z0000")
	require.ErrorIs(t, err, ErrReported)
	assert.Contains(t, out, "Invalid key block")
}
