package rki

import (
	"context"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/andrei-cloud/go_rki/internal/errorcodes"
	"github.com/andrei-cloud/go_rki/internal/rki/rkitest"
	"github.com/andrei-cloud/go_rki/pkg/tr31"
	"github.com/andrei-cloud/go_rki/pkg/tr31/tr31test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIPEK = "6ac292faa1315b4d858ab3a3d7d5933a"

func wrapBlock(t *testing.T, version byte, kbpkHex, ipekHex string) string {
	t.Helper()

	ipek := mustDecodeHex(t, ipekHex)
	block, err := tr31test.Wrap(mustDecodeHex(t, kbpkHex), tr31test.Header(version, len(ipek)), ipek)
	require.NoError(t, err)

	return block
}

func TestNormalizeKeyBlock(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "A0072", NormalizeKeyBlock("RA0072"))
	assert.Equal(t, "A0072", NormalizeKeyBlock("A0072"))
	assert.Equal(t, "", NormalizeKeyBlock(""))
}

func TestIPEKFromTMK(t *testing.T) {
	t.Parallel()

	kbpk := testTMK[len(TMKPrefix):]

	for _, v := range []byte{'A', 'B', 'D'} {
		block := wrapBlock(t, v, kbpk, testIPEK)

		res, err := IPEKFromTMK(testTMK, block)
		require.NoError(t, err, "version %c", v)
		assert.Equal(t, testIPEK, hex.EncodeToString(res.PlainKey))
		assert.Equal(t, tr31.Version(v), res.Version)
		if v == 'D' {
			assert.Equal(t, tr31.MACNotApplicable, res.MAC)
		} else {
			assert.Equal(t, tr31.MACVerified, res.MAC)
		}
	}
}

func TestIPEKFromTMKErrors(t *testing.T) {
	t.Parallel()

	block := wrapBlock(t, 'A', testTMK[len(TMKPrefix):], testIPEK)

	tests := []struct {
		name    string
		tmk     string
		block   string
		wantErr error
	}{
		{"missing prefix", testTMK[len(TMKPrefix):], block, errorcodes.ErrTMKFormat},
		{"prefix only", TMKPrefix, block, errorcodes.ErrTMKFormat},
		{"odd kbpk", testTMK + "0", block, errorcodes.ErrTMKFormat},
		{"non hex kbpk", TMKPrefix + "zz", block, errorcodes.ErrTMKFormat},
		{"empty block", testTMK, "", errorcodes.ErrKeyBlockFormat},
		{"short block", testTMK, block[:39], errorcodes.ErrKeyBlockFormat},
		{"bad version", testTMK, "X" + block[1:], errorcodes.ErrKeyBlockFormat},
		{
			"unaligned payload",
			testTMK,
			block[:16] + strings.Repeat("0", 20) + block[len(block)-8:],
			errorcodes.ErrSymmetricDecrypt,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := IPEKFromTMK(tt.tmk, tt.block)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, res)
		})
	}
}

func TestExtractIPEKEndToEnd(t *testing.T) {
	t.Parallel()

	key, err := rkitest.Key()
	require.NoError(t, err)
	pemData, err := rkitest.EncryptedPKCS8PEM(key, "terminal-pass")
	require.NoError(t, err)

	wrapped, err := rkitest.WrapBase64SHA256(&key.PublicKey, mustDecodeHex(t, testTMK))
	require.NoError(t, err)
	block := "R" + wrapBlock(t, 'A', testTMK[len(TMKPrefix):], testIPEK)
	require.True(t, strings.HasPrefix(block, "RA0072"))

	u := &Unwrapper{}
	ext, err := u.ExtractIPEK(context.Background(), pemData, "terminal-pass", wrapped, block, FormatBase64)
	require.NoError(t, err)

	assert.Equal(t, testTMK, ext.TMK)
	assert.Equal(t, testIPEK, hex.EncodeToString(ext.Result.PlainKey))
	assert.Equal(t, tr31.MACVerified, ext.Result.MAC)
	assert.Equal(t, tr31.VersionA, ext.Result.Version)

	_, err = u.ExtractIPEK(context.Background(), pemData, "terminal-pass", wrapped, "A00", FormatBase64)
	assert.ErrorIs(t, err, errorcodes.ErrKeyBlockFormat)

	_, err = u.ExtractIPEK(context.Background(), pemData, "wrong", wrapped, block, FormatBase64)
	assert.ErrorIs(t, err, errorcodes.ErrKeyLoad)
}
