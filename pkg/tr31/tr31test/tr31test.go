// Package tr31test builds TDES key blocks for tests of code that consumes them.
package tr31test

import (
	"crypto/cipher"
	"crypto/des"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/andrei-cloud/go_rki/pkg/cryptoutils"
)

// Header returns a 16-byte header for an IPEK of keyLen bytes under version v
// ('A', 'B' or 'D') with a matching length field.
func Header(v byte, keyLen int) string {
	payload := (2 + keyLen + des.BlockSize - 1) / des.BlockSize * des.BlockSize
	macLen := 8
	if v == 'A' {
		macLen = 4
	}

	return fmt.Sprintf("%c%04dB1TX00N0000", v, 16+2*payload+2*macLen)
}

// Wrap encodes key under kbpk using the version named by header[0].
func Wrap(kbpk []byte, header string, key []byte) (string, error) {
	if len(header) != 16 {
		return "", fmt.Errorf("header must be 16 characters, got %d", len(header))
	}
	pk := cryptoutils.TripleLengthKey(kbpk)

	payloadLen := (2 + len(key) + des.BlockSize - 1) / des.BlockSize * des.BlockSize
	payload := make([]byte, payloadLen)
	payload[0] = byte(len(key) * 8 >> 8)
	payload[1] = byte(len(key) * 8)
	copy(payload[2:], key)

	var kbek, kbmk []byte
	switch header[0] {
	case 'A':
		kbek = cryptoutils.TripleLengthKey(cryptoutils.XORConst(pk, 0x45))
		kbmk = cryptoutils.TripleLengthKey(cryptoutils.XORConst(pk, 0x4D))
	case 'B', 'D':
		var err error
		if kbek, err = derive(pk, 0x00); err != nil {
			return "", err
		}
		if kbmk, err = derive(pk, 0x01); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unsupported version %q", header[0])
	}

	block, err := des.NewTripleDESCipher(kbek)
	if err != nil {
		return "", err
	}
	ct := make([]byte, len(payload))

	var mac []byte
	if header[0] == 'A' {
		cipher.NewCBCEncrypter(block, []byte(header[:8])).CryptBlocks(ct, payload)
		mac, err = cryptoutils.CalculateMAC(slices.Concat([]byte(header), ct), kbmk, 4)
	} else {
		mac, err = cryptoutils.TDESCMAC(kbmk, slices.Concat([]byte(header), payload))
		if err == nil {
			cipher.NewCBCEncrypter(block, mac).CryptBlocks(ct, payload)
		}
	}
	if err != nil {
		return "", err
	}

	return header + strings.ToUpper(hex.EncodeToString(ct)) + strings.ToUpper(hex.EncodeToString(mac)), nil
}

func derive(kbpk []byte, usage byte) ([]byte, error) {
	out := make([]byte, 0, 16)
	for counter := byte(1); counter <= 2; counter++ {
		part, err := cryptoutils.TDESCMAC(kbpk, []byte{counter, 0x00, usage, 0x00, 0x00, 0x00, 0x00, 0x80})
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
	}

	return cryptoutils.TripleLengthKey(out), nil
}
