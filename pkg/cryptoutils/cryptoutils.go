// Package cryptoutils provides utility functions for binary and triple-DES operations
// shared by the key block codec and the TMK unwrap service.
package cryptoutils

import (
	"crypto/des"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/andreburgaud/crypt2go/ecb"
)

const (
	ISO9797_METHOD2_PADDING_BYTE = 0x80
	KEY_LENGTH_SINGLE            = 8
	KEY_LENGTH_DOUBLE            = 16
	KEY_LENGTH_TRIPLE            = 24
	KCV_LENGTH                   = 3
)

var ErrKeyLength = errors.New("invalid triple-des key length")

// padISO9797Method1 implements ISO/IEC 9797-1 padding method 1.
// Adds the smallest number of 0x00 bytes to make data multiple of block size.
// If data is already a multiple of block size and non-empty, no padding is added.
func padISO9797Method1(data []byte, blockSize int) []byte {
	remainder := len(data) % blockSize
	if remainder == 0 && len(data) > 0 {
		return data
	}

	if len(data) == 0 {
		return make([]byte, blockSize)
	}

	padding := make([]byte, blockSize-remainder)

	return slices.Concat(data, padding)
}

// Raw2Str converts raw binary data to an uppercase hex string.
func Raw2Str(raw []byte) string {
	return strings.ToUpper(hex.EncodeToString(raw))
}

// TripleLengthKey builds a 24-byte key as key[0:16] || key[0:8].
// Bytes past the first 16 are never used, even when key is already 24 bytes long.
// Inputs shorter than 16 bytes yield a short result which the TDES cipher rejects.
func TripleLengthKey(key []byte) []byte {
	head := key[:min(len(key), KEY_LENGTH_DOUBLE)]
	first := key[:min(len(key), KEY_LENGTH_SINGLE)]

	return slices.Concat(head, first)
}

// XORBytes returns a^b for equal-length slices. Returns error if lengths differ.
func XORBytes(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, errors.New("xor: length mismatch")
	}
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}

	return out, nil
}

// XORConst returns a copy of b with every byte XORed with c.
func XORConst(b []byte, c byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[i] = b[i] ^ c
	}

	return out
}

// Chunk splits b into blocks of size sz. The last block may be shorter if needed.
func Chunk(b []byte, sz int) [][]byte {
	if sz <= 0 {
		return nil
	}
	n := (len(b) + sz - 1) / sz
	out := make([][]byte, n)
	for i := 0; i < n; i++ {
		start := i * sz
		end := start + sz
		if end > len(b) {
			end = len(b)
		}
		out[i] = b[start:end]
	}

	return out
}

// EncryptECB encrypts src under a 24-byte TDES key in ECB mode.
// src must be a multiple of the DES block size.
func EncryptECB(key, src []byte) ([]byte, error) {
	if len(key) != KEY_LENGTH_TRIPLE {
		return nil, fmt.Errorf("%w: %d", ErrKeyLength, len(key))
	}
	block, err := des.NewTripleDESCipher(key)
	if err != nil {
		return nil, err
	}
	if len(src)%block.BlockSize() != 0 {
		return nil, fmt.Errorf(
			"input length %d not a multiple of block size %d",
			len(src),
			block.BlockSize(),
		)
	}

	dst := make([]byte, len(src))
	ecb.NewECBEncrypter(block).CryptBlocks(dst, src)

	return dst, nil
}

// KeyCV returns the first kcvLen bytes of the encryption of a zero block under key.
// Single and double length keys are expanded to triple length first.
func KeyCV(key []byte, kcvLen int) ([]byte, error) {
	var fullKey []byte
	switch len(key) {
	case KEY_LENGTH_SINGLE:
		fullKey = slices.Concat(key, key, key)
	case KEY_LENGTH_DOUBLE:
		fullKey = TripleLengthKey(key)
	case KEY_LENGTH_TRIPLE:
		fullKey = key
	default:
		return nil, fmt.Errorf("keycv: %w: %d", ErrKeyLength, len(key))
	}
	defer func() {
		if len(key) != KEY_LENGTH_TRIPLE {
			Zeroize(fullKey)
		}
	}()

	enc, err := EncryptECB(fullKey, make([]byte, des.BlockSize))
	if err != nil {
		return nil, err
	}
	if kcvLen > len(enc) {
		return nil, fmt.Errorf("keycv: kcv_length %d too large", kcvLen)
	}

	return enc[:kcvLen], nil
}

// Zeroize overwrites b with zeros.
func Zeroize(b []byte) {
	clear(b)
}
