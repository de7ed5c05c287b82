package cryptoutils

import (
	"crypto/des"
	"fmt"
)

// CalculateMAC computes an s-byte MAC (4 ≤ s ≤ 8) over msg using
// ISO/IEC 9797-1 MAC algorithm 1 with a triple-DES key and zero IV.
// msg is zero padded (padding method 1) to a multiple of the block size.
// key must be 24 bytes.
func CalculateMAC(msg, key []byte, s int) ([]byte, error) {
	if s < 4 || s > des.BlockSize {
		return nil, fmt.Errorf("invalid MAC length %d", s)
	}
	if len(key) != KEY_LENGTH_TRIPLE {
		return nil, fmt.Errorf("%w: %d", ErrKeyLength, len(key))
	}

	cipherBlock, err := des.NewTripleDESCipher(key)
	if err != nil {
		return nil, err
	}

	// CBC with zero IV, keep only the final chaining value.
	h := make([]byte, des.BlockSize)
	for _, x := range Chunk(padISO9797Method1(msg, des.BlockSize), des.BlockSize) {
		xorIn, err := XORBytes(x, h)
		if err != nil {
			return nil, err
		}
		cipherBlock.Encrypt(h, xorIn)
	}

	return h[:s], nil
}

// TDESCMAC computes the 8-byte CMAC (NIST SP 800-38B) of msg under a 24-byte
// triple-DES key.
func TDESCMAC(key, msg []byte) ([]byte, error) {
	const blockSize = des.BlockSize

	if len(key) != KEY_LENGTH_TRIPLE {
		return nil, fmt.Errorf("%w: %d", ErrKeyLength, len(key))
	}
	cipherBlock, err := des.NewTripleDESCipher(key)
	if err != nil {
		return nil, fmt.Errorf("tdes cipher init failed: %w", err)
	}

	k1, k2, err := deriveSubkeys(key)
	if err != nil {
		return nil, err
	}
	defer Zeroize(k1)
	defer Zeroize(k2)

	var (
		chained []byte // M_1 .. M_{n-1}
		last    []byte // M_n XOR K1, or padded M_n XOR K2
	)

	switch {
	case len(msg) == 0:
		padded := make([]byte, blockSize)
		padded[0] = ISO9797_METHOD2_PADDING_BYTE
		last, _ = XORBytes(padded, k2)
	case len(msg)%blockSize == 0:
		chained = msg[:len(msg)-blockSize]
		last, _ = XORBytes(msg[len(msg)-blockSize:], k1)
	default:
		partial := len(msg) % blockSize
		padded := make([]byte, blockSize)
		copy(padded, msg[len(msg)-partial:])
		padded[partial] = ISO9797_METHOD2_PADDING_BYTE
		chained = msg[:len(msg)-partial]
		last, _ = XORBytes(padded, k2)
	}

	x := make([]byte, blockSize)
	for i := 0; i < len(chained); i += blockSize {
		in, _ := XORBytes(x, chained[i:i+blockSize])
		cipherBlock.Encrypt(x, in)
	}

	in, _ := XORBytes(x, last)
	cipherBlock.Encrypt(x, in)

	return x, nil
}

// deriveSubkeys generates the CMAC subkeys k1, k2 for a 64-bit block cipher.
func deriveSubkeys(key []byte) ([]byte, []byte, error) {
	l, err := EncryptECB(key, make([]byte, des.BlockSize))
	if err != nil {
		return nil, nil, err
	}
	defer Zeroize(l)

	k1 := shiftSubkey(l)
	k2 := shiftSubkey(k1)

	return k1, k2, nil
}

// shiftSubkey shifts b left by one bit and XORs Rb into the last byte if the MSB was set.
func shiftSubkey(b []byte) []byte {
	const rb = 0x1B
	n := len(b)
	out := make([]byte, n)
	var carry byte

	for i := n - 1; i >= 0; i-- {
		out[i] = (b[i] << 1) | carry
		carry = (b[i] >> 7) & 0x01
	}

	if b[0]&0x80 != 0 {
		out[n-1] ^= rb
	}

	return out
}
