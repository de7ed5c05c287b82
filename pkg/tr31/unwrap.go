package tr31

import (
	"crypto/cipher"
	"crypto/des"
	"encoding/binary"
	"fmt"

	"github.com/andrei-cloud/go_rki/pkg/cryptoutils"
)

// MACStatus is the outcome of MAC verification. It is data, not an error.
type MACStatus int

const (
	MACNotApplicable MACStatus = iota
	MACVerified
	MACFailed
)

func (s MACStatus) String() string {
	switch s {
	case MACVerified:
		return "PASSED"
	case MACFailed:
		return "FAILED"
	default:
		return "Not applicable"
	}
}

// Result is the outcome of a successful unwrap.
type Result struct {
	Version  Version
	Header   []byte
	PlainKey []byte
	MAC      MACStatus
}

// KCV returns the 3-byte check value of the recovered key.
func (r *Result) KCV() ([]byte, error) {
	return cryptoutils.KeyCV(r.PlainKey, cryptoutils.KCV_LENGTH)
}

// Unwrap decrypts the key block text under kbpk and verifies its MAC where the
// version defines one. A MAC mismatch is reported in Result.MAC, not as an error.
func Unwrap(kbpk []byte, text string) (*Result, error) {
	if len(kbpk) == 0 {
		return nil, fmt.Errorf("%w: empty KBPK", ErrKeyBlockFormat)
	}

	kb, err := Parse(text)
	if err != nil {
		return nil, err
	}

	return kb.Unwrap(kbpk)
}

// Unwrap decrypts a parsed key block under kbpk.
func (kb *KeyBlock) Unwrap(kbpk []byte) (*Result, error) {
	s, err := schemeFor(kb.Version)
	if err != nil {
		return nil, err
	}

	protectionKey := cryptoutils.TripleLengthKey(kbpk)
	defer cryptoutils.Zeroize(protectionKey)

	kbek, kbmk, err := s.deriveKeys(protectionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: key derivation: %v", ErrKeyBlockDecryption, err)
	}
	defer cryptoutils.Zeroize(kbek)
	defer cryptoutils.Zeroize(kbmk)

	decrypted, err := decryptCBC(kbek, s.iv(kb), kb.EncryptedKey)
	if err != nil {
		return nil, err
	}
	defer cryptoutils.Zeroize(decrypted)

	status, err := s.verifyMAC(kbmk, kb, decrypted)
	if err != nil {
		return nil, fmt.Errorf("%w: MAC computation: %v", ErrKeyBlockDecryption, err)
	}

	return &Result{
		Version:  kb.Version,
		Header:   kb.Header,
		PlainKey: extractKey(decrypted),
		MAC:      status,
	}, nil
}

// decryptCBC decrypts src with TDES-CBC and no padding removal.
func decryptCBC(key, iv, src []byte) ([]byte, error) {
	if len(src) == 0 || len(src)%des.BlockSize != 0 {
		return nil, fmt.Errorf(
			"%w: encrypted key length %d is not a positive multiple of %d",
			ErrKeyBlockDecryption, len(src), des.BlockSize,
		)
	}

	block, err := des.NewTripleDESCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyBlockDecryption, err)
	}

	dst := make([]byte, len(src))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(dst, src)

	return dst, nil
}

// extractKey returns a copy of the key from the decrypted payload: a 2-byte
// big-endian length in bits, followed by the key and padding. A length that
// runs past the payload is clamped to it.
func extractKey(decrypted []byte) []byte {
	bits := int(binary.BigEndian.Uint16(decrypted[:2]))
	end := min(2+bits/8, len(decrypted))

	return append([]byte(nil), decrypted[2:end]...)
}
