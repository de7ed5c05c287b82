package tr31

import (
	"crypto/subtle"
	"fmt"
	"slices"

	"github.com/andrei-cloud/go_rki/pkg/cryptoutils"
)

// scheme holds everything that differs between key block versions.
type scheme interface {
	// deriveKeys returns the encryption and MAC keys (24 bytes each) for a triple length KBPK.
	deriveKeys(kbpk []byte) (kbek, kbmk []byte, err error)
	// iv returns the CBC initial vector for kb.
	iv(kb *KeyBlock) []byte
	// verifyMAC checks the MAC of kb given the decrypted payload.
	verifyMAC(kbmk []byte, kb *KeyBlock, decrypted []byte) (MACStatus, error)
}

func schemeFor(v Version) (scheme, error) {
	switch v {
	case VersionA:
		return variantScheme{}, nil
	case VersionB:
		return derivationScheme{checkMAC: true}, nil
	case VersionD:
		return derivationScheme{checkMAC: false}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported version %q", ErrKeyBlockFormat, byte(v))
	}
}

const (
	variantEncryption byte = 0x45 // 'E'
	variantMAC        byte = 0x4D // 'M'
)

// variantScheme implements version A: key variants and a truncated CBC-MAC.
type variantScheme struct{}

func (variantScheme) deriveKeys(kbpk []byte) ([]byte, []byte, error) {
	kbek := cryptoutils.TripleLengthKey(cryptoutils.XORConst(kbpk, variantEncryption))
	kbmk := cryptoutils.TripleLengthKey(cryptoutils.XORConst(kbpk, variantMAC))

	return kbek, kbmk, nil
}

func (variantScheme) iv(kb *KeyBlock) []byte {
	return kb.Header[:blockSize]
}

func (variantScheme) verifyMAC(kbmk []byte, kb *KeyBlock, _ []byte) (MACStatus, error) {
	expected, err := cryptoutils.CalculateMAC(
		slices.Concat(kb.Header, kb.EncryptedKey),
		kbmk,
		VersionA.MACLength(),
	)
	if err != nil {
		return MACFailed, err
	}

	return compareMAC(expected, kb.MAC), nil
}

// CMAC KDF input blocks: counter, key usage (0000 encryption, 0001 MAC),
// separator, algorithm (0000 = 2-key TDES) and length 0x0080 bits.
var (
	kdfEncryption = [2][]byte{
		{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80},
		{0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80},
	}
	kdfMAC = [2][]byte{
		{0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x80},
		{0x02, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x80},
	}
)

// derivationScheme implements versions B and D: CMAC derived keys and the
// MAC used as IV. Only version B checks its MAC.
type derivationScheme struct {
	checkMAC bool
}

func (derivationScheme) deriveKeys(kbpk []byte) ([]byte, []byte, error) {
	kbek, err := deriveKey(kbpk, kdfEncryption)
	if err != nil {
		return nil, nil, err
	}
	kbmk, err := deriveKey(kbpk, kdfMAC)
	if err != nil {
		cryptoutils.Zeroize(kbek)

		return nil, nil, err
	}

	return kbek, kbmk, nil
}

func deriveKey(kbpk []byte, inputs [2][]byte) ([]byte, error) {
	first, err := cryptoutils.TDESCMAC(kbpk, inputs[0])
	if err != nil {
		return nil, err
	}
	second, err := cryptoutils.TDESCMAC(kbpk, inputs[1])
	if err != nil {
		return nil, err
	}

	key := slices.Concat(first, second)
	defer cryptoutils.Zeroize(key)

	return cryptoutils.TripleLengthKey(key), nil
}

func (derivationScheme) iv(kb *KeyBlock) []byte {
	return kb.MAC[:blockSize]
}

func (s derivationScheme) verifyMAC(kbmk []byte, kb *KeyBlock, decrypted []byte) (MACStatus, error) {
	if !s.checkMAC {
		return MACNotApplicable, nil
	}

	expected, err := cryptoutils.TDESCMAC(kbmk, slices.Concat(kb.Header, decrypted))
	if err != nil {
		return MACFailed, err
	}

	return compareMAC(expected, kb.MAC), nil
}

func compareMAC(expected, actual []byte) MACStatus {
	if subtle.ConstantTimeCompare(expected, actual) == 1 {
		return MACVerified
	}

	return MACFailed
}
