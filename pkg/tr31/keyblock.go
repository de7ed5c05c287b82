package tr31

import (
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	HeaderLength = 16
	blockSize    = 8
)

var (
	// ErrKeyBlockFormat reports a malformed key block or KBPK, detected before any cryptography.
	ErrKeyBlockFormat = errors.New("invalid key block format")
	// ErrKeyBlockDecryption reports a failure of the block cipher during unwrap.
	ErrKeyBlockDecryption = errors.New("key block decryption failed")
)

// Version is the key block version identifier, the first header character.
type Version byte

const (
	VersionA Version = 'A'
	VersionB Version = 'B'
	VersionD Version = 'D'
)

func (v Version) String() string {
	return string(rune(v))
}

// Valid reports whether the codec supports v.
func (v Version) Valid() bool {
	switch v {
	case VersionA, VersionB, VersionD:
		return true
	default:
		return false
	}
}

// MACLength returns the length in bytes of the trailing MAC for v.
func (v Version) MACLength() int {
	if v == VersionA {
		return 4
	}

	return 8
}

// minLength is the shortest text accepted for v: header, one encrypted
// block and the MAC, all but the header hex encoded.
func (v Version) minLength() int {
	return HeaderLength + 2*blockSize + 2*v.MACLength()
}

// KeyBlock is a parsed, still encrypted, key block.
type KeyBlock struct {
	Version      Version
	Header       []byte // 16 raw header characters.
	EncryptedKey []byte
	MAC          []byte
}

// Parse splits text into header, encrypted payload and MAC.
// It checks structure only and performs no cryptography.
func Parse(text string) (*KeyBlock, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty key block", ErrKeyBlockFormat)
	}

	v := Version(text[0])
	if !v.Valid() {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrKeyBlockFormat, text[0])
	}
	if len(text) < v.minLength() {
		return nil, fmt.Errorf(
			"%w: length %d below minimum %d for version %s",
			ErrKeyBlockFormat, len(text), v.minLength(), v,
		)
	}

	macHexLen := 2 * v.MACLength()
	payloadHex := text[HeaderLength : len(text)-macHexLen]
	macHex := text[len(text)-macHexLen:]

	encrypted, err := hex.DecodeString(payloadHex)
	if err != nil {
		return nil, fmt.Errorf("%w: encrypted key is not valid hex: %v", ErrKeyBlockFormat, err)
	}
	mac, err := hex.DecodeString(macHex)
	if err != nil {
		return nil, fmt.Errorf("%w: MAC is not valid hex: %v", ErrKeyBlockFormat, err)
	}

	return &KeyBlock{
		Version:      v,
		Header:       []byte(text[:HeaderLength]),
		EncryptedKey: encrypted,
		MAC:          mac,
	}, nil
}
