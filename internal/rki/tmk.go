package rki

import (
	"context"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/andrei-cloud/go_rki/internal/errorcodes"
	"github.com/andrei-cloud/go_rki/pkg/cryptoutils"
	"github.com/rs/zerolog/log"
)

// TMKPrefix marks a TMK string built with the default string-to-key parameters.
const TMKPrefix = "00008000"

// ExternalDecryptor performs RSA-OAEP decryption with SHA-256 for both the
// label hash and MGF1 outside the process.
type ExternalDecryptor interface {
	DecryptOAEPSHA256(ctx context.Context, pemData []byte, passphrase string, ciphertext []byte) ([]byte, error)
}

// Unwrapper decrypts RSA wrapped TMKs. The zero value uses native decryption only.
type Unwrapper struct {
	// Fallback, when set, is tried after native OAEP SHA-256 fails and before OAEP SHA-1.
	Fallback ExternalDecryptor
}

// UnwrapTMK decodes wrapped according to format, decrypts it with the private
// key in pemData and returns the TMK as lowercase hex. For FormatHex the
// TMKPrefix is prepended when missing.
func (u *Unwrapper) UnwrapTMK(
	ctx context.Context,
	pemData []byte,
	passphrase string,
	wrapped string,
	format Format,
) (string, error) {
	ciphertext, err := decodeWrapped(wrapped, format)
	if err != nil {
		return "", err
	}

	key, err := LoadPrivateKey(pemData, passphrase)
	if err != nil {
		return "", err
	}

	return u.unwrap(ctx, key, pemData, passphrase, ciphertext, format)
}

// UnwrapTMKWithKey is UnwrapTMK for a caller that already holds the parsed key.
// pemData and passphrase are only passed on to the external fallback.
func (u *Unwrapper) UnwrapTMKWithKey(
	ctx context.Context,
	key *rsa.PrivateKey,
	pemData []byte,
	passphrase string,
	wrapped string,
	format Format,
) (string, error) {
	ciphertext, err := decodeWrapped(wrapped, format)
	if err != nil {
		return "", err
	}

	return u.unwrap(ctx, key, pemData, passphrase, ciphertext, format)
}

func (u *Unwrapper) unwrap(
	ctx context.Context,
	key *rsa.PrivateKey,
	pemData []byte,
	passphrase string,
	ciphertext []byte,
	format Format,
) (string, error) {
	plain, err := u.decrypt(ctx, key, pemData, passphrase, ciphertext)
	if err != nil {
		return "", err
	}
	defer cryptoutils.Zeroize(plain)

	tmk := hex.EncodeToString(plain)
	if format == FormatHex && !strings.HasPrefix(tmk, TMKPrefix) {
		tmk = TMKPrefix + tmk
	}

	return tmk, nil
}

func decodeWrapped(wrapped string, format Format) ([]byte, error) {
	switch format {
	case FormatHex:
		b, err := hex.DecodeString(wrapped)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errorcodes.ErrDecode, err)
		}

		return b, nil
	case FormatBase64, "":
		b, err := base64.StdEncoding.Strict().DecodeString(wrapped)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errorcodes.ErrDecode, err)
		}

		return b, nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", errorcodes.ErrInputFormat, format)
	}
}

// decrypt runs the OAEP chain: SHA-256 natively, the external fallback if
// configured, then SHA-1 natively.
func (u *Unwrapper) decrypt(
	ctx context.Context,
	key *rsa.PrivateKey,
	pemData []byte,
	passphrase string,
	ciphertext []byte,
) ([]byte, error) {
	plain, err := rsa.DecryptOAEP(sha256.New(), nil, key, ciphertext, nil)
	if err == nil {
		log.Debug().Str("oaep", "sha256").Msg("TMK decrypted")

		return plain, nil
	}
	sha256Err := err

	if u.Fallback != nil {
		plain, err = u.Fallback.DecryptOAEPSHA256(ctx, pemData, passphrase, ciphertext)
		if err == nil && len(plain) > 0 {
			log.Debug().Str("oaep", "sha256-external").Msg("TMK decrypted")

			return plain, nil
		}
		log.Debug().Err(err).Msg("external OAEP SHA-256 decryption failed")
	}

	plain, err = rsa.DecryptOAEP(sha1.New(), nil, key, ciphertext, nil)
	if err == nil {
		log.Debug().Str("oaep", "sha1").Msg("TMK decrypted")

		return plain, nil
	}

	return nil, fmt.Errorf(
		"%w: TMK decryption failed with OAEP SHA-256 (%v) and SHA-1 (%v)",
		errorcodes.ErrAsymmetricDecrypt, sha256Err, err,
	)
}
