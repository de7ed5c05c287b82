package rki

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/andrei-cloud/go_rki/internal/errorcodes"
	"github.com/youmark/pkcs8"
)

// LoadPrivateKey parses an RSA private key from PEM data. Unencrypted PKCS#1 and
// PKCS#8 keys, legacy "Proc-Type: 4,ENCRYPTED" PEM and encrypted PKCS#8 are
// accepted. The passphrase is ignored for unencrypted keys.
func LoadPrivateKey(pemData []byte, passphrase string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", errorcodes.ErrKeyLoad)
	}

	der := block.Bytes
	//nolint:staticcheck // legacy encrypted PEM.
	if x509.IsEncryptedPEMBlock(block) {
		var err error
		//nolint:staticcheck // legacy encrypted PEM.
		der, err = x509.DecryptPEMBlock(block, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("%w: decrypt PEM: %v", errorcodes.ErrKeyLoad, err)
		}
	}

	switch block.Type {
	case "ENCRYPTED PRIVATE KEY":
		key, err := pkcs8.ParsePKCS8PrivateKeyRSA(der, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("%w: encrypted PKCS#8: %v", errorcodes.ErrKeyLoad, err)
		}

		return key, nil
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(der)
		if err != nil {
			return nil, fmt.Errorf("%w: PKCS#1: %v", errorcodes.ErrKeyLoad, err)
		}

		return key, nil
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(der)
		if err != nil {
			return nil, fmt.Errorf("%w: PKCS#8: %v", errorcodes.ErrKeyLoad, err)
		}
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: PKCS#8 key is %T, not RSA", errorcodes.ErrKeyLoad, parsed)
		}

		return key, nil
	default:
		return nil, fmt.Errorf("%w: unsupported PEM type %q", errorcodes.ErrKeyLoad, block.Type)
	}
}
