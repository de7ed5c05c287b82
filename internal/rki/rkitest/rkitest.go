// Package rkitest provides RSA fixtures for tests of the TMK unwrap pipeline.
package rkitest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"hash"
	"sync"

	"github.com/youmark/pkcs8"
)

var testKey = sync.OnceValues(func() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, 2048)
})

// Key returns a 2048-bit RSA key shared by all tests of the binary.
func Key() (*rsa.PrivateKey, error) {
	return testKey()
}

// PKCS1PEM encodes key as an unencrypted "RSA PRIVATE KEY".
func PKCS1PEM(key *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}

// PKCS8PEM encodes key as an unencrypted "PRIVATE KEY".
func PKCS8PEM(key *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, err
	}

	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// EncryptedPKCS8PEM encodes key as an "ENCRYPTED PRIVATE KEY" under passphrase.
func EncryptedPKCS8PEM(key *rsa.PrivateKey, passphrase string) ([]byte, error) {
	der, err := pkcs8.MarshalPrivateKey(key, []byte(passphrase), nil)
	if err != nil {
		return nil, err
	}

	return pem.EncodeToMemory(&pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: der}), nil
}

// LegacyEncryptedPEM encodes key as a "Proc-Type: 4,ENCRYPTED" PKCS#1 block.
func LegacyEncryptedPEM(key *rsa.PrivateKey, passphrase string) ([]byte, error) {
	//nolint:staticcheck // legacy encrypted PEM.
	block, err := x509.EncryptPEMBlock(
		rand.Reader,
		"RSA PRIVATE KEY",
		x509.MarshalPKCS1PrivateKey(key),
		[]byte(passphrase),
		x509.PEMCipherAES256,
	)
	if err != nil {
		return nil, err
	}

	return pem.EncodeToMemory(block), nil
}

// WrapOAEP encrypts plain for key with OAEP using h for label and MGF1.
func WrapOAEP(key *rsa.PublicKey, h hash.Hash, plain []byte) ([]byte, error) {
	return rsa.EncryptOAEP(h, rand.Reader, key, plain, nil)
}

// WrapBase64SHA256 returns plain wrapped with OAEP SHA-256, base64 encoded.
func WrapBase64SHA256(key *rsa.PublicKey, plain []byte) (string, error) {
	ct, err := WrapOAEP(key, sha256.New(), plain)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(ct), nil
}
