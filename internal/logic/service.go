// Package logic provides business logic for the key recovery commands.
package logic

import (
	"context"
	"crypto/rsa"
	"fmt"

	"github.com/andrei-cloud/go_rki/internal/errorcodes"
	"github.com/andrei-cloud/go_rki/internal/rki"
)

// FirmwareVersion is reported by the NC command.
const FirmwareVersion = "0001-R031"

// Service executes commands against one host private key.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	key        *rsa.PrivateKey
	pemData    []byte
	passphrase string
	unwrapper  *rki.Unwrapper
}

// NewService parses the private key once. A nil unwrapper selects native decryption only.
func NewService(pemData []byte, passphrase string, u *rki.Unwrapper) (*Service, error) {
	key, err := rki.LoadPrivateKey(pemData, passphrase)
	if err != nil {
		return nil, fmt.Errorf("load host key: %w", err)
	}
	if u == nil {
		u = &rki.Unwrapper{}
	}

	return &Service{
		key:        key,
		pemData:    pemData,
		passphrase: passphrase,
		unwrapper:  u,
	}, nil
}

// Execute runs the command cmd with payload and returns the full response.
func (s *Service) Execute(ctx context.Context, cmd string, payload []byte) ([]byte, error) {
	switch cmd {
	case "NC":
		return ExecuteNC([]byte(FirmwareVersion))
	case "K0":
		return s.ExecuteK0(ctx, payload)
	default:
		return nil, errorcodes.ErrUnknownCommand
	}
}
