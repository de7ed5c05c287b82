package rki

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/andrei-cloud/go_rki/internal/errorcodes"
	"github.com/andrei-cloud/go_rki/pkg/cryptoutils"
	"github.com/andrei-cloud/go_rki/pkg/tr31"
)

// NormalizeKeyBlock strips the optional 'R' key scheme tag of a TR-31 block.
func NormalizeKeyBlock(keyBlock string) string {
	return strings.TrimPrefix(keyBlock, "R")
}

// IPEKFromTMK unwraps keyBlock with the KBPK carried by tmk.
func IPEKFromTMK(tmk, keyBlock string) (*tr31.Result, error) {
	if !strings.HasPrefix(tmk, TMKPrefix) {
		return nil, fmt.Errorf("%w: TMK does not start with %s", errorcodes.ErrTMKFormat, TMKPrefix)
	}

	kbpk, err := hex.DecodeString(strings.TrimPrefix(tmk, TMKPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: KBPK is not valid hex: %v", errorcodes.ErrTMKFormat, err)
	}
	defer cryptoutils.Zeroize(kbpk)
	if len(kbpk) == 0 {
		return nil, fmt.Errorf("%w: empty KBPK", errorcodes.ErrTMKFormat)
	}

	res, err := tr31.Unwrap(kbpk, keyBlock)
	switch {
	case errors.Is(err, tr31.ErrKeyBlockFormat):
		return nil, fmt.Errorf("%w: %v", errorcodes.ErrKeyBlockFormat, err)
	case errors.Is(err, tr31.ErrKeyBlockDecryption):
		return nil, fmt.Errorf("%w: %v", errorcodes.ErrSymmetricDecrypt, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", errorcodes.ErrInternal, err)
	}

	return res, nil
}

// Extraction is the outcome of the full pipeline.
type Extraction struct {
	TMK    string
	Result *tr31.Result
}

// ExtractIPEK decrypts the wrapped TMK and unwraps keyBlock with it.
func (u *Unwrapper) ExtractIPEK(
	ctx context.Context,
	pemData []byte,
	passphrase string,
	wrapped string,
	keyBlock string,
	format Format,
) (*Extraction, error) {
	tmk, err := u.UnwrapTMK(ctx, pemData, passphrase, wrapped, format)
	if err != nil {
		return nil, err
	}

	res, err := IPEKFromTMK(tmk, NormalizeKeyBlock(keyBlock))
	if err != nil {
		return nil, err
	}

	return &Extraction{TMK: tmk, Result: res}, nil
}
