package rki

import (
	"fmt"

	"github.com/andrei-cloud/go_rki/internal/errorcodes"
)

// Format is the text encoding of the wrapped TMK.
type Format string

const (
	FormatBase64 Format = "base64"
	FormatHex    Format = "hex"
)

// ParseFormat validates a format name. The empty string selects base64.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatBase64:
		return FormatBase64, nil
	case FormatHex:
		return FormatHex, nil
	default:
		return "", fmt.Errorf("%w: format must be 'base64' or 'hex', got %q", errorcodes.ErrInputFormat, s)
	}
}
