// Package errorcodes defines the failure kinds of the unwrap pipeline as coded values.
// Error holds the two-character code and human-readable description.
package errorcodes

import "errors"

// Predefined error instances.
var (
	ErrNone              = Error{"00", "No error"}
	ErrInputFormat       = Error{"15", "Invalid input data (invalid format, invalid characters, or not enough data provided)"}
	ErrDecode            = Error{"16", "Wrapped TMK is not valid base64 or hex"}
	ErrInternal          = Error{"41", "Internal error"}
	ErrSymmetricDecrypt  = Error{"42", "DES failure"}
	ErrKeyLoad           = Error{"49", "Private key error"}
	ErrUnknownCommand    = Error{"68", "Command has been disabled"}
	ErrKeyBlockFormat    = Error{"83", "Key block format error"}
	ErrAsymmetricDecrypt = Error{"87", "OAEP parameter error"}
	ErrTMKFormat         = Error{"BB", "Invalid wrapping key"}
)

// Error represents a pipeline failure with its code and description.
type Error struct {
	Code        string // two-character error code
	Description string // human-readable description
}

// Error implements the Go error interface: "<Code>: <Description>".
func (e Error) Error() string {
	return e.Code + ": " + e.Description
}

// CodeOnly returns only the error code (e.g., "68"), for embedding in responses.
func (e Error) CodeOnly() string {
	return e.Code
}

// CodeOf returns the code of the first Error in err's chain, or the internal
// error code when there is none.
func CodeOf(err error) string {
	if err == nil {
		return ErrNone.Code
	}
	var coded Error
	if errors.As(err, &coded) {
		return coded.Code
	}

	return ErrInternal.Code
}
