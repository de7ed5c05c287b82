package message

import (
	"errors"
	"fmt"
	"strconv"
)

// K0 field names.
const (
	FieldFormat    = "Format"
	FieldTMKLength = "TMK Length"
	FieldTMK       = "Wrapped TMK"
	FieldKeyBlock  = "Key Block"
)

// ErrMalformed reports a payload that does not match the command layout.
var ErrMalformed = errors.New("malformed message")

// NewK0 parses a K0 Recover IPEK payload:
// format(1) + TMK length(4 decimal) + wrapped TMK + key block.
func NewK0(data []byte) (*BaseMessage, error) {
	m := NewBaseMessage("K0", "Recover IPEK from wrapped TMK")
	if len(data) < 5 {
		return nil, fmt.Errorf("%w: K0 payload of %d bytes", ErrMalformed, len(data))
	}
	// Format (1).
	m.Fields[FieldFormat], data = data[:1], data[1:]
	// TMK Length (4).
	m.Fields[FieldTMKLength], data = data[:4], data[4:]

	n, err := strconv.Atoi(string(m.Fields[FieldTMKLength]))
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("%w: invalid TMK length field %q", ErrMalformed, m.Fields[FieldTMKLength])
	}
	if len(data) < n {
		return nil, fmt.Errorf("%w: TMK length %d exceeds payload", ErrMalformed, n)
	}
	// Wrapped TMK (n), key block (rest).
	m.Fields[FieldTMK], m.Fields[FieldKeyBlock] = data[:n], data[n:]

	return m, nil
}
