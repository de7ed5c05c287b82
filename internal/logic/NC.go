package logic

import (
	"github.com/andrei-cloud/go_rki/internal/errorcodes"
	"github.com/rs/zerolog/log"
)

// ExecuteNC returns the diagnostics response: "ND00" + firmware version.
func ExecuteNC(firmware []byte) ([]byte, error) {
	if len(firmware) == 0 {
		return nil, errorcodes.ErrInputFormat
	}

	log.Debug().
		Str("event", "nc_diagnostics").
		Str("firmware", string(firmware)).
		Msg("diagnostics requested")

	resp := make([]byte, 0, 4+len(firmware))
	resp = append(resp, "ND00"...)
	resp = append(resp, firmware...)

	return resp, nil
}
