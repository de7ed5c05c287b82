package logic

import (
	"context"
	"fmt"

	"github.com/andrei-cloud/go_rki/internal/errorcodes"
	"github.com/andrei-cloud/go_rki/internal/logging"
	"github.com/andrei-cloud/go_rki/internal/message"
	"github.com/andrei-cloud/go_rki/internal/rki"
	"github.com/andrei-cloud/go_rki/pkg/cryptoutils"
	"github.com/andrei-cloud/go_rki/pkg/tr31"
	"github.com/rs/zerolog/log"
)

// ExecuteK0 recovers the IPEK from a wrapped TMK and a TR-31 key block.
//
// Request:  format(1: B|H) + TMK length(4 decimal) + wrapped TMK + key block.
// Response: "K100" + version(1) + MAC flag(1: Y|N|-) + KCV(6) + IPEK hex.
func (s *Service) ExecuteK0(ctx context.Context, input []byte) ([]byte, error) {
	msg, err := message.NewK0(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errorcodes.ErrInputFormat, err)
	}
	log.Debug().Str("event", "k0_parsed").Msg(msg.Trace())

	var format rki.Format
	switch f := msg.Get(message.FieldFormat); f[0] {
	case 'B':
		format = rki.FormatBase64
	case 'H':
		format = rki.FormatHex
	default:
		log.Debug().
			Str("event", "k0_validation_error").
			Str("format", string(f)).
			Msg("invalid TMK format")

		return nil, errorcodes.ErrInputFormat
	}
	wrapped := string(msg.Get(message.FieldTMK))
	keyBlock := rki.NormalizeKeyBlock(string(msg.Get(message.FieldKeyBlock)))

	tmk, err := s.unwrapper.UnwrapTMKWithKey(ctx, s.key, s.pemData, s.passphrase, wrapped, format)
	if err != nil {
		log.Debug().Str("event", "k0_tmk_error").Err(err).Msg("TMK decryption failed")

		return nil, err
	}

	res, err := rki.IPEKFromTMK(tmk, keyBlock)
	if err != nil {
		log.Debug().Str("event", "k0_keyblock_error").Err(err).Msg("IPEK extraction failed")

		return nil, err
	}

	// Keys of non-DES length have no check value.
	kcv := "------"
	if raw, err := res.KCV(); err == nil {
		kcv = cryptoutils.Raw2Str(raw)
	}

	logging.LogExtraction(res.Version.String(), res.MAC.String(), kcv)

	resp := make([]byte, 0, 4+2+2*cryptoutils.KCV_LENGTH+2*len(res.PlainKey))
	resp = append(resp, "K100"...)
	resp = append(resp, byte(res.Version), macFlag(res.MAC))
	resp = append(resp, kcv...)
	resp = append(resp, cryptoutils.Raw2Str(res.PlainKey)...)

	return resp, nil
}

func macFlag(s tr31.MACStatus) byte {
	switch s {
	case tr31.MACVerified:
		return 'Y'
	case tr31.MACFailed:
		return 'N'
	default:
		return '-'
	}
}
