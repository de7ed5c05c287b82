package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// output is where all log events go. Standard output carries command results only.
var output io.Writer = os.Stderr

// InitLogger initializes the zerolog logger with the specified debug mode and output format.
func InitLogger(debug, human bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano               // always initialize base logger with timestamp.
	base := zerolog.New(output).With().Timestamp().Logger() // initialize base logger.
	if human {
		log.Logger = base.Output(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339Nano,
		}) // select output format.
	} else {
		log.Logger = base // use JSON logger.
	}
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel) // set debug level.
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel) // set info level.
	}
}

// Configure normalizes the configured level and format and initializes the logger.
func Configure(level, format string) {
	level = strings.TrimSpace(strings.ToLower(level))
	format = strings.TrimSpace(strings.ToLower(format))
	InitLogger(level == "debug", format == "human")
}

// LogRequest logs a received command with structured fields.
// Request bodies carry key material and are never logged, only their length.
func LogRequest(
	requestID string,
	clientIP string,
	command string,
	requestLen int,
	activeConns int64,
) {
	log.Info().
		Str("event", "request_received").
		Str("request_id", requestID).
		Str("client_ip", clientIP).
		Str("command", command).
		Int("request_length", requestLen).
		Int64("active_connections", activeConns).
		Msg("received command")
}

// LogResponse logs a sent response with structured fields.
func LogResponse(
	requestID string,
	clientIP string,
	command string,
	responseCommand string,
	errorCode string,
	activeConns int64,
) {
	log.Info().
		Str("event", "response_sent").
		Str("request_id", requestID).
		Str("client_ip", clientIP).
		Str("command", command).
		Str("response_command", responseCommand).
		Str("error_code", errorCode).
		Int64("active_connections", activeConns).
		Msg("sent response")
}

// LogExtraction logs the non-secret outcome of an IPEK extraction.
func LogExtraction(version string, macStatus string, kcv string) {
	log.Info().
		Str("event", "ipek_extracted").
		Str("version", version).
		Str("mac", macStatus).
		Str("kcv", kcv).
		Msg("key block unwrapped")
}
