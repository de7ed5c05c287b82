// Package server exposes the key recovery commands over TCP.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	anetserver "github.com/andrei-cloud/anet/server"
	"github.com/andrei-cloud/go_rki/internal/errorcodes"
	"github.com/andrei-cloud/go_rki/internal/logging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

// Executor runs one command and returns the full response.
type Executor interface {
	Execute(ctx context.Context, cmd string, payload []byte) ([]byte, error)
}

// logAdapter implements anet.Logger using zerolog.
type logAdapter struct{}

// Server wraps the anet TCP server and the command executor.
type Server struct {
	address     string
	srv         *anetserver.Server
	exec        Executor
	activeConns atomic.Int64
	served      atomic.Uint64
}

func (l logAdapter) Print(v ...any) {
	log.Info().Msg(fmt.Sprint(v...))
}

func (l logAdapter) Printf(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func (l logAdapter) Infof(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func (l logAdapter) Warnf(format string, v ...any) {
	log.Warn().Msgf(format, v...)
}

func (l logAdapter) Errorf(format string, v ...any) {
	log.Error().Msgf(format, v...)
}

// NewServer configures and returns the server instance.
func NewServer(address string, exec Executor) (*Server, error) {
	if exec == nil {
		return nil, errors.New("server setup failed: nil executor")
	}

	cfg := &anetserver.ServerConfig{
		MaxConns:        100,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     0 * time.Second, // disable idle connection closure.
		ShutdownTimeout: 5 * time.Second,
		Logger:          logAdapter{},
	}

	s := &Server{
		address: address,
		exec:    exec,
	}
	handler := anetserver.HandlerFunc(s.handle)
	srv, err := anetserver.NewServer(address, handler, cfg)
	if err != nil {
		return nil, fmt.Errorf("server setup failed: %w", err)
	}
	s.srv = srv

	return s, nil
}

// Start begins listening for connections.
func (s *Server) Start() error {
	log.Info().Str("address", s.address).Msg("server started")

	return s.srv.Start()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	log.Info().Uint64("requests_served", s.served.Load()).Msg("server stopping")

	return s.srv.Stop()
}

// incrementCode returns the response code for cmd by incrementing the second character.
func incrementCode(cmd string) string {
	b := []byte(cmd)
	if len(b) < 2 {
		return cmd
	}
	if b[1] == 'Z' {
		b[1] = 'A'
	} else {
		b[1]++
	}

	return string(b)
}

// errorResponse builds the response code for cmd followed by the error code of err.
func errorResponse(cmd string, err error) []byte {
	return []byte(incrementCode(cmd) + errorcodes.CodeOf(err))
}

func (s *Server) handle(conn *anetserver.ServerConn, data []byte) ([]byte, error) {
	client := conn.Conn.RemoteAddr().String()
	requestID := uuid.NewString()
	s.activeConns.Inc()
	defer s.activeConns.Dec()
	defer s.served.Inc()

	start := time.Now()
	log.Debug().
		Str("event", "handle_start").
		Str("request_id", requestID).
		Str("client_ip", client).
		Msg("starting request handling")

	if len(data) < 2 {
		log.Error().Str("request_id", requestID).Str("client_ip", client).Msg("malformed request")

		return nil, errors.New("malformed request")
	}

	cmd := string(data[:2])
	logging.LogRequest(requestID, client, cmd, len(data), s.activeConns.Load())

	resp, execErr := s.exec.Execute(context.Background(), cmd, data[2:])
	if execErr != nil {
		if errors.Is(execErr, errorcodes.ErrUnknownCommand) {
			log.Warn().
				Str("event", "unknown_command").
				Str("request_id", requestID).
				Str("client_ip", client).
				Str("command", cmd).
				Msg("command not recognized, responding with error code")
		} else {
			log.Error().
				Str("event", "command_error").
				Str("request_id", requestID).
				Str("client_ip", client).
				Str("command", cmd).
				Err(execErr).
				Msg("command execution failed")
		}
		resp = errorResponse(cmd, execErr)
	}

	logging.LogResponse(
		requestID,
		client,
		cmd,
		string(resp[:min(2, len(resp))]),
		errorcodes.CodeOf(execErr),
		s.activeConns.Load(),
	)

	log.Debug().
		Str("event", "handle_done").
		Str("request_id", requestID).
		Str("duration", time.Since(start).String()).
		Msg("completed request handling")

	return resp, nil
}
