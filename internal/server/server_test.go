//nolint:all
package server_test

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/andrei-cloud/anet"
	"github.com/andrei-cloud/go_rki/internal/logic"
	"github.com/andrei-cloud/go_rki/internal/rki/rkitest"
	server "github.com/andrei-cloud/go_rki/internal/server"
	"github.com/andrei-cloud/go_rki/pkg/tr31/tr31test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTMK  = "0000800089e88cf7931444f334bd7547fc3f380c"
	testIPEK = "6AC292FAA1315B4D858AB3A3D7D5933A"
)

// freeAddr returns a loopback address with a currently unused port.
func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return addr
}

// startTestServer starts the server for testing.
func startTestServer(t *testing.T, svc server.Executor) string {
	t.Helper()
	addr := freeAddr(t)

	srv, err := server.NewServer(addr, svc)
	if err != nil {
		t.Fatalf("failed to initialize server: %v", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			t.Fatalf("server start error: %v", err)
		}
	case <-time.After(1 * time.Second):
		// Allow some time for the server to start
	}

	time.Sleep(100 * time.Millisecond)
	t.Cleanup(func() { srv.Stop() })

	return addr
}

// send delivers one request to addr through an anet broker and returns the response.
func send(t *testing.T, addr string, req []byte) []byte {
	t.Helper()

	factory := func(addr string) (anet.PoolItem, error) {
		conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
		if err != nil {
			return nil, err
		}

		if err := conn.SetDeadline(time.Now().Add(5 * time.Second)); err != nil {
			conn.Close()

			return nil, err
		}

		return conn, nil
	}

	pool := anet.NewPool(1, factory, addr, nil)
	defer pool.Close()

	broker := anet.NewBroker([]anet.Pool{pool}, 1, nil, nil)
	go broker.Start()
	defer broker.Close()

	resp, err := broker.Send(&req)
	require.NoError(t, err)

	return resp
}

func newService(t *testing.T) (*logic.Service, string) {
	t.Helper()

	key, err := rkitest.Key()
	require.NoError(t, err)
	svc, err := logic.NewService(rkitest.PKCS1PEM(key), "", nil)
	require.NoError(t, err)

	plain, err := hex.DecodeString(testTMK)
	require.NoError(t, err)
	wrapped, err := rkitest.WrapBase64SHA256(&key.PublicKey, plain)
	require.NoError(t, err)

	return svc, wrapped
}

// TestDiagnostics verifies the NC command reports the firmware version.
func TestDiagnostics(t *testing.T) {
	svc, _ := newService(t)
	resp := send(t, startTestServer(t, svc), []byte("NC"))
	assert.Equal(t, "ND00"+logic.FirmwareVersion, string(resp))
}

// TestRecoverIPEK verifies the K0 command returns the IPEK and its check value.
func TestRecoverIPEK(t *testing.T) {
	svc, wrapped := newService(t)
	addr := startTestServer(t, svc)

	kbpk, _ := hex.DecodeString(testTMK[8:])
	ipek, _ := hex.DecodeString(testIPEK)
	block, err := tr31test.Wrap(kbpk, tr31test.Header('A', len(ipek)), ipek)
	require.NoError(t, err)

	resp := send(t, addr, []byte(fmt.Sprintf("K0B%04d%s%s", len(wrapped), wrapped, block)))
	assert.True(t, strings.HasPrefix(string(resp), "K100AY"), string(resp))
	assert.True(t, strings.HasSuffix(string(resp), testIPEK), string(resp))
}

// TestCommandError verifies failures are answered with the response code and error code.
func TestCommandError(t *testing.T) {
	svc, wrapped := newService(t)
	resp := send(t, startTestServer(t, svc), []byte(fmt.Sprintf("K0B%04d%sC0072", len(wrapped), wrapped)))
	assert.Equal(t, "K183", string(resp))
}

// TestUnknownCommand verifies the server responds with incremented code and 68 for unknown commands.
func TestUnknownCommand(t *testing.T) {
	svc, _ := newService(t)
	resp := send(t, startTestServer(t, svc), []byte("ZZ0123"))

	if string(resp) != "ZA68" {
		t.Fatalf("unexpected error response: got %s, want %s", resp, "ZA68")
	}
}

func TestNewServerNilExecutor(t *testing.T) {
	_, err := server.NewServer("127.0.0.1:0", nil)
	assert.Error(t, err)
}

type staticExecutor struct{}

func (staticExecutor) Execute(context.Context, string, []byte) ([]byte, error) {
	return []byte("XY00"), nil
}

// TestExecutorInterface verifies any Executor can back the server.
func TestExecutorInterface(t *testing.T) {
	resp := send(t, startTestServer(t, staticExecutor{}), []byte("XX"))
	assert.Equal(t, "XY00", string(resp))
}
