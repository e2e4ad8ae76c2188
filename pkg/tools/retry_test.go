package tools

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0

	err := Retry("test", func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, RetryStandardRetryCount, RetryStandardNoWaitTime)

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	permanent := errors.New("permanent")

	err := Retry("test", func() error {
		calls++
		return permanent
	}, RetryStandardRetryCount, RetryStandardNoWaitTime)

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, RetryStandardRetryCount, calls)
}

func TestIsLocalPortFree(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	busyPort := listener.Addr().(*net.TCPAddr).Port
	assert.False(t, IsLocalPortFree(busyPort))
}
