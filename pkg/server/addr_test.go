// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

//go:build !windows

package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitListenAddr(t *testing.T) {
	testCases := []struct {
		arg string

		expectedErr bool
		proto, addr string
	}{
		{
			arg:   "unix:///var/run/reqmetrics/reqmetrics.sock",
			proto: "unix",
			addr:  "/var/run/reqmetrics/reqmetrics.sock",
		}, {
			arg:   "localhost:54321",
			proto: "tcp",
			addr:  "localhost:54321",
		}, {
			arg:   "localhost",
			proto: "tcp",
			addr:  "localhost:54321",
		}, {
			// NB: expect error on relative paths
			arg:         "unix://var/run/reqmetrics/reqmetrics.sock",
			expectedErr: true,
		},
	}

	for _, c := range testCases {
		proto, addr, err := SplitListenAddr(c.arg)
		if c.expectedErr {
			assert.Error(t, err, c.arg)
			continue
		}
		require.NoError(t, err, c.arg)
		assert.Equal(t, c.proto, proto, c.arg)
		assert.Equal(t, c.addr, addr, c.arg)
	}
}

func TestHTTPAddrs(t *testing.T) {
	addrs, err := httpAddrs(":8080", 9090)
	require.NoError(t, err)
	assert.Equal(t, []string{":8080", ":9090"}, addrs)

	addrs, err = httpAddrs("127.0.0.1:9090", 9090)
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1:9090"}, addrs)

	addrs, err = httpAddrs("", 9090)
	require.NoError(t, err)
	assert.Equal(t, []string{":9090"}, addrs)

	_, err = httpAddrs("localhost", 9090)
	assert.Error(t, err)
}
