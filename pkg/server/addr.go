// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package server

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cilium/reqmetrics/pkg/defaults"
)

// SplitListenAddr splits the user-provided gRPC address arg to a proto and
// an address field to be used with net.Listen.
//
// addresses can be:
//
//	unix://absolute_path for unix sockets
//	<host>:<port> for TCP (more specifically, an address that can be passed to net.Listen)
//
// A TCP address without a port gets the port of defaults.GRPCAddress.
func SplitListenAddr(arg string) (string, string, error) {
	if path, ok := strings.CutPrefix(arg, "unix://"); ok {
		if !filepath.IsAbs(path) {
			return "", "", fmt.Errorf("path %s (%s) is not absolute", path, arg)
		}
		return "unix", path, nil
	}

	if !strings.Contains(arg, ":") {
		_, port, _ := net.SplitHostPort(defaults.GRPCAddress)
		arg = net.JoinHostPort(arg, port)
	}

	// assume everything else is TCP to support strings such as "localhost:51234" and let
	// net.Listen figure things out.
	return "tcp", arg, nil
}

// httpAddrs returns the addresses of the HTTP listeners: the application
// address, plus a listener on scrapePort unless the application address
// already uses that port.
func httpAddrs(serverAddress string, scrapePort int) ([]string, error) {
	scrapeAddr := net.JoinHostPort("", strconv.Itoa(scrapePort))
	if serverAddress == "" {
		return []string{scrapeAddr}, nil
	}
	_, p, err := net.SplitHostPort(serverAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", serverAddress, err)
	}
	if p == strconv.Itoa(scrapePort) {
		return []string{serverAddress}, nil
	}
	return []string{serverAddress, scrapeAddr}, nil
}
