// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package unixlisten

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// ListenWithRename creates a "unix" listener for path whose socket file has
// the given mode from the moment it is visible.
//
// Calling chmod after net.Listen leaves a window where a client can connect
// with the default permissions, and umask is process wide. The socket is
// therefore bound in a private directory, chmoded there, and renamed into
// place.
func ListenWithRename(path string, mode os.FileMode) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing stale socket %s: %w", path, err)
	}

	baseName := filepath.Base(path)
	// MkdirTemp creates the directory with 0700
	tmpDir, err := os.MkdirTemp(filepath.Dir(path), baseName+"-dir-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, baseName)
	l, err := net.Listen("unix", tmpPath)
	if err != nil {
		return nil, err
	}
	// the listener would unlink tmpPath on Close, not path
	l.(*net.UnixListener).SetUnlinkOnClose(false)

	if err := os.Chmod(tmpPath, mode); err != nil {
		l.Close()
		return nil, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		l.Close()
		return nil, err
	}
	return &listener{Listener: l, path: path}, nil
}

// listener removes the renamed socket file on Close.
type listener struct {
	net.Listener
	path string
}

func (l *listener) Close() error {
	err := l.Listener.Close()
	os.Remove(l.path)
	return err
}
