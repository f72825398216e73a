// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package option

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadDirConfig reads a directory holding one file per option, as produced
// by a Kubernetes ConfigMap volume. The file name is the option key and the
// trimmed file content its value. Hidden entries and directories are
// skipped, which also skips the ..data links of ConfigMap mounts.
func ReadDirConfig(dirName string) (map[string]any, error) {
	m := map[string]any{}
	files, err := os.ReadDir(dirName)
	if err != nil {
		return nil, fmt.Errorf("unable to read configuration directory: %w", err)
	}
	for _, f := range files {
		if strings.HasPrefix(f.Name(), ".") {
			continue
		}
		fName := filepath.Join(dirName, f.Name())

		// os.Stat follows the symlinks ConfigMaps are made of.
		st, err := os.Stat(fName)
		if err != nil {
			return nil, fmt.Errorf("unable to stat %s: %w", fName, err)
		}
		if !st.Mode().IsRegular() {
			continue
		}

		b, err := os.ReadFile(fName)
		if err != nil {
			return nil, fmt.Errorf("unable to read %s: %w", fName, err)
		}
		m[f.Name()] = strings.TrimSpace(string(b))
	}
	return m, nil
}
