// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package version

import (
	"fmt"
	"io"
	"runtime/debug"
)

// Version is set at link time with -X.
var Version = "dev"

type BuildInfo struct {
	Version   string
	GoVersion string
	Commit    string
	Time      string
	Modified  string
}

func ReadBuildInfo() *BuildInfo {
	info := &BuildInfo{Version: Version}
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = buildInfo.GoVersion
	for _, s := range buildInfo.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
		case "vcs.time":
			info.Time = s.Value
		case "vcs.modified":
			info.Modified = s.Value
		}
	}
	return info
}

// TreeState returns "dirty", "clean" or "" when unknown.
func (info BuildInfo) TreeState() string {
	switch info.Modified {
	case "":
		return ""
	case "true":
		return "dirty"
	default:
		return "clean"
	}
}

// Fprint writes the known fields of info to w, one per line.
func (info BuildInfo) Fprint(w io.Writer) {
	fmt.Fprintf(w, "Version: %s\n", info.Version)
	if info.GoVersion != "" {
		fmt.Fprintf(w, "GoVersion: %s\n", info.GoVersion)
	}
	if info.Time != "" {
		fmt.Fprintf(w, "Date: %s\n", info.Time)
	}
	if info.Commit != "" {
		fmt.Fprintf(w, "GitCommit: %s\n", info.Commit)
	}
	if state := info.TreeState(); state != "" {
		fmt.Fprintf(w, "GitTreeState: %s\n", state)
	}
}
