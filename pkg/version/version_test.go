// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package version

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFprint(t *testing.T) {
	var buf bytes.Buffer
	BuildInfo{Version: "v1.2.0", GoVersion: "go1.22.3", Commit: "abc123", Modified: "true"}.Fprint(&buf)
	assert.Equal(t, "Version: v1.2.0\nGoVersion: go1.22.3\nGitCommit: abc123\nGitTreeState: dirty\n", buf.String())

	buf.Reset()
	BuildInfo{Version: "dev"}.Fprint(&buf)
	assert.Equal(t, "Version: dev\n", buf.String())
}

func TestTreeState(t *testing.T) {
	assert.Equal(t, "", BuildInfo{}.TreeState())
	assert.Equal(t, "dirty", BuildInfo{Modified: "true"}.TreeState())
	assert.Equal(t, "clean", BuildInfo{Modified: "false"}.TreeState())
}

func TestReadBuildInfo(t *testing.T) {
	info := ReadBuildInfo()
	assert.Equal(t, Version, info.Version)
}

func TestBuildInfoCollector(t *testing.T) {
	c := newBuildInfoCollector(&BuildInfo{Version: "v1.2.0", GoVersion: "go1.22.3", Commit: "abc123", Time: "2024-09-01T10:00:00Z", Modified: "false"})
	expected := `
# HELP reqmetrics_build_info Build information about reqmetrics
# TYPE reqmetrics_build_info gauge
reqmetrics_build_info{commit="abc123",go_version="go1.22.3",modified="false",time="2024-09-01T10:00:00Z",version="v1.2.0"} 1
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))
}
