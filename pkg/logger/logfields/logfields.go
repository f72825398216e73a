// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package logfields

const (
	// LogSubsys is the field denoting the subsystem when logging
	LogSubsys = "subsys"

	// Error is the Go error
	Error = "error"

	// Metric is the name of a registered metric
	Metric = "metric"
	Kind   = "kind"

	Method = "method"
	Path   = "path"
	Status = "status"

	// Pid of a multiprocess shard owner
	Pid = "pid"

	Addr     = "addr"
	Listener = "listener"
	Dir      = "dir"
	File     = "file"

	Matcher = "matcher"
)
