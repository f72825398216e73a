// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"fmt"
	"strings"
)

// Kind is the type of a registered metric.
type Kind int

const (
	KindCounter Kind = iota
	KindGauge
	KindSummary
	KindHistogram
	KindInfo
	KindEnum
)

var kindNames = map[Kind]string{
	KindCounter:   "counter",
	KindGauge:     "gauge",
	KindSummary:   "summary",
	KindHistogram: "histogram",
	KindInfo:      "info",
	KindEnum:      "enum",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind returns the Kind named by s (case-insensitive).
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown metric kind %q", ErrInvalidMetricSpec, s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("%w: unknown metric kind %d", ErrInvalidMetricSpec, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so kinds can be spelled
// out in configuration files.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// supports reports whether op can be applied to metrics of kind k.
func (k Kind) supports(op operation) bool {
	switch op {
	case opIncrement, opDecrement:
		return k == KindCounter || k == KindGauge
	case opObserve:
		return k == KindCounter || k == KindGauge || k == KindSummary || k == KindHistogram
	case opSetInfo:
		return k == KindInfo
	case opSetState:
		return k == KindEnum
	}
	return false
}

type operation string

const (
	opIncrement operation = "increment"
	opDecrement operation = "decrement"
	opObserve   operation = "observe"
	opSetInfo   operation = "set info"
	opSetState  operation = "set state"
)
