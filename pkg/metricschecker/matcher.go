// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metricschecker

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Number is anything a sample value can be compared as.
type Number interface {
	constraints.Integer | constraints.Float
}

// NumericMatcher matches the value of one sample.
type NumericMatcher[N Number] interface {
	Match(actual N) error
}

// MatchFunc adapts a function to NumericMatcher.
type MatchFunc[N Number] func(actual N) error

func (f MatchFunc[N]) Match(actual N) error {
	return f(actual)
}

func matching[N Number](ok func(N) bool, want string) MatchFunc[N] {
	return func(actual N) error {
		if ok(actual) {
			return nil
		}
		return fmt.Errorf("got %v, expected %s", actual, want)
	}
}

func Equal[N Number](expected N) MatchFunc[N] {
	return matching(func(n N) bool { return n == expected }, fmt.Sprintf("%v", expected))
}

func AtLeast[N Number](min N) MatchFunc[N] {
	return matching(func(n N) bool { return n >= min }, fmt.Sprintf(">= %v", min))
}

func AtMost[N Number](max N) MatchFunc[N] {
	return matching(func(n N) bool { return n <= max }, fmt.Sprintf("<= %v", max))
}

// Range matches values in [left, right).
func Range[N Number](left, right N) MatchFunc[N] {
	return matching(func(n N) bool { return n >= left && n < right }, fmt.Sprintf("in [%v, %v)", left, right))
}

// Approx matches values within delta of expected, for sums of float
// observations.
func Approx[N constraints.Float](expected, delta N) MatchFunc[N] {
	return matching(func(n N) bool {
		d := n - expected
		return d <= delta && -d <= delta
	}, fmt.Sprintf("%v ± %v", expected, delta))
}
