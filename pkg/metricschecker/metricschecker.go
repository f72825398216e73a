// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metricschecker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	model "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// MetricsChecker is an interface for checking values of exported metrics in
// tests.
type MetricsChecker interface {
	Check(metrics map[string]*model.MetricFamily) error
}

// Checker creates a new MultiMetricsChecker that wraps other metrics checkers.
func Checker(checkers ...MetricsChecker) MetricsChecker {
	return &MultiMetricsChecker{
		checkers,
	}
}

// CheckUrl runs a metrics check on the exposition served at url.
func CheckUrl(ctx context.Context, checker MetricsChecker, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return CheckBytes(checker, body)
}

func getMetricFamilies(r io.Reader) (map[string]*model.MetricFamily, error) {
	var parser expfmt.TextParser
	return parser.TextToMetricFamilies(r)
}

// CheckText runs a metrics check on a string.
func CheckText(checker MetricsChecker, text string) error {
	return CheckBytes(checker, []byte(text))
}

// CheckBytes runs a metrics check on exposition text, as returned by
// Registry.Export.
func CheckBytes(checker MetricsChecker, text []byte) error {
	families, err := getMetricFamilies(bytes.NewReader(text))
	if err != nil {
		return err
	}
	return checker.Check(families)
}

func getMetric(metrics map[string]*model.MetricFamily, name string) (*model.MetricFamily, error) {
	metric, ok := metrics[name]
	if !ok {
		return nil, fmt.Errorf("no such metric %s", name)
	}
	if metric == nil {
		return nil, fmt.Errorf("nil metric %s", name)
	}
	return metric, nil
}

type MetricsCheckError struct {
	// Name of the metric
	name string
	// Inner error(s)
	inner []error
}

func (e *MetricsCheckError) Error() string {
	return fmt.Sprintf("'%s' checks failed: %v", e.name, e.Inner())
}

func (e *MetricsCheckError) Inner() error {
	return errors.Join(e.inner...)
}

func (e *MetricsCheckError) Unwrap() []error {
	return e.inner
}
