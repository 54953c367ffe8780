// Copyright (c) 2026, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package checks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/config"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

// HTTPChecker reports up when the final response status is in [200, 400).
type HTTPChecker struct {
	runner *httpRunner
}

// NewHTTPChecker creates the plain http checker
func NewHTTPChecker(cfg config.ChecksConfig) *HTTPChecker {
	return &HTTPChecker{runner: newHTTPRunner(cfg)}
}

func (c *HTTPChecker) Check(ctx context.Context, monitor *models.Monitor) models.CheckResult {
	outcome, fail := c.runner.fetch(ctx, monitor, 0)
	if fail != nil {
		return *fail
	}
	details := strconv.Itoa(outcome.statusCode)
	if outcome.statusCode >= 200 && outcome.statusCode < 400 {
		return success(details, outcome.elapsed)
	}
	return failure(details, outcome.elapsed, nil)
}

// HTTPStatusChecker reports up when the response status matches the
// monitor's configured list or ranges, e.g. "200,204,301-399".
type HTTPStatusChecker struct {
	runner *httpRunner
}

// NewHTTPStatusChecker creates the http-status checker
func NewHTTPStatusChecker(cfg config.ChecksConfig) *HTTPStatusChecker {
	return &HTTPStatusChecker{runner: newHTTPRunner(cfg)}
}

func (c *HTTPStatusChecker) Check(ctx context.Context, monitor *models.Monitor) models.CheckResult {
	expected := utils.StrPointerAsStr(monitor.StatusCode, "")
	if expected == "" {
		return failure("missing statusCode", 0, fmt.Errorf("monitor %s has no statusCode", monitor.ID))
	}
	match, err := statusMatcher(expected)
	if err != nil {
		return failure("invalid statusCode", 0, err)
	}

	outcome, fail := c.runner.fetch(ctx, monitor, 0)
	if fail != nil {
		return *fail
	}
	details := strconv.Itoa(outcome.statusCode)
	if match(outcome.statusCode) {
		return success(details, outcome.elapsed)
	}
	return failure(details, outcome.elapsed, nil)
}

// statusMatcher parses a comma-separated list of codes and inclusive ranges.
func statusMatcher(expected string) (func(int) bool, error) {
	type span struct{ low, high int }
	var spans []span
	for _, part := range strings.Split(expected, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if low, high, found := strings.Cut(part, "-"); found {
			lowN, err := strconv.Atoi(strings.TrimSpace(low))
			if err != nil {
				return nil, fmt.Errorf("bad status range %q: %w", part, err)
			}
			highN, err := strconv.Atoi(strings.TrimSpace(high))
			if err != nil {
				return nil, fmt.Errorf("bad status range %q: %w", part, err)
			}
			spans = append(spans, span{lowN, highN})
			continue
		}
		code, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad status code %q: %w", part, err)
		}
		spans = append(spans, span{code, code})
	}
	if len(spans) == 0 {
		return nil, fmt.Errorf("empty status code list %q", expected)
	}
	return func(status int) bool {
		for _, s := range spans {
			if status >= s.low && status <= s.high {
				return true
			}
		}
		return false
	}, nil
}

// HTTPKeywordChecker reports up when the configured keyword appears within
// the first KeywordMaxBodyBytes of a successful response body.
type HTTPKeywordChecker struct {
	runner *httpRunner
	cfg    config.ChecksConfig
}

// NewHTTPKeywordChecker creates the http-keyword checker
func NewHTTPKeywordChecker(cfg config.ChecksConfig) *HTTPKeywordChecker {
	return &HTTPKeywordChecker{runner: newHTTPRunner(cfg), cfg: cfg}
}

func (c *HTTPKeywordChecker) Check(ctx context.Context, monitor *models.Monitor) models.CheckResult {
	keyword := utils.StrPointerAsStr(monitor.Keyword, "")
	if keyword == "" {
		return failure("missing keyword", 0, fmt.Errorf("monitor %s has no keyword", monitor.ID))
	}

	outcome, fail := c.runner.fetch(ctx, monitor, c.cfg.KeywordMaxBodyBytes)
	if fail != nil {
		return *fail
	}
	if outcome.statusCode < 200 || outcome.statusCode >= 400 {
		return failure(strconv.Itoa(outcome.statusCode), outcome.elapsed, nil)
	}
	if bytes.Contains(outcome.body, []byte(keyword)) {
		return success("keyword found", outcome.elapsed)
	}
	return failure("keyword not found", outcome.elapsed, nil)
}

// HTTPHeaderChecker reports up when the named response header matches the
// expected value. An expected value wrapped in slashes, e.g. /gzip|br/, is
// treated as a regular expression.
type HTTPHeaderChecker struct {
	runner *httpRunner
}

// NewHTTPHeaderChecker creates the http-header checker
func NewHTTPHeaderChecker(cfg config.ChecksConfig) *HTTPHeaderChecker {
	return &HTTPHeaderChecker{runner: newHTTPRunner(cfg)}
}

func (c *HTTPHeaderChecker) Check(ctx context.Context, monitor *models.Monitor) models.CheckResult {
	headerName := utils.StrPointerAsStr(monitor.HeaderName, "")
	expected := utils.StrPointerAsStr(monitor.ExpectedValue, "")
	if headerName == "" || expected == "" {
		return failure("missing headerName or expectedValue", 0,
			fmt.Errorf("monitor %s is missing header check fields", monitor.ID))
	}

	outcome, fail := c.runner.fetch(ctx, monitor, 0)
	if fail != nil {
		return *fail
	}
	actual := outcome.header.Get(headerName)
	if actual == "" {
		return failure("header absent", outcome.elapsed, nil)
	}

	matched, err := matchExactOrRegex(actual, expected)
	if err != nil {
		return failure("invalid expectedValue pattern", outcome.elapsed, err)
	}
	if matched {
		return success("header matched", outcome.elapsed)
	}
	return failure("header mismatch", outcome.elapsed, nil)
}

func matchExactOrRegex(actual, expected string) (bool, error) {
	if len(expected) > 2 && strings.HasPrefix(expected, "/") && strings.HasSuffix(expected, "/") {
		pattern, err := regexp.Compile(expected[1 : len(expected)-1])
		if err != nil {
			return false, err
		}
		return pattern.MatchString(actual), nil
	}
	return actual == expected, nil
}

// HTTPJSONChecker reports up when the JSON response resolves the configured
// path to the configured value.
type HTTPJSONChecker struct {
	runner *httpRunner
	cfg    config.ChecksConfig
}

// NewHTTPJSONChecker creates the http-json checker
func NewHTTPJSONChecker(cfg config.ChecksConfig) *HTTPJSONChecker {
	return &HTTPJSONChecker{runner: newHTTPRunner(cfg), cfg: cfg}
}

func (c *HTTPJSONChecker) Check(ctx context.Context, monitor *models.Monitor) models.CheckResult {
	path := utils.StrPointerAsStr(monitor.JSONPath, "")
	expected := utils.StrPointerAsStr(monitor.ExpectedValue, "")
	if path == "" || expected == "" {
		return failure("missing jsonPath or expectedValue", 0,
			fmt.Errorf("monitor %s is missing json check fields", monitor.ID))
	}

	outcome, fail := c.runner.fetch(ctx, monitor, c.cfg.KeywordMaxBodyBytes)
	if fail != nil {
		return *fail
	}
	if outcome.statusCode < 200 || outcome.statusCode >= 400 {
		return failure(strconv.Itoa(outcome.statusCode), outcome.elapsed, nil)
	}
	if !gjson.ValidBytes(outcome.body) {
		return failure("invalid json body", outcome.elapsed, nil)
	}

	value := gjson.GetBytes(outcome.body, path)
	if !value.Exists() {
		return failure("json path not found", outcome.elapsed, nil)
	}
	if value.String() == expected {
		return success("json value matched", outcome.elapsed)
	}
	return failure(fmt.Sprintf("json value %q did not match", value.String()), outcome.elapsed, nil)
}

// HTTPLatencyChecker reports up when a successful response arrives within
// the configured latency threshold.
type HTTPLatencyChecker struct {
	runner *httpRunner
}

// NewHTTPLatencyChecker creates the http-latency checker
func NewHTTPLatencyChecker(cfg config.ChecksConfig) *HTTPLatencyChecker {
	return &HTTPLatencyChecker{runner: newHTTPRunner(cfg)}
}

func (c *HTTPLatencyChecker) Check(ctx context.Context, monitor *models.Monitor) models.CheckResult {
	threshold := utils.Int64PointerAsInt64(monitor.LatencyThresholdMs, 0)
	if threshold <= 0 {
		return failure("missing latencyThresholdMs", 0,
			fmt.Errorf("monitor %s has no latencyThresholdMs", monitor.ID))
	}

	outcome, fail := c.runner.fetch(ctx, monitor, 0)
	if fail != nil {
		return *fail
	}
	if outcome.statusCode < 200 || outcome.statusCode >= 400 {
		return failure(strconv.Itoa(outcome.statusCode), outcome.elapsed, nil)
	}
	details := fmt.Sprintf("%dms <= %dms", outcome.elapsed.Milliseconds(), threshold)
	if outcome.elapsed.Milliseconds() <= threshold {
		return success(details, outcome.elapsed)
	}
	return failure(fmt.Sprintf("%dms > %dms", outcome.elapsed.Milliseconds(), threshold), outcome.elapsed, nil)
}

// readAtMost reads the body up to the byte cap without failing on bodies
// larger than the cap.
func readAtMost(r io.Reader, maxBytes int64) ([]byte, error) {
	var buf bytes.Buffer
	_, err := io.Copy(&buf, io.LimitReader(r, maxBytes))
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf.Bytes(), nil
}
