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

// Package checks implements the per-monitor-type check executors. Every
// checker honors the caller's cancellation signal, clamps its network I/O to
// the monitor's timeout and returns a result without touching storage or
// event buses.
package checks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/config"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
)

// ErrTooManyRedirects aborts HTTP checks that bounce past the redirect cap.
var ErrTooManyRedirects = errors.New("too many redirects")

// hostLimiters shapes outbound HTTP request rates per target host so a storm
// of failing monitors cannot hammer one endpoint.
type hostLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
	burst    int
}

func newHostLimiters(perSecond, burst int) *hostLimiters {
	return &hostLimiters{
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(perSecond),
		burst:    burst,
	}
}

// wait blocks until the host's token bucket admits one request or ctx fires.
func (h *hostLimiters) wait(ctx context.Context, host string) error {
	h.mu.Lock()
	limiter, ok := h.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(h.perHost, h.burst)
		h.limiters[host] = limiter
	}
	h.mu.Unlock()
	return limiter.Wait(ctx)
}

// httpRunner is the transport shared by the HTTP-family checkers: a
// retrying client per check bounded by the monitor's retryAttempts, bounded
// redirect following and the per-host rate limiter.
type httpRunner struct {
	cfg      config.ChecksConfig
	limiters *hostLimiters
}

func newHTTPRunner(cfg config.ChecksConfig) *httpRunner {
	return &httpRunner{
		cfg:      cfg,
		limiters: newHostLimiters(cfg.RateLimitPerHost, cfg.RateBurstPerHost),
	}
}

// newClient builds the retrying HTTP client for one check execution.
// RetryMax comes from the monitor so a check's internal retries stay
// distinct from the scheduler's backoff.
func (r *httpRunner) newClient(monitor *models.Monitor) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = monitor.RetryAttempts
	client.RetryWaitMin = 250 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil
	// Retry transport errors only. Response statuses, including 5xx, are
	// verdicts for the evaluators, not conditions to retry away.
	client.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return !errors.Is(err, ErrTooManyRedirects), nil
		}
		return false, nil
	}
	client.HTTPClient = &http.Client{
		Timeout: time.Duration(monitor.TimeoutMs) * time.Millisecond,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= r.cfg.MaxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}
	return client
}

// httpOutcome carries the raw transport result to the variant evaluators.
type httpOutcome struct {
	statusCode int
	elapsed    time.Duration
	header     http.Header
	body       []byte
}

// fetch issues the GET and returns either an outcome or a terminal failure
// result. maxBodyBytes = 0 discards the body.
func (r *httpRunner) fetch(ctx context.Context, monitor *models.Monitor, maxBodyBytes int64) (*httpOutcome, *models.CheckResult) {
	if monitor.URL == nil || *monitor.URL == "" {
		result := failure("missing url", 0, fmt.Errorf("monitor %s has no url", monitor.ID))
		return nil, &result
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(monitor.TimeoutMs)*time.Millisecond)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, *monitor.URL, nil)
	if err != nil {
		result := failure("invalid url", 0, err)
		return nil, &result
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)
	req.Header.Set("Accept", "*/*")

	if err := r.limiters.wait(ctx, req.URL.Hostname()); err != nil {
		result := timeoutOrFailure(ctx, "rate limit wait aborted", 0, err)
		return nil, &result
	}

	start := time.Now()
	resp, err := r.newClient(monitor).Do(req)
	elapsed := time.Since(start)
	if err != nil {
		result := timeoutOrFailure(ctx, "connection failed", elapsed, err)
		return nil, &result
	}
	defer resp.Body.Close()

	outcome := &httpOutcome{
		statusCode: resp.StatusCode,
		elapsed:    elapsed,
		header:     resp.Header,
	}
	if maxBodyBytes > 0 {
		body, readErr := readAtMost(resp.Body, maxBodyBytes)
		if readErr != nil {
			result := timeoutOrFailure(ctx, "body read failed", time.Since(start), readErr)
			return nil, &result
		}
		outcome.body = body
	}
	return outcome, nil
}

// success builds an up result.
func success(details string, elapsed time.Duration) models.CheckResult {
	return models.CheckResult{
		Status:         models.MonitorStatusUp,
		ResponseTimeMs: elapsed.Milliseconds(),
		Details:        details,
	}
}

// failure builds a down result carrying the error for diagnostics.
func failure(details string, elapsed time.Duration, err error) models.CheckResult {
	result := models.CheckResult{
		Status:         models.MonitorStatusDown,
		ResponseTimeMs: elapsed.Milliseconds(),
		Details:        details,
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

// timeoutOrFailure maps a cancelled deadline onto the canonical timeout
// result and anything else onto a plain failure.
func timeoutOrFailure(ctx context.Context, details string, elapsed time.Duration, err error) models.CheckResult {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return failure(models.CheckDetailTimeout, elapsed, err)
	}
	return failure(details, elapsed, err)
}
