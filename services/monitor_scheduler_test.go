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

package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/config"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

// --- test doubles ---

type runnerCall struct {
	siteIdentifier string
	monitorID      string
	correlationID  string
	manual         bool
}

type mockCheckRunner struct {
	mu      sync.Mutex
	calls   []runnerCall
	runFunc func(ctx context.Context, siteIdentifier, monitorID, correlationID string, manual bool) (models.CheckResult, error)
}

func (m *mockCheckRunner) RunScheduledCheck(ctx context.Context, siteIdentifier, monitorID, correlationID string, manual bool) (models.CheckResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, runnerCall{
		siteIdentifier: siteIdentifier,
		monitorID:      monitorID,
		correlationID:  correlationID,
		manual:         manual,
	})
	runFunc := m.runFunc
	m.mu.Unlock()

	if runFunc != nil {
		return runFunc(ctx, siteIdentifier, monitorID, correlationID, manual)
	}
	return models.CheckResult{Status: models.MonitorStatusUp, ResponseTimeMs: 5}, nil
}

func (m *mockCheckRunner) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockCheckRunner) callAt(i int) runnerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i]
}

func (m *mockCheckRunner) manualCalls() []runnerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var manual []runnerCall
	for _, call := range m.calls {
		if call.manual {
			manual = append(manual, call)
		}
	}
	return manual
}

// --- helpers ---

func testSchedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		MinCheckIntervalMs:   1,
		MaxBackoffMs:         1000,
		CheckTimeoutBufferMs: 100,
	}
}

func newTestScheduler(t *testing.T, runner CheckRunner) MonitorSchedulerService {
	t.Helper()
	scheduler := NewMonitorSchedulerService(testSchedulerConfig(), slog.Default())
	scheduler.SetRunner(runner)
	require.NoError(t, scheduler.Start(context.Background()))
	t.Cleanup(func() { _ = scheduler.Stop() })
	return scheduler
}

func scheduledMonitor(id string, intervalMs int64) *models.Monitor {
	url := "https://example.com"
	return &models.Monitor{
		ID:              id,
		SiteIdentifier:  "site-1",
		Type:            models.MonitorTypeHTTP,
		Status:          models.MonitorStatusPending,
		CheckIntervalMs: intervalMs,
		TimeoutMs:       1000,
		Monitoring:      true,
		URL:             &url,
	}
}

// --- lifecycle tests ---

func TestScheduler_StartRequiresRunner(t *testing.T) {
	scheduler := NewMonitorSchedulerService(testSchedulerConfig(), slog.Default())

	err := scheduler.Start(context.Background())
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}

func TestScheduler_StartJobRequiresStart(t *testing.T) {
	scheduler := NewMonitorSchedulerService(testSchedulerConfig(), slog.Default())
	scheduler.SetRunner(&mockCheckRunner{})

	err := scheduler.StartJob("site-1", scheduledMonitor("m-1", 5000))
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}

func TestScheduler_StartAndStopJobs(t *testing.T) {
	scheduler := newTestScheduler(t, &mockCheckRunner{})

	require.NoError(t, scheduler.StartJob("site-1", scheduledMonitor("m-1", 60000)))
	require.NoError(t, scheduler.StartJob("site-1", scheduledMonitor("m-2", 60000)))
	require.NoError(t, scheduler.StartJob("site-2", scheduledMonitor("m-3", 60000)))

	assert.Equal(t, 3, scheduler.JobCount())
	assert.True(t, scheduler.IsJobActive("site-1", "m-1"))
	assert.False(t, scheduler.IsJobActive("site-1", "m-3"))

	assert.True(t, scheduler.StopJob("site-1", "m-1"))
	assert.False(t, scheduler.StopJob("site-1", "m-1"))
	assert.Equal(t, 1, scheduler.StopSite("site-1"))
	assert.Equal(t, 1, scheduler.StopSite("site-2"))
	assert.Equal(t, 0, scheduler.JobCount())
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	scheduler := NewMonitorSchedulerService(testSchedulerConfig(), slog.Default())
	scheduler.SetRunner(&mockCheckRunner{})
	require.NoError(t, scheduler.Start(context.Background()))

	require.NoError(t, scheduler.Stop())
	require.NoError(t, scheduler.Stop())
	assert.Equal(t, 0, scheduler.JobCount())
}

// --- scheduled run tests ---

func TestScheduler_FiresScheduledChecks(t *testing.T) {
	runner := &mockCheckRunner{}
	scheduler := newTestScheduler(t, runner)

	require.NoError(t, scheduler.StartJob("site-1", scheduledMonitor("m-1", 1)))

	assert.Eventually(t, func() bool {
		return runner.callCount() >= 2
	}, 2*time.Second, 5*time.Millisecond, "expected repeated scheduled runs")

	call := runner.callAt(0)
	assert.Equal(t, "site-1", call.siteIdentifier)
	assert.Equal(t, "m-1", call.monitorID)
	assert.NotEmpty(t, call.correlationID)
	assert.False(t, call.manual)
}

func TestScheduler_JobTornDownWhenMonitorVanishes(t *testing.T) {
	runner := &mockCheckRunner{
		runFunc: func(ctx context.Context, siteIdentifier, monitorID, correlationID string, manual bool) (models.CheckResult, error) {
			return models.CheckResult{}, fmt.Errorf("load: %w", utils.ErrMonitorNotFound)
		},
	}
	scheduler := newTestScheduler(t, runner)

	require.NoError(t, scheduler.StartJob("site-1", scheduledMonitor("m-1", 1)))

	assert.Eventually(t, func() bool {
		return !scheduler.IsJobActive("site-1", "m-1")
	}, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_PauseSuspendsAndResumeCatchesUp(t *testing.T) {
	runner := &mockCheckRunner{}
	scheduler := newTestScheduler(t, runner)
	scheduler.Pause()

	require.NoError(t, scheduler.StartJob("site-1", scheduledMonitor("m-1", 1)))

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, runner.callCount(), "paused scheduler must not fire")

	scheduler.Resume()
	assert.Eventually(t, func() bool {
		return runner.callCount() > 0
	}, 2*time.Second, 5*time.Millisecond)
}

// --- manual check tests ---

func TestScheduler_CheckNowRunsSynchronouslyWhenIdle(t *testing.T) {
	runner := &mockCheckRunner{}
	scheduler := newTestScheduler(t, runner)
	require.NoError(t, scheduler.StartJob("site-1", scheduledMonitor("m-1", 60000)))

	result, correlationID, err := scheduler.CheckNow(context.Background(), "site-1", "m-1")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.MonitorStatusUp, result.Status)
	assert.NotEmpty(t, correlationID)

	manual := runner.manualCalls()
	require.Len(t, manual, 1)
	assert.Equal(t, correlationID, manual[0].correlationID)
}

func TestScheduler_CheckNowUnknownJob(t *testing.T) {
	scheduler := newTestScheduler(t, &mockCheckRunner{})

	_, _, err := scheduler.CheckNow(context.Background(), "site-1", "missing")
	assert.ErrorIs(t, err, utils.ErrMonitorNotFound)
}

func TestScheduler_CheckNowCoalescesBehindRunningCheck(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 16)
	runner := &mockCheckRunner{}
	runner.runFunc = func(ctx context.Context, siteIdentifier, monitorID, correlationID string, manual bool) (models.CheckResult, error) {
		select {
		case entered <- struct{}{}:
		default:
		}
		if !manual {
			<-release
		}
		return models.CheckResult{Status: models.MonitorStatusUp}, nil
	}
	scheduler := newTestScheduler(t, runner)

	require.NoError(t, scheduler.StartJob("site-1", scheduledMonitor("m-1", 1)))
	<-entered // scheduled run is now blocked inside the runner

	result, first, err := scheduler.CheckNow(context.Background(), "site-1", "m-1")
	require.NoError(t, err)
	assert.Nil(t, result, "busy job must queue the manual run")
	assert.NotEmpty(t, first)

	// A later queued manual replaces the earlier one.
	result, second, err := scheduler.CheckNow(context.Background(), "site-1", "m-1")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NotEqual(t, first, second)

	close(release)

	assert.Eventually(t, func() bool {
		manual := runner.manualCalls()
		return len(manual) == 1 && manual[0].correlationID == second
	}, 2*time.Second, 5*time.Millisecond, "exactly the latest queued manual must run")
}

// --- delay computation tests ---

func TestScheduler_ComputeDelayFloorsAndJitters(t *testing.T) {
	scheduler := &monitorSchedulerService{
		cfg:    config.SchedulerConfig{MinCheckIntervalMs: 5000, MaxBackoffMs: 3600000},
		logger: slog.Default(),
		jobs:   make(map[jobKey]*job),
	}

	for i := 0; i < 50; i++ {
		delay := scheduler.computeDelay(10000, 0)
		assert.GreaterOrEqual(t, delay, 9000*time.Millisecond)
		assert.LessOrEqual(t, delay, 11000*time.Millisecond)
	}

	// Below the floor, the floor wins regardless of jitter.
	for i := 0; i < 50; i++ {
		assert.GreaterOrEqual(t, scheduler.computeDelay(1, 0), 5000*time.Millisecond)
	}
}

func TestScheduler_ComputeDelayBacksOffExponentiallyWithCeiling(t *testing.T) {
	scheduler := &monitorSchedulerService{
		cfg:    config.SchedulerConfig{MinCheckIntervalMs: 1, MaxBackoffMs: 40000},
		logger: slog.Default(),
		jobs:   make(map[jobKey]*job),
	}

	// 10s base: attempts double as 10s, 20s, 40s, then pin at the ceiling.
	for attempt, wantMs := range []int64{10000, 20000, 40000, 40000, 40000} {
		delay := scheduler.computeDelay(10000, attempt)
		span := time.Duration(float64(wantMs)*models.JitterFraction) * time.Millisecond
		want := time.Duration(wantMs) * time.Millisecond
		assert.GreaterOrEqual(t, delay, want-span, "attempt %d", attempt)
		assert.LessOrEqual(t, delay, want+span, "attempt %d", attempt)
	}

	// A base interval above the ceiling becomes the effective ceiling.
	delay := scheduler.computeDelay(120000, 5)
	assert.GreaterOrEqual(t, delay, time.Duration(float64(120000)*0.9)*time.Millisecond)
}

func TestScheduler_MaxBackoffAttemptStopsDoubling(t *testing.T) {
	scheduler := &monitorSchedulerService{
		cfg:    config.SchedulerConfig{MinCheckIntervalMs: 1, MaxBackoffMs: 80000},
		logger: slog.Default(),
		jobs:   make(map[jobKey]*job),
	}

	// 10s -> 20s -> 40s -> 80s: three doublings reach the ceiling.
	assert.Equal(t, 3, scheduler.maxBackoffAttempt(10000))
	// Base already at or above the ceiling never doubles.
	assert.Equal(t, 0, scheduler.maxBackoffAttempt(80000))
	assert.Equal(t, 0, scheduler.maxBackoffAttempt(200000))
}
