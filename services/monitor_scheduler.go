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
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/config"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

// schedulerDrainTimeout bounds how long Stop waits for in-flight checks.
const schedulerDrainTimeout = 10 * time.Second

// CheckRunner executes one check end to end: loading the monitor, racing the
// checker against its deadline, persisting history and status, and emitting
// the check lifecycle events. The MonitorManager implements it; the
// scheduler only owns timing.
type CheckRunner interface {
	RunScheduledCheck(ctx context.Context, siteIdentifier, monitorID, correlationID string, manual bool) (models.CheckResult, error)
}

// MonitorSchedulerService owns one in-memory job per actively monitored
// monitor: jittered recurring timers, exponential backoff on failures,
// overlap protection and manual-check coalescing.
type MonitorSchedulerService interface {
	Start(ctx context.Context) error
	Stop() error

	// SetRunner wires the check runner. It must be called before Start;
	// the setter exists to break the scheduler/manager construction cycle.
	SetRunner(runner CheckRunner)

	// StartJob creates (or replaces) the job for a monitor and arms its
	// first jittered timer.
	StartJob(siteIdentifier string, monitor *models.Monitor) error
	// StopJob tears down one job. Returns whether a job existed.
	StopJob(siteIdentifier, monitorID string) bool
	// StopSite tears down every job of a site and returns how many existed.
	StopSite(siteIdentifier string) int

	// CheckNow pre-empts the schedule with a manual run. An idle job runs
	// synchronously and returns the result; a busy job queues exactly one
	// manual run and returns its correlation ID with a nil result.
	CheckNow(ctx context.Context, siteIdentifier, monitorID string) (*models.CheckResult, string, error)

	// Pause suspends scheduled firing; manual checks still run. Resume
	// reschedules every idle job immediately.
	Pause()
	Resume()

	JobCount() int
	IsJobActive(siteIdentifier, monitorID string) bool
}

type jobKey struct {
	siteIdentifier string
	monitorID      string
}

// job is the per-monitor scheduling state. None of it is persisted; the
// orchestrator rebuilds jobs from the monitors table at startup.
type job struct {
	siteIdentifier  string
	monitor         *models.Monitor
	backoffAttempt  int
	isRunning       bool
	needsReschedule bool
	stopped         bool
	correlationID   string
	// At most one queued manual run; later requests replace it.
	pendingManualCheckCorrelationID string
	timer                           *time.Timer
}

type monitorSchedulerService struct {
	cfg    config.SchedulerConfig
	logger *slog.Logger

	mu     sync.Mutex
	jobs   map[jobKey]*job
	runner CheckRunner
	paused bool

	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	inFlight sync.WaitGroup
	stopOnce sync.Once
}

// NewMonitorSchedulerService creates a scheduler with no jobs.
func NewMonitorSchedulerService(cfg config.SchedulerConfig, logger *slog.Logger) MonitorSchedulerService {
	return &monitorSchedulerService{
		cfg:    cfg,
		logger: logger,
		jobs:   make(map[jobKey]*job),
	}
}

func (s *monitorSchedulerService) SetRunner(runner CheckRunner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runner = runner
}

// Start makes the scheduler accept jobs. ctx bounds every check the
// scheduler fires; cancelling it aborts in-flight checks.
func (s *monitorSchedulerService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.runner == nil {
		return fmt.Errorf("scheduler has no check runner: %w", utils.ErrInvalidInput)
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true
	s.logger.Info("Monitor scheduler started")
	return nil
}

// Stop tears down every job, cancels in-flight checks and waits for them to
// drain, bounded by schedulerDrainTimeout.
func (s *monitorSchedulerService) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		for key, j := range s.jobs {
			j.stopped = true
			if j.timer != nil {
				j.timer.Stop()
			}
			delete(s.jobs, key)
		}
		s.started = false
		if s.cancel != nil {
			s.cancel()
		}
		s.mu.Unlock()

		done := make(chan struct{})
		go func() {
			s.inFlight.Wait()
			close(done)
		}()
		select {
		case <-done:
			s.logger.Info("Monitor scheduler stopped")
		case <-time.After(schedulerDrainTimeout):
			s.logger.Warn("Monitor scheduler stopped with checks still in flight",
				"drainTimeout", schedulerDrainTimeout.String())
		}
	})
	return nil
}

// StartJob replaces any existing job for the monitor with a fresh one. The
// first delay is fully jittered so a herd of jobs started together spreads
// out.
func (s *monitorSchedulerService) StartJob(siteIdentifier string, monitor *models.Monitor) error {
	if monitor == nil {
		return fmt.Errorf("monitor is required: %w", utils.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return fmt.Errorf("scheduler is not started: %w", utils.ErrInvalidInput)
	}

	key := jobKey{siteIdentifier: siteIdentifier, monitorID: monitor.ID}
	if existing, ok := s.jobs[key]; ok {
		existing.stopped = true
		if existing.timer != nil {
			existing.timer.Stop()
		}
	}

	snapshot := *monitor
	j := &job{
		siteIdentifier: siteIdentifier,
		monitor:        &snapshot,
		correlationID:  uuid.NewString(),
	}
	s.jobs[key] = j
	s.armTimerLocked(key, j, s.computeDelay(snapshot.CheckIntervalMs, 0))

	s.logger.Debug("Scheduler job started",
		"site", siteIdentifier, "monitorId", monitor.ID, "intervalMs", monitor.CheckIntervalMs)
	return nil
}

func (s *monitorSchedulerService) StopJob(siteIdentifier, monitorID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopJobLocked(jobKey{siteIdentifier: siteIdentifier, monitorID: monitorID})
}

func (s *monitorSchedulerService) StopSite(siteIdentifier string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	stopped := 0
	for key := range s.jobs {
		if key.siteIdentifier == siteIdentifier && s.stopJobLocked(key) {
			stopped++
		}
	}
	return stopped
}

func (s *monitorSchedulerService) stopJobLocked(key jobKey) bool {
	j, ok := s.jobs[key]
	if !ok {
		return false
	}
	j.stopped = true
	if j.timer != nil {
		j.timer.Stop()
	}
	delete(s.jobs, key)
	s.logger.Debug("Scheduler job stopped", "site", key.siteIdentifier, "monitorId", key.monitorID)
	return true
}

// CheckNow implements manual pre-emption. Manual runs reset backoff and
// never grow it.
func (s *monitorSchedulerService) CheckNow(ctx context.Context, siteIdentifier, monitorID string) (*models.CheckResult, string, error) {
	key := jobKey{siteIdentifier: siteIdentifier, monitorID: monitorID}

	s.mu.Lock()
	j, ok := s.jobs[key]
	if !ok {
		s.mu.Unlock()
		return nil, "", fmt.Errorf("no job for monitor %s: %w", monitorID, utils.ErrMonitorNotFound)
	}

	correlationID := uuid.NewString()
	if j.isRunning {
		// Coalesce: the latest manual request wins.
		j.pendingManualCheckCorrelationID = correlationID
		s.mu.Unlock()
		s.logger.Debug("Manual check queued behind running check",
			"site", siteIdentifier, "monitorId", monitorID, "correlationId", correlationID)
		return nil, correlationID, nil
	}

	if j.timer != nil {
		j.timer.Stop()
	}
	j.backoffAttempt = 0
	j.isRunning = true
	j.correlationID = correlationID
	s.mu.Unlock()

	s.inFlight.Add(1)
	defer s.inFlight.Done()

	result := s.runCheck(ctx, key, correlationID, true)
	s.settle(key, result, true)
	return &result, correlationID, nil
}

func (s *monitorSchedulerService) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused {
		return
	}
	s.paused = true
	for _, j := range s.jobs {
		if j.timer != nil {
			j.timer.Stop()
		}
	}
	s.logger.Info("Monitor scheduler paused")
}

func (s *monitorSchedulerService) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.paused {
		return
	}
	s.paused = false
	for key, j := range s.jobs {
		if !j.isRunning {
			// Immediate catch-up run; normal jitter resumes afterwards.
			s.armTimerLocked(key, j, time.Millisecond)
		}
	}
	s.logger.Info("Monitor scheduler resumed")
}

func (s *monitorSchedulerService) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *monitorSchedulerService) IsJobActive(siteIdentifier, monitorID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[jobKey{siteIdentifier: siteIdentifier, monitorID: monitorID}]
	return ok
}

// fire is the timer callback: overlap-protected entry into one scheduled
// run.
func (s *monitorSchedulerService) fire(key jobKey) {
	s.mu.Lock()
	j, ok := s.jobs[key]
	if !ok || j.stopped || s.paused {
		s.mu.Unlock()
		return
	}
	if j.isRunning {
		j.needsReschedule = true
		s.mu.Unlock()
		return
	}
	j.isRunning = true
	j.correlationID = uuid.NewString()
	correlationID := j.correlationID
	ctx := s.ctx
	s.mu.Unlock()

	s.inFlight.Add(1)
	defer s.inFlight.Done()

	result := s.runCheck(ctx, key, correlationID, false)
	s.settle(key, result, false)
}

// runCheck delegates to the runner. Failures never propagate out of the
// job; they settle as down results.
func (s *monitorSchedulerService) runCheck(ctx context.Context, key jobKey, correlationID string, manual bool) models.CheckResult {
	result, err := s.runner.RunScheduledCheck(ctx, key.siteIdentifier, key.monitorID, correlationID, manual)
	if err != nil {
		if errors.Is(err, utils.ErrMonitorNotFound) {
			// The monitor vanished underneath the job; tear it down.
			s.mu.Lock()
			s.stopJobLocked(key)
			s.mu.Unlock()
			return models.CheckResult{Status: models.MonitorStatusDown, Details: "monitor removed"}
		}
		s.logger.Error("Check run failed",
			"site", key.siteIdentifier, "monitorId", key.monitorID,
			"correlationId", correlationID, "error", err)
		return models.CheckResult{Status: models.MonitorStatusDown, Details: "check failed", Error: err.Error()}
	}
	return result
}

// settle closes out one run: update backoff, drain a queued manual run, or
// arm the next timer.
func (s *monitorSchedulerService) settle(key jobKey, result models.CheckResult, manual bool) {
	s.mu.Lock()
	j, ok := s.jobs[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	j.isRunning = false

	if !manual {
		if result.Status == models.MonitorStatusUp {
			j.backoffAttempt = 0
		} else if j.backoffAttempt < s.maxBackoffAttempt(j.monitor.CheckIntervalMs) {
			j.backoffAttempt++
		}
	}

	if j.stopped {
		s.mu.Unlock()
		return
	}

	if j.pendingManualCheckCorrelationID != "" {
		correlationID := j.pendingManualCheckCorrelationID
		j.pendingManualCheckCorrelationID = ""
		j.needsReschedule = false
		j.isRunning = true
		j.correlationID = correlationID
		ctx := s.ctx
		s.mu.Unlock()

		manualResult := s.runCheck(ctx, key, correlationID, true)
		s.settle(key, manualResult, true)
		return
	}

	j.needsReschedule = false
	if s.paused {
		s.mu.Unlock()
		return
	}
	s.armTimerLocked(key, j, s.computeDelay(j.monitor.CheckIntervalMs, j.backoffAttempt))
	s.mu.Unlock()
}

func (s *monitorSchedulerService) armTimerLocked(key jobKey, j *job, delay time.Duration) {
	if j.timer != nil {
		j.timer.Stop()
	}
	j.timer = time.AfterFunc(delay, func() { s.fire(key) })
}

// computeDelay applies exponential backoff capped at the larger of the base
// interval and the configured ceiling, then uniform +/-10% jitter, then the
// global floor.
func (s *monitorSchedulerService) computeDelay(baseIntervalMs int64, attempt int) time.Duration {
	target := baseIntervalMs
	for i := 0; i < attempt; i++ {
		target *= 2
		if target < 0 { // overflow
			target = s.backoffCeiling(baseIntervalMs)
			break
		}
	}

	if ceiling := s.backoffCeiling(baseIntervalMs); target > ceiling {
		target = ceiling
	}

	jitterSpan := int64(float64(target) * models.JitterFraction)
	if jitterSpan > 0 {
		target += rand.Int63n(2*jitterSpan+1) - jitterSpan
	}

	if floor := s.minInterval(); target < floor {
		target = floor
	}
	return time.Duration(target) * time.Millisecond
}

// maxBackoffAttempt bounds attempt growth so doubling stops once the
// ceiling is reached.
func (s *monitorSchedulerService) maxBackoffAttempt(baseIntervalMs int64) int {
	ceiling := s.backoffCeiling(baseIntervalMs)
	attempt := 0
	for target := baseIntervalMs; target < ceiling && attempt < 63; target *= 2 {
		attempt++
	}
	return attempt
}

func (s *monitorSchedulerService) backoffCeiling(baseIntervalMs int64) int64 {
	ceiling := s.cfg.MaxBackoffMs
	if ceiling < 1 {
		ceiling = models.MaxBackoffMs
	}
	if baseIntervalMs > ceiling {
		return baseIntervalMs
	}
	return ceiling
}

func (s *monitorSchedulerService) minInterval() int64 {
	if s.cfg.MinCheckIntervalMs > 0 {
		return s.cfg.MinCheckIntervalMs
	}
	return models.MinCheckIntervalMs
}
