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
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/cache"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/catalog"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/db"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/events"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/host"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/repositories"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

// SiteManagerOperations is the slice of monitor manager behavior the site
// manager needs. The orchestrator wires it after construction so the two
// managers never reference each other directly.
type SiteManagerOperations struct {
	SetupNewMonitors func(ctx context.Context, site *models.Site, newMonitorIDs []string) error
	StopMonitoring   func(ctx context.Context, siteIdentifier string, monitorID *string) (bool, error)
}

// SiteManagerService orchestrates site CRUD and the site cache.
type SiteManagerService interface {
	GetSites(ctx context.Context) ([]*models.Site, error)
	GetSite(ctx context.Context, identifier string) (*models.Site, error)
	AddSite(ctx context.Context, request *models.CreateSiteRequest) (*models.Site, error)
	UpdateSite(ctx context.Context, identifier string, request *models.UpdateSiteRequest) (*models.Site, error)
	RemoveSite(ctx context.Context, identifier string) error
	AddMonitor(ctx context.Context, siteIdentifier string, request *models.CreateMonitorRequest) (*models.Monitor, error)
	RemoveMonitor(ctx context.Context, siteIdentifier, monitorID string) (*models.Site, error)

	// SetOperations wires cross-manager hooks. Must be called before the
	// first mutating operation.
	SetOperations(ops SiteManagerOperations)
	// Bus returns the manager-owned event bus carrying internal:* events.
	Bus() *events.Bus
}

type siteManagerService struct {
	logger      *slog.Logger
	siteRepo    repositories.SiteRepository
	monitorRepo repositories.MonitorRepository
	historyRepo repositories.HistoryRepository
	registry    *catalog.Registry
	bus         *events.Bus
	siteCache   *cache.Cache[*models.Site]
	ops         SiteManagerOperations
}

// NewSiteManagerService creates a new site manager service instance
func NewSiteManagerService(
	logger *slog.Logger,
	siteRepo repositories.SiteRepository,
	monitorRepo repositories.MonitorRepository,
	historyRepo repositories.HistoryRepository,
	registry *catalog.Registry,
	bus *events.Bus,
) SiteManagerService {
	return &siteManagerService{
		logger:      logger,
		siteRepo:    siteRepo,
		monitorRepo: monitorRepo,
		historyRepo: historyRepo,
		registry:    registry,
		bus:         bus,
		siteCache: cache.New[*models.Site](cache.Config{
			Name:    "sites",
			TTL:     cache.TTLSites,
			Emitter: bus,
		}),
	}
}

func (s *siteManagerService) SetOperations(ops SiteManagerOperations) {
	s.ops = ops
}

func (s *siteManagerService) Bus() *events.Bus {
	return s.bus
}

// GetSites returns every site with its monitors loaded.
func (s *siteManagerService) GetSites(ctx context.Context) ([]*models.Site, error) {
	sites, err := s.siteRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, site := range sites {
		monitors, err := s.monitorRepo.GetBySite(ctx, site.Identifier)
		if err != nil {
			return nil, err
		}
		site.Monitors = monitors
		s.siteCache.Set(site.Identifier, site)
	}
	return sites, nil
}

// GetSite returns one site with monitors, from cache when fresh.
func (s *siteManagerService) GetSite(ctx context.Context, identifier string) (*models.Site, error) {
	if cached, ok := s.siteCache.Get(identifier); ok {
		return cached, nil
	}
	return s.loadSite(ctx, identifier)
}

// AddSite validates and persists a site with its monitors in one
// transaction, then caches it and emits internal:site:added.
func (s *siteManagerService) AddSite(ctx context.Context, request *models.CreateSiteRequest) (*models.Site, error) {
	if request == nil {
		return nil, fmt.Errorf("site payload is required: %w", utils.ErrInvalidInput)
	}

	site := &models.Site{
		Identifier: strings.TrimSpace(request.Identifier),
		Name:       strings.TrimSpace(request.Name),
		Monitoring: utils.BoolPointerAsBool(request.Monitoring, true),
	}
	if issues := s.validateSiteDraft(site, request.Monitors); len(issues) > 0 {
		return nil, host.NewValidationError(issues)
	}

	existing, err := s.siteRepo.GetByIdentifier(ctx, site.Identifier)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("site %s: %w", site.Identifier, utils.ErrSiteAlreadyExists)
	}

	monitors, err := s.buildMonitors(site.Identifier, request.Monitors)
	if err != nil {
		return nil, err
	}

	err = db.ExecuteTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.siteRepo.UpsertInternal(tx, site); err != nil {
			return err
		}
		for i := range monitors {
			if err := s.monitorRepo.UpsertInternal(tx, &monitors[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	site.Monitors = monitors
	s.siteCache.Set(site.Identifier, site)
	s.bus.Emit(ctx, events.EventInternalSiteAdded, map[string]any{
		"siteIdentifier": site.Identifier,
		"name":           site.Name,
		"monitors":       len(monitors),
	})
	s.logger.Info("Site added", "site", site.Identifier, "monitors", len(monitors))
	return site, nil
}

// UpdateSite applies a partial update inside a transaction and arms jobs for
// any monitors the update introduced.
func (s *siteManagerService) UpdateSite(ctx context.Context, identifier string, request *models.UpdateSiteRequest) (*models.Site, error) {
	if request == nil {
		return nil, fmt.Errorf("update payload is required: %w", utils.ErrInvalidInput)
	}

	site, err := s.requireSite(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if request.Name != nil {
		name := strings.TrimSpace(*request.Name)
		if name == "" {
			return nil, host.NewValidationError([]string{"site name cannot be empty"})
		}
		site.Name = name
	}
	if request.Monitoring != nil {
		site.Monitoring = *request.Monitoring
	}

	var (
		replacement   []models.Monitor
		newMonitorIDs []string
	)
	if request.Monitors != nil {
		if issues := s.validateMonitorDrafts(*request.Monitors); len(issues) > 0 {
			return nil, host.NewValidationError(issues)
		}
		replacement, err = s.buildMonitors(identifier, *request.Monitors)
		if err != nil {
			return nil, err
		}
		existingIDs := make(map[string]bool, len(site.Monitors))
		for i := range site.Monitors {
			existingIDs[site.Monitors[i].ID] = true
		}
		for i := range replacement {
			if !existingIDs[replacement[i].ID] {
				newMonitorIDs = append(newMonitorIDs, replacement[i].ID)
			}
		}
	}

	err = db.ExecuteTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.siteRepo.UpsertInternal(tx, site); err != nil {
			return err
		}
		if replacement != nil {
			return s.monitorRepo.BulkReplaceInternal(tx, identifier, replacement)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.loadSite(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if len(newMonitorIDs) > 0 && s.ops.SetupNewMonitors != nil {
		if err := s.ops.SetupNewMonitors(ctx, updated, newMonitorIDs); err != nil {
			return nil, err
		}
	}

	s.bus.Emit(ctx, events.EventInternalSiteUpdated, map[string]any{
		"siteIdentifier": identifier,
		"newMonitors":    len(newMonitorIDs),
	})
	s.logger.Info("Site updated", "site", identifier, "newMonitors", len(newMonitorIDs))
	return updated, nil
}

// RemoveSite stops monitoring first, then cascade-deletes the site.
func (s *siteManagerService) RemoveSite(ctx context.Context, identifier string) error {
	site, err := s.requireSite(ctx, identifier)
	if err != nil {
		return err
	}

	if s.ops.StopMonitoring != nil {
		if _, err := s.ops.StopMonitoring(ctx, identifier, nil); err != nil {
			return err
		}
	}

	err = db.ExecuteTransaction(ctx, func(tx *gorm.DB) error {
		for i := range site.Monitors {
			if err := s.historyRepo.DeleteForMonitorInternal(tx, site.Monitors[i].ID); err != nil {
				return err
			}
			if _, err := s.monitorRepo.DeleteInternal(tx, site.Monitors[i].ID); err != nil {
				return err
			}
		}
		deleted, err := s.siteRepo.DeleteInternal(tx, identifier)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("site %s: %w", identifier, utils.ErrSiteNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.siteCache.Delete(identifier)
	s.bus.Emit(ctx, events.EventInternalSiteRemoved, map[string]any{
		"siteIdentifier": identifier,
	})
	s.logger.Info("Site removed", "site", identifier)
	return nil
}

// AddMonitor appends one monitor to an existing site and arms its job when
// the monitoring flag asks for it.
func (s *siteManagerService) AddMonitor(ctx context.Context, siteIdentifier string, request *models.CreateMonitorRequest) (*models.Monitor, error) {
	if request == nil {
		return nil, fmt.Errorf("monitor payload is required: %w", utils.ErrInvalidInput)
	}

	site, err := s.requireSite(ctx, siteIdentifier)
	if err != nil {
		return nil, err
	}

	monitor, err := s.buildMonitor(siteIdentifier, request)
	if err != nil {
		return nil, err
	}
	if result := s.registry.Validate(monitor.Type, monitor); !result.Success {
		return nil, host.NewValidationError(result.Issues)
	}
	for i := range site.Monitors {
		if site.Monitors[i].ID == monitor.ID {
			return nil, fmt.Errorf("monitor %s: %w", monitor.ID, utils.ErrMonitorAlreadyExists)
		}
	}

	if err := s.monitorRepo.Upsert(ctx, monitor); err != nil {
		return nil, err
	}
	s.siteCache.Delete(siteIdentifier)

	if monitor.Monitoring && s.ops.SetupNewMonitors != nil {
		site.Monitors = append(site.Monitors, *monitor)
		if err := s.ops.SetupNewMonitors(ctx, site, []string{monitor.ID}); err != nil {
			return nil, err
		}
	}

	s.bus.Emit(ctx, events.EventInternalSiteUpdated, map[string]any{
		"siteIdentifier": siteIdentifier,
		"monitorId":      monitor.ID,
	})
	s.logger.Info("Monitor added", "site", siteIdentifier, "monitorId", monitor.ID, "type", monitor.Type)
	return monitor, nil
}

// RemoveMonitor deletes one monitor with its history and returns the site's
// post-delete state.
func (s *siteManagerService) RemoveMonitor(ctx context.Context, siteIdentifier, monitorID string) (*models.Site, error) {
	site, err := s.requireSite(ctx, siteIdentifier)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range site.Monitors {
		if site.Monitors[i].ID == monitorID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("monitor %s on site %s: %w", monitorID, siteIdentifier, utils.ErrMonitorNotFound)
	}

	if s.ops.StopMonitoring != nil {
		if _, err := s.ops.StopMonitoring(ctx, siteIdentifier, &monitorID); err != nil {
			return nil, err
		}
	}

	err = db.ExecuteTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.historyRepo.DeleteForMonitorInternal(tx, monitorID); err != nil {
			return err
		}
		deleted, err := s.monitorRepo.DeleteInternal(tx, monitorID)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("monitor %s: %w", monitorID, utils.ErrMonitorNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.siteCache.Delete(siteIdentifier)

	s.bus.Emit(ctx, events.EventInternalSiteUpdated, map[string]any{
		"siteIdentifier": siteIdentifier,
		"removedMonitor": monitorID,
	})
	s.logger.Info("Monitor removed", "site", siteIdentifier, "monitorId", monitorID)
	return s.loadSite(ctx, siteIdentifier)
}

func (s *siteManagerService) loadSite(ctx context.Context, identifier string) (*models.Site, error) {
	site, err := s.requireSite(ctx, identifier)
	if err != nil {
		return nil, err
	}
	s.siteCache.Set(identifier, site)
	return site, nil
}

func (s *siteManagerService) requireSite(ctx context.Context, identifier string) (*models.Site, error) {
	site, err := s.siteRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, fmt.Errorf("site %s: %w", identifier, utils.ErrSiteNotFound)
	}
	monitors, err := s.monitorRepo.GetBySite(ctx, identifier)
	if err != nil {
		return nil, err
	}
	site.Monitors = monitors
	return site, nil
}

// validateSiteDraft collects every problem with a new site so the caller
// sees them all at once.
func (s *siteManagerService) validateSiteDraft(site *models.Site, drafts []models.CreateMonitorRequest) []string {
	var issues []string
	if err := utils.ValidateSiteIdentifier(site.Identifier); err != nil {
		issues = append(issues, "site identifier cannot be empty")
	}
	if err := utils.ValidateSiteName(site.Name); err != nil {
		issues = append(issues, "site name cannot be empty")
	}
	if len(drafts) == 0 {
		issues = append(issues, "site requires at least one monitor")
	}
	issues = append(issues, s.validateMonitorDrafts(drafts)...)
	return issues
}

func (s *siteManagerService) validateMonitorDrafts(drafts []models.CreateMonitorRequest) []string {
	var issues []string
	seen := make(map[string]bool, len(drafts))
	for i := range drafts {
		draft := &drafts[i]
		if draft.ID != "" {
			if seen[draft.ID] {
				issues = append(issues, fmt.Sprintf("monitor id %q is duplicated", draft.ID))
				continue
			}
			seen[draft.ID] = true
		}
		monitor, err := s.buildMonitor("validation", draft)
		if err != nil {
			issues = append(issues, err.Error())
			continue
		}
		if result := s.registry.Validate(monitor.Type, monitor); !result.Success {
			issues = append(issues, result.Issues...)
		}
	}
	return issues
}

func (s *siteManagerService) buildMonitors(siteIdentifier string, drafts []models.CreateMonitorRequest) ([]models.Monitor, error) {
	monitors := make([]models.Monitor, 0, len(drafts))
	for i := range drafts {
		monitor, err := s.buildMonitor(siteIdentifier, &drafts[i])
		if err != nil {
			return nil, err
		}
		monitors = append(monitors, *monitor)
	}
	return monitors, nil
}

// buildMonitor materializes a draft with defaults applied. Field values land
// on the typed columns through the field map.
func (s *siteManagerService) buildMonitor(siteIdentifier string, draft *models.CreateMonitorRequest) (*models.Monitor, error) {
	id := strings.TrimSpace(draft.ID)
	if id == "" {
		id = uuid.NewString()
	}

	interval := draft.CheckIntervalMs
	if interval < models.MinCheckIntervalMs {
		interval = models.MinCheckIntervalMs
	}

	monitor := &models.Monitor{
		ID:              id,
		SiteIdentifier:  siteIdentifier,
		Type:            draft.Type,
		Status:          models.MonitorStatusPending,
		CheckIntervalMs: interval,
		TimeoutMs:       utils.Int64PointerAsInt64(draft.TimeoutMs, models.DefaultTimeoutMs),
		RetryAttempts:   utils.IntPointerAsInt(draft.RetryAttempts, 0),
		Monitoring:      utils.BoolPointerAsBool(draft.Monitoring, true),
	}
	if err := monitor.ApplyFields(draft.Fields); err != nil {
		return nil, err
	}
	return monitor, nil
}
