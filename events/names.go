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

package events

// Canonical event names published on the public bus.
const (
	EventMonitorStatusChanged      = "monitor:status-changed"
	EventMonitorUp                 = "monitor:up"
	EventMonitorDown               = "monitor:down"
	EventMonitorCheckStarted       = "monitor:check-started"
	EventMonitorCheckCompleted     = "monitor:check-completed"
	EventMonitorTimeout            = "monitor:timeout"
	EventMonitorManualCheckStarted = "monitor:manual-check-started"

	EventSiteAdded              = "site:added"
	EventSiteUpdated            = "site:updated"
	EventSiteRemoved            = "site:removed"
	EventSitesStateSynchronized = "sites:state-synchronized"

	EventMonitoringStarted = "monitoring:started"
	EventMonitoringStopped = "monitoring:stopped"

	EventDatabaseTransactionCompleted = "database:transaction-completed"
	EventDatabaseError                = "database:error"
	EventDatabaseBackupCreated        = "database:backup-created"
	EventDatabaseBackupRestored       = "database:backup-restored"

	EventSystemStartup  = "system:startup"
	EventSystemShutdown = "system:shutdown"
	EventSystemError    = "system:error"

	EventCacheInvalidated   = "cache:invalidated"
	EventConfigChanged      = "config:changed"
	EventPerformanceMetric  = "performance:metric"
	EventPerformanceWarning = "performance:warning"
)

// Lifecycle events emitted by the operational hook.
const (
	EventOperationStarted   = "operation:started"
	EventOperationCompleted = "operation:completed"
	EventOperationFailed    = "operation:failed"
)

// Internal events emitted on manager-owned buses. The orchestrator rewrites
// them onto the public bus through a fixed forwarding table.
const (
	EventInternalSiteAdded   = "internal:site:added"
	EventInternalSiteUpdated = "internal:site:updated"
	EventInternalSiteRemoved = "internal:site:removed"
	EventInternalSiteSynced  = "internal:site:synchronized"

	EventInternalMonitorStarted = "internal:monitor:started"
	EventInternalMonitorStopped = "internal:monitor:stopped"

	EventInternalMonitorCheckStarted       = "internal:monitor:check-started"
	EventInternalMonitorCheckCompleted     = "internal:monitor:check-completed"
	EventInternalMonitorStatusChanged      = "internal:monitor:status-changed"
	EventInternalMonitorUp                 = "internal:monitor:up"
	EventInternalMonitorDown               = "internal:monitor:down"
	EventInternalMonitorTimeout            = "internal:monitor:timeout"
	EventInternalMonitorManualCheckStarted = "internal:monitor:manual-check-started"

	EventInternalDatabaseTransactionCompleted = "internal:database:transaction-completed"
	EventInternalDatabaseError                = "internal:database:error"
	EventInternalDatabaseBackupCreated        = "internal:database:backup-created"
	EventInternalDatabaseBackupRestored       = "internal:database:backup-restored"
)
