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

package utils

import "errors"

var (
	// Resource not found errors
	ErrSiteNotFound    = errors.New("site not found")
	ErrMonitorNotFound = errors.New("monitor not found")
	ErrSettingNotFound = errors.New("setting not found")

	// Uniqueness violations
	ErrSiteAlreadyExists    = errors.New("site identifier already exists")
	ErrMonitorAlreadyExists = errors.New("monitor id already exists")

	// Validation errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrNoMonitors         = errors.New("site has no monitors")
	ErrUnknownMonitorType = errors.New("unknown monitor type")

	// Storage errors
	ErrSchemaNewer     = errors.New("schema version is newer than this build supports")
	ErrIntegrityFailed = errors.New("integrity check failed")
	ErrTransient       = errors.New("transient storage failure")

	// Execution errors
	ErrTimeout   = errors.New("operation timed out")
	ErrCancelled = errors.New("operation cancelled")

	// Host interface errors
	ErrDuplicateHandler = errors.New("handler already registered")
	ErrHandlerNotFound  = errors.New("handler not found")

	// Scheduler errors
	ErrMonitorAlreadyStopped = errors.New("monitor already stopped")
	ErrMonitorAlreadyActive  = errors.New("monitor already active")
)
