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

import (
	"context"
	"errors"
	"net/http"
)

// ErrorCode is a stable machine-readable code surfaced at the host boundary.
// Consumers localize on the code; internal messages are never shown raw.
type ErrorCode string

const (
	CodeValidation              ErrorCode = "VALIDATION"
	CodeNotFound                ErrorCode = "NOT_FOUND"
	CodeDuplicateSiteIdentifier ErrorCode = "DUPLICATE_SITE_IDENTIFIER"
	CodeDuplicateMonitorID      ErrorCode = "DUPLICATE_MONITOR_ID"
	CodeNoMonitors              ErrorCode = "NO_MONITORS"
	CodeSchemaNewer             ErrorCode = "SCHEMA_NEWER"
	CodeIntegrityFailed         ErrorCode = "INTEGRITY_FAILED"
	CodeTimeout                 ErrorCode = "TIMEOUT"
	CodeTransient               ErrorCode = "TRANSIENT"
	CodeCancelled               ErrorCode = "CANCELLED"
	CodeInternal                ErrorCode = "INTERNAL"
)

// CodeFromError classifies an error chain into its stable code.
// Unclassified errors are promoted to INTERNAL.
func CodeFromError(err error) ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnknownMonitorType):
		return CodeValidation
	case errors.Is(err, ErrSiteNotFound), errors.Is(err, ErrMonitorNotFound),
		errors.Is(err, ErrSettingNotFound), errors.Is(err, ErrHandlerNotFound):
		return CodeNotFound
	case errors.Is(err, ErrSiteAlreadyExists):
		return CodeDuplicateSiteIdentifier
	case errors.Is(err, ErrMonitorAlreadyExists):
		return CodeDuplicateMonitorID
	case errors.Is(err, ErrNoMonitors):
		return CodeNoMonitors
	case errors.Is(err, ErrSchemaNewer):
		return CodeSchemaNewer
	case errors.Is(err, ErrIntegrityFailed):
		return CodeIntegrityFailed
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.Is(err, ErrTransient):
		return CodeTransient
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return CodeCancelled
	default:
		return CodeInternal
	}
}

// HTTPStatusForCode maps a stable code onto the HTTP transport binding
func HTTPStatusForCode(code ErrorCode) int {
	switch code {
	case CodeValidation, CodeNoMonitors:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicateSiteIdentifier, CodeDuplicateMonitorID:
		return http.StatusConflict
	case CodeSchemaNewer, CodeIntegrityFailed:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeTransient:
		return http.StatusServiceUnavailable
	case CodeCancelled:
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// IsRetriable reports whether an error chain is classified transient.
// Validation, not-found, and uniqueness violations fail fast; unknown
// errors are treated as retriable.
func IsRetriable(err error) bool {
	switch CodeFromError(err) {
	case CodeValidation, CodeNotFound, CodeDuplicateSiteIdentifier,
		CodeDuplicateMonitorID, CodeNoMonitors, CodeSchemaNewer,
		CodeIntegrityFailed, CodeCancelled:
		return false
	case CodeTimeout, CodeTransient, CodeInternal:
		return true
	default:
		return true
	}
}
