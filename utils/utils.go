// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
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
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
)

// Identifier length bounds for sites and monitors
const (
	MaxIdentifierLength = 128
	MaxSiteNameLength   = 256
)

// ValidateSiteIdentifier checks a site identifier after trimming
func ValidateSiteIdentifier(identifier string) error {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return fmt.Errorf("%w: site identifier cannot be empty", ErrInvalidInput)
	}
	if len(trimmed) > MaxIdentifierLength {
		return fmt.Errorf("%w: site identifier must be at most %d characters, got %d",
			ErrInvalidInput, MaxIdentifierLength, len(trimmed))
	}
	return nil
}

// ValidateSiteName checks a site display name after trimming
func ValidateSiteName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: site name cannot be empty", ErrInvalidInput)
	}
	if len(trimmed) > MaxSiteNameLength {
		return fmt.Errorf("%w: site name must be at most %d characters, got %d",
			ErrInvalidInput, MaxSiteNameLength, len(trimmed))
	}
	return nil
}

// ValidateMonitorID checks a monitor id after trimming
func ValidateMonitorID(id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return fmt.Errorf("%w: monitor id cannot be empty", ErrInvalidInput)
	}
	if len(trimmed) > MaxIdentifierLength {
		return fmt.Errorf("%w: monitor id must be at most %d characters, got %d",
			ErrInvalidInput, MaxIdentifierLength, len(trimmed))
	}
	return nil
}

// NormalizeHistoryLimit clamps a requested history limit into the supported
// range. Non-positive values fall back to the default.
func NormalizeHistoryLimit(limit int) int {
	if limit <= 0 {
		return models.DefaultHistoryLimit
	}
	if limit < models.MinHistoryLimit {
		return models.MinHistoryLimit
	}
	if limit > models.MaxHistoryLimit {
		return models.MaxHistoryLimit
	}
	return limit
}

// WriteSuccessResponse writes a successful host envelope
func WriteSuccessResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if statusCode == http.StatusNoContent {
		return
	}
	_ = json.NewEncoder(w).Encode(models.OkResult(data)) // Ignore encoding errors for response
}

// WriteErrorResponse writes a failed host envelope with a stable code
func WriteErrorResponse(w http.ResponseWriter, code ErrorCode, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatusForCode(code))
	_ = json.NewEncoder(w).Encode(models.ErrResult(string(code), message, details)) // Ignore encoding errors for response
}

// StrPointerAsStr dereferences a string pointer with a default
func StrPointerAsStr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

// IntPointerAsInt dereferences an int pointer with a default
func IntPointerAsInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// Int64PointerAsInt64 dereferences an int64 pointer with a default
func Int64PointerAsInt64(p *int64, def int64) int64 {
	if p == nil {
		return def
	}
	return *p
}

// BoolPointerAsBool dereferences a bool pointer with a default
func BoolPointerAsBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
