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

package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/host"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/middleware/logger"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

// maxInvokeBodyBytes bounds request bodies. Backup restores carry the whole
// database base64-encoded, so the cap is generous.
const maxInvokeBodyBytes = 256 << 20

// InvokeController exposes the host operation registry over HTTP.
type InvokeController interface {
	Invoke(w http.ResponseWriter, r *http.Request)
}

type invokeController struct {
	registry *host.Registry
}

// NewInvokeController creates a new invoke controller
func NewInvokeController(registry *host.Registry) InvokeController {
	return &invokeController{registry: registry}
}

// Invoke handles POST /api/v1/invoke/{operation}: the body is passed to the
// named operation verbatim and the result envelope is written back with the
// HTTP status derived from its error code.
func (c *invokeController) Invoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	operation := r.PathValue("operation")
	if operation == "" {
		utils.WriteErrorResponse(w, utils.CodeValidation, "operation name is required", nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxInvokeBodyBytes+1))
	if err != nil {
		log.Error("Failed to read invoke body", "operation", operation, "error", err)
		utils.WriteErrorResponse(w, utils.CodeInternal, "failed to read request body", nil)
		return
	}
	if len(body) > maxInvokeBodyBytes {
		utils.WriteErrorResponse(w, utils.CodeValidation, "request body too large", nil)
		return
	}

	var payload json.RawMessage
	if len(body) > 0 {
		payload = json.RawMessage(body)
	}

	result := c.registry.Invoke(ctx, operation, payload)

	status := http.StatusOK
	if !result.Ok && result.Error != nil {
		status = utils.HTTPStatusForCode(utils.ErrorCode(result.Error.Code))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Error("Failed to write invoke response", "operation", operation, "error", err)
	}
}
