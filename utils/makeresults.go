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
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
)

// ConvertToSiteListResponse maps site records to the outward list shape
func ConvertToSiteListResponse(sites []*models.Site) models.SiteListResponse {
	if len(sites) == 0 {
		return models.SiteListResponse{Sites: []models.SiteResponse{}, Total: 0}
	}
	responses := make([]models.SiteResponse, len(sites))
	for i, site := range sites {
		responses[i] = *site.ToResponse()
	}
	return models.SiteListResponse{Sites: responses, Total: len(responses)}
}

// ConvertToMonitorListResponse maps monitor records to outward shapes
func ConvertToMonitorListResponse(monitors []models.Monitor) []models.MonitorResponse {
	if len(monitors) == 0 {
		return []models.MonitorResponse{}
	}
	responses := make([]models.MonitorResponse, len(monitors))
	for i := range monitors {
		responses[i] = *monitors[i].ToResponse()
	}
	return responses
}

// ConvertToHistoryListResponse maps history records to outward shapes
func ConvertToHistoryListResponse(records []models.StatusRecord) []models.StatusRecordResponse {
	if len(records) == 0 {
		return []models.StatusRecordResponse{}
	}
	responses := make([]models.StatusRecordResponse, len(records))
	for i := range records {
		responses[i] = *records[i].ToResponse()
	}
	return responses
}
