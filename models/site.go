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

package models

// Site is the GORM model for the sites table
type Site struct {
	Identifier string `gorm:"column:identifier;primaryKey;not null"`
	Name       string `gorm:"column:name;not null"`
	Monitoring bool   `gorm:"column:monitoring;not null;default:false"`
	CreatedAt  int64  `gorm:"column:created_at;not null;autoCreateTime:milli"`
	UpdatedAt  int64  `gorm:"column:updated_at;not null;autoUpdateTime:milli"`

	// Loaded separately; never written through the site aggregate directly.
	Monitors []Monitor `gorm:"-"`
}

func (Site) TableName() string { return "sites" }

// ToResponse converts a Site DB record to SiteResponse
func (s *Site) ToResponse() *SiteResponse {
	monitors := make([]MonitorResponse, len(s.Monitors))
	for i := range s.Monitors {
		monitors[i] = *s.Monitors[i].ToResponse()
	}
	return &SiteResponse{
		Identifier: s.Identifier,
		Name:       s.Name,
		Monitoring: s.Monitoring,
		Monitors:   monitors,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// CreateSiteRequest is the payload for sites.add
type CreateSiteRequest struct {
	Identifier string                 `json:"identifier" validate:"required,min=1,max=128"`
	Name       string                 `json:"name" validate:"required,min=1,max=256"`
	Monitoring *bool                  `json:"monitoring,omitempty"`
	Monitors   []CreateMonitorRequest `json:"monitors" validate:"required,min=1,dive"`
}

// UpdateSiteRequest is the payload for sites.update. Nil fields are untouched.
type UpdateSiteRequest struct {
	Name       *string                 `json:"name,omitempty" validate:"omitempty,min=1,max=256"`
	Monitoring *bool                   `json:"monitoring,omitempty"`
	Monitors   *[]CreateMonitorRequest `json:"monitors,omitempty" validate:"omitempty,min=1,dive"`
}

// SiteResponse is the outward representation of a site
type SiteResponse struct {
	Identifier string            `json:"identifier"`
	Name       string            `json:"name"`
	Monitoring bool              `json:"monitoring"`
	Monitors   []MonitorResponse `json:"monitors"`
	CreatedAt  int64             `json:"createdAt"`
	UpdatedAt  int64             `json:"updatedAt"`
}

// SiteListResponse is the outward representation of the full site set
type SiteListResponse struct {
	Sites []SiteResponse `json:"sites"`
	Total int            `json:"total"`
}
