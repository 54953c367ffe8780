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

import "strings"

// Setting is the GORM model for the settings table
type Setting struct {
	Key   string `gorm:"column:key;primaryKey;not null"`
	Value string `gorm:"column:value"`
}

func (Setting) TableName() string { return "settings" }

// Canonical setting keys
const (
	SettingKeyHistoryLimit = "historyLimit"
)

// ReservedSettingPrefix marks local-only settings that are excluded from
// export and never restored by import.
const ReservedSettingPrefix = "cloud."

// IsReservedSettingKey reports whether the key is local-only
func IsReservedSettingKey(key string) bool {
	return strings.HasPrefix(key, ReservedSettingPrefix)
}
