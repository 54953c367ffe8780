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

package dbmigrations

import (
	"gorm.io/gorm"
)

// Add the type-specific monitor columns. Each registered monitor type reads
// its own subset; rows keep NULL in columns their type does not use.
var migration005 = migration{
	ID: 5,
	Migrate: func(db *gorm.DB) error {
		columns := []struct {
			name       string
			definition string
		}{
			{"url", "TEXT"},
			{"host", "TEXT"},
			{"port", "INTEGER"},
			{"record_type", "TEXT"},
			{"expected_value", "TEXT"},
			{"status_code", "TEXT"},
			{"header_name", "TEXT"},
			{"keyword", "TEXT"},
			{"json_path", "TEXT"},
			{"latency_threshold_ms", "INTEGER"},
			{"cert_expiry_window_days", "INTEGER"},
		}

		return db.Transaction(func(tx *gorm.DB) error {
			for _, column := range columns {
				if err := addColumnIfAbsent(tx, "monitors", column.name, column.definition); err != nil {
					return err
				}
			}
			return nil
		})
	},
}
