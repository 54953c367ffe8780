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

// create table monitors
var migration002 = migration{
	ID: 2,
	Migrate: func(db *gorm.DB) error {
		createTable := `CREATE TABLE IF NOT EXISTS monitors
(
   id                 TEXT PRIMARY KEY NOT NULL CHECK (length(trim(id)) > 0),
   site_identifier    TEXT NOT NULL,
   type               TEXT NOT NULL,
   status             TEXT NOT NULL DEFAULT 'pending',
   check_interval_ms  INTEGER NOT NULL,
   timeout_ms         INTEGER NOT NULL,
   retry_attempts     INTEGER NOT NULL DEFAULT 0,
   monitoring         INTEGER NOT NULL DEFAULT 0,
   created_at         INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000),
   updated_at         INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000),
   FOREIGN KEY (site_identifier) REFERENCES sites (identifier) ON DELETE CASCADE
)`

		createIndex := `CREATE UNIQUE INDEX IF NOT EXISTS idx_monitors_site_id ON monitors (site_identifier, id)`

		return db.Transaction(func(tx *gorm.DB) error {
			return runSQL(tx, createTable, createIndex)
		})
	},
}
