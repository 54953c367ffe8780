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

// create table history
var migration003 = migration{
	ID: 3,
	Migrate: func(db *gorm.DB) error {
		createTable := `CREATE TABLE IF NOT EXISTS history
(
   id                INTEGER PRIMARY KEY AUTOINCREMENT,
   monitor_id        TEXT NOT NULL,
   timestamp         INTEGER NOT NULL,
   status            TEXT NOT NULL,
   response_time_ms  INTEGER NOT NULL DEFAULT 0,
   details           TEXT,
   FOREIGN KEY (monitor_id) REFERENCES monitors (id) ON DELETE CASCADE
)`

		createIndex := `CREATE INDEX IF NOT EXISTS idx_history_monitor_ts ON history (monitor_id, timestamp DESC)`

		return db.Transaction(func(tx *gorm.DB) error {
			return runSQL(tx, createTable, createIndex)
		})
	},
}
