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

package checks

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

// PortChecker reports up when a TCP connection to host:port succeeds within
// the monitor's timeout.
type PortChecker struct{}

// NewPortChecker creates the port checker
func NewPortChecker() *PortChecker {
	return &PortChecker{}
}

func (c *PortChecker) Check(ctx context.Context, monitor *models.Monitor) models.CheckResult {
	host := utils.StrPointerAsStr(monitor.Host, "")
	port := utils.IntPointerAsInt(monitor.Port, 0)
	if host == "" || port < 1 || port > 65535 {
		return failure("missing or invalid host/port", 0,
			fmt.Errorf("monitor %s has invalid port check fields", monitor.ID))
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(monitor.TimeoutMs)*time.Millisecond)
	defer cancel()

	address := net.JoinHostPort(host, strconv.Itoa(port))
	dialer := net.Dialer{}

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", address)
	elapsed := time.Since(start)
	if err != nil {
		return timeoutOrFailure(ctx, "connection refused", elapsed, err)
	}
	defer conn.Close()

	return success(fmt.Sprintf("connected to %s", address), elapsed)
}
