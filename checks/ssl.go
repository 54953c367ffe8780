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
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

// DefaultCertExpiryWindowDays is the degradation window applied when the
// monitor does not configure one.
const DefaultCertExpiryWindowDays = 30

// SSLChecker reports up when a TLS handshake to host:port yields a valid
// certificate chain whose leaf stays valid beyond the expiry window. A leaf
// inside the window is reported down so renewal lapses surface before the
// certificate actually expires.
type SSLChecker struct {
	// insecureSkipVerify disables chain verification, for tests against
	// self-signed listeners. Expiry window evaluation still applies.
	insecureSkipVerify bool
}

// NewSSLChecker creates the ssl checker
func NewSSLChecker() *SSLChecker {
	return &SSLChecker{}
}

func (c *SSLChecker) Check(ctx context.Context, monitor *models.Monitor) models.CheckResult {
	host := utils.StrPointerAsStr(monitor.Host, "")
	port := utils.IntPointerAsInt(monitor.Port, 443)
	if host == "" || port < 1 || port > 65535 {
		return failure("missing or invalid host/port", 0,
			fmt.Errorf("monitor %s has invalid ssl check fields", monitor.ID))
	}
	windowDays := utils.IntPointerAsInt(monitor.CertExpiryWindowDays, DefaultCertExpiryWindowDays)
	if windowDays < 0 {
		windowDays = DefaultCertExpiryWindowDays
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(monitor.TimeoutMs)*time.Millisecond)
	defer cancel()

	dialer := tls.Dialer{
		NetDialer: &net.Dialer{},
		Config: &tls.Config{
			ServerName:         host,
			InsecureSkipVerify: c.insecureSkipVerify,
		},
	}

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	elapsed := time.Since(start)
	if err != nil {
		return timeoutOrFailure(ctx, "tls handshake failed", elapsed, err)
	}
	defer conn.Close()

	certs := conn.(*tls.Conn).ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return failure("no peer certificate", elapsed, nil)
	}
	leaf := certs[0]

	now := time.Now()
	if now.Before(leaf.NotBefore) {
		return failure("certificate not yet valid", elapsed, nil)
	}
	if now.After(leaf.NotAfter) {
		return failure("certificate expired", elapsed, nil)
	}

	daysLeft := int(leaf.NotAfter.Sub(now).Hours() / 24)
	if windowDays > 0 && now.Add(time.Duration(windowDays)*24*time.Hour).After(leaf.NotAfter) {
		return failure(fmt.Sprintf("certificate expires in %d days", daysLeft), elapsed, nil)
	}
	return success(fmt.Sprintf("certificate valid for %d days", daysLeft), elapsed)
}
