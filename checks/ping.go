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
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/config"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

// PingChecker reports up when the host answers an ICMP echo request within
// the monitor's timeout. By default it uses unprivileged datagram sockets;
// PingPrivileged switches to raw sockets for hosts where the datagram ICMP
// sysctl is closed.
type PingChecker struct {
	privileged bool
}

// NewPingChecker creates the ping checker
func NewPingChecker(cfg config.ChecksConfig) *PingChecker {
	return &PingChecker{privileged: cfg.PingPrivileged}
}

func (c *PingChecker) Check(ctx context.Context, monitor *models.Monitor) models.CheckResult {
	host := utils.StrPointerAsStr(monitor.Host, "")
	if host == "" {
		return failure("missing host", 0, fmt.Errorf("monitor %s has no host", monitor.ID))
	}

	timeout := time.Duration(monitor.TimeoutMs) * time.Millisecond
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	addr, err := resolveIPv4(ctx, host)
	if err != nil {
		return timeoutOrFailure(ctx, "dns resolution failed", time.Since(start), err)
	}

	network, peer := "udp4", net.Addr(&net.UDPAddr{IP: addr})
	if c.privileged {
		network, peer = "ip4:icmp", &net.IPAddr{IP: addr}
	}

	conn, err := icmp.ListenPacket(network, "0.0.0.0")
	if err != nil {
		return failure("icmp socket unavailable", time.Since(start), err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return failure("icmp deadline failed", time.Since(start), err)
		}
	}

	echo := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Body: &icmp.Echo{
			ID:   os.Getpid() & 0xffff,
			Seq:  1,
			Data: []byte("uptime-watcher"),
		},
	}
	payload, err := echo.Marshal(nil)
	if err != nil {
		return failure("icmp marshal failed", time.Since(start), err)
	}
	if _, err := conn.WriteTo(payload, peer); err != nil {
		return timeoutOrFailure(ctx, "icmp send failed", time.Since(start), err)
	}

	reply := make([]byte, 1500)
	for {
		n, _, err := conn.ReadFrom(reply)
		elapsed := time.Since(start)
		if err != nil {
			return timeoutOrFailure(ctx, "no icmp reply", elapsed, err)
		}
		message, err := icmp.ParseMessage(ipv4.ICMPTypeEchoReply.Protocol(), reply[:n])
		if err != nil {
			continue
		}
		switch message.Type {
		case ipv4.ICMPTypeEchoReply:
			return success(fmt.Sprintf("reply from %s", addr), elapsed)
		case ipv4.ICMPTypeDestinationUnreachable:
			return failure("destination unreachable", elapsed, nil)
		default:
			// Unrelated ICMP traffic, keep reading until the deadline.
		}
	}
}

// resolveIPv4 picks the first IPv4 address for the host.
func resolveIPv4(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
		return nil, fmt.Errorf("host %s is not an IPv4 address", host)
	}
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	for _, addr := range addrs {
		if v4 := addr.IP.To4(); v4 != nil {
			return v4, nil
		}
	}
	return nil, fmt.Errorf("host %s has no IPv4 address", host)
}
