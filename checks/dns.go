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
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

// dnsRecordTypes maps the monitor's recordType field onto wire types.
var dnsRecordTypes = map[string]uint16{
	"A":     dns.TypeA,
	"AAAA":  dns.TypeAAAA,
	"CNAME": dns.TypeCNAME,
	"MX":    dns.TypeMX,
	"NS":    dns.TypeNS,
	"TXT":   dns.TypeTXT,
	"SRV":   dns.TypeSRV,
	"PTR":   dns.TypePTR,
}

// DNSChecker reports up when the host resolves records of the configured
// type, and when expectedValue is set, only if one of the answers matches it.
type DNSChecker struct {
	// serverAddress overrides resolv.conf discovery, for tests.
	serverAddress string
}

// NewDNSChecker creates the dns checker
func NewDNSChecker() *DNSChecker {
	return &DNSChecker{}
}

func (c *DNSChecker) Check(ctx context.Context, monitor *models.Monitor) models.CheckResult {
	host := utils.StrPointerAsStr(monitor.Host, "")
	recordType := strings.ToUpper(utils.StrPointerAsStr(monitor.RecordType, ""))
	if host == "" || recordType == "" {
		return failure("missing host or recordType", 0,
			fmt.Errorf("monitor %s is missing dns check fields", monitor.ID))
	}
	wireType, ok := dnsRecordTypes[recordType]
	if !ok {
		return failure(fmt.Sprintf("unsupported record type %s", recordType), 0,
			fmt.Errorf("monitor %s has unsupported record type %s", monitor.ID, recordType))
	}

	server, err := c.resolveServer()
	if err != nil {
		return failure("no dns server configured", 0, err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(monitor.TimeoutMs)*time.Millisecond)
	defer cancel()

	question := new(dns.Msg)
	question.SetQuestion(dns.Fqdn(host), wireType)
	question.RecursionDesired = true

	client := &dns.Client{Timeout: time.Duration(monitor.TimeoutMs) * time.Millisecond}

	start := time.Now()
	response, _, err := client.ExchangeContext(ctx, question, server)
	elapsed := time.Since(start)
	if err != nil {
		return timeoutOrFailure(ctx, "dns query failed", elapsed, err)
	}
	if response.Rcode != dns.RcodeSuccess {
		return failure(dns.RcodeToString[response.Rcode], elapsed, nil)
	}

	values := answerValues(response.Answer, wireType)
	if len(values) == 0 {
		return failure("no matching records", elapsed, nil)
	}

	expected := utils.StrPointerAsStr(monitor.ExpectedValue, "")
	if expected == "" {
		return success(strings.Join(values, ", "), elapsed)
	}
	for _, value := range values {
		if dnsValueMatches(value, expected) {
			return success(value, elapsed)
		}
	}
	return failure(fmt.Sprintf("no record matched %q", expected), elapsed, nil)
}

// resolveServer finds the upstream resolver: the test override or the first
// resolv.conf nameserver.
func (c *DNSChecker) resolveServer() (string, error) {
	if c.serverAddress != "" {
		return c.serverAddress, nil
	}
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil {
		return "", err
	}
	if len(conf.Servers) == 0 {
		return "", fmt.Errorf("resolv.conf lists no nameservers")
	}
	return net.JoinHostPort(conf.Servers[0], conf.Port), nil
}

// answerValues extracts comparable string values from answers of the
// requested type, following CNAME indirection in the answer section.
func answerValues(answers []dns.RR, wireType uint16) []string {
	var values []string
	for _, answer := range answers {
		if answer.Header().Rrtype != wireType {
			continue
		}
		switch record := answer.(type) {
		case *dns.A:
			values = append(values, record.A.String())
		case *dns.AAAA:
			values = append(values, record.AAAA.String())
		case *dns.CNAME:
			values = append(values, record.Target)
		case *dns.MX:
			values = append(values, record.Mx)
		case *dns.NS:
			values = append(values, record.Ns)
		case *dns.TXT:
			values = append(values, strings.Join(record.Txt, ""))
		case *dns.SRV:
			values = append(values, fmt.Sprintf("%s:%d", record.Target, record.Port))
		case *dns.PTR:
			values = append(values, record.Ptr)
		}
	}
	return values
}

// dnsValueMatches compares case-insensitively and tolerates the trailing dot
// on fully qualified names.
func dnsValueMatches(value, expected string) bool {
	return strings.EqualFold(strings.TrimSuffix(value, "."), strings.TrimSuffix(expected, "."))
}
