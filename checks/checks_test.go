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
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/config"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
)

func testChecksConfig() config.ChecksConfig {
	return config.ChecksConfig{
		RateLimitPerHost:    100,
		RateBurstPerHost:    100,
		MaxRedirects:        5,
		KeywordMaxBodyBytes: 1 << 20,
		UserAgent:           "uptime-watcher-test/0.0",
	}
}

func httpMonitor(url string) *models.Monitor {
	return &models.Monitor{
		ID:              "mon-http-test",
		SiteIdentifier:  "site-test",
		Type:            models.MonitorTypeHTTP,
		CheckIntervalMs: models.MinCheckIntervalMs,
		TimeoutMs:       5000,
		URL:             &url,
	}
}

func strPtr(s string) *string { return &s }

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }

// --- statusMatcher tests ---

func TestStatusMatcher_ListsAndRanges(t *testing.T) {
	match, err := statusMatcher("200,204,301-399")
	require.NoError(t, err)

	assert.True(t, match(200))
	assert.True(t, match(204))
	assert.True(t, match(301))
	assert.True(t, match(399))
	assert.False(t, match(201))
	assert.False(t, match(400))
	assert.False(t, match(500))
}

func TestStatusMatcher_InvalidSpecs(t *testing.T) {
	for _, spec := range []string{"", "abc", "200-abc", ","} {
		_, err := statusMatcher(spec)
		assert.Error(t, err, "spec %q should not parse", spec)
	}
}

// --- matchExactOrRegex tests ---

func TestMatchExactOrRegex(t *testing.T) {
	matched, err := matchExactOrRegex("gzip", "gzip")
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = matchExactOrRegex("br", "/gzip|br/")
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = matchExactOrRegex("deflate", "/gzip|br/")
	require.NoError(t, err)
	assert.False(t, matched)

	_, err = matchExactOrRegex("x", "/[unclosed/")
	assert.Error(t, err)
}

// --- readAtMost tests ---

func TestReadAtMost_CapsBody(t *testing.T) {
	body, err := readAtMost(strings.NewReader(strings.Repeat("a", 100)), 10)
	require.NoError(t, err)
	assert.Len(t, body, 10)
}

// --- HTTP checker tests ---

func TestHTTPChecker_UpOnSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	result := NewHTTPChecker(testChecksConfig()).Check(context.Background(), httpMonitor(server.URL))

	assert.Equal(t, models.MonitorStatusUp, result.Status)
	assert.Equal(t, "204", result.Details)
	assert.GreaterOrEqual(t, result.ResponseTimeMs, int64(0))
}

func TestHTTPChecker_DownOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	result := NewHTTPChecker(testChecksConfig()).Check(context.Background(), httpMonitor(server.URL))

	assert.Equal(t, models.MonitorStatusDown, result.Status)
	assert.Equal(t, "500", result.Details)
}

func TestHTTPChecker_DownOnUnreachableHost(t *testing.T) {
	monitor := httpMonitor("http://127.0.0.1:1")
	monitor.TimeoutMs = 2000

	result := NewHTTPChecker(testChecksConfig()).Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusDown, result.Status)
	assert.NotEmpty(t, result.Error)
}

func TestHTTPChecker_TimeoutDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	monitor := httpMonitor(server.URL)
	monitor.TimeoutMs = 50

	result := NewHTTPChecker(testChecksConfig()).Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusDown, result.Status)
	assert.Equal(t, models.CheckDetailTimeout, result.Details)
}

func TestHTTPChecker_MissingURL(t *testing.T) {
	monitor := httpMonitor("")

	result := NewHTTPChecker(testChecksConfig()).Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusDown, result.Status)
	assert.NotEmpty(t, result.Error)
}

func TestHTTPChecker_RedirectCap(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	cfg := testChecksConfig()
	cfg.MaxRedirects = 2

	result := NewHTTPChecker(cfg).Check(context.Background(), httpMonitor(server.URL))

	assert.Equal(t, models.MonitorStatusDown, result.Status)
	assert.Contains(t, result.Error, ErrTooManyRedirects.Error())
}

// --- HTTP status checker tests ---

func TestHTTPStatusChecker_MatchesConfiguredRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	monitor := httpMonitor(server.URL)
	monitor.Type = models.MonitorTypeHTTPStatus
	monitor.StatusCode = strPtr("200,418")

	result := NewHTTPStatusChecker(testChecksConfig()).Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusUp, result.Status)
	assert.Equal(t, "418", result.Details)
}

func TestHTTPStatusChecker_MismatchIsDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	monitor := httpMonitor(server.URL)
	monitor.Type = models.MonitorTypeHTTPStatus
	monitor.StatusCode = strPtr("500-599")

	result := NewHTTPStatusChecker(testChecksConfig()).Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusDown, result.Status)
	assert.Equal(t, "200", result.Details)
}

func TestHTTPStatusChecker_MissingConfig(t *testing.T) {
	monitor := httpMonitor("http://example.invalid")
	monitor.Type = models.MonitorTypeHTTPStatus

	result := NewHTTPStatusChecker(testChecksConfig()).Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusDown, result.Status)
	assert.Equal(t, "missing statusCode", result.Details)
}

// --- HTTP keyword checker tests ---

func TestHTTPKeywordChecker_FindsKeyword(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>All systems operational</body></html>"))
	}))
	defer server.Close()

	monitor := httpMonitor(server.URL)
	monitor.Type = models.MonitorTypeHTTPKeyword
	monitor.Keyword = strPtr("operational")

	result := NewHTTPKeywordChecker(testChecksConfig()).Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusUp, result.Status)
}

func TestHTTPKeywordChecker_KeywordBeyondCapIsDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 1024)))
		_, _ = w.Write([]byte("operational"))
	}))
	defer server.Close()

	cfg := testChecksConfig()
	cfg.KeywordMaxBodyBytes = 512

	monitor := httpMonitor(server.URL)
	monitor.Type = models.MonitorTypeHTTPKeyword
	monitor.Keyword = strPtr("operational")

	result := NewHTTPKeywordChecker(cfg).Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusDown, result.Status)
	assert.Equal(t, "keyword not found", result.Details)
}

// --- HTTP header checker tests ---

func TestHTTPHeaderChecker_ExactAndRegex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Backend", "edge-7")
	}))
	defer server.Close()

	monitor := httpMonitor(server.URL)
	monitor.Type = models.MonitorTypeHTTPHeader
	monitor.HeaderName = strPtr("X-Backend")

	monitor.ExpectedValue = strPtr("edge-7")
	result := NewHTTPHeaderChecker(testChecksConfig()).Check(context.Background(), monitor)
	assert.Equal(t, models.MonitorStatusUp, result.Status)

	monitor.ExpectedValue = strPtr("/^edge-\\d+$/")
	result = NewHTTPHeaderChecker(testChecksConfig()).Check(context.Background(), monitor)
	assert.Equal(t, models.MonitorStatusUp, result.Status)

	monitor.ExpectedValue = strPtr("/^core-\\d+$/")
	result = NewHTTPHeaderChecker(testChecksConfig()).Check(context.Background(), monitor)
	assert.Equal(t, models.MonitorStatusDown, result.Status)
}

func TestHTTPHeaderChecker_AbsentHeaderIsDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	monitor := httpMonitor(server.URL)
	monitor.Type = models.MonitorTypeHTTPHeader
	monitor.HeaderName = strPtr("X-Missing")
	monitor.ExpectedValue = strPtr("anything")

	result := NewHTTPHeaderChecker(testChecksConfig()).Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusDown, result.Status)
	assert.Equal(t, "header absent", result.Details)
}

// --- HTTP JSON checker tests ---

func TestHTTPJSONChecker_PathMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","checks":{"db":"ok"}}`))
	}))
	defer server.Close()

	monitor := httpMonitor(server.URL)
	monitor.Type = models.MonitorTypeHTTPJSON

	monitor.JSONPath = strPtr("status")
	monitor.ExpectedValue = strPtr("healthy")
	result := NewHTTPJSONChecker(testChecksConfig()).Check(context.Background(), monitor)
	assert.Equal(t, models.MonitorStatusUp, result.Status)

	monitor.JSONPath = strPtr("checks.db")
	monitor.ExpectedValue = strPtr("ok")
	result = NewHTTPJSONChecker(testChecksConfig()).Check(context.Background(), monitor)
	assert.Equal(t, models.MonitorStatusUp, result.Status)

	monitor.JSONPath = strPtr("checks.cache")
	result = NewHTTPJSONChecker(testChecksConfig()).Check(context.Background(), monitor)
	assert.Equal(t, models.MonitorStatusDown, result.Status)
	assert.Equal(t, "json path not found", result.Details)
}

func TestHTTPJSONChecker_InvalidBodyIsDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	monitor := httpMonitor(server.URL)
	monitor.Type = models.MonitorTypeHTTPJSON
	monitor.JSONPath = strPtr("status")
	monitor.ExpectedValue = strPtr("healthy")

	result := NewHTTPJSONChecker(testChecksConfig()).Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusDown, result.Status)
	assert.Equal(t, "invalid json body", result.Details)
}

// --- HTTP latency checker tests ---

func TestHTTPLatencyChecker_WithinThreshold(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	monitor := httpMonitor(server.URL)
	monitor.Type = models.MonitorTypeHTTPLatency
	monitor.LatencyThresholdMs = int64Ptr(10000)

	result := NewHTTPLatencyChecker(testChecksConfig()).Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusUp, result.Status)
}

func TestHTTPLatencyChecker_BeyondThresholdIsDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
	}))
	defer server.Close()

	monitor := httpMonitor(server.URL)
	monitor.Type = models.MonitorTypeHTTPLatency
	monitor.LatencyThresholdMs = int64Ptr(1)

	result := NewHTTPLatencyChecker(testChecksConfig()).Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusDown, result.Status)
	assert.Contains(t, result.Details, ">")
}

// --- port checker tests ---

func TestPortChecker_UpOnListeningPort(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	_, portStr, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	monitor := &models.Monitor{
		ID:        "mon-port-test",
		Type:      models.MonitorTypePort,
		TimeoutMs: 2000,
		Host:      strPtr("127.0.0.1"),
		Port:      intPtr(port),
	}

	result := NewPortChecker().Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusUp, result.Status)
}

func TestPortChecker_DownOnClosedPort(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, portStr, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	require.NoError(t, listener.Close())

	monitor := &models.Monitor{
		ID:        "mon-port-test",
		Type:      models.MonitorTypePort,
		TimeoutMs: 2000,
		Host:      strPtr("127.0.0.1"),
		Port:      intPtr(port),
	}

	result := NewPortChecker().Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusDown, result.Status)
	assert.NotEmpty(t, result.Error)
}

func TestPortChecker_InvalidFields(t *testing.T) {
	monitor := &models.Monitor{ID: "mon-port-test", TimeoutMs: 2000, Host: strPtr("127.0.0.1"), Port: intPtr(0)}

	result := NewPortChecker().Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusDown, result.Status)
}

// --- dns checker tests ---

func startTestDNSServer(t *testing.T, handler dns.HandlerFunc) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	server := &dns.Server{PacketConn: pc, Handler: handler}
	go func() { _ = server.ActivateAndServe() }()
	t.Cleanup(func() { _ = server.Shutdown() })

	return pc.LocalAddr().String()
}

func TestDNSChecker_ARecordMatch(t *testing.T) {
	address := startTestDNSServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		record, err := dns.NewRR(r.Question[0].Name + " 300 IN A 192.0.2.10")
		if err == nil {
			m.Answer = append(m.Answer, record)
		}
		_ = w.WriteMsg(m)
	})

	monitor := &models.Monitor{
		ID:         "mon-dns-test",
		Type:       models.MonitorTypeDNS,
		TimeoutMs:  2000,
		Host:       strPtr("example.com"),
		RecordType: strPtr("A"),
	}
	checker := &DNSChecker{serverAddress: address}

	result := checker.Check(context.Background(), monitor)
	assert.Equal(t, models.MonitorStatusUp, result.Status)
	assert.Equal(t, "192.0.2.10", result.Details)

	monitor.ExpectedValue = strPtr("192.0.2.10")
	result = checker.Check(context.Background(), monitor)
	assert.Equal(t, models.MonitorStatusUp, result.Status)

	monitor.ExpectedValue = strPtr("198.51.100.1")
	result = checker.Check(context.Background(), monitor)
	assert.Equal(t, models.MonitorStatusDown, result.Status)
}

func TestDNSChecker_NXDomainIsDown(t *testing.T) {
	address := startTestDNSServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetRcode(r, dns.RcodeNameError)
		_ = w.WriteMsg(m)
	})

	monitor := &models.Monitor{
		ID:         "mon-dns-test",
		Type:       models.MonitorTypeDNS,
		TimeoutMs:  2000,
		Host:       strPtr("missing.example.com"),
		RecordType: strPtr("A"),
	}
	checker := &DNSChecker{serverAddress: address}

	result := checker.Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusDown, result.Status)
	assert.Equal(t, "NXDOMAIN", result.Details)
}

func TestDNSChecker_UnsupportedRecordType(t *testing.T) {
	monitor := &models.Monitor{
		ID:         "mon-dns-test",
		TimeoutMs:  2000,
		Host:       strPtr("example.com"),
		RecordType: strPtr("SOA"),
	}

	result := NewDNSChecker().Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusDown, result.Status)
}

func TestDNSValueMatches(t *testing.T) {
	assert.True(t, dnsValueMatches("mail.example.com.", "mail.example.com"))
	assert.True(t, dnsValueMatches("MAIL.EXAMPLE.COM.", "mail.example.com."))
	assert.False(t, dnsValueMatches("mail.example.com.", "mx.example.com"))
}

// --- ssl checker tests ---

func TestSSLChecker_ValidCertificate(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(server.URL, "https://"))
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	monitor := &models.Monitor{
		ID:        "mon-ssl-test",
		Type:      models.MonitorTypeSSL,
		TimeoutMs: 2000,
		Host:      strPtr(host),
		Port:      intPtr(port),
	}
	checker := &SSLChecker{insecureSkipVerify: true}

	result := checker.Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusUp, result.Status)
	assert.Contains(t, result.Details, "certificate valid")
}

func TestSSLChecker_UntrustedChainIsDown(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(server.URL, "https://"))
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	monitor := &models.Monitor{
		ID:        "mon-ssl-test",
		Type:      models.MonitorTypeSSL,
		TimeoutMs: 2000,
		Host:      strPtr(host),
		Port:      intPtr(port),
	}

	result := NewSSLChecker().Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusDown, result.Status)
	assert.NotEmpty(t, result.Error)
}

func TestSSLChecker_ClosedPortIsDown(t *testing.T) {
	monitor := &models.Monitor{
		ID:        "mon-ssl-test",
		Type:      models.MonitorTypeSSL,
		TimeoutMs: 2000,
		Host:      strPtr("127.0.0.1"),
		Port:      intPtr(1),
	}

	result := NewSSLChecker().Check(context.Background(), monitor)

	assert.Equal(t, models.MonitorStatusDown, result.Status)
}
