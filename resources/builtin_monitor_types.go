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

// Package resources declares the built-in monitor type catalog. The
// descriptors are registered at engine startup before the scheduler begins;
// dynamic types can be added later through the same registry.
package resources

import (
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/catalog"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/checks"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/config"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
)

// BuiltinMonitorTypes returns the descriptors for every built-in monitor
// type, wired to their check executors.
func BuiltinMonitorTypes(cfg config.ChecksConfig) []catalog.MonitorTypeDescriptor {
	return []catalog.MonitorTypeDescriptor{
		{
			Type:        models.MonitorTypeHTTP,
			DisplayName: "HTTP (Website/API)",
			Description: "Checks a URL and reports up on any successful or redirect status.",
			Version:     "1.1.0",
			Fields: []catalog.FieldDescriptor{
				{Name: models.FieldURL, Label: "URL", Kind: "text", Required: true, Rules: "url"},
			},
			CheckFactory: func() catalog.Checker { return checks.NewHTTPChecker(cfg) },
		},
		{
			Type:        models.MonitorTypeHTTPStatus,
			DisplayName: "HTTP Status",
			Description: "Checks a URL against an expected status code list or range.",
			Version:     "1.0.0",
			Fields: []catalog.FieldDescriptor{
				{Name: models.FieldURL, Label: "URL", Kind: "text", Required: true, Rules: "url"},
				{Name: models.FieldStatusCode, Label: "Expected Status Codes", Kind: "text", Required: true, Rules: "min=1"},
			},
			CheckFactory: func() catalog.Checker { return checks.NewHTTPStatusChecker(cfg) },
		},
		{
			Type:        models.MonitorTypeHTTPKeyword,
			DisplayName: "HTTP Keyword",
			Description: "Checks that a keyword appears in the response body.",
			Version:     "1.0.0",
			Fields: []catalog.FieldDescriptor{
				{Name: models.FieldURL, Label: "URL", Kind: "text", Required: true, Rules: "url"},
				{Name: models.FieldKeyword, Label: "Keyword", Kind: "text", Required: true, Rules: "min=1"},
			},
			CheckFactory: func() catalog.Checker { return checks.NewHTTPKeywordChecker(cfg) },
		},
		{
			Type:        models.MonitorTypeHTTPHeader,
			DisplayName: "HTTP Header",
			Description: "Checks a response header against an exact value or /regex/.",
			Version:     "1.0.0",
			Fields: []catalog.FieldDescriptor{
				{Name: models.FieldURL, Label: "URL", Kind: "text", Required: true, Rules: "url"},
				{Name: models.FieldHeaderName, Label: "Header Name", Kind: "text", Required: true, Rules: "min=1"},
				{Name: models.FieldExpectedValue, Label: "Expected Value", Kind: "text", Required: true, Rules: "min=1"},
			},
			CheckFactory: func() catalog.Checker { return checks.NewHTTPHeaderChecker(cfg) },
		},
		{
			Type:        models.MonitorTypeHTTPJSON,
			DisplayName: "HTTP JSON",
			Description: "Checks a JSON response field against an expected value.",
			Version:     "1.0.0",
			Fields: []catalog.FieldDescriptor{
				{Name: models.FieldURL, Label: "URL", Kind: "text", Required: true, Rules: "url"},
				{Name: models.FieldJSONPath, Label: "JSON Path", Kind: "text", Required: true, Rules: "min=1"},
				{Name: models.FieldExpectedValue, Label: "Expected Value", Kind: "text", Required: true, Rules: "min=1"},
			},
			CheckFactory: func() catalog.Checker { return checks.NewHTTPJSONChecker(cfg) },
		},
		{
			Type:        models.MonitorTypeHTTPLatency,
			DisplayName: "HTTP Latency",
			Description: "Checks that a URL responds successfully within a latency threshold.",
			Version:     "1.0.0",
			Fields: []catalog.FieldDescriptor{
				{Name: models.FieldURL, Label: "URL", Kind: "text", Required: true, Rules: "url"},
				{Name: models.FieldLatencyThresholdMs, Label: "Latency Threshold (ms)", Kind: "number", Required: true, Rules: "gt=0"},
			},
			CheckFactory: func() catalog.Checker { return checks.NewHTTPLatencyChecker(cfg) },
		},
		{
			Type:        models.MonitorTypePort,
			DisplayName: "TCP Port",
			Description: "Checks that a TCP port accepts connections.",
			Version:     "1.0.0",
			Fields: []catalog.FieldDescriptor{
				{Name: models.FieldHost, Label: "Host", Kind: "text", Required: true, Rules: "min=1"},
				{Name: models.FieldPort, Label: "Port", Kind: "number", Required: true, Rules: "min=1,max=65535"},
			},
			CheckFactory: func() catalog.Checker { return checks.NewPortChecker() },
		},
		{
			Type:        models.MonitorTypePing,
			DisplayName: "Ping (ICMP)",
			Description: "Checks that a host answers ICMP echo requests.",
			Version:     "1.0.0",
			Fields: []catalog.FieldDescriptor{
				{Name: models.FieldHost, Label: "Host", Kind: "text", Required: true, Rules: "min=1"},
			},
			CheckFactory: func() catalog.Checker { return checks.NewPingChecker(cfg) },
		},
		{
			Type:        models.MonitorTypeDNS,
			DisplayName: "DNS",
			Description: "Checks DNS resolution for a record type, optionally against an expected value.",
			Version:     "1.0.0",
			Fields: []catalog.FieldDescriptor{
				{Name: models.FieldHost, Label: "Host", Kind: "text", Required: true, Rules: "min=1"},
				{Name: models.FieldRecordType, Label: "Record Type", Kind: "select", Required: true,
					Options: []string{"A", "AAAA", "CNAME", "MX", "NS", "TXT", "SRV", "PTR"},
					Rules:   "oneof=A AAAA CNAME MX NS TXT SRV PTR"},
				{Name: models.FieldExpectedValue, Label: "Expected Value", Kind: "text"},
			},
			CheckFactory: func() catalog.Checker { return checks.NewDNSChecker() },
		},
		{
			Type:        models.MonitorTypeSSL,
			DisplayName: "SSL Certificate",
			Description: "Checks TLS certificate validity and warns ahead of expiry.",
			Version:     "1.0.0",
			Fields: []catalog.FieldDescriptor{
				{Name: models.FieldHost, Label: "Host", Kind: "text", Required: true, Rules: "min=1"},
				{Name: models.FieldPort, Label: "Port", Kind: "number", Required: true, Rules: "min=1,max=65535"},
				{Name: models.FieldCertExpiryWindowDays, Label: "Expiry Window (days)", Kind: "number", Rules: "gte=0"},
			},
			CheckFactory: func() catalog.Checker { return checks.NewSSLChecker() },
		},
	}
}

// RegisterBuiltins loads the built-in descriptors and their payload
// migration rules into the given registries.
func RegisterBuiltins(registry *catalog.Registry, migrations *catalog.MigrationRegistry, cfg config.ChecksConfig) error {
	for _, descriptor := range BuiltinMonitorTypes(cfg) {
		if err := registry.Register(descriptor); err != nil {
			return err
		}
	}
	return registerBuiltinMigrations(migrations)
}

// registerBuiltinMigrations seeds the version graph for descriptors that
// evolved since their first release.
func registerBuiltinMigrations(migrations *catalog.MigrationRegistry) error {
	// 1.0.0 stored the target under checkUrl; 1.1.0 renamed it to url.
	return migrations.RegisterMigration(models.MonitorTypeHTTP, "1.0.0", "1.1.0",
		func(fields map[string]any) (map[string]any, error) {
			next := make(map[string]any, len(fields))
			for name, value := range fields {
				if name == "checkUrl" {
					next[models.FieldURL] = value
					continue
				}
				next[name] = value
			}
			return next, nil
		}, false)
}
