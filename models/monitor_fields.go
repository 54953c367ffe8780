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

import "fmt"

// Type-specific field names as they appear in payloads and descriptors
const (
	FieldURL                  = "url"
	FieldHost                 = "host"
	FieldPort                 = "port"
	FieldRecordType           = "recordType"
	FieldExpectedValue        = "expectedValue"
	FieldStatusCode           = "statusCode"
	FieldHeaderName           = "headerName"
	FieldKeyword              = "keyword"
	FieldJSONPath             = "jsonPath"
	FieldLatencyThresholdMs   = "latencyThresholdMs"
	FieldCertExpiryWindowDays = "certExpiryWindowDays"
)

// fieldAccessor reads and writes one type-specific monitor column
type fieldAccessor struct {
	get func(m *Monitor) (any, bool)
	set func(m *Monitor, v any) error
}

var fieldAccessors = map[string]fieldAccessor{
	FieldURL:                  stringField(func(m *Monitor) **string { return &m.URL }),
	FieldHost:                 stringField(func(m *Monitor) **string { return &m.Host }),
	FieldRecordType:           stringField(func(m *Monitor) **string { return &m.RecordType }),
	FieldExpectedValue:        stringField(func(m *Monitor) **string { return &m.ExpectedValue }),
	FieldStatusCode:           stringField(func(m *Monitor) **string { return &m.StatusCode }),
	FieldHeaderName:           stringField(func(m *Monitor) **string { return &m.HeaderName }),
	FieldKeyword:              stringField(func(m *Monitor) **string { return &m.Keyword }),
	FieldJSONPath:             stringField(func(m *Monitor) **string { return &m.JSONPath }),
	FieldPort:                 intField(func(m *Monitor) **int { return &m.Port }),
	FieldCertExpiryWindowDays: intField(func(m *Monitor) **int { return &m.CertExpiryWindowDays }),
	FieldLatencyThresholdMs:   int64Field(func(m *Monitor) **int64 { return &m.LatencyThresholdMs }),
}

func stringField(slot func(m *Monitor) **string) fieldAccessor {
	return fieldAccessor{
		get: func(m *Monitor) (any, bool) {
			p := *slot(m)
			if p == nil {
				return nil, false
			}
			return *p, true
		},
		set: func(m *Monitor, v any) error {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("expected string, got %T", v)
			}
			*slot(m) = &s
			return nil
		},
	}
}

func intField(slot func(m *Monitor) **int) fieldAccessor {
	return fieldAccessor{
		get: func(m *Monitor) (any, bool) {
			p := *slot(m)
			if p == nil {
				return nil, false
			}
			return *p, true
		},
		set: func(m *Monitor, v any) error {
			n, err := coerceInt64(v)
			if err != nil {
				return err
			}
			i := int(n)
			*slot(m) = &i
			return nil
		},
	}
}

func int64Field(slot func(m *Monitor) **int64) fieldAccessor {
	return fieldAccessor{
		get: func(m *Monitor) (any, bool) {
			p := *slot(m)
			if p == nil {
				return nil, false
			}
			return *p, true
		},
		set: func(m *Monitor, v any) error {
			n, err := coerceInt64(v)
			if err != nil {
				return err
			}
			*slot(m) = &n
			return nil
		},
	}
}

// coerceInt64 accepts the numeric shapes that survive JSON decoding
func coerceInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

// FieldValues returns the set type-specific fields of the monitor keyed by
// payload field name. Unset columns are omitted.
func (m *Monitor) FieldValues() map[string]any {
	values := make(map[string]any)
	for name, acc := range fieldAccessors {
		if v, ok := acc.get(m); ok {
			values[name] = v
		}
	}
	return values
}

// ApplyFields writes the given payload fields onto the monitor's
// type-specific columns. Unknown field names are rejected.
func (m *Monitor) ApplyFields(fields map[string]any) error {
	for name, value := range fields {
		acc, ok := fieldAccessors[name]
		if !ok {
			return fmt.Errorf("unknown monitor field %q", name)
		}
		if err := acc.set(m, value); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
	}
	return nil
}

// KnownFieldNames returns the payload names of all type-specific columns
func KnownFieldNames() []string {
	return []string{
		FieldURL, FieldHost, FieldPort, FieldRecordType, FieldExpectedValue,
		FieldStatusCode, FieldHeaderName, FieldKeyword, FieldJSONPath,
		FieldLatencyThresholdMs, FieldCertExpiryWindowDays,
	}
}
