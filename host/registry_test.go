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

package host

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

func TestRegistry_RegisterAndInvoke(t *testing.T) {
	registry := NewRegistry(slog.Default())

	require.NoError(t, registry.Register("sites.getAll", func(ctx context.Context, payload json.RawMessage) (any, error) {
		return []string{"site-1"}, nil
	}))

	result := registry.Invoke(context.Background(), "sites.getAll", nil)

	assert.True(t, result.Ok)
	assert.Equal(t, []string{"site-1"}, result.Data)
	assert.Nil(t, result.Error)
}

func TestRegistry_RejectsDuplicateRegistration(t *testing.T) {
	registry := NewRegistry(slog.Default())
	handler := func(ctx context.Context, payload json.RawMessage) (any, error) { return nil, nil }

	require.NoError(t, registry.Register("sites.add", handler))

	err := registry.Register("sites.add", handler)
	assert.ErrorIs(t, err, utils.ErrDuplicateHandler)
}

func TestRegistry_RejectsEmptyRegistration(t *testing.T) {
	registry := NewRegistry(slog.Default())

	assert.Error(t, registry.Register("", func(ctx context.Context, payload json.RawMessage) (any, error) { return nil, nil }))
	assert.Error(t, registry.Register("sites.add", nil))
}

func TestRegistry_UnknownOperation(t *testing.T) {
	registry := NewRegistry(slog.Default())

	result := registry.Invoke(context.Background(), "nope", nil)

	assert.False(t, result.Ok)
	require.NotNil(t, result.Error)
	assert.Equal(t, string(utils.CodeNotFound), result.Error.Code)
}

func TestRegistry_ErrorsMapToStableCodes(t *testing.T) {
	registry := NewRegistry(slog.Default())

	require.NoError(t, registry.Register("sites.add", func(ctx context.Context, payload json.RawMessage) (any, error) {
		return nil, fmt.Errorf("identifier taken: %w", utils.ErrSiteAlreadyExists)
	}))
	require.NoError(t, registry.Register("sites.remove", func(ctx context.Context, payload json.RawMessage) (any, error) {
		return nil, fmt.Errorf("lookup: %w", utils.ErrSiteNotFound)
	}))
	require.NoError(t, registry.Register("explode", func(ctx context.Context, payload json.RawMessage) (any, error) {
		return nil, fmt.Errorf("disk on fire")
	}))

	result := registry.Invoke(context.Background(), "sites.add", nil)
	require.NotNil(t, result.Error)
	assert.Equal(t, string(utils.CodeDuplicateSiteIdentifier), result.Error.Code)

	result = registry.Invoke(context.Background(), "sites.remove", nil)
	require.NotNil(t, result.Error)
	assert.Equal(t, string(utils.CodeNotFound), result.Error.Code)

	result = registry.Invoke(context.Background(), "explode", nil)
	require.NotNil(t, result.Error)
	assert.Equal(t, string(utils.CodeInternal), result.Error.Code)
	assert.NotContains(t, result.Error.Message, "disk on fire", "raw internal messages must not escape")
}

func TestRegistry_ValidationIssuesSurfaceAsDetails(t *testing.T) {
	registry := NewRegistry(slog.Default())

	require.NoError(t, registry.Register("monitors.add", func(ctx context.Context, payload json.RawMessage) (any, error) {
		return nil, NewValidationError([]string{"field url is required"})
	}))

	result := registry.Invoke(context.Background(), "monitors.add", nil)

	require.NotNil(t, result.Error)
	assert.Equal(t, string(utils.CodeValidation), result.Error.Code)
	assert.Equal(t, []string{"field url is required"}, result.Error.Details)
}

func TestRegistry_OperationsSorted(t *testing.T) {
	registry := NewRegistry(slog.Default())
	handler := func(ctx context.Context, payload json.RawMessage) (any, error) { return nil, nil }

	require.NoError(t, registry.Register("settings.getHistoryLimit", handler))
	require.NoError(t, registry.Register("data.export", handler))
	require.NoError(t, registry.Register("monitorTypes.list", handler))

	assert.Equal(t, []string{"data.export", "monitorTypes.list", "settings.getHistoryLimit"}, registry.Operations())
}
