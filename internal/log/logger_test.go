// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Configure wins exactly once per process, so this file holds the only
// tests that emit through the global logger.
func TestConfigureAndComponentContextFields(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf, Service: "county-htf", Version: "test"})

	ctx := ContextWithRunID(context.Background(), "run-abc")
	ctx = ContextWithStationID(ctx, "8443970")

	ctxLogger := WithComponentFromContext(ctx, "noaa")
	ctxLogger.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "county-htf", entry["service"])
	assert.Equal(t, "test", entry["version"])
	assert.Equal(t, "noaa", entry[FieldComponent])
	assert.Equal(t, "run-abc", entry[FieldRunID])
	assert.Equal(t, "8443970", entry[FieldStationID])
}

func TestConfigureIsOnce(t *testing.T) {
	var first, second bytes.Buffer
	Configure(Config{Output: &first, Service: "county-htf"})
	Configure(Config{Output: &second, Service: "other"})

	cliLogger := WithComponent("cli")
	cliLogger.Info().Msg("hello")
	assert.Empty(t, second.Bytes(), "a later Configure must not rebind the output")
}
