package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "json")

	logger.Debug("Simulated challenge", "account", "GABC")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Simulated challenge", record["msg"])
	assert.Equal(t, "GABC", record["account"])
}

func TestNewLoggerTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "terminal")

	logger.Info("Starting web auth server")
	assert.Empty(t, buf.String())

	logger.Warn("Server shutdown failed", "err", "timeout")
	assert.Contains(t, buf.String(), "Server shutdown failed")
	assert.Contains(t, buf.String(), "timeout")
}

func TestNewLoggerUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "loud", "terminal")

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Info("visible")
	assert.Contains(t, buf.String(), "visible")
}
