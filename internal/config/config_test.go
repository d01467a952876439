package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `{
		"node_config": {"ws_rpc_endpoint": "ws://node:9944", "dial_retries": 5},
		"chain_config": {"address_format": "id", "storage_prefix_scheme": "legacy", "watch_until": "inBlock"},
		"signer_config": {"scheme": "ed25519", "seed": "0x01"},
		"log_config": {"level": "debug", "json": true}
	}`)

	cfg, err := LoadConfig(&path)
	require.NoError(t, err)
	assert.Equal(t, "ws://node:9944", cfg.NodeConfig.WsRpcEndpoint)
	assert.Equal(t, uint64(5), cfg.NodeConfig.DialRetries)
	assert.Equal(t, 30000, cfg.NodeConfig.RequestTimeoutMs, "unset fields keep defaults")
	assert.Equal(t, "legacy", cfg.ChainConfig.StoragePrefixScheme)
	assert.Equal(t, "inBlock", cfg.ChainConfig.WatchUntil)
	assert.Equal(t, "ed25519", cfg.SignerConfig.Scheme)
	assert.True(t, cfg.LogConfig.Json)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")
	cfg, err := LoadConfig(&path)
	require.NoError(t, err)
	assert.Equal(t, DefaultWsRpcEndpoint, cfg.NodeConfig.WsRpcEndpoint)
	assert.Equal(t, "modern", cfg.ChainConfig.StoragePrefixScheme)
	assert.Equal(t, "finalized", cfg.ChainConfig.WatchUntil)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `{"node_config": {"ws_rpc_endpoint": "ws://file:9944"}}`)
	t.Setenv(envWsRpcEndpoint, "ws://env:9944")
	t.Setenv(envSignerSeed, "//Alice")
	t.Setenv(envLogLevel, "trace")

	cfg, err := LoadConfig(&path)
	require.NoError(t, err)
	assert.Equal(t, "ws://env:9944", cfg.NodeConfig.WsRpcEndpoint)
	assert.Equal(t, "//Alice", cfg.SignerConfig.Seed)
	assert.Equal(t, "trace", cfg.LogConfig.Level)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	path := writeConfig(t, `{"chain_config": {"address_format": "ethereum"}}`)
	_, err := LoadConfig(&path)
	assert.ErrorContains(t, err, "address_format")

	path = writeConfig(t, `{not json`)
	_, err = LoadConfig(&path)
	assert.Error(t, err)
}
