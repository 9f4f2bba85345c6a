package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optionstack/option-indexer/internal/domain"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadIndexerConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, `
ethereum:
  rpc_url: https://mainnet.base.org
  contract_address: "0x1234567890123456789012345678901234567890"
`)

	cfg, err := LoadIndexerConfig(path, t.TempDir())
	require.NoError(t, err)

	assert.False(t, cfg.Debug)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, domain.ChainBaseMainnet, cfg.Ethereum.ChainID)
	assert.Equal(t, 30*time.Second, cfg.Ethereum.ScanInterval)
	assert.Equal(t, uint64(5000), cfg.Ethereum.LookbackBlocks)
	assert.Equal(t, 12*time.Second, cfg.Ethereum.BlockHeadTTL)
	assert.Equal(t, 60*time.Second, cfg.Ethereum.BlockHeadStaleWindow)
}

func TestLoadIndexerConfigOverrides(t *testing.T) {
	path := writeConfigFile(t, `
debug: true
server:
  port: 9090
ethereum:
  rpc_url: https://sepolia.example.org
  chain_id: "eip155:11155111"
  contract_address: "0x1234567890123456789012345678901234567890"
  scan_interval: 10s
  lookback_blocks: 100
`)

	cfg, err := LoadIndexerConfig(path, t.TempDir())
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, domain.ChainEthereumSepolia, cfg.Ethereum.ChainID)
	assert.Equal(t, 10*time.Second, cfg.Ethereum.ScanInterval)
	assert.Equal(t, uint64(100), cfg.Ethereum.LookbackBlocks)
}

func TestLoadIndexerConfigFromEnv(t *testing.T) {
	t.Setenv("OPTION_INDEXER_ETHEREUM_RPC_URL", "https://mainnet.base.org")
	t.Setenv("OPTION_INDEXER_ETHEREUM_CONTRACT_ADDRESS", "0x1234567890123456789012345678901234567890")
	t.Setenv("OPTION_INDEXER_SERVER_PORT", "9000")

	// point both the config file and env dir at an empty temp dir so only
	// process env vars apply
	dir := t.TempDir()
	cfg, err := LoadIndexerConfig(filepath.Join(dir, "missing.yaml"), dir)
	require.Error(t, err) // explicit missing file is an error

	cfg, err = LoadIndexerConfig("", dir)
	require.NoError(t, err)
	assert.Equal(t, "https://mainnet.base.org", cfg.Ethereum.RPCURL)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoadIndexerConfigMissingRequired(t *testing.T) {
	dir := t.TempDir()

	path := writeConfigFile(t, `
ethereum:
  contract_address: "0x1234567890123456789012345678901234567890"
`)
	_, err := LoadIndexerConfig(path, dir)
	assert.ErrorContains(t, err, "rpc_url")

	path = writeConfigFile(t, `
ethereum:
  rpc_url: https://mainnet.base.org
`)
	_, err = LoadIndexerConfig(path, dir)
	assert.ErrorContains(t, err, "contract_address")
}
