package config_test

import (
	"testing"
	"time"

	"github.com/ciricc/btc-address-indexer/config"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := config.Default()
	cfg.ApplyNetworkDefaults()

	require.NoError(t, cfg.Validate())
	require.Equal(t, "http://localhost:8332", cfg.BlockchainNode.RestURL)
	require.Equal(t, "db/bitcoin", cfg.AddressIndex.DBPath)
}

func TestNetworkDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Network = config.NetworkRegtest
	cfg.ApplyNetworkDefaults()

	require.Equal(t, "http://localhost:18443", cfg.BlockchainNode.RestURL)
	require.Equal(t, "db/regtest", cfg.AddressIndex.DBPath)
	require.Equal(t, "regtest", cfg.Network.ChainParams().Name)
}

func TestValidateRejectsUnknownNetwork(t *testing.T) {
	cfg := config.Default()
	cfg.Network = "litecoin"
	cfg.ApplyNetworkDefaults()

	require.Error(t, cfg.Validate())
}

func TestLoadServiceConfigFromEnvironment(t *testing.T) {
	t.Setenv("SERVICE__SCANNER__POLL_INTERVAL", "250ms")
	t.Setenv("SERVICE__NETWORK", "regtest")

	cfg := config.Default()
	cfg.ApplyNetworkDefaults()

	require.NoError(t, config.LoadServiceConfig(cfg, ""))
	require.Equal(t, 250*time.Millisecond, cfg.Scanner.PollInterval)
	require.Equal(t, config.NetworkRegtest, cfg.Network)
}
