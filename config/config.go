package config

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/go-ozzo/ozzo-validation/is"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Network string

const (
	NetworkBitcoin  Network = "bitcoin"
	NetworkTestnet  Network = "testnet"
	NetworkTestnet4 Network = "testnet4"
	NetworkRegtest  Network = "regtest"
	NetworkSignet   Network = "signet"
)

// DefaultRestPort returns the default REST port of bitcoind on this network.
func (n Network) DefaultRestPort() int {
	switch n {
	case NetworkTestnet:
		return 18332
	case NetworkTestnet4:
		return 48332
	case NetworkRegtest:
		return 18443
	case NetworkSignet:
		return 38332
	default:
		return 8332
	}
}

// ChainParams returns the address-encoding parameters of this network.
// Testnet4 shares its address format with testnet3.
func (n Network) ChainParams() *chaincfg.Params {
	switch n {
	case NetworkTestnet, NetworkTestnet4:
		return &chaincfg.TestNet3Params
	case NetworkRegtest:
		return &chaincfg.RegressionNetParams
	case NetworkSignet:
		return &chaincfg.SigNetParams
	default:
		return &chaincfg.MainNetParams
	}
}

const (
	EnvironmentDevelopment = "development"
	EnvironmentStaging     = "staging"
	EnvironmentProduction  = "production"
)

type Config struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"env"`

	Network Network `yaml:"network"`

	BlockchainNode struct {
		RestURL string `yaml:"restURL"`
	} `yaml:"blockchainNode"`

	AddressIndex struct {
		DBPath string `yaml:"dbPath"`
	} `yaml:"addressIndex"`

	Scanner struct {
		PollInterval time.Duration `yaml:"pollInterval"`
		BatchSize    int           `yaml:"batchSize"`
	} `yaml:"scanner"`

	History struct {
		Limit int `yaml:"limit"`
	} `yaml:"history"`

	StatusCache struct {
		Path string `yaml:"path"`
	} `yaml:"statusCache"`

	Watchlist struct {
		AddressFile string `yaml:"addressFile"`
	} `yaml:"watchlist"`
}

// Default returns the configuration used when neither the config file nor the
// environment overrides a value.
func Default() *Config {
	cfg := &Config{}

	cfg.Name = "btc-address-indexer"
	cfg.Version = "1.0.0"
	cfg.Environment = EnvironmentDevelopment
	cfg.Network = NetworkBitcoin
	cfg.Scanner.PollInterval = time.Second
	cfg.Scanner.BatchSize = 1000
	cfg.History.Limit = 100
	cfg.StatusCache.Path = ":memory:"

	return cfg
}

// ApplyNetworkDefaults fills the node URL and index path for the selected
// network when they were not set explicitly.
func (c *Config) ApplyNetworkDefaults() {
	if c.BlockchainNode.RestURL == "" {
		c.BlockchainNode.RestURL = fmt.Sprintf("http://localhost:%d", c.Network.DefaultRestPort())
	}

	if c.AddressIndex.DBPath == "" {
		c.AddressIndex.DBPath = fmt.Sprintf("db/%s", c.Network)
	}
}

func (c Config) Validate() error {
	// The node URL and index path may still be empty here: network defaults
	// fill them after the command line is applied.
	if err := validation.ValidateStruct(
		&c.BlockchainNode,
		validation.Field(&c.BlockchainNode.RestURL, is.URL),
	); err != nil {
		return fmt.Errorf("failed to validate blockchainNode options: %w", err)
	}

	if err := validation.ValidateStruct(
		&c.Scanner,
		validation.Field(&c.Scanner.PollInterval, validation.Required, validation.Min(10*time.Millisecond)),
		validation.Field(&c.Scanner.BatchSize, validation.Required, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("failed to validate scanner options: %w", err)
	}

	if err := validation.ValidateStruct(
		&c.History,
		validation.Field(&c.History.Limit, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("failed to validate history options: %w", err)
	}

	if err := validation.ValidateStruct(
		&c.StatusCache,
		validation.Field(&c.StatusCache.Path, validation.Required),
	); err != nil {
		return fmt.Errorf("failed to validate statusCache options: %w", err)
	}

	if err := validation.ValidateStruct(
		&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Version, validation.Required, is.Semver),
		validation.Field(&c.Environment, validation.Required, validation.In(
			EnvironmentDevelopment, EnvironmentStaging, EnvironmentProduction,
		)),
		validation.Field(&c.Network, validation.Required, validation.In(
			NetworkBitcoin, NetworkTestnet, NetworkTestnet4, NetworkRegtest, NetworkSignet,
		)),
	); err != nil {
		return fmt.Errorf("failed to validate config options: %w", err)
	}

	return nil
}
