package di

import (
	"fmt"
	"net/url"
	"os"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ciricc/btc-address-indexer/config"
	"github.com/ciricc/btc-address-indexer/internal/pkg/addressindex"
	"github.com/ciricc/btc-address-indexer/internal/pkg/blockchainscanner/scanner"
	"github.com/ciricc/btc-address-indexer/internal/pkg/keyvalueabstraction/keyvaluestore"
	"github.com/ciricc/btc-address-indexer/internal/pkg/keyvalueabstraction/providers/leveldbkvstore"
	"github.com/ciricc/btc-address-indexer/internal/pkg/logger"
	"github.com/ciricc/btc-address-indexer/internal/pkg/nodeclient"
	"github.com/ciricc/btc-address-indexer/internal/pkg/statuscache"
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/syndtr/goleveldb/leveldb"
)

func NewConfig(_ *do.Injector) (*config.Config, error) {
	configFilePath := ""

	configFilePathFromEnv := os.Getenv("CONFIG_FILE")
	if configFilePathFromEnv != "" {
		configFilePath = configFilePathFromEnv
	}

	cfg := config.Default()
	if err := config.LoadServiceConfig(cfg, configFilePath); err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	return cfg, nil
}

func NewLogger(i *do.Injector) (*zerolog.Logger, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("invoke config error: %w", err)
	}

	log := logger.NewLogger(cfg)

	return &log, nil
}

func NewChainParams(i *do.Injector) (*chaincfg.Params, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("invoke config error: %w", err)
	}

	return cfg.Network.ChainParams(), nil
}

func NewNodeRESTClient(i *do.Injector) (*nodeclient.Client, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke configuration: %w", err)
	}

	nodeURL, err := url.Parse(cfg.BlockchainNode.RestURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse blockchain node rest url: %w", err)
	}

	client, err := nodeclient.New(nodeURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create node rest client: %w", err)
	}

	return client, nil
}

func NewIndexLevelDB(i *do.Injector) (*leveldb.DB, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke configuration: %w", err)
	}

	db, err := leveldb.OpenFile(cfg.AddressIndex.DBPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb file: %w", err)
	}

	return db, nil
}

func NewIndexKeyValueStore(i *do.Injector) (keyvaluestore.Store, error) {
	db, err := do.Invoke[*leveldb.DB](i)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke leveldb: %w", err)
	}

	store, err := leveldbkvstore.New(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create leveldb store: %w", err)
	}

	return store, nil
}

func NewAddressIndex(i *do.Injector) (*addressindex.Index, error) {
	store, err := do.Invoke[keyvaluestore.Store](i)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke key value store: %w", err)
	}

	client, err := do.Invoke[*nodeclient.Client](i)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke node rest client: %w", err)
	}

	log, err := do.Invoke[*zerolog.Logger](i)
	if err != nil {
		return nil, fmt.Errorf("invoke logger error: %w", err)
	}

	index, err := addressindex.Open(store, client, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open address index: %w", err)
	}

	return index, nil
}

func NewStatusCache(i *do.Injector) (*statuscache.Cache, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke configuration: %w", err)
	}

	log, err := do.Invoke[*zerolog.Logger](i)
	if err != nil {
		return nil, fmt.Errorf("invoke logger error: %w", err)
	}

	cache, err := statuscache.Open(cfg.StatusCache.Path, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open status cache: %w", err)
	}

	return cache, nil
}

func NewBlockchainScanner(i *do.Injector) (*scanner.Scanner, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("invoke config error: %w", err)
	}

	index, err := do.Invoke[*addressindex.Index](i)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke address index: %w", err)
	}

	log, err := do.Invoke[*zerolog.Logger](i)
	if err != nil {
		return nil, fmt.Errorf("invoke logger error: %w", err)
	}

	sc, err := scanner.NewScanner(
		index,
		scanner.WithPollInterval(cfg.Scanner.PollInterval),
		scanner.WithBatchSize(cfg.Scanner.BatchSize),
		scanner.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	return sc, nil
}
