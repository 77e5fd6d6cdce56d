package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ciricc/btc-address-indexer/config"
	"github.com/ciricc/btc-address-indexer/internal/pkg/addressindex"
	"github.com/ciricc/btc-address-indexer/internal/pkg/app"
	"github.com/ciricc/btc-address-indexer/internal/pkg/blockchainscanner/scanner"
	"github.com/ciricc/btc-address-indexer/internal/pkg/display"
	"github.com/ciricc/btc-address-indexer/internal/pkg/history"
	"github.com/ciricc/btc-address-indexer/internal/pkg/ledger"
	"github.com/ciricc/btc-address-indexer/internal/pkg/nodeclient"
	"github.com/ciricc/btc-address-indexer/internal/pkg/shutdown"
	"github.com/ciricc/btc-address-indexer/internal/pkg/statuscache"
	"github.com/ciricc/btc-address-indexer/internal/pkg/watchlist"
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "address-indexer",
		Usage: "tracks the confirmed history and balance of a bitcoin address watchlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "network",
				Aliases: []string{"n"},
				Usage:   "bitcoin network (bitcoin, testnet, testnet4, regtest, signet)",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "maximum history rows to display",
			},
			&cli.StringFlag{
				Name:    "address-file",
				Aliases: []string{"a"},
				Value:   "-",
				Usage:   "file with watched addresses, whitespace separated ('-' reads stdin)",
			},
			&cli.StringFlag{
				Name:    "status-cache",
				Aliases: []string{"s"},
				Usage:   "path of the sqlite status cache",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "path of the yaml config file (overrides CONFIG_FILE)",
			},
		},
		Action: run,
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cliCtx *cli.Context) error {
	if cliCtx.IsSet("config") {
		if err := os.Setenv("CONFIG_FILE", cliCtx.String("config")); err != nil {
			return fmt.Errorf("failed to set config file path: %w", err)
		}
	}

	i := do.New()

	app.ProvideCommonDeps(i)
	app.ProvideNodeDeps(i)
	app.ProvideAddressIndexDeps(i)
	app.ProvideStatusCacheDeps(i)
	app.ProvideScannerDeps(i)

	// The config must be final before anything else is invoked: the other
	// providers read it.
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	applyFlags(cfg, cliCtx)
	cfg.ApplyNetworkDefaults()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	logger, err := do.Invoke[*zerolog.Logger](i)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	params, err := do.Invoke[*chaincfg.Params](i)
	if err != nil {
		return fmt.Errorf("failed to resolve chain params: %w", err)
	}

	watched, err := watchlist.Load(cfg.Watchlist.AddressFile, params)
	if err != nil {
		return fmt.Errorf("failed to load watchlist: %w", err)
	}

	logger.Info().
		Int("addresses", len(watched)).
		Str("network", string(cfg.Network)).
		Str("nodeRestURL", cfg.BlockchainNode.RestURL).
		Msg("watchlist loaded")

	node, err := do.Invoke[*nodeclient.Client](i)
	if err != nil {
		return fmt.Errorf("failed to create node rest client: %w", err)
	}

	info, err := node.GetChainInfo(cliCtx.Context)
	if err != nil {
		return fmt.Errorf("failed to reach the node: %w", err)
	}

	logger.Info().
		Str("chain", info.Chain).
		Int64("blocks", info.Blocks).
		Str("bestBlockHash", info.BestBlockHash).
		Msg("connected to node")

	index, err := do.Invoke[*addressindex.Index](i)
	if err != nil {
		return fmt.Errorf("failed to open address index: %w", err)
	}

	cache, err := do.Invoke[*statuscache.Cache](i)
	if err != nil {
		return fmt.Errorf("failed to open status cache: %w", err)
	}

	indexDB, err := do.Invoke[*leveldb.DB](i)
	if err != nil {
		return fmt.Errorf("failed to open index database: %w", err)
	}

	blockScanner, err := do.Invoke[*scanner.Scanner](i)
	if err != nil {
		return fmt.Errorf("failed to create scanner: %w", err)
	}

	ctx, cancel := context.WithCancel(cliCtx.Context)
	defer cancel()

	errs := make(chan error, 1)

	go func() {
		errs <- blockScanner.Start(ctx, func(ctx context.Context) error {
			return handleUpdate(ctx, logger, index, cache, watched, cfg.History.Limit)
		})
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	var runErr error

	select {
	case err := <-errs:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = err
		}
	case sig := <-signals:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
		<-errs
	}

	shutdowner := shutdown.NewShutdowner(
		cache,
		shutdown.NewShutdownFromCloseable(indexDB),
	)
	if err := shutdowner.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown the service: %w", err)
	}

	return runErr
}

// handleUpdate runs once per chain advance: gather the watchlist history,
// replay the ledger for display, and persist the status cache.
func handleUpdate(
	ctx context.Context,
	logger *zerolog.Logger,
	index *addressindex.Index,
	cache *statuscache.Cache,
	watched []watchlist.Script,
	limit int,
) error {
	status, err := history.Gather(index, watched)
	if err != nil {
		return fmt.Errorf("failed to gather watchlist history: %w", err)
	}

	res, err := ledger.Replay(ctx, status, index)
	if err != nil {
		return fmt.Errorf("failed to replay ledger: %w", err)
	}

	display.History(os.Stdout, res.Entries, limit)

	tipHeight, _ := index.Chain().TipHeight()

	logger.Info().
		Int("tipHeight", tipHeight).
		Stringer("tipHash", index.Chain().TipHash()).
		Int("transactions", len(res.Entries)).
		Str("balance", res.Balance.String()).
		Int("utxos", res.UnspentCount).
		Msg("chain updated")

	if _, err := cache.Sync(ctx, status, index); err != nil {
		return fmt.Errorf("failed to sync status cache: %w", err)
	}

	return nil
}

func applyFlags(cfg *config.Config, cliCtx *cli.Context) {
	if cliCtx.IsSet("network") {
		cfg.Network = config.Network(cliCtx.String("network"))
	}

	if cliCtx.IsSet("limit") {
		cfg.History.Limit = cliCtx.Int("limit")
	}

	if cliCtx.IsSet("address-file") || cfg.Watchlist.AddressFile == "" {
		cfg.Watchlist.AddressFile = cliCtx.String("address-file")
	}

	if cliCtx.IsSet("status-cache") {
		cfg.StatusCache.Path = cliCtx.String("status-cache")
	}
}
