package app

import (
	"github.com/ciricc/btc-address-indexer/internal/pkg/di"
	"github.com/samber/do"
)

func ProvideCommonDeps(i *do.Injector) {
	do.Provide(i, di.NewConfig)
	do.Provide(i, di.NewLogger)
	do.Provide(i, di.NewChainParams)
}

func ProvideNodeDeps(i *do.Injector) {
	do.Provide(i, di.NewNodeRESTClient)
}

func ProvideAddressIndexDeps(i *do.Injector) {
	do.Provide(i, di.NewIndexLevelDB)
	do.Provide(i, di.NewIndexKeyValueStore)
	do.Provide(i, di.NewAddressIndex)
}

func ProvideStatusCacheDeps(i *do.Injector) {
	do.Provide(i, di.NewStatusCache)
}

func ProvideScannerDeps(i *do.Injector) {
	do.Provide(i, di.NewBlockchainScanner)
}
