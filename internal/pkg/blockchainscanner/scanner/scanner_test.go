package scanner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ciricc/btc-address-indexer/internal/pkg/blockchainscanner/scanner"
	"github.com/stretchr/testify/require"
)

type fakeSyncer struct {
	batches []int
}

func (s *fakeSyncer) Sync(_ context.Context, _ int) (int, error) {
	if len(s.batches) == 0 {
		return 0, nil
	}

	synced := s.batches[0]
	s.batches = s.batches[1:]

	return synced, nil
}

func TestStartReportsOncePerProgressedRound(t *testing.T) {
	syncer := &fakeSyncer{batches: []int{2, 1, 0}}

	sc, err := scanner.NewScanner(syncer,
		scanner.WithPollInterval(5*time.Millisecond),
		scanner.WithBatchSize(10),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	updates := 0
	err = sc.Start(ctx, func(context.Context) error {
		updates++
		cancel()

		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	// The round drained batches 2 and 1 before reporting once.
	require.Equal(t, 1, updates)
	require.Empty(t, syncer.batches)
}

type failingSyncer struct{}

func (failingSyncer) Sync(context.Context, int) (int, error) {
	return 0, errors.New("node unavailable")
}

func TestStartStopsOnSyncError(t *testing.T) {
	sc, err := scanner.NewScanner(failingSyncer{})
	require.NoError(t, err)

	err = sc.Start(context.Background(), func(context.Context) error {
		t.Fatal("onUpdate must not be called when sync fails")

		return nil
	})
	require.Error(t, err)
}

func TestStartReportsInitialState(t *testing.T) {
	// No new blocks at all: the caller still gets one report.
	sc, err := scanner.NewScanner(&fakeSyncer{},
		scanner.WithPollInterval(5*time.Millisecond),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	updates := 0
	err = sc.Start(ctx, func(context.Context) error {
		updates++
		cancel()

		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, updates)
}
