package scanner

import (
	"context"
	"fmt"
	"time"
)

// BlockSyncer pulls a batch of new blocks into the index. A return of zero
// means the index has caught up with the node.
type BlockSyncer interface {
	Sync(ctx context.Context, maxBlocks int) (int, error)
}

// Scanner drives the sync loop: it drains the syncer in batches until the
// index has caught up, reports the new tip, and then polls for further
// blocks.
type Scanner struct {
	opts   *ScannerOptions
	syncer BlockSyncer
}

func NewScanner(syncer BlockSyncer, opts ...ScannerOption) (*Scanner, error) {
	options := buildOptions(opts...)

	return &Scanner{
		opts:   options,
		syncer: syncer,
	}, nil
}

// Start runs the loop until the context is canceled. onUpdate is called once
// per round that advanced the chain, and once at startup so the caller always
// reports the initial state.
func (s *Scanner) Start(ctx context.Context, onUpdate func(ctx context.Context) error) error {
	s.opts.logger.Info().
		Dur("pollInterval", s.opts.pollInterval).
		Int("batchSize", s.opts.batchSize).
		Msg("start scanning")

	updated := true

	for {
		for {
			synced, err := s.syncer.Sync(ctx, s.opts.batchSize)
			if err != nil {
				return fmt.Errorf("failed to sync blocks: %w", err)
			}

			if synced == 0 {
				break
			}

			s.opts.logger.Debug().
				Int("blocks", synced).
				Msg("synced block batch")

			updated = true
		}

		if updated {
			if err := onUpdate(ctx); err != nil {
				return fmt.Errorf("failed to handle chain update: %w", err)
			}

			updated = false
		}

		select {
		case <-ctx.Done():
			s.opts.logger.Info().Msg("scanner stopped")

			return ctx.Err()
		case <-time.After(s.opts.pollInterval):
		}
	}
}
