package scanner

import (
	"time"

	"github.com/rs/zerolog"
)

type ScannerOption func(*ScannerOptions) error

type ScannerOptions struct {
	pollInterval time.Duration
	batchSize    int

	logger *zerolog.Logger
}

func WithPollInterval(duration time.Duration) ScannerOption {
	return func(o *ScannerOptions) error {
		o.pollInterval = duration

		return nil
	}
}

func WithBatchSize(batchSize int) ScannerOption {
	return func(o *ScannerOptions) error {
		o.batchSize = batchSize

		return nil
	}
}

func WithLogger(logger *zerolog.Logger) ScannerOption {
	return func(o *ScannerOptions) error {
		o.logger = logger

		return nil
	}
}

func buildOptions(opts ...ScannerOption) *ScannerOptions {
	nop := zerolog.Nop()

	options := &ScannerOptions{
		pollInterval: time.Second,
		batchSize:    1000,
		logger:       &nop,
	}

	for _, opt := range opts {
		opt(options)
	}

	return options
}
