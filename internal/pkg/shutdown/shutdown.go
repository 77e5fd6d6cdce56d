package shutdown

import (
	"io"

	"golang.org/x/sync/errgroup"
)

type Shutdownable interface {
	Shutdown() error
}

type closeableShutdown struct {
	c io.Closer
}

// NewShutdownFromCloseable adapts an io.Closer to the Shutdownable interface.
func NewShutdownFromCloseable(c io.Closer) Shutdownable {
	return &closeableShutdown{c: c}
}

func (s *closeableShutdown) Shutdown() error {
	return s.c.Close()
}

// Shutdowner shuts down all registered components concurrently and collects
// the first error.
type Shutdowner struct {
	toShutdown []Shutdownable
}

func NewShutdowner(toShutdown ...Shutdownable) *Shutdowner {
	return &Shutdowner{toShutdown: toShutdown}
}

func (s *Shutdowner) Shutdown() error {
	groupErr := errgroup.Group{}

	for _, c := range s.toShutdown {
		groupErr.Go(c.Shutdown)
	}

	return groupErr.Wait()
}
