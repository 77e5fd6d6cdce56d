package nodeclient

import (
	"errors"
	"fmt"
)

var (
	ErrNodeHostNotSpecified = errors.New("no specified node host URL")
	ErrBlockNotFound        = errors.New("block not found")
	ErrBadStatusCode        = errors.New("bad status code")
)

func newBadStatusCodeError(statusCode int) error {
	return fmt.Errorf("bad status code (%d): %w", statusCode, ErrBadStatusCode)
}
