package addressindex

import "errors"

var (
	ErrTxNotFound     = errors.New("no transaction at the given location")
	ErrCorruptedIndex = errors.New("corrupted address index")
)
