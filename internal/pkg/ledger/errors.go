package ledger

import "errors"

var (
	ErrMalformedTx    = errors.New("malformed transaction")
	ErrAmountOverflow = errors.New("amount overflow")
)
