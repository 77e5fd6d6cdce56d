package watchlist

import "errors"

var ErrEmptyWatchlist = errors.New("watchlist contains no addresses")
