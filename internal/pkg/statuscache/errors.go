package statuscache

import "errors"

var ErrCachePathNotSpecified = errors.New("status cache path not specified")
