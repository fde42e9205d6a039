package util

import "errors"

var errInvalidFeedInterval = errors.New("feed interval must be positive")
