package cmd

import "errors"

var (
	errVMEmptyName   = errors.New("empty VM name")
	errVMNotFound    = errors.New("VM not found")
	errUnknownFormat = errors.New("unknown output format")
	errInvalidFiles  = errors.New("invalid VM documents")
)

var errReqFailed = errors.New("failed")

var errHostNotAvailable = errors.New("host not available")
