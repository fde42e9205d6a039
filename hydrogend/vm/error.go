package vm

import "errors"

var (
	errVMNotFound     = errors.New("not found")
	errVMDupe         = errors.New("VM already exists")
	errVMIDEmpty      = errors.New("VM id not specified")
	errVMInvalidName  = errors.New("invalid VM hostname")
	errVMInternalDB   = errors.New("internal VM database error")
	errVMDeleteFailed = errors.New("failed to delete VM")
)

// ErrVMNotFound is returned by lookups, exported for the rpc layer.
var ErrVMNotFound = errVMNotFound
