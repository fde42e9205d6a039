package rpc

import "errors"

var (
	errNotConnected  = errors.New("not connected to hydrogend")
	errReqEmpty      = errors.New("request ID not specified")
	errVMEmptyID     = errors.New("VM ID not specified")
	errVMEmptyName   = errors.New("VM name not specified")
	errInvalidAction = errors.New("invalid power action")
)

var ErrNotFound = errors.New("not found")
