package requests

import "errors"

var (
	errRequestCreateFailure = errors.New("failed to create request")
	errRequestNotFound      = errors.New("request not found")
	errInvalidRequest       = errors.New("invalid request")
	errPendingReqExists     = errors.New("pending request already exists")
	errRequestNil           = errors.New("nil request")
	errRequestUpdateFailure = errors.New("failed to update request")
)

var (
	ErrRequestNotFound  = errRequestNotFound
	ErrPendingReqExists = errPendingReqExists
	ErrInvalidRequest   = errInvalidRequest
)
