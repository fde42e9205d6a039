package util

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/status"

	"hydrogen/hydrogenctl/rpc"
)

var (
	serverName           = "localhost"
	serverPort    uint16 = 50051
	serverTimeout int64  = 5
)

func InitRPCConn() error {
	rpc.ServerName = serverName
	rpc.ServerPort = serverPort
	rpc.ServerTimeout = serverTimeout

	err := rpc.GetConn()
	if err != nil {
		return fmt.Errorf("error initializing RPC connection: %w", err)
	}

	return nil
}

func InitRPC(cfg Config) {
	if cfg.ServerHost != "" {
		serverName = cfg.ServerHost
	}

	if cfg.ServerPort != 0 {
		serverPort = cfg.ServerPort
	}

	if cfg.ServerTimeout > 0 {
		serverTimeout = cfg.ServerTimeout
	}
}

func GetServerName() string {
	return serverName
}

// GetErrDesc returns the server's message for a wrapped gRPC error, or the
// error text otherwise.
func GetErrDesc(err error) string {
	var errMessage string

	var lastErr error

	currentErr := err
	for currentErr != nil {
		lastErr = currentErr
		currentErr = errors.Unwrap(currentErr)
	}

	s, ok := status.FromError(lastErr)

	if ok {
		errMessage = s.Message()
	} else {
		errMessage = err.Error()
	}

	return errMessage
}
