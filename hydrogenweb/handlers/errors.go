package handlers

import (
	"errors"
	"net/http"

	"github.com/a-h/templ"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"hydrogen/hydrogenctl/rpc"
	"hydrogen/hydrogenweb/components"
	"hydrogen/hydrogenweb/util"
)

var (
	ErrNoLabel       = errors.New("no menu label given")
	ErrLabelNotFound = errors.New("action not offered for this VM")
)

// grpcCode digs the gRPC status code out of a wrapped error.
func grpcCode(err error) codes.Code {
	for currentErr := err; currentErr != nil; currentErr = errors.Unwrap(currentErr) {
		if s, ok := status.FromError(currentErr); ok {
			return s.Code()
		}
	}

	return codes.Unknown
}

func httpStatus(err error) int {
	if errors.Is(err, rpc.ErrNotFound) {
		return http.StatusNotFound
	}

	switch grpcCode(err) { //nolint:exhaustive
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.Unavailable, codes.DeadlineExceeded:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func serveError(writer http.ResponseWriter, request *http.Request, err error) {
	templ.Handler(
		components.ErrorPage(util.GetErrDesc(err)), //nolint:contextcheck
		templ.WithStatus(httpStatus(err)),
	).ServeHTTP(writer, request)
}
