package main

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"hydrogen/hydrogenweb/util"
)

var errNoHijack = errors.New("response writer does not support hijacking")

var (
	_ http.ResponseWriter = &loggingResponseWriter{}
	_ http.Hijacker       = &loggingResponseWriter{}
)

type loggingResponseWriter struct {
	http.ResponseWriter
	HTTPStatus   int
	ResponseSize int
}

func (w *loggingResponseWriter) WriteHeader(status int) {
	w.HTTPStatus = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *loggingResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack hands the connection to the websocket feed. The upgrade is logged
// as 101.
func (w *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errNoHijack
	}

	w.HTTPStatus = http.StatusSwitchingProtocols

	return hijacker.Hijack()
}

func (w *loggingResponseWriter) Write(bytes []byte) (int, error) {
	if w.HTTPStatus == 0 {
		w.HTTPStatus = http.StatusOK
	}

	n, err := w.ResponseWriter.Write(bytes)
	w.ResponseSize += n

	if err != nil {
		return n, fmt.Errorf("error writing response: %w", err)
	}

	return n, nil
}

func accessLine(request *http.Request, status int, size int, when time.Time) string {
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		host = request.RemoteAddr
	}

	return fmt.Sprintf("%s - - [%s] \"%s %s %s\" %d %d %s\n",
		host,
		when.Format("02/Jan/2006:15:04:05 -0700"),
		request.Method,
		request.URL.Path,
		request.Proto,
		status,
		size,
		request.UserAgent(),
	)
}

func HTTPLogger(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		interceptWriter := loggingResponseWriter{writer, 0, 0}

		handler.ServeHTTP(&interceptWriter, request)

		if interceptWriter.HTTPStatus == 0 {
			interceptWriter.HTTPStatus = http.StatusOK
		}

		util.WriteAccessLog(accessLine(request, interceptWriter.HTTPStatus, interceptWriter.ResponseSize, time.Now()))
	})
}
