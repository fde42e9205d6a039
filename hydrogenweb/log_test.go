package main

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hydrogen/hydrogenweb/util"
)

//nolint:paralleltest
func TestHTTPLogger(t *testing.T) {
	var access bytes.Buffer

	util.SetLogWriters(&access, io.Discard)
	t.Cleanup(func() { util.SetLogWriters(io.Discard, io.Discard) })

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "Body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, "hello ")
				_, _ = io.WriteString(w, "world")
			},
			want: `"GET /vms HTTP/1.1" 200 11 test-agent`,
		},
		{
			name:    "NoContent",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) },
			want:    `"GET /vms HTTP/1.1" 204 0 test-agent`,
		},
		{
			name:    "Nothing",
			handler: func(http.ResponseWriter, *http.Request) {},
			want:    `"GET /vms HTTP/1.1" 200 0 test-agent`,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			access.Reset()

			request := httptest.NewRequest(http.MethodGet, "/vms", nil)
			request.RemoteAddr = "192.0.2.7:41000"
			request.Header.Set("User-Agent", "test-agent")

			HTTPLogger(testCase.handler).ServeHTTP(httptest.NewRecorder(), request)

			line := access.String()
			if !strings.HasPrefix(line, "192.0.2.7 - - [") {
				t.Errorf("access line = %q, want client host first", line)
			}

			if !strings.Contains(line, testCase.want) {
				t.Errorf("access line = %q, want %q", line, testCase.want)
			}
		})
	}
}

func Test_accessLine(t *testing.T) {
	t.Parallel()

	request := httptest.NewRequest(http.MethodPost, "/vm/abc/menu", nil)
	request.RemoteAddr = "unix"
	request.Header.Set("User-Agent", "curl/8.0")

	when := time.Date(2024, time.March, 4, 5, 6, 7, 0, time.UTC)

	got := accessLine(request, 409, 12, when)
	want := "unix - - [04/Mar/2024:05:06:07 +0000] \"POST /vm/abc/menu HTTP/1.1\" 409 12 curl/8.0\n"

	if got != want {
		t.Errorf("accessLine() = %q, want %q", got, want)
	}
}

func TestLoggingResponseWriterHijack(t *testing.T) {
	t.Parallel()

	writer := &loggingResponseWriter{ResponseWriter: httptest.NewRecorder()}

	_, _, err := writer.Hijack()
	if !errors.Is(err, errNoHijack) {
		t.Errorf("Hijack() error = %v, want errNoHijack", err)
	}
}

func TestRouter(t *testing.T) {
	t.Parallel()

	mux := router(util.Config{FeedInterval: time.Second}, nil)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{method: http.MethodGet, path: "/healthz", want: http.StatusNoContent},
		{method: http.MethodGet, path: "/nope", want: http.StatusNotFound},
		{method: http.MethodDelete, path: "/vms", want: http.StatusMethodNotAllowed},
		{method: http.MethodGet, path: "/vm/abc/menu", want: http.StatusMethodNotAllowed},
	}

	for _, testCase := range tests {
		recorder := httptest.NewRecorder()
		mux.ServeHTTP(recorder, httptest.NewRequest(testCase.method, testCase.path, nil))

		if recorder.Code != testCase.want {
			t.Errorf("%s %s = %d, want %d", testCase.method, testCase.path, recorder.Code, testCase.want)
		}
	}
}
