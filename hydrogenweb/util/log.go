package util

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	logMu     sync.Mutex
	accessLog io.Writer = os.Stdout
	errorLog  io.Writer = os.Stderr
)

func openLog(path string, fallback io.Writer) io.Writer {
	if path == "" {
		return fallback
	}

	logFile, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fallback
	}

	return logFile
}

func SetAccessLog(accessLogFile string) {
	logMu.Lock()
	defer logMu.Unlock()

	accessLog = openLog(accessLogFile, os.Stdout)
}

func SetErrorLog(errorLogFile string) {
	logMu.Lock()
	defer logMu.Unlock()

	errorLog = openLog(errorLogFile, os.Stderr)
}

// SetLogWriters replaces both logs, mostly for tests.
func SetLogWriters(access io.Writer, errs io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()

	accessLog = access
	errorLog = errs
}

func WriteAccessLog(line string) {
	logMu.Lock()
	defer logMu.Unlock()

	_, _ = io.WriteString(accessLog, line)
}

func LogError(err error, remoteAddr string) {
	t := time.Now()

	logMu.Lock()
	defer logMu.Unlock()

	_, _ = fmt.Fprintf(errorLog, "[%s] [server:error] [pid %d:tid %d] [client %s] %s\n",
		t.Format("Mon Jan 02 15:04:05.999999999 2006"),
		os.Getpid(),
		0,
		remoteAddr,
		err.Error(),
	)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogging sends process messages to stderr as slog text.
func SetupLogging(level string) {
	var programLevel = new(slog.LevelVar)

	programLevel.Set(parseLevel(level))

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: programLevel}))
	slog.SetDefault(logger)
}
