package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	metrics "github.com/slok/go-http-metrics/metrics/prometheus"
	"github.com/slok/go-http-metrics/middleware"
	middlewarestd "github.com/slok/go-http-metrics/middleware/std"

	"hydrogen/hydrogenweb/handlers"
	"hydrogen/hydrogenweb/util"
)

func healthCheck(writer http.ResponseWriter, _ *http.Request) {
	writer.WriteHeader(http.StatusNoContent)
}

func setupMetrics(host string, port uint16) {
	go func() {
		srv := &http.Server{
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			Addr:         net.JoinHostPort(host, strconv.FormatUint(uint64(port), 10)),
			Handler:      promhttp.Handler(),
		}

		err := srv.ListenAndServe()
		if err != nil {
			slog.Error("metrics server failed", "err", err)
			os.Exit(1)
		}
	}()
}

// router builds the dashboard routes. Page routes are measured when mdlw is
// set; the feed is only logged since its connection outlives the request.
func router(cfg util.Config, mdlw *middleware.Middleware) *http.ServeMux {
	mux := http.NewServeMux()

	route := func(pattern string, id string, handler http.Handler) {
		if mdlw != nil {
			handler = middlewarestd.Handler(id, *mdlw, handler)
		}

		mux.Handle(pattern, HTTPLogger(handler))
	}

	mux.HandleFunc("GET /healthz", healthCheck)

	route("GET /{$}", "/", handlers.NewHomeHandler())
	route("GET /vms", "/vms", handlers.NewVMsHandler())
	route("GET /vm/{uuid}", "/vm/:uuid", handlers.NewVMHandler())
	route("POST /vm/{uuid}/menu", "/vm/:uuid/menu", handlers.NewVMMenuHandler())

	mux.Handle("GET /ws/vms", HTTPLogger(handlers.NewVMsFeedHandler(cfg.FeedInterval)))

	return mux
}

func main() {
	cfg, err := util.LoadConfig(".env")
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	util.SetupLogging(cfg.LogLevel)
	util.InitRPC(cfg)
	util.SetAccessLog(cfg.AccessLog)
	util.SetErrorLog(cfg.ErrorLog)

	var mdlw *middleware.Middleware

	if cfg.MetricsEnable {
		recorded := middleware.New(middleware.Config{
			Recorder: metrics.NewRecorder(metrics.Config{}),
		})
		mdlw = &recorded

		setupMetrics(cfg.MetricsHost, cfg.MetricsPort)
	}

	srv := &http.Server{
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		IdleTimeout:       60 * time.Second,
		Addr:              net.JoinHostPort(cfg.ListenHost, strconv.FormatUint(uint64(cfg.ListenPort), 10)),
		Handler:           router(cfg, mdlw),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("hydrogenweb listening", "addr", srv.Addr, "server", util.GetServerName())

	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("web server failed", "err", err)
		os.Exit(1) //nolint:gocritic
	}
}
