package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hydrogen/hydrogend/config"
	"hydrogen/hydrogend/vm"
)

var grpcMetrics = grpcprom.NewServerMetrics(
	grpcprom.WithServerHandlingTimeHistogram(),
)

func newMetricsServer(metricsAddr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              metricsAddr,
		Handler:           handler,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}

func serveMetrics(ctx context.Context) {
	if !config.Config.Metrics.Enabled {
		return
	}

	metricsAddr := net.JoinHostPort(config.Config.Metrics.Host, strconv.FormatUint(uint64(config.Config.Metrics.Port), 10))

	slog.Debug("serving metrics", "metricsAddr", metricsAddr)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := newMetricsServer(metricsAddr, mux)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error serving metrics", "err", err)
	}
}

func setupMetrics() {
	vm.SetupVMMetrics()
	prometheus.MustRegister(grpcMetrics)
}
