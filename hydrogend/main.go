package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"hydrogen/hydrogend/config"
	"hydrogen/hydrogend/hypervisor"
	"hydrogen/hydrogend/provision"
	"hydrogen/hydrogend/requests"
	"hydrogen/hydrogend/vm"
)

var mainVersion = "unknown"

var cfgFile = "config.yml"

var rootCmd = &cobra.Command{
	Use:          "hydrogend",
	Short:        "VM inventory daemon",
	Version:      mainVersion,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

func handleSigInfo() {
	var mem runtime.MemStats

	vm.LogAllVMStatus()
	runtime.ReadMemStats(&mem)
	slog.Debug("MemStats",
		"mem.Alloc", mem.Alloc,
		"mem.TotalAlloc", mem.TotalAlloc,
		"mem.HeapAlloc", mem.HeapAlloc,
		"mem.NumGC", mem.NumGC,
		"mem.Sys", mem.Sys,
	)
}

func setupLogging() (*os.File, error) {
	logFile, err := os.OpenFile(config.Config.Log.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	programLevel := new(slog.LevelVar) // Info by default
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: programLevel}))
	slog.SetDefault(logger)

	switch strings.ToLower(config.Config.Log.Level) {
	case "debug":
		programLevel.Set(slog.LevelDebug)
	case "info":
		programLevel.Set(slog.LevelInfo)
	case "warn":
		programLevel.Set(slog.LevelWarn)
	case "error":
		programLevel.Set(slog.LevelError)
	default:
		slog.Info("log level not set or un-parseable, setting to info")
		programLevel.Set(slog.LevelInfo)
	}

	return logFile, nil
}

func cleanupDB() {
	rowsCleared := requests.FailAllPending()
	slog.Debug("cleared failed requests", "rowsCleared", rowsCleared)
}

// newCreator is nil unless provisioning is enabled.
func newCreator() creator {
	prov := config.Config.Provision
	if !prov.Enabled {
		return nil
	}

	return &provision.Provisioner{
		Seeder: provision.CloudLocalDS{Path: prov.CloudLocalDS},
		Images: prov.Images,
		Seeds:  prov.Seeds,
		Pool:   prov.Pool,
		Arch:   prov.Arch,
	}
}

func run(parent context.Context) error {
	err := validateLogConfig()
	if err != nil {
		return err
	}

	logFile, err := setupLogging()
	if err != nil {
		return err
	}

	defer func() {
		_ = logFile.Close()
	}()

	err = validateConfig()
	if err != nil {
		slog.Error("invalid config", "err", err)

		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infoSignals := make(chan os.Signal, 1)
	signal.Notify(infoSignals, syscall.SIGUSR1)

	defer signal.Stop(infoSignals)

	go func() {
		for {
			select {
			case <-infoSignals:
				handleSigInfo()
			case <-ctx.Done():
				return
			}
		}
	}()

	hvConn := newHVConn(dialLibvirt)

	err = hvConn.redial()
	if err != nil {
		slog.Error("failed connecting to libvirt", "err", err)

		return err
	}

	defer hvConn.close()

	err = hypervisor.CheckVersion(hvConn.get(), config.Config.Libvirt.MinVersion)
	if err != nil {
		slog.Error("libvirt check failed", "err", err)

		return err
	}

	vm.DBAutoMigrate()
	requests.DBAutoMigrate()

	err = vm.InitList()
	if err != nil {
		slog.Error("failed loading VMs", "err", err)

		return err
	}

	cleanupDB()
	setupMetrics()

	mon := newMonitor(hvConn, config.Config.Host.Name)

	err = mon.Sync(ctx)
	if err != nil {
		// libvirt may just be slow to answer, watch retries
		slog.Error("initial sync failed", "err", err)
	}

	slog.Info("Starting Daemon", "version", mainVersion, "host", config.Config.Host.Name)

	go mon.watch(ctx)
	go processRequests(ctx, hvConn, newCreator())
	go serveMetrics(ctx)

	err = rpcServer(ctx, hvConn)

	slog.Info("Exiting normally")

	return err
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
