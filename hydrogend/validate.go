package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"hydrogen/hydrogend/config"
)

var (
	errLogPathNotSet     = errors.New("log path not set")
	errLogDirNotWritable = errors.New("log dir not writable")
	errDBPathNotSet      = errors.New("db path not set")
	errDBDirNotWritable  = errors.New("db dir not writable")
	errInvalidNetwork    = errors.New("invalid libvirt network")
	errInvalidPort       = errors.New("invalid port")
	errHostNameNotSet    = errors.New("host name not set")
	errInvalidProvision  = errors.New("invalid provision config")
)

// validateLogConfig runs before logging is set up, so it can only report.
func validateLogConfig() error {
	if config.Config.Log.Path == "" {
		return errLogPathNotSet
	}

	return dirWritable(filepath.Dir(config.Config.Log.Path), errLogDirNotWritable)
}

func dirWritable(dir string, notWritable error) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %w", notWritable, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", notWritable, dir)
	}

	err = unix.Access(dir, unix.W_OK)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", notWritable, dir, err)
	}

	return nil
}

func validateDBConfig() error {
	if config.Config.DB.Path == "" {
		return errDBPathNotSet
	}

	return dirWritable(filepath.Dir(config.Config.DB.Path), errDBDirNotWritable)
}

func validateNetConfig() error {
	switch config.Config.Libvirt.Network {
	case "unix", "tcp":
	default:
		return fmt.Errorf("%w: %q", errInvalidNetwork, config.Config.Libvirt.Network)
	}

	if config.Config.Network.Grpc.Port == 0 || config.Config.Network.Grpc.Port > 65535 {
		return fmt.Errorf("%w: grpc port %d", errInvalidPort, config.Config.Network.Grpc.Port)
	}

	if config.Config.Metrics.Enabled && (config.Config.Metrics.Port == 0 || config.Config.Metrics.Port > 65535) {
		return fmt.Errorf("%w: metrics port %d", errInvalidPort, config.Config.Metrics.Port)
	}

	return nil
}

func validateProvisionConfig() error {
	prov := config.Config.Provision

	if !prov.Enabled {
		return nil
	}

	switch prov.Arch {
	case "x86_64", "aarch64":
	default:
		return fmt.Errorf("%w: arch %q", errInvalidProvision, prov.Arch)
	}

	if prov.Pool == "" || prov.Seeds == "" {
		return fmt.Errorf("%w: pool and seeds must be set", errInvalidProvision)
	}

	info, err := os.Stat(prov.Images)
	if err != nil {
		return fmt.Errorf("%w: images: %w", errInvalidProvision, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", errInvalidProvision, prov.Images)
	}

	return nil
}

func validateConfig() error {
	if config.Config.Host.Name == "" {
		return errHostNameNotSet
	}

	err := validateDBConfig()
	if err != nil {
		return err
	}

	err = validateNetConfig()
	if err != nil {
		return err
	}

	return validateProvisionConfig()
}
