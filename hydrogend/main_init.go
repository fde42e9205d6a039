package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hydrogen/hydrogend/config"
	"hydrogen/hydrogend/hypervisor"
)

func disableFlagSorting(cmd *cobra.Command) {
	cmd.Flags().SortFlags = false
	cmd.PersistentFlags().SortFlags = false
	cmd.InheritedFlags().SortFlags = false
}

func init() {
	cobra.OnInitialize(initConfig)
	cobra.EnableCommandSorting = false
	disableFlagSorting(rootCmd)

	rootCmd.PersistentFlags().StringVarP(&cfgFile,
		"config", "C", cfgFile, "config file (default config.yml)",
	)
}

func setConfigDefaults() {
	viper.SetDefault("db.path", "/var/db/hydrogend/hydrogend.sqlite")
	viper.SetDefault("log.path", "/var/log/hydrogend.log")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("libvirt.network", "unix")
	viper.SetDefault("libvirt.address", "/var/run/libvirt/libvirt-sock")
	viper.SetDefault("libvirt.timeout", 5)
	viper.SetDefault("libvirt.minversion", "6.0.0")
	viper.SetDefault("monitor.interval", 30)
	viper.SetDefault("monitor.maxbackoff", 60)
	viper.SetDefault("network.grpc.ip", "0.0.0.0")
	viper.SetDefault("network.grpc.port", 50051)
	viper.SetDefault("network.grpc.timeout", 60)
	viper.SetDefault("provision.enabled", false)
	viper.SetDefault("provision.images", "/var/lib/hydrogend/images")
	viper.SetDefault("provision.seeds", "/var/lib/hydrogend/seeds")
	viper.SetDefault("provision.pool", "default")
	viper.SetDefault("provision.arch", "x86_64")
	viper.SetDefault("provision.cloudlocalds", "cloud-localds")
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.host", "")
	viper.SetDefault("metrics.port", 2223)
}

func initConfig() {
	setConfigDefaults()

	viper.SetConfigFile(cfgFile)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("HYDROGEND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// a missing file leaves the defaults in place
	_ = viper.ReadInConfig()

	err := viper.Unmarshal(&config.Config)
	cobra.CheckErr(err)

	if config.Config.Host.Name == "" {
		nodeName, err := hypervisor.NodeName()
		cobra.CheckErr(err)

		config.Config.Host.Name = nodeName
	}
}
