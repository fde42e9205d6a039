package config

type Info struct {
	DB struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"db"`
	Log struct {
		Path  string `mapstructure:"path"`
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Host struct {
		// Name identifies this hypervisor in every VM's host field, defaults to
		// the uname nodename
		Name string `mapstructure:"name"`
	} `mapstructure:"host"`
	Libvirt struct {
		Network    string `mapstructure:"network"`
		Address    string `mapstructure:"address"`
		Timeout    uint64 `mapstructure:"timeout"` // in seconds
		MinVersion string `mapstructure:"minversion"`
	} `mapstructure:"libvirt"`
	Monitor struct {
		Interval   uint64 `mapstructure:"interval"`   // in seconds
		MaxBackoff uint64 `mapstructure:"maxbackoff"` // in seconds
	} `mapstructure:"monitor"`
	Network struct {
		Grpc struct {
			IP      string `mapstructure:"ip"`
			Port    uint   `mapstructure:"port"`
			Timeout uint64 `mapstructure:"timeout"` // in seconds
		} `mapstructure:"grpc"`
	} `mapstructure:"network"`
	Provision struct {
		Enabled bool `mapstructure:"enabled"`
		// Images holds the <os>.qcow2 images new disks are backed by
		Images       string `mapstructure:"images"`
		Seeds        string `mapstructure:"seeds"`
		Pool         string `mapstructure:"pool"`
		Arch         string `mapstructure:"arch"`
		CloudLocalDS string `mapstructure:"cloudlocalds"`
	} `mapstructure:"provision"`
	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Host    string `mapstructure:"host"`
		Port    uint   `mapstructure:"port"`
	} `mapstructure:"metrics"`
}

var Config Info
