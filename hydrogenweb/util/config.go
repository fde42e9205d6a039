package util

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const envPrefix = "HYDROGENWEB_"

type Config struct {
	ServerHost    string        `env:"SERVERHOST"     envDefault:"localhost"`
	ServerPort    uint16        `env:"SERVERPORT"     envDefault:"50051"`
	ServerTimeout int64         `env:"SERVERTIMEOUT"  envDefault:"5"`
	ListenHost    string        `env:"HOST"           envDefault:"localhost"`
	ListenPort    uint16        `env:"PORT"           envDefault:"8888"`
	MetricsEnable bool          `env:"METRICS_ENABLE" envDefault:"false"`
	MetricsHost   string        `env:"METRICS_HOST"   envDefault:"localhost"`
	MetricsPort   uint16        `env:"METRICS_PORT"   envDefault:"9090"`
	AccessLog     string        `env:"ACCESSLOG"`
	ErrorLog      string        `env:"ERRORLOG"`
	LogLevel      string        `env:"LOG_LEVEL"      envDefault:"info"`
	FeedInterval  time.Duration `env:"FEED_INTERVAL"  envDefault:"2s"`
}

// LoadConfig reads HYDROGENWEB_* variables, after loading envFile into the
// environment when it exists. Variables already set win over the file.
func LoadConfig(envFile string) (Config, error) {
	var cfg Config

	if envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("error loading %s: %w", envFile, err)
		}
	}

	err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix})
	if err != nil {
		return Config{}, fmt.Errorf("error parsing environment: %w", err)
	}

	if cfg.FeedInterval <= 0 {
		return Config{}, errInvalidFeedInterval
	}

	return cfg, nil
}
