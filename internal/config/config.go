// Package config loads the process-wide settings: an optional config.yaml
// next to the working directory, overridable through KINEZUMIKO_-prefixed
// environment variables, with defaults for everything so that a bare
// checkout runs against a local go-cqhttp.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is immutable after Load.
type Config struct {
	// Listen is the address the ingestion server binds.
	Listen string `mapstructure:"listen"`
	// GatewayURL is the base URL of the go-cqhttp HTTP API.
	GatewayURL string `mapstructure:"gateway_url"`
	// Admin is the conversation that receives reports about events with no
	// usable source context.
	Admin int64 `mapstructure:"admin"`
	// DataDir holds the workbook databases.
	DataDir string `mapstructure:"data_dir"`
	// HTTPTimeout bounds every outbound gateway call.
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	// FlowRetention is how long an idle conversation flow survives.
	FlowRetention time.Duration `mapstructure:"flow_retention"`
	// LocalTick synthesises interval ticks when the gateway sends no
	// heartbeat events. Zero disables the local ticker.
	LocalTick time.Duration `mapstructure:"local_tick"`
}

// Load reads configuration from dir. A missing config file is fine; broken
// syntax is not.
func Load(dir string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("kinezumiko")
	v.AutomaticEnv()

	v.SetDefault("listen", "127.0.0.1:5701")
	v.SetDefault("gateway_url", "http://127.0.0.1:5700")
	v.SetDefault("admin", int64(-114514))
	v.SetDefault("data_dir", "excel")
	v.SetDefault("http_timeout", 10*time.Second)
	v.SetDefault("flow_retention", 24*time.Hour)
	v.SetDefault("local_tick", time.Duration(0))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
