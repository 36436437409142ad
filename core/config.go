package core

import (
	"fmt"
	"strings"
	"time"
)

type ReloadConfig struct {
	Interval       time.Duration `koanf:"interval" mapstructure:"interval"`
	MaxAttempts    int           `koanf:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `koanf:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `koanf:"max_backoff" mapstructure:"max_backoff"`
}

type Config struct {
	ServiceName     string       `koanf:"service_name" mapstructure:"service_name"`
	HandlerBasePath string       `koanf:"handler_base_path" mapstructure:"handler_base_path"`
	Reload          ReloadConfig `koanf:"reload" mapstructure:"reload"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:     "txdispatch",
		HandlerBasePath: "handlers",
		Reload: ReloadConfig{
			MaxAttempts:    defaultReloadMaxAttempts,
			InitialBackoff: defaultReloadInitialBackoff,
			MaxBackoff:     defaultReloadMaxBackoff,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.HandlerBasePath) == "" {
		return fmt.Errorf("core: handler_base_path is required")
	}
	if c.Reload.Interval < 0 {
		return fmt.Errorf("core: reload interval must not be negative")
	}
	return nil
}
