// Package config loads the summary API configuration from defaults, an
// optional YAML file and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment modes.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Env     string        `mapstructure:"env"`
	MainAPI MainAPIConfig `mapstructure:"main_api"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Stream  StreamConfig  `mapstructure:"stream"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type MainAPIConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// JWTConfig configures the internal service credential. Secret must be set
// for any authenticated call to the main API.
type JWTConfig struct {
	Secret   string `mapstructure:"secret"`
	Issuer   string `mapstructure:"issuer"`
	Audience string `mapstructure:"audience"`
}

type StreamConfig struct {
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env != EnvProduction
}

// Load reads configuration from the given path (optional) and the
// environment. The original deployment variable names (SUMMARY_API_PORT,
// MAIN_API_URL, JWT_SECRET, ...) are honored alongside the SUMMARY_ prefix.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 3002)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("env", EnvDevelopment)
	v.SetDefault("main_api.base_url", "http://localhost:3001")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "main-api")
	v.SetDefault("jwt.audience", "internal-services")
	v.SetDefault("stream.reconnect_wait", "5s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Environment variables override
	v.SetEnvPrefix("SUMMARY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Deployment variable names carried over from the node stack this
	// service replaced.
	bindings := map[string]string{
		"server.port":       "SUMMARY_API_PORT",
		"env":               "NODE_ENV",
		"main_api.base_url": "MAIN_API_URL",
		"jwt.secret":        "JWT_SECRET",
		"jwt.issuer":        "JWT_ISSUER",
		"jwt.audience":      "JWT_AUDIENCE",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/summary-api")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
