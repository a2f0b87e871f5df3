package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Logging
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Redis
	RedisURL string `mapstructure:"REDIS_URL"`
	RedisDB  int    `mapstructure:"REDIS_DB"`

	// CORS
	CorsOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Optimization
	OptimizeTimeoutSeconds int `mapstructure:"OPTIMIZE_TIMEOUT_SECONDS"`
	CacheTTLHours          int `mapstructure:"CACHE_TTL_HOURS"`

	// Evaluation budget defaults, used when a request leaves them unset
	DefaultNEarly   int     `mapstructure:"DEFAULT_N_EARLY"`
	DefaultNFinal   int     `mapstructure:"DEFAULT_N_FINAL"`
	DefaultCI95Stop float64 `mapstructure:"DEFAULT_CI95_STOP"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	// Set defaults
	viper.SetDefault("PORT", "8083")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("REDIS_DB", 2)
	viper.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("OPTIMIZE_TIMEOUT_SECONDS", 30)
	viper.SetDefault("CACHE_TTL_HOURS", 24)
	viper.SetDefault("DEFAULT_N_EARLY", 120)
	viper.SetDefault("DEFAULT_N_FINAL", 600)
	viper.SetDefault("DEFAULT_CI95_STOP", 0.02)

	// Read from environment
	viper.AutomaticEnv()

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Parse CORS origins from comma-separated string
	if corsStr := viper.GetString("CORS_ORIGINS"); corsStr != "" {
		config.CorsOrigins = strings.Split(corsStr, ",")
	}

	return &config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
