// Package config loads the collector's session options from file,
// environment, and defaults using viper, and validates the result with
// validator struct tags, following the same load/validate shape as the
// rest of the ambient stack.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// SessionOptions holds the recognised collector session keys, plus the
// settings the optional resolution-history store needs.
type SessionOptions struct {
	MaxExceptions                        int `validate:"gte=0"`
	MaxCycles                            int `validate:"gte=0"`
	SkipperEnabled                       bool
	VerboseManagement                    bool
	IgnoreArtifactDescriptorRepositories bool

	Log     LogConfig     `validate:"required"`
	History HistoryConfig `validate:"required"`
}

// LogConfig configures pkg/logger.
type LogConfig struct {
	Level      string `validate:"required,oneof=debug info warn error"`
	Format     string `validate:"required,oneof=json text"`
	OutputPath string
	MaxSizeMB  int `validate:"gte=0"`
	MaxBackups int `validate:"gte=0"`
	MaxAgeDays int `validate:"gte=0"`
	Compress   bool
}

// HistoryConfig configures the optional resolution-history recorder
// (internal/history). It is never consulted by Collect itself.
type HistoryConfig struct {
	Enabled        bool
	PostgresURL    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
	MaxConnections int `validate:"gte=0"`
}

const (
	keyMaxExceptions     = "aether.dependencyCollector.maxExceptions"
	keyMaxCycles         = "aether.dependencyCollector.maxCycles"
	keySkipperEnabled    = "aether.dependencyCollector.bf.skipper"
	keyVerboseManagement = "aether.dependencyManager.verbose"
	keyIgnoreRepos       = "ignoreArtifactDescriptorRepositories"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyMaxExceptions, 50)
	v.SetDefault(keyMaxCycles, 10)
	v.SetDefault(keySkipperEnabled, true)
	v.SetDefault(keyVerboseManagement, false)
	v.SetDefault(keyIgnoreRepos, false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "stdout")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", true)

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.postgres_url", "")
	v.SetDefault("history.redis_addr", "localhost:6379")
	v.SetDefault("history.redis_password", "")
	v.SetDefault("history.redis_db", 0)
	v.SetDefault("history.connect_timeout", "5s")
	v.SetDefault("history.query_timeout", "10s")
	v.SetDefault("history.max_connections", 10)
}

// Load reads session options from configPath (if non-empty) layered under
// environment variables and the defaults above, in that precedence order.
func Load(configPath string) (*SessionOptions, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// A missing file falls back to defaults; viper reports it as
			// ConfigFileNotFoundError when searching paths and as a plain
			// fs error when the file was named explicitly.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", configPath, err)
			}
		}
	}

	opts := &SessionOptions{
		MaxExceptions:                        v.GetInt(keyMaxExceptions),
		MaxCycles:                            v.GetInt(keyMaxCycles),
		SkipperEnabled:                       v.GetBool(keySkipperEnabled),
		VerboseManagement:                    v.GetBool(keyVerboseManagement),
		IgnoreArtifactDescriptorRepositories: v.GetBool(keyIgnoreRepos),
		Log: LogConfig{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			OutputPath: v.GetString("log.output_path"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
			Compress:   v.GetBool("log.compress"),
		},
		History: HistoryConfig{
			Enabled:        v.GetBool("history.enabled"),
			PostgresURL:    v.GetString("history.postgres_url"),
			RedisAddr:      v.GetString("history.redis_addr"),
			RedisPassword:  v.GetString("history.redis_password"),
			RedisDB:        v.GetInt("history.redis_db"),
			ConnectTimeout: v.GetDuration("history.connect_timeout"),
			QueryTimeout:   v.GetDuration("history.query_timeout"),
			MaxConnections: v.GetInt("history.max_connections"),
		},
	}

	if err := validator.New().Struct(opts); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return opts, nil
}

// Defaults returns the session options a caller gets with no config file
// and no environment overrides - useful for tests and for library callers
// that only need the collector defaults.
func Defaults() *SessionOptions {
	opts, err := Load("")
	if err != nil {
		// setDefaults() always produces a struct that passes validation;
		// an error here means the defaults themselves were broken.
		panic(fmt.Sprintf("config: defaults failed validation: %v", err))
	}
	return opts
}
