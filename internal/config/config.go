// Package config resolves runtime settings from flags, environment variables,
// .env files and an optional YAML config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/seckatie/linkindex/internal/errors"
	"github.com/seckatie/linkindex/internal/logging"
)

// EnvPrefix is prepended to every environment variable name, e.g. LINKINDEX_DB.
const EnvPrefix = "LINKINDEX"

// Keys understood by Load.
const (
	KeyDB                = "db"
	KeyDatabaseURL       = "database-url"
	KeyHost              = "host"
	KeyPort              = "port"
	KeyTitleWorkers      = "title-workers"
	KeyTitlePollInterval = "title-poll-interval"
	KeyLogLevel          = "log-level"
	KeyLogFormat         = "log-format"
	KeyChromePath        = "chrome-path"
)

// Config is the resolved runtime configuration.
type Config struct {
	DB           string
	DatabaseURL  string
	Host         string
	Port         int
	TitleWorkers int
	// TitlePollInterval is how often serve scans for untitled snapshots
	// written by other processes.
	TitlePollInterval time.Duration
	LogLevel          string
	LogFormat         string
	ChromePath        string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDB, "linkindex.db")
	v.SetDefault(KeyDatabaseURL, "")
	v.SetDefault(KeyHost, "localhost")
	v.SetDefault(KeyPort, 8080)
	v.SetDefault(KeyTitleWorkers, 1)
	v.SetDefault(KeyTitlePollInterval, 30*time.Second)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "auto")
	v.SetDefault(KeyChromePath, "")
}

// Init wires environment lookup into v and reads cfgFile if set, otherwise
// an optional .linkindex.yaml from the working or home directory.
// .env.local and .env are loaded first; .env.local takes precedence and
// variables already in the environment are never overridden.
func Init(v *viper.Viper, cfgFile string) error {
	LoadEnvFiles(".env.local", ".env")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
		return nil
	}

	v.SetConfigName(".linkindex")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// LoadEnvFiles loads each file that exists into the process environment.
// Earlier files win over later ones, and both lose to variables already set.
func LoadEnvFiles(files ...string) {
	for _, f := range files {
		if _, err := os.Stat(filepath.Clean(f)); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			logging.Default().Warn().Err(err).Str("file", f).Msg("Failed to load env file")
		}
	}
}

// Load reads the resolved configuration out of v.
func Load(v *viper.Viper) Config {
	return Config{
		DB:                v.GetString(KeyDB),
		DatabaseURL:       v.GetString(KeyDatabaseURL),
		Host:              v.GetString(KeyHost),
		Port:              v.GetInt(KeyPort),
		TitleWorkers:      v.GetInt(KeyTitleWorkers),
		TitlePollInterval: v.GetDuration(KeyTitlePollInterval),
		LogLevel:          v.GetString(KeyLogLevel),
		LogFormat:         v.GetString(KeyLogFormat),
		ChromePath:        v.GetString(KeyChromePath),
	}
}

// Addr is the listen address for the web server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Logging converts the log settings into a logging.Config.
func (c Config) Logging() *logging.Config {
	return &logging.Config{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		Output: os.Stderr,
	}
}
