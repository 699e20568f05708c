// Package config handles TOML configuration loading with environment
// variable substitution.
package config

import (
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Library  LibraryConfig  `toml:"library"`
	Torrent  TorrentConfig  `toml:"torrent"`
	Metadata MetadataConfig `toml:"metadata"`
}

type ServerConfig struct {
	Host                string `toml:"host"`
	Port                int    `toml:"port"`
	LogLevel            string `toml:"log_level"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LibraryConfig struct {
	Root string `toml:"root"`
}

// TorrentConfig points at the Transmission RPC endpoint.
type TorrentConfig struct {
	URL                 string `toml:"url"`
	Username            string `toml:"username"`
	Password            string `toml:"password"`
	MetadataWaitSeconds int    `toml:"metadata_wait_seconds"`
}

type MetadataConfig struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
}

// Load reads, substitutes, parses, and validates the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Errors: []string{err.Error()}}
	}

	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return nil, &ConfigError{Path: path, Missing: missing}
	}

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, &ConfigError{Path: path, Errors: []string{"parse: " + err.Error()}}
	}

	cfg.applyDefaults()

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &ConfigError{Path: path, Errors: errs}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8585
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.PollIntervalSeconds == 0 {
		c.Server.PollIntervalSeconds = 30
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/reeler.db"
	}
	if c.Torrent.MetadataWaitSeconds == 0 {
		c.Torrent.MetadataWaitSeconds = 60
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable
// values and reports the variables that were not set.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) (string, []string) {
	var missing []string
	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1]
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		missing = append(missing, varName)
		return match
	})
	return result, missing
}
