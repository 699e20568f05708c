package config

import "fmt"

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks the configuration for errors. Returns a slice of
// error messages (empty if valid). Called after defaults are applied.
func (c *Config) Validate() []string {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	if c.Library.Root == "" {
		errs = append(errs, "library.root: required")
	}

	if c.Torrent.URL == "" {
		errs = append(errs, "torrent.url: required")
	}

	if c.Metadata.URL == "" {
		errs = append(errs, "metadata.url: required")
	}
	if c.Metadata.APIKey == "" {
		errs = append(errs, "metadata.api_key: required")
	}

	return errs
}
