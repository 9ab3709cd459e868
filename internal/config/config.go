// Package config provides the configuration schema and loader for the amrx
// serve command.
package config

import "log/slog"

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognized log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level maps l onto the slog level scale. Unrecognized levels map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Pace selects how frame streaming endpoints deliver data.
type Pace string

const (
	// PaceRealtime delivers one frame per 20ms wall-clock slot.
	PaceRealtime Pace = "realtime"

	// PaceFast delivers frames as fast as the connection drains them.
	PaceFast Pace = "fast"
)

// IsValid reports whether p is a recognized pacing mode.
func (p Pace) IsValid() bool {
	return p == PaceRealtime || p == PaceFast
}

// Config is the root configuration for amrx serve. It is typically loaded
// from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Library   []FileConfig    `yaml:"library"`
	Stream    StreamConfig    `yaml:"stream"`
	Discovery DiscoveryConfig `yaml:"discovery"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the address served on, as TCP for HTTPS and UDP for
	// HTTP/3 (e.g. ":8443").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// CORSOrigin is the Access-Control-Allow-Origin value for API
	// responses.
	CORSOrigin string `yaml:"cors_origin"`
}

// FileConfig registers one container file in the served library.
type FileConfig struct {
	// ID is the identifier exposed by the API. Defaults to the path's
	// base name without extension.
	ID string `yaml:"id"`

	// Path is the container file location on disk.
	Path string `yaml:"path"`
}

// StreamConfig holds frame delivery settings.
type StreamConfig struct {
	// Pace is the default delivery mode when a request does not choose
	// one.
	Pace Pace `yaml:"pace"`
}

// DiscoveryConfig controls mDNS advertisement of the server.
type DiscoveryConfig struct {
	// MDNS enables advertisement on the local network.
	MDNS bool `yaml:"mdns"`

	// Instance is the advertised service instance name.
	Instance string `yaml:"instance"`
}

// withDefaults fills unset fields with serving defaults.
func (c *Config) withDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8443"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = LogInfo
	}
	if c.Server.CORSOrigin == "" {
		c.Server.CORSOrigin = "*"
	}
	if c.Stream.Pace == "" {
		c.Stream.Pace = PaceRealtime
	}
	if c.Discovery.Instance == "" {
		c.Discovery.Instance = "amrx"
	}
}
