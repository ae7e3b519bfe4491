package config

import "time"

// Config holds the application configuration.
type Config struct {
	Server      Server      `yaml:"server"`
	Logger      Logger      `yaml:"logger"`
	Recognition Recognition `yaml:"recognition"`
	CORS        CORS        `yaml:"cors"`
	Metrics     Metrics     `yaml:"metrics"`
	Telegram    Telegram    `yaml:"telegram"`
}

// Server hold the configuration for the Fiber server Config
type Server struct {
	PrintRoutes    bool   `yaml:"show_routes"`
	Port           uint32 `yaml:"port" validate:"required,max=65535"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" validate:"required,gt=0"`
	WatchConfig    bool   `yaml:"watch_config"` // Reload config.yaml when it changes on disk
}

// Logger holds the configuration for the app logging
type Logger struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format  string `yaml:"format" validate:"omitempty,oneof=json text logfmt"`
}

// Recognition holds the configuration for the upstream fingerprinting provider.
type Recognition struct {
	Provider        string        `yaml:"provider" validate:"required"`
	Endpoint        string        `yaml:"endpoint" validate:"required,url"`
	APIToken        string        `yaml:"api_token" validate:"required"`
	Timeout         time.Duration `yaml:"timeout" validate:"gt=0"`
	DefaultMimeType string        `yaml:"default_mime_type"`
}

// CORS holds the cross origin policy applied to every route.
type CORS struct {
	AllowOrigins string `yaml:"allow_origins"`
	AllowMethods string `yaml:"allow_methods"`
	AllowHeaders string `yaml:"allow_headers"`
}

// Metrics toggles the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Telegram struct {
	Enabled      bool     `yaml:"enabled"`
	Token        string   `yaml:"token" validate:"required_if=Enabled true"`
	AllowedUsers []string `yaml:"allowedUsers"`
}
