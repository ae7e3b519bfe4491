package config

import "time"

const (
	// DefaultMaxUploadBytes is the upload ceiling applied when none is configured (25 MiB).
	DefaultMaxUploadBytes int64  = 25 * 1024 * 1024
	DefaultPort           uint32 = 3000
)

// defaultConfig returns a new Config with sensible default values
func defaultConfig() *Config {
	return &Config{
		Server: Server{
			PrintRoutes:    false,
			Port:           DefaultPort,
			MaxUploadBytes: DefaultMaxUploadBytes,
			WatchConfig:    false,
		},
		Logger: Logger{
			Enabled: true,
			Level:   "info",
			Format:  "text",
		},
		Recognition: Recognition{
			Provider:        "audiotag",
			Endpoint:        "https://audiotag.info/api",
			APIToken:        "", // Set AUDIOTAG_API_TOKEN instead of writing it here
			Timeout:         30 * time.Second,
			DefaultMimeType: "audio/wav",
		},
		CORS: CORS{
			AllowOrigins: "*",
			AllowMethods: "GET,POST,OPTIONS",
			AllowHeaders: "Content-Type,Authorization,X-Requested-With",
		},
		Metrics: Metrics{
			Enabled: true,
			Path:    "/metrics",
		},
		Telegram: Telegram{
			Enabled:      false,
			Token:        "",                                   // Can be obtained with https://t.me/BotFather
			AllowedUsers: []string{"<your_telegram_username>"}, // No @
		},
	}
}
