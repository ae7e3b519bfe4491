package config

import (
	"log/slog"
	"sync"

	"gopkg.in/yaml.v3"
)

// Manager holds the application configuration and provides thread-safe access to it.
type Manager struct {
	mu     sync.RWMutex
	config *Config
}

// NewManager creates a new ConfigManager.
func NewManager(config *Config) *Manager {
	return &Manager{config: config}
}

// Get returns the current configuration. Callers must treat it as read-only.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Update updates the configuration.
func (m *Manager) Update(config *Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldConfig := m.config
	m.config = config

	if oldConfig != nil {
		slog.Debug("Configuration updated",
			"endpoint_changed", oldConfig.Recognition.Endpoint != config.Recognition.Endpoint,
			"token_changed", oldConfig.Recognition.APIToken != config.Recognition.APIToken,
			"timeout_changed", oldConfig.Recognition.Timeout != config.Recognition.Timeout,
			"max_upload_changed", oldConfig.Server.MaxUploadBytes != config.Server.MaxUploadBytes,
			"port_changed", oldConfig.Server.Port != config.Server.Port,
		)
	}
}

// Reload re-reads path and swaps the configuration in. The current
// configuration is kept when the file is invalid.
func (m *Manager) Reload(path string) error {
	cfg, err := readFile(path)
	if err != nil {
		slog.Error("Config reload rejected", "path", path, "error", err)
		return err
	}
	m.Update(cfg)
	slog.Info("Configuration reloaded", "path", path)
	return nil
}

// redactedCfg gets a redacted copy of the Config
func (m *Manager) redactedCfg() Config {
	var cfgCpy = *m.Get()
	if cfgCpy.Recognition.APIToken != "" {
		cfgCpy.Recognition.APIToken = "<redacted>"
	}
	if cfgCpy.Telegram.Token != "" {
		cfgCpy.Telegram.Token = "<redacted>"
	}
	return cfgCpy
}

// GetYAML returns the current configuration as YAML with secrets redacted.
func (m *Manager) GetYAML() string {
	yamlBytes, err := yaml.Marshal(m.redactedCfg())
	if err != nil {
		slog.Error("failed to marshal config to YAML", "error", err)
		return err.Error()
	}
	return string(yamlBytes)
}
