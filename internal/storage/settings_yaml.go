package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"studytimer/internal/platform"
	"studytimer/internal/ui/preferences"

	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	DefaultDurationMinutes int    `yaml:"default_duration_minutes"`
	TickIntervalMillis     int    `yaml:"tick_interval_ms"`
	NotificationTitle      string `yaml:"notification_title"`
	NotificationBody       string `yaml:"notification_body"`
	Store                  string `yaml:"store"`
	HistoryEnabled         *bool  `yaml:"history_enabled"`
	LogLevel               string `yaml:"log_level"`
}

// LoadSettings reads user preferences from YAML.
// If the config file does not exist, default settings are returned.
func LoadSettings(appName string) (preferences.Settings, error) {
	configPath, err := SettingsPath(appName)
	if err != nil {
		return preferences.DefaultSettings(), err
	}
	return LoadSettingsFile(configPath)
}

// LoadSettingsFile reads user preferences from the YAML file at configPath.
func LoadSettingsFile(configPath string) (preferences.Settings, error) {
	settings := preferences.DefaultSettings()

	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes user preferences to YAML.
func SaveSettings(appName string, settings preferences.Settings) error {
	configPath, err := SettingsPath(appName)
	if err != nil {
		return err
	}
	return SaveSettingsFile(configPath, settings)
}

// SaveSettingsFile writes user preferences to the YAML file at configPath.
func SaveSettingsFile(configPath string, settings preferences.Settings) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	historyEnabled := settings.HistoryEnabled
	fileData := yamlSettings{
		DefaultDurationMinutes: int(settings.DefaultDuration / time.Minute),
		TickIntervalMillis:     int(settings.TickInterval / time.Millisecond),
		NotificationTitle:      settings.NotificationTitle,
		NotificationBody:       settings.NotificationBody,
		Store:                  settings.Store,
		HistoryEnabled:         &historyEnabled,
		LogLevel:               settings.LogLevel,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(configPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

// SettingsPath returns the settings file location for appName.
func SettingsPath(appName string) (string, error) {
	configDir, err := platform.ConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

func applyYamlSettings(settings *preferences.Settings, fileData yamlSettings) {
	if fileData.DefaultDurationMinutes > 0 {
		settings.DefaultDuration = time.Duration(fileData.DefaultDurationMinutes) * time.Minute
	}
	if fileData.TickIntervalMillis >= 100 && fileData.TickIntervalMillis <= 10000 {
		settings.TickInterval = time.Duration(fileData.TickIntervalMillis) * time.Millisecond
	}
	if title := strings.TrimSpace(fileData.NotificationTitle); title != "" {
		settings.NotificationTitle = title
	}
	if body := strings.TrimSpace(fileData.NotificationBody); body != "" {
		settings.NotificationBody = body
	}

	switch fileData.Store {
	case preferences.StorePreferences, preferences.StoreFile:
		settings.Store = fileData.Store
	}

	switch strings.ToLower(fileData.LogLevel) {
	case "debug", "info", "warn", "error":
		settings.LogLevel = strings.ToLower(fileData.LogLevel)
	}

	if fileData.HistoryEnabled != nil {
		settings.HistoryEnabled = *fileData.HistoryEnabled
	}
}
