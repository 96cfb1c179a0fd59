/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are preserved implicitly (yaml ignores extras on unmarshal).

// BackendConfig selects and tunes the persistence backend. Mode "http" talks
// to the map API over REST, "direct" writes straight into PostgreSQL.
type BackendConfig struct {
	Mode        string `yaml:"mode"` // "http" | "direct"
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	PGDSN       string `yaml:"pg_dsn"`
	// Token is not stored on disk; it lives in the OS keychain.
}

// EditorConfig tunes the editing engine per session.
type EditorConfig struct {
	HistoryDepth   int  `yaml:"history_depth"`
	SaveDebounceMs int  `yaml:"save_debounce_ms"`
	SaveMaxQueue   int  `yaml:"save_max_queue"`
	SaveMaxRetries int  `yaml:"save_max_retries"`
	SaveRetryMs    int  `yaml:"save_retry_ms"`
	SavedGraceMs   int  `yaml:"saved_grace_ms"`
	DraftCacheOff  bool `yaml:"draft_cache_off"`
}

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark" (informational for now)
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Backend       BackendConfig `yaml:"backend"`
	Editor        EditorConfig  `yaml:"editor"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system"},
		Backend:       BackendConfig{Mode: "http", BaseURL: "http://localhost:8080", TimeoutMs: 15000},
		Editor: EditorConfig{
			HistoryDepth:   100,
			SaveDebounceMs: 1000,
			SaveMaxQueue:   64,
			SaveMaxRetries: 3,
			SaveRetryMs:    1500,
			SavedGraceMs:   2000,
		},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvBackendMode      = "MSE_BACKEND_MODE"
	EnvBackendURL       = "MSE_BACKEND_URL"
	EnvBackendTimeoutMs = "MSE_BACKEND_TIMEOUT_MS"
	EnvBackendTLSInsec  = "MSE_TLS_INSECURE"
	EnvBackendPGDSN     = "MSE_PG_DSN"
	EnvTelemetryOptIn   = "MSE_TELEMETRY_OPT_IN"
	EnvHistoryDepth     = "MSE_HISTORY_DEPTH"
	EnvSaveDebounceMs   = "MSE_SAVE_DEBOUNCE_MS"
	// Logging envs mirror what internal/log reads on its own.
	EnvLogLevel  = "MSE_LOG_LEVEL"
	EnvLogFormat = "MSE_LOG_FORMAT"
	EnvLogSource = "MSE_LOG_SOURCE"
	EnvLogFile   = "MSE_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "MapStoryEditor"
	keyringToken   = "backend_token"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = &osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (k *osKeyring) Get(service, key string) (string, error) {
	return keyringGet(service, key)
}
func (k *osKeyring) Set(service, key, value string) error {
	return keyringSet(service, key, value)
}
func (k *osKeyring) Delete(service, key string) error {
	return keyringDelete(service, key)
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "MapStoryEditor")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "MapStoryEditor")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "mapstoryeditor")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// It also loads the backend token from the keyring (returned separately, never kept in the struct).
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into the OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

// ForgetToken removes the backend token from the OS keyring.
func ForgetToken() error {
	return tokenStore.Delete(keyringService, keyringToken)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if src.Backend.Mode != "" {
		dst.Backend.Mode = strings.ToLower(strings.TrimSpace(src.Backend.Mode))
	}
	if src.Backend.BaseURL != "" {
		dst.Backend.BaseURL = src.Backend.BaseURL
	}
	if src.Backend.TimeoutMs != 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
	}
	if src.Backend.PGDSN != "" {
		dst.Backend.PGDSN = src.Backend.PGDSN
	}
	dst.Backend.TLSInsecure = src.Backend.TLSInsecure
	if src.Editor.HistoryDepth != 0 {
		dst.Editor.HistoryDepth = src.Editor.HistoryDepth
	}
	if src.Editor.SaveDebounceMs != 0 {
		dst.Editor.SaveDebounceMs = src.Editor.SaveDebounceMs
	}
	if src.Editor.SaveMaxQueue != 0 {
		dst.Editor.SaveMaxQueue = src.Editor.SaveMaxQueue
	}
	if src.Editor.SaveMaxRetries != 0 {
		dst.Editor.SaveMaxRetries = src.Editor.SaveMaxRetries
	}
	if src.Editor.SaveRetryMs != 0 {
		dst.Editor.SaveRetryMs = src.Editor.SaveRetryMs
	}
	if src.Editor.SavedGraceMs != 0 {
		dst.Editor.SavedGraceMs = src.Editor.SavedGraceMs
	}
	dst.Editor.DraftCacheOff = src.Editor.DraftCacheOff
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvBackendMode)); v != "" {
		cfg.Backend.Mode = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTLSInsec)); v != "" {
		cfg.Backend.TLSInsecure = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendPGDSN)); v != "" {
		cfg.Backend.PGDSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryDepth)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Editor.HistoryDepth = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSaveDebounceMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Editor.SaveDebounceMs = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	switch key {
	case "backend.mode":
		if os.Getenv(EnvBackendMode) != "" {
			return EnvBackendMode, true
		}
	case "backend.base_url":
		if os.Getenv(EnvBackendURL) != "" {
			return EnvBackendURL, true
		}
	case "backend.timeout_ms":
		if os.Getenv(EnvBackendTimeoutMs) != "" {
			return EnvBackendTimeoutMs, true
		}
	case "backend.tls_insecure":
		if os.Getenv(EnvBackendTLSInsec) != "" {
			return EnvBackendTLSInsec, true
		}
	case "backend.pg_dsn":
		if os.Getenv(EnvBackendPGDSN) != "" {
			return EnvBackendPGDSN, true
		}
	case "general.telemetry_opt_in":
		if os.Getenv(EnvTelemetryOptIn) != "" {
			return EnvTelemetryOptIn, true
		}
	case "editor.history_depth":
		if os.Getenv(EnvHistoryDepth) != "" {
			return EnvHistoryDepth, true
		}
	case "editor.save_debounce_ms":
		if os.Getenv(EnvSaveDebounceMs) != "" {
			return EnvSaveDebounceMs, true
		}
	case "logging.level":
		if os.Getenv(EnvLogLevel) != "" {
			return EnvLogLevel, true
		}
	case "logging.format":
		if os.Getenv(EnvLogFormat) != "" {
			return EnvLogFormat, true
		}
	case "logging.source":
		if os.Getenv(EnvLogSource) != "" {
			return EnvLogSource, true
		}
	case "logging.file":
		if os.Getenv(EnvLogFile) != "" {
			return EnvLogFile, true
		}
	}
	return "", false
}

// EffectiveTimeout returns the backend HTTP timeout as a duration.
func (b BackendConfig) EffectiveTimeout() time.Duration {
	ms := b.TimeoutMs
	if ms <= 0 {
		ms = Defaults().Backend.TimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}

// Debounce, RetryDelay and SavedGrace convert the editor section into
// engine durations.
func (e EditorConfig) Debounce() time.Duration {
	return time.Duration(e.SaveDebounceMs) * time.Millisecond
}

func (e EditorConfig) RetryDelay() time.Duration {
	return time.Duration(e.SaveRetryMs) * time.Millisecond
}

func (e EditorConfig) SavedGrace() time.Duration {
	return time.Duration(e.SavedGraceMs) * time.Millisecond
}
